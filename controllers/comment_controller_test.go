package controllers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/achievehub/achievehub/models"
	"github.com/achievehub/achievehub/store"
)

func commentRouter(comments store.CommentStore, posts store.PostStore, userID, username, role string) *gin.Engine {
	router := gin.New()
	ctrl := NewCommentController(comments, posts)
	authed := router.Group("", withClaims(userID, username, role))
	authed.POST("/api/comments", ctrl.Create)
	authed.PUT("/api/comments/:id", ctrl.Update)
	authed.DELETE("/api/comments/:id", ctrl.Delete)
	router.GET("/api/comments/:postId", ctrl.List)
	return router
}

func TestCreateCommentOnMissingPost(t *testing.T) {
	postID := primitive.NewObjectID()
	comments := new(mockCommentStore)
	posts := new(mockPostStore)
	posts.On("GetPost", mock.Anything, postID.Hex()).Return(nil, store.ErrNotFound)

	router := commentRouter(comments, posts, primitive.NewObjectID().Hex(), "Jane", models.RoleStudent)
	w := doJSON(router, http.MethodPost, "/api/comments", gin.H{
		"postId": postID.Hex(),
		"text":   "congrats!",
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
	comments.AssertNotCalled(t, "CreateComment", mock.Anything, mock.Anything)
}

func TestCreateReplyCarriesParentID(t *testing.T) {
	postID := primitive.NewObjectID()
	parentID := primitive.NewObjectID()
	userID := primitive.NewObjectID()

	posts := new(mockPostStore)
	posts.On("GetPost", mock.Anything, postID.Hex()).Return(&models.Post{ID: postID}, nil)

	comments := new(mockCommentStore)
	comments.On("CreateComment", mock.Anything, mock.MatchedBy(func(c *models.Comment) bool {
		return c.PostID == postID && c.ParentCommentID != nil && *c.ParentCommentID == parentID
	})).Return(&models.Comment{
		ID:              primitive.NewObjectID(),
		PostID:          postID,
		UserID:          userID,
		ParentCommentID: &parentID,
		Text:            "well done",
	}, nil)

	router := commentRouter(comments, posts, userID.Hex(), "Jane", models.RoleStudent)
	w := doJSON(router, http.MethodPost, "/api/comments", gin.H{
		"postId":          postID.Hex(),
		"text":            "well done",
		"parentCommentId": parentID.Hex(),
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	comments.AssertExpectations(t)
}

func TestCreateReplyToMissingParent(t *testing.T) {
	postID := primitive.NewObjectID()
	posts := new(mockPostStore)
	posts.On("GetPost", mock.Anything, postID.Hex()).Return(&models.Post{ID: postID}, nil)

	comments := new(mockCommentStore)
	comments.On("CreateComment", mock.Anything, mock.Anything).Return(nil, store.ErrNotFound)

	router := commentRouter(comments, posts, primitive.NewObjectID().Hex(), "Jane", models.RoleStudent)
	w := doJSON(router, http.MethodPost, "/api/comments", gin.H{
		"postId":          postID.Hex(),
		"text":            "orphan reply",
		"parentCommentId": primitive.NewObjectID().Hex(),
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteCommentForbiddenForNonAuthor(t *testing.T) {
	author := primitive.NewObjectID()
	commentID := primitive.NewObjectID()

	comments := new(mockCommentStore)
	comments.On("GetComment", mock.Anything, commentID.Hex()).Return(&models.Comment{
		ID:     commentID,
		UserID: author,
	}, nil)

	router := commentRouter(comments, new(mockPostStore), primitive.NewObjectID().Hex(), "Eve", models.RoleStudent)
	w := doJSON(router, http.MethodDelete, "/api/comments/"+commentID.Hex(), nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
	comments.AssertNotCalled(t, "DeleteComment", mock.Anything, mock.Anything)
}

func TestDeleteCommentAdminOverride(t *testing.T) {
	author := primitive.NewObjectID()
	commentID := primitive.NewObjectID()

	comments := new(mockCommentStore)
	comments.On("GetComment", mock.Anything, commentID.Hex()).Return(&models.Comment{
		ID:     commentID,
		UserID: author,
	}, nil)
	comments.On("DeleteComment", mock.Anything, commentID.Hex()).Return(nil)

	router := commentRouter(comments, new(mockPostStore), primitive.NewObjectID().Hex(), "Admin", models.RoleAdmin)
	w := doJSON(router, http.MethodDelete, "/api/comments/"+commentID.Hex(), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	comments.AssertExpectations(t)
}

func TestListThreads(t *testing.T) {
	postID := primitive.NewObjectID()
	comments := new(mockCommentStore)
	comments.On("ListThreads", mock.Anything, postID.Hex()).Return([]models.CommentThread{
		{Comment: models.Comment{ID: primitive.NewObjectID(), Text: "top"}, Replies: []models.Comment{}},
	}, nil)

	router := commentRouter(comments, new(mockPostStore), "", "", "")
	w := doJSON(router, http.MethodGet, "/api/comments/"+postID.Hex(), nil)

	assert.Equal(t, http.StatusOK, w.Code)
}
