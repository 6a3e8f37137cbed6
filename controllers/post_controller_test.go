package controllers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/achievehub/achievehub/models"
	"github.com/achievehub/achievehub/store"
)

func postRouter(posts store.PostStore, userID, username, role string) *gin.Engine {
	router := gin.New()
	ctrl := NewPostController(posts)
	authed := router.Group("", withClaims(userID, username, role))
	authed.POST("/api/posts", ctrl.Create)
	authed.PUT("/api/posts/edit/:id", ctrl.Update)
	authed.DELETE("/api/posts/:id", ctrl.Delete)
	authed.PUT("/api/posts/:id/like", ctrl.Like)
	authed.PUT("/api/posts/:id/unlike", ctrl.Unlike)
	authed.PUT("/api/posts/reject/:id", ctrl.Reject)
	authed.POST("/api/posts/bulk-delete", ctrl.BulkDelete)
	router.GET("/api/posts", ctrl.List)
	router.GET("/api/posts/:id", ctrl.Get)
	return router
}

func TestBuildPostPatch(t *testing.T) {
	title := "New Title"
	empty := ""
	tags := []string{"Project", "Final Year"}

	patch := buildPostPatch(updatePostRequest{Title: &title, Video: &empty, Tags: &tags})

	assert.Equal(t, "New Title", patch["title"])
	assert.Equal(t, "", patch["video"], "explicit empty string clears the field")
	assert.Equal(t, tags, patch["tags"])
	assert.NotContains(t, patch, "desc")
	assert.NotContains(t, patch, "photo")
}

func TestBuildPostPatchEmptyRequest(t *testing.T) {
	assert.Empty(t, buildPostPatch(updatePostRequest{}))
}

func TestBuildPostPatchSkipsEmptyFields(t *testing.T) {
	empty := ""
	blank := "   "
	noTags := []string{}

	patch := buildPostPatch(updatePostRequest{
		Title: &empty,
		Desc:  &blank,
		Photo: &empty,
		Tags:  &noTags,
	})

	assert.Empty(t, patch, "blank inputs must not overwrite existing values")
}

func TestUpdatePostAllEmptyFieldsRejected(t *testing.T) {
	owner := primitive.NewObjectID()
	postID := primitive.NewObjectID()

	posts := new(mockPostStore)
	posts.On("GetPost", mock.Anything, postID.Hex()).Return(&models.Post{ID: postID, UserID: owner}, nil)
	posts.On("UpdatePost", mock.Anything, postID.Hex(), mock.MatchedBy(func(p bson.M) bool {
		return len(p) == 0
	})).Return(nil, store.ErrEmptyPatch)

	router := postRouter(posts, owner.Hex(), "Jane", models.RoleStudent)
	w := doJSON(router, http.MethodPut, "/api/posts/edit/"+postID.Hex(), gin.H{
		"title": "",
		"desc":  "",
		"photo": "",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	posts.AssertExpectations(t)
}

func TestCreatePostDuplicateTitle(t *testing.T) {
	userID := primitive.NewObjectID()
	posts := new(mockPostStore)
	posts.On("CreatePost", mock.Anything, mock.Anything).Return(nil, store.ErrDuplicateTitle)

	router := postRouter(posts, userID.Hex(), "Jane", models.RoleStudent)
	w := doJSON(router, http.MethodPost, "/api/posts", gin.H{
		"title": "My Patent",
		"desc":  "Filed a patent",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["message"], "already exists")
}

func TestCreatePostStartsPending(t *testing.T) {
	userID := primitive.NewObjectID()
	posts := new(mockPostStore)
	posts.On("CreatePost", mock.Anything, mock.MatchedBy(func(p *models.Post) bool {
		return p.UserID == userID && p.Username == "Jane" && p.Title == "My Patent"
	})).Return(&models.Post{
		ID:       primitive.NewObjectID(),
		Title:    "My Patent",
		UserID:   userID,
		Username: "Jane",
		Status:   models.StatusPending,
	}, nil)

	router := postRouter(posts, userID.Hex(), "Jane", models.RoleStudent)
	w := doJSON(router, http.MethodPost, "/api/posts", gin.H{
		"title": "My Patent",
		"desc":  "Filed a patent",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, models.StatusPending, decodeBody(t, w)["status"])
	posts.AssertExpectations(t)
}

func TestRejectRequiresReason(t *testing.T) {
	posts := new(mockPostStore)
	router := postRouter(posts, primitive.NewObjectID().Hex(), "Admin", models.RoleAdmin)

	w := doJSON(router, http.MethodPut, "/api/posts/reject/abc123", gin.H{"reason": "  "})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	posts.AssertNotCalled(t, "RejectPost", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdatePostForbiddenForNonOwner(t *testing.T) {
	owner := primitive.NewObjectID()
	stranger := primitive.NewObjectID()
	postID := primitive.NewObjectID()

	posts := new(mockPostStore)
	posts.On("GetPost", mock.Anything, postID.Hex()).Return(&models.Post{
		ID:     postID,
		UserID: owner,
	}, nil)

	router := postRouter(posts, stranger.Hex(), "Eve", models.RoleStudent)
	w := doJSON(router, http.MethodPut, "/api/posts/edit/"+postID.Hex(), gin.H{"title": "Hijacked"})

	assert.Equal(t, http.StatusForbidden, w.Code)
	posts.AssertNotCalled(t, "UpdatePost", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdatePostAdminBypassesOwnership(t *testing.T) {
	owner := primitive.NewObjectID()
	postID := primitive.NewObjectID()

	posts := new(mockPostStore)
	posts.On("GetPost", mock.Anything, postID.Hex()).Return(&models.Post{ID: postID, UserID: owner}, nil)
	posts.On("UpdatePost", mock.Anything, postID.Hex(), mock.Anything).Return(&models.Post{
		ID:     postID,
		UserID: owner,
		Title:  "Corrected",
	}, nil)

	router := postRouter(posts, primitive.NewObjectID().Hex(), "Admin", models.RoleAdmin)
	w := doJSON(router, http.MethodPut, "/api/posts/edit/"+postID.Hex(), gin.H{"title": "Corrected"})

	assert.Equal(t, http.StatusOK, w.Code)
	posts.AssertExpectations(t)
}

func TestUpdatePostEmptyPatch(t *testing.T) {
	owner := primitive.NewObjectID()
	postID := primitive.NewObjectID()

	posts := new(mockPostStore)
	posts.On("GetPost", mock.Anything, postID.Hex()).Return(&models.Post{ID: postID, UserID: owner}, nil)
	posts.On("UpdatePost", mock.Anything, postID.Hex(), mock.Anything).Return(nil, store.ErrEmptyPatch)

	router := postRouter(posts, owner.Hex(), "Jane", models.RoleStudent)
	w := doJSON(router, http.MethodPut, "/api/posts/edit/"+postID.Hex(), gin.H{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLikePostReturnsNewCount(t *testing.T) {
	posts := new(mockPostStore)
	posts.On("LikePost", mock.Anything, "abc").Return(int64(5), nil)

	router := postRouter(posts, primitive.NewObjectID().Hex(), "Jane", models.RoleStudent)
	w := doJSON(router, http.MethodPut, "/api/posts/abc/like", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(5), decodeBody(t, w)["likes"])
}

func TestUnlikeUnknownPost(t *testing.T) {
	posts := new(mockPostStore)
	posts.On("UnlikePost", mock.Anything, "abc").Return(int64(0), store.ErrNotFound)

	router := postRouter(posts, primitive.NewObjectID().Hex(), "Jane", models.RoleStudent)
	w := doJSON(router, http.MethodPut, "/api/posts/abc/unlike", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListSearchWinsOverCategoryAndYear(t *testing.T) {
	posts := new(mockPostStore)
	posts.On("ListPosts", mock.Anything, store.PostFilter{
		Search:   "robotics",
		Category: "Project",
		Year:     "Final Year",
	}).Return([]models.PostWithEmail{}, nil)

	router := postRouter(posts, "", "", "")
	w := doJSON(router, http.MethodGet, "/api/posts?search=robotics&cat=Project&year=Final+Year", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	posts.AssertExpectations(t)
}

func TestGetPostRegistersViewBestEffort(t *testing.T) {
	postID := primitive.NewObjectID()
	posts := new(mockPostStore)
	posts.On("RegisterView", mock.Anything, postID.Hex(), mock.Anything).Return(assert.AnError)
	posts.On("GetPost", mock.Anything, postID.Hex()).Return(&models.Post{ID: postID, Title: "Resilient"}, nil)

	router := postRouter(posts, "", "", "")
	w := doJSON(router, http.MethodGet, "/api/posts/"+postID.Hex(), nil)

	assert.Equal(t, http.StatusOK, w.Code, "a failed view update must not fail the read")
	posts.AssertExpectations(t)
}

func TestBulkDeleteReportsAggregateCount(t *testing.T) {
	posts := new(mockPostStore)
	ids := []string{primitive.NewObjectID().Hex(), primitive.NewObjectID().Hex()}
	posts.On("BulkDeletePosts", mock.Anything, ids).Return(int64(2), nil)

	router := postRouter(posts, primitive.NewObjectID().Hex(), "Admin", models.RoleAdmin)
	w := doJSON(router, http.MethodPost, "/api/posts/bulk-delete", gin.H{"postIds": ids})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decodeBody(t, w)["deletedCount"])
}
