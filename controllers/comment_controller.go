package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/achievehub/achievehub/models"
	"github.com/achievehub/achievehub/store"
	"github.com/achievehub/achievehub/utils"
)

// CommentController handles the two-level comment threads under posts.
type CommentController struct {
	comments store.CommentStore
	posts    store.PostStore
}

// NewCommentController creates a new CommentController instance.
func NewCommentController(comments store.CommentStore, posts store.PostStore) *CommentController {
	return &CommentController{comments: comments, posts: posts}
}

type createCommentRequest struct {
	PostID          string `json:"postId" binding:"required"`
	Text            string `json:"text" binding:"required"`
	ParentCommentID string `json:"parentCommentId"`
}

// Create adds a comment or a reply. Replying to a reply attaches the new
// comment to the original top-level comment, so threads stay one level deep.
func (c *CommentController) Create(ctx *gin.Context) {
	var req createCommentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "postId and text are required")
		return
	}

	postID, err := primitive.ObjectIDFromHex(req.PostID)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, "invalid post id")
		return
	}
	if _, err := c.posts.GetPost(ctx.Request.Context(), req.PostID); err != nil {
		respondStoreError(ctx, err, "failed to fetch post")
		return
	}

	userID, err := primitive.ObjectIDFromHex(currentUserID(ctx))
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, "invalid session")
		return
	}

	comment := &models.Comment{
		PostID:   postID,
		UserID:   userID,
		Username: currentUsername(ctx),
		Text:     utils.Sanitize(strings.TrimSpace(req.Text)),
	}
	if req.ParentCommentID != "" {
		parentID, err := primitive.ObjectIDFromHex(req.ParentCommentID)
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, "invalid parent comment id")
			return
		}
		comment.ParentCommentID = &parentID
	}

	created, err := c.comments.CreateComment(ctx.Request.Context(), comment)
	if err != nil {
		respondStoreError(ctx, err, "failed to create comment")
		return
	}
	ctx.JSON(http.StatusCreated, created)
}

// List returns a post's comment threads, newest first, replies resolved.
func (c *CommentController) List(ctx *gin.Context) {
	threads, err := c.comments.ListThreads(ctx.Request.Context(), ctx.Param("postId"))
	if err != nil {
		respondStoreError(ctx, err, "failed to fetch comments")
		return
	}
	utils.Success(ctx, threads)
}

// Update edits a comment's text. Only the author or an admin may edit.
func (c *CommentController) Update(ctx *gin.Context) {
	id := ctx.Param("id")

	if !c.authorizeCommentAccess(ctx, id) {
		return
	}

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "text is required")
		return
	}

	updated, err := c.comments.UpdateCommentText(ctx.Request.Context(), id, utils.Sanitize(strings.TrimSpace(req.Text)))
	if err != nil {
		respondStoreError(ctx, err, "failed to update comment")
		return
	}
	utils.Success(ctx, updated)
}

// Delete removes a comment and, for top-level comments, every reply under it.
func (c *CommentController) Delete(ctx *gin.Context) {
	id := ctx.Param("id")

	if !c.authorizeCommentAccess(ctx, id) {
		return
	}

	if err := c.comments.DeleteComment(ctx.Request.Context(), id); err != nil {
		respondStoreError(ctx, err, "failed to delete comment")
		return
	}
	utils.Success(ctx, gin.H{"message": "Comment has been deleted"})
}

func (c *CommentController) authorizeCommentAccess(ctx *gin.Context, id string) bool {
	comment, err := c.comments.GetComment(ctx.Request.Context(), id)
	if err != nil {
		respondStoreError(ctx, err, "failed to fetch comment")
		return false
	}
	if !isAdmin(ctx) && comment.UserID.Hex() != currentUserID(ctx) {
		utils.Error(ctx, http.StatusForbidden, "you can only modify your own comments")
		return false
	}
	return true
}
