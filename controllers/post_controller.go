package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/achievehub/achievehub/models"
	"github.com/achievehub/achievehub/store"
	"github.com/achievehub/achievehub/utils"
)

// PostController handles the achievement post lifecycle: creation, moderation,
// listing, reactions, and deletion.
type PostController struct {
	posts store.PostStore
}

// NewPostController creates a new PostController instance.
func NewPostController(posts store.PostStore) *PostController {
	return &PostController{posts: posts}
}

type createPostRequest struct {
	Title string   `json:"title" binding:"required"`
	Desc  string   `json:"desc" binding:"required"`
	Photo string   `json:"photo"`
	Video string   `json:"video"`
	Tags  []string `json:"tags"`
}

// Create submits a new achievement post. Every submission enters the pending
// state awaiting moderation, regardless of who the author is.
func (p *PostController) Create(ctx *gin.Context) {
	var req createPostRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "title and desc are required")
		return
	}

	userID, err := primitive.ObjectIDFromHex(currentUserID(ctx))
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, "invalid session")
		return
	}

	post := &models.Post{
		Title:    strings.TrimSpace(req.Title),
		Desc:     utils.Sanitize(req.Desc),
		Photo:    req.Photo,
		Video:    req.Video,
		UserID:   userID,
		Username: currentUsername(ctx),
		Tags:     req.Tags,
	}

	created, err := p.posts.CreatePost(ctx.Request.Context(), post)
	if err != nil {
		respondStoreError(ctx, err, "failed to create post")
		return
	}
	ctx.JSON(http.StatusCreated, created)
}

// Get returns one post and registers a unique view for the caller. View
// registration is best effort; a failed counter update never fails the read.
func (p *PostController) Get(ctx *gin.Context) {
	id := ctx.Param("id")

	if err := p.posts.RegisterView(ctx.Request.Context(), id, viewerIdentity(ctx)); err != nil &&
		!errors.Is(err, store.ErrInvalidID) {
		utils.Sugar.Warnf("failed to register view on post %s: %v", id, err)
	}

	post, err := p.posts.GetPost(ctx.Request.Context(), id)
	if err != nil {
		respondStoreError(ctx, err, "failed to fetch post")
		return
	}
	utils.Success(ctx, post)
}

type updatePostRequest struct {
	Title *string   `json:"title"`
	Desc  *string   `json:"desc"`
	Photo *string   `json:"photo"`
	Video *string   `json:"video"`
	Tags  *[]string `json:"tags"`
}

// buildPostPatch turns the sparse update request into a $set document. Only
// fields that are present and non-empty are applied, so a client echoing back
// blank inputs never wipes existing values. Video is the one exception: an
// explicitly supplied empty string removes the video from the post.
func buildPostPatch(req updatePostRequest) bson.M {
	patch := bson.M{}
	if req.Title != nil {
		if title := strings.TrimSpace(*req.Title); title != "" {
			patch["title"] = title
		}
	}
	if req.Desc != nil {
		if strings.TrimSpace(*req.Desc) != "" {
			patch["desc"] = utils.Sanitize(*req.Desc)
		}
	}
	if req.Photo != nil && *req.Photo != "" {
		patch["photo"] = *req.Photo
	}
	if req.Video != nil {
		patch["video"] = *req.Video
	}
	if req.Tags != nil && len(*req.Tags) > 0 {
		patch["tags"] = *req.Tags
	}
	return patch
}

// Update applies a sparse edit to the caller's own post. Admins may edit any
// post. A body with no recognized fields is rejected.
func (p *PostController) Update(ctx *gin.Context) {
	id := ctx.Param("id")

	if !p.authorizePostAccess(ctx, id) {
		return
	}

	var req updatePostRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := p.posts.UpdatePost(ctx.Request.Context(), id, buildPostPatch(req))
	if err != nil {
		respondStoreError(ctx, err, "failed to update post")
		return
	}
	utils.Success(ctx, updated)
}

// Delete removes the caller's own post, or any post for admins. Comment
// threads on the post are removed with it.
func (p *PostController) Delete(ctx *gin.Context) {
	id := ctx.Param("id")

	if !p.authorizePostAccess(ctx, id) {
		return
	}

	if err := p.posts.DeletePost(ctx.Request.Context(), id); err != nil {
		respondStoreError(ctx, err, "failed to delete post")
		return
	}
	utils.Success(ctx, gin.H{"message": "Post has been deleted"})
}

// List serves the public feed of approved posts. Search takes precedence over
// category and year filters when combined.
func (p *PostController) List(ctx *gin.Context) {
	filter := store.PostFilter{
		Search:   strings.TrimSpace(ctx.Query("search")),
		Author:   ctx.Query("user"),
		Tag:      ctx.Query("tag"),
		Category: ctx.Query("cat"),
		Year:     ctx.Query("year"),
	}

	posts, err := p.posts.ListPosts(ctx.Request.Context(), filter)
	if err != nil {
		respondStoreError(ctx, err, "failed to fetch posts")
		return
	}
	utils.Success(ctx, posts)
}

// ListMine returns the caller's own posts in every moderation state, so
// authors can see pending and rejected entries the public feed hides.
func (p *PostController) ListMine(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "10"))
	search := strings.TrimSpace(ctx.Query("search"))

	posts, total, err := p.posts.ListMyPosts(ctx.Request.Context(), currentUserID(ctx), page, limit, search)
	if err != nil {
		respondStoreError(ctx, err, "failed to fetch posts")
		return
	}
	utils.Success(ctx, gin.H{
		"posts":      posts,
		"totalPosts": total,
		"page":       page,
	})
}

// ListPending serves the admin review queue, newest first, with author emails
// joined in.
func (p *PostController) ListPending(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "10"))

	posts, total, err := p.posts.ListPending(ctx.Request.Context(), page, limit)
	if err != nil {
		respondStoreError(ctx, err, "failed to fetch pending posts")
		return
	}
	utils.Success(ctx, gin.H{
		"posts":      posts,
		"totalPosts": total,
		"page":       page,
	})
}

// Approve publishes a pending post.
func (p *PostController) Approve(ctx *gin.Context) {
	post, err := p.posts.ApprovePost(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondStoreError(ctx, err, "failed to approve post")
		return
	}
	utils.Success(ctx, gin.H{"message": "Post approved", "post": post})
}

// Reject declines a pending post. A reason is mandatory so the author always
// learns why.
func (p *PostController) Reject(ctx *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Reason) == "" {
		utils.Error(ctx, http.StatusBadRequest, "rejection reason is required")
		return
	}

	post, err := p.posts.RejectPost(ctx.Request.Context(), ctx.Param("id"), strings.TrimSpace(req.Reason))
	if err != nil {
		respondStoreError(ctx, err, "failed to reject post")
		return
	}
	utils.Success(ctx, gin.H{"message": "Post rejected", "post": post})
}

// Like increments the post's like counter and returns the new value.
func (p *PostController) Like(ctx *gin.Context) {
	likes, err := p.posts.LikePost(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondStoreError(ctx, err, "failed to like post")
		return
	}
	utils.Success(ctx, gin.H{"likes": likes})
}

// Unlike decrements the post's like counter. The counter never goes below
// zero.
func (p *PostController) Unlike(ctx *gin.Context) {
	likes, err := p.posts.UnlikePost(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondStoreError(ctx, err, "failed to unlike post")
		return
	}
	utils.Success(ctx, gin.H{"likes": likes})
}

// BulkDelete removes a set of posts in one call and reports the aggregate
// count. Admin only.
func (p *PostController) BulkDelete(ctx *gin.Context) {
	var req struct {
		PostIDs []string `json:"postIds" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil || len(req.PostIDs) == 0 {
		utils.Error(ctx, http.StatusBadRequest, "postIds is required")
		return
	}

	deleted, err := p.posts.BulkDeletePosts(ctx.Request.Context(), req.PostIDs)
	if err != nil {
		respondStoreError(ctx, err, "failed to delete posts")
		return
	}
	utils.Success(ctx, gin.H{"deletedCount": deleted})
}

// authorizePostAccess loads the post and verifies the caller owns it or is an
// admin. It writes the error response itself and reports whether to proceed.
func (p *PostController) authorizePostAccess(ctx *gin.Context, id string) bool {
	post, err := p.posts.GetPost(ctx.Request.Context(), id)
	if err != nil {
		respondStoreError(ctx, err, "failed to fetch post")
		return false
	}
	if !isAdmin(ctx) && post.UserID.Hex() != currentUserID(ctx) {
		utils.Error(ctx, http.StatusForbidden, "you can only modify your own posts")
		return false
	}
	return true
}

// viewerIdentity picks the identity a view is deduplicated on: the user id
// when the request carries a valid token, otherwise the client IP.
func viewerIdentity(ctx *gin.Context) string {
	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		if claims, err := utils.ParseToken(strings.TrimSpace(parts[1])); err == nil {
			return claims.UserID
		}
	}
	return ctx.ClientIP()
}
