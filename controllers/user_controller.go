package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/achievehub/achievehub/store"
	"github.com/achievehub/achievehub/utils"
)

// UserController handles profile reads, self-service updates, and the admin
// student directory.
type UserController struct {
	users store.UserStore
}

// NewUserController creates a new UserController instance.
func NewUserController(users store.UserStore) *UserController {
	return &UserController{users: users}
}

// Get returns a user's public profile. Password hashes never serialize.
func (u *UserController) Get(ctx *gin.Context) {
	user, err := u.users.FindUserByID(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondStoreError(ctx, err, "failed to fetch user")
		return
	}
	utils.Success(ctx, user)
}

type updateUserRequest struct {
	Username   *string `json:"username"`
	ProfilePic *string `json:"profilePic"`
	Password   *string `json:"password"`
}

// Update edits the caller's own profile; admins may edit anyone. Passwords
// are hashed before they reach the store.
func (u *UserController) Update(ctx *gin.Context) {
	id := ctx.Param("id")
	if !isAdmin(ctx) && id != currentUserID(ctx) {
		utils.Error(ctx, http.StatusForbidden, "you can only update your own account")
		return
	}

	var req updateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "invalid request body")
		return
	}

	patch := store.UserPatch{ProfilePic: req.ProfilePic}
	if req.Username != nil {
		trimmed := strings.TrimSpace(*req.Username)
		if trimmed == "" {
			utils.Error(ctx, http.StatusBadRequest, "username cannot be empty")
			return
		}
		patch.Username = &trimmed
	}
	if req.Password != nil {
		hash, err := utils.HashPassword(*req.Password)
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, "failed to hash password")
			return
		}
		patch.Password = &hash
	}

	user, err := u.users.UpdateUser(ctx.Request.Context(), id, patch)
	if err != nil {
		respondStoreError(ctx, err, "failed to update user")
		return
	}
	utils.Success(ctx, user)
}

// Delete removes the caller's own account; admins may remove anyone.
func (u *UserController) Delete(ctx *gin.Context) {
	id := ctx.Param("id")
	if !isAdmin(ctx) && id != currentUserID(ctx) {
		utils.Error(ctx, http.StatusForbidden, "you can only delete your own account")
		return
	}

	if err := u.users.DeleteUser(ctx.Request.Context(), id); err != nil {
		respondStoreError(ctx, err, "failed to delete user")
		return
	}
	utils.Success(ctx, gin.H{"message": "Account has been deleted"})
}

// ListStudents serves the paginated admin directory of student accounts, with
// an optional search over usernames and emails.
func (u *UserController) ListStudents(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	search := strings.TrimSpace(ctx.Query("search"))

	users, totalPages, err := u.users.ListStudents(ctx.Request.Context(), page, search)
	if err != nil {
		respondStoreError(ctx, err, "failed to fetch students")
		return
	}
	utils.Success(ctx, gin.H{
		"users":      users,
		"page":       page,
		"totalPages": totalPages,
	})
}
