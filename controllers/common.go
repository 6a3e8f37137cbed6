package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/achievehub/achievehub/middleware"
	"github.com/achievehub/achievehub/models"
	"github.com/achievehub/achievehub/store"
	"github.com/achievehub/achievehub/utils"
)

// currentUserID returns the authenticated user's id from the request context.
func currentUserID(ctx *gin.Context) string {
	return ctx.GetString(middleware.ContextUserIDKey)
}

func currentUsername(ctx *gin.Context) string {
	return ctx.GetString(middleware.ContextUsernameKey)
}

func isAdmin(ctx *gin.Context) bool {
	return ctx.GetString(middleware.ContextRoleKey) == models.RoleAdmin
}

// respondStoreError maps store sentinel errors onto HTTP statuses. Unknown
// errors log and surface as 500 with the given fallback message.
func respondStoreError(ctx *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrInvalidID):
		utils.Error(ctx, http.StatusBadRequest, "invalid id")
	case errors.Is(err, store.ErrDuplicateTitle):
		utils.Error(ctx, http.StatusBadRequest, store.ErrDuplicateTitle.Error())
	case errors.Is(err, store.ErrDuplicateUser):
		utils.Error(ctx, http.StatusBadRequest, "username or email already taken")
	case errors.Is(err, store.ErrEmptyPatch):
		utils.Error(ctx, http.StatusBadRequest, "no fields to update")
	default:
		utils.Sugar.Errorf("%s: %v", fallback, err)
		utils.Error(ctx, http.StatusInternalServerError, fallback)
	}
}
