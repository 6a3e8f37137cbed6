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
	"github.com/achievehub/achievehub/utils"
)

func userRouter(users store.UserStore, userID, username, role string) *gin.Engine {
	router := gin.New()
	ctrl := NewUserController(users)
	authed := router.Group("", withClaims(userID, username, role))
	authed.GET("/api/users/:id", ctrl.Get)
	authed.PUT("/api/users/:id", ctrl.Update)
	authed.DELETE("/api/users/:id", ctrl.Delete)
	authed.GET("/api/users", ctrl.ListStudents)
	return router
}

func TestUpdateUserForbiddenForOtherAccount(t *testing.T) {
	users := new(mockUserStore)
	router := userRouter(users, primitive.NewObjectID().Hex(), "Eve", models.RoleStudent)

	w := doJSON(router, http.MethodPut, "/api/users/"+primitive.NewObjectID().Hex(), gin.H{
		"username": "Hijacked",
	})

	assert.Equal(t, http.StatusForbidden, w.Code)
	users.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateUserHashesPassword(t *testing.T) {
	selfID := primitive.NewObjectID()
	users := new(mockUserStore)
	users.On("UpdateUser", mock.Anything, selfID.Hex(), mock.MatchedBy(func(p store.UserPatch) bool {
		return p.Password != nil && *p.Password != "new-password" &&
			utils.CheckPassword(*p.Password, "new-password")
	})).Return(&models.User{ID: selfID, Username: "Jane"}, nil)

	router := userRouter(users, selfID.Hex(), "Jane", models.RoleStudent)
	w := doJSON(router, http.MethodPut, "/api/users/"+selfID.Hex(), gin.H{
		"password": "new-password",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	users.AssertExpectations(t)
}

func TestUpdateUserRejectsBlankUsername(t *testing.T) {
	selfID := primitive.NewObjectID()
	users := new(mockUserStore)

	router := userRouter(users, selfID.Hex(), "Jane", models.RoleStudent)
	w := doJSON(router, http.MethodPut, "/api/users/"+selfID.Hex(), gin.H{
		"username": "   ",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListStudentsPaginates(t *testing.T) {
	users := new(mockUserStore)
	users.On("ListStudents", mock.Anything, 2, "jane").Return([]models.User{
		{ID: primitive.NewObjectID(), Username: "Jane", Role: models.RoleStudent},
	}, int64(3), nil)

	router := userRouter(users, primitive.NewObjectID().Hex(), "Admin", models.RoleAdmin)
	w := doJSON(router, http.MethodGet, "/api/users?page=2&search=jane", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(2), body["page"])
	assert.Equal(t, float64(3), body["totalPages"])
	users.AssertExpectations(t)
}
