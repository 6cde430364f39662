package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pagemarkhq/pagemark-backend/internal/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, http.StatusNotFound, "user_not_found", err)
		return
	}
	RespondOK(c, user)
}
