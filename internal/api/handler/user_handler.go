package handler

import (
	"github.com/gin-gonic/gin"

	"shiftboard/internal/dto"
	"shiftboard/internal/service"
	"shiftboard/pkg/response"
)

// UserHandler the caller's own account
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler creates a UserHandler
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// GetMe GET /api/v1/users/me
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	me, err := h.userSvc.GetMe(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, me)
}

// UpdatePushToken registers or clears the caller's device
// PUT /api/v1/users/me/push-token
func (h *UserHandler) UpdatePushToken(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.UpdatePushTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	if err := h.userSvc.UpdatePushToken(c.Request.Context(), userID, &req); err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, nil)
}
