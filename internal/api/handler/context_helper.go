package handler

import (
	"github.com/gin-gonic/gin"

	"shiftboard/internal/service"
	apperrors "shiftboard/pkg/errors"
	"shiftboard/pkg/response"
)

// Context keys set by middleware.JWTAuth
const (
	ctxUserID      = "user_id"
	ctxRole        = "role"
	ctxStoreID     = "store_id"
	ctxPermissions = "permissions"
)

// MustGetUserID extracts user_id injected by the auth middleware.
// On failure it writes a 401 and returns false; the caller should return.
func MustGetUserID(c *gin.Context) (string, bool) {
	s := c.GetString(ctxUserID)
	if s == "" {
		response.Unauthorized(c, apperrors.CodeUnauthorized, "unauthenticated")
		return "", false
	}
	return s, true
}

// MustGetCaller builds the service-layer identity of the request
func MustGetCaller(c *gin.Context) (service.Caller, bool) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return service.Caller{}, false
	}
	role := c.GetString(ctxRole)
	if role == "" {
		response.Unauthorized(c, apperrors.CodeUnauthorized, "unauthenticated")
		return service.Caller{}, false
	}
	return service.Caller{
		UserID:      userID,
		Role:        role,
		StoreID:     c.GetString(ctxStoreID),
		Permissions: c.GetStringSlice(ctxPermissions),
	}, true
}

// badRequest reports a binding failure
func badRequest(c *gin.Context) {
	response.BadRequest(c, apperrors.CodeValidation, "invalid request parameters")
}
