package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "shiftboard/pkg/errors"
	"shiftboard/pkg/jwt"
	"shiftboard/pkg/redis"
	"shiftboard/pkg/response"
)

// JWTAuth verifies the Bearer access token and injects the caller identity.
// A nil rdb skips the revocation check.
func JWTAuth(jwtMgr *jwt.Manager, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, apperrors.CodeUnauthorized, "missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, apperrors.CodeUnauthorized, "malformed authorization header")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, apperrors.CodeUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		if claims.TokenType != "access" {
			response.Unauthorized(c, apperrors.CodeUnauthorized, "wrong token type")
			c.Abort()
			return
		}

		if rdb != nil && claims.ID != "" {
			revoked, err := rdb.IsBlacklisted(c.Request.Context(), claims.ID)
			// Redis errors fail open, same as RateLimit
			if err == nil && revoked {
				response.Unauthorized(c, apperrors.CodeUnauthorized, "token revoked")
				c.Abort()
				return
			}
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Set("store_id", claims.StoreID)
		c.Set("permissions", claims.Permissions)

		c.Next()
	}
}

// RoleAuth admits callers holding one of the given roles
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := c.GetString("role")
		if userRole == "" {
			response.Unauthorized(c, apperrors.CodeUnauthorized, "unauthenticated")
			c.Abort()
			return
		}

		for _, r := range allowedRoles {
			if userRole == r {
				c.Next()
				return
			}
		}

		response.Forbidden(c, apperrors.CodeForbidden, "access denied")
		c.Abort()
	}
}
