package middleware

import (
	"errors"
	"net/http"
	"strings"

	"mapportal/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
const (
	ContextUserID   = "userID"
	ContextUsername = "username"
	ContextClaims   = "claims"
)

// AuthMiddleware is a Gin middleware for JWT authentication of API requests
// It checks for the presence and validity of a JWT token in the Authorization
// header and rejects accounts that no longer exist or are inactive.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get token from header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, "unauthorized", "missing authorization header")
			return
		}

		// Extract token (format: "Bearer <token>")
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abort(c, http.StatusUnauthorized, "unauthorized", "invalid authorization header format")
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			abort(c, http.StatusUnauthorized, "unauthorized", err.Error())
			return
		}

		user, err := authService.CurrentUser(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				abort(c, http.StatusUnauthorized, "unauthorized", "account no longer exists")
				return
			}
			abort(c, http.StatusInternalServerError, "storage_failure", "could not load account")
			return
		}
		if !user.IsActive {
			abort(c, http.StatusForbidden, "forbidden", "account is inactive")
			return
		}

		// Set user info in context for handlers to use
		c.Set(ContextClaims, claims)
		c.Set(ContextUserID, user.ID)
		c.Set(ContextUsername, user.Username)

		c.Next()
	}
}

// UserID returns the authenticated user id, or "" outside AuthMiddleware.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

func abort(c *gin.Context, status int, kind, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"error": kind, "detail": detail})
}
