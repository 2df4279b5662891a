package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/gstbook/internal/businesscontext"
)

const (
	HeaderBusiness = "X-Business-Id"
	HeaderUser     = "X-User-Id"
)

// BusinessContext resolves the acting business (required) and user
// (optional) from request headers.
func BusinessContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessID, ok := businesscontext.ParseID(c.GetHeader(HeaderBusiness))
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := businesscontext.WithBusinessID(c.Request.Context(), businessID)
		if raw := strings.TrimSpace(c.GetHeader(HeaderUser)); raw != "" {
			userID, ok := businesscontext.ParseID(raw)
			if !ok {
				AbortWithError(c, newValidationError("user_id", "invalid_user", "invalid user id"))
				return
			}
			ctx = businesscontext.WithUserID(ctx, userID)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireUser rejects requests without an acting user.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := businesscontext.UserIDFromContext(c.Request.Context()); !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}
