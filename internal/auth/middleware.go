package auth

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vipinnagar8700/meditationLife-sub000/internal"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/response"
)

const principalKey = "principal"

// Middleware resolves the bearer token into a principal or aborts with 401.
func Middleware(provider Provider, logger internal.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if !strings.HasPrefix(header, "Bearer ") || token == "" {
			abort(c, internal.UnauthorizedError("Authentication required"))
			return
		}

		p, err := provider.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, ErrInvalidToken) {
				abort(c, internal.UnauthorizedError("Invalid or expired token"))
				return
			}
			logger.Errorf("[request_id=%s] authentication failed: %v", c.GetString("request_id"), err)
			abort(c, internal.AsAppError(err))
			return
		}

		c.Set(principalKey, p)
		c.Next()
	}
}

// RequireAdmin must run after Middleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := PrincipalFrom(c)
		if p == nil || !p.IsAdmin() {
			abort(c, internal.ForbiddenError("Admin access required"))
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns nil outside authenticated routes.
func PrincipalFrom(c *gin.Context) *internal.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*internal.Principal)
	return p
}

func abort(c *gin.Context, err *internal.AppError) {
	c.AbortWithStatusJSON(err.Status, response.Failure(err))
}
