package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/reelops/reelops-api/internal/access"
	"github.com/reelops/reelops-api/internal/actorctx"
	"github.com/reelops/reelops-api/internal/auth"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	tokens TokenVerifier
}

func NewAuthMiddleware(tokens TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// RequireAuth accepts only "Authorization: Bearer <token>" and stores the
// verified identity on both the gin and the request context.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortError(c, http.StatusUnauthorized, "unauthorized", "No token provided. Authorization denied")
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if raw == "" {
			abortError(c, http.StatusUnauthorized, "unauthorized", "No token provided. Authorization denied")
			return
		}

		claims, err := m.tokens.Verify(raw)
		if err != nil {
			code := "invalid_token"
			if errors.Is(err, auth.ErrExpiredToken) {
				code = "token_expired"
			}
			abortError(c, http.StatusUnauthorized, code, "Invalid or expired token")
			return
		}

		id := access.Identity{UserID: claims.UserID, Role: claims.Role}

		c.Set(CtxIdentity, id)
		c.Request = c.Request.WithContext(actorctx.WithIdentity(c.Request.Context(), id))

		c.Next()
	}
}

// IdentityFromContext returns the identity stored by RequireAuth.
func IdentityFromContext(c *gin.Context) (access.Identity, bool) {
	v, ok := c.Get(CtxIdentity)
	if !ok {
		return access.Identity{}, false
	}
	id, ok := v.(access.Identity)
	return id, ok && id.UserID > 0
}
