package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reelops/reelops-api/internal/domain/user"
)

// RequireRoles is the coarse per-endpoint role filter. Project scoping is
// left to the access gate.
func (m *AuthMiddleware) RequireRoles(allowed ...user.Role) gin.HandlerFunc {
	set := make(map[user.Role]struct{}, len(allowed))
	for _, r := range allowed {
		set[r] = struct{}{}
	}

	return func(c *gin.Context) {
		id, ok := IdentityFromContext(c)

		if !ok {
			abortError(c, http.StatusUnauthorized, "unauthorized", "Not authenticated. No user in request")
			return
		}

		if _, ok := set[id.Role]; !ok {
			abortError(c, http.StatusForbidden, "forbidden", "You do not have permission to access this resource")
			return
		}
		c.Next()
	}
}
