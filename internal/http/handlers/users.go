package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/reelops/reelops-api/internal/domain/user"
)

const userSearchLimit = 20

type UserSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]user.Summary, error)
}

type UsersHandler struct {
	users UserSearcher
}

func NewUsersHandler(users UserSearcher) *UsersHandler {
	return &UsersHandler{users: users}
}

// SearchUsers backs the add-member picker. Admins are never returned
// since they cannot be assigned.
func (h *UsersHandler) SearchUsers(ctx *gin.Context) {
	q := strings.TrimSpace(ctx.Query("search"))

	if len(q) > 100 {
		RespondBadRequest(ctx, "search is too long", gin.H{"max": 100})
		return
	}

	items, err := h.users.Search(ctx.Request.Context(), q, userSearchLimit)

	if err != nil {
		RespondStoreError(ctx, err, "search users failed")
		return
	}

	ctx.JSON(http.StatusOK, items)
}
