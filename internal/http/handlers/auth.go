package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reelops/reelops-api/internal/domain/user"
	"github.com/reelops/reelops-api/internal/security"
)

type UserStore interface {
	Create(ctx context.Context, nu user.NewUser) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id int64) (user.User, error)
}

type TokenIssuer interface {
	Issue(userID int64, role user.Role) (string, error)
}

type AuthObserver interface {
	ObserveAuthAttempt(op, result string)
}

type AuthHandler struct {
	users    UserStore
	tokens   TokenIssuer
	observer AuthObserver
}

func NewAuthHandler(users UserStore, tokens TokenIssuer, observer AuthObserver) *AuthHandler {
	return &AuthHandler{
		users:    users,
		tokens:   tokens,
		observer: observer,
	}
}

func (h *AuthHandler) observe(op, result string) {
	if h.observer != nil {
		h.observer.ObserveAuthAttempt(op, result)
	}
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		h.observe("register", "invalid")
		return
	}

	role := req.Role
	if role == "" {
		role = user.DefaultRole
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondStoreError(ctx, err, "hash password failed")
		return
	}

	u, err := h.users.Create(ctx.Request.Context(), user.NewUser{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
	})

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			h.observe("register", "conflict")
		}
		RespondStoreError(ctx, err, "create user failed")
		return
	}

	token, err := h.tokens.Issue(u.ID, u.Role)

	if err != nil {
		RespondStoreError(ctx, err, "issue token failed")
		return
	}

	h.observe("register", "success")

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"token":   token,
		"user":    u,
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		h.observe("login", "invalid")
		return
	}

	found, err := h.users.GetByEmail(ctx.Request.Context(), req.Email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			h.rejectLogin(ctx)
			return
		}
		RespondStoreError(ctx, err, "look up user failed")
		return
	}

	// same answer for unknown email and wrong password
	if err := security.CheckPassword(found.PasswordHash, req.Password); err != nil {
		h.rejectLogin(ctx)
		return
	}

	token, err := h.tokens.Issue(found.ID, found.Role)

	if err != nil {
		RespondStoreError(ctx, err, "issue token failed")
		return
	}

	h.observe("login", "success")

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    found,
	})
}

func (h *AuthHandler) rejectLogin(ctx *gin.Context) {
	h.observe("login", "invalid_credentials")
	RespondUnauthorized(ctx, "invalid_credentials", "Invalid email or password")
}

// Me returns the stored record of the caller.
func (h *AuthHandler) Me(ctx *gin.Context) {
	id, ok := identityFrom(ctx)
	if !ok {
		return
	}

	u, err := h.users.GetByID(ctx.Request.Context(), id.UserID)

	if err != nil {
		RespondStoreError(ctx, err, "load current user failed")
		return
	}

	ctx.JSON(http.StatusOK, u)
}
