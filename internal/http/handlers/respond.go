package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/reelops/reelops-api/internal/access"
	"github.com/reelops/reelops-api/internal/domain/member"
	"github.com/reelops/reelops-api/internal/domain/project"
	"github.com/reelops/reelops-api/internal/domain/user"
	"github.com/reelops/reelops-api/internal/http/middlewares"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get(middlewares.CtxRequestID)

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondUnauthorized(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

func RespondForbidden(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusForbidden, "forbidden", message, nil)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondConflict(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusConflict, code, message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

// RespondStoreError maps a gate or store failure onto exactly one status.
// Anything unrecognised is logged and reported as a generic 500.
func RespondStoreError(ctx *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, access.ErrForbidden):
		RespondForbidden(ctx, "You are not allowed to operate on this project")

	case errors.Is(err, project.ErrNotFound):
		RespondNotFound(ctx, "Project not found")
	case errors.Is(err, member.ErrNotFound):
		RespondNotFound(ctx, "Cast/crew member not found")
	case errors.Is(err, member.ErrUserNotFound):
		RespondNotFound(ctx, "User with this email not found. They must register first.")
	case errors.Is(err, user.ErrNotFound):
		RespondNotFound(ctx, "User not found")

	case errors.Is(err, member.ErrAlreadyAssigned):
		RespondConflict(ctx, "already_assigned", "This user is already added to the project")
	case errors.Is(err, user.ErrEmailTaken):
		RespondConflict(ctx, "email_taken", "Email already in use")

	case errors.Is(err, member.ErrAdminNotAssignable):
		RespondBadRequest(ctx, "Cannot add admin user as cast/crew", nil)
	case errors.Is(err, member.ErrInvalid), errors.Is(err, project.ErrInvalid):
		RespondBadRequest(ctx, err.Error(), nil)

	default:
		slog.Default().ErrorContext(ctx.Request.Context(), fallback,
			"err", err,
			"request_id", requestIDFrom(ctx),
			"route", ctx.FullPath(),
		)
		RespondInternal(ctx, "Internal server error")
	}
}

// pathID reads a positive integer path parameter or answers 400.
func pathID(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)

	if err != nil || id <= 0 {
		RespondBadRequest(ctx, "Invalid "+name, gin.H{"param": name})
		return 0, false
	}
	return id, true
}

func identityFrom(ctx *gin.Context) (access.Identity, bool) {
	id, ok := middlewares.IdentityFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Not authenticated")
	}
	return id, ok
}
