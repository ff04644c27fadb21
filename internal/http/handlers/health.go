package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db     Pinger
	dbTime func(ctx context.Context) (time.Time, error)
}

// NewHealthHandler accepts nil collaborators for the in-memory store; the
// checks then report the process clock and always-ready.
func NewHealthHandler(db Pinger, dbTime func(ctx context.Context) (time.Time, error)) *HealthHandler {
	return &HealthHandler{db: db, dbTime: dbTime}
}

func (h *HealthHandler) Health(ctx *gin.Context) {
	now := time.Now().UTC()

	if h.dbTime != nil {
		cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()

		t, err := h.dbTime(cctx)
		if err != nil {
			slog.Default().ErrorContext(ctx.Request.Context(), "db health check failed", "err", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{
				"status":  "error",
				"message": "Backend running but cannot connect to database",
			})
			return
		}
		now = t
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "ReelOps backend running",
		"dbTime":  now,
	})
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(ctx *gin.Context) {
	if h.db != nil {
		cctx, cancel := context.WithTimeout(ctx.Request.Context(), time.Second)
		defer cancel()

		if err := h.db.Ping(cctx); err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}
