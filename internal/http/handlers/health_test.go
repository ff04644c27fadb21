package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reelops/reelops-api/internal/http/handlers"
)

type pingFn func(ctx context.Context) error

func (f pingFn) Ping(ctx context.Context) error { return f(ctx) }

func healthRouter(h *handlers.HealthHandler) *gin.Engine {
	r := gin.New()
	r.GET("/health", h.Health)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	return r
}

func TestHealthReportsDatabaseTime(t *testing.T) {
	dbNow := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	h := handlers.NewHealthHandler(nil, func(ctx context.Context) (time.Time, error) { return dbNow, nil })
	w := serve(healthRouter(h), http.MethodGet, "/health", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "2026-03-01T12:00:00Z") {
		t.Fatalf("db time missing: %s", w.Body.String())
	}
}

func TestHealthDatabaseDown(t *testing.T) {
	h := handlers.NewHealthHandler(
		pingFn(func(ctx context.Context) error { return errors.New("refused") }),
		func(ctx context.Context) (time.Time, error) { return time.Time{}, errors.New("refused") },
	)
	r := healthRouter(h)

	w := serve(r, http.MethodGet, "/health", "")
	if w.Code != http.StatusInternalServerError || strings.Contains(w.Body.String(), "refused") {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}

	w = serve(r, http.MethodGet, "/readyz", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status = %d", w.Code)
	}

	// liveness does not depend on the database
	w = serve(r, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", w.Code)
	}
}
