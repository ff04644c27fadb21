package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/reelops/reelops-api/internal/auth"
	"github.com/reelops/reelops-api/internal/config"
	"github.com/reelops/reelops-api/internal/db"
	"github.com/reelops/reelops-api/internal/domain/member"
	"github.com/reelops/reelops-api/internal/domain/project"
	"github.com/reelops/reelops-api/internal/domain/user"
	apphttp "github.com/reelops/reelops-api/internal/http"
	"github.com/reelops/reelops-api/internal/observability"
	"github.com/reelops/reelops-api/internal/repo/postgres"
)

func testConfig() config.Config {
	return config.Config{
		Env:                "test",
		StoreDriver:        "postgres",
		JWTSecret:          "test-secret-key",
		JWTExpiresIn:       time.Hour,
		AdminEmail:         "admin@reelops.test",
		AdminPassword:      "admin-pass",
		AdminName:          "Test Admin",
		AuthRateLimit:      1000,
		AuthRateWindow:     time.Minute,
		CORSAllowedOrigins: []string{"http://localhost:4200"},
		MaxBodyBytes:       1 << 20,
	}
}

// setupRouter needs a disposable database; it is skipped unless TEST_DB_DSN is set.
func setupRouter(t *testing.T) (*gin.Engine, *pgxpool.Pool) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to create pgx pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.Migrate(ctx, pool, logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	if _, err := pool.Exec(ctx, `TRUNCATE cast_crew, projects, users RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}

	cfg := testConfig()
	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	users := postgres.NewUsersRepo(pool, prom)
	if err := db.EnsureAdminUser(ctx, users, cfg, logger); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	router := apphttp.NewRouter(logger, cfg, apphttp.Deps{
		Users:    users,
		Projects: postgres.NewProjectsRepo(pool, prom),
		Members:  postgres.NewMembersRepo(pool, prom),
		Tokens:   auth.NewManager(cfg.JWTSecret, cfg.JWTExpiresIn),
		Prom:     prom,
		Gatherer: reg,
		DB:       pool,
		DBTime: func(ctx context.Context) (time.Time, error) {
			return db.Now(ctx, pool)
		},
	})

	return router, pool
}

// helpers

type authResponse struct {
	Token string    `json:"token"`
	User  user.User `json:"user"`
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func mustStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d, body=%s", w.Code, want, w.Body.String())
	}
}

func login(t *testing.T, r http.Handler, email, password string) authResponse {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]any{"email": email, "password": password})
	mustStatus(t, w, http.StatusOK)

	var resp authResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return resp
}

func register(t *testing.T, r http.Handler, name, email string, role user.Role) authResponse {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": name, "email": email, "password": "secret1", "role": role,
	})
	mustStatus(t, w, http.StatusCreated)

	var resp authResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode register: %v", err)
	}
	return resp
}

func TestPostgresPilotScenario(t *testing.T) {
	r, _ := setupRouter(t)

	admin := login(t, r, "admin@reelops.test", "admin-pass")
	producer := register(t, r, "Bob", "bob@reelops.test", user.RoleProducer)
	register(t, r, "Cy", "cy@reelops.test", user.RoleCrew)

	w := doJSON(t, r, http.MethodPost, "/api/projects", admin.Token, map[string]any{
		"title": "Pilot", "status": "planning", "description": "first episode", "start_date": "2026-02-01", "budget_total": 125000.75,
	})
	mustStatus(t, w, http.StatusCreated)

	var p project.Project
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode project: %v", err)
	}
	if p.CreatedByID == nil || *p.CreatedByID != admin.User.ID {
		t.Fatalf("creator = %v, want %d", p.CreatedByID, admin.User.ID)
	}

	path := fmt.Sprintf("/api/projects/%d", p.ID)

	w = doJSON(t, r, http.MethodPut, path, producer.Token, map[string]any{"status": "shooting"})
	mustStatus(t, w, http.StatusForbidden)

	w = doJSON(t, r, http.MethodPut, path, admin.Token, map[string]any{"status": "shooting"})
	mustStatus(t, w, http.StatusOK)

	var updated project.Project
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Status != project.StatusShooting || updated.Description == nil || *updated.Description != "first episode" {
		t.Fatalf("coalesce update wrong: %+v", updated)
	}
	if updated.StartDate == nil || updated.StartDate.String() != "2026-02-01" {
		t.Fatalf("start date lost: %+v", updated.StartDate)
	}
	if updated.BudgetTotal == nil || *updated.BudgetTotal != 125000.75 {
		t.Fatalf("budget lost: %v", updated.BudgetTotal)
	}

	add := map[string]any{"email": "cy@reelops.test", "role_type": "crew"}

	w = doJSON(t, r, http.MethodPost, path+"/cast-crew", admin.Token, add)
	mustStatus(t, w, http.StatusCreated)

	w = doJSON(t, r, http.MethodPost, path+"/cast-crew", admin.Token, add)
	mustStatus(t, w, http.StatusConflict)

	w = doJSON(t, r, http.MethodGet, "/api/health", "", nil)
	mustStatus(t, w, http.StatusOK)
}

func TestPostgresConcurrentAddYieldsOneRow(t *testing.T) {
	r, pool := setupRouter(t)

	admin := login(t, r, "admin@reelops.test", "admin-pass")
	register(t, r, "Dee", "dee@reelops.test", user.RoleCrew)

	w := doJSON(t, r, http.MethodPost, "/api/projects", admin.Token, map[string]any{"title": "Race", "status": "planning"})
	mustStatus(t, w, http.StatusCreated)

	var p project.Project
	_ = json.Unmarshal(w.Body.Bytes(), &p)

	const n = 8
	codes := make([]int, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/projects/%d/cast-crew", p.ID), admin.Token,
				map[string]any{"email": "dee@reelops.test", "role_type": "cast"})
			codes[i] = w.Code
		}(i)
	}
	wg.Wait()

	created, conflicts := 0, 0
	for _, c := range codes {
		switch c {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicts++
		}
	}
	if created != 1 || conflicts != n-1 {
		t.Fatalf("codes = %v, want one 201 and %d 409", codes, n-1)
	}

	var rows int
	if err := pool.QueryRow(context.Background(), `SELECT COUNT(*) FROM cast_crew WHERE project_id = $1`, p.ID).Scan(&rows); err != nil {
		t.Fatalf("count: %v", err)
	}
	if rows != 1 {
		t.Fatalf("rows = %d, want 1", rows)
	}
}

func TestPostgresDeleteCascadesMembers(t *testing.T) {
	r, pool := setupRouter(t)

	admin := login(t, r, "admin@reelops.test", "admin-pass")
	register(t, r, "Eli", "eli@reelops.test", user.RoleCrew)

	w := doJSON(t, r, http.MethodPost, "/api/projects", admin.Token, map[string]any{"title": "Gone", "status": "completed"})
	mustStatus(t, w, http.StatusCreated)

	var p project.Project
	_ = json.Unmarshal(w.Body.Bytes(), &p)

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/projects/%d/cast-crew", p.ID), admin.Token,
		map[string]any{"email": "eli@reelops.test", "role_type": "crew", "position": "Grip", "daily_rate": 300})
	mustStatus(t, w, http.StatusCreated)

	var m member.Member
	_ = json.Unmarshal(w.Body.Bytes(), &m)
	if m.Position == nil || *m.Position != "Grip" {
		t.Fatalf("member = %+v", m)
	}

	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/projects/%d", p.ID), admin.Token, nil)
	mustStatus(t, w, http.StatusOK)

	var rows int
	if err := pool.QueryRow(context.Background(), `SELECT COUNT(*) FROM cast_crew WHERE id = $1`, m.ID).Scan(&rows); err != nil {
		t.Fatalf("count: %v", err)
	}
	if rows != 0 {
		t.Fatalf("membership survived project delete")
	}
}
