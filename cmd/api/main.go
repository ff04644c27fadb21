package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/reelops/reelops-api/internal/auth"
	"github.com/reelops/reelops-api/internal/config"
	"github.com/reelops/reelops-api/internal/db"
	httpx "github.com/reelops/reelops-api/internal/http"
	"github.com/reelops/reelops-api/internal/observability"
	"github.com/reelops/reelops-api/internal/ratelimit"
	"github.com/reelops/reelops-api/internal/redisclient"
	"github.com/reelops/reelops-api/internal/repo/memory"
	"github.com/reelops/reelops-api/internal/repo/postgres"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName: observability.ServiceName,
		Environment: cfg.Env,
		Endpoint:    cfg.OTLPEndpoint,
	})
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()
		_ = shutdownTracer(sctx)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	deps := httpx.Deps{
		Tokens:   auth.NewManager(cfg.JWTSecret, cfg.JWTExpiresIn),
		Prom:     prom,
		Gatherer: reg,
	}

	switch cfg.StoreDriver {
	case "memory":
		store := memory.New()
		deps.Users, deps.Projects, deps.Members = store.Users(), store.Projects(), store.Members()

		log.Warn("using in-memory store, data is lost on restart")

	default:
		pool, err := db.NewPool(ctx, cfg.DBURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		mctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err = db.Migrate(mctx, pool, log)
		cancel()
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}

		deps.Users = postgres.NewUsersRepo(pool, prom)
		deps.Projects = postgres.NewProjectsRepo(pool, prom)
		deps.Members = postgres.NewMembersRepo(pool, prom)
		deps.DB = pool
		deps.DBTime = func(ctx context.Context) (time.Time, error) {
			return db.Now(ctx, pool)
		}
	}

	if err := db.EnsureAdminUser(ctx, deps.Users, cfg, log); err != nil {
		return err
	}

	if cfg.RedisAddr != "" {
		rdb, err := redisclient.Connect(ctx, redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		if err != nil {
			log.Warn("redis unavailable, auth throttling is per instance", "err", err)
		} else {
			defer rdb.Close()
			deps.Limiter = ratelimit.NewRedis(rdb, "reelops:auth:", cfg.AuthRateLimit, cfg.AuthRateWindow)
		}
	}

	// set up routers with the log
	router := httpx.NewRouter(log, cfg, deps)

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	// Graceful shutdown

	log.Info("server shutting down")

	sctx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}
