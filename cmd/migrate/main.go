package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/reelops/reelops-api/internal/config"
	"github.com/reelops/reelops-api/internal/db"
	"github.com/reelops/reelops-api/internal/observability"
	"github.com/reelops/reelops-api/internal/repo/postgres"
)

// migrate applies the schema and seeds the bootstrap admin, then exits.
func main() {
	cfg := config.Load()
	log := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DBURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool, log); err != nil {
		log.Error("migration failed", "err", err)
		os.Exit(1)
	}

	if err := db.EnsureAdminUser(ctx, postgres.NewUsersRepo(pool, nil), cfg, log); err != nil {
		log.Error("admin seed failed", "err", err)
		os.Exit(1)
	}

	log.Info("migrations complete")
}
