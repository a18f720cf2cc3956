// cmd/historian/main.go is an asynchronous historian service that pops match actions
// from a Redis queue and persists them to PostgreSQL.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/domino/internal/cache"
	"github.com/jason-s-yu/domino/internal/config"
	"github.com/jason-s-yu/domino/internal/database"
	"github.com/jason-s-yu/domino/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.MustLoad()

	logger := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	if cfg.Redis.Addr == "" || cfg.Database.URL == "" {
		logger.Fatal("historian needs REDIS_ADDR and DATABASE_URL")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.DB)
	if err != nil {
		logger.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	pool, err := database.Connect(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		logger.Fatalf("schema: %v", err)
	}

	svc := historian.New(
		cache.NewActionQueue(rdb, cfg.Redis.Queue),
		database.NewStore(pool),
		historian.Config{
			BatchSize:     cfg.Historian.BatchSize,
			FlushInterval: cfg.Historian.FlushInterval(),
			PopWait:       cfg.Historian.PopWait,
			Inactivity:    cfg.Historian.Inactivity,
			SweepInterval: time.Minute,
		},
		logger,
	)
	svc.Run(ctx)
	logger.Info("Historian shutdown complete.")
}
