// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/domino/internal/auth"
	"github.com/jason-s-yu/domino/internal/cache"
	"github.com/jason-s-yu/domino/internal/config"
	"github.com/jason-s-yu/domino/internal/database"
	"github.com/jason-s-yu/domino/internal/game"
	"github.com/jason-s-yu/domino/internal/handlers"
	"github.com/jason-s-yu/domino/internal/monitor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.MustLoad()

	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warnf("unknown log level %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if err := auth.Init(cfg.TokenExpireTime); err != nil {
		logger.Fatalf("auth init: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := monitor.NewMetrics("domino")
	hub := handlers.NewHub(logger)
	hub.Online = metrics.OnlineSeats
	opts := []game.RegistryOption{
		game.WithNewRoundCooldown(cfg.NewRoundCooldown),
		game.WithMetrics(metrics),
	}

	// Redis and Postgres are optional; without them matches simply are not recorded.
	if cfg.Redis.Addr != "" {
		rdb, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.DB)
		if err != nil {
			logger.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
		opts = append(opts, game.WithActionLogger(cache.NewActionQueue(rdb, cfg.Redis.Queue)))
		logger.Infof("publishing actions to redis %s/%s", cfg.Redis.Addr, cfg.Redis.Queue)
	}
	if cfg.Database.URL != "" {
		pool, err := database.Connect(ctx, cfg.Database.URL)
		if err != nil {
			logger.Fatalf("database: %v", err)
		}
		defer pool.Close()
		if err := database.EnsureSchema(ctx, pool); err != nil {
			logger.Fatalf("schema: %v", err)
		}
		opts = append(opts, game.WithResultRecorder(database.NewStore(pool)))
		logger.Info("recording finished matches to postgres")
	}

	registry := game.NewRegistry(logger, hub, opts...)
	defer registry.Close()

	mux := http.NewServeMux()
	mux.Handle("/", handlers.NewRouter(logger, registry, hub))
	mux.Handle("GET /metrics", metrics.Handler())

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("shutdown: %v", err)
		}
	}()

	logger.Infof("Running on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("server exited: %v", err)
	}
	logger.Info("server stopped")
}
