package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Harshitk-cp/aptnet/internal/api"
	"github.com/Harshitk-cp/aptnet/internal/buildconfig"
	"github.com/Harshitk-cp/aptnet/internal/config"
	"github.com/Harshitk-cp/aptnet/internal/metrics"
	"github.com/Harshitk-cp/aptnet/internal/netfile"
	"github.com/Harshitk-cp/aptnet/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	if err := config.Load(); err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	dbURL := config.DatabaseURL()
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("failed to ping database", zap.Error(err))
	}
	logger.Info("connected to database")

	if config.AutoMigrate() {
		n, err := store.Migrate(ctx, pool, config.MigrationsPath(), logger)
		if err != nil {
			logger.Fatal("migration failed", zap.Error(err))
		}
		logger.Info("migrations applied", zap.Int("count", n))
	}

	opts := api.Options{
		RateLimitRPS:   config.RateLimitRPS(),
		RateLimitBurst: config.RateLimitBurst(),
		SimilarLimit:   config.SimilarAssessmentsLimit(),
	}
	if path := config.NetworkPath(); path != "" {
		def, err := netfile.Load(path)
		if err != nil {
			logger.Fatal("failed to load default network", zap.String("path", path), zap.Error(err))
		}
		opts.DefaultNetwork = def
		logger.Info("default network loaded", zap.String("path", path), zap.String("name", def.Name))
	}
	if config.PrometheusEnabled() {
		prom := metrics.NewPrometheus()
		metrics.SetRecorder(prom)
		opts.Prometheus = prom
	}

	app := api.NewApp(api.NewStores(pool), pool, logger, opts)
	app.Start()

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting",
			zap.String("addr", addr),
			zap.String("version", buildconfig.Version()),
			zap.String("commit", buildconfig.Commit()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")

	app.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
