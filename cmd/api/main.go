//	@title			Photodrop API
//	@version		1.0
//	@description	Registration capture, PNG uploads with signed download links and QR codes, and a CSV export.
//
//	@host		localhost:5000
//	@BasePath	/

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/photodrop/service/internal/config"
	"github.com/photodrop/service/internal/db"
	"github.com/photodrop/service/internal/logger"
	"github.com/photodrop/service/internal/qr"
	"github.com/photodrop/service/internal/ratelimit"
	"github.com/photodrop/service/internal/registration"
	"github.com/photodrop/service/internal/storage"
	"github.com/photodrop/service/internal/upload"
	"github.com/photodrop/service/internal/video"

	_ "github.com/photodrop/service/docs/swagger"
)

func main() {
	envFile := pflag.String("env-file", "", "path to a .env file (default ./.env when present)")
	port := pflag.String("port", "", "listen port, overrides PORT")
	pflag.Parse()

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}
	cfg, envErr := config.Load(envFiles...)
	if *port != "" {
		cfg.Port = *port
	}

	log, _ := logger.New(cfg.LogLevel, cfg.IsProduction())
	defer func() { _ = log.Sync() }()
	if envErr != nil {
		log.Debug("no .env file loaded", zap.Error(envErr))
	}

	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL, log); err != nil {
		log.Fatal("database migration failed", zap.Error(err))
	}

	backend, err := storage.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("object storage init failed", zap.Error(err))
	}

	limiter, closeLimiter := newLimiter(ctx, cfg, log)
	defer closeLimiter()

	// Wire dependencies: repository → service → handler
	regRepo := registration.NewRepository(pool)
	regSvc := registration.NewService(regRepo)
	regHandler := registration.NewHandler(regSvc, log)

	uploadRepo := upload.NewRepository(pool)
	uploadSvc := upload.NewService(uploadRepo, backend, qr.NewGenerator(qr.DefaultOptions()), cfg.DownloadURLTTL, log)
	uploadHandler := upload.NewHandler(uploadSvc, log)

	deps := routerDeps{
		log:          log,
		limiter:      limiter,
		reportSecret: cfg.ReportSecretKey,
		registration: regHandler,
		upload:       uploadHandler,
		video:        video.NewHandler(cfg.VideoURL),
	}
	if local, ok := backend.(*storage.LocalBackend); ok {
		deps.uploadDir = local.Dir()
	}
	if cfg.ReportSecretKey == "" {
		log.Warn("REPORT_SECRET_KEY is empty, CSV export is disabled")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newRouter(deps),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("server listening",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.AppEnv),
			zap.String("storage", backend.Name()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	log.Info("shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
		return
	}

	log.Info("server stopped")
}

// newLimiter shares counters through Redis when REDIS_URL is set and reachable,
// otherwise keeps them in memory.
func newLimiter(ctx context.Context, cfg *config.Config, log *zap.Logger) (ratelimit.Limiter, func()) {
	if cfg.RedisURL == "" {
		log.Info("rate limiter: in-memory")
		return ratelimit.NewMemoryLimiter(), func() {}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	limiter, client, err := ratelimit.NewRedisLimiter(pingCtx, cfg.RedisURL)
	if err != nil {
		log.Warn("rate limiter: redis unavailable, falling back to in-memory", zap.Error(err))
		return ratelimit.NewMemoryLimiter(), func() {}
	}
	log.Info("rate limiter: redis")
	return limiter, func() { _ = client.Close() }
}
