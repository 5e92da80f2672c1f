// @title           Editify Backend API
// @version         1.0.0
// @description     Non-destructive image editing backend. Assets are uploaded into an in-memory registry, edited through
// @description     typed operations with undo history, rendered on demand and exported as PNG. Saved assets live in a
// @description     Supabase-backed gallery with realtime progress events for AI operations.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"editify-backend/internal/aitask"
	"editify-backend/internal/config"
	"editify-backend/internal/database"
	"editify-backend/internal/handlers"
	"editify-backend/internal/registry"
	"editify-backend/internal/render"
	"editify-backend/internal/services"
	"editify-backend/internal/supabase"

	"github.com/gin-gonic/gin"
)

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		l = slog.LevelDebug
	case "WARN":
		l = slog.LevelWarn
	case "ERROR":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: l}))
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	reg := registry.New(registry.Config{
		MaxUploadBytes:  cfg.MaxUploadBytes,
		HistoryCapacity: cfg.HistoryCapacity,
	})

	frames := render.NewFrameGrabber(cfg.FFmpegPath, cfg.VideoFrameOffset, logger)
	previewer := render.NewPreviewer(reg,
		render.NewPipeline(render.NewFontBook(), logger),
		render.NewDecoder(frames, cfg.MaxDecodePixels),
		render.PreviewConfig{
			DefaultViewport: render.Viewport{Width: cfg.PreviewWidth, Height: cfg.PreviewHeight},
			Padding:         render.DefaultPadding,
			ExportPrefix:    cfg.ExportPrefix,
		}, logger)

	// Supabase and Postgres back the gallery and realtime events. Without
	// them the editor runs purely in memory.
	var (
		realtimeClient *supabase.RealtimeClient
		gallery        *services.GalleryService
		dbClient       *supabase.DatabaseClient
	)
	if cfg.GalleryEnabled() {
		gallery, realtimeClient, dbClient = setupGallery(cfg, reg, logger)
	} else {
		logger.Warn("SUPABASE_URL or DATABASE_URL not set, gallery disabled")
	}

	var publisher aitask.Publisher
	if realtimeClient != nil {
		publisher = realtimeClient
	}
	runner := aitask.NewRunner(reg, publisher, aitask.Config{StepDelay: cfg.AIStepDelay, Retention: cfg.TaskRetention}, logger)

	router := handlers.NewRouter(handlers.Dependencies{
		Config:    cfg,
		Registry:  reg,
		Previewer: previewer,
		Frames:    frames,
		Runner:    runner,
		Gallery:   gallery,
		Logger:    logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port, "environment", cfg.Environment, "base_url", cfg.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := runner.Shutdown(ctx); err != nil {
		logger.Warn("ai tasks did not stop in time", "error", err)
	}
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	if dbClient != nil {
		dbClient.Close()
	}
}

func setupGallery(cfg *config.Config, reg *registry.Registry, logger *slog.Logger) (*services.GalleryService, *supabase.RealtimeClient, *supabase.DatabaseClient) {
	client, err := supabase.NewClient(cfg)
	if err != nil {
		logger.Warn("failed to initialize supabase, gallery disabled", "error", err)
		return nil, nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	migrator, err := database.NewMigrator(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Warn("failed to initialize migrator", "error", err)
	} else {
		if err := migrator.Run(ctx); err != nil {
			logger.Warn("migration failed", "error", err)
		} else {
			logger.Info("migrations completed successfully")
		}
		migrator.Close()
	}

	dbClient, err := supabase.NewDatabaseClient(cfg.DatabaseURL)
	if err != nil {
		logger.Warn("failed to initialize database client, gallery disabled", "error", err)
		return nil, client.Realtime, nil
	}

	return services.NewGalleryService(reg, client.Storage, dbClient, client.Realtime, logger), client.Realtime, dbClient
}
