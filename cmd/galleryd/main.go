// cmd/galleryd/main.go
// Package main implements the entry point for the media gallery service.
// It initializes all components and starts the HTTP server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dijam/media-gallery/internal/auth"
	"github.com/dijam/media-gallery/internal/config"
	"github.com/dijam/media-gallery/internal/event"
	"github.com/dijam/media-gallery/internal/media"
	"github.com/dijam/media-gallery/internal/profanity"
	"github.com/dijam/media-gallery/internal/schema"
	"github.com/dijam/media-gallery/internal/server"
	"github.com/dijam/media-gallery/internal/service"
	"github.com/dijam/media-gallery/internal/storage"
	"github.com/dijam/media-gallery/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	// Configure structured logging for the application
	logLevel := slog.LevelInfo
	if cfg.Env == "dev" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if cfg.TracingEnabled {
		if _, err := telemetry.InitTracer(telemetry.ServiceName, os.Stderr); err != nil {
			logger.Error("failed to initialize OpenTelemetry tracer", "error", err)
			os.Exit(1)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			telemetry.ShutdownTracer(ctx)
		}()
	}

	// Row storage (PostgreSQL or in-memory)
	var store storage.Store
	if cfg.DatabaseDSN != "" {
		store, err = storage.NewPostgres(cfg.DatabaseDSN)
		if err != nil {
			logger.Error("failed to initialize postgres storage", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("GALLERY_DB_DSN not set, using in-memory storage")
		store = storage.NewMemory()
	}
	defer store.Close()

	// File storage (S3-compatible bucket or local directory)
	var files media.Store
	if cfg.UseS3() {
		initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		files, err = media.NewS3Store(initCtx, cfg.S3Endpoint, cfg.S3Region, cfg.S3Bucket, cfg.S3AccessKey, cfg.S3SecretKey)
		cancel()
		if err != nil {
			logger.Error("failed to initialize s3 file store", "error", err)
			os.Exit(1)
		}
	} else {
		files, err = media.NewLocalStore(cfg.UploadDir)
		if err != nil {
			logger.Error("failed to initialize upload directory", "dir", cfg.UploadDir, "error", err)
			os.Exit(1)
		}
	}

	validator, err := schema.NewValidator()
	if err != nil {
		logger.Error("failed to compile schemas", "error", err)
		os.Exit(1)
	}

	filter, err := profanity.Load(validator, cfg.ProfanityListPath)
	if err != nil {
		logger.Error("failed to load profanity list", "path", cfg.ProfanityListPath, "error", err)
		os.Exit(1)
	}
	logger.Info("profanity filter loaded", "terms", filter.Terms())

	pub := event.NewPublisher(cfg.NATSURL)
	defer pub.Close()

	svc := service.New(store, files, filter, pub)
	authn := auth.NewProvider(cfg.JWTSecret, auth.NewHTTPVerifier(cfg.VerifyURL, cfg.VerifyTimeout))

	mux, err := server.NewMux(server.Options{
		RoutePrefix:        cfg.RoutePrefix,
		MaxUploadSize:      cfg.MaxUploadSize,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}, svc, files, authn, validator)
	if err != nil {
		logger.Error("failed to build http handler", "error", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		// Uploads can be large, so the body read is bounded by size rather than time.
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", addr, "env", cfg.Env, "route_prefix", cfg.RoutePrefix)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	logger.Info("server exited")
}
