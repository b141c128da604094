// Package main provides the entry point for the I2V Stitcher API server.
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

	"github.com/joho/godotenv"

	"github.com/maviola/i2v-stitcher/internal/config"
	"github.com/maviola/i2v-stitcher/internal/generate"
	"github.com/maviola/i2v-stitcher/internal/job"
	"github.com/maviola/i2v-stitcher/internal/media"
	"github.com/maviola/i2v-stitcher/internal/minimax"
	"github.com/maviola/i2v-stitcher/internal/server"
	"github.com/maviola/i2v-stitcher/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load a local .env if present; environment variables win.
	_ = godotenv.Load()

	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Create structured logger
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting I2V Stitcher API",
		slog.Int("port", cfg.Port),
		slog.String("log_format", cfg.LogFormat),
		slog.String("log_level", cfg.LogLevel),
		slog.String("data_dir", cfg.DataDir),
		slog.String("minimax_base_url", cfg.MinimaxBaseURL),
		slog.String("minimax_model", cfg.MinimaxModel),
		slog.Bool("s3_enabled", cfg.S3Enabled()),
		slog.Bool("credentials_present", cfg.ValidateCredentials() == nil),
	)

	// Initialize the media store
	var store storage.Store
	var filesDir string
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Store(cfg.DataDir, s3Cfg)
		if err != nil {
			return fmt.Errorf("create S3 store: %w", err)
		}
		store = s3Store
		filesDir = s3Store.BaseDir()
		logger.Info("S3 media store configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
	} else {
		localStore, err := storage.NewLocalStore(cfg.DataDir, cfg.PublicBaseURL)
		if err != nil {
			return fmt.Errorf("create local store: %w", err)
		}
		store = localStore
		filesDir = localStore.BaseDir()
		logger.Info("local media store configured",
			slog.String("data_dir", cfg.DataDir),
			slog.String("public_base_url", cfg.PublicBaseURL),
		)
	}

	// Initialize the MiniMax client and poller
	client := minimax.NewClient(
		cfg.MinimaxAPIKey,
		cfg.MinimaxGroupID,
		minimax.WithBaseURL(cfg.MinimaxBaseURL),
		minimax.WithModel(cfg.MinimaxModel),
		minimax.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.SubmitTimeoutSec) * time.Second}),
	)
	poller := minimax.NewPoller(client,
		minimax.WithInterval(time.Duration(cfg.PollIntervalSec)*time.Second),
		minimax.WithMaxAttempts(cfg.PollMaxAttempts),
		minimax.WithLogger(logger),
	)

	// Initialize the fallback orchestrator over the default ladder
	orchestrator := generate.NewOrchestrator(client, poller, logger)

	// Initialize the media encoder
	encoder := media.NewFFmpegEncoder("")

	// Initialize the stitch service
	svc := job.NewStitchService(
		orchestrator,
		encoder,
		logger,
		job.WithDownloadClient(&http.Client{Timeout: time.Duration(cfg.DownloadTimeoutSec) * time.Second}),
	)

	// Initialize HTTP handlers and router
	handlers := server.NewHandlers(cfg, svc, store, encoder, logger)
	router := server.NewRouter(handlers, logger, server.Config{
		AllowedOrigins: cfg.AllowedOrigins,
		FilesDir:       filesDir,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  120 * time.Second,  // Multi-image uploads can be large
		WriteTimeout: 1800 * time.Second, // Generation plus polling plus muxing
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown handling
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening",
			slog.String("addr", srv.Addr),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server failed: %w", err)
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-shutdownCh:
		logger.Info("received shutdown signal",
			slog.String("signal", sig.String()),
		)
	case err := <-errCh:
		return err
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info("shutting down server...")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
