// Command server runs the document generation HTTP API.
//
// It loads configuration from the environment (merging a .env file when
// present), opens the SQLite database, wires the Gemini client behind a
// retrying decorator, registers all routes and middleware, and serves until
// SIGINT/SIGTERM triggers a graceful shutdown.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "github.com/tbourn/go-docgen-backend/docs" // swagger docs registration
	"github.com/tbourn/go-docgen-backend/internal/config"
	"github.com/tbourn/go-docgen-backend/internal/genai"
	httpapi "github.com/tbourn/go-docgen-backend/internal/http"
	"github.com/tbourn/go-docgen-backend/internal/observability"
	"github.com/tbourn/go-docgen-backend/internal/repo"
	"github.com/tbourn/go-docgen-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

// @title        Document Generation API
// @version      1.0
// @description  Backend for AI-assisted authoring of Word and PowerPoint documents: projects, outlines, content generation, refinement, feedback, and OOXML export.
// @BasePath     /api/v1
func main() {
	cfg := config.MustLoad()

	// Logging first so everything after it is observable.
	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Info().Str("version", version).Str("port", cfg.Port).Msg("starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing (no-op unless OTEL_ENABLED).
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup")
	}
	defer func() {
		if err := shutdownOTel(context.Background()); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	// Database.
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	// AI provider behind a retry decorator. Per-item retry budget lives
	// here; services treat an error as exhausted retries.
	ai := genai.Retrying{
		Base: genai.NewClient(genai.ClientConfig{
			APIKey:  cfg.AI.APIKey,
			Model:   cfg.AI.Model,
			BaseURL: cfg.AI.BaseURL,
			Timeout: cfg.AI.Timeout,
		}),
		Attempts: cfg.AI.MaxAttempts,
		Delay:    cfg.AI.RetryDelay,
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, ai, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("stopped")
}
