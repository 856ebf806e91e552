package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/student-records/internal/config"
	"github.com/stemsi/student-records/internal/handler"
	"github.com/stemsi/student-records/internal/logger"
	"github.com/stemsi/student-records/internal/repository"
	"github.com/stemsi/student-records/internal/router"
	"github.com/stemsi/student-records/internal/service"
	"github.com/stemsi/student-records/internal/validator"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log, err := logger.New(logger.Options{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open log file")
	}
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("storage", cfg.StorageBackend).
		Msg("Starting student records server")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Open Student Store ────────────────────────────────────────────
	store, err := repository.NewStudentStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open student store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close student store")
		}
	}()

	// ─── Initialize Services & Handlers ────────────────────────────────
	studentService := service.NewStudentService(store, cfg.DBTimeout, log)

	handlers := &router.Handlers{
		Student: handler.NewStudentHandler(studentService, log),
		Health:  handler.NewHealthHandler(studentService),
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(ctx, cfg, handlers, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// Stop accepting new HTTP requests (5s timeout), then release the store.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
