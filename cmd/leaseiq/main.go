package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/riandyrn/otelchi"

	"github.com/neomorfeo/leaseiq/internal/adapter/fsm"
	otelad "github.com/neomorfeo/leaseiq/internal/adapter/otel"
	riverad "github.com/neomorfeo/leaseiq/internal/adapter/river"
	"github.com/neomorfeo/leaseiq/internal/adapter/sqlite"
	"github.com/neomorfeo/leaseiq/internal/app"
	"github.com/neomorfeo/leaseiq/internal/domain"

	handler "github.com/neomorfeo/leaseiq/internal/adapter/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Optional .env file for local development.
	_ = godotenv.Load()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	port := envOrDefault("PORT", "8080")
	dbPath := envOrDefault("DATABASE_PATH", "leaseiq.db")

	ctx := context.Background()

	// --- Telemetry ---
	providers, err := otelad.Setup(ctx, otelad.ConfigFromEnv())
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			slog.Error("otel shutdown", "error", err)
		}
	}()

	// --- Adapters (out) ---
	db, err := otelad.OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	repo, err := sqlite.NewFromDB(db)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	stores := repo.Stores()
	stores.Contracts = otelad.NewTracingContractStore(stores.Contracts)

	// --- Application ---
	engine := app.NewEngine(stores, otelad.NewTracingTxRunner(repo), fsm.New(), policyFromEnv())

	// --- Job queue ---
	client, err := riverad.Setup(ctx, db, engine)
	if err != nil {
		return fmt.Errorf("river: %w", err)
	}

	outboxFactory := riverad.NewOutboxFactory(client)
	repo.SetOutboxFactory(func(tx *sql.Tx) domain.NotificationOutbox {
		return otelad.NewTracingOutbox(outboxFactory(tx))
	})

	if err := client.Start(ctx); err != nil {
		return fmt.Errorf("river start: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.Stop(stopCtx); err != nil {
			slog.Error("river stop", "error", err)
		}
	}()

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(otelchi.Middleware("leaseiq", otelchi.WithChiRoutes(router)))

	api := humachi.New(router, huma.DefaultConfig("leaseiq", "0.1.0"))
	handler.Register(api, engine)

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("leaseiq listening", "port", port)
		slog.Info("API docs available", "url", "http://localhost:"+port+"/docs")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-done:
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown", "error", err)
	}

	slog.Info("stopped")
	return nil
}

// policyFromEnv builds the engine policy, falling back to defaults for any
// variable that is missing or malformed.
func policyFromEnv() app.Policy {
	p := app.DefaultPolicy()
	p.MaxDurationMonths = envIntOrDefault("LEASEIQ_MAX_DURATION_MONTHS", p.MaxDurationMonths)
	p.StartDatePastDays = envIntOrDefault("LEASEIQ_START_DATE_PAST_DAYS", p.StartDatePastDays)
	p.StartDateFutureDays = envIntOrDefault("LEASEIQ_START_DATE_FUTURE_DAYS", p.StartDateFutureDays)
	p.BillingCutoffDay = envIntOrDefault("LEASEIQ_BILLING_CUTOFF_DAY", p.BillingCutoffDay)
	return p
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("ignoring malformed env var", "key", key, "value", v)
		return fallback
	}
	return n
}
