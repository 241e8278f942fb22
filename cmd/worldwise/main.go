// Package main is the entry point for the WorldWise server.
// Its sole responsibility is wiring dependencies together and running the
// server lifecycle. No business logic belongs here.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/pkordes/worldwise/internal/citiesapi"
	"github.com/pkordes/worldwise/internal/config"
	"github.com/pkordes/worldwise/internal/handler"
	"github.com/pkordes/worldwise/internal/metrics"
	"github.com/pkordes/worldwise/internal/middleware"
	"github.com/pkordes/worldwise/internal/store"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use the default logger before ours is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Cities API & store -----------------------------------------------
	clientOpts := []citiesapi.Option{citiesapi.WithTimeout(cfg.CitiesAPITimeout)}
	if cfg.CitiesAPIRateLimit > 0 {
		clientOpts = append(clientOpts, citiesapi.WithRateLimiter(rate.NewLimiter(rate.Limit(cfg.CitiesAPIRateLimit), 1)))
	}
	client := citiesapi.New(cfg.CitiesAPIURL, clientOpts...)

	reg := metrics.NewRegistry()
	cities := store.New(client,
		store.WithLogger(logger),
		store.WithObserver(metrics.NewStoreMetrics(reg)),
		store.WithCurrentCityShortCircuit(cfg.CurrentCityShortCircuit),
		store.WithDropStale(cfg.DropStaleCompletions),
	)

	// --- Router -----------------------------------------------------------
	// RequestID must precede SlogLogger so every log line carries the ID;
	// the same ID is forwarded to the cities API.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))

	r.Handle("/metrics", metrics.Handler(reg))
	r.Mount("/", handler.NewServer(cities).Routes())

	// --- HTTP Server ------------------------------------------------------
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server starting", "addr", srv.Addr, "cities_api", cfg.CitiesAPIURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Initial load. A failure is already recorded in the store's state and
	// shown to clients, so the server keeps running.
	g.Go(func() error {
		if err := cities.Mount(gctx); err != nil {
			slog.Warn("initial city load failed", "error", err)
			return nil
		}
		slog.Info("cities loaded", "count", len(cities.Snapshot().Cities))
		return nil
	})

	// Graceful shutdown: give in-flight requests up to 15 seconds.
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
