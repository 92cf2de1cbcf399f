// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/agrisense/internal/api"
	"github.com/tomtom215/agrisense/internal/config"
	"github.com/tomtom215/agrisense/internal/logging"
	"github.com/tomtom215/agrisense/internal/metrics"
	"github.com/tomtom215/agrisense/internal/middleware"
	"github.com/tomtom215/agrisense/internal/supervisor"
	"github.com/tomtom215/agrisense/internal/supervisor/services"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("version", Version).
		Str("environment", cfg.Server.Environment).
		Msg("Starting AgriSense with supervisor tree")
	metrics.SetAppInfo(Version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry, err := initArtifacts(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize artifacts")
	}
	predictors := buildServices(cfg, registry)

	hist, err := initHistory(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize prediction history")
	}
	defer hist.Close()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}

	deps := api.Deps{
		Config:   cfg,
		Registry: registry,
		Services: predictors,
		Latency:  middleware.NewLatencyTracker(0, 0),
		Version:  Version,
	}
	hist.apply(&deps)
	router := api.NewRouter(api.NewHandler(deps))

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// === ADD SERVICES TO SUPERVISOR TREE ===

	if hist != nil {
		tree.AddEventsService(hist.recorder)
		logging.Info().Msg("History recorder added to supervisor tree")
	}

	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === START SUPERVISOR TREE ===

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	if hist != nil {
		select {
		case <-hist.recorder.Ready():
		case <-time.After(5 * time.Second):
			logging.Warn().Msg("History recorder not subscribed yet; early predictions may go unrecorded")
		case <-ctx.Done():
		}
	}

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
		err = <-errCh
	case err = <-errCh:
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
