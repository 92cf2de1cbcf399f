// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/agrisense/internal/middleware"
)

// Router binds handlers to routes.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	metrics       bool
}

// NewRouter builds a Router from the handler's configuration.
func NewRouter(handler *Handler) *Router {
	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddlewareFromConfig(handler.cfg.Security),
		metrics:       handler.cfg.Metrics.Enabled,
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()
	h := router.handler

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // must be global to answer OPTIONS preflight
	r.Use(chiMiddleware(middleware.PrometheusMetrics))
	r.Use(chiMiddleware(h.latency.Middleware))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed", nil)
	})

	// ========================
	// Service and Health
	// ========================
	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Get("/status", h.Status)
	r.With(chiMiddleware(middleware.Compression)).Get("/history", h.History)

	r.Route("/api", func(r chi.Router) {
		r.Use(APISecurityHeaders())

		r.Get("/health", h.APIHealth)
		r.With(chiMiddleware(middleware.Compression)).Get("/history", h.History)

		r.Route("/v1/health", func(r chi.Router) {
			r.Get("/live", h.HealthLive)
			r.Get("/ready", h.HealthReady)
		})

		// ========================
		// Predictions
		// ========================
		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())
			r.Post("/crop/predict", h.CropPredict)
			r.Post("/fertilizer/predict", h.FertilizerPredict)
		})
	})

	if router.metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}
