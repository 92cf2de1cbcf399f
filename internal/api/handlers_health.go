// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/agrisense/internal/artifacts"
	"github.com/tomtom215/agrisense/internal/middleware"
	"github.com/tomtom215/agrisense/internal/predict"
)

// ServiceName is reported by the root endpoint.
const ServiceName = "agrisense-backend"

// Root handles GET /.
func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"service": ServiceName,
	})
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}

// APIHealth handles GET /api/health.
func (h *Handler) APIHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "api": true})
}

// HealthLive handles liveness probe requests. The process is alive if it
// can answer.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles readiness probe requests.
// Returns 200 only when every domain has a classifier loaded.
func (h *Handler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	domains, ready := h.ready()

	statusCode := http.StatusOK
	status := "ready"
	if !ready {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	respondJSON(w, statusCode, map[string]interface{}{
		"status":  status,
		"domains": domains,
		"uptime":  time.Since(h.startTime).Seconds(),
	})
}

// statusResponse keeps the crop fields at the top level where existing
// dashboards read them.
type statusResponse struct {
	OK bool `json:"ok"`
	predict.ModelStatus
	Paths artifacts.PathStatus `json:"paths"`

	Domains map[string]artifacts.Status `json:"domains"`
	Latency []middleware.RouteLatency   `json:"latency"`
	Uptime  float64                     `json:"uptime"`
	Version string                      `json:"version,omitempty"`
}

// Status handles GET /status.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{
		OK:      true,
		Domains: make(map[string]artifacts.Status),
		Latency: h.latency.Stats(),
		Uptime:  time.Since(h.startTime).Seconds(),
		Version: h.version,
	}
	for _, st := range h.registry.Status() {
		resp.Domains[st.Domain] = st
	}
	if crop, ok := h.registry.Get(predict.DomainCrop); ok {
		resp.ModelStatus = crop.Status.ModelStatus
		resp.Paths = crop.Status.Paths
	}
	respondJSON(w, http.StatusOK, resp)
}
