// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

package api

import (
	"context"
	"time"

	"github.com/tomtom215/agrisense/internal/artifacts"
	"github.com/tomtom215/agrisense/internal/config"
	"github.com/tomtom215/agrisense/internal/history"
	"github.com/tomtom215/agrisense/internal/middleware"
	"github.com/tomtom215/agrisense/internal/predict"
)

// HistoryReader lists stored predictions. *history.Store implements it.
type HistoryReader interface {
	List(ctx context.Context, q history.Query) ([]history.Entry, error)
}

// HistoryRecorder accepts successful predictions. *history.Publisher
// implements it. Record must not block the request for long and must not
// fail it.
type HistoryRecorder interface {
	Record(ctx context.Context, e *history.Entry)
}

// Deps are the collaborators a Handler serves from. Registry and at least
// one Service are required; History and Recorder are nil when history is
// disabled.
type Deps struct {
	Config   *config.Config
	Registry *artifacts.Registry
	Services []*predict.Service
	History  HistoryReader
	Recorder HistoryRecorder
	Latency  *middleware.LatencyTracker
	Version  string
}

// Handler holds the HTTP handlers.
type Handler struct {
	cfg       *config.Config
	registry  *artifacts.Registry
	services  map[string]*predict.Service
	history   HistoryReader
	recorder  HistoryRecorder
	latency   *middleware.LatencyTracker
	version   string
	startTime time.Time
}

// NewHandler builds a Handler. A nil Config means config.Defaults().
func NewHandler(d Deps) *Handler {
	cfg := d.Config
	if cfg == nil {
		cfg = config.Defaults()
	}
	latency := d.Latency
	if latency == nil {
		latency = middleware.NewLatencyTracker(0, 0)
	}

	h := &Handler{
		cfg:       cfg,
		registry:  d.Registry,
		services:  make(map[string]*predict.Service, len(d.Services)),
		history:   d.History,
		recorder:  d.Recorder,
		latency:   latency,
		version:   d.Version,
		startTime: time.Now(),
	}
	if h.registry == nil {
		h.registry = artifacts.NewRegistry()
	}
	for _, svc := range d.Services {
		h.services[svc.Domain().Name] = svc
	}
	return h
}

// ready reports per-domain readiness and whether every domain is ready.
func (h *Handler) ready() (map[string]bool, bool) {
	out := make(map[string]bool, len(h.services))
	all := len(h.services) > 0
	for name, svc := range h.services {
		out[name] = svc.Ready()
		all = all && out[name]
	}
	return out, all
}
