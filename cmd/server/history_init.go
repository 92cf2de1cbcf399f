// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

package main

import (
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/tomtom215/agrisense/internal/api"
	"github.com/tomtom215/agrisense/internal/config"
	"github.com/tomtom215/agrisense/internal/history"
	"github.com/tomtom215/agrisense/internal/logging"
)

// historyComponents is the prediction history pipeline:
// Publisher -> GoChannel -> Recorder -> Store.
type historyComponents struct {
	store     *history.Store
	pubsub    *gochannel.GoChannel
	publisher *history.Publisher
	recorder  *history.Recorder
}

// initHistory opens the store and wires the pipeline. It returns nil when
// history is disabled.
func initHistory(cfg *config.Config) (*historyComponents, error) {
	if !cfg.History.Enabled {
		logging.Info().Msg("Prediction history disabled (HISTORY_ENABLED=false)")
		return nil, nil
	}

	store, err := history.Open(history.Options{
		Path:     cfg.History.Path,
		InMemory: cfg.History.InMemory,
	})
	if err != nil {
		return nil, err
	}

	ps := history.NewPubSub(history.DefaultBufferSize)
	rcfg := history.DefaultRecorderConfig()
	rcfg.MaxEntries = cfg.History.MaxEntries

	logging.Info().
		Str("path", cfg.History.Path).
		Bool("in_memory", cfg.History.InMemory).
		Int("max_entries", cfg.History.MaxEntries).
		Msg("Prediction history enabled")

	return &historyComponents{
		store:     store,
		pubsub:    ps,
		publisher: history.NewPublisher(ps),
		recorder:  history.NewRecorder(ps, store, rcfg),
	}, nil
}

// apply hands the reader and recorder to the API. A nil receiver leaves
// deps untouched so the interfaces stay nil.
func (h *historyComponents) apply(deps *api.Deps) {
	if h == nil {
		return
	}
	deps.History = h.store
	deps.Recorder = h.publisher
}

// Close shuts the pipeline down producer first.
func (h *historyComponents) Close() {
	if h == nil {
		return
	}
	if err := h.publisher.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing history publisher")
	}
	if err := h.pubsub.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing history pub/sub")
	}
	if err := h.store.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing history store")
	}
}
