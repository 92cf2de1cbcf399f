// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

package main

import (
	"context"
	"fmt"

	"github.com/tomtom215/agrisense/internal/artifacts"
	"github.com/tomtom215/agrisense/internal/config"
	"github.com/tomtom215/agrisense/internal/logging"
	"github.com/tomtom215/agrisense/internal/metrics"
	"github.com/tomtom215/agrisense/internal/predict"
)

// initArtifacts loads every domain's artifacts. Only an unusable bundle
// store is an error; missing files leave a domain unready.
func initArtifacts(ctx context.Context, cfg *config.Config) (*artifacts.Registry, error) {
	opts := artifacts.Options{
		Root:   cfg.Models.Root,
		Dirs:   make(map[string]string),
		Logger: logging.WithComponent("artifacts"),
	}
	for _, d := range predict.Domains() {
		if dir := cfg.ModelDir(d.Name); dir != "" {
			opts.Dirs[d.Name] = dir
		}
	}

	if cfg.Models.StoreDir != "" {
		store, err := artifacts.NewStore(cfg.Models.StoreDir)
		if err != nil {
			return nil, fmt.Errorf("open artifact store %s: %w", cfg.Models.StoreDir, err)
		}
		opts.Store = store
	}

	reg := artifacts.Load(ctx, opts, predict.Domains()...)
	for _, st := range reg.Status() {
		metrics.RecordArtifacts(st.Domain, st.ModelLoaded, st.MinMaxScalerLoaded, st.StandardScalerLoaded)
	}
	if !reg.Ready() {
		logging.Warn().Msg("Not every domain has a classifier; affected predictions will fail as model unavailable")
	}
	return reg, nil
}

// buildServices creates one prediction service per loaded domain.
func buildServices(cfg *config.Config, reg *artifacts.Registry) []*predict.Service {
	domains := predict.Domains()
	out := make([]*predict.Service, 0, len(domains))
	for _, d := range domains {
		out = append(out, predict.NewService(d, reg.Artifacts(d.Name),
			predict.WithLogger(logging.Logger()),
			predict.WithNumericDefault(cfg.Models.NumericDefault),
			predict.WithObserver(metrics.PredictionObserver{}),
		))
	}
	return out
}
