// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/agrisense/internal/artifacts"
	"github.com/tomtom215/agrisense/internal/config"
	"github.com/tomtom215/agrisense/internal/logging"
	"github.com/tomtom215/agrisense/internal/predict"
)

var version = "dev"

// cli holds the configuration shared by every subcommand.
type cli struct {
	cfg *config.Config

	modelsRoot    string
	cropDir       string
	fertilizerDir string
	storeDir      string
	logLevel      string
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "agrictl",
		Short: "Offline crop and fertilizer predictions",
		Long: `agrictl runs the AgriSense prediction pipeline without the HTTP server
and manages versioned artifact bundles.

It reads the same configuration as the server; flags override it.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.init,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.modelsRoot, "models-root", "", "directory searched for exported artifacts (default: MODELS_ROOT)")
	flags.StringVar(&c.cropDir, "crop-dir", "", "explicit crop artifact directory")
	flags.StringVar(&c.fertilizerDir, "fertilizer-dir", "", "explicit fertilizer artifact directory")
	flags.StringVar(&c.storeDir, "store", "", "artifact bundle store directory (default: MODEL_STORE_DIR)")
	flags.StringVar(&c.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(c.predictCmd())
	root.AddCommand(c.artifactsCmd())
	return root
}

func (c *cli) init(cmd *cobra.Command, _ []string) error {
	if !logging.ValidLevel(c.logLevel) {
		return fmt.Errorf("invalid --log-level %q", c.logLevel)
	}
	logging.Init(logging.Config{
		Level:  c.logLevel,
		Format: "console",
		Output: cmd.ErrOrStderr(),
	})

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c.modelsRoot != "" {
		cfg.Models.Root = c.modelsRoot
	}
	if c.cropDir != "" {
		cfg.Models.CropDir = c.cropDir
	}
	if c.fertilizerDir != "" {
		cfg.Models.FertilizerDir = c.fertilizerDir
	}
	if c.storeDir != "" {
		cfg.Models.StoreDir = c.storeDir
	}
	c.cfg = cfg
	return nil
}

// loadOptions builds artifact options from the configuration. The bundle
// store is attached only when useStore is set.
func (c *cli) loadOptions(useStore bool) (artifacts.Options, error) {
	opts := artifacts.Options{
		Root:   c.cfg.Models.Root,
		Dirs:   make(map[string]string),
		Logger: logging.WithComponent("agrictl"),
	}
	for _, d := range predict.Domains() {
		if dir := c.cfg.ModelDir(d.Name); dir != "" {
			opts.Dirs[d.Name] = dir
		}
	}
	if useStore && c.cfg.Models.StoreDir != "" {
		store, err := artifacts.NewStore(c.cfg.Models.StoreDir)
		if err != nil {
			return opts, err
		}
		opts.Store = store
	}
	return opts, nil
}

func (c *cli) registry(ctx context.Context) (*artifacts.Registry, error) {
	opts, err := c.loadOptions(true)
	if err != nil {
		return nil, err
	}
	return artifacts.Load(ctx, opts, predict.Domains()...), nil
}

// requireStore opens the configured bundle store or explains how to set one.
func (c *cli) requireStore() (*artifacts.Store, error) {
	if c.cfg.Models.StoreDir == "" {
		return nil, fmt.Errorf("no bundle store: pass --store or set MODEL_STORE_DIR")
	}
	return artifacts.NewStore(c.cfg.Models.StoreDir)
}

func lookupDomain(name string) (predict.Domain, error) {
	for _, d := range predict.Domains() {
		if d.Name == name {
			return d, nil
		}
	}
	return predict.Domain{}, fmt.Errorf("unknown domain %q (want crop or fertilizer)", name)
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
