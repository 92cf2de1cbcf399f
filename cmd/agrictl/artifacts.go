// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/agrisense/internal/artifacts"
)

func (c *cli) artifactsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "artifacts",
		Short: "Inspect artifacts and manage bundles",
	}
	cmd.AddCommand(c.artifactsStatusCmd(), c.artifactsPackCmd(), c.artifactsListCmd(), c.artifactsPruneCmd())
	return cmd
}

func (c *cli) artifactsStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show what each domain would load",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := c.registry(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
				"ready":   reg.Ready(),
				"domains": reg.Status(),
			})
		},
	}
}

func (c *cli) artifactsPackCmd() *cobra.Command {
	var (
		domainName string
		dir        string
	)

	cmd := &cobra.Command{
		Use:   "pack",
		Short: "Copy a domain's exported artifacts into a new bundle version",
		Long: `pack reads a domain's artifact directory, checks that every document
decodes, and saves the documents as the next bundle version in the store.

The directory is resolved from --dir, the per-domain directory setting, or
the models root, in that order. Existing bundles are never read.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			domain, err := lookupDomain(domainName)
			if err != nil {
				return err
			}
			store, err := c.requireStore()
			if err != nil {
				return err
			}

			opts, err := c.loadOptions(false)
			if err != nil {
				return err
			}
			if dir != "" {
				opts.Dirs[domain.Name] = dir
			}

			loaded := artifacts.LoadDomain(cmd.Context(), opts, domain)
			meta, err := artifacts.NewRegistry(loaded).Pack(cmd.Context(), store, domain.Name)
			if err != nil {
				return fmt.Errorf("pack %s: %w", domain.Name, err)
			}
			return writeJSON(cmd.OutOrStdout(), meta)
		},
	}

	cmd.Flags().StringVarP(&domainName, "domain", "d", "", "crop or fertilizer")
	cmd.Flags().StringVar(&dir, "dir", "", "artifact directory to pack")
	_ = cmd.MarkFlagRequired("domain")
	return cmd
}

func (c *cli) artifactsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored bundles, newest first per domain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := c.requireStore()
			if err != nil {
				return err
			}
			bundles, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if bundles == nil {
				bundles = []artifacts.BundleMetadata{}
			}
			return writeJSON(cmd.OutOrStdout(), bundles)
		},
	}
}

func (c *cli) artifactsPruneCmd() *cobra.Command {
	var (
		domainName string
		keep       int
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest bundles of a domain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			domain, err := lookupDomain(domainName)
			if err != nil {
				return err
			}
			if keep < 1 {
				return fmt.Errorf("--keep must be at least 1")
			}
			store, err := c.requireStore()
			if err != nil {
				return err
			}
			removed, err := store.Prune(cmd.Context(), domain.Name, keep)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
				"domain":  domain.Name,
				"removed": removed,
				"kept":    keep,
			})
		},
	}

	cmd.Flags().StringVarP(&domainName, "domain", "d", "", "crop or fertilizer")
	cmd.Flags().IntVar(&keep, "keep", 3, "number of newest bundles to keep")
	_ = cmd.MarkFlagRequired("domain")
	return cmd
}
