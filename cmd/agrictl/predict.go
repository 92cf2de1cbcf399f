// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/agrisense/internal/predict"
)

func (c *cli) predictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Run one prediction through the full pipeline",
	}
	for _, d := range predict.Domains() {
		cmd.AddCommand(c.predictDomainCmd(d))
	}
	return cmd
}

func (c *cli) predictDomainCmd(domain predict.Domain) *cobra.Command {
	var (
		input string
		sets  []string
	)

	cmd := &cobra.Command{
		Use:   domain.Name,
		Short: "Recommend a " + strings.ToLower(domain.Title),
		Long: fmt.Sprintf(`Recommend a %s from a JSON object and/or --set key=value pairs.

Fields: %s

--set values override the same field from --input. The result is printed as
JSON; the command exits non-zero when the prediction fails.`,
			strings.ToLower(domain.Title), strings.Join(domain.Spec.Columns(), ", ")),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := readInput(cmd.InOrStdin(), input)
			if err != nil {
				return err
			}
			if err := applySets(raw, sets); err != nil {
				return err
			}

			reg, err := c.registry(cmd.Context())
			if err != nil {
				return err
			}
			svc := predict.NewService(domain, reg.Artifacts(domain.Name),
				predict.WithNumericDefault(c.cfg.Models.NumericDefault))

			res := svc.Predict(cmd.Context(), raw)
			if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.OK {
				return fmt.Errorf("%s prediction failed (%s): %s", domain.Name, res.Kind, res.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", `JSON object file with the readings ("-" for stdin)`)
	cmd.Flags().StringArrayVarP(&sets, "set", "s", nil, "field=value, repeatable")
	return cmd
}

// readInput decodes the --input document. An empty path yields an empty
// payload.
func readInput(stdin io.Reader, path string) (map[string]any, error) {
	raw := make(map[string]any)
	if path == "" {
		return raw, nil
	}

	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("input must be a JSON object: %w", err)
	}
	if raw == nil {
		raw = make(map[string]any)
	}
	return raw, nil
}

func applySets(raw map[string]any, sets []string) error {
	for _, s := range sets {
		key, value, ok := strings.Cut(s, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return fmt.Errorf("invalid --set %q, want field=value", s)
		}
		raw[key] = value
	}
	return nil
}
