// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

package config

import (
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/tomtom215/agrisense/internal/logging"
)

// Validate checks every section.
func (c *Config) Validate() error {
	for _, validate := range []func() error{
		c.validateServer,
		c.validateSecurity,
		c.validateLogging,
		c.validateModels,
		c.validateHistory,
	} {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 || c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("HTTP timeouts must be positive")
	}
	if c.Server.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	return nil
}

// validateSecurity rejects a wildcard origin: the API answers with
// credentials allowed, and browsers refuse that combination anyway.
func (c *Config) validateSecurity() error {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return fmt.Errorf("CORS_ORIGINS=* is not allowed; list the frontend origins explicitly")
		}
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("CORS_ORIGINS entry %q is not an origin (scheme://host[:port])", origin)
		}
	}
	if c.Security.CORSMaxAge < 0 {
		return fmt.Errorf("CORS_MAX_AGE must not be negative")
	}

	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 || c.Security.RateLimitReqs > 100000 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between 1 and 100000")
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
}

func (c *Config) validateModels() error {
	if c.Models.Root == "" && (c.Models.CropDir == "" || c.Models.FertilizerDir == "") {
		return fmt.Errorf("MODELS_ROOT is required unless both CROP_MODEL_DIR and FERTILIZER_MODEL_DIR are set")
	}
	if math.IsNaN(c.Models.NumericDefault) || math.IsInf(c.Models.NumericDefault, 0) {
		return fmt.Errorf("NUMERIC_DEFAULT must be a finite number")
	}
	return nil
}

func (c *Config) validateHistory() error {
	if !c.History.Enabled {
		return nil
	}
	if !c.History.InMemory && c.History.Path == "" {
		return fmt.Errorf("HISTORY_PATH is required when history is enabled and not in memory")
	}
	if c.History.MaxEntries < 0 {
		return fmt.Errorf("HISTORY_MAX_ENTRIES must not be negative")
	}
	if c.History.ListLimit < 1 || c.History.ListLimit > 500 {
		return fmt.Errorf("HISTORY_LIST_LIMIT must be between 1 and 500")
	}
	return nil
}
