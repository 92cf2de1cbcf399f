// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

/*
Package config loads AgriSense configuration.

Sources are layered, later ones winning:

 1. Built-in defaults (Defaults)
 2. A YAML file: CONFIG_PATH, or the first of DefaultConfigPaths that exists
 3. Environment variables, including any loaded from a .env file

Only environment variables listed in envMappings are read, so unrelated
variables never leak into the configuration.

# Environment Variables

Server:
  - PORT / HTTP_PORT: listen port (default: 5000)
  - HTTP_HOST: bind address (default: 0.0.0.0)
  - HTTP_READ_TIMEOUT, HTTP_WRITE_TIMEOUT, HTTP_IDLE_TIMEOUT, SHUTDOWN_TIMEOUT
  - ENVIRONMENT: development or production

Security:
  - CORS_ORIGINS: comma separated allowlist
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT

Models:
  - MODELS_ROOT: directory searched for exported artifacts (default: models)
  - CROP_MODEL_DIR, FERTILIZER_MODEL_DIR: explicit per-domain directories
  - MODEL_STORE_DIR: versioned bundle store, preferred when it holds a bundle
  - NUMERIC_DEFAULT: value used for missing numeric inputs (default: 0)

History:
  - HISTORY_ENABLED, HISTORY_PATH, HISTORY_IN_MEMORY
  - HISTORY_MAX_ENTRIES, HISTORY_LIST_LIMIT

Logging and metrics:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER
  - METRICS_ENABLED
*/
package config

import (
	"net"
	"strconv"
	"strings"
	"time"
)

// Config is the complete application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
	Models   ModelsConfig   `koanf:"models"`
	History  HistoryConfig  `koanf:"history"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	MaxBodyBytes    int64         `koanf:"max_body_bytes"`
	Environment     string        `koanf:"environment"`
}

// SecurityConfig holds CORS and rate limiting settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	CORSMaxAge        int           `koanf:"cors_max_age"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// ModelsConfig says where model artifacts live.
type ModelsConfig struct {
	Root           string  `koanf:"root"`
	CropDir        string  `koanf:"crop_dir"`
	FertilizerDir  string  `koanf:"fertilizer_dir"`
	StoreDir       string  `koanf:"store_dir"`
	NumericDefault float64 `koanf:"numeric_default"`
}

// HistoryConfig controls the prediction history store.
type HistoryConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Path       string `koanf:"path"`
	InMemory   bool   `koanf:"in_memory"`
	MaxEntries int    `koanf:"max_entries"`
	ListLimit  int    `koanf:"list_limit"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

// DevCORSOrigins are the local frontend dev servers allowed by default.
func DevCORSOrigins() []string {
	var origins []string
	for _, host := range []string{"localhost", "127.0.0.1"} {
		for _, port := range []int{3000, 3001, 3002, 3003, 5173, 4173} {
			origins = append(origins, "http://"+host+":"+strconv.Itoa(port))
		}
	}
	return origins
}

// Addr returns host:port for http.Server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// IsProduction reports whether ENVIRONMENT is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// ModelDir returns the explicitly configured directory for a domain, or "".
func (c *Config) ModelDir(domain string) string {
	switch domain {
	case "crop":
		return c.Models.CropDir
	case "fertilizer":
		return c.Models.FertilizerDir
	default:
		return ""
	}
}
