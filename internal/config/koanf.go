// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order; the first existing file is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/agrisense/config.yaml",
	"/etc/agrisense/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// DotEnvPath is the .env file read by Load when present.
const DotEnvPath = ".env"

// Defaults returns the built-in configuration before any file or
// environment overrides.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    64 << 10,
			Environment:     "development",
		},
		Security: SecurityConfig{
			CORSOrigins:     DevCORSOrigins(),
			CORSMaxAge:      600,
			RateLimitReqs:   60,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Models: ModelsConfig{
			Root: "models",
		},
		History: HistoryConfig{
			Enabled:    true,
			Path:       "/data/history",
			MaxEntries: 10000,
			ListLimit:  50,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Load reads .env (if present) into the process environment and then
// calls LoadWithKoanf.
func Load() (*Config, error) {
	if err := godotenv.Load(DotEnvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", DotEnvPath, err)
	}
	return LoadWithKoanf()
}

// LoadWithKoanf layers defaults, the optional YAML file and the environment,
// then validates the result.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields splits comma separated env values into slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		var parts []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	// Server
	"port":               "server.port",
	"http_port":          "server.port",
	"http_host":          "server.host",
	"http_read_timeout":  "server.read_timeout",
	"http_write_timeout": "server.write_timeout",
	"http_idle_timeout":  "server.idle_timeout",
	"shutdown_timeout":   "server.shutdown_timeout",
	"max_body_bytes":     "server.max_body_bytes",
	"environment":        "server.environment",

	// Security
	"cors_origins":        "security.cors_origins",
	"cors_max_age":        "security.cors_max_age",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Models
	"models_root":          "models.root",
	"crop_model_dir":       "models.crop_dir",
	"fertilizer_model_dir": "models.fertilizer_dir",
	"model_store_dir":      "models.store_dir",
	"numeric_default":      "models.numeric_default",

	// History
	"history_enabled":     "history.enabled",
	"history_path":        "history.path",
	"history_in_memory":   "history.in_memory",
	"history_max_entries": "history.max_entries",
	"history_list_limit":  "history.list_limit",

	// Metrics
	"metrics_enabled": "metrics.enabled",
}

// envTransformFunc maps known environment variables onto koanf paths and
// drops everything else.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
