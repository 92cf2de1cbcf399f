// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate points CONFIG_PATH at a file that does not exist and moves into an
// empty directory so no stray config.yaml or .env is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(ConfigPathEnvVar, filepath.Join(dir, "absent.yaml"))
	return dir
}

func TestLoadWithKoanf_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.Addr() != "0.0.0.0:5000" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
	if cfg.Server.MaxBodyBytes != 64<<10 {
		t.Errorf("Server.MaxBodyBytes = %d", cfg.Server.MaxBodyBytes)
	}
	if cfg.Models.Root != "models" {
		t.Errorf("Models.Root = %q", cfg.Models.Root)
	}
	if len(cfg.Security.CORSOrigins) != 12 {
		t.Errorf("CORSOrigins = %v, want 12 dev origins", cfg.Security.CORSOrigins)
	}
	if !cfg.History.Enabled || cfg.History.ListLimit != 50 {
		t.Errorf("History = %+v", cfg.History)
	}
	if cfg.IsProduction() {
		t.Error("default environment should not be production")
	}
}

func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("PORT", "8080")
	t.Setenv("CORS_ORIGINS", "https://farm.example.com, https://app.example.com")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("MODELS_ROOT", "/srv/models")
	t.Setenv("NUMERIC_DEFAULT", "1.5")
	t.Setenv("HISTORY_IN_MEMORY", "true")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("UNRELATED_VARIABLE", "ignored")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	want := []string{"https://farm.example.com", "https://app.example.com"}
	if strings.Join(cfg.Security.CORSOrigins, "|") != strings.Join(want, "|") {
		t.Errorf("CORSOrigins = %v, want %v", cfg.Security.CORSOrigins, want)
	}
	if cfg.Security.RateLimitWindow != 30*time.Second {
		t.Errorf("RateLimitWindow = %v", cfg.Security.RateLimitWindow)
	}
	if cfg.Models.Root != "/srv/models" || cfg.Models.NumericDefault != 1.5 {
		t.Errorf("Models = %+v", cfg.Models)
	}
	if !cfg.History.InMemory {
		t.Error("History.InMemory not set from env")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
}

func TestLoadWithKoanf_YAMLThenEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "agrisense.yaml")
	yaml := `
server:
  port: 7000
  environment: production
models:
  root: /opt/models
  crop_dir: /opt/models/crop
history:
  enabled: false
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "7100")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Server.Port != 7100 {
		t.Errorf("env should win over file: port = %d", cfg.Server.Port)
	}
	if !cfg.IsProduction() {
		t.Error("environment from file not applied")
	}
	if cfg.ModelDir("crop") != "/opt/models/crop" || cfg.ModelDir("fertilizer") != "" {
		t.Errorf("ModelDir() = %q / %q", cfg.ModelDir("crop"), cfg.ModelDir("fertilizer"))
	}
	if cfg.History.Enabled {
		t.Error("history should be disabled by file")
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, DotEnvPath), []byte("HISTORY_LIST_LIMIT=25\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HISTORY_LIST_LIMIT", "")
	// godotenv never overrides variables that are already set, so clear it
	// in a way t.Setenv restores afterwards.
	if err := os.Unsetenv("HISTORY_LIST_LIMIT"); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.History.ListLimit != 25 {
		t.Errorf("History.ListLimit = %d, want 25 from .env", cfg.History.ListLimit)
	}
}

func TestLoadWithKoanf_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"port out of range", map[string]string{"PORT": "70000"}, "PORT must be between"},
		{"wildcard origin", map[string]string{"CORS_ORIGINS": "*"}, "CORS_ORIGINS=*"},
		{"bad origin", map[string]string{"CORS_ORIGINS": "farm.example.com"}, "is not an origin"},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}, "LOG_LEVEL"},
		{"list limit", map[string]string{"HISTORY_LIST_LIMIT": "0"}, "HISTORY_LIST_LIMIT"},
		{"rate limit", map[string]string{"RATE_LIMIT_REQUESTS": "0"}, "RATE_LIMIT_REQUESTS"},
		{"no models root", map[string]string{"MODELS_ROOT": ""}, "MODELS_ROOT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadWithKoanf()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadWithKoanf() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_RateLimitDisabled(t *testing.T) {
	t.Parallel()

	cfg := Defaults()
	cfg.Security.RateLimitDisabled = true
	cfg.Security.RateLimitReqs = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil when rate limiting is off", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"PORT":                 "server.port",
		"Crop_Model_Dir":       "models.crop_dir",
		"HISTORY_MAX_ENTRIES":  "history.max_entries",
		"PATH":                 "",
		"SOME_OTHER_SERVICE_X": "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDevCORSOrigins(t *testing.T) {
	t.Parallel()

	origins := DevCORSOrigins()
	for _, want := range []string{"http://localhost:3000", "http://127.0.0.1:5173", "http://localhost:4173"} {
		found := false
		for _, o := range origins {
			if o == want {
				found = true
			}
		}
		if !found {
			t.Errorf("DevCORSOrigins() missing %s", want)
		}
	}
}
