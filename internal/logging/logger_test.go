// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Level != "info" || cfg.Format != "json" {
		t.Errorf("DefaultConfig() = %+v", cfg)
	}
	if !cfg.Timestamp {
		t.Error("expected timestamps on by default")
	}
}

// Tests below touch the global logger and must not run in parallel.

func TestInit(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	Info().Str("domain", "crop").Msg("artifacts loaded")
	Debug().Msg("debug line")

	out := buf.String()
	if !strings.Contains(out, `"message":"artifacts loaded"`) {
		t.Errorf("missing message: %s", out)
	}
	if !strings.Contains(out, `"domain":"crop"`) {
		t.Errorf("missing field: %s", out)
	}
	if !strings.Contains(out, "debug line") {
		t.Errorf("debug level not enabled: %s", out)
	}
}

func TestInit_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Output: &buf})
	defer Init(DefaultConfig())

	Info().Msg("hidden")
	Warn().Msg("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("info event written at warn level: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("warn event missing: %s", buf.String())
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Output: &buf})
	defer Init(DefaultConfig())

	l := WithComponent("history")
	l.Info().Msg("recorded")

	if !strings.Contains(buf.String(), `"component":"history"`) {
		t.Errorf("missing component: %s", buf.String())
	}
}

func TestCtx(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))
	ctx = ContextWithRequestID(ctx, "abc-123")

	Ctx(ctx).Info().Msg("handled")

	if !strings.Contains(buf.String(), `"request_id":"abc-123"`) {
		t.Errorf("missing request id: %s", buf.String())
	}
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("RequestIDFromContext(empty) = %q", got)
	}
	if len(GenerateRequestID()) != 36 {
		t.Error("GenerateRequestID() is not a UUID")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"nonsense", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if ValidLevel("nonsense") || !ValidLevel("Warn") {
		t.Error("ValidLevel() mismatch")
	}
}

func TestSlogHandler(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewSlogHandler(NewTestLogger(&buf)))
	logger.With("service", "api").WithGroup("event").Error("service failed",
		"restarts", 3,
		"error", errors.New("listen: address in use"),
	)

	out := buf.String()
	for _, want := range []string{
		`"level":"error"`,
		`"message":"service failed"`,
		`"service":"api"`,
		`"event.restarts":3`,
		`"event.error":"listen: address in use"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}

func TestSlogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   slog.Level
		want zerolog.Level
	}{
		{slog.LevelDebug - 4, zerolog.TraceLevel},
		{slog.LevelDebug, zerolog.DebugLevel},
		{slog.LevelInfo, zerolog.InfoLevel},
		{slog.LevelWarn, zerolog.WarnLevel},
		{slog.LevelError, zerolog.ErrorLevel},
	}
	for _, tt := range tests {
		if got := slogLevel(tt.in); got != tt.want {
			t.Errorf("slogLevel(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
