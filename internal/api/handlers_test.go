// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/agrisense/internal/artifacts"
	"github.com/tomtom215/agrisense/internal/config"
	"github.com/tomtom215/agrisense/internal/history"
	"github.com/tomtom215/agrisense/internal/middleware"
	"github.com/tomtom215/agrisense/internal/predict"
)

// stubClassifier always answers id.
type stubClassifier struct{ id int }

func (c stubClassifier) Predict([]float64) (int, error) { return c.id, nil }
func (c stubClassifier) NumFeatures() int               { return 7 }

// memHistory is an in-memory HistoryReader and HistoryRecorder.
type memHistory struct {
	mu      sync.Mutex
	entries []history.Entry
	listErr error
}

func (m *memHistory) Record(_ context.Context, e *history.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *e)
}

func (m *memHistory) List(_ context.Context, q history.Query) ([]history.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []history.Entry
	for i := len(m.entries) - 1; i >= 0; i-- {
		if q.Domain != "" && m.entries[i].Domain != q.Domain {
			continue
		}
		out = append(out, m.entries[i])
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (m *memHistory) recorded() []history.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]history.Entry(nil), m.entries...)
}

type fixture struct {
	cfg         *config.Config
	cropID      int
	fertID      int
	noFertModel bool
	noHistory   bool
	history     *memHistory
}

func newFixture() *fixture {
	cfg := config.Defaults()
	cfg.Security.RateLimitDisabled = true
	return &fixture{cfg: cfg, cropID: 16, fertID: 17, history: &memHistory{}}
}

func (f *fixture) handler() *Handler {
	crop := predict.Artifacts{Classifier: stubClassifier{id: f.cropID}}
	fert := predict.Artifacts{Classifier: stubClassifier{id: f.fertID}}
	if f.noFertModel {
		fert = predict.Artifacts{}
	}

	registry := artifacts.NewRegistry(
		artifacts.Loaded{
			Domain:    predict.Crop(),
			Artifacts: crop,
			Status: artifacts.Status{
				Domain:      predict.DomainCrop,
				ModelStatus: predict.ModelStatus{ModelLoaded: true},
				Ready:       true,
				Degraded:    true,
				Source:      "directory",
				Paths:       artifacts.PathStatus{Model: true, Dir: true},
			},
		},
		artifacts.Loaded{
			Domain:    predict.Fertilizer(),
			Artifacts: fert,
			Status:    artifacts.Status{Domain: predict.DomainFertilizer, Ready: !f.noFertModel},
		},
	)

	deps := Deps{
		Config:   f.cfg,
		Registry: registry,
		Services: []*predict.Service{
			predict.NewService(predict.Crop(), crop),
			predict.NewService(predict.Fertilizer(), fert),
		},
		Latency: middleware.NewLatencyTracker(0, time.Hour),
		Version: "test",
	}
	if !f.noHistory {
		deps.History = f.history
		deps.Recorder = f.history
	}
	return NewHandler(deps)
}

func (f *fixture) router() http.Handler {
	return NewRouter(f.handler()).SetupChi()
}

func serve(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body map[string]interface{}
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("response is not JSON: %v: %s", err, rec.Body.String())
		}
	}
	return rec, body
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func errorCode(body map[string]interface{}) string {
	e, _ := body["error"].(map[string]interface{})
	code, _ := e["code"].(string)
	return code
}

const appleBody = `{"N":90,"P":42,"K":43,"temperature":20.88,"humidity":82.0,"ph":6.5,"rainfall":202.94}`

func TestRouter_ServiceEndpoints(t *testing.T) {
	t.Parallel()

	h := newFixture().router()

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantKey    string
		wantValue  interface{}
	}{
		{"root", http.MethodGet, "/", http.StatusOK, "service", ServiceName},
		{"health", http.MethodGet, "/health", http.StatusOK, "status", "ok"},
		{"api health", http.MethodGet, "/api/health", http.StatusOK, "api", true},
		{"liveness", http.MethodGet, "/api/v1/health/live", http.StatusOK, "alive", true},
		{"readiness", http.MethodGet, "/api/v1/health/ready", http.StatusOK, "status", "ready"},
		{"status", http.MethodGet, "/status", http.StatusOK, "ok", true},
		{"unknown path", http.MethodGet, "/nope", http.StatusNotFound, "ok", false},
		{"wrong method", http.MethodGet, "/api/crop/predict", http.StatusMethodNotAllowed, "ok", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec, body := serve(t, h, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if body[tt.wantKey] != tt.wantValue {
				t.Errorf("%s = %v, want %v", tt.wantKey, body[tt.wantKey], tt.wantValue)
			}
			if rec.Header().Get(middleware.RequestIDHeader) == "" {
				t.Error("missing X-Request-ID")
			}
		})
	}
}

func TestCropPredict_Success(t *testing.T) {
	t.Parallel()

	f := newFixture()
	h := f.router()

	rec, body := serve(t, h, postJSON("/api/crop/predict", appleBody))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if body["ok"] != true || body["label"] != "Apple" || body["crop"] != "Apple" {
		t.Errorf("body = %v", body)
	}
	if body["class_id"] != float64(16) || body["stage"] != "responded" {
		t.Errorf("class_id/stage = %v/%v", body["class_id"], body["stage"])
	}
	if _, ok := body["kind"]; ok {
		t.Error("successful response should not carry a kind")
	}
	scaling, _ := body["scaling"].(map[string]interface{})
	if scaling["degraded"] != true {
		t.Errorf("scaling = %v, want degraded without scalers", scaling)
	}

	entries := f.history.recorded()
	if len(entries) != 1 {
		t.Fatalf("recorded %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Domain != predict.DomainCrop || e.Label != "Apple" || e.Features["N"] != 90 || e.Features["rainfall"] != 202.94 {
		t.Errorf("entry = %+v", e)
	}
	if e.RequestID != rec.Header().Get(middleware.RequestIDHeader) {
		t.Errorf("entry request id %q != response header %q", e.RequestID, rec.Header().Get(middleware.RequestIDHeader))
	}
}

func TestCropPredict_Idempotent(t *testing.T) {
	t.Parallel()

	h := newFixture().handler()
	first := httptest.NewRecorder()
	h.CropPredict(first, postJSON("/api/crop/predict", appleBody))
	second := httptest.NewRecorder()
	h.CropPredict(second, postJSON("/api/crop/predict", appleBody))

	if first.Body.String() != second.Body.String() {
		t.Errorf("responses differ:\n%s\n%s", first.Body.String(), second.Body.String())
	}
}

func TestFertilizerPredict_Form(t *testing.T) {
	t.Parallel()

	f := newFixture()
	form := url.Values{
		"Nitrogen":    {"37", "99"},
		"Phosphorus":  {"0"},
		"Potassium":   {"0"},
		"Temperature": {"26"},
		"pH":          {"6.8"},
		"soil_type":   {"Black"},
		"crop_type":   {"Sugarcane"},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/fertilizer/predict", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec, body := serve(t, f.router(), req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if body["fertilizer"] != "Urea" || body["label"] != "Urea" {
		t.Errorf("body = %v", body)
	}
	if _, ok := body["crop"]; ok {
		t.Error("fertilizer response should not carry a crop key")
	}

	entries := f.history.recorded()
	if len(entries) != 1 || entries[0].Features["Nitrogen"] != 37 || entries[0].Features["Crop_Type"] != 11 {
		t.Errorf("entries = %+v", entries)
	}
}

func TestPredict_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		noFertModel bool
		path        string
		body        string
		wantStatus  int
		wantKind    string
		wantField   string
		wantError   string
	}{
		{
			name: "empty body", path: "/api/crop/predict", body: "",
			wantStatus: http.StatusBadRequest, wantKind: "validation",
			wantError: "Averaged sensor values not provided",
		},
		{
			name: "malformed json", path: "/api/crop/predict", body: `{"N": 90,`,
			wantStatus: http.StatusBadRequest, wantKind: "validation",
			wantError: "Averaged sensor values not provided",
		},
		{
			name: "json array", path: "/api/crop/predict", body: `[1,2,3]`,
			wantStatus: http.StatusBadRequest, wantKind: "validation",
			wantError: "Averaged sensor values not provided",
		},
		{
			name: "all zero", path: "/api/crop/predict", body: `{"N":0,"P":"0","ph":null}`,
			wantStatus: http.StatusBadRequest, wantKind: "validation",
			wantError: "Averaged sensor values not provided",
		},
		{
			name: "missing categories", path: "/api/fertilizer/predict", body: `{"nitrogen":10}`,
			wantStatus: http.StatusBadRequest, wantKind: "validation", wantField: "soil_type",
			wantError: "Soil type and crop type are required",
		},
		{
			name: "unknown soil", path: "/api/fertilizer/predict",
			body:       `{"nitrogen":10,"soil_type":"Sandy","crop_type":"Maize"}`,
			wantStatus: http.StatusBadRequest, wantKind: "validation", wantField: "soil_type",
			wantError: "Invalid soil type: Sandy",
		},
		{
			name: "model not loaded", noFertModel: true, path: "/api/fertilizer/predict",
			body:       `{"nitrogen":10,"soil_type":"Black","crop_type":"Maize"}`,
			wantStatus: http.StatusServiceUnavailable, wantKind: "model_unavailable",
			wantError: "Fertilizer model not loaded",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture()
			f.noFertModel = tt.noFertModel

			rec, body := serve(t, f.router(), postJSON(tt.path, tt.body))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if body["ok"] != false || body["kind"] != tt.wantKind || body["error"] != tt.wantError {
				t.Errorf("body = %v", body)
			}
			if tt.wantField != "" && body["field"] != tt.wantField {
				t.Errorf("field = %v, want %s", body["field"], tt.wantField)
			}
			if n := len(f.history.recorded()); n != 0 {
				t.Errorf("failed prediction recorded %d entries", n)
			}
		})
	}
}

func TestPredict_BodyTooLarge(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.cfg.Server.MaxBodyBytes = 1024
	body := `{"N":90,"pad":"` + strings.Repeat("x", 2048) + `"}`

	rec, resp := serve(t, f.router(), postJSON("/api/crop/predict", body))
	if rec.Code != http.StatusRequestEntityTooLarge || errorCode(resp) != ErrCodeRequestTooLarge {
		t.Errorf("status = %d, body = %v", rec.Code, resp)
	}
}

func TestPredict_WithoutHistory(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.noHistory = true
	rec, _ := serve(t, f.router(), postJSON("/api/crop/predict", appleBody))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if n := len(f.history.recorded()); n != 0 {
		t.Errorf("recorded %d entries with history disabled", n)
	}
}

func TestHealthReady_NotReady(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.noFertModel = true

	rec, body := serve(t, f.router(), httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable || body["status"] != "not_ready" {
		t.Fatalf("status = %d, body = %v", rec.Code, body)
	}
	domains, _ := body["domains"].(map[string]interface{})
	if domains["crop"] != true || domains["fertilizer"] != false {
		t.Errorf("domains = %v", domains)
	}
}

func TestStatus_Shape(t *testing.T) {
	t.Parallel()

	f := newFixture()
	h := f.router()
	serve(t, h, postJSON("/api/crop/predict", appleBody))

	rec, body := serve(t, h, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["model_loaded"] != true || body["standard_scaler_loaded"] != false || body["minmax_scaler_loaded"] != false {
		t.Errorf("crop status = %v", body)
	}
	paths, _ := body["paths"].(map[string]interface{})
	if paths["model"] != true || paths["dir"] != true || paths["standard"] != false {
		t.Errorf("paths = %v", paths)
	}
	domains, _ := body["domains"].(map[string]interface{})
	if _, ok := domains["fertilizer"]; !ok || len(domains) != 2 {
		t.Errorf("domains = %v", domains)
	}
	latency, _ := body["latency"].([]interface{})
	if len(latency) == 0 {
		t.Error("latency stats missing after a prediction")
	}
	if body["version"] != "test" {
		t.Errorf("version = %v", body["version"])
	}
}

func TestHistory(t *testing.T) {
	t.Parallel()

	seed := func(m *memHistory) {
		for i, d := range []string{"crop", "fertilizer", "crop"} {
			m.Record(context.Background(), &history.Entry{ID: string(rune('a' + i)), Domain: d})
		}
	}

	tests := []struct {
		name       string
		path       string
		disabled   bool
		listErr    error
		wantStatus int
		wantCount  float64
		wantCode   string
	}{
		{name: "all", path: "/history", wantStatus: http.StatusOK, wantCount: 3},
		{name: "api path with domain", path: "/api/history?domain=crop", wantStatus: http.StatusOK, wantCount: 2},
		{name: "limit", path: "/api/history?limit=1", wantStatus: http.StatusOK, wantCount: 1},
		{name: "bad limit", path: "/api/history?limit=0", wantStatus: http.StatusBadRequest, wantCode: ErrCodeValidation},
		{name: "bad domain", path: "/history?domain=rice", wantStatus: http.StatusBadRequest, wantCode: ErrCodeValidation},
		{name: "store error", path: "/history", listErr: errors.New("closed"), wantStatus: http.StatusInternalServerError, wantCode: ErrCodeHistory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture()
			seed(f.history)
			f.history.listErr = tt.listErr

			rec, body := serve(t, f.router(), httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantCode != "" {
				if errorCode(body) != tt.wantCode {
					t.Errorf("error = %v, want code %s", body["error"], tt.wantCode)
				}
				return
			}
			if body["count"] != tt.wantCount {
				t.Errorf("count = %v, want %v", body["count"], tt.wantCount)
			}
		})
	}
}

func TestHistory_Disabled(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.noHistory = true
	rec, body := serve(t, f.router(), httptest.NewRequest(http.MethodGet, "/history", nil))
	if rec.Code != http.StatusOK || body["ok"] != true || body["message"] != HistoryDisabledMessage {
		t.Errorf("status = %d, body = %v", rec.Code, body)
	}
}

func TestHistory_Gzip(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	newFixture().router().ServeHTTP(rec, req)

	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Errorf("Content-Encoding = %q", rec.Header().Get("Content-Encoding"))
	}
}

func TestRouter_Metrics(t *testing.T) {
	t.Parallel()

	for _, enabled := range []bool{true, false} {
		f := newFixture()
		f.cfg.Metrics.Enabled = enabled

		rec := httptest.NewRecorder()
		f.router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		want := http.StatusNotFound
		if enabled {
			want = http.StatusOK
		}
		if rec.Code != want {
			t.Errorf("metrics enabled=%v: status = %d, want %d", enabled, rec.Code, want)
		}
	}
}

func TestReadPayload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		contentType string
		body        string
		want        map[string]string
	}{
		{"json object", "application/json", `{"N":"12"}`, map[string]string{"N": "12"}},
		{"json without content type", "", `{"N":"12"}`, map[string]string{"N": "12"}},
		{"json null", "application/json", `null`, map[string]string{}},
		{"json string", "application/json", `"hello"`, map[string]string{}},
		{"form first value", "application/x-www-form-urlencoded", "N=1&N=2&ph=7", map[string]string{"N": "1", "ph": "7"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			got, err := readPayload(httptest.NewRecorder(), req, 1024)
			if err != nil {
				t.Fatalf("readPayload() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("readPayload() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if s, _ := got[k].(string); s != v {
					t.Errorf("%s = %v, want %s", k, got[k], v)
				}
			}
		})
	}
}

func TestReadPayload_NumbersStayExact(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"N": 12345678901234567890}`))
	got, err := readPayload(httptest.NewRecorder(), req, 1024)
	if err != nil {
		t.Fatal(err)
	}
	n, ok := got["N"].(json.Number)
	if !ok || n.String() != "12345678901234567890" {
		t.Errorf("N = %#v", got["N"])
	}
}
