// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

package middleware

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/agrisense/internal/logging"
)

// DefaultLatencyWindow is the number of samples kept per route.
const DefaultLatencyWindow = 1000

// DefaultSlowThreshold is the duration above which a request is logged.
const DefaultSlowThreshold = time.Second

// RouteLatency is the rolling latency summary for one route. Durations are
// in microseconds since predictions usually finish well under a millisecond.
type RouteLatency struct {
	Route    string  `json:"route"`
	Requests int64   `json:"requests"`
	Errors   int64   `json:"errors"`
	AvgUS    float64 `json:"avg_us"`
	P50US    int64   `json:"p50_us"`
	P95US    int64   `json:"p95_us"`
	P99US    int64   `json:"p99_us"`
	MaxUS    int64   `json:"max_us"`
}

// routeWindow is a fixed-size ring of recent samples.
type routeWindow struct {
	samples  []int64
	next     int
	full     bool
	requests int64
	errors   int64
}

func (w *routeWindow) add(us int64) {
	w.samples[w.next] = us
	w.next++
	if w.next == len(w.samples) {
		w.next = 0
		w.full = true
	}
}

func (w *routeWindow) snapshot() []int64 {
	n := w.next
	if w.full {
		n = len(w.samples)
	}
	out := make([]int64, n)
	copy(out, w.samples[:n])
	return out
}

// LatencyTracker keeps per-route latency windows. Safe for concurrent use.
type LatencyTracker struct {
	mu            sync.RWMutex
	window        int
	slowThreshold time.Duration
	routes        map[string]*routeWindow
}

// NewLatencyTracker creates a tracker keeping window samples per route.
func NewLatencyTracker(window int, slowThreshold time.Duration) *LatencyTracker {
	if window <= 0 {
		window = DefaultLatencyWindow
	}
	if slowThreshold <= 0 {
		slowThreshold = DefaultSlowThreshold
	}
	return &LatencyTracker{
		window:        window,
		slowThreshold: slowThreshold,
		routes:        make(map[string]*routeWindow),
	}
}

// Record adds one sample. Status codes >= 500 count as errors.
func (lt *LatencyTracker) Record(route string, d time.Duration, status int) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	w, ok := lt.routes[route]
	if !ok {
		w = &routeWindow{samples: make([]int64, lt.window)}
		lt.routes[route] = w
	}
	w.add(d.Microseconds())
	w.requests++
	if status >= http.StatusInternalServerError {
		w.errors++
	}
}

// Stats returns a summary per route, busiest first.
func (lt *LatencyTracker) Stats() []RouteLatency {
	lt.mu.RLock()
	defer lt.mu.RUnlock()

	stats := make([]RouteLatency, 0, len(lt.routes))
	for route, w := range lt.routes {
		sorted := w.snapshot()
		if len(sorted) == 0 {
			continue
		}
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, d := range sorted {
			sum += d
		}
		stats = append(stats, RouteLatency{
			Route:    route,
			Requests: w.requests,
			Errors:   w.errors,
			AvgUS:    float64(sum) / float64(len(sorted)),
			P50US:    percentile(sorted, 0.50),
			P95US:    percentile(sorted, 0.95),
			P99US:    percentile(sorted, 0.99),
			MaxUS:    sorted[len(sorted)-1],
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Requests != stats[j].Requests {
			return stats[i].Requests > stats[j].Requests
		}
		return stats[i].Route < stats[j].Route
	})
	return stats
}

// Middleware records the latency of every request under its route pattern.
func (lt *LatencyTracker) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next(wrapper, r)

		elapsed := time.Since(start)
		route := r.Method + " " + RoutePattern(r)
		lt.Record(route, elapsed, wrapper.statusCode)

		if elapsed > lt.slowThreshold {
			logging.Ctx(r.Context()).Warn().
				Str("route", route).
				Dur("duration", elapsed).
				Dur("threshold", lt.slowThreshold).
				Msg("Slow request detected")
		}
	}
}

// percentile calculates the percentile value from a sorted slice
func percentile(sorted []int64, p float64) int64 {
	if len(sorted) == 0 {
		return 0
	}
	index := int(float64(len(sorted)-1) * p)
	return sorted[index]
}
