// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

/*
Package metrics exposes Prometheus collectors for AgriSense.

Metrics are registered with the default registry via promauto and served at
/metrics when metrics.enabled is set.

# Available Metrics

HTTP:
  - api_requests_total{method,endpoint,status}
  - api_request_duration_seconds{method,endpoint}
  - api_active_requests
  - api_rate_limit_hits_total{endpoint}

Predictions:
  - agrisense_predictions_total{domain,stage,kind}
  - agrisense_prediction_duration_seconds{domain}
  - agrisense_scaling_degraded_total{domain}
  - agrisense_unknown_labels_total{domain}
  - agrisense_artifact_loaded{domain,role}

History:
  - agrisense_history_published_total{result}
  - agrisense_history_writes_total{result}
  - agrisense_history_pruned_total

Circuit breakers:
  - circuit_breaker_state{name} (0=closed, 1=half-open, 2=open)
  - circuit_breaker_requests_total{name,result}
  - circuit_breaker_state_transitions_total{name,from_state,to_state}
*/
package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tomtom215/agrisense/internal/predict"
)

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of API requests currently being served",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"endpoint"},
	)

	// Prediction Metrics
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrisense_predictions_total",
			Help: "Prediction calls by terminal stage and error kind",
		},
		[]string{"domain", "stage", "kind"},
	)

	PredictionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agrisense_prediction_duration_seconds",
			Help:    "Time spent in the prediction pipeline",
			Buckets: []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .05},
		},
		[]string{"domain"},
	)

	ScalingDegraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrisense_scaling_degraded_total",
			Help: "Predictions served with one or both scalers missing",
		},
		[]string{"domain"},
	)

	UnknownLabels = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrisense_unknown_labels_total",
			Help: "Predictions whose class id had no display label",
		},
		[]string{"domain"},
	)

	ArtifactLoaded = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "agrisense_artifact_loaded",
			Help: "Whether an artifact is loaded (1) or missing (0)",
		},
		[]string{"domain", "role"},
	)

	// History Metrics
	HistoryPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrisense_history_published_total",
			Help: "History entries handed to the event bus",
		},
		[]string{"result"}, // "ok", "error"
	)

	HistoryWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrisense_history_writes_total",
			Help: "History entries processed by the recorder",
		},
		[]string{"result"}, // "stored", "dropped", "failed", "invalid"
	)

	HistoryPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agrisense_history_pruned_total",
			Help: "History entries removed by retention",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
		func() float64 { return time.Since(processStart).Seconds() },
	)
)

var processStart = time.Now()

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordArtifacts publishes which artifacts a domain has loaded.
func RecordArtifacts(domain string, model, minmax, standard bool) {
	ArtifactLoaded.WithLabelValues(domain, "model").Set(boolGauge(model))
	ArtifactLoaded.WithLabelValues(domain, "minmax").Set(boolGauge(minmax))
	ArtifactLoaded.WithLabelValues(domain, "standard").Set(boolGauge(standard))
}

// RecordHistoryPublish counts an entry handed to the event bus.
func RecordHistoryPublish(err error) {
	if err != nil {
		HistoryPublished.WithLabelValues("error").Inc()
		return
	}
	HistoryPublished.WithLabelValues("ok").Inc()
}

// RecordHistoryWrite counts a recorder outcome.
func RecordHistoryWrite(result string) {
	HistoryWrites.WithLabelValues(result).Inc()
}

// RecordCircuitBreakerTransition updates the state gauge and transition
// counter. States use gobreaker's names: "closed", "half-open", "open".
func RecordCircuitBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
}

// RecordCircuitBreakerRequest counts a call through a breaker.
func RecordCircuitBreakerRequest(name, result string) {
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

// SetAppInfo records the running version.
func SetAppInfo(version string) {
	AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
}

func stateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// PredictionObserver feeds prediction outcomes into Prometheus.
type PredictionObserver struct{}

var _ predict.Observer = PredictionObserver{}

// PredictionCompleted implements predict.Observer.
func (PredictionObserver) PredictionCompleted(domain string, stage predict.Stage, kind predict.Kind, elapsed time.Duration) {
	k := kind.String()
	if k == "" {
		k = "none"
	}
	PredictionsTotal.WithLabelValues(domain, string(stage), k).Inc()
	PredictionDuration.WithLabelValues(domain).Observe(elapsed.Seconds())
}

// ScalingDegraded implements predict.Observer.
func (PredictionObserver) ScalingDegraded(domain string) {
	ScalingDegraded.WithLabelValues(domain).Inc()
}

// UnknownLabel implements predict.Observer.
func (PredictionObserver) UnknownLabel(domain string, _ int) {
	UnknownLabels.WithLabelValues(domain).Inc()
}
