// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

/*
Package middleware provides HTTP middleware shared by the API router.

  - RequestID: X-Request-ID propagation into the request context and logger
  - PrometheusMetrics: request counts, durations and rate-limit hits, labelled
    by chi route pattern
  - Compression: gzip for clients that accept it (history listings)
  - LatencyTracker: rolling per-route latency percentiles for /status

All middleware have the signature func(http.HandlerFunc) http.HandlerFunc;
the api package adapts them to chi's func(http.Handler) http.Handler.
*/
package middleware
