// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

/*
Package api serves the AgriSense HTTP API on a chi router.

# Routes

Service and health:
  - GET /: service banner
  - GET /health, GET /api/health: static health documents kept for existing clients
  - GET /api/v1/health/live: liveness probe
  - GET /api/v1/health/ready: 200 when every domain has a classifier, 503 otherwise
  - GET /status: crop artifact status plus a per-domain breakdown

Predictions:
  - POST /api/crop/predict
  - POST /api/fertilizer/predict

Both accept a JSON object or a form-encoded body. A body that is empty or
not a JSON object is treated as an empty mapping, which the prediction
service rejects as insufficient input. The status code follows the failure
kind: 400 for validation and transform failures, 503 when the model is not
loaded.

History:
  - GET /history, GET /api/history?domain=&limit=

Observability:
  - GET /metrics when metrics are enabled

# Middleware

Every route passes through request ID assignment, real IP extraction,
panic recovery, CORS (go-chi/cors) and Prometheus metrics. Prediction
routes are also rate limited per client IP (go-chi/httprate) and /api
routes carry security headers.

# Response Shapes

Prediction responses are the prediction Result plus a key named after the
domain carrying the label:

	{"ok":true,"domain":"crop","stage":"responded","label":"Apple","crop":"Apple","class_id":16,...}
	{"ok":false,"domain":"crop","stage":"rejected","error":"...","kind":"validation","field":"N","failed_at":"received"}

Other endpoints report errors in an envelope:

	{"ok":false,"error":{"code":"VALIDATION_ERROR","message":"limit must be at most 500"}}
*/
package api
