// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

/*
Package main is the entry point for the AgriSense prediction server.

AgriSense recommends a crop from soil and weather readings and a fertilizer
from soil, crop and nutrient readings. Each recommendation runs the same
pipeline: feature vector, min-max scaling, standard scaling, classifier,
label decoding.

# Application Architecture

The server runs under a Suture v4 supervisor tree:

	RootSupervisor ("agrisense")
	├── EventsSupervisor ("events-layer")
	│   └── History Recorder (optional, HISTORY_ENABLED)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (chi router)

Component initialization order:

 1. Configuration: Koanf v2 with .env, config file and environment variables
 2. Logging: zerolog with JSON/console output modes
 3. Artifacts: model and scaler documents from a bundle store or directory
 4. Prediction services: one per domain, wired to Prometheus observers
 5. History: BadgerDB store fed through a Watermill pub/sub
 6. HTTP Server: chi router with CORS, rate limiting and metrics

Artifacts are loaded once. A domain whose classifier is missing still
serves requests and answers them with a model-unavailable failure, so the
process never refuses to start over missing files.

# Signal Handling

SIGINT and SIGTERM cancel the tree. The HTTP server drains in-flight
requests for SHUTDOWN_TIMEOUT, the recorder finishes its current
message, then the history store is closed.

# Example Usage

	export MODELS_ROOT=/srv/agrisense/models
	export HISTORY_PATH=/var/lib/agrisense/history
	./agrisense

See cmd/agrictl for offline predictions and artifact bundle management.
*/
package main
