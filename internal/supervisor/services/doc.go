// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

// Package services adapts blocking servers to suture.Service.
//
// HTTPServerService turns http.Server's ListenAndServe/Shutdown pair into
// a context-driven Serve method with a bounded drain on shutdown.
package services
