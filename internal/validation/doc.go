// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

// Package validation provides struct validation using go-playground/validator v10.
//
// Features:
//   - Singleton validator instance (thread-safe, caches struct info)
//   - Field names reported by their query or json tag
//   - A "domain" tag that accepts the known prediction domains
//   - Error translation into the VALIDATION_ERROR envelope
//
// Example usage:
//
//	q, verr := validation.ParseHistoryQuery(r.URL.Query(), cfg.History.ListLimit)
//	if verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr)
//	    return
//	}
//
// Prediction inputs are not validated here: the feature builder owns their
// coercion and defaulting rules.
package validation
