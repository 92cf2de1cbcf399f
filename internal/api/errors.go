// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

package api

// Error codes for non-prediction responses.
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeRequestTooLarge  = "REQUEST_TOO_LARGE"
	ErrCodeHistory          = "HISTORY_ERROR"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// APIError is the error half of the envelope.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// errorResponse is the envelope written by respondError.
type errorResponse struct {
	OK    bool      `json:"ok"`
	Error *APIError `json:"error"`
}
