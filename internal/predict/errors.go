// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

package predict

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies why a prediction did not produce a label. The value is the
// wire name, so the empty KindNone drops out of JSON under omitempty.
type Kind string

const (
	// KindNone is the zero value carried by successful results.
	KindNone Kind = ""

	// KindValidation covers missing categoricals, unknown categories and
	// requests without usable numeric input.
	KindValidation Kind = "validation"

	// KindModelUnavailable means the classifier for the domain never loaded.
	KindModelUnavailable Kind = "model_unavailable"

	// KindTransform covers shape mismatches and numeric failures inside the
	// scaling and classification chain.
	KindTransform Kind = "transform"
)

func (k Kind) String() string { return string(k) }

// HTTPStatus maps the kind onto the status code the API layer returns.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindTransform:
		return http.StatusBadRequest
	case KindModelUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusOK
	}
}

// Sentinel causes. Match with errors.Is.
var (
	ErrInsufficientInput = errors.New("averaged sensor values not provided")
	ErrMissingCategory   = errors.New("required category missing")
	ErrUnknownCategory   = errors.New("unknown category")
	ErrModelUnavailable  = errors.New("model not loaded")
	ErrShapeMismatch     = errors.New("feature count mismatch")
	ErrNonFinite         = errors.New("non-finite value")
)

// Error is the typed failure returned by the builder, the scaling pipeline and
// the service. Reason is the human readable string surfaced to callers.
type Error struct {
	Kind   Kind
	Field  string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Reason == "" {
		return e.Err.Error()
	}
	return e.Reason
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ValidationError builds a KindValidation error.
func ValidationError(field, reason string, cause error) *Error {
	return &Error{Kind: KindValidation, Field: field, Reason: reason, Err: cause}
}

// ModelUnavailableError builds a KindModelUnavailable error.
func ModelUnavailableError(reason string) *Error {
	return &Error{Kind: KindModelUnavailable, Reason: reason, Err: ErrModelUnavailable}
}

// TransformError builds a KindTransform error from an underlying cause.
func TransformError(cause error) *Error {
	return &Error{Kind: KindTransform, Reason: cause.Error(), Err: cause}
}

// KindOf extracts the Kind from err, or KindNone when err carries none.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindNone
}

func shapeError(stage string, got, want int) error {
	return fmt.Errorf("%s: %w: got %d features, expected %d", stage, ErrShapeMismatch, got, want)
}
