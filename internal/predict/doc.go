// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

// Package predict turns raw recommendation requests into labels.
//
// # Pipeline
//
// Each domain (crop, fertilizer) runs the same chain:
//
//	raw fields → Builder → ScalerPair (min-max, then standard) → Classifier → LabelMap
//
// The Builder matches request keys case-insensitively against per-field
// synonyms and emits a vector in the exact column order the model was fitted
// on. Numeric values that are missing or unparseable take a default (0.0);
// a request where no numeric field carries a non-zero value is rejected as
// insufficient input before any scaling happens.
//
// # Errors
//
// Failures are reported as *Error with a Kind:
//
//   - KindValidation: missing or unknown category, no usable input (HTTP 400)
//   - KindModelUnavailable: classifier not loaded (HTTP 503)
//   - KindTransform: shape mismatch or numeric failure (HTTP 400)
//
// Service.Predict never returns a Go error; it folds every outcome into a
// Result whose JSON encoding is byte-stable for identical input.
//
// # Usage
//
//	svc := predict.NewService(predict.Crop(), artifacts,
//	    predict.WithLogger(logging.Logger()),
//	)
//	res := svc.Predict(ctx, map[string]any{"N": 14, "P": 140, ...})
//	if !res.OK {
//	    // res.Kind.HTTPStatus(), res.Error
//	}
//
// # Thread Safety
//
// Services, builders, scalers and maps are immutable after construction and
// may be shared by any number of goroutines.
package predict
