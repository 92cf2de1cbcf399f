// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

// Package history records served predictions.
//
// The request path hands an Entry to a Publisher, which puts it on an
// in-process watermill pub/sub. A Recorder consumes the topic and writes
// entries to a badger-backed Store through a circuit breaker, so a slow or
// failing store never holds up a prediction.
package history

import (
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/agrisense/internal/predict"
)

// Entry is one served prediction.
type Entry struct {
	ID        string             `json:"id"`
	RequestID string             `json:"request_id,omitempty"`
	Domain    string             `json:"domain"`
	Label     string             `json:"label"`
	ClassID   int                `json:"class_id"`
	Features  map[string]float64 `json:"features"`
	Degraded  bool               `json:"degraded"`
	CreatedAt time.Time          `json:"created_at"`
}

// NewEntry builds an Entry from a successful result. columns names the
// values in res.Features. It returns false for failed results.
//
//nolint:gocritic // Result is the value type the service returns
func NewEntry(res predict.Result, columns []string, requestID string, now time.Time) (Entry, bool) {
	if !res.OK || res.ClassID == nil {
		return Entry{}, false
	}

	features := make(map[string]float64, len(columns))
	for i, name := range columns {
		if i < len(res.Features) {
			features[name] = res.Features[i]
		}
	}

	return Entry{
		ID:        uuid.New().String(),
		RequestID: requestID,
		Domain:    res.Domain,
		Label:     res.Label,
		ClassID:   *res.ClassID,
		Features:  features,
		Degraded:  res.Scaling != nil && res.Scaling.Degraded,
		CreatedAt: now.UTC(),
	}, true
}
