// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

package validation

import (
	"net/url"
	"strconv"
	"strings"
)

// MaxHistoryLimit caps a single history page.
const MaxHistoryLimit = 500

// HistoryQuery holds the /history query parameters.
type HistoryQuery struct {
	Domain string `query:"domain" validate:"omitempty,domain"`
	Limit  int    `query:"limit" validate:"min=1,max=500"`
}

// ParseHistoryQuery reads and validates history parameters. An absent
// limit falls back to defaultLimit.
func ParseHistoryQuery(values url.Values, defaultLimit int) (HistoryQuery, *RequestValidationError) {
	q := HistoryQuery{
		Domain: strings.ToLower(strings.TrimSpace(values.Get("domain"))),
		Limit:  defaultLimit,
	}

	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, &RequestValidationError{errors: []FieldError{{
				field:   "limit",
				tag:     "number",
				value:   raw,
				message: "limit must be an integer",
			}}}
		}
		q.Limit = n
	}

	if verr := ValidateStruct(&q); verr != nil {
		return q, verr
	}
	return q, nil
}
