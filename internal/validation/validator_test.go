// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

package validation

import (
	"net/url"
	"strings"
	"testing"
)

func TestGetValidator_Singleton(t *testing.T) {
	t.Parallel()

	v1 := GetValidator()
	v2 := GetValidator()
	if v1 == nil || v1 != v2 {
		t.Error("GetValidator() should return one shared instance")
	}
}

type sample struct {
	Name   string `json:"name" validate:"required,max=8"`
	Domain string `query:"domain" validate:"omitempty,domain"`
	Count  int    `validate:"min=1"`
	Mode   string `json:"mode,omitempty" validate:"omitempty,oneof=fast slow"`
}

func TestValidateStruct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		in        sample
		wantField string
		wantMsg   string
	}{
		{"valid", sample{Name: "ok", Domain: "crop", Count: 1}, "", ""},
		{"required uses json name", sample{Count: 1}, "name", "name is required"},
		{"string max", sample{Name: "much too long", Count: 1}, "name", "name must be at most 8 characters"},
		{"unknown domain", sample{Name: "x", Domain: "soil", Count: 1}, "domain", "domain must be one of: crop fertilizer"},
		{"number min falls back to field name", sample{Name: "x"}, "Count", "Count must be at least 1"},
		{"oneof", sample{Name: "x", Count: 1, Mode: "medium"}, "mode", "mode must be one of: fast slow"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			verr := ValidateStruct(&tt.in)
			if tt.wantField == "" {
				if verr != nil {
					t.Fatalf("ValidateStruct() = %v", verr)
				}
				return
			}
			if verr == nil || len(verr.Errors()) != 1 {
				t.Fatalf("ValidateStruct() = %v, want one error", verr)
			}
			fe := verr.Errors()[0]
			if fe.Field() != tt.wantField || fe.Error() != tt.wantMsg {
				t.Errorf("error = %s: %q, want %s: %q", fe.Field(), fe.Error(), tt.wantField, tt.wantMsg)
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	t.Parallel()

	single := ValidateStruct(&sample{Count: 1}).ToAPIError()
	if single.Code != "VALIDATION_ERROR" || single.Message != "name is required" || single.Details["field"] != "name" {
		t.Errorf("single = %+v", single)
	}

	multi := ValidateStruct(&sample{Domain: "soil"}).ToAPIError()
	if !strings.Contains(multi.Message, "name: name is required") || !strings.Contains(multi.Message, "Count:") {
		t.Errorf("multi message = %q", multi.Message)
	}
	if fields, ok := multi.Details["fields"].([]map[string]interface{}); !ok || len(fields) != 3 {
		t.Errorf("multi details = %+v", multi.Details)
	}

	empty := (&RequestValidationError{}).ToAPIError()
	if empty.Message != "Validation failed" {
		t.Errorf("empty = %+v", empty)
	}
}

func TestParseHistoryQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		query      string
		wantDomain string
		wantLimit  int
		wantErr    string
	}{
		{"defaults", "", "", 50, ""},
		{"explicit", "domain=fertilizer&limit=10", "fertilizer", 10, ""},
		{"case and space folded", "domain=%20Crop%20", "crop", 50, ""},
		{"upper bound", "limit=500", "", 500, ""},
		{"too large", "limit=501", "", 0, "limit must be at most 500"},
		{"zero", "limit=0", "", 0, "limit must be at least 1"},
		{"not a number", "limit=ten", "", 0, "limit must be an integer"},
		{"unknown domain", "domain=rice", "", 0, "domain must be one of: crop fertilizer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			values, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatal(err)
			}
			q, verr := ParseHistoryQuery(values, 50)
			if tt.wantErr != "" {
				if verr == nil || verr.Error() != tt.wantErr {
					t.Errorf("ParseHistoryQuery() error = %v, want %q", verr, tt.wantErr)
				}
				return
			}
			if verr != nil {
				t.Fatalf("ParseHistoryQuery() error = %v", verr)
			}
			if q.Domain != tt.wantDomain || q.Limit != tt.wantLimit {
				t.Errorf("ParseHistoryQuery() = %+v", q)
			}
		})
	}
}

func TestDomainNames(t *testing.T) {
	t.Parallel()

	if got := strings.Join(DomainNames(), ","); got != "crop,fertilizer" {
		t.Errorf("DomainNames() = %s", got)
	}
}
