// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/agrisense/internal/predict"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is one failed rule, named by the field's query or json name.
type FieldError struct {
	field   string
	tag     string
	value   interface{}
	message string
}

// Field returns the reported field name.
func (e *FieldError) Field() string { return e.field }

func (e *FieldError) Error() string { return e.message }

// RequestValidationError collects every failed rule of one request.
type RequestValidationError struct {
	errors []FieldError
}

// Errors returns the individual failures in struct order.
func (ve *RequestValidationError) Errors() []FieldError {
	return ve.errors
}

func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(ve.errors))
	for i := range ve.errors {
		messages[i] = ve.errors[i].message
	}
	return strings.Join(messages, "; ")
}

// APIError mirrors the envelope the API layer writes for VALIDATION_ERROR.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ToAPIError renders the failures. A single failure carries its field, tag
// and value; several are listed under "fields".
func (ve *RequestValidationError) ToAPIError() *APIError {
	apiErr := &APIError{Code: "VALIDATION_ERROR", Message: "Validation failed"}

	switch len(ve.errors) {
	case 0:
	case 1:
		e := ve.errors[0]
		apiErr.Message = e.message
		apiErr.Details = map[string]interface{}{"field": e.field, "tag": e.tag, "value": e.value}
	default:
		fields := make([]map[string]interface{}, len(ve.errors))
		messages := make([]string, len(ve.errors))
		for i, e := range ve.errors {
			fields[i] = map[string]interface{}{"field": e.field, "tag": e.tag, "message": e.message}
			messages[i] = e.field + ": " + e.message
		}
		apiErr.Message = strings.Join(messages, "; ")
		apiErr.Details = map[string]interface{}{"fields": fields}
	}
	return apiErr
}

// GetValidator returns the shared validator. Safe for concurrent use.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(fieldName)
		if err := validate.RegisterValidation("domain", validateDomain); err != nil {
			panic(fmt.Sprintf("register domain validator: %v", err))
		}
	})
	return validate
}

// ValidateStruct validates s and returns nil or the collected failures.
func ValidateStruct(s interface{}) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &RequestValidationError{errors: []FieldError{{field: "unknown", tag: "unknown", message: err.Error()}}}
	}

	out := make([]FieldError, len(fieldErrs))
	for i, fe := range fieldErrs {
		out[i] = FieldError{
			field:   fe.Field(),
			tag:     fe.Tag(),
			value:   fe.Value(),
			message: translate(fe),
		}
	}
	return &RequestValidationError{errors: out}
}

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"query", "json"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return f.Name
}

func validateDomain(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	for _, d := range predict.Domains() {
		if d.Name == name {
			return true
		}
	}
	return false
}

// DomainNames lists the names the domain tag accepts.
func DomainNames() []string {
	domains := predict.Domains()
	names := make([]string, len(domains))
	for i, d := range domains {
		names[i] = d.Name
	}
	return names
}

func translate(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()
	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "domain":
		return field + " must be one of: " + strings.Join(DomainNames(), " ")
	case "oneof":
		return field + " must be one of: " + param
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s%s", field, param, unit)
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s%s", field, param, unit)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
