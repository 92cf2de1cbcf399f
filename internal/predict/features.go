// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

package predict

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// FieldKind says how a raw request value is turned into a feature.
type FieldKind int

const (
	Numeric FieldKind = iota
	Categorical
)

// Field describes one column of a feature vector.
type Field struct {
	// Column is the training-time column name, e.g. "N" or "Soil_Type".
	Column string

	// Name is the canonical request key, e.g. "nitrogen" or "soil_type".
	Name string

	// Keys are the accepted lowercase request keys in lookup order.
	// Name is used when Keys is empty.
	Keys []string

	Kind FieldKind

	// Label is the human name used in rejection reasons ("soil type").
	Label string

	// Categories encodes Categorical fields.
	Categories *CategoricalMap
}

func (f Field) lookupKeys() []string {
	if len(f.Keys) == 0 {
		return []string{f.Name}
	}
	return f.Keys
}

// FeatureSpec is the ordered column layout a fitted scaler and classifier
// expect. The zero value is unusable; build one with NewFeatureSpec.
type FeatureSpec struct {
	fields []Field
}

// NewFeatureSpec validates and freezes a column layout.
func NewFeatureSpec(fields ...Field) (FeatureSpec, error) {
	if len(fields) == 0 {
		return FeatureSpec{}, fmt.Errorf("feature spec: no fields")
	}

	columns := make(map[string]bool, len(fields))
	keys := make(map[string]string)
	frozen := make([]Field, len(fields))

	for i, f := range fields {
		if f.Column == "" || f.Name == "" {
			return FeatureSpec{}, fmt.Errorf("feature spec: field %d needs a column and a name", i)
		}
		if columns[f.Column] {
			return FeatureSpec{}, fmt.Errorf("feature spec: duplicate column %q", f.Column)
		}
		columns[f.Column] = true

		if f.Kind == Categorical && f.Categories == nil {
			return FeatureSpec{}, fmt.Errorf("feature spec: categorical column %q has no map", f.Column)
		}

		for _, k := range f.lookupKeys() {
			if k != strings.ToLower(k) {
				return FeatureSpec{}, fmt.Errorf("feature spec: key %q for %q must be lowercase", k, f.Column)
			}
			if owner, taken := keys[k]; taken {
				return FeatureSpec{}, fmt.Errorf("feature spec: key %q claimed by %q and %q", k, owner, f.Column)
			}
			keys[k] = f.Column
		}

		if f.Label == "" {
			f.Label = strings.ReplaceAll(f.Name, "_", " ")
		}
		f.Keys = append([]string(nil), f.lookupKeys()...)
		frozen[i] = f
	}

	return FeatureSpec{fields: frozen}, nil
}

// MustFeatureSpec is NewFeatureSpec for package-level layouts.
func MustFeatureSpec(fields ...Field) FeatureSpec {
	spec, err := NewFeatureSpec(fields...)
	if err != nil {
		panic(err)
	}
	return spec
}

// Len returns the vector length.
func (s FeatureSpec) Len() int { return len(s.fields) }

// Fields returns a copy of the layout.
func (s FeatureSpec) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

// Columns returns the column names in vector order.
func (s FeatureSpec) Columns() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Column
	}
	return out
}

// CheckColumns verifies an artifact was fitted on exactly this layout.
// An empty names slice means the artifact did not record its columns.
func (s FeatureSpec) CheckColumns(names []string) error {
	if len(names) == 0 {
		return nil
	}
	if len(names) != len(s.fields) {
		return shapeError("columns", len(names), len(s.fields))
	}
	for i, f := range s.fields {
		if names[i] != f.Column {
			return fmt.Errorf("column %d is %q, expected %q", i, names[i], f.Column)
		}
	}
	return nil
}

// Features is the builder's output.
type Features struct {
	// Vector holds one value per column, in spec order.
	Vector []float64

	// Defaulted lists numeric fields that fell back to the default value.
	Defaulted []string
}

// Builder turns a raw request mapping into a Features value.
// A Builder is safe for concurrent use.
type Builder struct {
	spec           FeatureSpec
	numericDefault float64
}

// NewBuilder returns a builder for spec. Numeric fields that are missing or
// cannot be parsed take numericDefault.
func NewBuilder(spec FeatureSpec, numericDefault float64) *Builder {
	return &Builder{spec: spec, numericDefault: numericDefault}
}

// Spec returns the layout the builder fills.
func (b *Builder) Spec() FeatureSpec { return b.spec }

// Build extracts every column from raw. Categorical problems are reported
// before the insufficient-input check.
func (b *Builder) Build(raw map[string]any) (Features, error) {
	norm := normalizeKeys(raw)
	vec := make([]float64, len(b.spec.fields))

	var (
		defaulted []string
		numeric   int
		usable    int
	)

	for i, f := range b.spec.fields {
		if f.Kind != Numeric {
			continue
		}
		numeric++

		v, ok := b.numeric(norm, f)
		if !ok {
			defaulted = append(defaulted, f.Name)
			v = b.numericDefault
		} else if v != 0 {
			usable++
		}
		vec[i] = v
	}

	if err := b.categoricals(norm, vec); err != nil {
		return Features{}, err
	}

	if numeric > 0 && usable == 0 {
		return Features{}, ValidationError("", "Averaged sensor values not provided", ErrInsufficientInput)
	}

	return Features{Vector: vec, Defaulted: defaulted}, nil
}

// numeric walks the field's keys in order. A nil or unparseable value moves
// on to the next key.
func (b *Builder) numeric(norm map[string]any, f Field) (float64, bool) {
	for _, k := range f.Keys {
		raw, present := norm[k]
		if !present || raw == nil {
			continue
		}
		if v, ok := toFloat(raw); ok {
			return v, true
		}
	}
	return 0, false
}

func (b *Builder) categoricals(norm map[string]any, vec []float64) error {
	var (
		labels  []string
		missing string
		values  = make(map[int]string)
	)

	for i, f := range b.spec.fields {
		if f.Kind != Categorical {
			continue
		}
		labels = append(labels, f.Label)

		s, ok := categoryValue(norm, f)
		if !ok {
			if missing == "" {
				missing = f.Name
			}
			continue
		}
		values[i] = s
	}

	if missing != "" {
		return ValidationError(missing, requiredReason(labels), ErrMissingCategory)
	}

	for i, f := range b.spec.fields {
		if f.Kind != Categorical {
			continue
		}
		code, ok := f.Categories.Code(values[i])
		if !ok {
			reason := fmt.Sprintf("Invalid %s: %s", f.Label, values[i])
			return ValidationError(f.Name, reason, ErrUnknownCategory)
		}
		vec[i] = float64(code)
	}
	return nil
}

// categoryValue returns the first present key's value as text. Non-string
// values are rendered so they fail the lookup with a readable reason.
func categoryValue(norm map[string]any, f Field) (string, bool) {
	for _, k := range f.Keys {
		raw, present := norm[k]
		if !present || raw == nil {
			continue
		}
		s, isString := raw.(string)
		if !isString {
			return fmt.Sprint(raw), true
		}
		if strings.TrimSpace(s) == "" {
			return "", false
		}
		return s, true
	}
	return "", false
}

// requiredReason renders "Soil type and crop type are required".
func requiredReason(labels []string) string {
	var sb strings.Builder
	for i, l := range labels {
		switch {
		case i == 0:
		case i == len(labels)-1:
			sb.WriteString(" and ")
		default:
			sb.WriteString(", ")
		}
		sb.WriteString(l)
	}
	text := sb.String()
	if text == "" {
		return "required field missing"
	}
	verb := " is required"
	if len(labels) > 1 {
		verb = " are required"
	}
	return strings.ToUpper(text[:1]) + text[1:] + verb
}

// normalizeKeys lowercases keys. When two keys collide the one already in
// lowercase wins, otherwise the lexicographically smallest original key.
func normalizeKeys(raw map[string]any) map[string]any {
	originals := make([]string, 0, len(raw))
	for k := range raw {
		originals = append(originals, k)
	}
	sort.Strings(originals)

	norm := make(map[string]any, len(raw))
	for _, k := range originals {
		lower := strings.ToLower(strings.TrimSpace(k))
		if _, taken := norm[lower]; taken && k != lower {
			continue
		}
		norm[lower] = raw[k]
	}
	return norm
}

type float64er interface {
	Float64() (float64, error)
}

// toFloat coerces a decoded JSON or form value. Booleans and non-finite
// numbers are rejected.
func toFloat(raw any) (float64, bool) {
	var v float64
	switch t := raw.(type) {
	case bool:
		return 0, false
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		v = f
	case float64er:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		v = f
	default:
		rv := reflect.ValueOf(raw)
		switch rv.Kind() {
		case reflect.Float32, reflect.Float64:
			v = rv.Float()
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			v = float64(rv.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			v = float64(rv.Uint())
		default:
			return 0, false
		}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
