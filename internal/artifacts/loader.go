// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

package artifacts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/goccy/go-json"

	"github.com/tomtom215/agrisense/internal/model"
	"github.com/tomtom215/agrisense/internal/predict"
)

// Artifact roles, used as keys in Status.Errors.
const (
	RoleModel    = "model"
	RoleMinMax   = "minmax"
	RoleStandard = "standard"
)

// ErrMissing marks an artifact file that does not exist.
var ErrMissing = errors.New("artifact not found")

// Documents are the raw JSON exports of one domain. A nil member was not
// available.
type Documents struct {
	Model    []byte
	MinMax   []byte
	Standard []byte
}

// ReadDocuments reads whatever files exist at p. Read failures are returned
// per role.
func ReadDocuments(p Paths) (Documents, map[string]error) {
	var docs Documents
	errs := make(map[string]error)
	read := func(role, path string) []byte {
		data, err := os.ReadFile(path) //nolint:gosec // path comes from operator configuration
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				err = fmt.Errorf("%w: %s", ErrMissing, path)
			}
			errs[role] = err
			return nil
		}
		return data
	}
	docs.Model = read(RoleModel, p.Model)
	docs.MinMax = read(RoleMinMax, p.MinMax)
	docs.Standard = read(RoleStandard, p.Standard)
	return docs, errs
}

// Decode validates and decodes docs for a domain. Each role is handled
// independently: a broken scaler leaves the classifier usable.
func Decode(domain predict.Domain, docs Documents) (predict.Artifacts, map[string]error) {
	var out predict.Artifacts
	errs := make(map[string]error)

	if docs.Model != nil {
		c, err := decodeClassifier(domain.Spec, docs.Model)
		if err != nil {
			errs[RoleModel] = err
		} else {
			out.Classifier = c
		}
	}
	if docs.MinMax != nil {
		s, err := decodeMinMax(domain.Spec, docs.MinMax)
		if err != nil {
			errs[RoleMinMax] = err
		} else {
			out.Scalers.MinMax = s
		}
	}
	if docs.Standard != nil {
		s, err := decodeStandard(domain.Spec, docs.Standard)
		if err != nil {
			errs[RoleStandard] = err
		} else {
			out.Scalers.Standard = s
		}
	}
	return out, errs
}

func decodeClassifier(spec predict.FeatureSpec, data []byte) (model.Model, error) {
	if err := Validate(SchemaClassifier, data); err != nil {
		return nil, err
	}
	m, h, err := model.Decode(data)
	if err != nil {
		return nil, err
	}
	if err := bind(spec, h.NFeaturesIn, h.FeatureNamesIn); err != nil {
		return nil, fmt.Errorf("%s classifier: %w", h.Kind, err)
	}
	return m, nil
}

type minMaxDoc struct {
	NFeaturesIn    int       `json:"n_features_in"`
	FeatureNamesIn []string  `json:"feature_names_in"`
	Min            []float64 `json:"min"`
	Scale          []float64 `json:"scale"`
	DataMin        []float64 `json:"data_min"`
	DataMax        []float64 `json:"data_max"`
	FeatureRange   []float64 `json:"feature_range"`
	Clip           bool      `json:"clip"`
}

// decodeMinMax prefers the fitted min/scale pair and derives it from the
// data bounds only when it is absent.
func decodeMinMax(spec predict.FeatureSpec, data []byte) (*predict.MinMaxScaler, error) {
	if err := Validate(SchemaMinMax, data); err != nil {
		return nil, err
	}
	var doc minMaxDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode minmax scaler: %w", err)
	}
	if err := bind(spec, doc.NFeaturesIn, doc.FeatureNamesIn); err != nil {
		return nil, fmt.Errorf("minmax scaler: %w", err)
	}

	lo, hi := 0.0, 1.0
	if len(doc.FeatureRange) == 2 {
		lo, hi = doc.FeatureRange[0], doc.FeatureRange[1]
	}

	var (
		s   *predict.MinMaxScaler
		err error
	)
	if doc.Min != nil && doc.Scale != nil {
		s, err = predict.NewMinMaxScaler(doc.Min, doc.Scale)
	} else {
		s, err = predict.MinMaxFromData(doc.DataMin, doc.DataMax, lo, hi)
	}
	if err != nil {
		return nil, err
	}
	s.Range = [2]float64{lo, hi}
	s.Clip = doc.Clip
	if s.NumFeatures() != doc.NFeaturesIn {
		return nil, fmt.Errorf("minmax scaler: %d columns, n_features_in is %d", s.NumFeatures(), doc.NFeaturesIn)
	}
	return s, nil
}

type standardDoc struct {
	NFeaturesIn    int       `json:"n_features_in"`
	FeatureNamesIn []string  `json:"feature_names_in"`
	Mean           []float64 `json:"mean"`
	Scale          []float64 `json:"scale"`
	WithMean       *bool     `json:"with_mean"`
	WithStd        *bool     `json:"with_std"`
}

func decodeStandard(spec predict.FeatureSpec, data []byte) (*predict.StandardScaler, error) {
	if err := Validate(SchemaStandard, data); err != nil {
		return nil, err
	}
	var doc standardDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode standard scaler: %w", err)
	}
	if err := bind(spec, doc.NFeaturesIn, doc.FeatureNamesIn); err != nil {
		return nil, fmt.Errorf("standard scaler: %w", err)
	}

	mean, scale := doc.Mean, doc.Scale
	if doc.WithMean != nil && !*doc.WithMean {
		mean = nil
	}
	if doc.WithStd != nil && !*doc.WithStd {
		scale = nil
	}
	s, err := predict.NewStandardScaler(mean, scale)
	if err != nil {
		return nil, err
	}
	if s.NumFeatures() != doc.NFeaturesIn {
		return nil, fmt.Errorf("standard scaler: %d columns, n_features_in is %d", s.NumFeatures(), doc.NFeaturesIn)
	}
	return s, nil
}

// bind checks an artifact was fitted on the FeatureSpec columns.
func bind(spec predict.FeatureSpec, n int, names []string) error {
	if n != spec.Len() {
		return fmt.Errorf("fitted on %d features, expected %d", n, spec.Len())
	}
	return spec.CheckColumns(names)
}
