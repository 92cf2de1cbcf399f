// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

// Package model evaluates fitted classifiers exported as JSON.
//
// Supported kinds mirror the estimators the recommendation models were
// trained with: decision_tree, random_forest, knn and linear. Every document
// shares a header (kind, n_features_in, feature_names_in, classes); the rest
// of the body is kind specific. Decoding validates structure so that
// Predict can index without bounds surprises.
package model

import (
	"errors"
	"fmt"
	"math"

	"github.com/goccy/go-json"
)

// Kind names an exported estimator type.
type Kind string

const (
	KindDecisionTree Kind = "decision_tree"
	KindRandomForest Kind = "random_forest"
	KindKNN          Kind = "knn"
	KindLinear       Kind = "linear"
)

// ErrFeatureCount is returned when Predict gets a vector of the wrong length.
var ErrFeatureCount = errors.New("feature count mismatch")

// Header is the part of a classifier document every kind shares.
type Header struct {
	Kind           Kind     `json:"kind"`
	NFeaturesIn    int      `json:"n_features_in"`
	FeatureNamesIn []string `json:"feature_names_in,omitempty"`
	Classes        []int    `json:"classes"`
}

// Model is a decoded, immutable classifier.
type Model interface {
	Predict(x []float64) (int, error)
	NumFeatures() int
	Kind() Kind
	Classes() []int
}

type document struct {
	Header

	// decision_tree
	Tree *TreeNodes `json:"tree,omitempty"`

	// random_forest
	Estimators []TreeNodes `json:"estimators,omitempty"`

	// knn
	K       int         `json:"k,omitempty"`
	Weights string      `json:"weights,omitempty"`
	Points  [][]float64 `json:"points,omitempty"`
	Labels  []int       `json:"labels,omitempty"`

	// linear
	Coef      [][]float64 `json:"coef,omitempty"`
	Intercept []float64   `json:"intercept,omitempty"`
}

// Decode parses a classifier document.
func Decode(data []byte) (Model, Header, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, Header{}, fmt.Errorf("decode classifier: %w", err)
	}
	if err := checkHeader(doc.Header); err != nil {
		return nil, doc.Header, err
	}

	var (
		m   Model
		err error
	)
	switch doc.Kind {
	case KindDecisionTree:
		if doc.Tree == nil {
			return nil, doc.Header, fmt.Errorf("decision_tree: missing tree")
		}
		m, err = NewTree(*doc.Tree, doc.Classes, doc.NFeaturesIn)
	case KindRandomForest:
		m, err = NewForest(doc.Estimators, doc.Classes, doc.NFeaturesIn)
	case KindKNN:
		m, err = NewKNN(doc.K, doc.Weights, doc.Points, doc.Labels, doc.Classes)
	case KindLinear:
		m, err = NewLinear(doc.Coef, doc.Intercept, doc.Classes)
	default:
		return nil, doc.Header, fmt.Errorf("unsupported classifier kind %q", doc.Kind)
	}
	if err != nil {
		return nil, doc.Header, err
	}

	if m.NumFeatures() != doc.NFeaturesIn {
		return nil, doc.Header, fmt.Errorf("%s: body uses %d features, header declares %d", doc.Kind, m.NumFeatures(), doc.NFeaturesIn)
	}
	return m, doc.Header, nil
}

func checkHeader(h Header) error {
	if h.NFeaturesIn <= 0 {
		return fmt.Errorf("classifier: n_features_in must be positive")
	}
	if len(h.FeatureNamesIn) > 0 && len(h.FeatureNamesIn) != h.NFeaturesIn {
		return fmt.Errorf("classifier: %d feature names for %d features", len(h.FeatureNamesIn), h.NFeaturesIn)
	}
	return checkClasses(h.Classes)
}

// checkClasses requires strictly ascending ids, which makes "first index
// wins" tie-breaking the same as "smallest class id wins".
func checkClasses(classes []int) error {
	if len(classes) == 0 {
		return fmt.Errorf("classifier: no classes")
	}
	for i := 1; i < len(classes); i++ {
		if classes[i] <= classes[i-1] {
			return fmt.Errorf("classifier: classes must be strictly ascending")
		}
	}
	return nil
}

func checkInput(x []float64, n int) error {
	if len(x) != n {
		return fmt.Errorf("%w: got %d, expected %d", ErrFeatureCount, len(x), n)
	}
	return nil
}

// argmax returns the first index holding the largest value.
func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

func finite(rows ...[]float64) bool {
	for _, r := range rows {
		for _, v := range r {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
