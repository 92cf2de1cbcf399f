// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

package model

import "fmt"

// Linear scores each class with coef·x + intercept and picks the largest.
// This covers logistic regression and linear SVMs, whose decision rule is the
// same argmax.
type Linear struct {
	coef      [][]float64
	intercept []float64
	classes   []int
}

// NewLinear validates the weight matrix. A single coef row with two classes
// is the binary form: class[1] wins when the score is positive.
func NewLinear(coef [][]float64, intercept []float64, classes []int) (*Linear, error) {
	if err := checkClasses(classes); err != nil {
		return nil, err
	}
	rows := len(classes)
	if len(classes) == 2 && len(coef) == 1 {
		rows = 1
	}
	if len(coef) != rows || len(intercept) != rows {
		return nil, fmt.Errorf("linear: %d coef rows and %d intercepts for %d classes", len(coef), len(intercept), len(classes))
	}
	dim := len(coef[0])
	if dim == 0 {
		return nil, fmt.Errorf("linear: empty coef row")
	}
	for i, row := range coef {
		if len(row) != dim {
			return nil, fmt.Errorf("linear: coef row %d has %d features, expected %d", i, len(row), dim)
		}
	}
	if !finite(coef...) || !finite(intercept) {
		return nil, fmt.Errorf("linear: non-finite weight")
	}
	return &Linear{coef: coef, intercept: intercept, classes: append([]int(nil), classes...)}, nil
}

func (m *Linear) Kind() Kind       { return KindLinear }
func (m *Linear) NumFeatures() int { return len(m.coef[0]) }
func (m *Linear) Classes() []int   { return append([]int(nil), m.classes...) }

// Predict returns the class with the highest decision score.
func (m *Linear) Predict(x []float64) (int, error) {
	if err := checkInput(x, m.NumFeatures()); err != nil {
		return 0, err
	}
	scores := make([]float64, len(m.coef))
	for i, row := range m.coef {
		s := m.intercept[i]
		for j, w := range row {
			s += w * x[j]
		}
		scores[i] = s
	}
	if len(scores) == 1 {
		if scores[0] > 0 {
			return m.classes[1], nil
		}
		return m.classes[0], nil
	}
	return m.classes[argmax(scores)], nil
}
