// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

package model

import "fmt"

// Forest averages the class distributions of its trees (soft voting).
type Forest struct {
	trees     []*Tree
	classes   []int
	nFeatures int
}

// NewForest builds every estimator against the shared class list.
func NewForest(estimators []TreeNodes, classes []int, nFeatures int) (*Forest, error) {
	if len(estimators) == 0 {
		return nil, fmt.Errorf("random_forest: no estimators")
	}
	trees := make([]*Tree, len(estimators))
	for i, nodes := range estimators {
		t, err := NewTree(nodes, classes, nFeatures)
		if err != nil {
			return nil, fmt.Errorf("random_forest: estimator %d: %w", i, err)
		}
		trees[i] = t
	}
	return &Forest{trees: trees, classes: append([]int(nil), classes...), nFeatures: nFeatures}, nil
}

func (f *Forest) Kind() Kind       { return KindRandomForest }
func (f *Forest) NumFeatures() int { return f.nFeatures }
func (f *Forest) Classes() []int   { return append([]int(nil), f.classes...) }

// Size returns the number of trees.
func (f *Forest) Size() int { return len(f.trees) }

// Predict returns the class with the highest mean probability.
func (f *Forest) Predict(x []float64) (int, error) {
	if err := checkInput(x, f.nFeatures); err != nil {
		return 0, err
	}
	mean := make([]float64, len(f.classes))
	for _, t := range f.trees {
		p, err := t.Proba(x)
		if err != nil {
			return 0, err
		}
		for i, v := range p {
			mean[i] += v
		}
	}
	return f.classes[argmax(mean)], nil
}
