// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

package model

import (
	"fmt"
	"math"
	"sort"
)

// KNN is a k-nearest-neighbours classifier over stored training points.
type KNN struct {
	k        int
	distance bool
	points   [][]float64
	labels   []int
	classes  []int
	index    map[int]int
}

// NewKNN validates the stored points. weights is "uniform" (default) or
// "distance".
func NewKNN(k int, weights string, points [][]float64, labels, classes []int) (*KNN, error) {
	if err := checkClasses(classes); err != nil {
		return nil, err
	}
	if len(points) == 0 || len(points) != len(labels) {
		return nil, fmt.Errorf("knn: %d points for %d labels", len(points), len(labels))
	}
	if k <= 0 || k > len(points) {
		return nil, fmt.Errorf("knn: k=%d with %d points", k, len(points))
	}

	var distance bool
	switch weights {
	case "", "uniform":
	case "distance":
		distance = true
	default:
		return nil, fmt.Errorf("knn: unknown weights %q", weights)
	}

	index := make(map[int]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}

	dim := len(points[0])
	for i, p := range points {
		if len(p) != dim || dim == 0 {
			return nil, fmt.Errorf("knn: point %d has %d features, expected %d", i, len(p), dim)
		}
		if _, ok := index[labels[i]]; !ok {
			return nil, fmt.Errorf("knn: point %d has label %d outside classes", i, labels[i])
		}
	}
	if !finite(points...) {
		return nil, fmt.Errorf("knn: non-finite training point")
	}

	return &KNN{
		k:        k,
		distance: distance,
		points:   points,
		labels:   append([]int(nil), labels...),
		classes:  append([]int(nil), classes...),
		index:    index,
	}, nil
}

func (m *KNN) Kind() Kind       { return KindKNN }
func (m *KNN) NumFeatures() int { return len(m.points[0]) }
func (m *KNN) Classes() []int   { return append([]int(nil), m.classes...) }

// Predict votes among the k closest points. Equal distances keep training
// order; equal votes go to the smallest class id.
func (m *KNN) Predict(x []float64) (int, error) {
	if err := checkInput(x, m.NumFeatures()); err != nil {
		return 0, err
	}

	type neighbour struct {
		d   float64
		idx int
	}
	all := make([]neighbour, len(m.points))
	for i, p := range m.points {
		all[i] = neighbour{d: euclidean(x, p), idx: i}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].d < all[j].d })
	nearest := all[:m.k]

	votes := make([]float64, len(m.classes))
	exact := m.distance && nearest[0].d == 0
	for _, n := range nearest {
		w := 1.0
		switch {
		case exact && n.d != 0:
			w = 0
		case m.distance && !exact:
			w = 1 / n.d
		}
		votes[m.index[m.labels[n.idx]]] += w
	}
	return m.classes[argmax(votes)], nil
}

func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
