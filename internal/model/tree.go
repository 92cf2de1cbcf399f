// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

package model

import "fmt"

// leafMarker is the child index of a leaf.
const leafMarker = -1

// TreeNodes is a fitted tree in parallel-array form. Node 0 is the root;
// children always have larger ids than their parent.
type TreeNodes struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

// Tree is a decision tree classifier.
type Tree struct {
	nodes     TreeNodes
	classes   []int
	nFeatures int
}

// NewTree validates nodes and binds them to classes.
func NewTree(nodes TreeNodes, classes []int, nFeatures int) (*Tree, error) {
	if err := checkClasses(classes); err != nil {
		return nil, err
	}
	n := len(nodes.ChildrenLeft)
	if n == 0 {
		return nil, fmt.Errorf("decision_tree: no nodes")
	}
	if len(nodes.ChildrenRight) != n || len(nodes.Feature) != n || len(nodes.Threshold) != n || len(nodes.Value) != n {
		return nil, fmt.Errorf("decision_tree: node arrays differ in length")
	}
	if !finite(nodes.Threshold) {
		return nil, fmt.Errorf("decision_tree: non-finite threshold")
	}

	for i := 0; i < n; i++ {
		left, right := nodes.ChildrenLeft[i], nodes.ChildrenRight[i]
		if len(nodes.Value[i]) != len(classes) {
			return nil, fmt.Errorf("decision_tree: node %d has %d values for %d classes", i, len(nodes.Value[i]), len(classes))
		}
		if left == leafMarker || right == leafMarker {
			if left != right {
				return nil, fmt.Errorf("decision_tree: node %d has a single child", i)
			}
			continue
		}
		if left <= i || right <= i || left >= n || right >= n {
			return nil, fmt.Errorf("decision_tree: node %d has children out of order (%d, %d)", i, left, right)
		}
		if f := nodes.Feature[i]; f < 0 || f >= nFeatures {
			return nil, fmt.Errorf("decision_tree: node %d splits on feature %d of %d", i, f, nFeatures)
		}
	}

	return &Tree{nodes: nodes, classes: append([]int(nil), classes...), nFeatures: nFeatures}, nil
}

func (t *Tree) Kind() Kind       { return KindDecisionTree }
func (t *Tree) NumFeatures() int { return t.nFeatures }
func (t *Tree) Classes() []int   { return append([]int(nil), t.classes...) }

// Predict returns the majority class of the leaf x falls into.
func (t *Tree) Predict(x []float64) (int, error) {
	if err := checkInput(x, t.nFeatures); err != nil {
		return 0, err
	}
	return t.classes[argmax(t.nodes.Value[t.leaf(x)])], nil
}

// Proba returns the leaf's class distribution, normalized to sum to 1.
func (t *Tree) Proba(x []float64) ([]float64, error) {
	if err := checkInput(x, t.nFeatures); err != nil {
		return nil, err
	}
	counts := t.nodes.Value[t.leaf(x)]
	var total float64
	for _, c := range counts {
		total += c
	}
	out := make([]float64, len(counts))
	for i, c := range counts {
		if total > 0 {
			out[i] = c / total
		}
	}
	return out, nil
}

func (t *Tree) leaf(x []float64) int {
	node := 0
	for t.nodes.ChildrenLeft[node] != leafMarker {
		if x[t.nodes.Feature[node]] <= t.nodes.Threshold[node] {
			node = t.nodes.ChildrenLeft[node]
		} else {
			node = t.nodes.ChildrenRight[node]
		}
	}
	return node
}
