// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

package predict

import (
	"fmt"
	"sort"
)

// LabelMap decodes class ids into display strings.
type LabelMap struct {
	labels map[int]string
}

// NewLabelMap copies labels into an immutable LabelMap.
func NewLabelMap(labels map[int]string) LabelMap {
	m := LabelMap{labels: make(map[int]string, len(labels))}
	for id, label := range labels {
		m.labels[id] = label
	}
	return m
}

// UnknownLabel is what an unmapped class id decodes to.
func UnknownLabel(id int) string {
	return fmt.Sprintf("Unknown (code: %d)", id)
}

// Lookup returns the mapped label and whether id was mapped.
func (m LabelMap) Lookup(id int) (string, bool) {
	label, ok := m.labels[id]
	return label, ok
}

// Decode never fails: unmapped ids become UnknownLabel(id).
func (m LabelMap) Decode(id int) string {
	if label, ok := m.labels[id]; ok {
		return label
	}
	return UnknownLabel(id)
}

// IDs returns the mapped class ids in ascending order.
func (m LabelMap) IDs() []int {
	ids := make([]int, 0, len(m.labels))
	for id := range m.labels {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Len returns the number of mapped ids.
func (m LabelMap) Len() int { return len(m.labels) }
