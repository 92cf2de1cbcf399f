// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

package predict

import (
	"fmt"
	"sort"
	"strings"
)

// CategoricalMap encodes category strings into the integer codes a model saw
// during training. A map is immutable once built.
type CategoricalMap struct {
	name    string
	codes   map[string]int
	aliases map[string]string
}

// NewCategoricalMap builds a map from category → code. Aliases map an
// alternative spelling onto an existing category.
func NewCategoricalMap(name string, codes map[string]int, aliases map[string]string) (*CategoricalMap, error) {
	if len(codes) == 0 {
		return nil, fmt.Errorf("categorical map %q: no categories", name)
	}

	m := &CategoricalMap{
		name:    name,
		codes:   make(map[string]int, len(codes)),
		aliases: make(map[string]string, len(aliases)),
	}

	seen := make(map[int]string, len(codes))
	for category, code := range codes {
		if strings.TrimSpace(category) == "" {
			return nil, fmt.Errorf("categorical map %q: empty category", name)
		}
		if code < 0 {
			return nil, fmt.Errorf("categorical map %q: negative code %d for %q", name, code, category)
		}
		if other, dup := seen[code]; dup {
			return nil, fmt.Errorf("categorical map %q: code %d used by %q and %q", name, code, other, category)
		}
		seen[code] = category
		m.codes[category] = code
	}

	for alias, target := range aliases {
		if _, ok := m.codes[target]; !ok {
			return nil, fmt.Errorf("categorical map %q: alias %q targets unknown category %q", name, alias, target)
		}
		if _, clash := m.codes[alias]; clash {
			return nil, fmt.Errorf("categorical map %q: alias %q shadows a category", name, alias)
		}
		m.aliases[alias] = target
	}

	return m, nil
}

// MustCategoricalMap is NewCategoricalMap for package-level tables.
func MustCategoricalMap(name string, codes map[string]int, aliases map[string]string) *CategoricalMap {
	m, err := NewCategoricalMap(name, codes, aliases)
	if err != nil {
		panic(err)
	}
	return m
}

// Name returns the map's name.
func (m *CategoricalMap) Name() string { return m.name }

// Code returns the code for value. Matching is exact after trimming
// surrounding whitespace.
func (m *CategoricalMap) Code(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if code, ok := m.codes[value]; ok {
		return code, true
	}
	if target, ok := m.aliases[value]; ok {
		return m.codes[target], true
	}
	return 0, false
}

// Categories lists the canonical categories ordered by code.
func (m *CategoricalMap) Categories() []string {
	out := make([]string, 0, len(m.codes))
	for category := range m.codes {
		out = append(out, category)
	}
	sort.Slice(out, func(i, j int) bool { return m.codes[out[i]] < m.codes[out[j]] })
	return out
}

// Len returns the number of canonical categories.
func (m *CategoricalMap) Len() int { return len(m.codes) }
