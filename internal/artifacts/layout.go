// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

// Package artifacts finds, validates and loads fitted model exports.
//
// Each domain ships three JSON documents: a classifier and the two scalers
// applied before it. Documents are checked against embedded JSON schemas,
// decoded, and bound to the domain's FeatureSpec. A missing or broken file
// never stops start-up; it is recorded in the domain's Status and the
// prediction service runs degraded or reports the model as unavailable.
//
// Artifacts can also be packed into versioned bundles (see Store), which the
// server prefers over the directory layout when a store is configured.
package artifacts

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tomtom215/agrisense/internal/predict"
)

// Layout describes where a domain's files live relative to its directory.
type Layout struct {
	Domain string

	// SearchDir is walked under the models root to find the directory
	// holding the classifier.
	SearchDir string

	// Subdir holds the three files, relative to the resolved directory.
	Subdir string

	Model    string
	MinMax   string
	Standard string
}

// CropLayout keeps all three files side by side.
var CropLayout = Layout{
	Domain:    predict.DomainCrop,
	SearchDir: "crop",
	Model:     "model.json",
	MinMax:    "minmaxscaler.json",
	Standard:  "standardscaler.json",
}

// FertilizerLayout keeps its files in a model/ subdirectory.
var FertilizerLayout = Layout{
	Domain:    predict.DomainFertilizer,
	SearchDir: "fertilizer",
	Subdir:    "model",
	Model:     "fertmodel.json",
	MinMax:    "fertminmaxscaler.json",
	Standard:  "fertstandardscaler.json",
}

// LayoutFor returns the layout registered for a domain name.
func LayoutFor(domain string) (Layout, bool) {
	switch domain {
	case predict.DomainCrop:
		return CropLayout, true
	case predict.DomainFertilizer:
		return FertilizerLayout, true
	default:
		return Layout{}, false
	}
}

// Paths are the absolute locations of a domain's files.
type Paths struct {
	Dir      string
	Model    string
	MinMax   string
	Standard string
}

// PathsIn joins the layout onto dir.
func (l Layout) PathsIn(dir string) Paths {
	base := filepath.Join(dir, l.Subdir)
	return Paths{
		Dir:      dir,
		Model:    filepath.Join(base, l.Model),
		MinMax:   filepath.Join(base, l.MinMax),
		Standard: filepath.Join(base, l.Standard),
	}
}

// Resolve picks the directory for a domain. An explicit directory wins.
// Otherwise <root>/<SearchDir> is walked in lexical order and the first
// directory containing the classifier is used. If none does, the
// conventional <root>/<SearchDir> is returned so Status can report what is
// missing.
func Resolve(root, explicit string, layout Layout) string {
	if explicit != "" {
		return explicit
	}
	searchRoot := filepath.Join(root, layout.SearchDir)

	found := ""
	_ = filepath.WalkDir(searchRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal.
			if d != nil && d.IsDir() && path != searchRoot {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if fileExists(layout.PathsIn(path).Model) {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if found != "" {
		return found
	}
	return searchRoot
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
