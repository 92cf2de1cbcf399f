// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

package artifacts

import (
	"bytes"
	"embed"
	"fmt"
	"sync"

	"github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Schema names, one per artifact role.
const (
	SchemaClassifier = "classifier"
	SchemaMinMax     = "minmax"
	SchemaStandard   = "standard"
)

var (
	schemaOnce sync.Once
	schemas    map[string]*jsonschema.Schema
	schemaErr  error
)

func compileSchemas() {
	compiler := jsonschema.NewCompiler()
	names := []string{SchemaClassifier, SchemaMinMax, SchemaStandard}
	for _, name := range names {
		raw, err := schemaFS.ReadFile("schemas/" + name + ".json")
		if err != nil {
			schemaErr = fmt.Errorf("read schema %s: %w", name, err)
			return
		}
		if err := compiler.AddResource(name+".json", bytes.NewReader(raw)); err != nil {
			schemaErr = fmt.Errorf("load schema %s: %w", name, err)
			return
		}
	}
	schemas = make(map[string]*jsonschema.Schema, len(names))
	for _, name := range names {
		s, err := compiler.Compile(name + ".json")
		if err != nil {
			schemaErr = fmt.Errorf("compile schema %s: %w", name, err)
			return
		}
		schemas[name] = s
	}
}

// Validate checks a raw artifact document against the named schema.
func Validate(schema string, data []byte) error {
	schemaOnce.Do(compileSchemas)
	if schemaErr != nil {
		return schemaErr
	}
	s, ok := schemas[schema]
	if !ok {
		return fmt.Errorf("unknown schema %q", schema)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("does not match %s schema: %w", schema, err)
	}
	return nil
}
