/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Recordview Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package datasources provides a unified interface for loading record
// tables from various sources (CSV, JSON, in-memory) with support for
// per-column annotations.
package datasources

import (
	"fmt"

	"github.com/recordview/recordview/core/columns"
	"github.com/recordview/recordview/core/tables"
)

// ColumnAnnotation overrides what a loader discovered about one column.
// Empty fields keep the discovered value.
type ColumnAnnotation struct {
	Key     string   `yaml:"key"`
	Label   string   `yaml:"label,omitempty"`
	Type    string   `yaml:"type,omitempty"`
	Options []string `yaml:"options,omitempty"`
	Width   int      `yaml:"width,omitempty"`
}

// DataSource describes one dataset: where its rows come from and how its
// columns are presented.
type DataSource struct {
	Name        string             `yaml:"name"`
	Title       string             `yaml:"title,omitempty"`
	Description string             `yaml:"description,omitempty"`
	Category    string             `yaml:"category,omitempty"`
	SourceType  string             `yaml:"source_type"`
	Config      map[string]string  `yaml:"config,omitempty"`
	Columns     []ColumnAnnotation `yaml:"columns,omitempty"`
}

// DisplayTitle returns the title, or the name when no title is set.
func (s *DataSource) DisplayTitle() string {
	if s.Title != "" {
		return s.Title
	}
	return s.Name
}

// DataSourceLoader is the interface that all data source loaders must implement.
// Built-in loaders handle "csv" and "json".
type DataSourceLoader interface {
	// SourceType returns the type identifier used in config (e.g., "csv", "json").
	SourceType() string

	// DiscoverSchema returns the schema discovered from the data source.
	// This is called first to determine column keys and value types.
	DiscoverSchema(config map[string]string) (*columns.Schema, error)

	// Load retrieves the rows and returns a DataTable using the given
	// (annotated) schema.
	Load(config map[string]string, schema *columns.Schema) (*tables.DataTable, error)
}

// EnrichSchema applies annotations to a discovered schema and returns a new
// schema. Annotations for unknown columns are an error.
func EnrichSchema(schema *columns.Schema, annotations []ColumnAnnotation) (*columns.Schema, error) {
	byKey := make(map[string]ColumnAnnotation, len(annotations))
	for _, ann := range annotations {
		if schema.Get(ann.Key) == nil {
			return nil, fmt.Errorf("annotation for unknown column %q", ann.Key)
		}
		byKey[ann.Key] = ann
	}

	enriched := make([]*columns.Descriptor, len(schema.Columns))
	for i, col := range schema.Columns {
		d := *col
		if ann, ok := byKey[col.Key]; ok {
			if ann.Label != "" {
				d.Label = ann.Label
			}
			if ann.Type != "" {
				vt, err := columns.ParseValueType(ann.Type)
				if err != nil {
					return nil, fmt.Errorf("column %q: %w", col.Key, err)
				}
				d.Type = vt
			}
			if len(ann.Options) > 0 {
				d.Options = ann.Options
			}
			if ann.Width > 0 {
				d.Width = ann.Width
			}
		}
		enriched[i] = &d
	}
	return columns.NewSchema(enriched...), nil
}

func configBool(config map[string]string, key string, def bool) bool {
	switch config[key] {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return def
}
