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

package csvimport

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/recordview/recordview/core/columns"
	"github.com/recordview/recordview/core/tables"
)

// ColumnSource overrides how one CSV column is imported. Empty fields keep
// the inferred value.
type ColumnSource struct {
	// Key is the column key (defaults to the header name)
	Key string
	// Label is the display name of the column
	Label string
	// Type is a value type name ("number", "currency", ...); "" means infer
	Type string
	// Options lists the allowed values of a category column
	Options []string
	// Width is the preferred display width
	Width int
}

// ImportOptions configures CSV import behavior
type ImportOptions struct {
	// HasHeader indicates whether the first row contains column headers
	HasHeader bool
	// Delimiter is the field delimiter (defaults to comma)
	Delimiter rune
	// ColumnSources provides configuration for specific columns by header name
	ColumnSources map[string]ColumnSource
	// SampleSize is the number of rows to sample for type detection (default: 100)
	SampleSize int
	// CategoryLimit is the largest number of distinct values a column may
	// have to be inferred as a category (default: 8)
	CategoryLimit int
}

// DefaultOptions returns default import options
func DefaultOptions() ImportOptions {
	return ImportOptions{
		HasHeader:     true,
		Delimiter:     ',',
		ColumnSources: make(map[string]ColumnSource),
		SampleSize:    100,
		CategoryLimit: 8,
	}
}

// ImportFromFile imports a CSV file and returns a DataTable
func ImportFromFile(filepath string, options ImportOptions) (*tables.DataTable, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ImportFromReader(file, options)
}

// ImportFromReader imports CSV data from an io.Reader and returns a DataTable.
// Cells are kept as trimmed strings; the schema carries the inferred types.
func ImportFromReader(reader io.Reader, options ImportOptions) (*tables.DataTable, error) {
	headers, dataRows, err := ReadRecords(reader, options)
	if err != nil {
		return nil, err
	}
	schema, err := InferSchema(headers, dataRows, options)
	if err != nil {
		return nil, err
	}
	table := tables.NewDataTable(schema)
	table.SetRows(BuildRows(schema, dataRows))
	return table, nil
}

// ReadRecords reads all CSV records and splits off the header. Without a
// header row, columns are named column_1, column_2, ...
func ReadRecords(reader io.Reader, options ImportOptions) ([]string, [][]string, error) {
	csvReader := csv.NewReader(reader)
	if options.Delimiter != 0 {
		csvReader.Comma = options.Delimiter
	}
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("CSV file is empty")
	}

	var headers []string
	var dataRows [][]string
	if options.HasHeader {
		headers = make([]string, len(records[0]))
		for i, h := range records[0] {
			headers[i] = strings.TrimSpace(h)
		}
		dataRows = records[1:]
	} else {
		headers = make([]string, len(records[0]))
		for i := range headers {
			headers[i] = fmt.Sprintf("column_%d", i+1)
		}
		dataRows = records
	}
	return headers, dataRows, nil
}

// InferSchema builds the column schema of a CSV file. The first column is
// the primary key.
func InferSchema(headers []string, dataRows [][]string, options ImportOptions) (*columns.Schema, error) {
	sampleSize := options.SampleSize
	if sampleSize <= 0 {
		sampleSize = 100
	}
	categoryLimit := options.CategoryLimit
	if categoryLimit <= 0 {
		categoryLimit = 8
	}

	descriptors := make([]*columns.Descriptor, len(headers))
	for i, header := range headers {
		source := getColumnSource(header, options.ColumnSources)
		key := header
		if source.Key != "" {
			key = source.Key
		}

		var valueType columns.ValueType
		if source.Type != "" {
			vt, err := columns.ParseValueType(source.Type)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", header, err)
			}
			valueType = vt
		} else {
			valueType = InferType(sampleColumn(dataRows, i, sampleSize), categoryLimit, i == 0)
		}

		d := columns.NewDescriptor(key, source.Label, valueType)
		d.Width = source.Width
		d.Options = source.Options
		if d.Type == columns.TypeCategory && len(d.Options) == 0 {
			d.Options = distinct(sampleColumn(dataRows, i, len(dataRows)))
		}
		descriptors[i] = d
	}

	schema := columns.NewSchema(descriptors...)
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return schema, nil
}

// BuildRows converts CSV records into rows keyed by the schema's column keys.
// Missing trailing cells become "".
func BuildRows(schema *columns.Schema, dataRows [][]string) []tables.Row {
	keys := schema.Keys()
	rows := make([]tables.Row, 0, len(dataRows))
	for _, record := range dataRows {
		row := make(tables.Row, len(keys))
		for i, key := range keys {
			value := ""
			if i < len(record) {
				value = strings.TrimSpace(record[i])
			}
			row[key] = value
		}
		rows = append(rows, row)
	}
	return rows
}

// InferType guesses the value type of a column from sampled non-empty
// values: date, currency (a currency symbol prefix), number, category (few
// distinct values repeated) and text otherwise. Key columns are never
// categories.
func InferType(values []string, categoryLimit int, isKey bool) columns.ValueType {
	if len(values) == 0 {
		return columns.TypeText
	}

	allDates, allNumbers, anyCurrency := true, true, false
	for _, v := range values {
		if _, ok := tables.ParseDate(v); !ok {
			allDates = false
		}
		if _, ok := tables.ParseNumber(v); !ok {
			allNumbers = false
		} else if hasCurrencySymbol(v) {
			anyCurrency = true
		}
	}

	switch {
	case allDates:
		return columns.TypeDate
	case allNumbers && anyCurrency:
		return columns.TypeCurrency
	case allNumbers:
		return columns.TypeNumber
	}

	if !isKey {
		d := distinct(values)
		if len(d) <= categoryLimit && len(d) < len(values) {
			return columns.TypeCategory
		}
	}
	return columns.TypeText
}

func hasCurrencySymbol(s string) bool {
	return strings.ContainsAny(s, "$€£¥₹")
}

// sampleColumn returns the first n non-empty values of column i.
func sampleColumn(dataRows [][]string, i, n int) []string {
	var values []string
	for _, record := range dataRows {
		if len(values) >= n {
			break
		}
		if i >= len(record) {
			continue
		}
		if v := strings.TrimSpace(record[i]); v != "" {
			values = append(values, v)
		}
	}
	return values
}

// distinct returns the distinct values in first-occurrence order.
func distinct(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// getColumnSource returns the config for a column, or an empty config if not specified
func getColumnSource(header string, configs map[string]ColumnSource) ColumnSource {
	if configs == nil {
		return ColumnSource{}
	}
	if config, ok := configs[header]; ok {
		return config
	}
	return ColumnSource{}
}
