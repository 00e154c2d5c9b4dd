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

package datasources

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/recordview/recordview/core/columns"
	"github.com/recordview/recordview/core/csvimport"
	"github.com/recordview/recordview/core/tables"
)

// JSONLoader implements DataSourceLoader for files holding a JSON array of
// flat objects. Each object is one record; nested values are kept as their
// JSON text.
//
// Required config keys:
//   - file_path: Path to the JSON file
//
// Optional config keys:
//   - primary_key: Field used as the first (key) column
//   - column_order: Comma-separated field order; remaining fields follow
//     in name order
type JSONLoader struct{}

// NewJSONLoader creates a new JSON loader.
func NewJSONLoader() *JSONLoader {
	return &JSONLoader{}
}

// SourceType returns "json".
func (l *JSONLoader) SourceType() string {
	return "json"
}

// readRecords parses the file into one string map per record, plus the
// column keys in display order.
func (l *JSONLoader) readRecords(config map[string]string) ([]string, []map[string]string, error) {
	filePath := config["file_path"]
	if filePath == "" {
		return nil, nil, fmt.Errorf("file_path is required")
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read JSON file: %w", err)
	}
	return ParseJSONRecords(data, config)
}

// ParseJSONRecords decodes a JSON array of objects.
func ParseJSONRecords(data []byte, config map[string]string) ([]string, []map[string]string, error) {
	var list structpb.ListValue
	if err := protojson.Unmarshal(data, &list); err != nil {
		return nil, nil, fmt.Errorf("failed to parse JSON records: %w", err)
	}

	seen := make(map[string]bool)
	records := make([]map[string]string, 0, len(list.GetValues()))
	for i, v := range list.GetValues() {
		obj := v.GetStructValue()
		if obj == nil {
			return nil, nil, fmt.Errorf("record %d is not an object", i)
		}
		rec := make(map[string]string, len(obj.GetFields()))
		for field, fv := range obj.GetFields() {
			rec[field] = stringValue(fv)
			seen[field] = true
		}
		records = append(records, rec)
	}
	if len(seen) == 0 {
		return nil, nil, fmt.Errorf("JSON file has no fields")
	}
	return fieldOrder(seen, config), records, nil
}

func fieldOrder(seen map[string]bool, config map[string]string) []string {
	var keys []string
	add := func(k string) {
		k = strings.TrimSpace(k)
		if seen[k] && !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}
	add(config["primary_key"])
	if order := config["column_order"]; order != "" {
		for _, k := range strings.Split(order, ",") {
			add(k)
		}
	}
	rest := make([]string, 0, len(seen))
	for k := range seen {
		rest = append(rest, k)
	}
	slices.Sort(rest)
	for _, k := range rest {
		add(k)
	}
	return keys
}

func stringValue(v *structpb.Value) string {
	switch k := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return ""
	case *structpb.Value_StringValue:
		return strings.TrimSpace(k.StringValue)
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(k.NumberValue, 'f', -1, 64)
	case *structpb.Value_BoolValue:
		return strconv.FormatBool(k.BoolValue)
	default:
		b, err := protojson.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// asRecords lays the records out as CSV-style rows in key order so the CSV
// type inference can be shared.
func asRecords(keys []string, records []map[string]string) [][]string {
	out := make([][]string, len(records))
	for i, rec := range records {
		row := make([]string, len(keys))
		for j, k := range keys {
			row[j] = rec[k]
		}
		out[i] = row
	}
	return out
}

// DiscoverSchema reads the file and infers the column types.
func (l *JSONLoader) DiscoverSchema(config map[string]string) (*columns.Schema, error) {
	keys, records, err := l.readRecords(config)
	if err != nil {
		return nil, err
	}
	return csvimport.InferSchema(keys, asRecords(keys, records), csvimport.DefaultOptions())
}

// Load loads a JSON file and returns a DataTable.
func (l *JSONLoader) Load(config map[string]string, schema *columns.Schema) (*tables.DataTable, error) {
	_, records, err := l.readRecords(config)
	if err != nil {
		return nil, err
	}
	rows := make([]tables.Row, len(records))
	for i, rec := range records {
		row := make(tables.Row, len(schema.Columns))
		for _, key := range schema.Keys() {
			row[key] = rec[key]
		}
		rows[i] = row
	}
	table := tables.NewDataTable(schema)
	table.SetRows(rows)
	return table, nil
}
