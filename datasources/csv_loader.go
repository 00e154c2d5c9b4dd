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

	"github.com/recordview/recordview/core/columns"
	"github.com/recordview/recordview/core/csvimport"
	"github.com/recordview/recordview/core/tables"
)

// CsvLoader implements DataSourceLoader for CSV files. Value types are
// inferred from the data.
//
// Required config keys:
//   - file_path: Path to the CSV file
//
// Optional config keys:
//   - has_header: "true" or "false" (default: "true")
//   - delimiter: Field delimiter (default: ",")
type CsvLoader struct{}

// NewCsvLoader creates a new CSV loader.
func NewCsvLoader() *CsvLoader {
	return &CsvLoader{}
}

// SourceType returns "csv".
func (l *CsvLoader) SourceType() string {
	return "csv"
}

func (l *CsvLoader) options(config map[string]string) csvimport.ImportOptions {
	opts := csvimport.DefaultOptions()
	opts.HasHeader = configBool(config, "has_header", true)
	if d := config["delimiter"]; d != "" {
		opts.Delimiter = []rune(d)[0]
	}
	return opts
}

func (l *CsvLoader) read(config map[string]string) ([]string, [][]string, error) {
	filePath := config["file_path"]
	if filePath == "" {
		return nil, nil, fmt.Errorf("file_path is required")
	}
	file, err := os.Open(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()
	return csvimport.ReadRecords(file, l.options(config))
}

// DiscoverSchema reads the file and infers the column types.
func (l *CsvLoader) DiscoverSchema(config map[string]string) (*columns.Schema, error) {
	headers, records, err := l.read(config)
	if err != nil {
		return nil, err
	}
	return csvimport.InferSchema(headers, records, l.options(config))
}

// Load loads a CSV file and returns a DataTable.
func (l *CsvLoader) Load(config map[string]string, schema *columns.Schema) (*tables.DataTable, error) {
	_, records, err := l.read(config)
	if err != nil {
		return nil, err
	}
	table := tables.NewDataTable(schema)
	table.SetRows(csvimport.BuildRows(schema, records))
	return table, nil
}
