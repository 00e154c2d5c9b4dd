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

package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/recordview/recordview/core/columns"
	"github.com/recordview/recordview/core/tables"
	"github.com/recordview/recordview/datasources"
)

// System table name constants
const (
	ColumnsTableName = "_columns"
)

// columnsSchema is the schema of the _columns table.
func columnsSchema() *columns.Schema {
	var valueTypes []string
	for _, vt := range []columns.ValueType{
		columns.TypeText, columns.TypeNumber, columns.TypeCurrency,
		columns.TypeDate, columns.TypeCategory,
	} {
		valueTypes = append(valueTypes, vt.String())
	}

	dataType := columns.NewDescriptor("data_type", "Data Type", columns.TypeCategory)
	dataType.Options = valueTypes
	return columns.NewSchema(
		columns.NewDescriptor("ref", "Column", columns.TypeText),
		columns.NewDescriptor("table_name", "Table", columns.TypeCategory),
		columns.NewDescriptor("column_key", "Key", columns.TypeText),
		columns.NewDescriptor("label", "Label", columns.TypeText),
		dataType,
		columns.NewDescriptor("options", "Options", columns.TypeText),
		columns.NewDescriptor("is_key", "Is Key", columns.TypeCategory),
		columns.NewDescriptor("filled", "Filled", columns.TypeNumber),
		columns.NewDescriptor("row_count", "Row Count", columns.TypeNumber),
		columns.NewDescriptor("position", "Position", columns.TypeNumber),
	)
}

// BuildColumnsTable creates a system table containing metadata about all
// columns in the DataModel. Each row represents one column from any table.
// Tables keep their insertion order, columns their schema order.
func BuildColumnsTable(dm *DataModel) *tables.DataTable {
	schema := columnsSchema()

	var rows []tables.Row
	var tableNames []string
	for _, tableName := range dm.TableNames() {
		if isSystemTable(tableName) {
			continue
		}
		tableNames = append(tableNames, tableName)
		table := dm.GetTable(tableName)
		for position, col := range table.Schema().Columns {
			filled := 0
			for _, r := range table.Rows() {
				if !r.IsEmpty(col.Key) {
					filled++
				}
			}
			isKey := "false"
			if position == 0 {
				isKey = "true"
			}
			rows = append(rows, tables.Row{
				"ref":        fmt.Sprintf("%s.%s", tableName, col.Key),
				"table_name": tableName,
				"column_key": col.Key,
				"label":      col.Label,
				"data_type":  col.Type.String(),
				"options":    strings.Join(col.Options, ", "),
				"is_key":     isKey,
				"filled":     strconv.Itoa(filled),
				"row_count":  strconv.Itoa(table.Length()),
				"position":   strconv.Itoa(position + 1),
			})
		}
	}
	schema.Get("table_name").Options = tableNames
	schema.Get("is_key").Options = []string{"true", "false"}

	columnsTable := tables.NewDataTable(schema)
	columnsTable.SetRows(rows)
	return columnsTable
}

// isSystemTable returns true if the table name is a system table
func isSystemTable(name string) bool {
	return strings.HasPrefix(name, "_")
}

// AddSystemTables loads every source of the manager and registers the
// system tables with it. Call it after all user sources are added.
func AddSystemTables(m *datasources.Manager) error {
	dm, err := LoadAll(m)
	if err != nil {
		return err
	}
	return m.RegisterTable(datasources.DataSource{
		Name:        ColumnsTableName,
		Title:       "Columns",
		Description: "Every column of every dataset with its type and fill rate",
		Category:    "System",
	}, BuildColumnsTable(dm))
}
