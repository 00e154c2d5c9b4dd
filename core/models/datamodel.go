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
	"slices"

	"github.com/recordview/recordview/core/tables"
	"github.com/recordview/recordview/datasources"
)

// DataModel is a named set of loaded record tables.
type DataModel struct {
	tables map[string]*tables.DataTable
	// insertion order
	names []string
}

// NewDataModel creates a new DataModel instance
func NewDataModel() *DataModel {
	return &DataModel{
		tables: make(map[string]*tables.DataTable),
	}
}

// AddTable adds or replaces a table.
func (dm *DataModel) AddTable(name string, table *tables.DataTable) {
	if _, ok := dm.tables[name]; !ok {
		dm.names = append(dm.names, name)
	}
	dm.tables[name] = table
}

// GetTable returns a table by name
func (dm *DataModel) GetTable(name string) *tables.DataTable {
	return dm.tables[name]
}

// GetAllTables returns all tables in the data model
func (dm *DataModel) GetAllTables() map[string]*tables.DataTable {
	return dm.tables
}

// TableNames returns the table names in insertion order.
func (dm *DataModel) TableNames() []string {
	return slices.Clone(dm.names)
}

// LoadAll loads every source of the manager into a new DataModel.
func LoadAll(m *datasources.Manager) (*DataModel, error) {
	dm := NewDataModel()
	for _, name := range m.GetSourceNames() {
		table, err := m.LoadData(name)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", name, err)
		}
		dm.AddTable(name, table)
	}
	return dm, nil
}
