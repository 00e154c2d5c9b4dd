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

package demo

import (
	"fmt"
	"time"

	"github.com/recordview/recordview/core/columns"
	"github.com/recordview/recordview/core/tables"
	"github.com/recordview/recordview/datasources"
)

// Performance test configuration
const (
	PerfNumLines     = 50_000
	PerfNumOrders    = 8_000 // about six lines per order
	PerfNumSuppliers = 6
)

var (
	perfSuppliers = []string{"Acme Metals", "Borealis Plastics", "Castor Tools", "Delta Fasteners", "Everline Paper", "Fjord Logistics"}
	perfItems     = []string{"Hex Bolt M8", "Flat Washer", "Lock Nut", "Cable Tie", "Shrink Tube", "Copper Wire", "Pallet Wrap", "Label Roll"}
	perfStatuses  = []string{"open", "received", "partial", "cancelled"}
	perfBaseDate  = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
)

// CreatePerfPurchaseLinesTable creates a deterministic purchase line table
// with n rows for scalability testing.
func CreatePerfPurchaseLinesTable(n int) *tables.DataTable {
	schema := columns.NewSchema(
		columns.NewDescriptor("line_id", "Line", columns.TypeText),
		columns.NewDescriptor("po_number", "PO Number", columns.TypeText),
		columns.NewDescriptor("supplier", "Supplier", columns.TypeCategory),
		columns.NewDescriptor("item", "Item", columns.TypeText),
		columns.NewDescriptor("qty", "Qty", columns.TypeNumber),
		columns.NewDescriptor("unit_cost", "Unit Cost", columns.TypeCurrency),
		columns.NewDescriptor("status", "Status", columns.TypeCategory),
		columns.NewDescriptor("due", "Due", columns.TypeDate),
	)
	schema.Get("supplier").Options = perfSuppliers[:PerfNumSuppliers]
	schema.Get("status").Options = perfStatuses

	rows := make([]tables.Row, n)
	for i := range rows {
		row := tables.Row{
			"line_id":   fmt.Sprintf("L%06d", i+1),
			"po_number": fmt.Sprintf("PO-%05d", i%PerfNumOrders+1),
			"supplier":  perfSuppliers[(i/7)%PerfNumSuppliers],
			"item":      perfItems[i%len(perfItems)],
			"qty":       float64(1 + (i*37)%500),
			"unit_cost": float64(5+(i*13)%2000) / 100,
			"status":    perfStatuses[i%len(perfStatuses)],
			"due":       perfBaseDate.AddDate(0, 0, (i*3)%365).Format("2006-01-02"),
		}
		// Every eleventh line has no quantity yet.
		if i%11 == 10 {
			row["qty"] = nil
		}
		rows[i] = row
	}

	t := tables.NewDataTable(schema)
	t.SetRows(rows)
	return t
}

// RegisterPerfSources registers the generated performance tables.
func RegisterPerfSources(m *datasources.Manager) error {
	return m.RegisterTable(datasources.DataSource{
		Name:        "purchase_lines_perf",
		Title:       "Purchase Lines (generated)",
		Description: fmt.Sprintf("%d generated purchase order lines for trying filters, sorts and grouping at scale.", PerfNumLines),
		Category:    "Performance",
	}, CreatePerfPurchaseLinesTable(PerfNumLines))
}
