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

package tables

import (
	"fmt"
	"testing"

	"github.com/recordview/recordview/core/columns"
	"github.com/recordview/recordview/core/query"
)

const benchRows = 100_000

func benchTable() ([]Row, *columns.Schema) {
	schema := columns.NewSchema(
		columns.NewDescriptor("id", "ID", columns.TypeText),
		columns.NewDescriptor("status", "Status", columns.TypeCategory),
		columns.NewDescriptor("amount", "Amount", columns.TypeCurrency),
		columns.NewDescriptor("due", "Due", columns.TypeDate),
	)
	statuses := []string{"open", "received", "partial", "cancelled"}
	rows := make([]Row, benchRows)
	for i := range rows {
		rows[i] = Row{
			"id":     fmt.Sprintf("L%06d", i),
			"status": statuses[i%len(statuses)],
			"amount": fmt.Sprintf("$%d.%02d", (i*37)%5000, i%100),
			"due":    fmt.Sprintf("2024-%02d-%02d", i%12+1, i%28+1),
		}
	}
	return rows, schema
}

func BenchmarkFilter_Simple_100K(b *testing.B) {
	rows, schema := benchTable()
	spec := FilterSpec{Simple: map[string]string{"status": "rec"}}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Filter(rows, schema, spec)
	}
}

func BenchmarkFilter_Advanced_100K(b *testing.B) {
	rows, schema := benchTable()
	spec := FilterSpec{Advanced: []query.AdvancedFilter{{Column: "amount", Operator: query.OpGt, Value: "2500"}}}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Filter(rows, schema, spec)
	}
}

func BenchmarkFilter_Search_100K(b *testing.B) {
	rows, schema := benchTable()
	spec := FilterSpec{Search: "partial"}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Filter(rows, schema, spec)
	}
}

func BenchmarkSort_TwoKeys_100K(b *testing.B) {
	rows, schema := benchTable()
	desc := query.NewSortKey("amount")
	desc.Direction = query.Desc
	keys := []query.SortKey{query.NewSortKey("status"), desc}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Sort(rows, schema, keys)
	}
}

func BenchmarkSort_Date_100K(b *testing.B) {
	rows, schema := benchTable()
	keys := []query.SortKey{query.NewSortKey("due")}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Sort(rows, schema, keys)
	}
}
