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

package aggregates

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/recordview/recordview/core/columns"
	"github.com/recordview/recordview/core/query"
	"github.com/recordview/recordview/core/tables"
)

func qtyRows() []tables.Row {
	return []tables.Row{
		{"id": "A", "qty": "5"},
		{"id": "B", "qty": ""},
		{"id": "C", "qty": "2"},
	}
}

func TestCompute(t *testing.T) {
	qty := columns.NewDescriptor("qty", "Qty", columns.TypeNumber)
	rows := qtyRows()

	tests := []struct {
		agg  query.AggregateType
		want string
	}{
		{query.AggNone, ""},
		{query.AggCount, "3"},
		{query.AggCountValues, "2"},
		{query.AggCountEmpty, "1"},
		{query.AggUnique, "2"},
		{query.AggSum, "7"},
		{query.AggAvg, "3.50"},
		{query.AggMin, "2"},
		{query.AggMax, "5"},
		{query.AggRange, "3"},
		{query.AggMedian, "3.50"},
		{query.AggPercentFilled, "66.67%"},
		{query.AggPercentEmpty, "33.33%"},
	}
	for _, tt := range tests {
		t.Run(string(tt.agg), func(t *testing.T) {
			if got := Compute(tt.agg, qty, rows, DefaultOptions()); got != tt.want {
				t.Errorf("Compute(%s) = %q, want %q", tt.agg, got, tt.want)
			}
		})
	}
}

func TestComputeNoInput(t *testing.T) {
	qty := columns.NewDescriptor("qty", "Qty", columns.TypeNumber)
	opts := DefaultOptions()

	// No rows at all.
	for _, agg := range query.AllAggregates() {
		got := Compute(agg, qty, nil, opts)
		switch agg {
		case query.AggCount, query.AggCountValues, query.AggCountEmpty, query.AggUnique:
			if got != "0" {
				t.Errorf("Compute(%s, no rows) = %q, want 0", agg, got)
			}
		default:
			if got != Placeholder {
				t.Errorf("Compute(%s, no rows) = %q, want placeholder", agg, got)
			}
		}
	}

	// Rows but nothing numeric.
	rows := []tables.Row{{"qty": "n/a"}, {"qty": ""}}
	for _, agg := range []query.AggregateType{query.AggSum, query.AggAvg, query.AggMin, query.AggMax, query.AggRange, query.AggMedian} {
		if got := Compute(agg, qty, rows, opts); got != Placeholder {
			t.Errorf("Compute(%s, non-numeric) = %q, want placeholder", agg, got)
		}
	}
	if got := Compute(query.AggCountValues, qty, rows, opts); got != "1" {
		t.Errorf("count_values counts non-numeric values: got %q", got)
	}
}

func TestComputeIgnoresNaNAndInfText(t *testing.T) {
	opts := DefaultOptions()

	name := columns.NewDescriptor("name", "Name", columns.TypeText)
	names := []tables.Row{{"name": "Nan"}, {"name": "Bob"}}
	if got := Compute(query.AggSum, name, names, opts); got != Placeholder {
		t.Errorf("sum over names = %q, want placeholder", got)
	}
	if got := Compute(query.AggCountValues, name, names, opts); got != "2" {
		t.Errorf("count_values over names = %q, want 2", got)
	}

	qty := columns.NewDescriptor("qty", "Qty", columns.TypeNumber)
	rows := []tables.Row{{"qty": "5"}, {"qty": "Infinity"}, {"qty": "2"}, {"qty": "-inf"}}
	for agg, want := range map[query.AggregateType]string{
		query.AggSum:   "7",
		query.AggMax:   "5",
		query.AggMin:   "2",
		query.AggRange: "3",
	} {
		if got := Compute(agg, qty, rows, opts); got != want {
			t.Errorf("Compute(%s) with infinities = %q, want %q", agg, got, want)
		}
	}

	price := columns.NewDescriptor("price", "Price", columns.TypeCurrency)
	if got := Compute(query.AggSum, price, []tables.Row{{"price": "inf"}}, opts); got != Placeholder {
		t.Errorf("currency sum over inf = %q, want placeholder", got)
	}
}

func TestComputeMedianOdd(t *testing.T) {
	col := columns.NewDescriptor("v", "", columns.TypeNumber)
	rows := []tables.Row{{"v": 9}, {"v": 1}, {"v": 4}}
	if got := Compute(query.AggMedian, col, rows, DefaultOptions()); got != "4" {
		t.Errorf("median = %q, want 4", got)
	}
}

func TestComputeCurrency(t *testing.T) {
	price := columns.NewDescriptor("price", "Price", columns.TypeCurrency)
	rows := []tables.Row{{"price": "$1,200.50"}, {"price": "$3,000"}, {"price": "bad"}}

	tests := []struct {
		agg  query.AggregateType
		opts Options
		want string
	}{
		{query.AggSum, DefaultOptions(), "$4,200.50"},
		{query.AggMax, DefaultOptions(), "$3,000"},
		{query.AggMin, Options{CurrencySymbol: "€"}, "€1,200.50"},
		{query.AggCount, DefaultOptions(), "3"},
		{query.AggUnique, DefaultOptions(), "3"},
	}
	for _, tt := range tests {
		if got := Compute(tt.agg, price, rows, tt.opts); got != tt.want {
			t.Errorf("Compute(%s) = %q, want %q", tt.agg, got, tt.want)
		}
	}

	neg := []tables.Row{{"price": "-5"}, {"price": "2"}}
	if got := Compute(query.AggSum, price, neg, DefaultOptions()); got != "-$3" {
		t.Errorf("negative sum = %q, want -$3", got)
	}
}

func TestCountConsistency(t *testing.T) {
	rowSets := [][]tables.Row{
		nil,
		qtyRows(),
		{{"qty": nil}, {"qty": ""}, {"other": 1}},
		{{"qty": 0}, {"qty": "0"}, {"qty": " "}},
	}
	col := columns.NewDescriptor("qty", "", columns.TypeNumber)
	opts := DefaultOptions()
	for i, rows := range rowSets {
		count := Compute(query.AggCount, col, rows, opts)
		values := Compute(query.AggCountValues, col, rows, opts)
		empty := Compute(query.AggCountEmpty, col, rows, opts)
		c, _ := tables.ParseNumber(count)
		v, _ := tables.ParseNumber(values)
		e, _ := tables.ParseNumber(empty)
		if v+e != c {
			t.Errorf("row set %d: count_values %s + count_empty %s != count %s", i, values, empty, count)
		}
	}
}

func TestSummary(t *testing.T) {
	schema := columns.NewSchema(
		columns.NewDescriptor("id", "", columns.TypeText),
		columns.NewDescriptor("qty", "", columns.TypeNumber),
	)
	selection := map[string]query.AggregateType{
		"id":      query.AggCount,
		"qty":     query.AggSum,
		"missing": query.AggSum,
	}
	got := Summary(qtyRows(), schema, []string{"qty", "missing"}, selection, DefaultOptions())
	want := map[string]Result{"qty": {Aggregate: query.AggSum, Value: "7"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Summary() mismatch (-want +got):\n%s", diff)
	}
	if d := Describe(got["qty"]); d != "Σ 7" {
		t.Errorf("Describe() = %q", d)
	}
}
