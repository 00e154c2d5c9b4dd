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

// Package aggregates computes the footer reducers of a record table over
// the rows currently on screen.
package aggregates

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/recordview/recordview/core/columns"
	"github.com/recordview/recordview/core/query"
	"github.com/recordview/recordview/core/tables"
)

// Placeholder is displayed when a reducer has no input to work on.
const Placeholder = "—"

// Options controls display formatting.
type Options struct {
	CurrencySymbol string
}

// DefaultOptions returns the default display options.
func DefaultOptions() Options {
	return Options{CurrencySymbol: "$"}
}

// Result is the footer value of one column.
type Result struct {
	Aggregate query.AggregateType
	Value     string
}

// columnValues holds the values of one column split the way the reducers
// need them.
type columnValues struct {
	count int       // all rows
	vals  []string  // non-empty values
	nums  []float64 // vals that parse as numbers
}

func collect(column string, rows []tables.Row) columnValues {
	cv := columnValues{count: len(rows)}
	for _, r := range rows {
		if r.IsEmpty(column) {
			continue
		}
		cv.vals = append(cv.vals, r.String(column))
		if f, ok := tables.ParseNumber(r[column]); ok {
			cv.nums = append(cv.nums, f)
		}
	}
	return cv
}

// Compute applies one reducer to column over rows and returns the display
// value. AggNone returns "".
func Compute(agg query.AggregateType, column *columns.Descriptor, rows []tables.Row, opts Options) string {
	if agg == query.AggNone || column == nil {
		return ""
	}
	cv := collect(column.Key, rows)

	switch agg {
	case query.AggCount:
		return fmt.Sprintf("%d", cv.count)
	case query.AggCountValues:
		return fmt.Sprintf("%d", len(cv.vals))
	case query.AggCountEmpty:
		return fmt.Sprintf("%d", cv.count-len(cv.vals))
	case query.AggUnique:
		seen := make(map[string]struct{}, len(cv.vals))
		for _, v := range cv.vals {
			seen[v] = struct{}{}
		}
		return fmt.Sprintf("%d", len(seen))
	case query.AggPercentFilled, query.AggPercentEmpty:
		if cv.count == 0 {
			return Placeholder
		}
		filled := float64(len(cv.vals)) / float64(cv.count) * 100
		if agg == query.AggPercentEmpty {
			return formatNumber(100-filled) + "%"
		}
		return formatNumber(filled) + "%"
	}

	if !agg.IsNumeric() {
		return Placeholder
	}
	v, ok := reduceNumeric(agg, cv.nums)
	if !ok {
		return Placeholder
	}
	if column.Type == columns.TypeCurrency {
		return formatCurrency(v, opts.CurrencySymbol)
	}
	return formatNumber(v)
}

// reduceNumeric applies a numeric reducer; ok is false when nums is empty.
func reduceNumeric(agg query.AggregateType, nums []float64) (float64, bool) {
	if len(nums) == 0 {
		return 0, false
	}
	switch agg {
	case query.AggSum:
		return sum(nums), true
	case query.AggAvg:
		return sum(nums) / float64(len(nums)), true
	case query.AggMin:
		return slices.Min(nums), true
	case query.AggMax:
		return slices.Max(nums), true
	case query.AggRange:
		return slices.Max(nums) - slices.Min(nums), true
	case query.AggMedian:
		return median(nums), true
	}
	return 0, false
}

func sum(nums []float64) float64 {
	total := 0.0
	for _, n := range nums {
		total += n
	}
	return total
}

func median(nums []float64) float64 {
	sorted := slices.Clone(nums)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// Summary computes the selected reducers for the visible columns. Columns
// without a selection, or with AggNone, are omitted.
func Summary(rows []tables.Row, schema *columns.Schema, visible []string, selection map[string]query.AggregateType, opts Options) map[string]Result {
	out := make(map[string]Result)
	for _, key := range visible {
		agg, ok := selection[key]
		if !ok || agg == query.AggNone {
			continue
		}
		col := schema.Get(key)
		if col == nil {
			continue
		}
		out[key] = Result{Aggregate: agg, Value: Compute(agg, col, rows, opts)}
	}
	return out
}

// --- Formatting helpers ---

// formatNumber shows integers without decimals and everything else with two
// decimal places.
func formatNumber(v float64) string {
	v = roundTo(v, 2)
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

// formatCurrency prefixes the currency symbol and adds thousands separators.
func formatCurrency(v float64, symbol string) string {
	v = roundTo(v, 2)
	format := "#,###.##"
	if v == math.Trunc(v) {
		format = "#,###."
	}
	s := humanize.FormatFloat(format, math.Abs(v))
	if v < 0 {
		return "-" + symbol + s
	}
	return symbol + s
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	r := math.Round(v*p) / p
	if r == 0 {
		return 0 // normalize -0
	}
	return r
}

// Describe returns "symbol value" for display in a footer cell.
func Describe(r Result) string {
	return strings.TrimSpace(query.AggregateSymbol(r.Aggregate) + " " + r.Value)
}
