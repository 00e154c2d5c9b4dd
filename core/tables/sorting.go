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
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/recordview/recordview/core/columns"
	"github.com/recordview/recordview/core/query"
)

// sortableColumn holds a sort key with its compare type resolved against
// the schema.
type sortableColumn struct {
	key         query.SortKey
	compareType query.CompareType
}

func resolveSortKeys(schema *columns.Schema, keys []query.SortKey) []sortableColumn {
	cols := make([]sortableColumn, 0, len(keys))
	for _, k := range keys {
		if k.Column == "" {
			continue
		}
		cols = append(cols, sortableColumn{
			key:         k,
			compareType: k.Resolve(schema.TypeOf(k.Column)),
		})
	}
	return cols
}

// Sort returns a stably sorted copy of rows ordered by keys in priority
// order. Rows that tie on every key keep their original relative order.
func Sort(rows []Row, schema *columns.Schema, keys []query.SortKey) []Row {
	out := make([]Row, len(rows))
	copy(out, rows)

	cols := resolveSortKeys(schema, keys)
	if len(cols) == 0 {
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		return compareRows(out[i], out[j], cols) < 0
	})
	return out
}

// compareRows compares two rows using multi-column sort order
// Returns negative if a < b, zero if equal, positive if a > b
func compareRows(a, b Row, cols []sortableColumn) int {
	for _, sc := range cols {
		if c := compareCells(a, b, sc); c != 0 {
			return c
		}
	}
	return 0
}

// compareCells compares one column of two rows. Null placement is applied
// before the typed comparison and is not affected by the direction.
func compareCells(a, b Row, sc sortableColumn) int {
	col := sc.key.Column
	emptyA, emptyB := a.IsEmpty(col), b.IsEmpty(col)
	switch {
	case emptyA && emptyB:
		return 0
	case emptyA || emptyB:
		c := 1
		if sc.key.NullPlacement == query.NullsFirst {
			c = -1
		}
		if emptyB {
			c = -c
		}
		return c
	}

	c := CompareValues(a[col], b[col], sc.compareType)
	if sc.key.Direction == query.Desc {
		return -c
	}
	return c
}

// CompareValues compares two non-empty values with the given compare type.
// Numeric and date values that do not parse compare as equal.
func CompareValues(a, b any, ct query.CompareType) int {
	switch ct {
	case query.CompareNumeric:
		x, okX := ParseNumber(a)
		y, okY := ParseNumber(b)
		if !okX || !okY {
			return 0
		}
		return cmpFloat(x, y)

	case query.CompareDate:
		x, okX := ParseDate(a)
		y, okY := ParseDate(b)
		if !okX || !okY {
			return 0
		}
		return x.Compare(y)

	case query.CompareLength:
		x := utf8.RuneCountInString(Stringify(a))
		y := utf8.RuneCountInString(Stringify(b))
		if x < y {
			return -1
		}
		if x > y {
			return 1
		}
		return 0

	default:
		return strings.Compare(fold(Stringify(a)), fold(Stringify(b)))
	}
}

func cmpFloat(a, b float64) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
