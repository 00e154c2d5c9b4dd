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

// Package grouping flattens sorted rows into the render list of a record
// table: group headers, subgroup headers and data rows.
package grouping

import (
	"github.com/recordview/recordview/core/tables"
)

// EmptyLabel is shown for the bucket holding null and empty values.
const EmptyLabel = "(Empty)"

// ItemKind is the kind of a render list item.
type ItemKind int

const (
	KindRow ItemKind = iota
	KindGroup
	KindSubGroup
)

func (k ItemKind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindSubGroup:
		return "subgroup"
	default:
		return "row"
	}
}

// Item is one entry of the render list.
type Item struct {
	Kind ItemKind

	// Row items.
	Row   tables.Row
	Index int // 1-based display position, sequential across the whole list

	// Group and subgroup headers.
	Value string // stringified partition value ("" for the empty bucket)
	Empty bool   // true for the null/empty bucket
	Count int    // leaf rows under this header
}

// Label returns the header text of a group or subgroup item.
func (it Item) Label() string {
	if it.Empty {
		return EmptyLabel
	}
	return it.Value
}

// partition is a run of rows sharing one value, in first-occurrence order.
type partition struct {
	value string
	empty bool
	rows  []tables.Row
}

// partitionKey separates the empty bucket from a literal value.
type partitionKey struct {
	value string
	empty bool
}

// partitionRows groups rows by the exact stringified value of column,
// keeping the incoming order inside each partition and the first-occurrence
// order of partitions.
func partitionRows(rows []tables.Row, column string) []*partition {
	var parts []*partition
	byKey := make(map[partitionKey]*partition)
	for _, r := range rows {
		k := partitionKey{empty: r.IsEmpty(column)}
		if !k.empty {
			k.value = r.String(column)
		}
		p, ok := byKey[k]
		if !ok {
			p = &partition{value: k.value, empty: k.empty}
			byKey[k] = p
			parts = append(parts, p)
		}
		p.rows = append(p.rows, r)
	}
	return parts
}

// Build produces the render list for already filtered and sorted rows.
// Without a group column the list is the rows with sequential indices.
func Build(rows []tables.Row, groupColumn, subGroupColumn string) []Item {
	if groupColumn == "" {
		items := make([]Item, len(rows))
		for i, r := range rows {
			items[i] = Item{Kind: KindRow, Row: r, Index: i + 1}
		}
		return items
	}
	if subGroupColumn == groupColumn {
		subGroupColumn = ""
	}

	items := make([]Item, 0, len(rows)+8)
	index := 0
	appendRows := func(rs []tables.Row) {
		for _, r := range rs {
			index++
			items = append(items, Item{Kind: KindRow, Row: r, Index: index})
		}
	}

	for _, g := range partitionRows(rows, groupColumn) {
		items = append(items, Item{Kind: KindGroup, Value: g.value, Empty: g.empty, Count: len(g.rows)})
		if subGroupColumn == "" {
			appendRows(g.rows)
			continue
		}
		for _, sg := range partitionRows(g.rows, subGroupColumn) {
			items = append(items, Item{Kind: KindSubGroup, Value: sg.value, Empty: sg.empty, Count: len(sg.rows)})
			appendRows(sg.rows)
		}
	}
	return items
}

// RowCount returns the number of row items in a render list.
func RowCount(items []Item) int {
	n := 0
	for _, it := range items {
		if it.Kind == KindRow {
			n++
		}
	}
	return n
}
