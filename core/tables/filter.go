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
	"strings"

	"golang.org/x/text/cases"

	"github.com/recordview/recordview/core/columns"
	"github.com/recordview/recordview/core/query"
)

// fold returns the case-folded form of s. A Caser is stateful, so each call
// gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

// containsFold reports whether substr occurs in s, ignoring case.
func containsFold(s, substr string) bool {
	return strings.Contains(fold(s), fold(substr))
}

// FilterSpec holds everything the filter stage evaluates. All parts are
// ANDed; evaluation order does not matter.
type FilterSpec struct {
	Simple   map[string]string
	Advanced []query.AdvancedFilter
	Search   string
}

// IsEmpty reports whether the spec constrains nothing.
func (f FilterSpec) IsEmpty() bool {
	for _, v := range f.Simple {
		if v != "" {
			return false
		}
	}
	for _, a := range f.Advanced {
		if a.Value != "" {
			return false
		}
	}
	return f.Search == ""
}

// Filter returns the rows matching spec, in their original order.
func Filter(rows []Row, schema *columns.Schema, spec FilterSpec) []Row {
	if spec.IsEmpty() {
		out := make([]Row, len(rows))
		copy(out, rows)
		return out
	}
	search := fold(spec.Search)
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if matchRow(r, schema, spec, search) {
			out = append(out, r)
		}
	}
	return out
}

func matchRow(r Row, schema *columns.Schema, spec FilterSpec, foldedSearch string) bool {
	for col, value := range spec.Simple {
		if value == "" {
			continue
		}
		if !containsFold(r.String(col), value) {
			return false
		}
	}
	for _, f := range spec.Advanced {
		if !MatchAdvanced(r, schema.TypeOf(f.Column), f) {
			return false
		}
	}
	if foldedSearch != "" && !matchSearch(r, foldedSearch) {
		return false
	}
	return true
}

func matchSearch(r Row, foldedSearch string) bool {
	for key := range r {
		if strings.Contains(fold(r.String(key)), foldedSearch) {
			return true
		}
	}
	return false
}

// MatchAdvanced evaluates one operator filter against a row. An empty
// filter value, an operator that does not apply to the column kind, and a
// numeric or date comparison against an unparseable value all match: an
// inapplicable filter never hides a row.
func MatchAdvanced(r Row, vt columns.ValueType, f query.AdvancedFilter) bool {
	if f.Value == "" {
		return true
	}
	kind := columns.FieldKind(vt)
	if !f.Operator.ValidFor(kind) {
		return true
	}
	cell := r.String(f.Column)

	switch kind {
	case columns.KindCategory:
		if f.Operator == query.OpIs {
			return cell == f.Value
		}
		return cell != f.Value

	case columns.KindText:
		switch f.Operator {
		case query.OpContains:
			return containsFold(cell, f.Value)
		case query.OpNotContains:
			return !containsFold(cell, f.Value)
		default:
			return strings.HasPrefix(fold(cell), fold(f.Value))
		}

	case columns.KindNumeric:
		a, okA := ParseNumber(r[f.Column])
		b, okB := ParseNumber(f.Value)
		if !okA || !okB {
			return true
		}
		return compareOp(f.Operator, cmpFloat(a, b))

	case columns.KindDate:
		a, okA := ParseDate(r[f.Column])
		b, okB := ParseDate(f.Value)
		if !okA || !okB {
			return true
		}
		return compareOp(f.Operator, a.Compare(b))
	}
	return true
}

func compareOp(op query.Operator, c int) bool {
	switch op {
	case query.OpEq:
		return c == 0
	case query.OpNe:
		return c != 0
	case query.OpGt:
		return c > 0
	case query.OpLt:
		return c < 0
	case query.OpGe:
		return c >= 0
	case query.OpLe:
		return c <= 0
	}
	return true
}
