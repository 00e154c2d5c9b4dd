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

package query

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/recordview/recordview/core/columns"
)

// Direction is the sort direction of a sort key.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// CompareType selects how values of a sort key are compared.
type CompareType string

const (
	CompareAuto    CompareType = "auto"
	CompareAlpha   CompareType = "alpha"
	CompareNumeric CompareType = "numeric"
	CompareDate    CompareType = "date"
	CompareLength  CompareType = "length"
)

// NullPlacement decides where null or empty values sort.
type NullPlacement string

const (
	NullsFirst NullPlacement = "first"
	NullsLast  NullPlacement = "last"
)

// SortKey is one level of a multi-key sort. The first key of a sequence has
// the highest priority.
type SortKey struct {
	Column        string        `yaml:"column" json:"column"`
	Direction     Direction     `yaml:"direction" json:"direction"`
	CompareType   CompareType   `yaml:"compare_type" json:"compare_type"`
	NullPlacement NullPlacement `yaml:"nulls" json:"nulls"`
}

// NewSortKey returns an ascending, auto-typed key with nulls last.
func NewSortKey(column string) SortKey {
	return SortKey{
		Column:        column,
		Direction:     Asc,
		CompareType:   CompareAuto,
		NullPlacement: NullsLast,
	}
}

// Resolve returns the effective compare type for a column of the given
// value type. An explicit compare type always wins over auto.
func (k SortKey) Resolve(vt columns.ValueType) CompareType {
	if k.CompareType != "" && k.CompareType != CompareAuto {
		return k.CompareType
	}
	switch vt {
	case columns.TypeNumber, columns.TypeCurrency:
		return CompareNumeric
	case columns.TypeDate:
		return CompareDate
	default:
		return CompareAlpha
	}
}

// String encodes the key as column:direction:compare:nulls.
func (k SortKey) String() string {
	return strings.Join([]string{k.Column, string(k.Direction), string(k.CompareType), string(k.NullPlacement)}, ":")
}

// ParseSortKey parses "column[:asc|desc[:compare[:first|last]]]".
func ParseSortKey(s string) (SortKey, error) {
	parts := strings.Split(s, ":")
	if parts[0] == "" {
		return SortKey{}, fmt.Errorf("sort key %q has no column", s)
	}
	if len(parts) > 4 {
		return SortKey{}, fmt.Errorf("sort key %q has too many parts", s)
	}
	k := NewSortKey(parts[0])
	if len(parts) > 1 && parts[1] != "" {
		switch d := Direction(strings.ToLower(parts[1])); d {
		case Asc, Desc:
			k.Direction = d
		default:
			return SortKey{}, fmt.Errorf("invalid sort direction %q", parts[1])
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		switch c := CompareType(strings.ToLower(parts[2])); c {
		case CompareAuto, CompareAlpha, CompareNumeric, CompareDate, CompareLength:
			k.CompareType = c
		default:
			return SortKey{}, fmt.Errorf("invalid compare type %q", parts[2])
		}
	}
	if len(parts) > 3 && parts[3] != "" {
		switch n := NullPlacement(strings.ToLower(parts[3])); n {
		case NullsFirst, NullsLast:
			k.NullPlacement = n
		default:
			return SortKey{}, fmt.Errorf("invalid null placement %q", parts[3])
		}
	}
	return k, nil
}

// Operator is an advanced filter operator.
type Operator string

const (
	OpIs          Operator = "is"
	OpIsNot       Operator = "is_not"
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
	OpStartsWith  Operator = "starts_with"
	OpEq          Operator = "eq"
	OpNe          Operator = "ne"
	OpGt          Operator = "gt"
	OpLt          Operator = "lt"
	OpGe          Operator = "ge"
	OpLe          Operator = "le"
)

var operatorsByKind = map[columns.Kind][]Operator{
	columns.KindCategory: {OpIs, OpIsNot},
	columns.KindText:     {OpContains, OpNotContains, OpStartsWith},
	columns.KindNumeric:  {OpEq, OpNe, OpGt, OpLt, OpGe, OpLe},
	columns.KindDate:     {OpEq, OpNe, OpGt, OpLt, OpGe, OpLe},
}

// OperatorsFor returns the operators offered for a field kind.
func OperatorsFor(kind columns.Kind) []Operator {
	return slices.Clone(operatorsByKind[kind])
}

// ValidFor reports whether op applies to the given field kind.
func (op Operator) ValidFor(kind columns.Kind) bool {
	return slices.Contains(operatorsByKind[kind], op)
}

// Symbol returns the display symbol of the operator.
func (op Operator) Symbol() string {
	switch op {
	case OpIs:
		return "is"
	case OpIsNot:
		return "is not"
	case OpContains:
		return "contains"
	case OpNotContains:
		return "not contains"
	case OpStartsWith:
		return "starts with"
	case OpEq:
		return "="
	case OpNe:
		return "≠"
	case OpGt:
		return ">"
	case OpLt:
		return "<"
	case OpGe:
		return "≥"
	case OpLe:
		return "≤"
	default:
		return string(op)
	}
}

// ParseOperator accepts operator ids and their display symbols.
func ParseOperator(s string) (Operator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "is":
		return OpIs, nil
	case "is_not", "is not":
		return OpIsNot, nil
	case "contains":
		return OpContains, nil
	case "not_contains", "not contains":
		return OpNotContains, nil
	case "starts_with", "starts with":
		return OpStartsWith, nil
	case "eq", "=", "==":
		return OpEq, nil
	case "ne", "!=", "≠":
		return OpNe, nil
	case "gt", ">":
		return OpGt, nil
	case "lt", "<":
		return OpLt, nil
	case "ge", ">=", "≥":
		return OpGe, nil
	case "le", "<=", "≤":
		return OpLe, nil
	default:
		return "", fmt.Errorf("unknown operator %q", s)
	}
}

// AdvancedFilter is an operator filter on one column.
type AdvancedFilter struct {
	Column   string   `yaml:"column" json:"column"`
	Operator Operator `yaml:"operator" json:"operator"`
	Value    string   `yaml:"value" json:"value"`
}

// String encodes the filter as column|operator|value.
func (f AdvancedFilter) String() string {
	return f.Column + "|" + string(f.Operator) + "|" + f.Value
}

// ParseAdvancedFilter parses "column|operator|value".
func ParseAdvancedFilter(s string) (AdvancedFilter, error) {
	parts := strings.SplitN(s, "|", 3)
	if len(parts) != 3 || parts[0] == "" {
		return AdvancedFilter{}, fmt.Errorf("advanced filter %q must be column|operator|value", s)
	}
	op, err := ParseOperator(parts[1])
	if err != nil {
		return AdvancedFilter{}, err
	}
	return AdvancedFilter{Column: parts[0], Operator: op, Value: parts[2]}, nil
}

// Config is the persistable display configuration of a record table: the
// column layout, the sort keys, the simple filters and the grouping. A View
// stores one Config snapshot.
type Config struct {
	ColOrder       []string          `yaml:"col_order" json:"col_order"`
	Hidden         map[string]bool   `yaml:"hidden,omitempty" json:"hidden,omitempty"`
	Sorts          []SortKey         `yaml:"sorts,omitempty" json:"sorts,omitempty"`
	Filters        map[string]string `yaml:"filters,omitempty" json:"filters,omitempty"`
	GroupColumn    string            `yaml:"group,omitempty" json:"group,omitempty"`
	SubGroupColumn string            `yaml:"subgroup,omitempty" json:"subgroup,omitempty"`
}

// DefaultConfig is the canonical Default snapshot: all columns in schema
// order, no sort, no filter, no grouping.
func DefaultConfig(keys []string) Config {
	return Config{
		ColOrder: slices.Clone(keys),
		Hidden:   map[string]bool{},
		Filters:  map[string]string{},
	}
}

// Clone creates a deep copy of the Config.
func (c Config) Clone() Config {
	clone := Config{
		ColOrder:       slices.Clone(c.ColOrder),
		Hidden:         make(map[string]bool, len(c.Hidden)),
		Sorts:          slices.Clone(c.Sorts),
		Filters:        make(map[string]string, len(c.Filters)),
		GroupColumn:    c.GroupColumn,
		SubGroupColumn: c.SubGroupColumn,
	}
	for k, v := range c.Hidden {
		if v {
			clone.Hidden[k] = true
		}
	}
	maps.Copy(clone.Filters, c.Filters)
	return clone
}

// Visible returns the visible columns in display order.
func (c Config) Visible() []string {
	return columns.VisibleColumns(c.ColOrder, c.Hidden)
}

// SortIndex returns the position of column in the sort keys, or -1.
func (c Config) SortIndex(column string) int {
	return slices.IndexFunc(c.Sorts, func(k SortKey) bool { return k.Column == column })
}

// SetFilter sets a simple filter; an empty value removes it.
func (c *Config) SetFilter(column, value string) {
	if c.Filters == nil {
		c.Filters = map[string]string{}
	}
	if value == "" {
		delete(c.Filters, column)
		return
	}
	c.Filters[column] = value
}

// SetGroup sets the grouping. A subgroup without a group, or equal to the
// group, is dropped.
func (c *Config) SetGroup(group, subGroup string) {
	if group == "" || subGroup == group {
		subGroup = ""
	}
	c.GroupColumn = group
	c.SubGroupColumn = subGroup
}
