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

package columns

import (
	"fmt"
	"strings"
)

// ValueType is the declared type of a column's values.
type ValueType int

const (
	TypeText ValueType = iota
	TypeNumber
	TypeCurrency
	TypeDate
	TypeCategory
)

// String returns the string representation of the value type.
func (t ValueType) String() string {
	switch t {
	case TypeText:
		return "text"
	case TypeNumber:
		return "number"
	case TypeCurrency:
		return "currency"
	case TypeDate:
		return "date"
	case TypeCategory:
		return "category"
	default:
		return "unknown"
	}
}

// ParseValueType parses a value type name. The empty string is text.
func ParseValueType(s string) (ValueType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "string":
		return TypeText, nil
	case "number", "numeric":
		return TypeNumber, nil
	case "currency", "money":
		return TypeCurrency, nil
	case "date", "datetime":
		return TypeDate, nil
	case "category", "select":
		return TypeCategory, nil
	default:
		return TypeText, fmt.Errorf("unknown value type %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t ValueType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ValueType) UnmarshalText(b []byte) error {
	v, err := ParseValueType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// IsNumeric reports whether values of this type compare as numbers.
func (t ValueType) IsNumeric() bool {
	return t == TypeNumber || t == TypeCurrency
}

// Kind is the field kind used to pick advanced filter operators.
type Kind int

const (
	KindText Kind = iota
	KindCategory
	KindNumeric
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindCategory:
		return "category"
	case KindNumeric:
		return "numeric"
	case KindDate:
		return "date"
	default:
		return "text"
	}
}

// FieldKind maps a declared value type to its filter kind.
func FieldKind(t ValueType) Kind {
	switch t {
	case TypeCategory:
		return KindCategory
	case TypeNumber, TypeCurrency:
		return KindNumeric
	case TypeDate:
		return KindDate
	default:
		return KindText
	}
}

// Descriptor describes one column of a record table.
// Key must not contain any of the following characters: & = : , |
type Descriptor struct {
	Key     string
	Label   string
	Type    ValueType
	Options []string // allowed values, category columns only
	Width   int
}

// NewDescriptor creates a descriptor; an empty label defaults to the key.
func NewDescriptor(key, label string, valueType ValueType) *Descriptor {
	if label == "" {
		label = key
	}
	return &Descriptor{
		Key:   key,
		Label: label,
		Type:  valueType,
	}
}

// Kind returns the filter kind of the column.
func (d *Descriptor) Kind() Kind {
	return FieldKind(d.Type)
}

// Schema is the ordered list of column descriptors of a table.
// The first column is the primary key.
type Schema struct {
	Columns []*Descriptor
}

// NewSchema creates a schema from descriptors in display order.
func NewSchema(cols ...*Descriptor) *Schema {
	return &Schema{Columns: cols}
}

// Keys returns the column keys in schema order.
func (s *Schema) Keys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		keys[i] = c.Key
	}
	return keys
}

// Get returns the descriptor for key, or nil.
func (s *Schema) Get(key string) *Descriptor {
	if s == nil {
		return nil
	}
	for _, c := range s.Columns {
		if c.Key == key {
			return c
		}
	}
	return nil
}

// TypeOf returns the declared type for key. Unknown columns are text.
func (s *Schema) TypeOf(key string) ValueType {
	if d := s.Get(key); d != nil {
		return d.Type
	}
	return TypeText
}

// PrimaryKey returns the key of the first column.
func (s *Schema) PrimaryKey() string {
	if s == nil || len(s.Columns) == 0 {
		return ""
	}
	return s.Columns[0].Key
}

// Validate checks that keys are non-empty, unique and URL-safe.
func (s *Schema) Validate() error {
	if s == nil || len(s.Columns) == 0 {
		return fmt.Errorf("schema has no columns")
	}
	seen := make(map[string]bool, len(s.Columns))
	for i, c := range s.Columns {
		if c.Key == "" {
			return fmt.Errorf("column %d has an empty key", i)
		}
		if strings.ContainsAny(c.Key, "&=:,|") {
			return fmt.Errorf("column key %q contains a reserved character", c.Key)
		}
		if seen[c.Key] {
			return fmt.Errorf("duplicate column key %q", c.Key)
		}
		seen[c.Key] = true
	}
	return nil
}
