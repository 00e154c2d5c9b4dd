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
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/recordview/recordview/core/columns"
)

// Row is one opaque record, keyed by column key. The engine never mutates
// a row.
type Row map[string]any

// String returns the stringified cell value. Missing and nil cells are "".
func (r Row) String(key string) string {
	return Stringify(r[key])
}

// IsEmpty reports whether the cell is null or the empty string.
func (r Row) IsEmpty(key string) bool {
	v, ok := r[key]
	if !ok || v == nil {
		return true
	}
	s, isString := v.(string)
	return isString && s == ""
}

// Stringify converts a cell value to its display string.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// ParseNumber parses a cell as a float. Surrounding spaces, thousands
// separators and a leading currency symbol are ignored.
func ParseNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	}
	s := strings.TrimSpace(Stringify(v))
	if s == "" {
		return 0, false
	}
	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}
	s = strings.TrimLeft(s, "$€£¥₹ ")
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	// ParseFloat accepts "NaN" and "Inf"; those cells are text.
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if negative {
		f = -f
	}
	return f, true
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006",
	"02-Jan-2006",
	"Jan 2, 2006",
}

// ParseDate parses a cell as a date using the common layouts.
func ParseDate(v any) (time.Time, bool) {
	if t, ok := v.(time.Time); ok {
		return t, true
	}
	s := strings.TrimSpace(Stringify(v))
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DataTable is an ordered row collection with its column schema.
type DataTable struct {
	schema  *columns.Schema
	rows    []Row
	version uint64
}

// NewDataTable creates an empty table for schema.
func NewDataTable(schema *columns.Schema) *DataTable {
	return &DataTable{schema: schema}
}

// Schema returns the column schema.
func (dt *DataTable) Schema() *columns.Schema {
	return dt.schema
}

// Append adds rows and bumps the version.
func (dt *DataTable) Append(rows ...Row) {
	dt.rows = append(dt.rows, rows...)
	dt.version++
}

// SetRows replaces all rows and bumps the version.
func (dt *DataTable) SetRows(rows []Row) {
	dt.rows = rows
	dt.version++
}

// Rows returns the rows in source order. Callers must not modify them.
func (dt *DataTable) Rows() []Row {
	return dt.rows
}

// Length returns the number of rows.
func (dt *DataTable) Length() int {
	return len(dt.rows)
}

// Version changes whenever the row set changes.
func (dt *DataTable) Version() uint64 {
	return dt.version
}

// PrimaryKeyOf returns the primary key value of row.
func (dt *DataTable) PrimaryKeyOf(r Row) string {
	return r.String(dt.schema.PrimaryKey())
}
