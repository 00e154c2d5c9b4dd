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
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/google/safehtml"
	"github.com/recordview/recordview/core/columns"
)

// Query represents the parsed state of a table page URL: the dataset, the
// live display configuration and the transient filter and aggregation
// selections that are not part of a saved view.
type Query struct {
	// Base path (e.g., "/table")
	Path string

	Dataset string
	Config  Config
	// HasConfig is true when the URL carried a column order; otherwise the
	// caller keeps its current live configuration.
	HasConfig bool

	Advanced   []AdvancedFilter         // Operator filters, ANDed with Config.Filters
	Search     string                   // Global search text
	Aggregates map[string]AggregateType // Footer reducer per column
	Limit      int                      // Number of rows to display (0 = show all)
}

// NewQuery creates a Query from a URL. Malformed entries are skipped.
func NewQuery(u *url.URL) *Query {
	state := &Query{
		Path:       u.Path,
		Config:     Config{Hidden: map[string]bool{}, Filters: map[string]string{}},
		Aggregates: make(map[string]AggregateType),
		Limit:      100, // Default limit
	}

	q := u.Query()

	state.Dataset = q.Get("dataset")

	if colsStr := q.Get("cols"); colsStr != "" {
		state.HasConfig = true
		state.Config.ColOrder = strings.Split(colsStr, ",")
	}

	if hiddenStr := q.Get("hidden"); hiddenStr != "" {
		for _, col := range strings.Split(hiddenStr, ",") {
			state.Config.Hidden[col] = true
		}
	}

	if sortStr := q.Get("sort"); sortStr != "" {
		for _, part := range strings.Split(sortStr, ",") {
			if key, err := ParseSortKey(part); err == nil {
				state.Config.Sorts = append(state.Config.Sorts, key)
			}
		}
	}

	state.Config.SetGroup(q.Get("group"), q.Get("subgroup"))

	for _, w := range q["where"] {
		if f, err := ParseAdvancedFilter(w); err == nil {
			state.Advanced = append(state.Advanced, f)
		}
	}

	// The add-filter form submits the three parts separately.
	if col := q.Get("where_col"); col != "" {
		if op, err := ParseOperator(q.Get("where_op")); err == nil {
			state.Advanced = append(state.Advanced, AdvancedFilter{Column: col, Operator: op, Value: q.Get("where_val")})
		}
	}

	state.Search = q.Get("q")

	if limitStr := q.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit >= 0 {
			state.Limit = limit
		}
	}

	// Extract prefixed parameters (filter:col=value, agg:col=reducer)
	for key, values := range q {
		if len(values) == 0 {
			continue
		}
		if col, ok := strings.CutPrefix(key, "filter:"); ok {
			state.Config.SetFilter(col, values[0])
		}
		if col, ok := strings.CutPrefix(key, "agg:"); ok {
			if agg, err := ParseAggregate(values[0]); err == nil && agg != AggNone {
				state.Aggregates[col] = agg
			}
		}
	}

	return state
}

// Clone creates a deep copy of the Query
func (s *Query) Clone() *Query {
	clone := &Query{
		Path:       s.Path,
		Dataset:    s.Dataset,
		Config:     s.Config.Clone(),
		HasConfig:  s.HasConfig,
		Advanced:   slices.Clone(s.Advanced),
		Search:     s.Search,
		Aggregates: make(map[string]AggregateType, len(s.Aggregates)),
		Limit:      s.Limit,
	}
	maps.Copy(clone.Aggregates, s.Aggregates)
	return clone
}

// WithConfig returns a copy of the query carrying cfg as live configuration.
func (s *Query) WithConfig(cfg Config) *Query {
	clone := s.Clone()
	clone.Config = cfg.Clone()
	clone.HasConfig = true
	return clone
}

// TransientOnly returns a copy without the display configuration. Its URL
// reloads the page with the session's live configuration.
func (s *Query) TransientOnly() *Query {
	clone := s.Clone()
	clone.Config = Config{Hidden: map[string]bool{}, Filters: map[string]string{}}
	clone.HasConfig = false
	return clone
}

// Param is one URL parameter.
type Param struct {
	Name  string
	Value string
}

// HiddenParams returns the URL parameters of the query except the named
// keys, for carrying state through GET forms.
func (s *Query) HiddenParams(exclude ...string) []Param {
	u, err := url.Parse(s.ToURL())
	if err != nil {
		return nil
	}
	values := u.Query()
	keys := make([]string, 0, len(values))
	for k := range values {
		if !slices.Contains(exclude, k) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	var params []Param
	for _, k := range keys {
		for _, v := range values[k] {
			params = append(params, Param{Name: k, Value: v})
		}
	}
	return params
}

// ToURL converts the Query back to a URL string
func (s *Query) ToURL() string {
	u := &url.URL{
		Path: s.Path,
	}

	q := u.Query()

	if s.Dataset != "" {
		q.Set("dataset", s.Dataset)
	}

	if s.HasConfig && len(s.Config.ColOrder) > 0 {
		q.Set("cols", strings.Join(s.Config.ColOrder, ","))
	}

	if hidden := sortedKeys(s.Config.Hidden); len(hidden) > 0 {
		q.Set("hidden", strings.Join(hidden, ","))
	}

	if len(s.Config.Sorts) > 0 {
		parts := make([]string, len(s.Config.Sorts))
		for i, k := range s.Config.Sorts {
			parts[i] = k.String()
		}
		q.Set("sort", strings.Join(parts, ","))
	}

	if s.Config.GroupColumn != "" {
		q.Set("group", s.Config.GroupColumn)
	}
	if s.Config.SubGroupColumn != "" {
		q.Set("subgroup", s.Config.SubGroupColumn)
	}

	for col, value := range s.Config.Filters {
		if value != "" {
			q.Set("filter:"+col, value)
		}
	}

	for _, f := range s.Advanced {
		q.Add("where", f.String())
	}

	if s.Search != "" {
		q.Set("q", s.Search)
	}

	for col, agg := range s.Aggregates {
		if agg != AggNone {
			q.Set("agg:"+col, string(agg))
		}
	}

	// Add limit parameter (always included in URL)
	q.Set("limit", strconv.Itoa(s.Limit))

	u.RawQuery = q.Encode()
	return u.String()
}

// ToSafeURL converts the Query to a safehtml.URL
func (s *Query) ToSafeURL() safehtml.URL {
	return safehtml.URLSanitized(s.ToURL())
}

// WithSortToggled cycles the sort key of column: absent → asc → desc →
// removed. Keys on other columns keep their priority.
func (s *Query) WithSortToggled(column string) safehtml.URL {
	newState := s.Clone()
	cfg := &newState.Config
	switch i := cfg.SortIndex(column); {
	case i < 0:
		cfg.Sorts = append(cfg.Sorts, NewSortKey(column))
	case cfg.Sorts[i].Direction == Asc:
		cfg.Sorts[i].Direction = Desc
	default:
		cfg.Sorts = slices.Delete(cfg.Sorts, i, i+1)
	}
	return newState.ToSafeURL()
}

// WithColumnHidden returns a URL with column hidden or shown.
func (s *Query) WithColumnHidden(column string, hide bool) safehtml.URL {
	newState := s.Clone()
	newState.Config.Hidden = columns.SetHidden(s.Config.ColOrder, s.Config.Hidden, column, hide)
	return newState.ToSafeURL()
}

// WithReorder returns a URL with fromKey moved to toKey's position.
func (s *Query) WithReorder(fromKey, toKey string) safehtml.URL {
	newState := s.Clone()
	newState.Config.ColOrder = columns.Reorder(s.Config.ColOrder, fromKey, toKey)
	return newState.ToSafeURL()
}

// WithGroup returns a URL grouped by group and subGroup ("" clears).
func (s *Query) WithGroup(group, subGroup string) safehtml.URL {
	newState := s.Clone()
	newState.Config.SetGroup(group, subGroup)
	return newState.ToSafeURL()
}

// WithFilter returns a URL with a simple filter set ("" removes it).
func (s *Query) WithFilter(column, value string) safehtml.URL {
	newState := s.Clone()
	newState.Config.SetFilter(column, value)
	return newState.ToSafeURL()
}

// WithoutAdvanced returns a URL without the i-th advanced filter.
func (s *Query) WithoutAdvanced(i int) safehtml.URL {
	newState := s.Clone()
	if i >= 0 && i < len(newState.Advanced) {
		newState.Advanced = slices.Delete(newState.Advanced, i, i+1)
	}
	return newState.ToSafeURL()
}

// WithAggregate returns a URL with the footer reducer of column set.
// AggNone clears it.
func (s *Query) WithAggregate(column string, agg AggregateType) safehtml.URL {
	newState := s.Clone()
	if agg == AggNone {
		delete(newState.Aggregates, column)
	} else {
		newState.Aggregates[column] = agg
	}
	return newState.ToSafeURL()
}

// WithLimit returns a URL with a different row limit
func (s *Query) WithLimit(limit int) safehtml.URL {
	newState := s.Clone()
	newState.Limit = limit
	return newState.ToSafeURL()
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k, v := range m {
		if v {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}
