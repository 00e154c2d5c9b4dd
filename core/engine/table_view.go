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

// Package engine ties the record table stages together into one session:
// rows flow through the filter, sort and grouping stages into a render list,
// and the aggregation engine summarizes what is on screen.
package engine

import (
	"encoding/binary"
	"slices"

	"github.com/zeebo/xxh3"
	"go.uber.org/zap"

	"github.com/recordview/recordview/core/aggregates"
	"github.com/recordview/recordview/core/columns"
	"github.com/recordview/recordview/core/grouping"
	"github.com/recordview/recordview/core/query"
	"github.com/recordview/recordview/core/tables"
	"github.com/recordview/recordview/core/viewstore"
)

// TableView is the engine instance of one table-display session. It owns
// the live configuration (through its view store), the transient advanced
// filters and search text, and the aggregation selection. Stage outputs are
// memoized by a hash of their inputs.
//
// A TableView is not safe for concurrent use.
type TableView struct {
	name      string
	table     *tables.DataTable
	store     *viewstore.Store
	advanced  []query.AdvancedFilter
	search    string
	selection map[string]query.AggregateType
	opts      aggregates.Options
	logger    *zap.Logger

	filtered memo[[]tables.Row]
	sorted   memo[[]tables.Row]
	list     memo[[]grouping.Item]
	summary  memo[map[string]aggregates.Result]
}

// memo caches one stage output under the hash of its inputs.
type memo[T any] struct {
	key   uint64
	valid bool
	value T
}

func (m *memo[T]) get(key uint64, compute func() T) T {
	if m.valid && m.key == key {
		return m.value
	}
	m.value = compute()
	m.key = key
	m.valid = true
	return m.value
}

// NewTableView creates a session over table with Default active.
func NewTableView(name string, table *tables.DataTable, opts aggregates.Options, logger *zap.Logger) *TableView {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("table", name))
	return &TableView{
		name:      name,
		table:     table,
		store:     viewstore.NewStore(table.Schema().Keys(), logger),
		selection: make(map[string]query.AggregateType),
		opts:      opts,
		logger:    logger,
	}
}

// Name returns the dataset name of the session.
func (tv *TableView) Name() string {
	return tv.name
}

// Table returns the underlying data table.
func (tv *TableView) Table() *tables.DataTable {
	return tv.table
}

// Schema returns the column schema.
func (tv *TableView) Schema() *columns.Schema {
	return tv.table.Schema()
}

// Store returns the view store of the session.
func (tv *TableView) Store() *viewstore.Store {
	return tv.store
}

// Options returns the display options used for aggregates.
func (tv *TableView) Options() aggregates.Options {
	return tv.opts
}

// SetRows replaces the rows of the current dataset. The configuration and
// the views are kept.
func (tv *TableView) SetRows(rows []tables.Row) {
	tv.table.SetRows(rows)
	tv.logger.Debug("rows replaced", zap.Int("rows", len(rows)))
}

// ResetDataset switches the session to a different dataset. Layout, sorts,
// filters, grouping, aggregates and the view list go back to defaults.
func (tv *TableView) ResetDataset(name string, table *tables.DataTable) {
	tv.name = name
	tv.table = table
	tv.store.Reset(table.Schema().Keys())
	tv.advanced = nil
	tv.search = ""
	tv.selection = make(map[string]query.AggregateType)
	tv.invalidate()
	tv.logger.Debug("dataset reset", zap.String("dataset", name), zap.Int("rows", table.Length()))
}

func (tv *TableView) invalidate() {
	tv.filtered.valid = false
	tv.sorted.valid = false
	tv.list.valid = false
	tv.summary.valid = false
}

// --- Configuration ---

// Config returns a copy of the live configuration.
func (tv *TableView) Config() query.Config {
	return tv.store.Live()
}

// SetConfig replaces the live configuration.
func (tv *TableView) SetConfig(cfg query.Config) {
	tv.store.SetLive(cfg)
}

// Reorder moves column fromKey to the position of toKey.
func (tv *TableView) Reorder(fromKey, toKey string) {
	tv.store.Mutate(func(cfg *query.Config) {
		cfg.ColOrder = columns.Reorder(cfg.ColOrder, fromKey, toKey)
	})
}

// SetHidden hides or shows a column. The primary key column stays visible.
func (tv *TableView) SetHidden(key string, hide bool) {
	tv.store.Mutate(func(cfg *query.Config) {
		cfg.Hidden = columns.SetHidden(cfg.ColOrder, cfg.Hidden, key, hide)
	})
}

// SetSorts replaces the sort keys.
func (tv *TableView) SetSorts(keys []query.SortKey) {
	tv.store.Mutate(func(cfg *query.Config) {
		cfg.Sorts = slices.Clone(keys)
	})
}

// AddSort appends a sort key with the lowest priority. An existing key on
// the same column is replaced in place.
func (tv *TableView) AddSort(key query.SortKey) {
	tv.store.Mutate(func(cfg *query.Config) {
		if i := cfg.SortIndex(key.Column); i >= 0 {
			cfg.Sorts[i] = key
			return
		}
		cfg.Sorts = append(cfg.Sorts, key)
	})
}

// RemoveSort drops the sort key of column.
func (tv *TableView) RemoveSort(column string) {
	tv.store.Mutate(func(cfg *query.Config) {
		if i := cfg.SortIndex(column); i >= 0 {
			cfg.Sorts = slices.Delete(cfg.Sorts, i, i+1)
		}
	})
}

// ToggleSort cycles the sort of column: absent, ascending, descending,
// absent.
func (tv *TableView) ToggleSort(column string) {
	tv.store.Mutate(func(cfg *query.Config) {
		i := cfg.SortIndex(column)
		switch {
		case i < 0:
			cfg.Sorts = append(cfg.Sorts, query.NewSortKey(column))
		case cfg.Sorts[i].Direction == query.Asc:
			cfg.Sorts[i].Direction = query.Desc
		default:
			cfg.Sorts = slices.Delete(cfg.Sorts, i, i+1)
		}
	})
}

// SetFilter sets the simple filter of column; "" clears it.
func (tv *TableView) SetFilter(column, value string) {
	tv.store.Mutate(func(cfg *query.Config) {
		cfg.SetFilter(column, value)
	})
}

// SetGroup sets the group and subgroup columns.
func (tv *TableView) SetGroup(group, subGroup string) {
	tv.store.Mutate(func(cfg *query.Config) {
		cfg.SetGroup(group, subGroup)
	})
}

// SetAdvancedFilters replaces the advanced filters. They are not part of
// the saved views.
func (tv *TableView) SetAdvancedFilters(filters []query.AdvancedFilter) {
	tv.advanced = slices.Clone(filters)
}

// Advanced returns the advanced filters.
func (tv *TableView) Advanced() []query.AdvancedFilter {
	return slices.Clone(tv.advanced)
}

// SetSearch sets the global search text.
func (tv *TableView) SetSearch(s string) {
	tv.search = s
}

// Search returns the global search text.
func (tv *TableView) Search() string {
	return tv.search
}

// SetAggregate selects the reducer of column. AggNone clears it.
func (tv *TableView) SetAggregate(column string, agg query.AggregateType) {
	if agg == query.AggNone || agg == "" {
		delete(tv.selection, column)
		return
	}
	tv.selection[column] = agg
}

// SetAggregates replaces the whole aggregation selection.
func (tv *TableView) SetAggregates(selection map[string]query.AggregateType) {
	tv.selection = make(map[string]query.AggregateType, len(selection))
	for col, agg := range selection {
		tv.SetAggregate(col, agg)
	}
}

// Aggregate returns the reducer selected for column.
func (tv *TableView) Aggregate(column string) query.AggregateType {
	if agg, ok := tv.selection[column]; ok {
		return agg
	}
	return query.AggNone
}

// --- Outputs ---

// VisibleColumns returns the visible column keys in display order.
func (tv *TableView) VisibleColumns() []string {
	return tv.store.Live().Visible()
}

// Filtered returns the rows passing the filter stage, in source order.
func (tv *TableView) Filtered() []tables.Row {
	cfg := tv.store.Live()
	spec := tables.FilterSpec{Simple: cfg.Filters, Advanced: tv.advanced, Search: tv.search}
	return tv.filtered.get(tv.filterKey(cfg), func() []tables.Row {
		tv.logger.Debug("filter stage", zap.Int("rows", tv.table.Length()))
		return tables.Filter(tv.table.Rows(), tv.Schema(), spec)
	})
}

// Sorted returns the filtered rows in sort order.
func (tv *TableView) Sorted() []tables.Row {
	cfg := tv.store.Live()
	rows := tv.Filtered()
	return tv.sorted.get(tv.sortKey(cfg), func() []tables.Row {
		return tables.Sort(rows, tv.Schema(), cfg.Sorts)
	})
}

// RenderList returns the flat sequence of group headers, subgroup headers
// and rows.
func (tv *TableView) RenderList() []grouping.Item {
	cfg := tv.store.Live()
	rows := tv.Sorted()
	key := newKey(tv.sortKey(cfg)).str(cfg.GroupColumn).str(cfg.SubGroupColumn).sum()
	return tv.list.get(key, func() []grouping.Item {
		return grouping.Build(rows, cfg.GroupColumn, cfg.SubGroupColumn)
	})
}

// Aggregates returns the footer values of the visible columns with a
// selected reducer, computed over the rows on screen.
func (tv *TableView) Aggregates() map[string]aggregates.Result {
	cfg := tv.store.Live()
	rows := tv.Sorted()
	visible := cfg.Visible()
	k := newKey(tv.filterKey(cfg)).strs(visible).str(tv.opts.CurrencySymbol)
	for _, col := range sortedKeys(tv.selection) {
		k = k.str(col).str(string(tv.selection[col]))
	}
	return tv.summary.get(k.sum(), func() map[string]aggregates.Result {
		return aggregates.Summary(rows, tv.Schema(), visible, tv.selection, tv.opts)
	})
}

// Views returns the views bar status.
func (tv *TableView) Views() viewstore.Status {
	return tv.store.Views()
}

// --- Memo keys ---

func (tv *TableView) filterKey(cfg query.Config) uint64 {
	k := newKey(0).u64(uint64(tv.table.Length())).u64(tv.table.Version()).str(tv.search)
	for _, col := range sortedKeys(cfg.Filters) {
		k = k.str(col).str(cfg.Filters[col])
	}
	for _, f := range tv.advanced {
		k = k.str(f.String())
	}
	return k.sum()
}

func (tv *TableView) sortKey(cfg query.Config) uint64 {
	k := newKey(tv.filterKey(cfg))
	for _, s := range cfg.Sorts {
		k = k.str(s.String())
	}
	return k.sum()
}

// keyBuilder accumulates length-prefixed fields for hashing.
type keyBuilder []byte

func newKey(seed uint64) keyBuilder {
	return binary.LittleEndian.AppendUint64(make(keyBuilder, 0, 64), seed)
}

func (k keyBuilder) u64(v uint64) keyBuilder {
	return binary.LittleEndian.AppendUint64(k, v)
}

func (k keyBuilder) str(s string) keyBuilder {
	k = binary.AppendUvarint(k, uint64(len(s)))
	return append(k, s...)
}

func (k keyBuilder) strs(ss []string) keyBuilder {
	k = binary.AppendUvarint(k, uint64(len(ss)))
	for _, s := range ss {
		k = k.str(s)
	}
	return k
}

func (k keyBuilder) sum() uint64 {
	return xxh3.Hash(k)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
