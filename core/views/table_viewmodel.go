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

package views

import (
	"fmt"
	"slices"

	"github.com/google/safehtml"

	"github.com/recordview/recordview/core/aggregates"
	"github.com/recordview/recordview/core/columns"
	"github.com/recordview/recordview/core/engine"
	"github.com/recordview/recordview/core/grouping"
	"github.com/recordview/recordview/core/query"
	"github.com/recordview/recordview/core/viewstore"
)

// TableViewModel contains the data from the table formatted for template consumption
type TableViewModel struct {
	Title       string
	Description string
	Dataset     string
	CurrentURL  safehtml.URL // Current URL for building links
	ReturnURL   string       // Transient part of the current URL, posted back by forms

	Headers       []HeaderInfo // Visible columns in display order
	HiddenColumns []ColumnInfo // Hidden columns with a link to show them again
	Items         []ItemInfo   // Render list: group headers, subgroup headers and rows
	Footer        []FooterCell // Aggregates, parallel to Headers
	HasFooter     bool

	// Filtering
	Chips          []FilterChip
	Search         string
	SearchHidden   []query.Param
	ClearSearchURL safehtml.URL
	FilterColumns  []ColumnInfo     // Columns offered by the add-filter form
	Operators      []OperatorOption // Operators offered by the add-filter form
	AdvancedHidden []query.Param

	// Grouping
	GroupLabel    string
	SubGroupLabel string
	ClearGroupURL safehtml.URL

	Views ViewsBar

	// Pagination info
	TotalRows     int  // Rows in the dataset
	FilteredRows  int  // Rows passing the filters
	DisplayedRows int  // Rows actually displayed
	HasMoreRows   bool // True if the limit cut rows off
	CurrentLimit  int  // Current row limit (0 = all)
	ShowAllURL    safehtml.URL
	ShowMoreURL   safehtml.URL

	// Flash message from the last action, if it failed
	Error string

	// Timing information
	RenderTimeMs    string
	TimingBreakdown []TimingEntry
}

// HeaderInfo describes one visible column header.
type HeaderInfo struct {
	Key           string
	Label         string
	Type          string
	Numeric       bool         // right-align cells
	SortIndicator string       // "▲", "▼" or ""
	SortPriority  int          // 1-based priority when several keys are active, else 0
	SortURL       safehtml.URL // Cycles the sort of this column
	CanHide       bool         // False for the primary key column
	HideURL       safehtml.URL
	CanMoveLeft   bool
	MoveLeftURL   safehtml.URL
	CanMoveRight  bool
	MoveRightURL  safehtml.URL
	GroupURL      safehtml.URL // Groups by this column
	CanSubGroup   bool         // A group is set on another column
	SubGroupURL   safehtml.URL
	IsGroup       bool
	FilterValue   string
	FilterName    string        // Form field name of the simple filter
	FilterHidden  []query.Param // Other URL state carried by the filter form
	Options       []string      // Category options for the filter input
	Aggregate     string
	AggOptions    []AggregateOption
}

// ColumnInfo contains information about a column for UI display
type ColumnInfo struct {
	Key     string
	Label   string
	ShowURL safehtml.URL
}

// AggregateOption is one entry of a column's reducer menu.
type AggregateOption struct {
	Name     string
	Title    string
	Selected bool
	URL      safehtml.URL
}

// OperatorOption is one entry of the add-filter operator menu.
type OperatorOption struct {
	Value  string
	Symbol string
}

// ItemInfo is one line of the rendered table body.
type ItemInfo struct {
	IsGroup    bool
	IsSubGroup bool
	Label      string
	Count      int
	Index      int
	Cells      []CellInfo
}

// CellInfo is one data cell.
type CellInfo struct {
	Value   string
	Numeric bool
}

// FooterCell is one aggregate value under a column.
type FooterCell struct {
	Value string
	Title string
}

// FilterChip shows one active filter with a link removing it.
type FilterChip struct {
	Text      string
	RemoveURL safehtml.URL
}

// ViewsBar is the saved views toolbar together with the unsaved-changes
// dialog. It is rendered on its own as well as inside the table page.
type ViewsBar struct {
	Dataset   string
	ReturnURL string // Posted back by the bar's forms
	Pills     []ViewPill
	Active    string
	ActiveID  string // Empty while Default is active
	Modified  bool   // the MODIFIED badge
	CanUpdate bool   // Update saves into the active view; Default cannot be updated
	CanEdit   bool   // Rename and delete apply to the active user view
	Pending   *PendingSwitch
}

// ViewPill is one view in the views bar. User views are addressed by ID,
// which survives renames; Default has none.
type ViewPill struct {
	ID      string
	Name    string
	Active  bool
	Default bool
}

// PendingSwitch is the unsaved-changes dialog shown while a switch guard
// is outstanding.
type PendingSwitch struct {
	From    string
	To      string
	CanSave bool
}

// TimingEntry represents a single timing measurement
type TimingEntry struct {
	Operation  string
	DurationMs string
}

// BuildViewModel builds the template model of a table page. q carries the
// URL state; its configuration is replaced by the live configuration of
// the session.
func BuildViewModel(tv *engine.TableView, q *query.Query, title, description string) *TableViewModel {
	cfg := tv.Config()
	q = q.WithConfig(cfg)
	q.Dataset = tv.Name()
	schema := tv.Schema()
	visible := tv.VisibleColumns()

	vm := &TableViewModel{
		Title:        title,
		Description:  description,
		Dataset:      tv.Name(),
		CurrentURL:   q.ToSafeURL(),
		ReturnURL:    q.TransientOnly().ToURL(),
		TotalRows:    tv.Table().Length(),
		CurrentLimit: q.Limit,
		Search:       q.Search,
	}

	vm.Headers = buildHeaders(tv, q, visible)
	vm.HiddenColumns = buildHiddenColumns(schema, q, cfg)
	vm.Items, vm.DisplayedRows, vm.HasMoreRows = buildItems(tv.RenderList(), schema, visible, q.Limit)
	vm.FilteredRows = len(tv.Filtered())
	if vm.HasMoreRows {
		vm.ShowAllURL = q.WithLimit(0)
		vm.ShowMoreURL = q.WithLimit(q.Limit * 2)
	}

	if summary := tv.Aggregates(); len(summary) > 0 {
		vm.HasFooter = true
		vm.Footer = make([]FooterCell, len(visible))
		for i, key := range visible {
			if r, ok := summary[key]; ok {
				vm.Footer[i] = FooterCell{Value: aggregates.Describe(r), Title: query.AggregateTitle(r.Aggregate)}
			}
		}
	}

	vm.Chips = buildChips(schema, q)
	vm.SearchHidden = q.HiddenParams("q")
	noSearch := q.Clone()
	noSearch.Search = ""
	vm.ClearSearchURL = noSearch.ToSafeURL()
	for _, key := range cfg.ColOrder {
		vm.FilterColumns = append(vm.FilterColumns, ColumnInfo{Key: key, Label: labelOf(schema, key)})
	}
	for _, op := range []query.Operator{
		query.OpContains, query.OpNotContains, query.OpStartsWith, query.OpIs, query.OpIsNot,
		query.OpEq, query.OpNe, query.OpGt, query.OpLt, query.OpGe, query.OpLe,
	} {
		vm.Operators = append(vm.Operators, OperatorOption{Value: string(op), Symbol: op.Symbol()})
	}
	vm.AdvancedHidden = q.HiddenParams()

	if cfg.GroupColumn != "" {
		vm.GroupLabel = labelOf(schema, cfg.GroupColumn)
		if cfg.SubGroupColumn != "" {
			vm.SubGroupLabel = labelOf(schema, cfg.SubGroupColumn)
		}
		vm.ClearGroupURL = q.WithGroup("", "")
	}

	vm.Views = BuildViewsBar(tv.Store(), vm.Dataset, vm.ReturnURL)
	return vm
}

func labelOf(schema *columns.Schema, key string) string {
	if d := schema.Get(key); d != nil {
		return d.Label
	}
	return key
}

func buildHeaders(tv *engine.TableView, q *query.Query, visible []string) []HeaderInfo {
	cfg := q.Config
	schema := tv.Schema()
	primary := schema.PrimaryKey()

	headers := make([]HeaderInfo, 0, len(visible))
	for i, key := range visible {
		d := schema.Get(key)
		if d == nil {
			d = columns.NewDescriptor(key, "", columns.TypeText)
		}
		h := HeaderInfo{
			Key:          key,
			Label:        d.Label,
			Type:         d.Type.String(),
			Numeric:      d.Type.IsNumeric(),
			SortURL:      q.WithSortToggled(key),
			CanHide:      key != primary,
			HideURL:      q.WithColumnHidden(key, true),
			GroupURL:     q.WithGroup(key, ""),
			IsGroup:      key == cfg.GroupColumn || key == cfg.SubGroupColumn,
			FilterValue:  cfg.Filters[key],
			FilterName:   "filter:" + key,
			FilterHidden: q.HiddenParams("filter:" + key),
			Aggregate:    string(tv.Aggregate(key)),
		}
		if d.Type == columns.TypeCategory {
			h.Options = d.Options
		}

		if si := cfg.SortIndex(key); si >= 0 {
			h.SortIndicator = "▲"
			if cfg.Sorts[si].Direction == query.Desc {
				h.SortIndicator = "▼"
			}
			if len(cfg.Sorts) > 1 {
				h.SortPriority = si + 1
			}
		}

		// The primary key column stays pinned at the left.
		if key != primary {
			if i > 0 && visible[i-1] != primary {
				h.CanMoveLeft = true
				h.MoveLeftURL = q.WithReorder(key, visible[i-1])
			}
			if i+1 < len(visible) {
				h.CanMoveRight = true
				h.MoveRightURL = q.WithReorder(key, visible[i+1])
			}
		}

		if cfg.GroupColumn != "" && cfg.GroupColumn != key {
			h.CanSubGroup = true
			h.SubGroupURL = q.WithGroup(cfg.GroupColumn, key)
		}

		h.AggOptions = append(h.AggOptions, AggregateOption{
			Name:     string(query.AggNone),
			Title:    query.AggregateTitle(query.AggNone),
			Selected: tv.Aggregate(key) == query.AggNone,
			URL:      q.WithAggregate(key, query.AggNone),
		})
		for _, agg := range query.AllAggregates() {
			h.AggOptions = append(h.AggOptions, AggregateOption{
				Name:     string(agg),
				Title:    query.AggregateTitle(agg),
				Selected: tv.Aggregate(key) == agg,
				URL:      q.WithAggregate(key, agg),
			})
		}
		headers = append(headers, h)
	}
	return headers
}

func buildHiddenColumns(schema *columns.Schema, q *query.Query, cfg query.Config) []ColumnInfo {
	var hidden []ColumnInfo
	for _, key := range cfg.ColOrder {
		if !cfg.Hidden[key] {
			continue
		}
		hidden = append(hidden, ColumnInfo{
			Key:     key,
			Label:   labelOf(schema, key),
			ShowURL: q.WithColumnHidden(key, false),
		})
	}
	return hidden
}

// buildItems converts the render list, keeping at most limit rows (0 keeps
// all). Headers are kept while their rows are shown.
func buildItems(list []grouping.Item, schema *columns.Schema, visible []string, limit int) ([]ItemInfo, int, bool) {
	numeric := make([]bool, len(visible))
	for i, key := range visible {
		numeric[i] = schema.TypeOf(key).IsNumeric()
	}

	items := make([]ItemInfo, 0, len(list))
	rows := 0
	for _, it := range list {
		if it.Kind == grouping.KindRow {
			if limit > 0 && rows >= limit {
				return items, rows, true
			}
			cells := make([]CellInfo, len(visible))
			for i, key := range visible {
				cells[i] = CellInfo{Value: it.Row.String(key), Numeric: numeric[i]}
			}
			items = append(items, ItemInfo{Index: it.Index, Cells: cells})
			rows++
			continue
		}
		if limit > 0 && rows >= limit {
			return items, rows, true
		}
		items = append(items, ItemInfo{
			IsGroup:    it.Kind == grouping.KindGroup,
			IsSubGroup: it.Kind == grouping.KindSubGroup,
			Label:      it.Label(),
			Count:      it.Count,
		})
	}
	return items, rows, false
}

func buildChips(schema *columns.Schema, q *query.Query) []FilterChip {
	var chips []FilterChip
	keys := make([]string, 0, len(q.Config.Filters))
	for k := range q.Config.Filters {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, key := range keys {
		chips = append(chips, FilterChip{
			Text:      fmt.Sprintf("%s: %s", labelOf(schema, key), q.Config.Filters[key]),
			RemoveURL: q.WithFilter(key, ""),
		})
	}
	for i, f := range q.Advanced {
		chips = append(chips, FilterChip{
			Text:      fmt.Sprintf("%s %s %s", labelOf(schema, f.Column), f.Operator.Symbol(), f.Value),
			RemoveURL: q.WithoutAdvanced(i),
		})
	}
	return chips
}

// BuildViewsBar describes the views of store. returnURL is where the bar's
// forms send the browser after an action.
func BuildViewsBar(store *viewstore.Store, dataset, returnURL string) ViewsBar {
	st := store.Views()
	bar := ViewsBar{
		Dataset:   dataset,
		ReturnURL: returnURL,
		Active:    st.Active,
		Modified:  st.Dirty,
		CanUpdate: st.Dirty && st.Active != viewstore.DefaultViewName,
		CanEdit:   st.Active != viewstore.DefaultViewName,
	}
	for _, v := range st.Views {
		bar.Pills = append(bar.Pills, ViewPill{ID: v.ID, Name: v.Name, Active: v.Active, Default: v.Default})
		if v.Active {
			bar.ActiveID = v.ID
		}
	}
	if g := store.Pending(); g != nil {
		bar.Pending = &PendingSwitch{From: g.From, To: g.To, CanSave: g.CanSave}
	}
	return bar
}
