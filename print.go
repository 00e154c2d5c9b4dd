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

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/recordview/recordview/core/aggregates"
	"github.com/recordview/recordview/core/engine"
	"github.com/recordview/recordview/core/query"
	"github.com/recordview/recordview/datasources"
)

type printOptions struct {
	sorts    []string
	filters  []string
	wheres   []string
	hidden   []string
	aggs     []string
	search   string
	group    string
	subGroup string
	currency string
	views    string
	view     string
}

func newPrintCmd(root *rootOptions) *cobra.Command {
	o := &printOptions{}
	cmd := &cobra.Command{
		Use:   "print FILE",
		Short: "Print a CSV or JSON file as a text table",
		Example: `  recordview print inventory.csv --sort qty:desc --group status --agg qty=sum
  recordview print customers.json --where "credit_limit|>|10000" --hide since`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := root.buildLogger(zapcore.WarnLevel)
			if err != nil {
				return err
			}

			m := datasources.NewManager(logger)
			name, err := addFileSource(m, args[0])
			if err != nil {
				return err
			}
			table, err := m.LoadData(name)
			if err != nil {
				return err
			}

			display := aggregates.DefaultOptions()
			if o.currency != "" {
				display.CurrencySymbol = o.currency
			}
			tv := engine.NewTableView(name, table, display, logger)
			if err := o.apply(tv); err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), tv.ToAscii())
			return err
		},
	}
	f := cmd.Flags()
	f.StringArrayVar(&o.sorts, "sort", nil, "Sort key column[:asc|desc[:compare[:first|last]]] (repeatable)")
	f.StringArrayVar(&o.filters, "filter", nil, "Simple filter column=text (repeatable)")
	f.StringArrayVar(&o.wheres, "where", nil, "Advanced filter column|operator|value (repeatable)")
	f.StringArrayVar(&o.hidden, "hide", nil, "Hide a column (repeatable)")
	f.StringArrayVar(&o.aggs, "agg", nil, "Footer aggregate column=reducer (repeatable)")
	f.StringVar(&o.search, "search", "", "Search text matched against all columns")
	f.StringVar(&o.group, "group", "", "Group by column")
	f.StringVar(&o.subGroup, "subgroup", "", "Subgroup by column")
	f.StringVar(&o.currency, "currency", "", "Currency symbol for aggregates")
	f.StringVar(&o.views, "views", "", "YAML file of saved views to import")
	f.StringVar(&o.view, "view", "", "Name of an imported view to apply before the other flags")
	return cmd
}

// addFileSource registers path as a source, typed by its extension.
func addFileSource(m *datasources.Manager, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(abs))
	var sourceType string
	switch ext {
	case ".csv", ".tsv":
		sourceType = "csv"
	case ".json":
		sourceType = "json"
	default:
		return "", fmt.Errorf("unsupported file type %q", ext)
	}
	source := datasources.DataSource{
		Name:       strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs)),
		SourceType: sourceType,
		Config:     map[string]string{"file_path": abs},
	}
	if ext == ".tsv" {
		source.Config["delimiter"] = "\t"
	}
	return source.Name, m.AddSource(source)
}

func (o *printOptions) apply(tv *engine.TableView) error {
	if o.views != "" {
		if err := importViews(tv, o.views); err != nil {
			return err
		}
	}
	if o.view != "" {
		if _, err := tv.Store().SwitchTo(o.view); err != nil {
			return err
		}
	}

	if len(o.sorts) > 0 {
		keys := make([]query.SortKey, 0, len(o.sorts))
		for _, s := range o.sorts {
			k, err := query.ParseSortKey(s)
			if err != nil {
				return err
			}
			keys = append(keys, k)
		}
		tv.SetSorts(keys)
	}
	for _, f := range o.filters {
		col, value, ok := strings.Cut(f, "=")
		if !ok {
			return fmt.Errorf("filter %q must be column=text", f)
		}
		tv.SetFilter(col, value)
	}
	var advanced []query.AdvancedFilter
	for _, w := range o.wheres {
		f, err := query.ParseAdvancedFilter(w)
		if err != nil {
			return err
		}
		advanced = append(advanced, f)
	}
	tv.SetAdvancedFilters(advanced)
	tv.SetSearch(o.search)
	for _, col := range o.hidden {
		tv.SetHidden(col, true)
	}
	if o.group != "" || o.subGroup != "" {
		tv.SetGroup(o.group, o.subGroup)
	}
	for _, a := range o.aggs {
		col, name, ok := strings.Cut(a, "=")
		if !ok {
			return fmt.Errorf("aggregate %q must be column=reducer", a)
		}
		agg, err := query.ParseAggregate(name)
		if err != nil {
			return err
		}
		tv.SetAggregate(col, agg)
	}
	return nil
}

func importViews(tv *engine.TableView, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open views: %w", err)
	}
	defer f.Close()
	_, err = tv.Store().Import(f)
	return err
}
