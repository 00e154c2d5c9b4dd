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

package engine

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/recordview/recordview/core/aggregates"
	"github.com/recordview/recordview/core/grouping"
)

// ToAscii renders the render list of the session as a bordered text table:
// a header row, one line per group header, subgroup header and row, and an
// aggregate footer when any reducer is selected.
func (tv *TableView) ToAscii() string {
	visible := tv.VisibleColumns()
	items := tv.RenderList()
	summary := tv.Aggregates()

	header := make([]string, 0, len(visible)+1)
	header = append(header, "#")
	for _, key := range visible {
		label := key
		if d := tv.Schema().Get(key); d != nil {
			label = d.Label
		}
		header = append(header, label)
	}

	var body [][]string
	var banners []string // group lines, indexed parallel to body; "" for rows
	for _, it := range items {
		switch it.Kind {
		case grouping.KindGroup:
			banners = append(banners, fmt.Sprintf("%s (%d)", it.Label(), it.Count))
			body = append(body, nil)
		case grouping.KindSubGroup:
			banners = append(banners, fmt.Sprintf("  %s (%d)", it.Label(), it.Count))
			body = append(body, nil)
		default:
			cells := make([]string, 0, len(visible)+1)
			cells = append(cells, fmt.Sprintf("%d", it.Index))
			for _, key := range visible {
				cells = append(cells, it.Row.String(key))
			}
			banners = append(banners, "")
			body = append(body, cells)
		}
	}

	var footer []string
	if len(summary) > 0 {
		footer = make([]string, 0, len(visible)+1)
		footer = append(footer, "")
		for _, key := range visible {
			if r, ok := summary[key]; ok {
				footer = append(footer, aggregates.Describe(r))
			} else {
				footer = append(footer, "")
			}
		}
	}

	// Calculate column widths
	widths := make([]int, len(header))
	measure := func(cells []string) {
		for i, c := range cells {
			if n := utf8.RuneCountInString(c); n > widths[i] {
				widths[i] = n
			}
		}
	}
	measure(header)
	measure(footer)
	for _, cells := range body {
		measure(cells)
	}
	total := len(widths) + 1
	for _, w := range widths {
		total += w
	}

	var sb strings.Builder
	border := func() {
		sb.WriteString("+")
		for _, w := range widths {
			sb.WriteString(strings.Repeat("-", w))
			sb.WriteString("+")
		}
		sb.WriteString("\n")
	}
	line := func(cells []string) {
		sb.WriteString("|")
		for i, w := range widths {
			sb.WriteString(pad(cells[i], w))
			sb.WriteString("|")
		}
		sb.WriteString("\n")
	}

	border()
	line(header)
	border()
	for i, cells := range body {
		if cells == nil {
			sb.WriteString("|")
			sb.WriteString(pad(banners[i], total-2))
			sb.WriteString("|\n")
			continue
		}
		line(cells)
	}
	border()
	if footer != nil {
		line(footer)
		border()
	}
	return sb.String()
}

// pad left-aligns s in a field of width runes, truncating when needed.
func pad(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n > width {
		r := []rune(s)
		return string(r[:width])
	}
	return s + strings.Repeat(" ", width-n)
}
