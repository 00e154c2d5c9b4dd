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

import "slices"

// Reorder moves fromKey to the position currently held by toKey.
// It works on the full column order, so hidden columns keep their relative
// position. The first (pinned) column can neither move nor be displaced.
// The input slice is never modified.
func Reorder(colOrder []string, fromKey, toKey string) []string {
	out := slices.Clone(colOrder)
	if fromKey == toKey || len(colOrder) == 0 {
		return out
	}
	if fromKey == colOrder[0] || toKey == colOrder[0] {
		return out
	}
	from := slices.Index(colOrder, fromKey)
	to := slices.Index(colOrder, toKey)
	if from < 0 || to < 0 {
		return out
	}
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, fromKey)
}

// SetHidden returns a copy of hidden with key hidden or shown.
// Hiding the first column of colOrder is a no-op.
func SetHidden(colOrder []string, hidden map[string]bool, key string, hide bool) map[string]bool {
	out := make(map[string]bool, len(hidden)+1)
	for k, v := range hidden {
		if v {
			out[k] = true
		}
	}
	if hide && len(colOrder) > 0 && colOrder[0] == key {
		return out
	}
	if hide {
		out[key] = true
	} else {
		delete(out, key)
	}
	return out
}

// VisibleColumns returns colOrder without the hidden keys, order preserved.
func VisibleColumns(colOrder []string, hidden map[string]bool) []string {
	visible := make([]string, 0, len(colOrder))
	for _, k := range colOrder {
		if !hidden[k] {
			visible = append(visible, k)
		}
	}
	return visible
}

// Reconcile aligns a stored column order with the current schema keys:
// unknown keys are dropped, new keys are appended, and the primary key is
// forced to the front.
func Reconcile(colOrder, schemaKeys []string) []string {
	if len(schemaKeys) == 0 {
		return nil
	}
	known := make(map[string]bool, len(schemaKeys))
	for _, k := range schemaKeys {
		known[k] = true
	}
	out := []string{schemaKeys[0]}
	seen := map[string]bool{schemaKeys[0]: true}
	for _, k := range colOrder {
		if known[k] && !seen[k] {
			out = append(out, k)
			seen[k] = true
		}
	}
	for _, k := range schemaKeys {
		if !seen[k] {
			out = append(out, k)
			seen[k] = true
		}
	}
	return out
}
