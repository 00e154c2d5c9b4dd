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
package rendering

import (
	"strings"
	"testing"

	"github.com/recordview/recordview/core/views"
)

func TestRenderViewsBar(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}

	bar := views.ViewsBar{
		Dataset:   "items",
		ReturnURL: "/table?dataset=items",
		Pills: []views.ViewPill{
			{Name: "Default", Default: true},
			{ID: "6f1c", Name: "By <qty>", Active: true},
		},
		Active:    "By <qty>",
		ActiveID:  "6f1c",
		Modified:  true,
		CanUpdate: true,
		CanEdit:   true,
		Pending:   &views.PendingSwitch{From: "By <qty>", To: "Default", CanSave: true},
	}
	var sb strings.Builder
	if err := r.RenderViewsBar(&sb, bar); err != nil {
		t.Fatalf("RenderViewsBar() error = %v", err)
	}
	out := sb.String()

	for _, want := range []string{
		`name="name" value="Default"`,
		`name="id" value="6f1c"`,
		"By &lt;qty&gt;",
		"MODIFIED",
		`value="save"`,
		"has unsaved changes",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("views bar missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "By <qty>") {
		t.Errorf("view name was not escaped:\n%s", out)
	}
	if strings.Contains(out, "<html") {
		t.Errorf("partial rendered the whole page:\n%s", out)
	}
}

func TestRenderViewsBarDefaultOnly(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatal(err)
	}
	bar := views.ViewsBar{
		Dataset: "items",
		Pills:   []views.ViewPill{{Name: "Default", Default: true, Active: true}},
		Active:  "Default",
	}
	var sb strings.Builder
	if err := r.RenderViewsBar(&sb, bar); err != nil {
		t.Fatal(err)
	}
	out := sb.String()
	for _, absent := range []string{"MODIFIED", "/views/rename", "/views/delete", "/views/update", "has unsaved changes"} {
		if strings.Contains(out, absent) {
			t.Errorf("views bar for a clean Default view contains %q", absent)
		}
	}
}
