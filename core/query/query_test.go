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
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func parse(t *testing.T, raw string) *Query {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("url.Parse(%q): %v", raw, err)
	}
	return NewQuery(u)
}

func TestNewQuery(t *testing.T) {
	q := parse(t, "/table?dataset=items&cols=id,name,qty,status&hidden=status"+
		"&sort=qty:desc:numeric:first,name&group=status&filter:name=bolt"+
		"&where=qty%7Cgt%7C3&q=steel&agg:qty=sum&agg:name=bogus&limit=50")

	if q.Dataset != "items" || !q.HasConfig || q.Limit != 50 || q.Search != "steel" {
		t.Fatalf("unexpected header fields: %+v", q)
	}

	want := Config{
		ColOrder: []string{"id", "name", "qty", "status"},
		Hidden:   map[string]bool{"status": true},
		Sorts: []SortKey{
			{Column: "qty", Direction: Desc, CompareType: CompareNumeric, NullPlacement: NullsFirst},
			{Column: "name", Direction: Asc, CompareType: CompareAuto, NullPlacement: NullsLast},
		},
		Filters:     map[string]string{"name": "bolt"},
		GroupColumn: "status",
	}
	if diff := cmp.Diff(want, q.Config); diff != "" {
		t.Errorf("Config mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]AdvancedFilter{{Column: "qty", Operator: OpGt, Value: "3"}}, q.Advanced); diff != "" {
		t.Errorf("Advanced mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]AggregateType{"qty": AggSum}, q.Aggregates); diff != "" {
		t.Errorf("Aggregates mismatch (-want +got):\n%s", diff)
	}
}

func TestQueryURLRoundTrip(t *testing.T) {
	q := parse(t, "/table?dataset=items&cols=id,qty,name&sort=qty:asc:auto:last&group=status&subgroup=region&filter:name=a&where=name%7Ccontains%7Cx&agg:qty=median&limit=0")
	back := parse(t, q.ToURL())
	if diff := cmp.Diff(q, back, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWithSortToggled(t *testing.T) {
	q := parse(t, "/table?cols=id,qty")

	step := func(u string) *Query { return parse(t, u) }

	q1 := step(q.WithSortToggled("qty").String())
	if len(q1.Config.Sorts) != 1 || q1.Config.Sorts[0].Direction != Asc {
		t.Fatalf("first toggle: %+v", q1.Config.Sorts)
	}
	q2 := step(q1.WithSortToggled("qty").String())
	if len(q2.Config.Sorts) != 1 || q2.Config.Sorts[0].Direction != Desc {
		t.Fatalf("second toggle: %+v", q2.Config.Sorts)
	}
	q3 := step(q2.WithSortToggled("qty").String())
	if len(q3.Config.Sorts) != 0 {
		t.Fatalf("third toggle should remove key: %+v", q3.Config.Sorts)
	}
}

func TestWithColumnHiddenKeepsPrimaryKey(t *testing.T) {
	q := parse(t, "/table?cols=id,qty")
	got := parse(t, q.WithColumnHidden("id", true).String())
	if got.Config.Hidden["id"] {
		t.Error("primary key column was hidden")
	}
	got = parse(t, q.WithColumnHidden("qty", true).String())
	if !got.Config.Hidden["qty"] {
		t.Error("qty should be hidden")
	}
}

func TestGroupNormalization(t *testing.T) {
	q := parse(t, "/table?subgroup=region")
	if q.Config.SubGroupColumn != "" {
		t.Errorf("subgroup without group should be dropped, got %q", q.Config.SubGroupColumn)
	}
	q = parse(t, "/table?group=a&subgroup=a")
	if q.Config.SubGroupColumn != "" {
		t.Errorf("subgroup equal to group should be dropped")
	}
}

func TestParseSortKey(t *testing.T) {
	tests := []struct {
		in      string
		want    SortKey
		wantErr bool
	}{
		{in: "qty", want: SortKey{"qty", Asc, CompareAuto, NullsLast}},
		{in: "qty:DESC", want: SortKey{"qty", Desc, CompareAuto, NullsLast}},
		{in: "name:asc:length:first", want: SortKey{"name", Asc, CompareLength, NullsFirst}},
		{in: "", wantErr: true},
		{in: "qty:up", wantErr: true},
		{in: "qty:asc:weird", wantErr: true},
		{in: "qty:asc:auto:middle", wantErr: true},
		{in: "a:b:c:d:e", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseSortKey(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSortKey(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseSortKey(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseAdvancedFilter(t *testing.T) {
	f, err := ParseAdvancedFilter("price|>=|10|20")
	if err != nil {
		t.Fatalf("ParseAdvancedFilter: %v", err)
	}
	if f.Operator != OpGe || f.Value != "10|20" {
		t.Errorf("got %+v", f)
	}
	if _, err := ParseAdvancedFilter("price|between|1"); err == nil {
		t.Error("expected unknown operator error")
	}
	if _, err := ParseAdvancedFilter("price"); err == nil {
		t.Error("expected malformed filter error")
	}
}

func TestParseAggregate(t *testing.T) {
	if len(AllAggregates()) != 12 {
		t.Fatalf("expected twelve reducers, got %d", len(AllAggregates()))
	}
	for _, a := range AllAggregates() {
		got, err := ParseAggregate(string(a))
		if err != nil || got != a {
			t.Errorf("ParseAggregate(%q) = %v, %v", a, got, err)
		}
		if AggregateSymbol(a) == "" {
			t.Errorf("no symbol for %q", a)
		}
	}
	if got, _ := ParseAggregate(""); got != AggNone {
		t.Errorf("empty reducer should be none")
	}
}

func TestAddFilterFormFields(t *testing.T) {
	q := parse(t, "/table?dataset=items&where=qty%7Cgt%7C3&where_col=name&where_op=starts+with&where_val=Hex")
	want := []AdvancedFilter{
		{Column: "qty", Operator: OpGt, Value: "3"},
		{Column: "name", Operator: OpStartsWith, Value: "Hex"},
	}
	if diff := cmp.Diff(want, q.Advanced); diff != "" {
		t.Errorf("Advanced mismatch (-want +got):\n%s", diff)
	}

	bad := parse(t, "/table?where_col=name&where_op=like&where_val=x")
	if len(bad.Advanced) != 0 {
		t.Errorf("unknown operators must be skipped: %v", bad.Advanced)
	}
}

func TestTransientOnly(t *testing.T) {
	q := parse(t, "/table?dataset=items&cols=id,qty&sort=qty&filter:qty=3&q=bolt&agg:qty=sum&limit=10")
	got := parse(t, q.TransientOnly().ToURL())
	if got.HasConfig || len(got.Config.Sorts) != 0 || len(got.Config.Filters) != 0 {
		t.Errorf("configuration leaked into %q", q.TransientOnly().ToURL())
	}
	if got.Dataset != "items" || got.Search != "bolt" || got.Aggregates["qty"] != AggSum || got.Limit != 10 {
		t.Errorf("transient state lost: %+v", got)
	}
}

func TestHiddenParams(t *testing.T) {
	q := parse(t, "/table?dataset=items&q=bolt&limit=10")
	want := []Param{{Name: "dataset", Value: "items"}, {Name: "limit", Value: "10"}}
	if diff := cmp.Diff(want, q.HiddenParams("q")); diff != "" {
		t.Errorf("HiddenParams mismatch (-want +got):\n%s", diff)
	}
}
