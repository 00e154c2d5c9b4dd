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

package datasources

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/recordview/recordview/core/columns"
	"github.com/recordview/recordview/core/tables"
)

func demoDataDir(t *testing.T) string {
	t.Helper()
	_, currentFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("failed to get current file path")
	}
	return filepath.Join(filepath.Dir(currentFile), "..", "demo", "data")
}

func TestManagerLoadConfig(t *testing.T) {
	manager := NewManager(nil)
	if err := manager.LoadConfig(filepath.Join(demoDataDir(t), "data_sources.yaml")); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if diff := cmp.Diff([]string{"inventory", "customers"}, manager.GetSourceNames()); diff != "" {
		t.Errorf("source names mismatch (-want +got):\n%s", diff)
	}
	if manager.IsLoaded("inventory") {
		t.Error("inventory should not be loaded yet")
	}

	table, err := manager.LoadData("inventory")
	if err != nil {
		t.Fatalf("failed to load data: %v", err)
	}
	if table.Length() != 10 {
		t.Errorf("expected 10 rows, got %d", table.Length())
	}
	if !manager.IsLoaded("inventory") {
		t.Error("inventory should be loaded now")
	}

	schema := table.Schema()
	if got := schema.Get("code").Label; got != "Item Code" {
		t.Errorf("code label = %q, want Item Code", got)
	}
	if got := schema.Get("name").Width; got != 24 {
		t.Errorf("name width = %d, want 24", got)
	}
	wantTypes := map[string]columns.ValueType{
		"code":          columns.TypeText,
		"category":      columns.TypeCategory,
		"qty":           columns.TypeNumber,
		"unit_price":    columns.TypeCurrency,
		"status":        columns.TypeCategory,
		"last_received": columns.TypeDate,
	}
	for key, want := range wantTypes {
		if got := schema.TypeOf(key); got != want {
			t.Errorf("type of %s = %s, want %s", key, got, want)
		}
	}
	if diff := cmp.Diff([]string{"Active", "Inactive", "Discontinued"}, schema.Get("status").Options); diff != "" {
		t.Errorf("status options mismatch (-want +got):\n%s", diff)
	}

	// Same table on the second call.
	again, err := manager.LoadData("inventory")
	if err != nil {
		t.Fatalf("failed to load data: %v", err)
	}
	if again != table {
		t.Error("expected the cached table")
	}

	if diff := cmp.Diff([]string{"inventory"}, manager.GetLoadedSources()); diff != "" {
		t.Errorf("loaded sources mismatch (-want +got):\n%s", diff)
	}

	manager.InvalidateCache("inventory")
	if manager.IsLoaded("inventory") {
		t.Error("inventory should not be loaded after invalidation")
	}
}

func TestManagerLoadJSON(t *testing.T) {
	manager := NewManager(nil)
	if err := manager.LoadConfig(filepath.Join(demoDataDir(t), "data_sources.yaml")); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	table, err := manager.LoadData("customers")
	if err != nil {
		t.Fatalf("failed to load data: %v", err)
	}

	want := []string{"id", "name", "region", "credit_limit", "active", "since"}
	if diff := cmp.Diff(want, table.Schema().Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	if got := table.Schema().TypeOf("credit_limit"); got != columns.TypeCurrency {
		t.Errorf("credit_limit type = %s, want currency", got)
	}
	if got := table.Schema().TypeOf("region"); got != columns.TypeCategory {
		t.Errorf("region type = %s, want category", got)
	}

	rows := table.Rows()
	if got := rows[0].String("credit_limit"); got != "25000" {
		t.Errorf("credit_limit = %q, want 25000", got)
	}
	if !rows[3].IsEmpty("credit_limit") {
		t.Errorf("null should load as empty, got %q", rows[3].String("credit_limit"))
	}
	if got := rows[2].String("active"); got != "false" {
		t.Errorf("active = %q, want false", got)
	}
}

func TestManagerErrors(t *testing.T) {
	manager := NewManager(nil)
	if _, err := manager.LoadData("missing"); err == nil {
		t.Error("expected an error for an unknown source")
	}

	if err := manager.AddSource(DataSource{Name: "x", SourceType: "parquet"}); err != nil {
		t.Fatalf("AddSource() = %v", err)
	}
	if err := manager.AddSource(DataSource{Name: "x", SourceType: "csv"}); err == nil {
		t.Error("expected an error for a duplicate source")
	}
	if _, err := manager.LoadData("x"); err == nil {
		t.Error("expected an error for an unregistered source type")
	}
}

func TestManagerBadAnnotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "items.csv")
	if err := os.WriteFile(path, []byte("id,qty\n1,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	manager := NewManager(nil)
	err := manager.AddSource(DataSource{
		Name:       "items",
		SourceType: "csv",
		Config:     map[string]string{"file_path": path},
		Columns:    []ColumnAnnotation{{Key: "price", Label: "Price"}},
	})
	if err != nil {
		t.Fatalf("AddSource() = %v", err)
	}
	if _, err := manager.LoadData("items"); err == nil {
		t.Error("expected an error for an annotation on an unknown column")
	}
}

func TestRegisterTable(t *testing.T) {
	schema := columns.NewSchema(columns.NewDescriptor("id", "ID", columns.TypeText))
	dt := tables.NewDataTable(schema)
	dt.Append(tables.Row{"id": "1"})

	manager := NewManager(nil)
	if err := manager.RegisterTable(DataSource{Name: "mem", Title: "Memory"}, dt); err != nil {
		t.Fatalf("RegisterTable() = %v", err)
	}
	manager.InvalidateAllCaches()

	got, err := manager.LoadData("mem")
	if err != nil {
		t.Fatalf("LoadData() = %v", err)
	}
	if got != dt {
		t.Error("registered tables must survive cache invalidation")
	}
	if s := manager.GetSource("mem"); s.SourceType != SourceTypeMemory || s.DisplayTitle() != "Memory" {
		t.Errorf("unexpected source metadata: %+v", s)
	}
}

func TestEnrichSchema(t *testing.T) {
	schema := columns.NewSchema(
		columns.NewDescriptor("id", "", columns.TypeText),
		columns.NewDescriptor("amount", "", columns.TypeNumber),
	)
	enriched, err := EnrichSchema(schema, []ColumnAnnotation{{Key: "amount", Label: "Amount", Type: "currency"}})
	if err != nil {
		t.Fatalf("EnrichSchema() = %v", err)
	}
	if d := enriched.Get("amount"); d.Label != "Amount" || d.Type != columns.TypeCurrency {
		t.Errorf("annotation not applied: %+v", d)
	}
	if schema.Get("amount").Type != columns.TypeNumber {
		t.Error("EnrichSchema must not modify its input")
	}
	if _, err := EnrichSchema(schema, []ColumnAnnotation{{Key: "amount", Type: "blob"}}); err == nil {
		t.Error("expected an error for an unknown type")
	}
}

func TestParseJSONRecords(t *testing.T) {
	data := []byte(`[{"b": 1, "a": "x", "n": {"k": true}}, {"a": "y", "c": null}]`)
	keys, records, err := ParseJSONRecords(data, map[string]string{"primary_key": "a"})
	if err != nil {
		t.Fatalf("ParseJSONRecords() = %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c", "n"}, keys); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	if got := records[0]["b"]; got != "1" {
		t.Errorf("b = %q, want 1", got)
	}
	if got := records[1]["c"]; got != "" {
		t.Errorf("null = %q, want empty", got)
	}
	if _, _, err := ParseJSONRecords([]byte(`[1, 2]`), nil); err == nil {
		t.Error("expected an error for non-object records")
	}
	if _, _, err := ParseJSONRecords([]byte(`{"a": 1}`), nil); err == nil {
		t.Error("expected an error for a JSON object")
	}
}
