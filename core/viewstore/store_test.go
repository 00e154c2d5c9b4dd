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

package viewstore

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/recordview/recordview/core/query"
)

var testColumns = []string{"id", "name", "qty", "status"}

func newTestStore() *Store {
	return NewStore(testColumns, nil)
}

func sortedByQty(cfg *query.Config) {
	cfg.Sorts = append(cfg.Sorts, query.SortKey{
		Column: "qty", Direction: query.Desc, CompareType: query.CompareNumeric, NullPlacement: query.NullsLast,
	})
}

func TestNewStoreStartsOnDefault(t *testing.T) {
	s := newTestStore()
	require.Equal(t, DefaultViewName, s.Active())
	require.False(t, s.Dirty())
	require.Equal(t, testColumns, s.Live().ColOrder)

	st := s.Views()
	require.Len(t, st.Views, 1)
	require.True(t, st.Views[0].Default)
	require.True(t, st.Views[0].Active)
}

func TestDirtyDetection(t *testing.T) {
	s := newTestStore()

	s.Mutate(sortedByQty)
	require.True(t, s.Dirty(), "adding a sort key must make the view dirty")

	require.NoError(t, s.Save("By qty"))
	require.False(t, s.Dirty(), "dirty must be false right after save")

	s.Mutate(func(cfg *query.Config) { cfg.SetFilter("name", "bolt") })
	require.True(t, s.Dirty())

	require.NoError(t, s.Update())
	require.False(t, s.Dirty(), "dirty must be false right after update")

	// An empty filter value is no constraint and must not count as a change.
	s.Mutate(func(cfg *query.Config) { cfg.Filters["status"] = "" })
	require.False(t, s.Dirty())

	s.Mutate(func(cfg *query.Config) { cfg.SetGroup("status", "") })
	require.True(t, s.Dirty())
	s.Revert()
	require.False(t, s.Dirty())
}

func TestSaveNameConflicts(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.Save("Mine"))

	for _, name := range []string{DefaultViewName, "Mine"} {
		live := s.Live()
		err := s.Save(name)
		require.ErrorIs(t, err, ErrNameConflict, name)
		require.Equal(t, "Mine", s.Active(), "failed save must not change the active view")
		require.Empty(t, cmp.Diff(live, s.Live(), cmpopts.EquateEmpty()))
	}

	// Names are case-sensitive.
	require.NoError(t, s.Save("mine"))
	require.NoError(t, s.Save("default"))

	require.ErrorIs(t, s.Save("  "), ErrInvalidName)
}

func TestUpdateDefaultIsRejected(t *testing.T) {
	s := newTestStore()
	s.Mutate(sortedByQty)
	require.ErrorIs(t, s.Update(), ErrImmutableView)
	require.True(t, s.Dirty(), "rejected update must leave the live configuration alone")
}

func TestRename(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.Save("A"))
	require.NoError(t, s.Save("B"))

	require.ErrorIs(t, s.Rename("A", "B"), ErrNameConflict)
	require.ErrorIs(t, s.Rename("A", DefaultViewName), ErrNameConflict)
	require.ErrorIs(t, s.Rename(DefaultViewName, "X"), ErrImmutableView)
	require.ErrorIs(t, s.Rename("missing", "X"), ErrViewNotFound)

	require.NoError(t, s.Rename("B", "C"))
	require.Equal(t, "C", s.Active(), "active pointer follows the rename")
	require.Equal(t, []string{"A", "C"}, s.Names())
}

func TestDeleteActiveFallsBackToDefault(t *testing.T) {
	s := newTestStore()
	s.Mutate(sortedByQty)
	require.NoError(t, s.Save("By qty"))

	require.ErrorIs(t, s.Delete(DefaultViewName), ErrImmutableView)
	require.ErrorIs(t, s.Delete("nope"), ErrViewNotFound)

	require.NoError(t, s.Delete("By qty"))
	require.Equal(t, DefaultViewName, s.Active())
	require.Empty(t, s.Live().Sorts)
	require.False(t, s.Dirty())
}

func TestDeleteInactiveKeepsLive(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.Save("A"))
	s.Mutate(sortedByQty)
	require.NoError(t, s.Save("B"))
	s.Mutate(func(cfg *query.Config) { cfg.SetFilter("name", "x") })

	require.NoError(t, s.Delete("A"))
	require.Equal(t, "B", s.Active())
	require.True(t, s.Dirty())
	require.Equal(t, "x", s.Live().Filters["name"])
}

func TestViewRoundTrip(t *testing.T) {
	s := newTestStore()
	s.Mutate(func(cfg *query.Config) {
		sortedByQty(cfg)
		cfg.SetFilter("name", "bolt")
		cfg.SetGroup("status", "name")
		cfg.Hidden = map[string]bool{"qty": true}
		cfg.ColOrder = []string{"id", "status", "name", "qty"}
	})
	want := s.Live()
	require.NoError(t, s.Save("Mine"))

	g, err := s.SwitchTo(DefaultViewName)
	require.NoError(t, err)
	require.Nil(t, g)
	require.Empty(t, s.Live().Sorts)

	g, err = s.SwitchTo("Mine")
	require.NoError(t, err)
	require.Nil(t, g)
	if diff := cmp.Diff(want, s.Live(), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSwitchGuard(t *testing.T) {
	setup := func(t *testing.T) *Store {
		s := newTestStore()
		require.NoError(t, s.Save("A"))
		require.NoError(t, s.Save("B"))
		_, err := s.SwitchTo("A")
		require.NoError(t, err)
		s.Mutate(sortedByQty)
		return s
	}

	t.Run("dirty switch is blocked", func(t *testing.T) {
		s := setup(t)
		g, err := s.SwitchTo("B")
		require.NoError(t, err)
		require.NotNil(t, g)
		require.True(t, g.CanSave)
		require.Equal(t, "A", s.Active())
		require.True(t, s.Dirty())
		require.Same(t, g, s.Pending())
	})

	t.Run("save and switch", func(t *testing.T) {
		s := setup(t)
		g, _ := s.SwitchTo("B")
		require.NoError(t, g.Resolve(ResolveSave))
		require.Equal(t, "B", s.Active())
		require.Empty(t, s.Live().Sorts)
		snap, err := s.Snapshot("A")
		require.NoError(t, err)
		require.Len(t, snap.Sorts, 1, "changes were saved into A")
		require.Nil(t, s.Pending())
	})

	t.Run("discard and switch", func(t *testing.T) {
		s := setup(t)
		g, _ := s.SwitchTo("B")
		require.NoError(t, g.Resolve(ResolveDiscard))
		require.Equal(t, "B", s.Active())
		snap, _ := s.Snapshot("A")
		require.Empty(t, snap.Sorts, "changes were discarded")
	})

	t.Run("cancel", func(t *testing.T) {
		s := setup(t)
		g, _ := s.SwitchTo("B")
		require.NoError(t, g.Resolve(ResolveCancel))
		require.Equal(t, "A", s.Active())
		require.True(t, s.Dirty())
		require.Len(t, s.Live().Sorts, 1)
		require.Nil(t, s.Pending())
	})

	t.Run("stale guard", func(t *testing.T) {
		s := setup(t)
		g, _ := s.SwitchTo("B")
		s.Mutate(func(cfg *query.Config) { cfg.SetFilter("name", "x") })
		require.ErrorIs(t, g.DiscardAndSwitch(), ErrStaleGuard)
		require.Equal(t, "A", s.Active())
		require.Nil(t, s.Pending())
	})

	t.Run("save from Default is refused", func(t *testing.T) {
		s := newTestStore()
		require.NoError(t, s.Save("A"))
		_, err := s.SwitchTo(DefaultViewName)
		require.NoError(t, err)
		s.Mutate(sortedByQty)

		g, err := s.SwitchTo("A")
		require.NoError(t, err)
		require.False(t, g.CanSave)
		require.ErrorIs(t, g.SaveAndSwitch(), ErrImmutableView)
		require.Equal(t, DefaultViewName, s.Active())
		require.True(t, s.Dirty())
	})

	t.Run("unknown target", func(t *testing.T) {
		s := setup(t)
		_, err := s.SwitchTo("nope")
		require.ErrorIs(t, err, ErrViewNotFound)
	})
}

func TestReset(t *testing.T) {
	s := newTestStore()
	s.Mutate(sortedByQty)
	require.NoError(t, s.Save("A"))

	s.Reset([]string{"code", "title"})
	require.Equal(t, DefaultViewName, s.Active())
	require.Empty(t, s.Names())
	require.Equal(t, []string{"code", "title"}, s.Live().ColOrder)
	require.False(t, s.Dirty())
}

func TestPrimaryKeyStaysVisibleAndFirst(t *testing.T) {
	s := newTestStore()
	s.SetLive(query.Config{
		ColOrder: []string{"qty", "id", "name"},
		Hidden:   map[string]bool{"id": true},
	})
	live := s.Live()
	require.Equal(t, []string{"id", "qty", "name", "status"}, live.ColOrder)
	require.False(t, live.Hidden["id"])
}

func TestExportImport(t *testing.T) {
	s := newTestStore()
	s.Mutate(sortedByQty)
	require.NoError(t, s.Save("By qty"))
	s.Mutate(func(cfg *query.Config) { cfg.SetGroup("status", "") })
	require.NoError(t, s.Save("By status"))

	var buf bytes.Buffer
	require.NoError(t, s.Export(&buf))
	require.Contains(t, buf.String(), "By qty")
	require.NotContains(t, buf.String(), "name: Default")

	other := newTestStore()
	n, err := other.Import(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, []string{"By qty", "By status"}, other.Names())
	require.Equal(t, DefaultViewName, other.Active())

	got, err := other.Snapshot("By status")
	require.NoError(t, err)
	want, _ := s.Snapshot("By status")
	require.Empty(t, cmp.Diff(want, got, cmpopts.EquateEmpty()))

	// Importing the same document again conflicts and commits nothing.
	_, err = other.Import(bytes.NewReader(buf.Bytes()))
	require.True(t, errors.Is(err, ErrNameConflict))
	require.Len(t, other.Names(), 2)

	_, err = other.Import(strings.NewReader("views:\n  - name: Default\n"))
	require.ErrorIs(t, err, ErrNameConflict)
}

func viewIDs(s *Store) []string {
	var ids []string
	for _, v := range s.Views().Views {
		if !v.Default {
			ids = append(ids, v.ID)
		}
	}
	return ids
}

func TestImportMintsFreshIDs(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.Save("Mine"))

	var buf bytes.Buffer
	require.NoError(t, s.Export(&buf))
	require.NoError(t, s.Rename("Mine", "Mine (old)"))

	n, err := s.Import(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, []string{"Mine (old)", "Mine"}, s.Names())

	ids := viewIDs(s)
	require.Len(t, ids, 2)
	require.NotEqual(t, ids[0], ids[1])

	name, err := s.NameByID(ids[0])
	require.NoError(t, err)
	require.Equal(t, "Mine (old)", name)
	name, err = s.NameByID(ids[1])
	require.NoError(t, err)
	require.Equal(t, "Mine", name)

	// Duplicates within one document are split too.
	doc := "views:\n  - id: same\n    name: A\n  - id: same\n    name: B\n"
	_, err = s.Import(strings.NewReader(doc))
	require.NoError(t, err)
	ids = viewIDs(s)
	require.Len(t, ids, 4)
	require.Equal(t, "same", ids[2])
	require.NotEqual(t, ids[2], ids[3])
}

func TestNameByIDFollowsRename(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.Save("Draft"))
	id := viewIDs(s)[0]
	require.NotEmpty(t, id)

	require.NoError(t, s.Rename("Draft", "Final"))
	name, err := s.NameByID(id)
	require.NoError(t, err)
	require.Equal(t, "Final", name)

	require.NoError(t, s.Delete("Final"))
	_, err = s.NameByID(id)
	require.ErrorIs(t, err, ErrViewNotFound)
	_, err = s.NameByID("")
	require.ErrorIs(t, err, ErrViewNotFound)
}
