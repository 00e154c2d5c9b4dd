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

// Package viewstore keeps the named display configurations of one record
// table session and tracks whether the live configuration has drifted from
// the active one.
package viewstore

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/recordview/recordview/core/columns"
	"github.com/recordview/recordview/core/query"
)

// DefaultViewName is the reserved, immutable view: all columns, no sort,
// no filter, no grouping.
const DefaultViewName = "Default"

var (
	// ErrNameConflict is returned when a view name is reserved or taken.
	ErrNameConflict = errors.New("view name conflict")
	// ErrInvalidName is returned for blank view names.
	ErrInvalidName = errors.New("invalid view name")
	// ErrImmutableView is returned when updating, renaming or deleting Default.
	ErrImmutableView = errors.New("view is immutable")
	// ErrViewNotFound is returned for unknown view names.
	ErrViewNotFound = errors.New("view not found")
	// ErrStaleGuard is returned when a switch guard is resolved after the
	// store changed.
	ErrStaleGuard = errors.New("switch guard is stale")
)

// View is a named configuration snapshot.
type View struct {
	ID     string
	Name   string
	Config query.Config
}

// ViewInfo is one pill of the views bar.
type ViewInfo struct {
	ID      string
	Name    string
	Active  bool
	Default bool
}

// Status is what the views bar shows.
type Status struct {
	Views  []ViewInfo
	Active string
	Dirty  bool
}

// Store holds the views of one table session together with the live
// configuration. It is not safe for concurrent use.
type Store struct {
	logger     *zap.Logger
	colOrder   []string
	views      []*View
	active     string
	live       query.Config
	generation uint64
	pending    *SwitchGuard
}

// NewStore creates a store for a table whose columns are colOrder, with
// Default active.
func NewStore(colOrder []string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{logger: logger}
	s.Reset(colOrder)
	return s
}

// Reset drops every view, activates Default and resets the live
// configuration. Used when the session switches to a different dataset.
func (s *Store) Reset(colOrder []string) {
	s.colOrder = slices.Clone(colOrder)
	s.views = nil
	s.active = DefaultViewName
	s.live = s.defaultConfig()
	s.pending = nil
	s.generation++
	s.logger.Debug("view store reset", zap.Int("columns", len(colOrder)))
}

func (s *Store) defaultConfig() query.Config {
	return query.DefaultConfig(s.colOrder)
}

// normalize brings cfg into canonical form so that equal configurations
// compare equal: known columns only, primary key first and visible, no
// empty filters, no blank sort keys.
func (s *Store) normalize(cfg query.Config) query.Config {
	out := cfg.Clone()
	out.ColOrder = columns.Reconcile(out.ColOrder, s.colOrder)
	if len(out.ColOrder) > 0 {
		delete(out.Hidden, out.ColOrder[0])
	}
	for k, v := range out.Filters {
		if v == "" {
			delete(out.Filters, k)
		}
	}
	out.Sorts = slices.DeleteFunc(out.Sorts, func(k query.SortKey) bool { return k.Column == "" })
	out.SetGroup(out.GroupColumn, out.SubGroupColumn)
	return out
}

var configEqual = cmpopts.EquateEmpty()

func equalConfig(a, b query.Config) bool {
	return cmp.Equal(a, b, configEqual)
}

func (s *Store) find(name string) (int, *View) {
	for i, v := range s.views {
		if v.Name == name {
			return i, v
		}
	}
	return -1, nil
}

func (s *Store) findID(id string) *View {
	for _, v := range s.views {
		if v.ID == id {
			return v
		}
	}
	return nil
}

// NameByID returns the current name of the user view with the given ID.
// IDs survive renames, so forms address views by ID rather than name.
func (s *Store) NameByID(id string) (string, error) {
	if v := s.findID(id); v != nil {
		return v.Name, nil
	}
	return "", fmt.Errorf("%w: id %q", ErrViewNotFound, id)
}

// Live returns a copy of the live configuration.
func (s *Store) Live() query.Config {
	return s.live.Clone()
}

// SetLive replaces the live configuration.
func (s *Store) SetLive(cfg query.Config) {
	next := s.normalize(cfg)
	if equalConfig(next, s.live) {
		return
	}
	s.live = next
	s.generation++
}

// Mutate applies fn to a copy of the live configuration and stores it.
func (s *Store) Mutate(fn func(cfg *query.Config)) {
	cfg := s.live.Clone()
	fn(&cfg)
	s.SetLive(cfg)
}

// Active returns the name of the active view.
func (s *Store) Active() string {
	return s.active
}

// Snapshot returns the stored configuration of a view.
func (s *Store) Snapshot(name string) (query.Config, error) {
	if name == DefaultViewName {
		return s.defaultConfig(), nil
	}
	if _, v := s.find(name); v != nil {
		return v.Config.Clone(), nil
	}
	return query.Config{}, fmt.Errorf("%w: %q", ErrViewNotFound, name)
}

// Dirty reports whether the live configuration differs from the active
// view's snapshot.
func (s *Store) Dirty() bool {
	snap, err := s.Snapshot(s.active)
	if err != nil {
		return true
	}
	return !equalConfig(s.normalize(snap), s.live)
}

func (s *Store) checkNewName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name must not be blank", ErrInvalidName)
	}
	if name == DefaultViewName {
		return fmt.Errorf("%w: %q is reserved", ErrNameConflict, name)
	}
	if _, v := s.find(name); v != nil {
		return fmt.Errorf("%w: %q already exists", ErrNameConflict, name)
	}
	return nil
}

// Save stores the live configuration as a new view and activates it.
func (s *Store) Save(name string) error {
	if err := s.checkNewName(name); err != nil {
		return err
	}
	s.views = append(s.views, &View{
		ID:     uuid.NewString(),
		Name:   name,
		Config: s.live.Clone(),
	})
	s.active = name
	s.generation++
	s.logger.Debug("view saved", zap.String("view", name))
	return nil
}

// Update overwrites the active view with the live configuration.
func (s *Store) Update() error {
	if s.active == DefaultViewName {
		return fmt.Errorf("%w: cannot update %q", ErrImmutableView, DefaultViewName)
	}
	_, v := s.find(s.active)
	if v == nil {
		return fmt.Errorf("%w: %q", ErrViewNotFound, s.active)
	}
	v.Config = s.live.Clone()
	s.generation++
	s.logger.Debug("view updated", zap.String("view", v.Name))
	return nil
}

// Rename changes a view's name; the active pointer follows.
func (s *Store) Rename(oldName, newName string) error {
	if oldName == DefaultViewName {
		return fmt.Errorf("%w: cannot rename %q", ErrImmutableView, DefaultViewName)
	}
	_, v := s.find(oldName)
	if v == nil {
		return fmt.Errorf("%w: %q", ErrViewNotFound, oldName)
	}
	if oldName == newName {
		return nil
	}
	if err := s.checkNewName(newName); err != nil {
		return err
	}
	v.Name = newName
	if s.active == oldName {
		s.active = newName
	}
	s.generation++
	s.logger.Debug("view renamed", zap.String("view", oldName), zap.String("to", newName))
	return nil
}

// Delete removes a view. Deleting the active view activates Default and
// resets the live configuration to Default's snapshot.
func (s *Store) Delete(name string) error {
	if name == DefaultViewName {
		return fmt.Errorf("%w: cannot delete %q", ErrImmutableView, DefaultViewName)
	}
	i, v := s.find(name)
	if v == nil {
		return fmt.Errorf("%w: %q", ErrViewNotFound, name)
	}
	s.views = slices.Delete(s.views, i, i+1)
	if s.active == name {
		s.active = DefaultViewName
		s.live = s.defaultConfig()
	}
	s.generation++
	s.logger.Debug("view deleted", zap.String("view", name))
	return nil
}

// Revert discards live changes, restoring the active view's snapshot.
func (s *Store) Revert() {
	snap, err := s.Snapshot(s.active)
	if err != nil {
		snap = s.defaultConfig()
		s.active = DefaultViewName
	}
	s.SetLive(snap)
}

// SwitchTo activates target. When the live configuration is dirty nothing
// changes and a guard is returned; the caller resolves it by saving,
// discarding or cancelling.
func (s *Store) SwitchTo(target string) (*SwitchGuard, error) {
	if _, err := s.Snapshot(target); err != nil {
		return nil, err
	}
	if s.Dirty() {
		g := &SwitchGuard{
			store:      s,
			From:       s.active,
			To:         target,
			CanSave:    s.active != DefaultViewName,
			generation: s.generation,
		}
		s.pending = g
		s.logger.Debug("switch guarded", zap.String("view", s.active), zap.String("target", target))
		return g, nil
	}
	s.apply(target)
	return nil, nil
}

// apply activates target and loads its snapshot into the live configuration.
func (s *Store) apply(target string) {
	snap, err := s.Snapshot(target)
	if err != nil {
		return
	}
	s.active = target
	s.live = s.normalize(snap)
	s.pending = nil
	s.generation++
	s.logger.Debug("view switched", zap.String("view", target))
}

// Pending returns the unresolved switch guard, if any.
func (s *Store) Pending() *SwitchGuard {
	if s.pending != nil && s.pending.generation != s.generation {
		s.pending = nil
	}
	return s.pending
}

// Views returns the views bar status. Default is always listed first.
func (s *Store) Views() Status {
	st := Status{
		Views:  make([]ViewInfo, 0, len(s.views)+1),
		Active: s.active,
		Dirty:  s.Dirty(),
	}
	st.Views = append(st.Views, ViewInfo{
		Name:    DefaultViewName,
		Active:  s.active == DefaultViewName,
		Default: true,
	})
	for _, v := range s.views {
		st.Views = append(st.Views, ViewInfo{ID: v.ID, Name: v.Name, Active: v.Name == s.active})
	}
	return st
}

// Names returns the user view names in creation order.
func (s *Store) Names() []string {
	names := make([]string, len(s.views))
	for i, v := range s.views {
		names[i] = v.Name
	}
	return names
}
