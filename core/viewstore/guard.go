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
	"fmt"
)

// Resolution is the user's answer to a switch guard.
type Resolution string

const (
	ResolveSave    Resolution = "save"
	ResolveDiscard Resolution = "discard"
	ResolveCancel  Resolution = "cancel"
)

// ParseResolution parses a resolution name.
func ParseResolution(s string) (Resolution, error) {
	switch r := Resolution(s); r {
	case ResolveSave, ResolveDiscard, ResolveCancel:
		return r, nil
	}
	return "", fmt.Errorf("unknown resolution %q", s)
}

// SwitchGuard is issued when switching away from a dirty view. It is only
// valid until the store changes.
type SwitchGuard struct {
	store      *Store
	From       string
	To         string
	CanSave    bool // false when the active view is Default
	generation uint64
}

func (g *SwitchGuard) check() error {
	if g.store.generation != g.generation {
		return ErrStaleGuard
	}
	return nil
}

// SaveAndSwitch stores the live configuration into the active view and
// then switches. Saving into Default is refused and nothing changes.
func (g *SwitchGuard) SaveAndSwitch() error {
	if err := g.check(); err != nil {
		return err
	}
	if !g.CanSave {
		return fmt.Errorf("%w: save changes as a new view instead", ErrImmutableView)
	}
	if _, err := g.store.Snapshot(g.To); err != nil {
		return err
	}
	if err := g.store.Update(); err != nil {
		return err
	}
	g.store.apply(g.To)
	return nil
}

// DiscardAndSwitch drops the live changes and switches.
func (g *SwitchGuard) DiscardAndSwitch() error {
	if err := g.check(); err != nil {
		return err
	}
	if _, err := g.store.Snapshot(g.To); err != nil {
		return err
	}
	g.store.apply(g.To)
	return nil
}

// Cancel keeps the active view and its dirty live configuration.
func (g *SwitchGuard) Cancel() {
	if g.store.pending == g {
		g.store.pending = nil
	}
}

// Resolve dispatches a resolution.
func (g *SwitchGuard) Resolve(r Resolution) error {
	switch r {
	case ResolveSave:
		return g.SaveAndSwitch()
	case ResolveDiscard:
		return g.DiscardAndSwitch()
	case ResolveCancel:
		g.Cancel()
		return nil
	}
	return fmt.Errorf("unknown resolution %q", r)
}
