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
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/recordview/recordview/core/query"
)

const documentVersion = 1

// document is the YAML form of a store's user views.
type document struct {
	Version int       `yaml:"version"`
	Views   []viewDoc `yaml:"views"`
}

type viewDoc struct {
	ID     string       `yaml:"id,omitempty"`
	Name   string       `yaml:"name"`
	Config query.Config `yaml:"config"`
}

// Export writes the user views as a YAML document. Default is implied and
// never written.
func (s *Store) Export(w io.Writer) error {
	doc := document{Version: documentVersion}
	for _, v := range s.views {
		doc.Views = append(doc.Views, viewDoc{ID: v.ID, Name: v.Name, Config: v.Config.Clone()})
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("failed to encode views: %w", err)
	}
	return enc.Close()
}

// Import appends the views of a YAML document. Names follow the Save rules;
// if any view is rejected nothing is imported. A view whose ID is missing or
// already taken gets a fresh one. The active view and the live
// configuration are left unchanged.
func (s *Store) Import(r io.Reader) (int, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to decode views: %w", err)
	}
	if doc.Version > documentVersion {
		return 0, fmt.Errorf("unsupported views document version %d", doc.Version)
	}

	seen := make(map[string]bool, len(doc.Views))
	ids := make(map[string]bool, len(doc.Views))
	imported := make([]*View, 0, len(doc.Views))
	for _, vd := range doc.Views {
		if err := s.checkNewName(vd.Name); err != nil {
			return 0, err
		}
		if seen[vd.Name] {
			return 0, fmt.Errorf("%w: %q appears twice", ErrNameConflict, vd.Name)
		}
		seen[vd.Name] = true
		id := vd.ID
		if id == "" || ids[id] || s.findID(id) != nil {
			id = uuid.NewString()
		}
		ids[id] = true
		imported = append(imported, &View{ID: id, Name: vd.Name, Config: s.normalize(vd.Config)})
	}

	s.views = append(s.views, imported...)
	s.generation++
	s.logger.Debug("views imported", zap.Int("count", len(imported)))
	return len(imported), nil
}
