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
// Package rendering turns view models into HTML with safehtml templates.
package rendering

import (
	"embed"
	"fmt"
	"io"

	"github.com/google/safehtml/template"

	"github.com/recordview/recordview/core/views"
)

//go:embed templates/*
var templateFS embed.FS

const (
	tablePage   = "table.html"
	landingPage = "landing.html"
	viewsBar    = "viewsbar"
)

// Renderer writes the record table page, the dataset index and the views
// bar partial. The table page embeds the partial, so both always show the
// same forms.
type Renderer struct {
	table   *template.Template
	landing *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	trusted := template.TrustedFSFromEmbed(templateFS)

	table, err := template.New(tablePage).ParseFS(trusted, "templates/"+tablePage, "templates/viewsbar.html")
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", tablePage, err)
	}
	if table.Lookup(viewsBar) == nil {
		return nil, fmt.Errorf("parse %s: template %q is not defined", tablePage, viewsBar)
	}
	landing, err := template.New(landingPage).ParseFS(trusted, "templates/"+landingPage)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", landingPage, err)
	}
	return &Renderer{table: table, landing: landing}, nil
}

// Render writes the full table page.
func (r *Renderer) Render(w io.Writer, vm *views.TableViewModel) error {
	return r.table.Execute(w, vm)
}

// RenderViewsBar writes only the views bar and, while a switch is guarded,
// the unsaved-changes dialog.
func (r *Renderer) RenderViewsBar(w io.Writer, bar views.ViewsBar) error {
	return r.table.ExecuteTemplate(w, viewsBar, bar)
}

// RenderLanding writes the dataset index.
func (r *Renderer) RenderLanding(w io.Writer, vm views.LandingViewModel) error {
	return r.landing.Execute(w, vm)
}
