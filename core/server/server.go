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

// Package server hosts record table sessions over HTTP.
package server

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/recordview/recordview/core/aggregates"
	"github.com/recordview/recordview/core/engine"
	"github.com/recordview/recordview/core/query"
	"github.com/recordview/recordview/core/rendering"
	"github.com/recordview/recordview/core/viewstore"
	"github.com/recordview/recordview/core/views"
	"github.com/recordview/recordview/datasources"
)

// Options configures a Server.
type Options struct {
	Title        string
	Subtitle     string
	DefaultLimit int
	Display      aggregates.Options
}

// Server represents the application server with all its dependencies.
// It keeps one table session; opening another dataset resets it.
type Server struct {
	mu       sync.Mutex
	manager  *datasources.Manager
	renderer *rendering.Renderer
	opts     Options
	logger   *zap.Logger

	session *engine.TableView
	// flash is the error of the last view action, shown once
	flash string
}

// NewServer creates a new server over the datasets of manager.
func NewServer(manager *datasources.Manager, opts Options, logger *zap.Logger) (*Server, error) {
	renderer, err := rendering.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Display.CurrencySymbol == "" {
		opts.Display = aggregates.DefaultOptions()
	}
	return &Server{
		manager:  manager,
		renderer: renderer,
		opts:     opts,
		logger:   logger,
	}, nil
}

// TableHandlerResult represents the result of handling a table request
type TableHandlerResult struct {
	Error      error
	StatusCode int
	Message    string
}

// TimingCollector collects timing measurements for various operations
type TimingCollector struct {
	entries []views.TimingEntry
	start   time.Time
}

// NewTimingCollector creates a new timing collector
func NewTimingCollector() *TimingCollector {
	return &TimingCollector{start: time.Now()}
}

// Record records a timing entry
func (tc *TimingCollector) Record(operation string, duration time.Duration) {
	tc.entries = append(tc.entries, views.TimingEntry{
		Operation:  operation,
		DurationMs: fmt.Sprintf("%.2f", float64(duration.Microseconds())/1000.0),
	})
}

// Time runs fn and records its duration.
func (tc *TimingCollector) Time(operation string, fn func()) {
	start := time.Now()
	fn()
	tc.Record(operation, time.Since(start))
}

// GetEntries returns all timing entries
func (tc *TimingCollector) GetEntries() []views.TimingEntry {
	return tc.entries
}

// TotalMs returns total elapsed time in milliseconds as formatted string
func (tc *TimingCollector) TotalMs() string {
	return fmt.Sprintf("%.2f", float64(time.Since(tc.start).Microseconds())/1000.0)
}

// sessionFor returns the session showing dataset, loading the dataset and
// resetting the session when it showed another one. Callers hold s.mu.
func (s *Server) sessionFor(dataset string) (*engine.TableView, *datasources.DataSource, *TableHandlerResult) {
	if dataset == "" {
		return nil, nil, &TableHandlerResult{StatusCode: 400, Message: "dataset parameter is required"}
	}
	source := s.manager.GetSource(dataset)
	if source == nil {
		return nil, nil, &TableHandlerResult{StatusCode: 404, Message: fmt.Sprintf("dataset '%s' not found", dataset)}
	}
	table, err := s.manager.LoadData(dataset)
	if err != nil {
		return nil, nil, &TableHandlerResult{StatusCode: 500, Message: "failed to load dataset", Error: err}
	}

	switch {
	case s.session == nil:
		s.session = engine.NewTableView(dataset, table, s.opts.Display, s.logger)
	case s.session.Name() != dataset || s.session.Table() != table:
		s.session.ResetDataset(dataset, table)
		s.flash = ""
	}
	return s.session, source, nil
}

// HandleTableRequest processes a table request and writes the response
// Returns an error result if the request is invalid, nil on success
func (s *Server) HandleTableRequest(w io.Writer, requestURL *url.URL, setHeader func(key, value string)) *TableHandlerResult {
	timing := NewTimingCollector()

	var q *query.Query
	timing.Time("Parse Query", func() {
		q = query.NewQuery(requestURL)
	})
	if !requestURL.Query().Has("limit") {
		q.Limit = s.opts.DefaultLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tv, source, res := s.sessionFor(q.Dataset)
	if res != nil {
		return res
	}

	// The URL carries the live configuration when it has a column order;
	// otherwise the session keeps its own.
	if q.HasConfig {
		tv.SetConfig(q.Config)
	}
	tv.SetAdvancedFilters(q.Advanced)
	tv.SetSearch(q.Search)
	tv.SetAggregates(q.Aggregates)

	timing.Time("Filter", func() { tv.Filtered() })
	timing.Time("Sort", func() { tv.Sorted() })
	timing.Time("Group", func() { tv.RenderList() })
	timing.Time("Aggregate", func() { tv.Aggregates() })

	var vm *views.TableViewModel
	timing.Time("Build ViewModel", func() {
		vm = views.BuildViewModel(tv, q, source.DisplayTitle(), source.Description)
	})
	vm.Error, s.flash = s.flash, ""
	vm.RenderTimeMs = timing.TotalMs()
	vm.TimingBreakdown = timing.GetEntries()

	setHeader("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.Render(w, vm); err != nil {
		s.logger.Error("template rendering error", zap.Error(err))
		return &TableHandlerResult{Error: err}
	}
	return nil
}

// HandleLandingRequest processes the landing page request
func (s *Server) HandleLandingRequest(w io.Writer, setHeader func(key, value string)) error {
	setHeader("Content-Type", "text/html; charset=utf-8")

	vm := views.LandingViewModel{
		Title:    s.opts.Title,
		Subtitle: s.opts.Subtitle,
	}
	for _, name := range s.manager.GetSourceNames() {
		source := s.manager.GetSource(name)
		info := views.TableInfo{
			Name:        name,
			Title:       source.DisplayTitle(),
			Description: source.Description,
			URL:         "/table?dataset=" + url.QueryEscape(name),
			Categories:  source.Category,
		}
		if s.manager.IsLoaded(name) {
			if table, err := s.manager.LoadData(name); err == nil {
				info.Loaded = true
				info.RecordCount = table.Length()
				info.ColumnCount = len(table.Schema().Columns)
			}
		}
		vm.Tables = append(vm.Tables, info)
	}

	if err := s.renderer.RenderLanding(w, vm); err != nil {
		s.logger.Error("landing page rendering error", zap.Error(err))
		return err
	}
	return nil
}

// HandleViewAction applies a views bar action (save, update, rename,
// delete, revert, switch, resolve) and returns the URL to redirect to.
// Failed actions are reported on the next page.
func (s *Server) HandleViewAction(action string, form url.Values) (string, *TableHandlerResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dataset := form.Get("dataset")
	tv, _, res := s.sessionFor(dataset)
	if res != nil {
		return "", res
	}
	store := tv.Store()

	var (
		name string
		err  error
	)
	switch action {
	case "save":
		err = store.Save(form.Get("name"))
	case "update":
		err = store.Update()
	case "rename":
		if name, err = viewTarget(store, form); err == nil {
			err = store.Rename(name, form.Get("new_name"))
		}
	case "delete":
		if name, err = viewTarget(store, form); err == nil {
			err = store.Delete(name)
		}
	case "revert":
		store.Revert()
	case "switch":
		if name, err = viewTarget(store, form); err == nil {
			_, err = store.SwitchTo(name)
		}
	case "resolve":
		var r viewstore.Resolution
		if r, err = viewstore.ParseResolution(form.Get("resolution")); err == nil {
			if g := store.Pending(); g != nil {
				err = g.Resolve(r)
			} else {
				err = viewstore.ErrStaleGuard
			}
		}
	default:
		return "", &TableHandlerResult{StatusCode: 404, Message: fmt.Sprintf("unknown action '%s'", action)}
	}

	if err != nil {
		s.flash = actionMessage(action, err)
		s.logger.Warn("view action failed",
			zap.String("action", action), zap.String("dataset", dataset), zap.Error(err))
	} else {
		s.logger.Info("view action",
			zap.String("action", action), zap.String("dataset", dataset), zap.String("view", store.Active()))
	}
	return returnURL(form.Get("return"), dataset), nil
}

// viewTarget returns the name of the view a form addresses. User views are
// posted by ID so that a page rendered before a rename still reaches them;
// Default has no ID and is posted by name.
func viewTarget(store *viewstore.Store, form url.Values) (string, error) {
	if id := form.Get("id"); id != "" {
		return store.NameByID(id)
	}
	return form.Get("name"), nil
}

// HandleViewsBarRequest writes the views bar partial of dataset. It lets a
// page refresh its views without rerunning the table stages.
func (s *Server) HandleViewsBarRequest(w io.Writer, requestURL *url.URL, setHeader func(key, value string)) *TableHandlerResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	params := requestURL.Query()
	dataset := params.Get("dataset")
	tv, _, res := s.sessionFor(dataset)
	if res != nil {
		return res
	}
	bar := views.BuildViewsBar(tv.Store(), dataset, returnURL(params.Get("return"), dataset))

	setHeader("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.RenderViewsBar(w, bar); err != nil {
		s.logger.Error("views bar rendering error", zap.Error(err))
		return &TableHandlerResult{Error: err}
	}
	return nil
}

// actionMessage turns a view store error into a user message.
func actionMessage(action string, err error) string {
	switch {
	case errors.Is(err, viewstore.ErrNameConflict):
		return "A view with that name already exists."
	case errors.Is(err, viewstore.ErrInvalidName):
		return "View names must not be blank."
	case errors.Is(err, viewstore.ErrImmutableView):
		return "The Default view cannot be changed. Save your changes as a new view."
	case errors.Is(err, viewstore.ErrViewNotFound):
		return "That view no longer exists."
	case errors.Is(err, viewstore.ErrStaleGuard):
		return "The view changed in the meantime. Try switching again."
	}
	return fmt.Sprintf("%s failed: %v", action, err)
}

// returnURL keeps redirects on the table page of the same dataset.
func returnURL(raw, dataset string) string {
	if u, err := url.Parse(raw); err == nil && u.Path == "/table" && u.Host == "" && u.Scheme == "" &&
		u.Query().Get("dataset") == dataset {
		return u.String()
	}
	return "/table?dataset=" + url.QueryEscape(dataset)
}

// HandleExport writes the views of dataset as YAML.
func (s *Server) HandleExport(w io.Writer, dataset string, setHeader func(key, value string)) *TableHandlerResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	tv, _, res := s.sessionFor(dataset)
	if res != nil {
		return res
	}
	setHeader("Content-Type", "application/yaml")
	setHeader("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dataset+"-views.yaml"))
	if err := tv.Store().Export(w); err != nil {
		return &TableHandlerResult{Error: err}
	}
	return nil
}

// HandleImport adds the views of a YAML document to dataset.
func (s *Server) HandleImport(dataset string, r io.Reader) (int, *TableHandlerResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tv, _, res := s.sessionFor(dataset)
	if res != nil {
		return 0, res
	}
	n, err := tv.Store().Import(r)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, viewstore.ErrNameConflict) || errors.Is(err, viewstore.ErrInvalidName) {
			return 0, &TableHandlerResult{StatusCode: 409, Message: msg}
		}
		return 0, &TableHandlerResult{StatusCode: 400, Message: strings.TrimSpace(msg)}
	}
	s.logger.Info("views imported", zap.String("dataset", dataset), zap.Int("views", n))
	return n, nil
}
