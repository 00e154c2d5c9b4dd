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
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/recordview/recordview/core/tables"
)

// SourceTypeMemory marks tables registered in code rather than loaded.
const SourceTypeMemory = "memory"

// SourcesConfig is the file format read by LoadConfig.
type SourcesConfig struct {
	Sources []DataSource `yaml:"sources"`
}

// Manager handles loading and caching of data sources.
// Source metadata is registered eagerly; data is loaded lazily on demand.
type Manager struct {
	mu sync.RWMutex

	// Source metadata indexed by name
	sources map[string]*DataSource
	// Order of source names (preserves definition order)
	order []string

	// Cached tables indexed by source name - populated lazily
	tables map[string]*tables.DataTable

	// Registered loaders indexed by source_type
	loaders map[string]DataSourceLoader

	// Base directory for resolving relative paths
	baseDir string

	logger *zap.Logger
}

// NewManager creates a new data source manager with the CSV and JSON
// loaders registered.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		sources: make(map[string]*DataSource),
		tables:  make(map[string]*tables.DataTable),
		loaders: make(map[string]DataSourceLoader),
		logger:  logger,
	}
	m.RegisterLoader(NewCsvLoader())
	m.RegisterLoader(NewJSONLoader())
	return m
}

// RegisterLoader registers a data source loader for a specific source type.
// If a loader is already registered for this type, it will be replaced.
func (m *Manager) RegisterLoader(loader DataSourceLoader) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaders[loader.SourceType()] = loader
}

// LoadConfig reads a YAML sources file. Relative file paths are resolved
// against the directory of the file.
func (m *Manager) LoadConfig(configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var config SourcesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	m.SetBaseDir(filepath.Dir(configPath))
	return m.AddSources(config.Sources)
}

// AddSources registers source metadata. Data is loaded lazily.
func (m *Manager) AddSources(sources []DataSource) error {
	for i := range sources {
		if err := m.AddSource(sources[i]); err != nil {
			return err
		}
	}
	return nil
}

// AddSource registers one source. Names must be unique.
func (m *Manager) AddSource(source DataSource) error {
	if source.Name == "" {
		return fmt.Errorf("source has no name")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sources[source.Name]; ok {
		return fmt.Errorf("source %q already registered", source.Name)
	}
	m.sources[source.Name] = &source
	m.order = append(m.order, source.Name)
	return nil
}

// RegisterTable registers a programmatically created table. It is served
// from the cache and never reloaded.
func (m *Manager) RegisterTable(source DataSource, table *tables.DataTable) error {
	source.SourceType = SourceTypeMemory
	if err := m.AddSource(source); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[source.Name] = table
	return nil
}

// SetBaseDir sets the base directory for resolving relative paths in config.
func (m *Manager) SetBaseDir(dir string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baseDir = dir
}

// GetSourceNames returns all registered source names in definition order.
func (m *Manager) GetSourceNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.order)
}

// GetSource returns the source metadata for a given name.
// Returns nil if the source is not found.
func (m *Manager) GetSource(name string) *DataSource {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sources[name]
}

// LoadData loads data for a source by name.
// Returns cached data if already loaded; otherwise loads from the source.
//
// The loading process:
// 1. Loader discovers schema from the data source (column keys and types)
// 2. Manager enriches schema with annotations (labels, types, options)
// 3. Loader creates table with the enriched schema
func (m *Manager) LoadData(sourceName string) (*tables.DataTable, error) {
	// Check cache first (with read lock)
	m.mu.RLock()
	if table, ok := m.tables[sourceName]; ok {
		m.mu.RUnlock()
		return table, nil
	}
	source, ok := m.sources[sourceName]
	if !ok {
		m.mu.RUnlock()
		return nil, fmt.Errorf("source %q not found", sourceName)
	}
	loader, hasLoader := m.loaders[source.SourceType]
	baseDir := m.baseDir
	m.mu.RUnlock()

	if !hasLoader {
		return nil, fmt.Errorf("no loader registered for source type %q", source.SourceType)
	}

	config := m.resolveConfigPaths(source.Config, baseDir)

	// Step 1: Discover schema from the data source
	schema, err := loader.DiscoverSchema(config)
	if err != nil {
		return nil, fmt.Errorf("failed to discover schema for source %q: %w", sourceName, err)
	}

	// Step 2: Enrich schema with annotations
	enriched, err := EnrichSchema(schema, source.Columns)
	if err != nil {
		return nil, fmt.Errorf("source %q: %w", sourceName, err)
	}

	// Step 3: Load data with enriched schema
	table, err := loader.Load(config, enriched)
	if err != nil {
		return nil, fmt.Errorf("failed to load source %q: %w", sourceName, err)
	}

	m.mu.Lock()
	if cached, ok := m.tables[sourceName]; ok {
		// Another caller won the race.
		m.mu.Unlock()
		return cached, nil
	}
	m.tables[sourceName] = table
	m.mu.Unlock()

	m.logger.Info("loaded data source",
		zap.String("source", sourceName),
		zap.String("type", source.SourceType),
		zap.Int("rows", table.Length()),
		zap.Int("columns", len(enriched.Columns)))
	return table, nil
}

// resolveConfigPaths resolves relative file paths in config to absolute paths.
func (m *Manager) resolveConfigPaths(config map[string]string, baseDir string) map[string]string {
	if baseDir == "" {
		return config
	}

	resolved := make(map[string]string, len(config))
	for k, v := range config {
		if k == "file_path" && v != "" && !filepath.IsAbs(v) {
			resolved[k] = filepath.Join(baseDir, v)
		} else {
			resolved[k] = v
		}
	}
	return resolved
}

// InvalidateCache removes a source from the cache, forcing reload on next
// access. Registered in-memory tables are kept.
func (m *Manager) InvalidateCache(sourceName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sources[sourceName]; ok && s.SourceType == SourceTypeMemory {
		return
	}
	delete(m.tables, sourceName)
}

// InvalidateAllCaches removes all loaded sources from the cache.
func (m *Manager) InvalidateAllCaches() {
	m.mu.Lock()
	names := make([]string, 0, len(m.tables))
	for name := range m.tables {
		names = append(names, name)
	}
	m.mu.Unlock()
	for _, name := range names {
		m.InvalidateCache(name)
	}
}

// IsLoaded returns whether data for a source is currently cached.
func (m *Manager) IsLoaded(sourceName string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.tables[sourceName]
	return ok
}

// GetLoadedSources returns names of all currently loaded sources in
// definition order.
func (m *Manager) GetLoadedSources() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var names []string
	for _, name := range m.order {
		if _, ok := m.tables[name]; ok {
			names = append(names, name)
		}
	}
	return names
}
