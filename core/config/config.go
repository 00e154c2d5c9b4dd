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

// Package config holds the recordview configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/recordview/recordview/datasources"
)

// Config holds all recordview configuration.
type Config struct {
	Server   ServerConfig             `yaml:"server"`
	Logging  LoggingConfig            `yaml:"logging"`
	Display  DisplayConfig            `yaml:"display"`
	Datasets []datasources.DataSource `yaml:"datasets,omitempty"`

	// baseDir is the directory of the loaded file; dataset paths are
	// relative to it.
	baseDir string
}

// ServerConfig configures the HTML host.
type ServerConfig struct {
	Addr  string `yaml:"addr"`
	Title string `yaml:"title"`
	// Demo registers the built-in sample datasets.
	Demo bool `yaml:"demo"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DisplayConfig configures value formatting and paging.
type DisplayConfig struct {
	CurrencySymbol string `yaml:"currency_symbol"`
	DefaultLimit   int    `yaml:"default_limit"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:  "127.0.0.1:8097",
			Title: "Record Tables",
			Demo:  true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Display: DisplayConfig{
			CurrencySymbol: "$",
			DefaultLimit:   100,
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.baseDir = filepath.Dir(path)

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("RECORDVIEW_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if level := os.Getenv("RECORDVIEW_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging level %q", c.Logging.Level)
	}
	if c.Display.DefaultLimit < 0 {
		return fmt.Errorf("display.default_limit must not be negative")
	}
	seen := make(map[string]bool, len(c.Datasets))
	for i, ds := range c.Datasets {
		if strings.TrimSpace(ds.Name) == "" {
			return fmt.Errorf("dataset %d has no name", i)
		}
		if seen[ds.Name] {
			return fmt.Errorf("duplicate dataset %q", ds.Name)
		}
		seen[ds.Name] = true
	}
	return nil
}

// LogLevel returns the configured zap level, Info when unset or invalid.
func (c *Config) LogLevel() zapcore.Level {
	level, err := zapcore.ParseLevel(c.Logging.Level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// BaseDir returns the directory dataset file paths are relative to.
func (c *Config) BaseDir() string {
	return c.baseDir
}

// ResolvedDatasets returns copies of the configured datasets with relative
// file paths made relative to the config file.
func (c *Config) ResolvedDatasets() []datasources.DataSource {
	out := make([]datasources.DataSource, len(c.Datasets))
	for i, ds := range c.Datasets {
		cfg := make(map[string]string, len(ds.Config))
		for k, v := range ds.Config {
			if k == "file_path" && v != "" && !filepath.IsAbs(v) && c.baseDir != "" {
				v = filepath.Join(c.baseDir, v)
			}
			cfg[k] = v
		}
		ds.Config = cfg
		out[i] = ds
	}
	return out
}
