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

package demo

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/recordview/recordview/core/aggregates"
	"github.com/recordview/recordview/core/config"
	"github.com/recordview/recordview/core/models"
	"github.com/recordview/recordview/core/server"
	"github.com/recordview/recordview/datasources"
)

// SetupManager builds the dataset registry: the configured datasets, the
// sample datasets when enabled, and finally the system tables.
func SetupManager(cfg *config.Config, logger *zap.Logger) (*datasources.Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := datasources.NewManager(logger)

	if err := m.AddSources(cfg.ResolvedDatasets()); err != nil {
		return nil, err
	}
	if cfg.Server.Demo {
		if err := RegisterSampleSources(m); err != nil {
			return nil, err
		}
		if err := RegisterPerfSources(m); err != nil {
			return nil, err
		}
	}

	// Must be after all user tables are added.
	if err := models.AddSystemTables(m); err != nil {
		return nil, fmt.Errorf("failed to create system tables: %w", err)
	}
	logger.Info("datasets registered", zap.Strings("datasets", m.GetSourceNames()))
	return m, nil
}

// SetupDemoServer creates and configures a server from cfg.
func SetupDemoServer(cfg *config.Config, logger *zap.Logger) (*server.Server, error) {
	m, err := SetupManager(cfg, logger)
	if err != nil {
		return nil, err
	}

	display := aggregates.DefaultOptions()
	if cfg.Display.CurrencySymbol != "" {
		display.CurrencySymbol = cfg.Display.CurrencySymbol
	}
	return server.NewServer(m, server.Options{
		Title:        cfg.Server.Title,
		Subtitle:     "Filter, sort, group and summarize record tables, and keep the layouts you like as views.",
		DefaultLimit: cfg.Display.DefaultLimit,
		Display:      display,
	}, logger)
}
