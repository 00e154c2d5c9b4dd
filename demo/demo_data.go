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

// Package demo registers the sample datasets served by default.
package demo

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/recordview/recordview/datasources"
)

// DataDir returns the directory holding the sample data files.
func DataDir() string {
	_, currentFile, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(currentFile), "data")
}

// RegisterSampleSources registers the file-backed sample datasets
// described by data/data_sources.yaml.
func RegisterSampleSources(m *datasources.Manager) error {
	configPath := filepath.Join(DataDir(), "data_sources.yaml")
	if err := m.LoadConfig(configPath); err != nil {
		return fmt.Errorf("failed to load sample sources: %w", err)
	}
	return nil
}
