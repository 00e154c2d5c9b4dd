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

package views

// LandingViewModel is the model of the dataset index page.
type LandingViewModel struct {
	Title    string
	Subtitle string
	Tables   []TableInfo
}

// TableInfo describes one dataset on the landing page.
type TableInfo struct {
	Name        string
	Title       string
	Description string
	URL         string
	RecordCount int
	ColumnCount int
	Categories  string
	Loaded      bool // row and column counts are only known once loaded
}
