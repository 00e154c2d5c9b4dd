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

package query

import "fmt"

// AggregateType identifies a per-column reducer.
type AggregateType string

const (
	AggNone          AggregateType = "none"
	AggCount         AggregateType = "count"
	AggCountValues   AggregateType = "count_values"
	AggCountEmpty    AggregateType = "count_empty"
	AggUnique        AggregateType = "unique"
	AggSum           AggregateType = "sum"
	AggAvg           AggregateType = "avg"
	AggMin           AggregateType = "min"
	AggMax           AggregateType = "max"
	AggRange         AggregateType = "range"
	AggMedian        AggregateType = "median"
	AggPercentFilled AggregateType = "percent_filled"
	AggPercentEmpty  AggregateType = "percent_empty"
)

var allAggregates = []AggregateType{
	AggCount, AggCountValues, AggCountEmpty, AggUnique,
	AggSum, AggAvg, AggMin, AggMax, AggRange, AggMedian,
	AggPercentFilled, AggPercentEmpty,
}

// AllAggregates returns the twelve reducers in menu order.
func AllAggregates() []AggregateType {
	out := make([]AggregateType, len(allAggregates))
	copy(out, allAggregates)
	return out
}

// IsNumeric reports whether the reducer works on the numeric subset of the
// values and therefore gets currency formatting.
func (a AggregateType) IsNumeric() bool {
	switch a {
	case AggSum, AggAvg, AggMin, AggMax, AggRange, AggMedian:
		return true
	}
	return false
}

// ParseAggregate parses a reducer id. "" and "none" both clear.
func ParseAggregate(s string) (AggregateType, error) {
	if s == "" || s == string(AggNone) {
		return AggNone, nil
	}
	for _, a := range allAggregates {
		if string(a) == s {
			return a, nil
		}
	}
	return AggNone, fmt.Errorf("unknown aggregate %q", s)
}

// AggregateSymbol returns the short footer symbol for the reducer.
func AggregateSymbol(a AggregateType) string {
	switch a {
	case AggCount:
		return "#"
	case AggCountValues:
		return "#✓"
	case AggCountEmpty:
		return "#∅"
	case AggUnique:
		return "≠"
	case AggSum:
		return "Σ"
	case AggAvg:
		return "μ"
	case AggMin:
		return "↓"
	case AggMax:
		return "↑"
	case AggRange:
		return "↕"
	case AggMedian:
		return "M"
	case AggPercentFilled:
		return "%✓"
	case AggPercentEmpty:
		return "%∅"
	default:
		return ""
	}
}

// AggregateTitle returns the human readable reducer name.
func AggregateTitle(a AggregateType) string {
	switch a {
	case AggCount:
		return "Count all"
	case AggCountValues:
		return "Count values"
	case AggCountEmpty:
		return "Count empty"
	case AggUnique:
		return "Count unique"
	case AggSum:
		return "Sum"
	case AggAvg:
		return "Average"
	case AggMin:
		return "Min"
	case AggMax:
		return "Max"
	case AggRange:
		return "Range"
	case AggMedian:
		return "Median"
	case AggPercentFilled:
		return "Percent filled"
	case AggPercentEmpty:
		return "Percent empty"
	default:
		return "None"
	}
}
