/*
 * Copyright 2025 DeadNord.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package types

import "strings"

// QueryFilter describes a WHERE clause schema and its argument values.
type QueryFilter struct {
	Schema string
	Args   []interface{}
}

// NewQueryFilter creates a new query filter with schema and args.
func NewQueryFilter(schema string, args ...interface{}) *QueryFilter {
	return &QueryFilter{schema, args}
}

// IsEmpty reports whether the filter matches every row.
func (f *QueryFilter) IsEmpty() bool {
	return f == nil || strings.TrimSpace(f.Schema) == ""
}

// And joins filters with AND, skipping empty ones. The result is nil when
// every input is empty.
func And(filters ...*QueryFilter) *QueryFilter {
	var parts []string
	var args []interface{}
	for _, f := range filters {
		if f.IsEmpty() {
			continue
		}
		parts = append(parts, "("+f.Schema+")")
		args = append(args, f.Args...)
	}
	if len(parts) == 0 {
		return nil
	}
	return &QueryFilter{Schema: strings.Join(parts, " AND "), Args: args}
}

// Or joins filters with OR, skipping empty ones.
func Or(filters ...*QueryFilter) *QueryFilter {
	var kept []*QueryFilter
	for _, f := range filters {
		if !f.IsEmpty() {
			kept = append(kept, f)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return &QueryFilter{Schema: kept[0].Schema, Args: kept[0].Args}
	}
	parts := make([]string, 0, len(kept))
	var args []interface{}
	for _, f := range kept {
		parts = append(parts, "("+f.Schema+")")
		args = append(args, f.Args...)
	}
	return &QueryFilter{Schema: strings.Join(parts, " OR "), Args: args}
}
