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

// BaseEnum represents the contract shared by the closed value sets of the
// domain (roles, owner types, product names, search sides).
type BaseEnum interface {
	IsValid() bool
	String() string
}

// ParseEnum returns the member of values whose String() matches s, ignoring
// case and surrounding spaces.
func ParseEnum[T BaseEnum](s string, values ...T) (T, bool) {
	s = strings.TrimSpace(s)
	for _, v := range values {
		if strings.EqualFold(v.String(), s) {
			return v, true
		}
	}
	var zero T
	return zero, false
}
