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

package criteria

import (
	"sort"
	"strings"

	"github.com/DeadNord/shop-server/field"
	"github.com/DeadNord/shop-server/types"
)

// Separator splits list-valued criteria.
const Separator = ","

// Criteria maps field identifiers to the values they must match.
type Criteria map[field.Key]interface{}

// Of builds criteria from key/value pairs.
func Of(key field.Key, value interface{}, more ...interface{}) Criteria {
	c := Criteria{key: value}
	for i := 0; i+1 < len(more); i += 2 {
		if k, ok := more[i].(field.Key); ok {
			c[k] = more[i+1]
		}
	}
	return c
}

// ByID matches a single entity identifier.
func ByID(id string) Criteria { return Criteria{field.ID: id} }

// Keys returns the criteria keys in sorted order.
func (c Criteria) Keys() []field.Key {
	keys := make([]field.Key, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Raw returns the criteria keyed by plain strings, for error messages and logs.
func (c Criteria) Raw() map[string]interface{} {
	out := make(map[string]interface{}, len(c))
	for k, v := range c {
		out[string(k)] = v
	}
	return out
}

// IsList reports whether v is a comma-delimited list value.
func IsList(v interface{}) bool {
	s, ok := v.(string)
	return ok && strings.Contains(s, Separator)
}

// Expand returns the values v stands for: the trimmed, non-empty, distinct
// pieces of a list value, or v itself.
func Expand(v interface{}) []interface{} {
	if !IsList(v) {
		return []interface{}{v}
	}
	seen := make(map[string]struct{})
	var out []interface{}
	for _, piece := range strings.Split(v.(string), Separator) {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		if _, dup := seen[piece]; dup {
			continue
		}
		seen[piece] = struct{}{}
		out = append(out, piece)
	}
	return out
}

// Side selects where a substring may sit inside the field value.
type Side string

const (
	SideBoth  Side = "BOTH"
	SideRight Side = "RIGHT"
	SideLeft  Side = "LEFT"
)

var _ types.BaseEnum = Side("")

func ParseSide(s string) (Side, bool) { return types.ParseEnum(s, SideBoth, SideRight, SideLeft) }

func (s Side) String() string { return string(s) }

func (s Side) IsValid() bool {
	_, ok := ParseSide(string(s))
	return ok
}

// Pattern returns the LIKE pattern for value on this side, with '!' as the
// escape character.
func (s Side) Pattern(value string) string {
	escaped := likeEscaper.Replace(value)
	switch s {
	case SideRight:
		return escaped + "%"
	case SideLeft:
		return "%" + escaped
	default:
		return "%" + escaped + "%"
	}
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
