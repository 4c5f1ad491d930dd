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
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/uptrace/bun"

	"github.com/DeadNord/shop-server/field"
	"github.com/DeadNord/shop-server/types"
	"github.com/DeadNord/shop-server/utils"
)

var log = utils.NewLogger("CRITERIA")

// Builder translates criteria on entity E into store filters.
type Builder[E any] struct {
	fields *field.Registry[E]
}

// NewBuilder returns a builder resolving columns through fields.
func NewBuilder[E any](fields *field.Registry[E]) *Builder[E] {
	return &Builder[E]{fields: fields}
}

// matchNothing stands for a list value with no pieces: an empty OR-set.
var matchNothing = types.NewQueryFilter("1 = 0")

// Build returns an equality filter: one clause per field, AND-ed, with list
// values matching any of their pieces. A list value with no pieces matches
// nothing. Nil values are skipped; if nothing remains the filter is nil.
func (b *Builder[E]) Build(c Criteria) (*types.QueryFilter, error) {
	return b.build(c, func(_ field.Key, column string, values []interface{}) (*types.QueryFilter, error) {
		if len(values) == 1 {
			return types.NewQueryFilter("? = ?", bun.Ident(column), values[0]), nil
		}
		return types.NewQueryFilter("? IN (?)", bun.Ident(column), bun.In(values)), nil
	})
}

// BuildBySide returns a substring filter anchored according to side.
func (b *Builder[E]) BuildBySide(c Criteria, side Side) (*types.QueryFilter, error) {
	if !side.IsValid() {
		return nil, fmt.Errorf("unknown side %q", side)
	}
	return b.build(c, func(key field.Key, column string, values []interface{}) (*types.QueryFilter, error) {
		clauses := make([]*types.QueryFilter, 0, len(values))
		for _, v := range values {
			s, err := cast.ToStringE(v)
			if err != nil {
				return nil, &types.InvalidFieldTypeError{Entity: b.fields.Entity(), Field: key.String(), Expected: "a text value", Value: v, Err: err}
			}
			clauses = append(clauses, types.NewQueryFilter("? LIKE ? ESCAPE '!'", bun.Ident(column), side.Pattern(s)))
		}
		return types.Or(clauses...), nil
	})
}

func (b *Builder[E]) build(c Criteria, clause func(key field.Key, column string, values []interface{}) (*types.QueryFilter, error)) (*types.QueryFilter, error) {
	clauses := make([]*types.QueryFilter, 0, len(c))
	for _, key := range c.Keys() {
		column, err := b.fields.Column(key)
		if err != nil {
			return nil, err
		}
		value := c[key]
		if value == nil {
			log.WithFields(logrus.Fields{"entity": b.fields.Entity(), "field": key}).Warn("No value provided for criterion, skipping it")
			continue
		}
		values := Expand(value)
		if len(values) == 0 {
			clauses = append(clauses, matchNothing)
			continue
		}
		f, err := clause(key, column, values)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, f)
	}
	return types.And(clauses...), nil
}
