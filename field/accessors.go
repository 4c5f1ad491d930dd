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

package field

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// String builds an accessor for a string field.
func String[E any](key Key, column string, ref func(*E) *string) Accessor[E] {
	return Accessor[E]{
		Key:    key,
		Column: column,
		Kind:   "string",
		Get:    func(e *E) interface{} { return *ref(e) },
		Set: func(e *E, v interface{}) error {
			s, err := cast.ToStringE(v)
			if err != nil {
				return err
			}
			*ref(e) = s
			return nil
		},
	}
}

// Enum builds an accessor for a string-backed enum field; parse rejects
// values outside the closed set.
func Enum[E any, T ~string](key Key, column string, ref func(*E) *T, parse func(string) (T, bool)) Accessor[E] {
	return Accessor[E]{
		Key:    key,
		Column: column,
		Kind:   "enum",
		Get:    func(e *E) interface{} { return *ref(e) },
		Set: func(e *E, v interface{}) error {
			s, err := cast.ToStringE(v)
			if err != nil {
				return err
			}
			parsed, ok := parse(s)
			if !ok {
				return fmt.Errorf("unknown value %q", s)
			}
			*ref(e) = parsed
			return nil
		},
	}
}

// Decimal builds an accessor for a decimal field. Strings and numbers are
// accepted besides decimal values.
func Decimal[E any](key Key, column string, ref func(*E) *decimal.Decimal) Accessor[E] {
	return Accessor[E]{
		Key:    key,
		Column: column,
		Kind:   "decimal",
		Get:    func(e *E) interface{} { return *ref(e) },
		Set: func(e *E, v interface{}) error {
			d, err := ToDecimal(v)
			if err != nil {
				return err
			}
			*ref(e) = d
			return nil
		},
	}
}

// ReadOnly builds an accessor that can be queried but not updated.
func ReadOnly[E any](key Key, column, kind string, get func(*E) interface{}) Accessor[E] {
	return Accessor[E]{Key: key, Column: column, Kind: kind, Get: get}
}

// ToDecimal converts v to a decimal.
func ToDecimal(v interface{}) (decimal.Decimal, error) {
	switch d := v.(type) {
	case decimal.Decimal:
		return d, nil
	case *decimal.Decimal:
		if d == nil {
			return decimal.Zero, fmt.Errorf("nil decimal")
		}
		return *d, nil
	case float32, float64:
		f, err := cast.ToFloat64E(d)
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromFloat(f), nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(s)
}

// Equal compares a field value with a criterion value by their string forms,
// the way criteria values arrive from callers.
func Equal(fieldValue, criterion interface{}) bool {
	if d, ok := fieldValue.(decimal.Decimal); ok {
		c, err := ToDecimal(criterion)
		return err == nil && d.Equal(c)
	}
	a, err := cast.ToStringE(fieldValue)
	if err != nil {
		return false
	}
	b, err := cast.ToStringE(criterion)
	if err != nil {
		return false
	}
	return a == b
}
