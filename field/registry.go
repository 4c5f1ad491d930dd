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
	"sort"

	"github.com/DeadNord/shop-server/types"
)

// Accessor reads and writes one field of E. Set is nil for read-only fields
// and Contains is nil unless the field holds a sequence.
type Accessor[E any] struct {
	Key      Key
	Column   string
	Kind     string
	Get      func(e *E) interface{}
	Set      func(e *E, v interface{}) error
	Contains func(e *E, v interface{}) (bool, error)
}

// IsList reports whether the field holds a sequence.
func (a Accessor[E]) IsList() bool { return a.Contains != nil }

// Registry holds the accessors of one entity type.
type Registry[E any] struct {
	entity    string
	accessors map[Key]Accessor[E]
}

// NewRegistry builds a registry for the entity named entity. A later
// accessor for the same key replaces an earlier one.
func NewRegistry[E any](entity string, accessors ...Accessor[E]) *Registry[E] {
	r := &Registry[E]{entity: entity, accessors: make(map[Key]Accessor[E], len(accessors))}
	for _, a := range accessors {
		r.accessors[a.Key] = a
	}
	return r
}

// Entity returns the entity name used in error messages.
func (r *Registry[E]) Entity() string { return r.entity }

// Keys returns the registered field identifiers in sorted order.
func (r *Registry[E]) Keys() []Key {
	keys := make([]Key, 0, len(r.accessors))
	for k := range r.accessors {
		keys = append(keys, k)
	}
	sortKeys(keys)
	return keys
}

// Resolve returns the accessor for key or an UnknownFieldError.
func (r *Registry[E]) Resolve(key Key) (Accessor[E], error) {
	a, ok := r.accessors[key]
	if !ok {
		return Accessor[E]{}, &types.UnknownFieldError{Entity: r.entity, Field: string(key)}
	}
	return a, nil
}

// Column returns the store column backing key.
func (r *Registry[E]) Column(key Key) (string, error) {
	a, err := r.Resolve(key)
	if err != nil {
		return "", err
	}
	return a.Column, nil
}

// SetFields applies updates to e. Every key is resolved before anything is
// written, and setters run against a copy that replaces *e only when all of
// them succeeded, so a failed call leaves e untouched.
func (r *Registry[E]) SetFields(e *E, updates map[Key]interface{}) error {
	keys := make([]Key, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sortKeys(keys)

	resolved := make([]Accessor[E], 0, len(keys))
	for _, k := range keys {
		a, err := r.Resolve(k)
		if err != nil {
			return err
		}
		if a.Set == nil {
			return &types.InvalidFieldTypeError{Entity: r.entity, Field: string(k), Expected: "a writable field"}
		}
		resolved = append(resolved, a)
	}

	working := *e
	for _, a := range resolved {
		v := updates[a.Key]
		if err := a.Set(&working, v); err != nil {
			return &types.InvalidFieldTypeError{Entity: r.entity, Field: string(a.Key), Expected: a.Kind, Value: v, Err: err}
		}
	}
	*e = working
	return nil
}

func sortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
}
