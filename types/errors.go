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

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// FormatCriteria renders criteria as "k1=v1, k2=v2" with sorted keys.
func FormatCriteria(criteria map[string]interface{}) string {
	keys := make([]string, 0, len(criteria))
	for k := range criteria {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, criteria[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// NotFoundError reports zero matches for a lookup that required one.
type NotFoundError struct {
	Entity     string
	Collection string
	Criteria   map[string]interface{}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s found in collection '%s' by criteria %s",
		e.Entity, e.Collection, FormatCriteria(e.Criteria))
}

// AmbiguousQueryError reports more than one match where exactly one was required.
type AmbiguousQueryError struct {
	Entity     string
	Collection string
	Criteria   map[string]interface{}
	Matches    int
}

func (e *AmbiguousQueryError) Error() string {
	return fmt.Sprintf("more than one %s (%d) found in collection '%s' by criteria %s",
		e.Entity, e.Matches, e.Collection, FormatCriteria(e.Criteria))
}

// EmptyCriteriaError reports a single-entity lookup whose criteria constrain
// no field, which would otherwise match any entity of the collection.
type EmptyCriteriaError struct {
	Entity     string
	Collection string
	Criteria   map[string]interface{}
}

func (e *EmptyCriteriaError) Error() string {
	return fmt.Sprintf("criteria %s select no %s field in collection '%s'",
		FormatCriteria(e.Criteria), e.Entity, e.Collection)
}

// UnknownFieldError reports a field identifier with no mapping for the entity type.
type UnknownFieldError struct {
	Entity string
	Field  string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("field '%s' is not defined for %s", e.Field, e.Entity)
}

// InvalidFieldTypeError reports a field used with a value or operation of the wrong shape.
type InvalidFieldTypeError struct {
	Entity   string
	Field    string
	Expected string
	Value    interface{}
	Err      error
}

func (e *InvalidFieldTypeError) Error() string {
	msg := fmt.Sprintf("field '%s' of %s expects %s", e.Field, e.Entity, e.Expected)
	if e.Value != nil {
		msg += fmt.Sprintf(", got %T(%v)", e.Value, e.Value)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidFieldTypeError) Unwrap() error { return e.Err }

// InsufficientFundsError reports a wallet balance below the required payment.
type InsufficientFundsError struct {
	UserID    string
	Product   string
	Required  string
	Available string
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("user '%s' has not enough money to buy '%s': required %s, available %s",
		e.UserID, e.Product, e.Required, e.Available)
}

// InsufficientInventoryError reports a catalog amount below the requested quantity.
type InsufficientInventoryError struct {
	ShopID    string
	Product   string
	Requested int
	Available int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("shop '%s' has not enough of product '%s': requested %d, available %d",
		e.ShopID, e.Product, e.Requested, e.Available)
}

// InvalidAmountError reports a non-positive amount or quantity.
type InvalidAmountError struct {
	Operation string
	Amount    string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("%s: amount must be greater than zero, got %s", e.Operation, e.Amount)
}

// ConcurrencyConflictError reports a version-conditioned write that lost
// against a concurrent writer, or a retry budget exhausted by such losses.
type ConcurrencyConflictError struct {
	Entity     string
	Collection string
	ID         string
	Version    int64
	Attempts   int
}

func (e *ConcurrencyConflictError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("concurrent modification of %s '%s' in collection '%s' persisted after %d attempts",
			e.Entity, e.ID, e.Collection, e.Attempts)
	}
	return fmt.Sprintf("%s '%s' in collection '%s' was modified concurrently (expected version %d)",
		e.Entity, e.ID, e.Collection, e.Version)
}

// StoreUnavailableError reports a failed or timed out store call.
type StoreUnavailableError struct {
	Operation  string
	Collection string
	Kind       string
	Err        error
}

func (e *StoreUnavailableError) Error() string {
	msg := fmt.Sprintf("store %s failed", e.Operation)
	if e.Collection != "" {
		msg = fmt.Sprintf("store %s on collection '%s' failed", e.Operation, e.Collection)
	}
	if e.Kind != "" {
		msg += " (" + e.Kind + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

// ShopNotEmptyError reports a shop deletion refused because the shop still
// holds inventory or money.
type ShopNotEmptyError struct {
	ShopID string
	Reason string
}

func (e *ShopNotEmptyError) Error() string {
	return fmt.Sprintf("shop '%s' cannot be deleted: %s", e.ShopID, e.Reason)
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsConcurrencyConflict reports whether err wraps a ConcurrencyConflictError.
func IsConcurrencyConflict(err error) bool {
	var target *ConcurrencyConflictError
	return errors.As(err, &target)
}

// IsDomainError reports whether err wraps one of the errors above, as opposed
// to a raw driver or connection pool error.
func IsDomainError(err error) bool {
	var (
		notFound     *NotFoundError
		ambiguous    *AmbiguousQueryError
		empty        *EmptyCriteriaError
		unknown      *UnknownFieldError
		invalidField *InvalidFieldTypeError
		funds        *InsufficientFundsError
		inventory    *InsufficientInventoryError
		amount       *InvalidAmountError
		conflict     *ConcurrencyConflictError
		unavailable  *StoreUnavailableError
		notEmpty     *ShopNotEmptyError
	)
	return errors.As(err, &notFound) || errors.As(err, &ambiguous) || errors.As(err, &empty) ||
		errors.As(err, &unknown) || errors.As(err, &invalidField) || errors.As(err, &funds) ||
		errors.As(err, &inventory) || errors.As(err, &amount) || errors.As(err, &conflict) ||
		errors.As(err, &unavailable) || errors.As(err, &notEmpty)
}
