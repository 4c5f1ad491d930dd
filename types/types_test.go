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
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestFormatCriteria(t *testing.T) {
	assert.Equal(t, "{a=1, b=x}", FormatCriteria(map[string]interface{}{"b": "x", "a": 1}))
	assert.Equal(t, "{}", FormatCriteria(nil))
}

func TestErrorPredicates(t *testing.T) {
	nf := errors.WithStack(&NotFoundError{Entity: "User", Collection: "users", Criteria: map[string]interface{}{"id": "u1"}})
	assert.True(t, IsNotFound(errors.Wrap(nf, "lookup")))
	assert.False(t, IsConcurrencyConflict(nf))
	assert.EqualError(t, nf, "no User found in collection 'users' by criteria {id=u1}")

	conflict := &ConcurrencyConflictError{Entity: "Wallet", Collection: "wallets", ID: "w1", Version: 3}
	assert.True(t, IsConcurrencyConflict(errors.WithMessage(conflict, "buy")))
	assert.Contains(t, conflict.Error(), "expected version 3")
	conflict.Attempts = 5
	assert.Contains(t, conflict.Error(), "after 5 attempts")
}

func TestIsDomainError(t *testing.T) {
	assert.True(t, IsDomainError(errors.WithStack(&InsufficientFundsError{UserID: "u1"})))
	assert.True(t, IsDomainError(errors.Wrap(&EmptyCriteriaError{Entity: "User"}, "find")))
	assert.True(t, IsDomainError(&StoreUnavailableError{Operation: "find"}))
	assert.False(t, IsDomainError(errors.New("sql: connection is already closed")))
	assert.False(t, IsDomainError(nil))
}

func TestStoreUnavailableMessage(t *testing.T) {
	assert.EqualError(t, &StoreUnavailableError{Operation: "find", Collection: "users", Kind: "timeout", Err: errors.New("deadline")},
		"store find on collection 'users' failed (timeout): deadline")
	assert.EqualError(t, &StoreUnavailableError{Operation: "deposit transaction"}, "store deposit transaction failed")
}

func TestFilterComposition(t *testing.T) {
	a := NewQueryFilter("? = ?", "x", 1)
	b := NewQueryFilter("? = ?", "y", 2)

	and := And(a, nil, b)
	assert.Equal(t, "(? = ?) AND (? = ?)", and.Schema)
	assert.Equal(t, []interface{}{"x", 1, "y", 2}, and.Args)

	or := Or(a, NewQueryFilter(" "), b)
	assert.Equal(t, "(? = ?) OR (? = ?)", or.Schema)

	assert.Nil(t, And())
	assert.Equal(t, "? = ?", Or(a).Schema)
	assert.True(t, (*QueryFilter)(nil).IsEmpty())
}
