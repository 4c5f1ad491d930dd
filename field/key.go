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

import "github.com/DeadNord/shop-server/types"

// Key identifies an entity field in criteria and update maps.
type Key string

const (
	ID                Key = "id"
	Name              Key = "name"
	Email             Key = "email"
	Password          Key = "password"
	Role              Key = "role"
	WalletID          Key = "walletId"
	OwnerID           Key = "ownerId"
	OwnerType         Key = "ownerType"
	Amount            Key = "amount"
	Products          Key = "products"
	PurchasedProducts Key = "purchasedProducts"
	CreatedAt         Key = "createdAt"
	UpdatedAt         Key = "updatedAt"
)

var _ types.BaseEnum = Key("")

// Keys returns every field identifier.
func Keys() []Key {
	return []Key{ID, Name, Email, Password, Role, WalletID, OwnerID, OwnerType,
		Amount, Products, PurchasedProducts, CreatedAt, UpdatedAt}
}

// ParseKey resolves a field identifier by name, ignoring case.
func ParseKey(s string) (Key, bool) {
	return types.ParseEnum(s, Keys()...)
}

func (k Key) String() string { return string(k) }

func (k Key) IsValid() bool {
	_, ok := ParseKey(string(k))
	return ok
}
