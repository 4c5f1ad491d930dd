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

package entity

import "time"

// Collection names a store collection.
type Collection string

const (
	Users   Collection = "users"
	Shops   Collection = "shops"
	Wallets Collection = "wallets"
)

func (c Collection) String() string { return string(c) }

// Entity is implemented by pointers to every persisted type.
type Entity interface {
	GetID() string
	Base() *CommonEntity
}

// CommonEntity carries the identity, timestamps and revision shared by all
// documents. The ID is assigned on first save and never changes; Version is
// bumped by every conditional update.
type CommonEntity struct {
	ID        string    `bun:"id,pk,type:varchar(36)" json:"id"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updatedAt"`
	Version   int64     `bun:"version,notnull" json:"version"`
}

func (c *CommonEntity) GetID() string { return c.ID }

func (c *CommonEntity) Base() *CommonEntity { return c }

// Models returns a zero instance of every persisted type, in creation order.
func Models() []interface{} {
	return []interface{}{(*Wallet)(nil), (*User)(nil), (*Shop)(nil)}
}
