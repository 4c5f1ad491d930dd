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

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/DeadNord/shop-server/field"
)

// Wallet is a balance owned by exactly one user or shop. The balance never
// drops below zero.
type Wallet struct {
	bun.BaseModel `bun:"table:wallets,alias:w"`
	CommonEntity

	OwnerID   string          `bun:"owner_id,notnull,type:varchar(36)" json:"ownerId"`
	OwnerType OwnerType       `bun:"owner_type,notnull,type:varchar(16)" json:"ownerType"`
	Amount    decimal.Decimal `bun:"amount,notnull,type:decimal(20,4)" json:"amount"`
}

// WalletFields is the field registry of Wallet.
var WalletFields = field.NewRegistry[Wallet]("Wallet",
	field.ReadOnly[Wallet](field.ID, "id", "string", func(w *Wallet) interface{} { return w.ID }),
	field.String(field.OwnerID, "owner_id", func(w *Wallet) *string { return &w.OwnerID }),
	field.Enum(field.OwnerType, "owner_type", func(w *Wallet) *OwnerType { return &w.OwnerType }, ParseOwnerType),
	field.Decimal(field.Amount, "amount", func(w *Wallet) *decimal.Decimal { return &w.Amount }),
	field.ReadOnly[Wallet](field.CreatedAt, "created_at", "time", func(w *Wallet) interface{} { return w.CreatedAt }),
	field.ReadOnly[Wallet](field.UpdatedAt, "updated_at", "time", func(w *Wallet) interface{} { return w.UpdatedAt }),
)

// NewWallet returns an unsaved, empty wallet for the given owner.
func NewWallet(ownerID string, ownerType OwnerType) *Wallet {
	now := time.Now().UTC()
	return &Wallet{
		CommonEntity: CommonEntity{CreatedAt: now, UpdatedAt: now},
		OwnerID:      ownerID,
		OwnerType:    ownerType,
		Amount:       decimal.Zero,
	}
}
