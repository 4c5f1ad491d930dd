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
	"fmt"
	"time"

	"github.com/spf13/cast"
	"github.com/uptrace/bun"

	"github.com/DeadNord/shop-server/field"
)

// User is a customer or administrator of the shop. Password holds a
// credential hash produced upstream; it is stored as given.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`
	CommonEntity

	Name              string `bun:"name,notnull" json:"name"`
	Email             string `bun:"email,notnull" json:"email"`
	Password          string `bun:"password,notnull" json:"-"`
	Role              Role   `bun:"role,notnull,type:varchar(16)" json:"role"`
	WalletID          string `bun:"wallet_id,type:varchar(36)" json:"walletId"`
	PurchasedProducts Ledger `bun:"purchased_products,notnull,type:text" json:"purchasedProducts"`
}

// UserFields is the field registry of User.
var UserFields = field.NewRegistry[User]("User",
	field.ReadOnly[User](field.ID, "id", "string", func(u *User) interface{} { return u.ID }),
	field.String(field.Name, "name", func(u *User) *string { return &u.Name }),
	field.String(field.Email, "email", func(u *User) *string { return &u.Email }),
	field.String(field.Password, "password", func(u *User) *string { return &u.Password }),
	field.Enum(field.Role, "role", func(u *User) *Role { return &u.Role }, ParseRole),
	field.String(field.WalletID, "wallet_id", func(u *User) *string { return &u.WalletID }),
	field.Accessor[User]{
		Key:    field.PurchasedProducts,
		Column: "purchased_products",
		Kind:   "purchase ledger",
		Get:    func(u *User) interface{} { return append(Ledger(nil), u.PurchasedProducts...) },
		Set: func(u *User, v interface{}) error {
			l, err := toLedger(v)
			if err != nil {
				return err
			}
			u.PurchasedProducts = l
			return nil
		},
		Contains: func(u *User, v interface{}) (bool, error) {
			return u.PurchasedProducts.Contains(v)
		},
	},
	field.ReadOnly[User](field.CreatedAt, "created_at", "time", func(u *User) interface{} { return u.CreatedAt }),
	field.ReadOnly[User](field.UpdatedAt, "updated_at", "time", func(u *User) interface{} { return u.UpdatedAt }),
)

// Contains reports whether the ledger holds v, which is either a whole
// PurchasedProduct or a product name.
func (l Ledger) Contains(v interface{}) (bool, error) {
	if p, ok := v.(PurchasedProduct); ok {
		for _, item := range l {
			if item.Equal(p) {
				return true, nil
			}
		}
		return false, nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return false, err
	}
	for _, item := range l {
		if string(item.Name) == s {
			return true, nil
		}
	}
	return false, nil
}

// WithPurchase returns a copy of the ledger with p appended.
func (l Ledger) WithPurchase(p PurchasedProduct) Ledger {
	out := make(Ledger, 0, len(l)+1)
	out = append(out, l...)
	return append(out, p)
}

func toLedger(v interface{}) (Ledger, error) {
	switch l := v.(type) {
	case Ledger:
		return append(Ledger(nil), l...), nil
	case []PurchasedProduct:
		return append(Ledger(nil), l...), nil
	case nil:
		return Ledger{}, nil
	default:
		return nil, fmt.Errorf("cannot use %T as a purchase ledger", v)
	}
}

// NewUser returns an unsaved customer or admin.
func NewUser(name, email, password string, role Role) *User {
	now := time.Now().UTC()
	return &User{
		CommonEntity:      CommonEntity{CreatedAt: now, UpdatedAt: now},
		Name:              name,
		Email:             email,
		Password:          password,
		Role:              role,
		PurchasedProducts: Ledger{},
	}
}
