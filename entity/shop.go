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

// Shop sells products from its catalog and receives payments into its wallet.
type Shop struct {
	bun.BaseModel `bun:"table:shops,alias:s"`
	CommonEntity

	Name     string  `bun:"name,notnull" json:"name"`
	WalletID string  `bun:"wallet_id,type:varchar(36)" json:"walletId"`
	Products Catalog `bun:"products,notnull,type:text" json:"products"`
}

// ShopFields is the field registry of Shop.
var ShopFields = field.NewRegistry[Shop]("Shop",
	field.ReadOnly[Shop](field.ID, "id", "string", func(s *Shop) interface{} { return s.ID }),
	field.String(field.Name, "name", func(s *Shop) *string { return &s.Name }),
	field.String(field.WalletID, "wallet_id", func(s *Shop) *string { return &s.WalletID }),
	field.Accessor[Shop]{
		Key:    field.Products,
		Column: "products",
		Kind:   "product catalog",
		Get:    func(s *Shop) interface{} { return s.Products.Clone() },
		Set: func(s *Shop, v interface{}) error {
			c, err := toCatalog(v)
			if err != nil {
				return err
			}
			s.Products = c
			return nil
		},
		Contains: func(s *Shop, v interface{}) (bool, error) {
			name, err := cast.ToStringE(v)
			if err != nil {
				return false, err
			}
			_, ok := s.Products[ProductName(name)]
			return ok, nil
		},
	},
	field.ReadOnly[Shop](field.CreatedAt, "created_at", "time", func(s *Shop) interface{} { return s.CreatedAt }),
	field.ReadOnly[Shop](field.UpdatedAt, "updated_at", "time", func(s *Shop) interface{} { return s.UpdatedAt }),
)

// Product returns the catalog entry for name.
func (s *Shop) Product(name ProductName) (Product, bool) {
	p, ok := s.Products[name]
	return p, ok
}

// IsEmpty reports whether no catalog entry has a positive amount.
func (s *Shop) IsEmpty() bool {
	for _, p := range s.Products {
		if p.Amount > 0 {
			return false
		}
	}
	return true
}

func toCatalog(v interface{}) (Catalog, error) {
	var out Catalog
	switch c := v.(type) {
	case Catalog:
		out = c.Clone()
	case map[ProductName]Product:
		out = Catalog(c).Clone()
	case nil:
		out = Catalog{}
	default:
		return nil, fmt.Errorf("cannot use %T as a product catalog", v)
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// NewShop returns an unsaved shop with a copy of catalog.
func NewShop(name string, catalog Catalog) *Shop {
	now := time.Now().UTC()
	return &Shop{
		CommonEntity: CommonEntity{CreatedAt: now, UpdatedAt: now},
		Name:         name,
		Products:     catalog.Clone(),
	}
}
