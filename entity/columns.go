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
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry: unit price and available amount.
type Product struct {
	Price  decimal.Decimal `json:"price"`
	Amount int             `json:"amount"`
}

// Catalog maps product names to catalog entries. Stored as a JSON column.
type Catalog map[ProductName]Product

// Clone returns an independent copy of c.
func (c Catalog) Clone() Catalog {
	out := make(Catalog, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Validate rejects unknown product names, negative prices and negative amounts.
func (c Catalog) Validate() error {
	for name, p := range c {
		if !name.IsValid() {
			return fmt.Errorf("unknown product %q", name)
		}
		if p.Amount < 0 {
			return fmt.Errorf("product %q has negative amount %d", name, p.Amount)
		}
		if p.Price.IsNegative() {
			return fmt.Errorf("product %q has negative price %s", name, p.Price)
		}
	}
	return nil
}

// Value implements driver.Valuer for Catalog.
func (c Catalog) Value() (driver.Value, error) {
	if c == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[ProductName]Product(c))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for Catalog.
func (c *Catalog) Scan(value interface{}) error {
	b, err := jsonBytes(value)
	if err != nil {
		return err
	}
	out := make(Catalog)
	if len(b) > 0 {
		if err := json.Unmarshal(b, &out); err != nil {
			return err
		}
	}
	*c = out
	return nil
}

// PurchasedProduct is one ledger line: what was bought, at which unit price
// and how many.
type PurchasedProduct struct {
	Name     ProductName     `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// Equal reports whether both lines describe the same purchase.
func (p PurchasedProduct) Equal(o PurchasedProduct) bool {
	return p.Name == o.Name && p.Quantity == o.Quantity && p.Price.Equal(o.Price)
}

// Ledger is the ordered purchase history of a user. Stored as a JSON column.
type Ledger []PurchasedProduct

// Value implements driver.Valuer for Ledger.
func (l Ledger) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]PurchasedProduct(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for Ledger.
func (l *Ledger) Scan(value interface{}) error {
	b, err := jsonBytes(value)
	if err != nil {
		return err
	}
	out := make(Ledger, 0)
	if len(b) > 0 {
		if err := json.Unmarshal(b, &out); err != nil {
			return err
		}
	}
	*l = out
	return nil
}

func jsonBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported JSON column type %T", value)
	}
}
