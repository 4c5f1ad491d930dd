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
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeadNord/shop-server/field"
	"github.com/DeadNord/shop-server/types"
)

func TestCatalogColumn(t *testing.T) {
	c := Catalog{ProductWidget: {Price: decimal.RequireFromString("2.50"), Amount: 3}}

	v, err := c.Value()
	require.NoError(t, err)

	var scanned Catalog
	require.NoError(t, scanned.Scan([]byte(v.(string))))
	require.Contains(t, scanned, ProductWidget)
	assert.Equal(t, 3, scanned[ProductWidget].Amount)
	assert.True(t, scanned[ProductWidget].Price.Equal(decimal.RequireFromString("2.5")))

	var empty Catalog
	require.NoError(t, empty.Scan(nil))
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestCatalogValidate(t *testing.T) {
	assert.NoError(t, Catalog{ProductGizmo: {Price: decimal.Zero, Amount: 0}}.Validate())
	assert.Error(t, Catalog{"teapot": {Price: decimal.NewFromInt(1), Amount: 1}}.Validate())
	assert.Error(t, Catalog{ProductGizmo: {Price: decimal.NewFromInt(1), Amount: -1}}.Validate())
	assert.Error(t, Catalog{ProductGizmo: {Price: decimal.NewFromInt(-1), Amount: 1}}.Validate())
}

func TestLedger(t *testing.T) {
	p := PurchasedProduct{Name: ProductGadget, Price: decimal.NewFromInt(4), Quantity: 2}
	var l Ledger
	next := l.WithPurchase(p)
	assert.Empty(t, l)
	require.Len(t, next, 1)

	ok, err := next.Contains(ProductGadget)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = next.Contains(PurchasedProduct{Name: ProductGadget, Price: decimal.RequireFromString("4.00"), Quantity: 2})
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = next.Contains("widget")
	require.NoError(t, err)
	assert.False(t, ok)

	v, err := next.Value()
	require.NoError(t, err)
	var scanned Ledger
	require.NoError(t, scanned.Scan(v))
	require.Len(t, scanned, 1)
	assert.True(t, scanned[0].Equal(p))
}

func TestShopInventory(t *testing.T) {
	catalog := Catalog{ProductWidget: {Price: decimal.NewFromInt(1), Amount: 0}}
	s := NewShop("corner", catalog)
	assert.True(t, s.IsEmpty())

	catalog[ProductWidget] = Product{Price: decimal.NewFromInt(1), Amount: 9}
	assert.True(t, s.IsEmpty(), "shop keeps its own copy of the catalog")

	require.NoError(t, ShopFields.SetFields(s, map[field.Key]interface{}{field.Products: catalog}))
	assert.False(t, s.IsEmpty())
	entry, ok := s.Product(ProductWidget)
	require.True(t, ok)
	assert.Equal(t, 9, entry.Amount)

	err := ShopFields.SetFields(s, map[field.Key]interface{}{field.Products: "widget"})
	var invalid *types.InvalidFieldTypeError
	assert.ErrorAs(t, err, &invalid)
}

func TestUserFields(t *testing.T) {
	u := NewUser("alice", "alice@example.com", "hash", RoleCustomer)

	require.NoError(t, UserFields.SetFields(u, map[field.Key]interface{}{field.Role: "admin"}))
	assert.Equal(t, RoleAdmin, u.Role)

	err := UserFields.SetFields(u, map[field.Key]interface{}{field.Role: "ROOT"})
	var invalid *types.InvalidFieldTypeError
	assert.ErrorAs(t, err, &invalid)

	_, err = UserFields.Resolve(field.Amount)
	var unknown *types.UnknownFieldError
	assert.ErrorAs(t, err, &unknown)

	acc, err := UserFields.Resolve(field.PurchasedProducts)
	require.NoError(t, err)
	assert.True(t, acc.IsList())
}

func TestWalletFields(t *testing.T) {
	w := NewWallet("u1", OwnerUser)
	require.NoError(t, WalletFields.SetFields(w, map[field.Key]interface{}{field.Amount: 12.25}))
	assert.True(t, w.Amount.Equal(decimal.RequireFromString("12.25")))

	err := WalletFields.SetFields(w, map[field.Key]interface{}{field.OwnerType: "BANK"})
	var invalid *types.InvalidFieldTypeError
	assert.ErrorAs(t, err, &invalid)
}
