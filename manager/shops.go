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

package manager

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"

	"github.com/DeadNord/shop-server/criteria"
	"github.com/DeadNord/shop-server/entity"
	"github.com/DeadNord/shop-server/field"
	"github.com/DeadNord/shop-server/types"
)

// ShopsManager runs shop lifecycle and inventory workflows.
type ShopsManager struct {
	*store
}

func NewShopsManager(db *bun.DB, opts ...Option) *ShopsManager {
	return &ShopsManager{store: newStore(db, "shops", opts)}
}

// CreateShop stores a new shop with a copy of catalog and an empty wallet.
func (m *ShopsManager) CreateShop(ctx context.Context, name string, catalog entity.Catalog) (*entity.Shop, error) {
	if err := catalog.Validate(); err != nil {
		return nil, &types.InvalidFieldTypeError{Entity: "Shop", Field: field.Products.String(), Expected: "a product catalog", Err: err}
	}

	var created *entity.Shop
	err := m.runAtomic(ctx, "create_shop", func(ctx context.Context, r repos) error {
		shop := entity.NewShop(name, catalog)
		shop.ID = newID()
		wallet, err := r.wallets.Save(ctx, entity.NewWallet(shop.ID, entity.OwnerShop), entity.Wallets)
		if err != nil {
			return err
		}
		shop.WalletID = wallet.ID
		created, err = r.shops.Save(ctx, shop, entity.Shops)
		return err
	})
	if err != nil {
		return nil, err
	}
	m.log.WithFields(logrus.Fields{"shop_id": created.ID, "products": len(created.Products)}).Info("Shop created")
	return created, nil
}

func (m *ShopsManager) GetShopByID(ctx context.Context, shopID string) (*entity.Shop, error) {
	return m.repos.shops.FindByID(ctx, shopID, entity.Shops)
}

func (m *ShopsManager) GetAllShops(ctx context.Context) ([]*entity.Shop, error) {
	return m.repos.shops.FindAllInCollection(ctx, entity.Shops)
}

// GetShopWallet returns the wallet owned by the shop.
func (m *ShopsManager) GetShopWallet(ctx context.Context, shopID string) (*entity.Wallet, error) {
	shop, err := m.GetShopByID(ctx, shopID)
	if err != nil {
		return nil, err
	}
	return m.repos.wallets.FindByID(ctx, shop.WalletID, entity.Wallets)
}

// GetProductData returns the catalog entry of product in the shop.
func (m *ShopsManager) GetProductData(ctx context.Context, shopID string, product entity.ProductName) (entity.Product, error) {
	shop, err := m.GetShopByID(ctx, shopID)
	if err != nil {
		return entity.Product{}, err
	}
	entry, ok := shop.Product(product)
	if !ok {
		return entity.Product{}, productNotFound(shopID, product)
	}
	return entry, nil
}

// RestockProduct adds quantity units of product to the shop. A positive
// price replaces the current one; a product new to the catalog needs one.
func (m *ShopsManager) RestockProduct(ctx context.Context, shopID string, product entity.ProductName, quantity int, price decimal.Decimal) (*entity.Shop, error) {
	if quantity <= 0 {
		return nil, &types.InvalidAmountError{Operation: "restock", Amount: decimal.NewFromInt(int64(quantity)).String()}
	}
	if price.IsNegative() {
		return nil, &types.InvalidAmountError{Operation: "restock price", Amount: price.String()}
	}
	if !product.IsValid() {
		return nil, &types.InvalidFieldTypeError{Entity: "Shop", Field: field.Products.String(), Expected: "a known product", Value: product}
	}

	var updated *entity.Shop
	err := m.runAtomic(ctx, "restock_product", func(ctx context.Context, r repos) error {
		shop, err := r.shops.FindByID(ctx, shopID, entity.Shops)
		if err != nil {
			return err
		}
		entry, exists := shop.Product(product)
		if !exists && !price.IsPositive() {
			return &types.InvalidAmountError{Operation: "restock price", Amount: price.String()}
		}
		if price.IsPositive() {
			entry.Price = price
		}
		entry.Amount += quantity
		catalog := shop.Products.Clone()
		catalog[product] = entry
		updated, err = r.shops.Update(ctx, shop, map[field.Key]interface{}{field.Products: catalog}, entity.Shops)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteShop removes an empty shop and its wallet in one transaction. A shop
// still holding stock or money is refused with ShopNotEmptyError.
func (m *ShopsManager) DeleteShop(ctx context.Context, shopID string) error {
	err := m.runAtomic(ctx, "delete_shop", func(ctx context.Context, r repos) error {
		shop, err := r.shops.FindByID(ctx, shopID, entity.Shops)
		if err != nil {
			return err
		}
		if !shop.IsEmpty() {
			return &types.ShopNotEmptyError{ShopID: shopID, Reason: "products remain in stock"}
		}
		if shop.WalletID != "" {
			wallet, err := r.wallets.FindByID(ctx, shop.WalletID, entity.Wallets)
			switch {
			case types.IsNotFound(err):
			case err != nil:
				return err
			case !wallet.Amount.IsZero():
				return &types.ShopNotEmptyError{ShopID: shopID, Reason: "wallet balance is " + wallet.Amount.String()}
			default:
				if err := r.wallets.DeleteBy(ctx, criteria.ByID(wallet.ID), entity.Wallets); err != nil {
					return err
				}
			}
		}
		return r.shops.DeleteBy(ctx, criteria.ByID(shopID), entity.Shops)
	})
	if err != nil {
		return errors.Wrapf(err, "delete shop %s", shopID)
	}
	m.log.WithField("shop_id", shopID).Info("Shop deleted")
	return nil
}
