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
	"github.com/DeadNord/shop-server/metrics"
	"github.com/DeadNord/shop-server/types"
)

// CreateUserInput carries an already validated registration. Password is an
// opaque credential hash.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     entity.Role
}

var editableUserFields = map[field.Key]struct{}{
	field.Name:     {},
	field.Email:    {},
	field.Password: {},
	field.Role:     {},
}

// UsersManager runs user, wallet and purchase workflows.
type UsersManager struct {
	*store
}

func NewUsersManager(db *bun.DB, opts ...Option) *UsersManager {
	return &UsersManager{store: newStore(db, "users", opts)}
}

// CreateUser stores a new user together with its empty wallet.
func (m *UsersManager) CreateUser(ctx context.Context, in CreateUserInput) (*entity.User, error) {
	role := in.Role
	if role == "" {
		role = entity.RoleCustomer
	}
	if !role.IsValid() {
		return nil, &types.InvalidFieldTypeError{Entity: "User", Field: field.Role.String(), Expected: "ADMIN or CUSTOMER", Value: in.Role}
	}

	var created *entity.User
	err := m.runAtomic(ctx, "create_user", func(ctx context.Context, r repos) error {
		user := entity.NewUser(in.Name, in.Email, in.Password, role)
		user.ID = newID()
		wallet, err := r.wallets.Save(ctx, entity.NewWallet(user.ID, entity.OwnerUser), entity.Wallets)
		if err != nil {
			return err
		}
		user.WalletID = wallet.ID
		created, err = r.users.Save(ctx, user, entity.Users)
		return err
	})
	if err != nil {
		return nil, err
	}
	m.log.WithFields(logrus.Fields{"user_id": created.ID, "wallet_id": created.WalletID}).Info("User created")
	return created, nil
}

func (m *UsersManager) GetUserByID(ctx context.Context, userID string) (*entity.User, error) {
	return m.repos.users.FindByID(ctx, userID, entity.Users)
}

// GetUserBy returns the single user matching c.
func (m *UsersManager) GetUserBy(ctx context.Context, c criteria.Criteria) (*entity.User, error) {
	return m.repos.users.FindOneOrThrow(ctx, c, entity.Users)
}

func (m *UsersManager) GetAllUsers(ctx context.Context) ([]*entity.User, error) {
	return m.repos.users.FindAllInCollection(ctx, entity.Users)
}

// SearchUsers returns users whose fields contain, start with or end with the
// criteria values.
func (m *UsersManager) SearchUsers(ctx context.Context, c criteria.Criteria, side criteria.Side) ([]*entity.User, error) {
	return m.repos.users.FindAllBySide(ctx, c, side, entity.Users)
}

// GetUserWallet returns the wallet owned by the user.
func (m *UsersManager) GetUserWallet(ctx context.Context, userID string) (*entity.Wallet, error) {
	user, err := m.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return m.repos.wallets.FindByID(ctx, user.WalletID, entity.Wallets)
}

// HasPurchased reports whether the user's ledger holds product.
func (m *UsersManager) HasPurchased(ctx context.Context, userID string, product entity.ProductName) (bool, error) {
	return m.repos.users.IsListFieldContains(ctx, userID, field.PurchasedProducts, product, entity.Users)
}

// UpdateUserData changes profile fields of a user. Only name, email,
// password and role may be changed this way.
func (m *UsersManager) UpdateUserData(ctx context.Context, userID string, updates map[field.Key]interface{}) (*entity.User, error) {
	for k, v := range updates {
		if _, ok := editableUserFields[k]; !ok {
			if _, err := entity.UserFields.Resolve(k); err != nil {
				return nil, err
			}
			return nil, &types.InvalidFieldTypeError{Entity: "User", Field: k.String(), Expected: "a profile field", Value: v}
		}
	}

	var updated *entity.User
	err := m.runAtomic(ctx, "update_user", func(ctx context.Context, r repos) error {
		user, err := r.users.FindByID(ctx, userID, entity.Users)
		if err != nil {
			return err
		}
		updated, err = r.users.Update(ctx, user, updates, entity.Users)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Deposit adds a positive amount to the user's wallet.
func (m *UsersManager) Deposit(ctx context.Context, userID string, amount decimal.Decimal) (*entity.Wallet, error) {
	var wallet *entity.Wallet
	err := m.runAtomic(ctx, "deposit", func(ctx context.Context, r repos) error {
		user, err := r.users.FindByID(ctx, userID, entity.Users)
		if err != nil {
			return err
		}
		if !amount.IsPositive() {
			return &types.InvalidAmountError{Operation: "deposit", Amount: amount.String()}
		}
		current, err := r.wallets.FindByID(ctx, user.WalletID, entity.Wallets)
		if err != nil {
			return err
		}
		wallet, err = r.wallets.Update(ctx, current, map[field.Key]interface{}{
			field.Amount: current.Amount.Add(amount),
		}, entity.Wallets)
		return err
	})
	metrics.ObserveDeposit(metrics.Result(err))
	if err != nil {
		return nil, err
	}
	m.log.WithFields(logrus.Fields{"user_id": userID, "amount": amount.String(), "balance": wallet.Amount.String()}).Info("Deposit completed")
	return wallet, nil
}

// BuyProduct moves quantity units of product from the shop to the buyer.
// The buyer's and the shop's wallets, the shop catalog and the buyer's
// ledger change together or not at all.
func (m *UsersManager) BuyProduct(ctx context.Context, userID, shopID string, product entity.ProductName, quantity int) (*entity.User, error) {
	if quantity <= 0 {
		err := &types.InvalidAmountError{Operation: "buy product", Amount: decimal.NewFromInt(int64(quantity)).String()}
		metrics.ObservePurchase(product.String(), metrics.ResultError)
		return nil, err
	}

	var buyer *entity.User
	err := m.runAtomic(ctx, "buy_product", func(ctx context.Context, r repos) error {
		shop, err := r.shops.FindByID(ctx, shopID, entity.Shops)
		if err != nil {
			return err
		}
		entry, ok := shop.Product(product)
		if !ok {
			return productNotFound(shopID, product)
		}
		if entry.Amount < quantity {
			return &types.InsufficientInventoryError{ShopID: shopID, Product: product.String(), Requested: quantity, Available: entry.Amount}
		}
		total := entry.Price.Mul(decimal.NewFromInt(int64(quantity)))

		user, err := r.users.FindByID(ctx, userID, entity.Users)
		if err != nil {
			return err
		}
		buyerWallet, err := r.wallets.FindByID(ctx, user.WalletID, entity.Wallets)
		if err != nil {
			return err
		}
		if buyerWallet.Amount.LessThan(total) {
			return &types.InsufficientFundsError{UserID: userID, Product: product.String(), Required: total.String(), Available: buyerWallet.Amount.String()}
		}
		shopWallet, err := r.wallets.FindByID(ctx, shop.WalletID, entity.Wallets)
		if err != nil {
			return err
		}
		if m.afterLoad != nil {
			if err := m.afterLoad(ctx, r); err != nil {
				return err
			}
		}

		if buyerWallet.ID != shopWallet.ID {
			if _, err := r.wallets.Update(ctx, buyerWallet, map[field.Key]interface{}{field.Amount: buyerWallet.Amount.Sub(total)}, entity.Wallets); err != nil {
				return err
			}
			if _, err := r.wallets.Update(ctx, shopWallet, map[field.Key]interface{}{field.Amount: shopWallet.Amount.Add(total)}, entity.Wallets); err != nil {
				return err
			}
		}

		catalog := shop.Products.Clone()
		entry.Amount -= quantity
		catalog[product] = entry
		if _, err := r.shops.Update(ctx, shop, map[field.Key]interface{}{field.Products: catalog}, entity.Shops); err != nil {
			return err
		}

		purchase := entity.PurchasedProduct{Name: product, Price: entry.Price, Quantity: quantity}
		buyer, err = r.users.Update(ctx, user, map[field.Key]interface{}{
			field.PurchasedProducts: user.PurchasedProducts.WithPurchase(purchase),
		}, entity.Users)
		return err
	})
	metrics.ObservePurchase(product.String(), metrics.Result(err))
	if err != nil {
		m.log.WithFields(logrus.Fields{"user_id": userID, "shop_id": shopID, "product": product}).WithError(err).Warn("Purchase rejected")
		return nil, err
	}
	m.log.WithFields(logrus.Fields{"user_id": userID, "shop_id": shopID, "product": product, "quantity": quantity}).Info("Purchase completed")
	return buyer, nil
}

// DeleteUser removes the user and its wallet in one transaction. A wallet
// that is already gone does not block the deletion.
func (m *UsersManager) DeleteUser(ctx context.Context, userID string) error {
	err := m.runAtomic(ctx, "delete_user", func(ctx context.Context, r repos) error {
		user, err := r.users.FindByID(ctx, userID, entity.Users)
		if err != nil {
			return err
		}
		if user.WalletID != "" {
			err := r.wallets.DeleteBy(ctx, criteria.ByID(user.WalletID), entity.Wallets)
			if err != nil && !types.IsNotFound(err) {
				return err
			}
		}
		return r.users.DeleteBy(ctx, criteria.ByID(userID), entity.Users)
	})
	if err != nil {
		return errors.Wrapf(err, "delete user %s", userID)
	}
	m.log.WithField("user_id", userID).Info("User deleted")
	return nil
}
