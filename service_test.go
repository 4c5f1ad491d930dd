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

package shopserver

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeadNord/shop-server/config"
	"github.com/DeadNord/shop-server/criteria"
	"github.com/DeadNord/shop-server/entity"
	"github.com/DeadNord/shop-server/field"
	"github.com/DeadNord/shop-server/manager"
)

func openApp(t *testing.T) *App {
	t.Helper()
	cfg := config.Default()
	cfg.Database.Connection.DSN = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	cfg.Database.Connection.MaxOpenConns = 1
	cfg.Database.Connection.MaxIdleConns = 1
	app, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestOpenMigratesAndServes(t *testing.T) {
	app := openApp(t)
	ctx := context.Background()

	assert.True(t, app.Health(ctx).Healthy)

	var versions []string
	require.NoError(t, app.DB().NewSelect().Table("schema_migrations").Column("version").Order("version").Scan(ctx, &versions))
	assert.Equal(t, []string{"001", "002", "003", "004"}, versions)

	u, err := app.Users.CreateUser(ctx, manager.CreateUserInput{Name: "carol", Email: "carol@example.com", Password: "hash"})
	require.NoError(t, err)
	s, err := app.Shops.CreateShop(ctx, "kiosk", entity.Catalog{entity.ProductGadget: {Price: decimal.NewFromInt(3), Amount: 4}})
	require.NoError(t, err)
	_, err = app.Users.Deposit(ctx, u.ID, decimal.NewFromInt(9))
	require.NoError(t, err)

	buyer, err := app.Users.BuyProduct(ctx, u.ID, s.ID, entity.ProductGadget, 3)
	require.NoError(t, err)
	assert.Len(t, buyer.PurchasedProducts, 1)

	n, err := app.WalletRepo.Count(ctx, criteria.Of(field.OwnerType, entity.OwnerShop), entity.Wallets)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestFindAnyInCollection(t *testing.T) {
	app := openApp(t)
	ctx := context.Background()

	u, err := app.Users.CreateUser(ctx, manager.CreateUserInput{Name: "dave", Email: "dave@example.com", Password: "hash"})
	require.NoError(t, err)
	_, err = app.Users.CreateUser(ctx, manager.CreateUserInput{Name: "erin", Email: "erin@example.com", Password: "hash"})
	require.NoError(t, err)

	found, err := app.FindAnyInCollection(ctx, criteria.Of(field.Name, "dave"), entity.Users)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, u.ID, found[0].GetID())
}
