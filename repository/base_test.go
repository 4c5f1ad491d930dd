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

package repository

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/DeadNord/shop-server/criteria"
	"github.com/DeadNord/shop-server/database/databasetest"
	"github.com/DeadNord/shop-server/entity"
	"github.com/DeadNord/shop-server/field"
	"github.com/DeadNord/shop-server/types"
)

type fixture struct {
	db      *bun.DB
	users   *Repository[entity.User, *entity.User]
	wallets *Repository[entity.Wallet, *entity.Wallet]
	shops   *Repository[entity.Shop, *entity.Shop]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := databasetest.Open(t, entity.Models()...)
	return &fixture{
		db:      db,
		users:   New[entity.User, *entity.User](db, entity.UserFields),
		wallets: New[entity.Wallet, *entity.Wallet](db, entity.WalletFields),
		shops:   New[entity.Shop, *entity.Shop](db, entity.ShopFields),
	}
}

func (f *fixture) user(t *testing.T, name, email string, role entity.Role) *entity.User {
	t.Helper()
	u, err := f.users.Save(context.Background(), entity.NewUser(name, email, "hash", role), entity.Users)
	require.NoError(t, err)
	return u
}

func TestSaveAssignsIdentityAndFindByID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := f.user(t, "alice", "alice@example.com", entity.RoleCustomer)
	require.NotEmpty(t, u.ID)
	assert.Equal(t, int64(1), u.Version)

	got, err := f.users.FindByID(ctx, u.ID, entity.Users)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Name)
	assert.Equal(t, entity.RoleCustomer, got.Role)
	assert.Empty(t, got.PurchasedProducts)
}

func TestSaveUpsertsExistingID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := f.user(t, "alice", "alice@example.com", entity.RoleCustomer)
	u.Name = "alice2"
	_, err := f.users.Save(ctx, u, entity.Users)
	require.NoError(t, err)

	n, err := f.users.Count(ctx, nil, entity.Users)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.users.FindByID(ctx, u.ID, entity.Users)
	require.NoError(t, err)
	assert.Equal(t, "alice2", got.Name)
}

func TestFindOneOrThrow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "alice", "a1@example.com", entity.RoleCustomer)
	f.user(t, "alice", "a2@example.com", entity.RoleCustomer)

	_, err := f.users.FindOneOrThrow(ctx, criteria.Criteria{field.Name: "carol"}, entity.Users)
	var notFound *types.NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "users", notFound.Collection)
	assert.Contains(t, err.Error(), "name=carol")

	_, err = f.users.FindOneOrThrow(ctx, criteria.Criteria{field.Name: "alice"}, entity.Users)
	var ambiguous *types.AmbiguousQueryError
	require.True(t, errors.As(err, &ambiguous))
	assert.Equal(t, 2, ambiguous.Matches)
	assert.Contains(t, err.Error(), "narrow the query")

	got, err := f.users.FindOneOrThrow(ctx, criteria.Criteria{field.Name: "alice", field.Email: "a2@example.com"}, entity.Users)
	require.NoError(t, err)
	assert.Equal(t, "a2@example.com", got.Email)
}

func TestFindAllListValuesAreOred(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "alice", "a@example.com", entity.RoleAdmin)
	f.user(t, "bob", "b@example.com", entity.RoleCustomer)
	f.user(t, "carol", "c@example.com", entity.RoleCustomer)

	got, err := f.users.FindAll(ctx, criteria.Criteria{field.Name: "alice, bob,,alice"}, entity.Users)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob"}, names(got))

	got, err = f.users.FindAll(ctx, criteria.Criteria{field.Name: "alice,bob", field.Role: entity.RoleCustomer}, entity.Users)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, names(got))

	got, err = f.users.FindAll(ctx, nil, entity.Users)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestFindAllRejectsUnknownField(t *testing.T) {
	f := newFixture(t)
	_, err := f.users.FindAll(context.Background(), criteria.Criteria{field.OwnerID: "x"}, entity.Users)
	var unknown *types.UnknownFieldError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "ownerId", unknown.Field)
}

func TestFindAllBySide(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "alice", "a@example.com", entity.RoleCustomer)
	f.user(t, "alicia", "b@example.com", entity.RoleCustomer)
	f.user(t, "malice", "c@example.com", entity.RoleCustomer)
	f.user(t, "50%_off", "d@example.com", entity.RoleCustomer)

	tests := []struct {
		name  string
		value string
		side  criteria.Side
		want  []string
	}{
		{"starts with", "ali", criteria.SideRight, []string{"alice", "alicia"}},
		{"ends with", "lice", criteria.SideLeft, []string{"alice", "malice"}},
		{"contains", "lic", criteria.SideBoth, []string{"alice", "alicia", "malice"}},
		{"list", "alic,mal", criteria.SideRight, []string{"alice", "alicia", "malice"}},
		{"escaped wildcards", "%_", criteria.SideBoth, []string{"50%_off"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.users.FindAllBySide(ctx, criteria.Criteria{field.Name: tt.value}, tt.side, entity.Users)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, names(got))
		})
	}
}

func TestFindAllContainingAnyCriterion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", "a@example.com", entity.RoleAdmin)
	f.user(t, "bob", "b@example.com", entity.RoleCustomer)
	f.user(t, "carol", "c@example.com", entity.RoleCustomer)

	got, err := f.users.FindAllContainingAnyCriterion(ctx, criteria.Criteria{
		field.Name:  "bob",
		field.Email: "a@example.com",
		field.Role:  entity.RoleAdmin,
	}, entity.Users)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob"}, names(got))

	_, err = f.users.FindAllContainingAnyCriterion(ctx, criteria.Criteria{field.Amount: 1}, entity.Users)
	assert.True(t, errors.As(err, new(*types.UnknownFieldError)))

	mixed, err := FindAllContainingAnyCriterion(ctx, criteria.Criteria{
		field.Name:    "carol",
		field.ID:      alice.ID,
		field.OwnerID: "nobody",
	}, entity.Users, f.users, f.wallets, f.users)
	require.NoError(t, err)
	require.Len(t, mixed, 2)
	ids := []string{mixed[0].GetID(), mixed[1].GetID()}
	assert.Contains(t, ids, alice.ID)
}

func TestUpdateBumpsVersionAndLeavesInputUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w, err := f.wallets.Save(ctx, entity.NewWallet("owner", entity.OwnerUser), entity.Wallets)
	require.NoError(t, err)

	updated, err := f.wallets.Update(ctx, w, map[field.Key]interface{}{field.Amount: "12.50"}, entity.Wallets)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("12.5").Equal(updated.Amount))
	assert.Equal(t, int64(2), updated.Version)
	assert.True(t, w.Amount.IsZero())
	assert.Equal(t, int64(1), w.Version)

	stored, err := f.wallets.FindByID(ctx, w.ID, entity.Wallets)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("12.5").Equal(stored.Amount))
	assert.Equal(t, int64(2), stored.Version)
}

func TestUpdateWithStaleVersionConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w, err := f.wallets.Save(ctx, entity.NewWallet("owner", entity.OwnerUser), entity.Wallets)
	require.NoError(t, err)

	_, err = f.wallets.Update(ctx, w, map[field.Key]interface{}{field.Amount: 5}, entity.Wallets)
	require.NoError(t, err)

	_, err = f.wallets.Update(ctx, w, map[field.Key]interface{}{field.Amount: 7}, entity.Wallets)
	var conflict *types.ConcurrencyConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, w.ID, conflict.ID)
	assert.Equal(t, int64(1), conflict.Version)
	assert.True(t, types.IsConcurrencyConflict(err))
}

func TestUpdateRejectsBadFieldsWithoutWriting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "alice", "a@example.com", entity.RoleCustomer)

	_, err := f.users.Update(ctx, u, map[field.Key]interface{}{field.Name: "x", field.Amount: 3}, entity.Users)
	assert.True(t, errors.As(err, new(*types.UnknownFieldError)))

	_, err = f.users.Update(ctx, u, map[field.Key]interface{}{field.Name: "x", field.Role: "GUEST"}, entity.Users)
	assert.True(t, errors.As(err, new(*types.InvalidFieldTypeError)))

	_, err = f.users.Update(ctx, u, map[field.Key]interface{}{field.ID: "other"}, entity.Users)
	assert.True(t, errors.As(err, new(*types.InvalidFieldTypeError)))

	stored, err := f.users.FindByID(ctx, u.ID, entity.Users)
	require.NoError(t, err)
	assert.Equal(t, "alice", stored.Name)
	assert.Equal(t, int64(1), stored.Version)
}

func TestUpdateMissingEntity(t *testing.T) {
	f := newFixture(t)
	ghost := entity.NewWallet("owner", entity.OwnerUser)
	ghost.ID = "missing"
	ghost.Version = 1
	_, err := f.wallets.Update(context.Background(), ghost, map[field.Key]interface{}{field.Amount: 1}, entity.Wallets)
	assert.True(t, types.IsNotFound(err))
}

func TestExistsDeleteAndCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "alice", "a@example.com", entity.RoleCustomer)
	f.user(t, "bob", "b@example.com", entity.RoleCustomer)

	ok, err := f.users.ExistsBy(ctx, criteria.Criteria{field.Email: "a@example.com"}, entity.Users)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, f.users.DeleteBy(ctx, criteria.ByID(u.ID), entity.Users))

	ok, err = f.users.ExistsBy(ctx, criteria.ByID(u.ID), entity.Users)
	require.NoError(t, err)
	assert.False(t, ok)

	err = f.users.DeleteBy(ctx, criteria.ByID(u.ID), entity.Users)
	assert.True(t, types.IsNotFound(err))

	n, err := f.users.Count(ctx, criteria.Criteria{field.Role: entity.RoleCustomer}, entity.Users)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestIsListFieldContains(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "alice", "a@example.com", entity.RoleCustomer)
	purchase := entity.PurchasedProduct{Name: entity.ProductWidget, Price: decimal.NewFromInt(3), Quantity: 2}
	u, err := f.users.Update(ctx, u, map[field.Key]interface{}{
		field.PurchasedProducts: u.PurchasedProducts.WithPurchase(purchase),
	}, entity.Users)
	require.NoError(t, err)

	ok, err := f.users.IsListFieldContains(ctx, u.ID, field.PurchasedProducts, purchase, entity.Users)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.users.IsListFieldContains(ctx, u.ID, field.PurchasedProducts, "gadget", entity.Users)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.users.IsListFieldContains(ctx, u.ID, field.Name, "alice", entity.Users)
	assert.True(t, errors.As(err, new(*types.InvalidFieldTypeError)))

	_, err = f.users.IsListFieldContains(ctx, "missing", field.PurchasedProducts, purchase, entity.Users)
	assert.True(t, types.IsNotFound(err))
}

func TestCollectionsAreAddressedExplicitly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shop, err := f.shops.Save(ctx, entity.NewShop("corner", entity.Catalog{
		entity.ProductGadget: {Price: decimal.NewFromInt(10), Amount: 4},
	}), entity.Shops)
	require.NoError(t, err)

	_, err = f.shops.FindByID(ctx, shop.ID, entity.Users)
	var unavailable *types.StoreUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Equal(t, "users", unavailable.Collection)

	got, err := f.shops.FindByID(ctx, shop.ID, entity.Shops)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Products[entity.ProductGadget].Amount)
}

func TestWithTxRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sentinel := errors.New("abort")

	err := f.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := f.users.WithTx(tx).Save(ctx, entity.NewUser("ghost", "g@example.com", "h", entity.RoleCustomer), entity.Users); err != nil {
			return err
		}
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	n, err := f.users.Count(ctx, nil, entity.Users)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func names(users []*entity.User) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.Name
	}
	return out
}

func TestEmptyCriteriaNeverSelectSomeEntity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", "alice@example.com", entity.RoleCustomer)

	for _, value := range []string{",", " , "} {
		err := f.users.DeleteBy(ctx, criteria.Criteria{field.Email: value}, entity.Users)
		assert.True(t, types.IsNotFound(err), "%q: %v", value, err)

		found, err := f.users.FindAll(ctx, criteria.Criteria{field.Email: value}, entity.Users)
		require.NoError(t, err)
		assert.Empty(t, found)
	}

	var empty *types.EmptyCriteriaError
	err := f.users.DeleteBy(ctx, criteria.Criteria{field.Email: nil}, entity.Users)
	assert.ErrorAs(t, err, &empty)
	_, err = f.users.FindOne(ctx, criteria.Criteria{}, entity.Users)
	assert.ErrorAs(t, err, &empty)
	_, err = f.users.FindOneOrThrow(ctx, nil, entity.Users)
	assert.ErrorAs(t, err, &empty)

	exists, err := f.users.ExistsBy(ctx, criteria.ByID(alice.ID), entity.Users)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSaveOfStoredEntityIsVersionConditioned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "alice", "alice@example.com", entity.RoleCustomer)
	require.Equal(t, int64(1), u.Version)

	stale := *u
	updated, err := f.users.Update(ctx, u, map[field.Key]interface{}{field.Name: "alicia"}, entity.Users)
	require.NoError(t, err)
	require.Equal(t, int64(2), updated.Version)

	stale.Email = "stale@example.com"
	_, err = f.users.Save(ctx, &stale, entity.Users)
	var conflict *types.ConcurrencyConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, int64(1), conflict.Version)
	assert.Equal(t, int64(1), stale.Version)

	got, err := f.users.FindByID(ctx, u.ID, entity.Users)
	require.NoError(t, err)
	assert.Equal(t, "alicia", got.Name)
	assert.Equal(t, "alice@example.com", got.Email)

	got.Email = "fresh@example.com"
	saved, err := f.users.Save(ctx, got, entity.Users)
	require.NoError(t, err)
	assert.Equal(t, int64(3), saved.Version)

	got, err = f.users.FindByID(ctx, u.ID, entity.Users)
	require.NoError(t, err)
	assert.Equal(t, "fresh@example.com", got.Email)
	assert.Equal(t, int64(3), got.Version)
}
