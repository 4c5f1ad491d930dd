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

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"

	"github.com/DeadNord/shop-server/config"
	"github.com/DeadNord/shop-server/criteria"
	"github.com/DeadNord/shop-server/database"
	"github.com/DeadNord/shop-server/entity"
	"github.com/DeadNord/shop-server/manager"
	"github.com/DeadNord/shop-server/repository"
	"github.com/DeadNord/shop-server/utils"
)

// App owns the store connection and every component built on it.
type App struct {
	Config *config.Config

	UserRepo   *repository.Repository[entity.User, *entity.User]
	WalletRepo *repository.Repository[entity.Wallet, *entity.Wallet]
	ShopRepo   *repository.Repository[entity.Shop, *entity.Shop]

	Users *manager.UsersManager
	Shops *manager.ShopsManager

	factory *database.BaseDatabaseFactory
	log     *logrus.Logger
}

// Migrations returns the schema changes applied after the base tables.
func Migrations() []database.MigrationItem {
	return []database.MigrationItem{
		database.CreateIndexMigration("002", "idx_users_email", (*entity.User)(nil), "email"),
		database.CreateIndexMigration("003", "idx_wallets_owner", (*entity.Wallet)(nil), "owner_id", "owner_type"),
		database.CreateIndexMigration("004", "idx_shops_name", (*entity.Shop)(nil), "name"),
	}
}

// Open configures logging, connects and migrates the store and builds the
// repositories and managers. A nil cfg means config.Default().
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := utils.ConfigureLogging(cfg.Log); err != nil {
		return nil, errors.Wrap(err, "configure logging")
	}
	log := utils.NewLogger("APP")

	registry := database.NewModelRegistry()
	for i, m := range entity.Models() {
		registry.Register(database.NewModelAdapter(m, i))
	}
	factory, err := database.Open(ctx, &cfg.Database, registry, Migrations()...)
	if err != nil {
		return nil, errors.Wrap(err, "open store")
	}
	db := factory.GetDB()

	repoOpts := []repository.Option{repository.WithQueryTimeout(cfg.Repository.QueryTimeout)}
	managerOpts := []manager.Option{
		manager.WithRetry(&cfg.Transaction),
		manager.WithQueryTimeout(cfg.Repository.QueryTimeout),
		manager.WithTxTimeout(cfg.Repository.TransactionTimeout),
	}
	app := &App{
		Config:     cfg,
		UserRepo:   repository.New[entity.User, *entity.User](db, entity.UserFields, repoOpts...),
		WalletRepo: repository.New[entity.Wallet, *entity.Wallet](db, entity.WalletFields, repoOpts...),
		ShopRepo:   repository.New[entity.Shop, *entity.Shop](db, entity.ShopFields, repoOpts...),
		Users:      manager.NewUsersManager(db, managerOpts...),
		Shops:      manager.NewShopsManager(db, managerOpts...),
		factory:    factory,
		log:        log,
	}
	log.WithField("type", cfg.Database.Connection.Type).Info("Shop server ready")
	return app, nil
}

// DB returns the underlying connection.
func (a *App) DB() *bun.DB { return a.factory.GetDB() }

// Health pings the store.
func (a *App) Health(ctx context.Context) *database.HealthStatus {
	return a.factory.GetHealthStatus(ctx)
}

// FindAnyInCollection returns users, wallets and shops stored in coll that
// match at least one criterion. Criteria naming fields a type lacks are
// ignored for that type.
func (a *App) FindAnyInCollection(ctx context.Context, c criteria.Criteria, coll entity.Collection) ([]entity.Entity, error) {
	return repository.FindAllContainingAnyCriterion(ctx, c, coll, a.UserRepo, a.WalletRepo, a.ShopRepo)
}

// Close releases the store connection.
func (a *App) Close() error {
	a.log.Info("Shop server closing")
	return a.factory.Close()
}
