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
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"

	"github.com/DeadNord/shop-server/database"
	"github.com/DeadNord/shop-server/entity"
	"github.com/DeadNord/shop-server/metrics"
	"github.com/DeadNord/shop-server/repository"
	"github.com/DeadNord/shop-server/retry"
	"github.com/DeadNord/shop-server/types"
	"github.com/DeadNord/shop-server/utils"
)

type (
	userRepo   = repository.Repository[entity.User, *entity.User]
	walletRepo = repository.Repository[entity.Wallet, *entity.Wallet]
	shopRepo   = repository.Repository[entity.Shop, *entity.Shop]
)

// DefaultTxTimeout bounds one transaction attempt, including waiting for a
// pooled connection and the commit.
const DefaultTxTimeout = 30 * time.Second

// Option configures a manager.
type Option func(*options)

type options struct {
	retry        *retry.Config
	queryTimeout time.Duration
	txTimeout    time.Duration
	logger       *logrus.Logger
}

// WithRetry sets the conflict retry policy of transactional workflows.
func WithRetry(cfg *retry.Config) Option {
	return func(o *options) { o.retry = cfg }
}

// WithQueryTimeout bounds every store call.
func WithQueryTimeout(d time.Duration) Option {
	return func(o *options) { o.queryTimeout = d }
}

// WithTxTimeout bounds every transaction attempt; zero or less disables the
// bound.
func WithTxTimeout(d time.Duration) Option {
	return func(o *options) { o.txTimeout = d }
}

// WithLogger replaces the default MANAGER logger.
func WithLogger(l *logrus.Logger) Option {
	return func(o *options) { o.logger = l }
}

// repos is the set of repositories one workflow step works with.
type repos struct {
	users   *userRepo
	wallets *walletRepo
	shops   *shopRepo
}

func (r repos) withTx(tx bun.IDB) repos {
	return repos{users: r.users.WithTx(tx), wallets: r.wallets.WithTx(tx), shops: r.shops.WithTx(tx)}
}

type store struct {
	db        *bun.DB
	repos     repos
	retry     *retry.Config
	txTimeout time.Duration
	log       *logrus.Entry

	// afterLoad runs inside a purchase once every record is loaded and
	// before the first write.
	afterLoad func(ctx context.Context, r repos) error
}

func newStore(db *bun.DB, component string, opts []Option) *store {
	o := options{retry: retry.DefaultConfig(), queryTimeout: repository.DefaultQueryTimeout, txTimeout: DefaultTxTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = utils.NewLogger("MANAGER")
	}
	repoOpts := []repository.Option{repository.WithQueryTimeout(o.queryTimeout)}
	return &store{
		db: db,
		repos: repos{
			users:   repository.New[entity.User, *entity.User](db, entity.UserFields, repoOpts...),
			wallets: repository.New[entity.Wallet, *entity.Wallet](db, entity.WalletFields, repoOpts...),
			shops:   repository.New[entity.Shop, *entity.Shop](db, entity.ShopFields, repoOpts...),
		},
		retry:     o.retry,
		txTimeout: o.txTimeout,
		log:       o.logger.WithField("component", component),
	}
}

// runAtomic executes fn in a transaction, retrying the whole transaction
// while it loses a version check or waits out a store lock. When the budget
// runs out a conflict is returned with Attempts set.
func (s *store) runAtomic(ctx context.Context, workflow string, fn func(ctx context.Context, r repos) error) error {
	start := time.Now()
	attempts := 0
	_, err := retry.Do(ctx, s.retry, s.log, workflow, isContention, func(ctx context.Context, attempt int) (struct{}, error) {
		attempts = attempt
		err := s.runTx(ctx, workflow, fn)
		if types.IsConcurrencyConflict(err) {
			metrics.ObserveConflict(workflow)
		}
		return struct{}{}, err
	})

	var conflict *types.ConcurrencyConflictError
	result := metrics.Result(err)
	if errors.As(err, &conflict) {
		conflict.Attempts = attempts
		result = metrics.ResultConflict
	}
	metrics.ObserveTransaction(workflow, result, time.Since(start))
	return err
}

// runTx runs one attempt under the transaction timeout. Failures to begin
// or commit surface as StoreUnavailableError.
func (s *store) runTx(ctx context.Context, workflow string, fn func(ctx context.Context, r repos) error) error {
	if s.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.txTimeout)
		defer cancel()
	}
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, s.repos.withTx(tx))
	})
	if err == nil || types.IsDomainError(err) {
		return err
	}

	kind := ""
	if ok, sqlErr := database.IsSqlError(err); ok {
		kind = sqlErr.String()
	}
	s.log.WithFields(logrus.Fields{"workflow": workflow, "kind": kind}).WithError(err).Error("Transaction failed")
	return errors.WithStack(&types.StoreUnavailableError{Operation: workflow + " transaction", Kind: kind, Err: err})
}

// isContention reports errors worth another attempt: a lost version check or
// a store lock held by another writer.
func isContention(err error) bool {
	if types.IsConcurrencyConflict(err) {
		return true
	}
	var unavailable *types.StoreUnavailableError
	return errors.As(err, &unavailable) && unavailable.Kind == database.LockedErr.String()
}

func productNotFound(shopID string, product entity.ProductName) error {
	return errors.WithStack(&types.NotFoundError{
		Entity:     "Product",
		Collection: entity.Shops.String(),
		Criteria:   map[string]interface{}{"shopId": shopID, "product": product.String()},
	})
}

func newID() string { return uuid.NewString() }
