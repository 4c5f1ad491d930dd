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
	"database/sql"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
	"github.com/uptrace/bun/schema"

	"github.com/DeadNord/shop-server/criteria"
	"github.com/DeadNord/shop-server/database"
	"github.com/DeadNord/shop-server/entity"
	"github.com/DeadNord/shop-server/field"
	"github.com/DeadNord/shop-server/types"
	"github.com/DeadNord/shop-server/utils"
)

// DefaultQueryTimeout bounds every store call unless overridden.
const DefaultQueryTimeout = 5 * time.Second

// EntityPtr constrains P to *E implementing entity.Entity.
type EntityPtr[E any] interface {
	*E
	entity.Entity
}

// Repository is the Bun implementation of EntityRepository.
type Repository[E any, P EntityPtr[E]] struct {
	db      bun.IDB
	fields  *field.Registry[E]
	builder *criteria.Builder[E]
	timeout time.Duration
	log     *logrus.Entry
}

var (
	_ EntityRepository[entity.User]                                            = (*Repository[entity.User, *entity.User])(nil)
	_ TransactionRepository[entity.Shop, *Repository[entity.Shop, *entity.Shop]] = (*Repository[entity.Shop, *entity.Shop])(nil)
	_ Candidate                                                                = (*Repository[entity.Wallet, *entity.Wallet])(nil)
)

// Option configures a Repository.
type Option func(*options)

type options struct {
	timeout time.Duration
	logger  *logrus.Logger
}

// WithQueryTimeout bounds each store call; zero or less disables the bound.
func WithQueryTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithLogger replaces the default REPOSITORY logger.
func WithLogger(l *logrus.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New returns a repository for E resolving fields through registry.
func New[E any, P EntityPtr[E]](db bun.IDB, registry *field.Registry[E], opts ...Option) *Repository[E, P] {
	o := options{timeout: DefaultQueryTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = utils.NewLogger("REPOSITORY")
	}
	return &Repository[E, P]{
		db:      db,
		fields:  registry,
		builder: criteria.NewBuilder(registry),
		timeout: o.timeout,
		log:     o.logger.WithField("entity", registry.Entity()),
	}
}

// WithTx returns a copy of r issuing every query through db.
func (r *Repository[E, P]) WithTx(db bun.IDB) *Repository[E, P] {
	clone := *r
	clone.db = db
	return &clone
}

// Fields returns the field registry of E.
func (r *Repository[E, P]) Fields() *field.Registry[E] { return r.fields }

// Save stores e and updates it in place. A missing ID or creation time is
// filled in. An entity never stored before (version 0) is upserted with
// version 1. A stored entity replaces its record only while the stored
// version still equals e's version, and the version is bumped; a stale e
// fails with ConcurrencyConflictError.
func (r *Repository[E, P]) Save(ctx context.Context, e *E, coll entity.Collection) (*E, error) {
	base := P(e).Base()
	now := time.Now().UTC()
	if base.ID == "" {
		base.ID = uuid.NewString()
	}
	if base.CreatedAt.IsZero() {
		base.CreatedAt = now
	}
	base.UpdatedAt = now

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	if base.Version == 0 {
		base.Version = 1
		if err := r.upsert(ctx, e, coll); err != nil {
			base.Version = 0
			return nil, r.storeError("save", coll, err)
		}
	} else if err := r.replace(ctx, e, coll); err != nil {
		return nil, err
	}
	r.log.WithFields(logrus.Fields{"collection": coll, "id": base.ID, "version": base.Version}).Debug("Saved entity")
	return e, nil
}

// replace writes a stored revision of e conditioned on its version. A record
// that no longer exists is inserted again as is.
func (r *Repository[E, P]) replace(ctx context.Context, e *E, coll entity.Collection) error {
	base := P(e).Base()
	expected := base.Version
	base.Version = expected + 1
	res, err := r.db.NewUpdate().
		Model(e).
		ModelTableExpr("?", bun.Ident(coll.String())).
		ExcludeColumn("id", "created_at").
		Where("? = ?", bun.Ident("id"), base.ID).
		Where("? = ?", bun.Ident("version"), expected).
		Exec(ctx)
	if err != nil {
		base.Version = expected
		return r.storeError("save", coll, err)
	}
	if affected(res) > 0 {
		return nil
	}

	base.Version = expected
	exists, err := r.ExistsBy(ctx, criteria.ByID(base.ID), coll)
	if err != nil {
		return err
	}
	if exists {
		return errors.WithStack(&types.ConcurrencyConflictError{Entity: r.fields.Entity(), Collection: coll.String(), ID: base.ID, Version: expected})
	}
	if _, err := r.db.NewInsert().Model(e).ModelTableExpr("?", bun.Ident(coll.String())).Exec(ctx); err != nil {
		return r.storeError("save", coll, err)
	}
	return nil
}

// FindOneOrThrow returns the single entity matching c. Zero matches yield a
// NotFoundError, several an AmbiguousQueryError asking for a narrower query.
func (r *Repository[E, P]) FindOneOrThrow(ctx context.Context, c criteria.Criteria, coll entity.Collection) (*E, error) {
	e, err := r.FindOne(ctx, c, coll)
	var ambiguous *types.AmbiguousQueryError
	if errors.As(err, &ambiguous) {
		return nil, errors.WithMessage(err, "narrow the query using the id or several criteria")
	}
	return e, err
}

// FindOne returns the single entity matching c. Criteria that constrain no
// field are refused with EmptyCriteriaError.
func (r *Repository[E, P]) FindOne(ctx context.Context, c criteria.Criteria, coll entity.Collection) (*E, error) {
	filter, err := r.builder.Build(c)
	if err != nil {
		return nil, err
	}
	if filter.IsEmpty() {
		return nil, errors.WithStack(&types.EmptyCriteriaError{Entity: r.fields.Entity(), Collection: coll.String(), Criteria: c.Raw()})
	}
	var rows []*E
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := ordered(r.where(r.selectFrom(&rows, coll), filter)).Limit(2).Scan(ctx); err != nil {
		return nil, r.storeError("find one", coll, err)
	}
	switch len(rows) {
	case 0:
		return nil, errors.WithStack(&types.NotFoundError{Entity: r.fields.Entity(), Collection: coll.String(), Criteria: c.Raw()})
	case 1:
		return rows[0], nil
	default:
		count, err := r.Count(ctx, c, coll)
		if err != nil {
			count = len(rows)
		}
		return nil, errors.WithStack(&types.AmbiguousQueryError{Entity: r.fields.Entity(), Collection: coll.String(), Criteria: c.Raw(), Matches: count})
	}
}

// FindByID returns the entity with the given ID.
func (r *Repository[E, P]) FindByID(ctx context.Context, id string, coll entity.Collection) (*E, error) {
	return r.FindOneOrThrow(ctx, criteria.ByID(id), coll)
}

// FindAll returns every entity matching c; empty criteria match everything.
func (r *Repository[E, P]) FindAll(ctx context.Context, c criteria.Criteria, coll entity.Collection) ([]*E, error) {
	filter, err := r.builder.Build(c)
	if err != nil {
		return nil, err
	}
	return r.list(ctx, "find all", filter, coll)
}

// FindAllInCollection returns every entity stored in coll.
func (r *Repository[E, P]) FindAllInCollection(ctx context.Context, coll entity.Collection) ([]*E, error) {
	return r.list(ctx, "find all", nil, coll)
}

// FindAllBySide returns entities whose fields contain, start with or end
// with the criteria values according to side.
func (r *Repository[E, P]) FindAllBySide(ctx context.Context, c criteria.Criteria, side criteria.Side, coll entity.Collection) ([]*E, error) {
	filter, err := r.builder.BuildBySide(c, side)
	if err != nil {
		return nil, err
	}
	return r.list(ctx, "find by side", filter, coll)
}

// FindAllContainingAnyCriterion returns the entities of coll matching at
// least one criterion, each at most once, in store order.
func (r *Repository[E, P]) FindAllContainingAnyCriterion(ctx context.Context, c criteria.Criteria, coll entity.Collection) ([]*E, error) {
	return r.matchAny(ctx, c, coll, true)
}

func (r *Repository[E, P]) containingAny(ctx context.Context, c criteria.Criteria, coll entity.Collection, strict bool) ([]entity.Entity, error) {
	found, err := r.matchAny(ctx, c, coll, strict)
	var unavailable *types.StoreUnavailableError
	if !strict && errors.As(err, &unavailable) &&
		(unavailable.Kind == database.NoColumnErr.String() || unavailable.Kind == database.NoTableErr.String()) {
		r.log.WithField("collection", coll).Debug("Collection holds no entities of this type, skipping")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]entity.Entity, len(found))
	for i, e := range found {
		out[i] = P(e)
	}
	return out, nil
}

type anyMatcher[E any] struct {
	get    func(*E) interface{}
	values []interface{}
}

func (m anyMatcher[E]) match(e *E) bool {
	got := m.get(e)
	for _, want := range m.values {
		if field.Equal(got, want) {
			return true
		}
	}
	return false
}

func (r *Repository[E, P]) matchAny(ctx context.Context, c criteria.Criteria, coll entity.Collection, strict bool) ([]*E, error) {
	var matchers []anyMatcher[E]
	for _, key := range c.Keys() {
		acc, err := r.fields.Resolve(key)
		if err != nil {
			if strict {
				return nil, err
			}
			continue
		}
		if c[key] == nil {
			r.log.WithField("field", key).Warn("No value provided for criterion, skipping it")
			continue
		}
		matchers = append(matchers, anyMatcher[E]{get: acc.Get, values: criteria.Expand(c[key])})
	}
	if len(matchers) == 0 {
		return nil, nil
	}

	all, err := r.FindAllInCollection(ctx, coll)
	if err != nil {
		return nil, err
	}
	var out []*E
	for _, e := range all {
		for _, m := range matchers {
			if m.match(e) {
				out = append(out, e)
				break
			}
		}
	}
	return out, nil
}

// Update applies updates to a copy of e and writes it back only if the
// stored version still equals e's version. The stored revision is bumped;
// e itself is never modified.
func (r *Repository[E, P]) Update(ctx context.Context, e *E, updates map[field.Key]interface{}, coll entity.Collection) (*E, error) {
	working := *e
	if err := r.fields.SetFields(&working, updates); err != nil {
		return nil, err
	}

	base := P(&working).Base()
	expected := base.Version
	base.Version = expected + 1
	base.UpdatedAt = time.Now().UTC()

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	res, err := r.db.NewUpdate().
		Model(&working).
		ModelTableExpr("?", bun.Ident(coll.String())).
		ExcludeColumn("id", "created_at").
		Where("? = ?", bun.Ident("id"), base.ID).
		Where("? = ?", bun.Ident("version"), expected).
		Exec(ctx)
	if err != nil {
		return nil, r.storeError("update", coll, err)
	}
	if affected(res) > 0 {
		r.log.WithFields(logrus.Fields{"collection": coll, "id": base.ID, "version": base.Version}).Debug("Updated entity")
		return &working, nil
	}

	exists, err := r.ExistsBy(ctx, criteria.ByID(base.ID), coll)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.WithStack(&types.NotFoundError{Entity: r.fields.Entity(), Collection: coll.String(), Criteria: criteria.ByID(base.ID).Raw()})
	}
	return nil, errors.WithStack(&types.ConcurrencyConflictError{Entity: r.fields.Entity(), Collection: coll.String(), ID: base.ID, Version: expected})
}

// ExistsBy reports whether any entity matches c.
func (r *Repository[E, P]) ExistsBy(ctx context.Context, c criteria.Criteria, coll entity.Collection) (bool, error) {
	filter, err := r.builder.Build(c)
	if err != nil {
		return false, err
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	exists, err := r.where(r.selectFrom((*E)(nil), coll), filter).Exists(ctx)
	if err != nil {
		return false, r.storeError("exists", coll, err)
	}
	return exists, nil
}

// Count returns the number of entities matching c.
func (r *Repository[E, P]) Count(ctx context.Context, c criteria.Criteria, coll entity.Collection) (int, error) {
	filter, err := r.builder.Build(c)
	if err != nil {
		return 0, err
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	n, err := r.where(r.selectFrom((*E)(nil), coll), filter).Count(ctx)
	if err != nil {
		return 0, r.storeError("count", coll, err)
	}
	return n, nil
}

// DeleteBy removes the single entity matching c. Like FindOne it refuses
// criteria that constrain no field.
func (r *Repository[E, P]) DeleteBy(ctx context.Context, c criteria.Criteria, coll entity.Collection) error {
	e, err := r.FindOneOrThrow(ctx, c, coll)
	if err != nil {
		return err
	}
	id := P(e).GetID()

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	res, err := r.db.NewDelete().
		Model((*E)(nil)).
		ModelTableExpr("?", bun.Ident(coll.String())).
		Where("? = ?", bun.Ident("id"), id).
		Exec(ctx)
	if err != nil {
		return r.storeError("delete", coll, err)
	}
	if affected(res) == 0 {
		return errors.WithStack(&types.NotFoundError{Entity: r.fields.Entity(), Collection: coll.String(), Criteria: c.Raw()})
	}
	r.log.WithFields(logrus.Fields{"collection": coll, "id": id}).Debug("Deleted entity")
	return nil
}

// IsListFieldContains reports whether the sequence field key of the entity
// with the given ID holds value.
func (r *Repository[E, P]) IsListFieldContains(ctx context.Context, id string, key field.Key, value interface{}, coll entity.Collection) (bool, error) {
	acc, err := r.fields.Resolve(key)
	if err != nil {
		return false, err
	}
	if !acc.IsList() {
		return false, &types.InvalidFieldTypeError{Entity: r.fields.Entity(), Field: string(key), Expected: "a sequence field", Value: value}
	}
	e, err := r.FindOne(ctx, criteria.ByID(id), coll)
	if err != nil {
		return false, err
	}
	return acc.Contains(e, value)
}

// FindAllContainingAnyCriterion runs the any-criterion match for every
// candidate type over coll. Candidates lacking a criterion field ignore it;
// results are de-duplicated by ID.
func FindAllContainingAnyCriterion(ctx context.Context, c criteria.Criteria, coll entity.Collection, candidates ...Candidate) ([]entity.Entity, error) {
	seen := make(map[string]struct{})
	var out []entity.Entity
	for _, candidate := range candidates {
		found, err := candidate.containingAny(ctx, c, coll, false)
		if err != nil {
			return nil, err
		}
		for _, e := range found {
			if _, dup := seen[e.GetID()]; dup {
				continue
			}
			seen[e.GetID()] = struct{}{}
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *Repository[E, P]) list(ctx context.Context, op string, filter *types.QueryFilter, coll entity.Collection) ([]*E, error) {
	var rows []*E
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := ordered(r.where(r.selectFrom(&rows, coll), filter)).Scan(ctx); err != nil {
		return nil, r.storeError(op, coll, err)
	}
	return rows, nil
}

func (r *Repository[E, P]) table() *schema.Table {
	return r.db.Dialect().Tables().Get(reflect.TypeOf((*E)(nil)).Elem())
}

func (r *Repository[E, P]) selectFrom(model interface{}, coll entity.Collection) *bun.SelectQuery {
	return r.db.NewSelect().
		Model(model).
		ModelTableExpr("? AS ?", bun.Ident(coll.String()), r.table().SQLAlias)
}

func ordered(q *bun.SelectQuery) *bun.SelectQuery {
	return q.OrderExpr("? ASC, ? ASC", bun.Ident("created_at"), bun.Ident("id"))
}

func (r *Repository[E, P]) where(q *bun.SelectQuery, filter *types.QueryFilter) *bun.SelectQuery {
	if filter.IsEmpty() {
		return q
	}
	return q.Where(filter.Schema, filter.Args...)
}

func (r *Repository[E, P]) upsert(ctx context.Context, e *E, coll entity.Collection) error {
	q := r.db.NewInsert().Model(e).ModelTableExpr("?", bun.Ident(coll.String()))
	features := r.db.Dialect().Features()
	switch {
	case features.Has(feature.InsertOnConflict):
		q = q.On("CONFLICT (?) DO UPDATE", bun.Ident("id"))
		for _, f := range r.table().DataFields {
			q = q.Set("? = EXCLUDED.?", bun.Ident(f.Name), bun.Ident(f.Name))
		}
	case features.Has(feature.InsertOnDuplicateKey):
		q = q.On("DUPLICATE KEY UPDATE")
		for _, f := range r.table().DataFields {
			q = q.Set("? = VALUES(?)", bun.Ident(f.Name), bun.Ident(f.Name))
		}
	default:
		return r.upsertFallback(ctx, e, coll)
	}
	_, err := q.Exec(ctx)
	return err
}

func (r *Repository[E, P]) upsertFallback(ctx context.Context, e *E, coll entity.Collection) error {
	res, err := r.db.NewUpdate().
		Model(e).
		ModelTableExpr("?", bun.Ident(coll.String())).
		ExcludeColumn("id").
		Where("? = ?", bun.Ident("id"), P(e).GetID()).
		Exec(ctx)
	if err != nil {
		return err
	}
	if affected(res) > 0 {
		return nil
	}
	_, err = r.db.NewInsert().Model(e).ModelTableExpr("?", bun.Ident(coll.String())).Exec(ctx)
	return err
}

func (r *Repository[E, P]) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

func (r *Repository[E, P]) storeError(op string, coll entity.Collection, err error) error {
	kind := ""
	if ok, sqlErr := database.IsSqlError(err); ok {
		kind = sqlErr.String()
	}
	r.log.WithFields(logrus.Fields{"collection": coll, "operation": op, "kind": kind}).WithError(err).Error("Store call failed")
	return errors.WithStack(&types.StoreUnavailableError{Operation: op, Collection: coll.String(), Kind: kind, Err: err})
}

func affected(res sql.Result) int64 {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}
