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

	"github.com/uptrace/bun"

	"github.com/DeadNord/shop-server/criteria"
	"github.com/DeadNord/shop-server/entity"
	"github.com/DeadNord/shop-server/field"
)

// EntityRepository is the store contract for entities of type E. Every
// operation addresses an explicit collection.
type EntityRepository[E any] interface {
	Save(ctx context.Context, e *E, coll entity.Collection) (*E, error)
	FindOneOrThrow(ctx context.Context, c criteria.Criteria, coll entity.Collection) (*E, error)
	FindOne(ctx context.Context, c criteria.Criteria, coll entity.Collection) (*E, error)
	FindByID(ctx context.Context, id string, coll entity.Collection) (*E, error)
	FindAll(ctx context.Context, c criteria.Criteria, coll entity.Collection) ([]*E, error)
	FindAllInCollection(ctx context.Context, coll entity.Collection) ([]*E, error)
	FindAllContainingAnyCriterion(ctx context.Context, c criteria.Criteria, coll entity.Collection) ([]*E, error)
	FindAllBySide(ctx context.Context, c criteria.Criteria, side criteria.Side, coll entity.Collection) ([]*E, error)
	Update(ctx context.Context, e *E, updates map[field.Key]interface{}, coll entity.Collection) (*E, error)
	ExistsBy(ctx context.Context, c criteria.Criteria, coll entity.Collection) (bool, error)
	Count(ctx context.Context, c criteria.Criteria, coll entity.Collection) (int, error)
	DeleteBy(ctx context.Context, c criteria.Criteria, coll entity.Collection) error
	IsListFieldContains(ctx context.Context, id string, key field.Key, value interface{}, coll entity.Collection) (bool, error)
}

// TransactionRepository binds a repository to a transaction or connection.
type TransactionRepository[E any, R any] interface {
	WithTx(db bun.IDB) R
}

// Candidate is one entity type taking part in a cross-type
// FindAllContainingAnyCriterion. Every *Repository is a Candidate.
type Candidate interface {
	containingAny(ctx context.Context, c criteria.Criteria, coll entity.Collection, strict bool) ([]entity.Entity, error)
}
