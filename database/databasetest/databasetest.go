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

package databasetest

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/DeadNord/shop-server/database"
)

// Config returns a connection to a private in-memory SQLite database. A
// single connection keeps the shared-cache database alive and serialises
// transactions.
func Config() *database.Config {
	return &database.Config{
		Connection: database.ConnectionConfig{
			Type:           "sqlite",
			DSN:            fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
			MaxIdleConns:   1,
			MaxOpenConns:   1,
			ConnectTimeout: 5 * time.Second,
		},
		Migrate: database.MigrateConfig{EnableMigrateOnStartup: true},
	}
}

// FileConfig returns a connection to a sqlite file in a temporary directory
// with a pool of up to conns connections.
func FileConfig(t testing.TB, conns int) *database.Config {
	t.Helper()
	return &database.Config{
		Connection: database.ConnectionConfig{
			Type:           "sqlite",
			DBName:         filepath.Join(t.TempDir(), "shop.db"),
			MaxIdleConns:   conns,
			MaxOpenConns:   conns,
			ConnectTimeout: 5 * time.Second,
			BusyTimeout:    10 * time.Second,
		},
		Migrate: database.MigrateConfig{EnableMigrateOnStartup: true},
	}
}

// Open returns a migrated in-memory database holding tables for models,
// closed when t finishes.
func Open(t testing.TB, models ...interface{}) *bun.DB {
	t.Helper()
	return OpenFactory(t, models...).GetDB()
}

// OpenFile is Open on a sqlite file shared by up to conns connections.
func OpenFile(t testing.TB, conns int, models ...interface{}) *bun.DB {
	t.Helper()
	return OpenConfig(t, FileConfig(t, conns), models...).GetDB()
}

// OpenFactory is Open returning the owning factory.
func OpenFactory(t testing.TB, models ...interface{}) *database.BaseDatabaseFactory {
	t.Helper()
	return OpenConfig(t, Config(), models...)
}

// OpenConfig opens and migrates cfg with tables for models.
func OpenConfig(t testing.TB, cfg *database.Config, models ...interface{}) *database.BaseDatabaseFactory {
	t.Helper()
	registry := database.NewModelRegistry()
	for i, m := range models {
		registry.Register(database.NewModelAdapter(m, i))
	}
	factory, err := database.Open(context.Background(), cfg, registry)
	require.NoError(t, err)
	t.Cleanup(func() { _ = factory.Close() })
	return factory
}
