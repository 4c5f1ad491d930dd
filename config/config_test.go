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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Connection.Type)
	assert.Equal(t, 5*time.Second, cfg.Repository.QueryTimeout)
	assert.Equal(t, 30*time.Second, cfg.Repository.TransactionTimeout)
	assert.Equal(t, 5, cfg.Transaction.MaxAttempts)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
database:
  connection:
    type: postgres
    host: db.internal
    port: 5432
    dbname: shop
  migrate:
    enable_migrate_on_startup: false
log:
  level: debug
  format: json
repository:
  query_timeout: 750ms
  transaction_timeout: 2s
transaction:
  max_attempts: 8
  initial_backoff: 10ms
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Connection.Type)
	assert.Equal(t, "db.internal", cfg.Database.Connection.Host)
	assert.Equal(t, 5432, cfg.Database.Connection.Port)
	assert.False(t, cfg.Database.Migrate.EnableMigrateOnStartup)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 750*time.Millisecond, cfg.Repository.QueryTimeout)
	assert.Equal(t, 2*time.Second, cfg.Repository.TransactionTimeout)
	assert.Equal(t, 8, cfg.Transaction.MaxAttempts)
	assert.Equal(t, 10*time.Millisecond, cfg.Transaction.InitialBackoff)
	// untouched keys keep their defaults
	assert.Equal(t, 200*time.Millisecond, cfg.Transaction.MaxBackoff)
	assert.Equal(t, 100, cfg.Database.Connection.MaxOpenConns)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("TX_MAX_ATTEMPTS", "2")
	t.Setenv("REPOSITORY_QUERY_TIMEOUT", "3")
	t.Setenv("TX_TIMEOUT", "1500ms")
	t.Setenv("DB_TYPE", "mysql")

	cfg, err := Load(writeFile(t, "log:\n  level: debug\n"))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 2, cfg.Transaction.MaxAttempts)
	assert.Equal(t, 3*time.Second, cfg.Repository.QueryTimeout)
	assert.Equal(t, 1500*time.Millisecond, cfg.Repository.TransactionTimeout)
	assert.Equal(t, "mysql", cfg.Database.Connection.Type)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "log: [unclosed"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "database:\n  connection:\n    type: oracle\n"))
	assert.ErrorContains(t, err, "unsupported database type")

	_, err = Load(writeFile(t, "transaction:\n  max_attempts: 0\n"))
	assert.ErrorContains(t, err, "max_attempts")

	_, err = Load(writeFile(t, "repository:\n  transaction_timeout: 0s\n"))
	assert.ErrorContains(t, err, "transaction_timeout")
}
