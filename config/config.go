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
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/DeadNord/shop-server/database"
	"github.com/DeadNord/shop-server/manager"
	"github.com/DeadNord/shop-server/repository"
	"github.com/DeadNord/shop-server/retry"
	"github.com/DeadNord/shop-server/utils"
)

// RepositoryConfig tunes every repository.
type RepositoryConfig struct {
	QueryTimeout time.Duration `yaml:"query_timeout"`
	// TransactionTimeout bounds one attempt of a transactional workflow.
	TransactionTimeout time.Duration `yaml:"transaction_timeout"`
}

// Config is the whole server configuration.
type Config struct {
	Database    database.Config  `yaml:"database"`
	Log         utils.LogOptions `yaml:"log"`
	Repository  RepositoryConfig `yaml:"repository"`
	Transaction retry.Config     `yaml:"transaction"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Database: *database.DefaultConfig(),
		Log: utils.LogOptions{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Repository:  RepositoryConfig{QueryTimeout: repository.DefaultQueryTimeout, TransactionTimeout: manager.DefaultTxTimeout},
		Transaction: *retry.DefaultConfig(),
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path yields the defaults with overrides applied.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides settings from LOG_*, REPOSITORY_*, TX_* and DB_*
// environment variables.
func (c *Config) ApplyEnv() {
	c.Log.Level = utils.EnvDefaultString("LOG_LEVEL", c.Log.Level)
	c.Log.Format = utils.EnvDefaultString("LOG_FORMAT", c.Log.Format)
	c.Log.File = utils.EnvDefaultString("LOG_FILE", c.Log.File)
	c.Repository.QueryTimeout = utils.EnvDefaultDuration("REPOSITORY_QUERY_TIMEOUT", c.Repository.QueryTimeout)
	c.Repository.TransactionTimeout = utils.EnvDefaultDuration("TX_TIMEOUT", c.Repository.TransactionTimeout)
	c.Transaction.MaxAttempts = utils.EnvDefaultInt("TX_MAX_ATTEMPTS", c.Transaction.MaxAttempts)
	c.Transaction.InitialBackoff = utils.EnvDefaultDuration("TX_INITIAL_BACKOFF", c.Transaction.InitialBackoff)
	c.Transaction.MaxBackoff = utils.EnvDefaultDuration("TX_MAX_BACKOFF", c.Transaction.MaxBackoff)
	database.OverrideFromEnv(&c.Database.Connection)
	c.Database.Migrate.EnableMigrateOnStartup = utils.EnvDefaultBool("DB_MIGRATE_ON_STARTUP", c.Database.Migrate.EnableMigrateOnStartup)
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	switch c.Database.Connection.Type {
	case "sqlite", "sqlite3", "mysql", "postgres", "postgresql":
	default:
		return errors.Errorf("unsupported database type %q", c.Database.Connection.Type)
	}
	if c.Repository.QueryTimeout <= 0 {
		return errors.Errorf("repository.query_timeout must be positive, got %s", c.Repository.QueryTimeout)
	}
	if c.Repository.TransactionTimeout <= 0 {
		return errors.Errorf("repository.transaction_timeout must be positive, got %s", c.Repository.TransactionTimeout)
	}
	if c.Transaction.MaxAttempts < 1 {
		return errors.Errorf("transaction.max_attempts must be at least 1, got %d", c.Transaction.MaxAttempts)
	}
	return nil
}
