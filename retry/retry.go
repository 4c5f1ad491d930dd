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

package retry

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Config holds retry strategy configuration
type Config struct {
	MaxAttempts       int           `yaml:"max_attempts"`
	InitialBackoff    time.Duration `yaml:"initial_backoff"`
	MaxBackoff        time.Duration `yaml:"max_backoff"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
}

// DefaultConfig returns the defaults used for transactional workflows.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:       5,
		InitialBackoff:    5 * time.Millisecond,
		MaxBackoff:        200 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

// Retryable is a function that can be retried.
type Retryable[T any] func(ctx context.Context, attempt int) (T, error)

// Predicate decides whether err is worth another attempt.
type Predicate func(err error) bool

// Always retries every error.
func Always(error) bool { return true }

// Do runs fn until it succeeds, retryIf rejects its error, attempts run out
// or ctx is done. Errors rejected by retryIf are returned unchanged.
func Do[T any](ctx context.Context, cfg *Config, log logrus.FieldLogger, op string, retryIf Predicate, fn Retryable[T]) (T, error) {
	var zero T
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if retryIf == nil {
		retryIf = Always
	}
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn(ctx, attempt)
		if err == nil {
			return result, nil
		}
		if !retryIf(err) {
			return zero, err
		}

		lastErr = err
		if attempt < attempts {
			backoff := Backoff(attempt-1, cfg)
			if log != nil {
				log.WithFields(logrus.Fields{
					"operation":    op,
					"attempt":      attempt,
					"max_attempts": attempts,
					"backoff":      backoff,
					"error":        err.Error(),
				}).Warn("Operation failed, retrying")
			}
			if err := sleep(ctx, backoff); err != nil {
				return zero, err
			}
		}
	}

	return zero, errors.Wrapf(lastErr, "operation '%s' failed after %d attempts", op, attempts)
}

// Backoff returns the exponential backoff before retry number attemptNum
// (zero based), capped at MaxBackoff.
func Backoff(attemptNum int, cfg *Config) time.Duration {
	mult := cfg.BackoffMultiplier
	if mult <= 0 {
		mult = 1
	}
	backoff := time.Duration(float64(cfg.InitialBackoff) * math.Pow(mult, float64(attemptNum)))
	if cfg.MaxBackoff > 0 && backoff > cfg.MaxBackoff {
		backoff = cfg.MaxBackoff
	}
	return backoff
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
