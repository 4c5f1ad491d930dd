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

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestResult(t *testing.T) {
	assert.Equal(t, ResultOK, Result(nil))
	assert.Equal(t, ResultError, Result(errors.New("boom")))
}

func TestObserveCounters(t *testing.T) {
	before := testutil.ToFloat64(purchases.WithLabelValues("widget", ResultOK))
	ObservePurchase("widget", ResultOK)
	ObservePurchase("widget", ResultOK)
	assert.Equal(t, before+2, testutil.ToFloat64(purchases.WithLabelValues("widget", ResultOK)))

	before = testutil.ToFloat64(deposits.WithLabelValues(ResultError))
	ObserveDeposit(ResultError)
	assert.Equal(t, before+1, testutil.ToFloat64(deposits.WithLabelValues(ResultError)))

	before = testutil.ToFloat64(conflicts.WithLabelValues("deposit"))
	ObserveConflict("deposit")
	assert.Equal(t, before+1, testutil.ToFloat64(conflicts.WithLabelValues("deposit")))
}

func TestObserveHistograms(t *testing.T) {
	ObserveStoreQuery("SELECT", ResultOK, 3*time.Millisecond)
	ObserveTransaction("buy_product", ResultOK, 10*time.Millisecond)
	assert.Positive(t, testutil.CollectAndCount(storeQueryDuration))
	assert.Positive(t, testutil.CollectAndCount(transactionDuration))
}
