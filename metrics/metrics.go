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
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultOK       = "ok"
	ResultError    = "error"
	ResultConflict = "conflict"
)

var (
	storeQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shopserver_store_query_duration_seconds",
		Help:    "Duration of store queries by operation and result",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "result"})

	purchases = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shopserver_purchases_total",
		Help: "Count of purchase attempts by product and result",
	}, []string{"product", "result"})

	deposits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shopserver_deposits_total",
		Help: "Count of wallet deposits by result",
	}, []string{"result"})

	conflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shopserver_concurrency_conflicts_total",
		Help: "Count of version conflicts seen by transactional workflows",
	}, []string{"workflow"})

	transactionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shopserver_transaction_duration_seconds",
		Help:    "Duration of transactional workflows including retries",
		Buckets: prometheus.DefBuckets,
	}, []string{"workflow", "result"})
)

// Result maps an error onto a result label.
func Result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}

// ObserveStoreQuery records the duration of a single store query.
func ObserveStoreQuery(operation, result string, duration time.Duration) {
	storeQueryDuration.WithLabelValues(operation, result).Observe(duration.Seconds())
}

// ObservePurchase counts a purchase attempt.
func ObservePurchase(product, result string) {
	purchases.WithLabelValues(product, result).Inc()
}

// ObserveDeposit counts a deposit attempt.
func ObserveDeposit(result string) {
	deposits.WithLabelValues(result).Inc()
}

// ObserveConflict counts a version conflict inside workflow.
func ObserveConflict(workflow string) {
	conflicts.WithLabelValues(workflow).Inc()
}

// ObserveTransaction records how long a workflow took end to end.
func ObserveTransaction(workflow, result string, duration time.Duration) {
	transactionDuration.WithLabelValues(workflow, result).Observe(duration.Seconds())
}

// Purchases exposes the purchase counter for assertions and custom registries.
func Purchases() *prometheus.CounterVec { return purchases }

// Deposits exposes the deposit counter.
func Deposits() *prometheus.CounterVec { return deposits }

// Conflicts exposes the conflict counter.
func Conflicts() *prometheus.CounterVec { return conflicts }
