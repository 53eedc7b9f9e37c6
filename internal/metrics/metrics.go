// Package metrics exposes Prometheus collectors for the service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Registry holds the service-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fizzbuzz",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fizzbuzz",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fizzbuzz",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	cacheOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fizzbuzz",
			Subsystem: "cache",
			Name:      "operations_total",
			Help:      "Sequence cache lookups by outcome.",
		},
		[]string{"outcome"}, // hit, miss, error
	)

	dispatchFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fizzbuzz",
			Subsystem: "queue",
			Name:      "dispatch_failures_total",
			Help:      "Tracking messages that could not be enqueued.",
		},
	)

	consumerResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fizzbuzz",
			Subsystem: "stats",
			Name:      "consumer_results_total",
			Help:      "Tracking consumer outcomes.",
		},
		[]string{"result"}, // processed, retried, conflict, error
	)

	reconcileResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fizzbuzz",
			Subsystem: "stats",
			Name:      "reconcile_results_total",
			Help:      "Reconciliation sweep outcomes per record.",
		},
		[]string{"result"}, // processed, failed
	)

	sequencesGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fizzbuzz",
			Subsystem: "sequence",
			Name:      "generated_total",
			Help:      "Sequences computed on cache miss.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		cacheOps,
		dispatchFailures,
		consumerResults,
		reconcileResults,
		sequencesGenerated,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// IncrementInFlight marks an HTTP request as started.
func IncrementInFlight() { httpInFlight.Inc() }

// DecrementInFlight marks an HTTP request as finished.
func DecrementInFlight() { httpInFlight.Dec() }

// RecordHTTPRequest records one handled HTTP request.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordCacheHit counts a sequence cache hit.
func RecordCacheHit() { cacheOps.WithLabelValues("hit").Inc() }

// RecordCacheMiss counts a sequence cache miss.
func RecordCacheMiss() { cacheOps.WithLabelValues("miss").Inc() }

// RecordCacheError counts a cache operation that degraded to a miss.
func RecordCacheError() { cacheOps.WithLabelValues("error").Inc() }

// RecordDispatchFailure counts a tracking message lost at enqueue time.
func RecordDispatchFailure() { dispatchFailures.Inc() }

// RecordConsumerResult counts one consumer outcome.
func RecordConsumerResult(result string) { consumerResults.WithLabelValues(result).Inc() }

// RecordReconcileResult counts one reconciled record outcome.
func RecordReconcileResult(result string) { reconcileResults.WithLabelValues(result).Inc() }

// RecordSequenceGenerated counts a sequence computed on cache miss.
func RecordSequenceGenerated() { sequencesGenerated.Inc() }
