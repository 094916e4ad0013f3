package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// EngineMetrics holds all Prometheus metrics for the engine
type EngineMetrics struct {
	// Decode metrics
	PagesDecoded *prometheus.CounterVec
	ValuesRead   *prometheus.CounterVec
	DecodeErrors *prometheus.CounterVec

	// Statistics computation metrics
	ComputationsTotal   *prometheus.CounterVec
	ComputationDuration *prometheus.HistogramVec

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Navigation metrics
	StaleResultsDropped prometheus.Counter
	FocusChanges        prometheus.Counter
}

var (
	engineMetrics *EngineMetrics
	initOnce      sync.Once
)

// Init initializes all engine metrics. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		engineMetrics = &EngineMetrics{
			PagesDecoded: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "parqscope_pages_decoded_total",
					Help: "Total number of column chunk pages decoded",
				},
				[]string{"column"},
			),
			ValuesRead: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "parqscope_values_read_total",
					Help: "Total number of column values decoded",
				},
				[]string{"column"},
			),
			DecodeErrors: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "parqscope_decode_errors_total",
					Help: "Total number of page decode failures",
				},
				[]string{"column"},
			),
			ComputationsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "parqscope_stat_computations_total",
					Help: "Total number of statistics computations started",
				},
				[]string{"column", "scope"},
			),
			ComputationDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "parqscope_stat_computation_duration_seconds",
					Help:    "Statistics computation latency in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"column"},
			),
			CacheHits: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "parqscope_stats_cache_hits_total",
					Help: "Total number of statistics cache hits",
				},
			),
			CacheMisses: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "parqscope_stats_cache_misses_total",
					Help: "Total number of statistics cache misses",
				},
			),
			StaleResultsDropped: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "parqscope_stale_results_dropped_total",
					Help: "Total number of superseded focus results discarded",
				},
			),
			FocusChanges: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "parqscope_focus_changes_total",
					Help: "Total number of navigation focus changes",
				},
			),
		}
	})
}

// Get returns the initialized metrics, or nil if Init was never called
func Get() *EngineMetrics {
	return engineMetrics
}

// RecordPageDecoded records one decoded page for a column
func RecordPageDecoded(column string) {
	if engineMetrics == nil {
		return
	}
	engineMetrics.PagesDecoded.WithLabelValues(column).Inc()
}

// RecordValuesRead records decoded values for a column
func RecordValuesRead(column string, n int) {
	if engineMetrics == nil {
		return
	}
	engineMetrics.ValuesRead.WithLabelValues(column).Add(float64(n))
}

// RecordDecodeError records a page decode failure
func RecordDecodeError(column string) {
	if engineMetrics == nil {
		return
	}
	engineMetrics.DecodeErrors.WithLabelValues(column).Inc()
}

// RecordComputation records a started statistics computation
func RecordComputation(column, scope string) {
	if engineMetrics == nil {
		return
	}
	engineMetrics.ComputationsTotal.WithLabelValues(column, scope).Inc()
}

// RecordComputationDuration records the latency of a finished computation
func RecordComputationDuration(column string, seconds float64) {
	if engineMetrics == nil {
		return
	}
	engineMetrics.ComputationDuration.WithLabelValues(column).Observe(seconds)
}

// RecordCacheHit records a statistics cache hit
func RecordCacheHit() {
	if engineMetrics == nil {
		return
	}
	engineMetrics.CacheHits.Inc()
}

// RecordCacheMiss records a statistics cache miss
func RecordCacheMiss() {
	if engineMetrics == nil {
		return
	}
	engineMetrics.CacheMisses.Inc()
}

// RecordStaleDropped records a superseded result discarded on arrival
func RecordStaleDropped() {
	if engineMetrics == nil {
		return
	}
	engineMetrics.StaleResultsDropped.Inc()
}

// RecordFocusChange records a navigation focus change
func RecordFocusChange() {
	if engineMetrics == nil {
		return
	}
	engineMetrics.FocusChanges.Inc()
}
