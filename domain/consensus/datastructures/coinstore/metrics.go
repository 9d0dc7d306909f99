package coinstore

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusCacheHits     prometheus.Counter
	prometheusCacheMisses   prometheus.Counter
	prometheusFlushDuration prometheus.Histogram
	prometheusPendingDeltas prometheus.Gauge

	// only init the metrics once
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hcd",
			Subsystem: "coinstore",
			Name:      "cache_hits_total",
			Help:      "Number of coin lookups served by the coin cache",
		},
	)
	prometheusCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hcd",
			Subsystem: "coinstore",
			Name:      "cache_misses_total",
			Help:      "Number of coin lookups forwarded to the backing store",
		},
	)
	prometheusFlushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "hcd",
			Subsystem: "coinstore",
			Name:      "flush_duration_seconds",
			Help:      "Time spent writing cached deltas to the backing store",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		},
	)
	prometheusPendingDeltas = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "hcd",
			Subsystem: "coinstore",
			Name:      "pending_deltas",
			Help:      "Number of connected blocks not yet written to the backing store",
		},
	)
}
