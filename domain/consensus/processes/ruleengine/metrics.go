package ruleengine

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusCategoryDuration *prometheus.HistogramVec
	prometheusRejections       *prometheus.CounterVec

	// only init the metrics once
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusCategoryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hcd",
			Subsystem: "consensus",
			Name:      "category_duration_seconds",
			Help:      "Time spent running the rules of a category on one block",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
		[]string{
			"category", // header, integrity, partial or full
		},
	)
	prometheusRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hcd",
			Subsystem: "consensus",
			Name:      "rejections_total",
			Help:      "Number of blocks and headers rejected by a rule",
		},
		[]string{
			"rule",  // rule that failed
			"error", // rule error name, or "storage" for non consensus failures
		},
	)
}
