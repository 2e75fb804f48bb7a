// Package metrics provides Prometheus metrics for tablequery fetches.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tablequery"

// Status label values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Collector holds the fetch metrics. It satisfies query.Recorder.
type Collector struct {
	// StoreCalls counts Query/Scan calls by outcome.
	StoreCalls *prometheus.CounterVec

	// StoreCallDuration tracks store call latency.
	StoreCallDuration *prometheus.HistogramVec

	// PagesFetched counts successful store responses.
	PagesFetched *prometheus.CounterVec

	// ItemsFetched counts items returned across all pages.
	ItemsFetched *prometheus.CounterVec
}

// NewCollector creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		StoreCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_calls_total",
				Help:      "Total DynamoDB read calls",
			},
			[]string{"operation", "status"}, // operation: query/scan, status: success/error
		),
		StoreCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_call_duration_seconds",
				Help:      "DynamoDB read call latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		PagesFetched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pages_fetched_total",
				Help:      "Total result pages returned by DynamoDB",
			},
			[]string{"operation"},
		),
		ItemsFetched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "items_fetched_total",
				Help:      "Total items returned by DynamoDB",
			},
			[]string{"operation"},
		),
	}
}

// ObserveStoreCall records one store call and its latency
func (c *Collector) ObserveStoreCall(operation string, duration time.Duration, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	c.StoreCalls.WithLabelValues(operation, status).Inc()
	c.StoreCallDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObservePage records one successful page and the items it carried
func (c *Collector) ObservePage(operation string, items int) {
	c.PagesFetched.WithLabelValues(operation).Inc()
	c.ItemsFetched.WithLabelValues(operation).Add(float64(items))
}
