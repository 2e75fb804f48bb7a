package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveStoreCall(t *testing.T) {
	c := NewCollector(nil)

	c.ObserveStoreCall("query", 20*time.Millisecond, nil)
	c.ObserveStoreCall("query", 5*time.Millisecond, nil)
	c.ObserveStoreCall("scan", time.Millisecond, errors.New("throttled"))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.StoreCalls.WithLabelValues("query", StatusSuccess)))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.StoreCalls.WithLabelValues("query", StatusError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StoreCalls.WithLabelValues("scan", StatusError)))
	assert.Equal(t, 2, testutil.CollectAndCount(c.StoreCallDuration))
}

func TestObservePage(t *testing.T) {
	c := NewCollector(nil)

	c.ObservePage("query", 3)
	c.ObservePage("query", 4)
	c.ObservePage("scan", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.PagesFetched.WithLabelValues("query")))
	assert.Equal(t, 7.0, testutil.ToFloat64(c.ItemsFetched.WithLabelValues("query")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.PagesFetched.WithLabelValues("scan")))
}

func TestRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.ObservePage("query", 1)
	c.ObserveStoreCall("query", time.Millisecond, nil)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.ElementsMatch(t, []string{
		"tablequery_store_calls_total",
		"tablequery_store_call_duration_seconds",
		"tablequery_pages_fetched_total",
		"tablequery_items_fetched_total",
	}, names)

	assert.Panics(t, func() { NewCollector(reg) }, "duplicate registration")
}
