package vstore

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Global counters only, no per-set labels to keep cardinality bounded.
// Registration is eager and harmless if the application never exposes a
// metrics endpoint.
var (
	metricPagesServed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vstore_pages_served_total",
		Help: "Total pages served by keyset pagination",
	})
	metricStaleConflicts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vstore_stale_conflicts_total",
		Help: "Total conditional writes rejected because of a stale version",
	})
	metricUpserts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vstore_upserts_total",
		Help: "Total successful upserts",
	})
	metricBatchRollbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vstore_batch_rollbacks_total",
		Help: "Total batch submissions rolled back",
	})
)

func init() {
	prometheus.MustRegister(metricPagesServed, metricStaleConflicts, metricUpserts, metricBatchRollbacks)
}
