package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simplesocial_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "simplesocial_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// RelationToggles counts toggle operations by relation and outcome.
	RelationToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simplesocial_relation_toggles_total",
		Help: "Total number of relation toggle operations",
	}, []string{"relation", "outcome"})

	// CascadeDeletes counts cascading deletions by aggregate root kind.
	CascadeDeletes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simplesocial_cascade_deletes_total",
		Help: "Total number of cascading deletions",
	}, []string{"root"})

	// CascadeRowsRemoved counts rows removed during cascades by table.
	CascadeRowsRemoved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simplesocial_cascade_rows_removed_total",
		Help: "Total number of rows removed by cascading deletions",
	}, []string{"table"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
