package containerizer

import "github.com/prometheus/client_golang/prometheus"

// metricsSet holds the Prometheus collectors the Manager updates as it
// processes operations. Collectors are scoped to a Manager instance rather
// than registered against the global default registry, so tests can
// construct independent Managers without colliding on collector names.
type metricsSet struct {
	launches      *prometheus.CounterVec
	destroys      *prometheus.CounterVec
	orphansKilled prometheus.Counter
	updateLatency prometheus.Histogram
	usageLatency  prometheus.Histogram
}

func newMetricsSet() *metricsSet {
	ms := &metricsSet{
		launches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "containerizer_launches_total",
			Help: "Total number of launch attempts by outcome.",
		}, []string{"kind", "outcome"}),
		destroys: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "containerizer_destroys_total",
			Help: "Total number of destroy completions by cause.",
		}, []string{"cause"}),
		orphansKilled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "containerizer_recovery_orphans_killed_total",
			Help: "Total number of orphaned engine containers killed during recovery.",
		}),
		updateLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "containerizer_update_duration_seconds",
			Help:    "Time taken to apply a resource update.",
			Buckets: prometheus.DefBuckets,
		}),
		usageLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "containerizer_usage_duration_seconds",
			Help:    "Time taken to sample container usage.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	return ms
}

// Collectors returns every collector in the set, for registration against a
// prometheus.Registerer by the daemon's CLI entrypoint.
func (ms *metricsSet) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		ms.launches,
		ms.destroys,
		ms.orphansKilled,
		ms.updateLatency,
		ms.usageLatency,
	}
}
