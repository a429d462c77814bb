package shardhttp

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the five counters spec.md §4.5/§5 names. One set is
// created per Server; each carries a const "shard" label set to the
// server's name so multiple shards registered against the same registry
// don't collide.
type metrics struct {
	totalConnections   prometheus.Counter
	currentConnections prometheus.Gauge
	requestsServed     prometheus.Counter
	readErrors         prometheus.Counter
	respondErrors      prometheus.Counter
}

func newMetrics(registry prometheus.Registerer, shardName string) *metrics {
	factory := promauto.With(registry)
	labels := prometheus.Labels{"shard": shardName}

	return &metrics{
		totalConnections: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   "shardhttp",
			Name:        "total_connections",
			Help:        "Total number of connections accepted since start.",
			ConstLabels: labels,
		}),
		currentConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   "shardhttp",
			Name:        "current_connections",
			Help:        "Number of connections currently live.",
			ConstLabels: labels,
		}),
		requestsServed: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   "shardhttp",
			Name:        "requests_served",
			Help:        "Total number of complete requests parsed.",
			ConstLabels: labels,
		}),
		readErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   "shardhttp",
			Name:        "read_errors",
			Help:        "Total number of swallowed transport read errors.",
			ConstLabels: labels,
		}),
		respondErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   "shardhttp",
			Name:        "respond_errors",
			Help:        "Total number of swallowed transport write errors.",
			ConstLabels: labels,
		}),
	}
}
