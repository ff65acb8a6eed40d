// Package metrics 进程内的 prometheus 指标。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	FeedPages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_pages_total",
			Help: "Total feed pages assembled",
		},
		[]string{"scope"},
	)

	FeedPageItems = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_page_items",
			Help:    "Number of posts per assembled feed page",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
		},
	)

	AuthorCacheLoads = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "author_cache_db_loads_total",
		Help: "Author cache misses that went to the database",
	})

	ReplicatorQueue = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fan_replicator_queue_length",
		Help: "Pending fan table replication jobs",
	})

	ReplicatorLag = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "fan_replicator_lag_seconds",
		Help:    "Time between enqueue and applying a fan table job",
		Buckets: prometheus.DefBuckets,
	})

	ReplicatorDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fan_replicator_dropped_total",
		Help: "Replication jobs dropped because the queue was full",
	}, []string{"action"})

	SocketConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "socket_connections",
		Help: "Number of open chat websocket connections",
	})

	MessagesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_messages_sent_total",
		Help: "Total chat messages accepted",
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestDuration,
		FeedPages,
		FeedPageItems,
		AuthorCacheLoads,
		ReplicatorQueue,
		ReplicatorLag,
		ReplicatorDropped,
		SocketConnections,
		MessagesSent,
	)
}
