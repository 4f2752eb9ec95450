package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chatserver"

var (
	ConnectionsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "connections_accepted_total",
		Help:      "Connections accepted since start.",
	})

	ConnectionsRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "connections_removed_total",
		Help:      "Connections removed (peer close or read error).",
	})

	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_connections",
		Help:      "Currently tracked connections.",
	})

	MessagesQueued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_queued_total",
		Help:      "Per-recipient message copies appended to outbound queues.",
	})

	BytesIn = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bytes_in_total",
		Help:      "Payload bytes read from clients.",
	})

	BytesOut = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bytes_out_total",
		Help:      "Payload bytes written to clients.",
	})
)

// Handler returns the scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
