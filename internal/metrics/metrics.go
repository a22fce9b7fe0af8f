// Package metrics exposes the engine's Prometheus instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	eventsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tally_events_applied_total",
		Help: "Change events folded into the state store, by applied kind.",
	}, []string{"kind"})

	snapshotRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tally_store_records",
		Help: "Records currently held in the state store.",
	})

	feedStreaming = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tally_feed_streaming",
		Help: "1 while the change-feed subscription is live, 0 otherwise.",
	})
)

// ObserveApplied counts one applied change event.
func ObserveApplied(kind string) {
	eventsApplied.WithLabelValues(kind).Inc()
}

// SetStoreSize tracks the store's record count.
func SetStoreSize(n int) {
	snapshotRecords.Set(float64(n))
}

// SetStreaming flips the feed liveness gauge.
func SetStreaming(live bool) {
	if live {
		feedStreaming.Set(1)
		return
	}
	feedStreaming.Set(0)
}

// Handler serves the default registry for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
