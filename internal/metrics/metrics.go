package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PostalLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shipbox",
		Name:      "postal_lookups_total",
		Help:      "CEP lookups by source (cache, remote, error).",
	}, []string{"source"})

	FreightQuotes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shipbox",
		Name:      "freight_quotes_total",
		Help:      "Freight calculations by outcome.",
	}, []string{"outcome"})

	FallbackStoreOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shipbox",
		Name:      "fallback_store_ops_total",
		Help:      "Store operations served by the JSON file fallback.",
	}, []string{"store"})

	TrackingSyncs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shipbox",
		Name:      "tracking_syncs_total",
		Help:      "Tracking synchronizations by result.",
	}, []string{"result"})

	TrackingNewEvents = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "shipbox",
		Name:      "tracking_new_events_total",
		Help:      "Carrier events appended to trackings.",
	})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
