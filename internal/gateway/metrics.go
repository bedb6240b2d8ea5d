package gateway

import "github.com/prometheus/client_golang/prometheus"

const (
	retrieveOK          = "ok"
	retrieveNotModified = "not_modified"
	retrieveNotFound    = "not_found"
)

type metrics struct {
	stores       prometheus.Counter
	sizeMismatch prometheus.Counter
	retrievals   *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		stores: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "epaper_gateway_stores_total",
			Help: "Frames accepted into the slot.",
		}),
		sizeMismatch: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "epaper_gateway_size_mismatch_total",
			Help: "Uploads rejected for having the wrong length.",
		}),
		retrievals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "epaper_gateway_retrievals_total",
			Help: "Retrieve calls by outcome.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(m.stores, m.sizeMismatch, m.retrievals)
	}
	return m
}
