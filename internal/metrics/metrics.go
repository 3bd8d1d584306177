// Package metrics exposes the server's Prometheus instrumentation: request
// outcomes by message type, active lease count, and allocation latency.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the registered collectors. Construct one with New and wire
// its recording methods into the dispatcher and pool.
type Metrics struct {
	requestsTotal     *prometheus.CounterVec
	leasesActive      prometheus.Gauge
	allocationLatency prometheus.Histogram
}

// New registers the collectors against reg and returns the handle used to
// record observations.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tinydhcp",
			Name:      "requests_total",
			Help:      "Requests handled, partitioned by message type and outcome.",
		}, []string{"message_type", "outcome"}),
		leasesActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tinydhcp",
			Name:      "leases_active",
			Help:      "Leases currently held and unexpired.",
		}),
		allocationLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tinydhcp",
			Name:      "allocation_duration_seconds",
			Help:      "Time spent inside the pool allocator per request.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.requestsTotal, m.leasesActive, m.allocationLatency)
	return m
}

// ObserveRequest records one handled packet's outcome.
func (m *Metrics) ObserveRequest(messageType, outcome string) {
	m.requestsTotal.WithLabelValues(messageType, outcome).Inc()
}

// ObserveAllocation records how long an allocator call took.
func (m *Metrics) ObserveAllocation(d time.Duration) {
	m.allocationLatency.Observe(d.Seconds())
}

// SetLeasesActive sets the current active-lease gauge to n.
func (m *Metrics) SetLeasesActive(n int) {
	m.leasesActive.Set(float64(n))
}
