package jsonstore

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the store's Prometheus collectors
type Metrics struct {
	writes        *prometheus.CounterVec
	writeDuration prometheus.Histogram
	coalesced     prometheus.Counter
	mutations     *prometheus.CounterVec
	dirty         prometheus.Gauge
}

// NewMetrics creates the store collectors and registers them when reg is not nil
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		writes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "jsonstore",
				Name:      "writes_total",
				Help:      "Total number of store writes by result",
			},
			[]string{"result"},
		),
		writeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "jsonstore",
				Name:      "write_duration_seconds",
				Help:      "Duration of store writes in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		coalesced: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "jsonstore",
				Name:      "coalesced_flushes_total",
				Help:      "Flush requests answered by a write issued for another request",
			},
		),
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "jsonstore",
				Name:      "mutations_total",
				Help:      "Total number of applied mutations by domain area",
			},
			[]string{"area"},
		),
		dirty: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "jsonstore",
				Name:      "unflushed_mutations",
				Help:      "Mutations applied in memory but not yet written",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(m.writes, m.writeDuration, m.coalesced, m.mutations, m.dirty)
	}

	return m
}

func (m *Metrics) observeWrite(elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.writes.WithLabelValues(result).Inc()
	m.writeDuration.Observe(elapsed.Seconds())
}
