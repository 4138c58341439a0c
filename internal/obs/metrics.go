package obs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics groups Prometheus collectors for the pricing engine.
type EngineMetrics struct {
	ProcessTotal   *prometheus.CounterVec
	ProcessDur     prometheus.Histogram
	RedemptionsOut prometheus.Counter
	SavingsMinor   prometheus.Counter
}

// NewEngineMetrics registers and returns the engine collectors.
func NewEngineMetrics(namespace string, reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &EngineMetrics{
		ProcessTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "process_total",
			Help:      "Total number of basket pricing runs, by outcome.",
		}, []string{"outcome"}),
		ProcessDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "process_duration_ms",
			Help:      "Basket pricing latency distribution in milliseconds.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
		RedemptionsOut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redemptions_total",
			Help:      "Total number of redemptions granted across all runs.",
		}),
		SavingsMinor: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "savings_minor_units_total",
			Help:      "Total discount granted across all runs, in minor units.",
		}),
	}
	reg.MustRegister(m.ProcessTotal, m.ProcessDur, m.RedemptionsOut, m.SavingsMinor)
	return m
}

// ObserveProcess records one pricing run.
func (m *EngineMetrics) ObserveProcess(start time.Time, outcome string, redemptions int, savingsMinor int64) {
	if m == nil {
		return
	}
	m.ProcessTotal.WithLabelValues(outcome).Inc()
	m.ProcessDur.Observe(float64(time.Since(start).Milliseconds()))
	if redemptions > 0 {
		m.RedemptionsOut.Add(float64(redemptions))
	}
	if savingsMinor > 0 {
		m.SavingsMinor.Add(float64(savingsMinor))
	}
}
