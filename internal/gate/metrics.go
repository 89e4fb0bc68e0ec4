package gate

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeEmpty     = "empty"
	OutcomeIncorrect = "incorrect"
	OutcomeLockedOut = "locked_out"
	OutcomeUnlocked  = "unlocked"
	OutcomeError     = "error"
	OutcomeBusy      = "busy"
)

type Metrics struct {
	Attempts      *prometheus.CounterVec
	CheckDuration prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "videogate_unlock_attempts_total",
				Help: "Total number of PIN submissions by outcome",
			},
			[]string{"outcome"},
		),
		CheckDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "videogate_pin_check_duration_seconds",
				Help:    "Time spent deriving and comparing a PIN digest",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
			},
		),
	}

	reg.MustRegister(m.Attempts)
	reg.MustRegister(m.CheckDuration)

	return m
}

func (m *Metrics) outcome(name string) {
	if m == nil {
		return
	}
	m.Attempts.WithLabelValues(name).Inc()
}

func (m *Metrics) checkSeconds(seconds float64) {
	if m == nil {
		return
	}
	m.CheckDuration.Observe(seconds)
}
