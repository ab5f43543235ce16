package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks social engagement. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	MutationsTotal     *prometheus.CounterVec
	NotificationsTotal *prometheus.CounterVec
	FeedSize           prometheus.Histogram
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MutationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "social_mutations_total",
				Help: "Aggregate mutations by operation and result",
			},
			[]string{"op", "result"},
		),
		NotificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "social_notifications_total",
				Help: "Notification events by type and outcome",
			},
			[]string{"type", "outcome"},
		),
		FeedSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "social_feed_size",
				Help:    "Number of posts in composed feeds",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
			},
		),
	}
}

// Mutation records one mutator call. result is "ok" or the error code.
func (m *Metrics) Mutation(op, result string) {
	if m == nil {
		return
	}
	m.MutationsTotal.WithLabelValues(op, result).Inc()
}

// Notification records a dispatcher decision: "delivered", "suppressed" or
// "error".
func (m *Metrics) Notification(kind, outcome string) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) Feed(size int) {
	if m == nil {
		return
	}
	m.FeedSize.Observe(float64(size))
}
