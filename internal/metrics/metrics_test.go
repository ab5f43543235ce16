package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Mutation("like", "ok")
	m.Mutation("like", "ok")
	m.Notification("follow", "suppressed")
	m.Feed(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.MutationsTotal.WithLabelValues("like", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("follow", "suppressed")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.FeedSize))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Mutation("like", "ok")
		m.Notification("like", "delivered")
		m.Feed(1)
	})
}
