package notification

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Poll outcomes reported by Metrics.
const (
	pollOK      = "ok"
	pollSkipped = "skipped"
	pollError   = "error"
)

// Metrics counts what the engine does. A nil registerer builds unregistered
// collectors.
type Metrics struct {
	polls       *prometheus.CounterVec
	displayed   *prometheus.CounterVec
	pushDropped prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		polls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "edumon_sync",
			Name:      "polls_total",
			Help:      "Poll cycles by outcome.",
		}, []string{"result"}),
		displayed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "edumon_sync",
			Name:      "notifications_displayed_total",
			Help:      "Notifications handed to the display sinks, by source.",
		}, []string{"source"}),
		pushDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: "edumon_sync",
			Name:      "push_dropped_total",
			Help:      "Push messages dropped because notifications are disabled.",
		}),
	}
}
