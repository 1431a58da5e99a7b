package webhook

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels of the processed events counter.
const (
	outcomeApplied    = "applied"
	outcomeIgnored    = "ignored"
	outcomeDuplicate  = "duplicate"
	outcomeRejected   = "rejected"
	outcomeFailed     = "failed"
	labelUnclassified = "unclassified"
)

var eventsTotal = promauto.NewCounterVec( //nolint:gochecknoglobals
	prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Number of webhook deliveries, differentiated by event type and outcome.",
	},
	[]string{"type", "outcome"},
)

var sideEffectFailures = promauto.NewCounterVec( //nolint:gochecknoglobals
	prometheus.CounterOpts{
		Name: "webhook_side_effect_failures_total",
		Help: "Number of failed best-effort tasks run after a webhook dispatch.",
	},
	[]string{"task"},
)

func countEvent(eventType, outcome string) {
	if eventType == "" {
		eventType = labelUnclassified
	}

	eventsTotal.WithLabelValues(eventType, outcome).Inc()
}
