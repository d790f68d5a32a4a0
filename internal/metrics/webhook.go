package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(webhookDeliveries, webhookDuration, orderTransitions)
}

var (
	// result: ok|duplicate|order_not_found|bad_signature|bad_request|stale|error
	webhookDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lightpay_webhook_deliveries_total",
			Help: "Webhook deliveries by handling result.",
		},
		[]string{"result"},
	)

	webhookDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lightpay_webhook_duration_seconds",
			Help:    "Duration of webhook handling in seconds.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"result"},
	)

	// outcome: transitioned|noop|order_not_found|ignored|duplicate
	orderTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lightpay_order_transitions_total",
			Help: "Reconciler outcomes per event type.",
		},
		[]string{"event", "outcome"},
	)
)

// ObserveWebhook records one handled webhook delivery.
func ObserveWebhook(result string, elapsed time.Duration) {
	webhookDeliveries.WithLabelValues(norm(result)).Inc()
	webhookDuration.WithLabelValues(norm(result)).Observe(elapsed.Seconds())
}

// IncOrderTransition counts a reconciler outcome.
func IncOrderTransition(event, outcome string) {
	orderTransitions.WithLabelValues(norm(event), norm(outcome)).Inc()
}
