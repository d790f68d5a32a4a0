package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(apiRequests, apiDuration, invoicesCreated)
}

var (
	apiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lightpay_api_requests_total",
			Help: "Outbound processor API calls by endpoint and HTTP status (0 on transport error).",
		},
		[]string{"endpoint", "status"},
	)

	apiDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lightpay_api_request_duration_seconds",
			Help:    "Outbound processor API latency in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"endpoint"},
	)

	// result: ok|api_error|persist_error|no_api_key
	invoicesCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lightpay_invoices_created_total",
			Help: "Checkout invoice creation attempts by result.",
		},
		[]string{"result"},
	)
)

// ObserveAPIRequest records one outbound API call.
func ObserveAPIRequest(endpoint string, status int, elapsed time.Duration) {
	apiRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	apiDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// IncInvoiceCreated counts a checkout invoice attempt.
func IncInvoiceCreated(result string) {
	invoicesCreated.WithLabelValues(norm(result)).Inc()
}
