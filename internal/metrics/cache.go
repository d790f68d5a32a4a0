package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(tokenCacheRequests) }

var tokenCacheRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "lightpay_token_cache_requests_total",
		Help: "Accepted-token cache lookups by result.",
	},
	[]string{"result"}, // hit|miss|error
)

func IncTokenCache(result string) {
	tokenCacheRequests.WithLabelValues(norm(result)).Inc()
}
