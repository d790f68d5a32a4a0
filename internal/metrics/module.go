package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

// Module registers collectors and exposes the scrape handler.
var Module = fx.Options(
	fx.Invoke(MustRegister),
	fx.Provide(Handler),
)

// Handler returns the Prometheus scrape handler for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
