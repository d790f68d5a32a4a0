package lightpay

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/golightpay/internal/config"
)

// Module exposes the processor client to the fx graph.
var Module = fx.Provide(newClient)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newClient(p clientParams) (Client, error) {
	return NewHTTPClient(p.Config.ActiveAPIURL(), p.Config.ActiveAPIKey(), p.Config.APITimeout, p.Logger)
}
