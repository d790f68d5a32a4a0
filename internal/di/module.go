package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/golightpay/internal/adapter/lightpay"
	"github.com/polkiloo/golightpay/internal/app"
	"github.com/polkiloo/golightpay/internal/cache"
	"github.com/polkiloo/golightpay/internal/config"
	"github.com/polkiloo/golightpay/internal/logger"
	"github.com/polkiloo/golightpay/internal/metrics"
	"github.com/polkiloo/golightpay/internal/pkg/auth"
	"github.com/polkiloo/golightpay/internal/server/http/handlers"
	"github.com/polkiloo/golightpay/internal/server/http/router"
	"github.com/polkiloo/golightpay/internal/storage/postgres"
	"github.com/polkiloo/golightpay/internal/usecase"
	"github.com/polkiloo/golightpay/internal/webhook"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		metrics.Module,
		auth.Module,
		postgres.Module,
		cache.Module,
		lightpay.Module,
		webhook.Module,
		usecase.Module,
		fx.Provide(
			func(client lightpay.Client) app.InvoiceReader { return client },
			func(storage *postgres.Storage) app.HealthChecker { return storage },
			func(c *usecase.WebhookConfigurator) app.WebhookSetup { return c },
			func(f *app.StoreFacade) handlers.StoreFacade { return f },
		),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
