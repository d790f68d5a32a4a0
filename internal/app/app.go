package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/golightpay/internal/config"
	"github.com/polkiloo/golightpay/internal/usecase"
	"github.com/polkiloo/golightpay/internal/worker"
)

// Module wires application services, runtime components, and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		NewStoreFacade,
		newHTTPServer,
		newInvoiceSyncer,
	),
	fx.Invoke(registerLifecycle),
)

// WebhookSetup registers the webhook endpoint with the processor.
type WebhookSetup interface {
	Configure(ctx context.Context) usecase.ConfigureResult
}

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:    p.Config.RunAddress,
		Handler: p.Router,
	}
}

type workerParams struct {
	fx.In

	Facade *StoreFacade
	Config *config.Config
	Logger *slog.Logger
}

func newInvoiceSyncer(p workerParams) *worker.InvoiceSyncer {
	return worker.NewInvoiceSyncer(
		p.Facade,
		p.Config.InvoiceSyncInterval,
		p.Config.InvoiceSyncAge,
		p.Config.MaxOrdersBatch,
		p.Config.WorkerPoolSize,
		p.Logger,
	)
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Worker     *worker.InvoiceSyncer
	Webhook    WebhookSetup
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("starting golightpay",
				slog.String("addr", p.Server.Addr),
				slog.Bool("test_mode", p.Config.TestMode),
			)
			p.Worker.Start(context.Background())
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			if p.Config.AutoConfigureWebhook {
				go p.Webhook.Configure(context.Background())
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Worker.Stop()

			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			if err := p.Server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			p.Logger.Info("golightpay stopped")
			return nil
		},
	})
}
