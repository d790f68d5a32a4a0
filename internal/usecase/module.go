package usecase

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/golightpay/internal/adapter/lightpay"
	"github.com/polkiloo/golightpay/internal/cache"
	"github.com/polkiloo/golightpay/internal/config"
	"github.com/polkiloo/golightpay/internal/domain/repository"
)

// Module provides core business use cases to the fx container.
var Module = fx.Provide(
	NewAuthUseCase,
	NewOrderUseCase,
	newTokenCatalog,
	newReconciler,
	newCheckoutUseCase,
	newPaymentPageUseCase,
	newWebhookConfigurator,
)

type useCaseParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
	Orders repository.OrderRepository
	Cache  cache.Cache
	Client lightpay.Client
}

func newTokenCatalog(p useCaseParams) *TokenCatalog {
	return NewTokenCatalog(p.Cache, p.Config.TokenCacheTTL, p.Logger)
}

func newReconciler(p useCaseParams) *Reconciler {
	var events EventLog
	if p.Config.EventDedupTTL > 0 {
		events = NewCacheEventLog(p.Cache, p.Config.EventDedupTTL)
	}
	return NewReconciler(p.Orders, NewOrderTransitions(p.Orders, p.Logger), events, p.Logger)
}

func newCheckoutUseCase(p useCaseParams, tokens *TokenCatalog) *CheckoutUseCase {
	return NewCheckoutUseCase(p.Orders, p.Client, tokens, CheckoutOptions{
		APIKey:      p.Config.ActiveAPIKey(),
		CheckoutURL: p.Config.CheckoutURL(),
		CleanURLs:   p.Config.CleanURLs,
	}, p.Logger)
}

func newPaymentPageUseCase(p useCaseParams) *PaymentPageUseCase {
	return NewPaymentPageUseCase(p.Orders, p.Config.ActiveAPIURL(), p.Config.TestMode)
}

func newWebhookConfigurator(p useCaseParams) *WebhookConfigurator {
	return NewWebhookConfigurator(p.Client, p.Config.ActiveAPIKey(), p.Config.WebhookURL(), p.Logger)
}
