package handlers

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/golightpay/internal/domain/model"
	"github.com/polkiloo/golightpay/internal/webhook"
)

// AuthFacade describes authentication capabilities required by handlers.
type AuthFacade interface {
	Register(ctx context.Context, login, password string) (string, error)
	Authenticate(ctx context.Context, login, password string) (string, error)
	ParseToken(token string) (int64, error)
}

// OrderFacade encapsulates order operations exposed via HTTP.
type OrderFacade interface {
	PlaceOrder(ctx context.Context, customerID int64, total decimal.Decimal, currency, paymentMethod string) (*model.Order, error)
	Orders(ctx context.Context, customerID int64) ([]model.Order, error)
	OrderNotes(ctx context.Context, customerID, orderID int64) ([]model.OrderNote, error)
}

// CheckoutFacade starts payments and resolves the payment page.
type CheckoutFacade interface {
	Checkout(ctx context.Context, orderID int64, key string, customerID int64) (string, error)
	PaymentPage(ctx context.Context, orderID int64, key string, customerID int64) (*model.PaymentPage, error)
}

// WebhookFacade authenticates and reconciles processor deliveries.
type WebhookFacade interface {
	HandleWebhook(ctx context.Context, d webhook.Delivery) (string, error)
}

// HealthFacade reports readiness of the service dependencies.
type HealthFacade interface {
	Health(ctx context.Context) (bool, map[string]string)
}

// StoreFacade aggregates the full set of operations used across handlers.
type StoreFacade interface {
	AuthFacade
	OrderFacade
	CheckoutFacade
	WebhookFacade
	HealthFacade
}
