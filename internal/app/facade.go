package app

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"

	"github.com/polkiloo/golightpay/internal/config"
	"github.com/polkiloo/golightpay/internal/domain/model"
	"github.com/polkiloo/golightpay/internal/domain/repository"
	"github.com/polkiloo/golightpay/internal/usecase"
	"github.com/polkiloo/golightpay/internal/webhook"
)

// InvoiceReader fetches processor-side invoice state.
type InvoiceReader interface {
	GetInvoice(ctx context.Context, invoiceID string) (*model.Invoice, error)
}

// HealthChecker reports storage connectivity.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// StoreFacade exposes the storefront payment operations to the HTTP layer
// and the invoice sync worker.
type StoreFacade struct {
	auth       *usecase.AuthUseCase
	orders     *usecase.OrderUseCase
	checkout   *usecase.CheckoutUseCase
	pages      *usecase.PaymentPageUseCase
	reconciler *usecase.Reconciler
	verifier   *webhook.Verifier
	invoices   InvoiceReader
	repo       repository.OrderRepository
	db         HealthChecker
	apiKey     string
	testMode   bool
	logger     *slog.Logger
}

type facadeParams struct {
	fx.In

	Config     *config.Config
	Logger     *slog.Logger
	Auth       *usecase.AuthUseCase
	Orders     *usecase.OrderUseCase
	Checkout   *usecase.CheckoutUseCase
	Pages      *usecase.PaymentPageUseCase
	Reconciler *usecase.Reconciler
	Verifier   *webhook.Verifier
	Invoices   InvoiceReader
	Repo       repository.OrderRepository
	DB         HealthChecker
}

// NewStoreFacade assembles the facade from use cases and adapters.
func NewStoreFacade(p facadeParams) *StoreFacade {
	return &StoreFacade{
		auth:       p.Auth,
		orders:     p.Orders,
		checkout:   p.Checkout,
		pages:      p.Pages,
		reconciler: p.Reconciler,
		verifier:   p.Verifier,
		invoices:   p.Invoices,
		repo:       p.Repo,
		db:         p.DB,
		apiKey:     p.Config.ActiveAPIKey(),
		testMode:   p.Config.TestMode,
		logger:     p.Logger,
	}
}

func (f *StoreFacade) Register(ctx context.Context, login, password string) (string, error) {
	_, token, err := f.auth.Register(ctx, login, password)
	return token, err
}

func (f *StoreFacade) Authenticate(ctx context.Context, login, password string) (string, error) {
	_, token, err := f.auth.Authenticate(ctx, login, password)
	return token, err
}

func (f *StoreFacade) ParseToken(token string) (int64, error) {
	return f.auth.ParseToken(token)
}

func (f *StoreFacade) PlaceOrder(ctx context.Context, customerID int64, total decimal.Decimal, currency, paymentMethod string) (*model.Order, error) {
	return f.orders.Place(ctx, usecase.PlaceOrder{
		CustomerID:    customerID,
		Total:         total,
		Currency:      currency,
		PaymentMethod: paymentMethod,
	})
}

func (f *StoreFacade) Orders(ctx context.Context, customerID int64) ([]model.Order, error) {
	return f.orders.ListByCustomer(ctx, customerID)
}

func (f *StoreFacade) OrderNotes(ctx context.Context, customerID, orderID int64) ([]model.OrderNote, error) {
	return f.orders.Notes(ctx, customerID, orderID)
}

func (f *StoreFacade) Checkout(ctx context.Context, orderID int64, key string, customerID int64) (string, error) {
	return f.checkout.CreateInvoice(ctx, usecase.OrderAccess{OrderID: orderID, Key: key, CustomerID: customerID})
}

func (f *StoreFacade) PaymentPage(ctx context.Context, orderID int64, key string, customerID int64) (*model.PaymentPage, error) {
	return f.pages.Resolve(ctx, usecase.OrderAccess{OrderID: orderID, Key: key, CustomerID: customerID})
}

// HandleWebhook authenticates a delivery and hands it to the reconciler.
// Nothing is parsed before the signature checks out.
func (f *StoreFacade) HandleWebhook(ctx context.Context, d webhook.Delivery) (string, error) {
	if err := f.verifier.VerifyDelivery(d, f.apiKey); err != nil {
		return "", err
	}
	outcome, err := f.reconciler.Handle(ctx, webhook.ParseEvent(d))
	return string(outcome), err
}

// Health reports database connectivity and whether an API key is configured.
func (f *StoreFacade) Health(ctx context.Context) (bool, map[string]string) {
	ok := true
	checks := map[string]string{"database": "ok", "api_key": "configured", "mode": "live"}
	if f.testMode {
		checks["mode"] = "testnet"
	}
	if err := f.db.HealthCheck(ctx); err != nil {
		f.logger.Warn("database health check failed", slog.String("error", err.Error()))
		checks["database"] = "unavailable"
		ok = false
	}
	if strings.TrimSpace(f.apiKey) == "" {
		checks["api_key"] = "missing"
		ok = false
	}
	return ok, checks
}

func (f *StoreFacade) InvoicesAwaitingPayment(ctx context.Context, olderThan time.Time, limit int) ([]model.PendingInvoice, error) {
	return f.repo.ListAwaitingPayment(ctx, olderThan, limit)
}

func (f *StoreFacade) MarkInvoiceSynced(ctx context.Context, orderID int64, at time.Time) error {
	return f.repo.MarkInvoiceSynced(ctx, orderID, at)
}

func (f *StoreFacade) FetchInvoice(ctx context.Context, invoiceID string) (*model.Invoice, error) {
	return f.invoices.GetInvoice(ctx, invoiceID)
}

func (f *StoreFacade) ReconcileEvent(ctx context.Context, evt model.WebhookEvent) error {
	_, err := f.reconciler.Handle(ctx, evt)
	return err
}
