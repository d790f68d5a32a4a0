package test

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/golightpay/internal/domain/model"
	"github.com/polkiloo/golightpay/internal/webhook"
)

// OrderFacadeStub provides controllable behaviour for order endpoints.
type OrderFacadeStub struct {
	PlaceFn  func(context.Context, int64, decimal.Decimal, string, string) (*model.Order, error)
	OrdersFn func(context.Context, int64) ([]model.Order, error)
	NotesFn  func(context.Context, int64, int64) ([]model.OrderNote, error)
}

// PlaceOrder delegates to provided function or returns a pending order.
func (s OrderFacadeStub) PlaceOrder(ctx context.Context, customerID int64, total decimal.Decimal, currency, paymentMethod string) (*model.Order, error) {
	if s.PlaceFn != nil {
		return s.PlaceFn(ctx, customerID, total, currency, paymentMethod)
	}
	return &model.Order{
		ID:            1,
		Number:        "1",
		Key:           "order_key",
		CustomerID:    customerID,
		Status:        model.OrderStatusPending,
		Total:         total,
		Currency:      currency,
		PaymentMethod: model.PaymentMethodLightPay,
	}, nil
}

// Orders returns predefined orders for given customer.
func (s OrderFacadeStub) Orders(ctx context.Context, customerID int64) ([]model.Order, error) {
	if s.OrdersFn != nil {
		return s.OrdersFn(ctx, customerID)
	}
	return []model.Order{{ID: 1, Number: "1", Status: model.OrderStatusPending}}, nil
}

// OrderNotes returns predefined notes.
func (s OrderFacadeStub) OrderNotes(ctx context.Context, customerID, orderID int64) ([]model.OrderNote, error) {
	if s.NotesFn != nil {
		return s.NotesFn(ctx, customerID, orderID)
	}
	return []model.OrderNote{{OrderID: orderID, Note: "note", CreatedAt: time.Unix(0, 0)}}, nil
}

// CheckoutFacadeStub simulates payment start and payment page lookups.
type CheckoutFacadeStub struct {
	CheckoutFn    func(context.Context, int64, string, int64) (string, error)
	PaymentPageFn func(context.Context, int64, string, int64) (*model.PaymentPage, error)
}

// Checkout returns configured redirect.
func (s CheckoutFacadeStub) Checkout(ctx context.Context, orderID int64, key string, customerID int64) (string, error) {
	if s.CheckoutFn != nil {
		return s.CheckoutFn(ctx, orderID, key, customerID)
	}
	return "https://shop.example.com/checkout/order-pay/1/?pay=1&key=" + key, nil
}

// PaymentPage returns configured page data.
func (s CheckoutFacadeStub) PaymentPage(ctx context.Context, orderID int64, key string, customerID int64) (*model.PaymentPage, error) {
	if s.PaymentPageFn != nil {
		return s.PaymentPageFn(ctx, orderID, key, customerID)
	}
	return &model.PaymentPage{
		Order:     model.Order{ID: orderID, Number: "1", Key: key},
		InvoiceID: "inv_abc",
		BaseURL:   "https://api.golightpay.com",
	}, nil
}

// WebhookFacadeStub records deliveries handed to the webhook facade.
type WebhookFacadeStub struct {
	HandleFn func(context.Context, webhook.Delivery) (string, error)
}

// HandleWebhook delegates to override or acknowledges a transition.
func (s WebhookFacadeStub) HandleWebhook(ctx context.Context, d webhook.Delivery) (string, error) {
	if s.HandleFn != nil {
		return s.HandleFn(ctx, d)
	}
	return "transitioned", nil
}

// HealthFacadeStub reports configured readiness.
type HealthFacadeStub struct {
	Down   bool
	Checks map[string]string
}

// Health returns configured readiness.
func (s HealthFacadeStub) Health(context.Context) (bool, map[string]string) {
	checks := s.Checks
	if checks == nil {
		checks = map[string]string{"database": "ok"}
	}
	return !s.Down, checks
}

// StoreFacadeStub aggregates facade dependencies for HTTP layer tests.
type StoreFacadeStub struct {
	AuthFacadeStub
	OrderFacadeStub
	CheckoutFacadeStub
	WebhookFacadeStub
	HealthFacadeStub
}

// SyncFacadeStub mimics the application facade as seen by the invoice syncer.
type SyncFacadeStub struct {
	Batches   [][]model.PendingInvoice
	PendingFn func(context.Context, time.Time, int) ([]model.PendingInvoice, error)
	FetchFn   func(context.Context, string) (*model.Invoice, error)
	Invoices  map[string]*model.Invoice
	Err       error
	MarkErr   error

	mu      sync.Mutex
	calls   int
	Cutoffs []time.Time
	Fetched []string
	Events  []model.WebhookEvent
	Synced  []int64
}

// InvoicesAwaitingPayment returns batches from configured queue.
func (s *SyncFacadeStub) InvoicesAwaitingPayment(ctx context.Context, olderThan time.Time, limit int) ([]model.PendingInvoice, error) {
	if s.PendingFn != nil {
		return s.PendingFn(ctx, olderThan, limit)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Cutoffs = append(s.Cutoffs, olderThan)
	s.calls++
	if s.calls <= len(s.Batches) {
		return s.Batches[s.calls-1], nil
	}
	return nil, nil
}

// MarkInvoiceSynced records the order whose invoice was checked.
func (s *SyncFacadeStub) MarkInvoiceSynced(_ context.Context, orderID int64, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Synced = append(s.Synced, orderID)
	return s.MarkErr
}

// SyncedOrders returns a copy of the orders marked as synced.
func (s *SyncFacadeStub) SyncedOrders() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.Synced...)
}

// FetchInvoice returns the configured invoice.
func (s *SyncFacadeStub) FetchInvoice(ctx context.Context, invoiceID string) (*model.Invoice, error) {
	s.mu.Lock()
	s.Fetched = append(s.Fetched, invoiceID)
	s.mu.Unlock()
	if s.FetchFn != nil {
		return s.FetchFn(ctx, invoiceID)
	}
	if inv, ok := s.Invoices[invoiceID]; ok {
		return inv, nil
	}
	return &model.Invoice{ID: invoiceID, Status: model.InvoiceStatusPending}, nil
}

// ReconcileEvent records reconciled events.
func (s *SyncFacadeStub) ReconcileEvent(_ context.Context, evt model.WebhookEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Events = append(s.Events, evt)
	return s.Err
}

// Snapshot returns copies of recorded calls.
func (s *SyncFacadeStub) Snapshot() (fetched []string, events []model.WebhookEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.Fetched...), append([]model.WebhookEvent(nil), s.Events...)
}
