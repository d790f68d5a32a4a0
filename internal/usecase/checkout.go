package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/polkiloo/golightpay/internal/adapter/lightpay"
	domainErrors "github.com/polkiloo/golightpay/internal/domain/errors"
	"github.com/polkiloo/golightpay/internal/domain/model"
	"github.com/polkiloo/golightpay/internal/domain/repository"
	"github.com/polkiloo/golightpay/internal/metrics"
)

const (
	msgNotConfigured  = "LightPay payments are not configured. Please contact the store."
	msgInvoiceFailed  = "Failed to create LightPay invoice."
	msgInvoiceNotSent = "Failed to save LightPay invoice. Please contact the store."
	msgNotPayable     = "This order can no longer be paid."
)

// InvoiceError is a checkout failure carrying a message safe to show the shopper.
type InvoiceError struct {
	Message string
	Err     error
}

func (e *InvoiceError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *InvoiceError) Unwrap() error {
	return e.Err
}

// InvoiceCreator is the part of the processor API used at checkout.
type InvoiceCreator interface {
	CreateInvoice(ctx context.Context, req model.InvoiceRequest) (*model.Invoice, error)
}

// TokenProvider resolves accepted tokens for a currency.
type TokenProvider interface {
	AcceptedTokens(ctx context.Context, currency string) []string
}

// CheckoutOptions carries the storefront settings the orchestrator depends on.
type CheckoutOptions struct {
	APIKey      string
	CheckoutURL string
	CleanURLs   bool
}

// OrderAccess identifies who asks for an order. CustomerID is zero for guests.
type OrderAccess struct {
	OrderID    int64
	Key        string
	CustomerID int64
}

// CheckoutUseCase creates processor invoices and computes the pay redirect.
type CheckoutUseCase struct {
	orders   repository.OrderRepository
	invoices InvoiceCreator
	tokens   TokenProvider
	opts     CheckoutOptions
	logger   *slog.Logger
}

// NewCheckoutUseCase constructs CheckoutUseCase.
func NewCheckoutUseCase(orders repository.OrderRepository, invoices InvoiceCreator, tokens TokenProvider, opts CheckoutOptions, logger *slog.Logger) *CheckoutUseCase {
	return &CheckoutUseCase{orders: orders, invoices: invoices, tokens: tokens, opts: opts, logger: logger}
}

// CreateInvoice creates a single invoice for the order and returns the payment
// page URL. There is no retry: any processor failure fails the checkout.
func (u *CheckoutUseCase) CreateInvoice(ctx context.Context, access OrderAccess) (string, error) {
	order, err := loadAuthorizedOrder(ctx, u.orders, access)
	if err != nil {
		return "", err
	}
	if !order.HasStatus(awaitingPayment...) {
		return "", &InvoiceError{Message: msgNotPayable, Err: domainErrors.ErrNotPayable}
	}
	if strings.TrimSpace(u.opts.APIKey) == "" {
		u.logger.Error("checkout attempted without api key", slog.Int64("order_id", order.ID))
		return "", &InvoiceError{Message: msgNotConfigured, Err: domainErrors.ErrMissingAPIKey}
	}

	req := model.InvoiceRequest{
		Amount:         order.Total,
		Currency:       order.Currency,
		AcceptedTokens: u.tokens.AcceptedTokens(ctx, order.Currency),
		Description:    fmt.Sprintf("Order #%s", order.Number),
		ReturnURL:      u.ReturnURL(order),
		OutBizID:       strconv.FormatInt(order.ID, 10),
	}

	invoice, err := u.invoices.CreateInvoice(ctx, req)
	if err != nil {
		metrics.IncInvoiceCreated("error")
		u.logger.Error("invoice creation failed", slog.Int64("order_id", order.ID), slog.Any("error", err))
		msg := msgInvoiceFailed
		var apiErr *lightpay.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			msg = apiErr.Message
		}
		return "", &InvoiceError{Message: msg, Err: err}
	}

	if err := u.orders.UpdateMeta(ctx, order.ID, model.MetaInvoiceID, invoice.ID); err != nil {
		metrics.IncInvoiceCreated("orphaned")
		u.logger.Error("invoice created but not linked to order",
			slog.Int64("order_id", order.ID),
			slog.String("invoice_id", invoice.ID),
			slog.Any("error", err),
		)
		return "", &InvoiceError{Message: msgInvoiceNotSent, Err: err}
	}
	metrics.IncInvoiceCreated("created")

	if err := u.orders.AddNote(ctx, order.ID, fmt.Sprintf("LightPay invoice %s created", invoice.ID)); err != nil {
		u.logger.Warn("order note not saved", slog.Int64("order_id", order.ID), slog.Any("error", err))
	}

	u.logger.Info("invoice created", slog.Int64("order_id", order.ID), slog.String("invoice_id", invoice.ID))
	return u.PaymentURL(order), nil
}

// PaymentURL is the pay endpoint for order in the configured addressing mode.
func (u *CheckoutUseCase) PaymentURL(order *model.Order) string {
	id := strconv.FormatInt(order.ID, 10)
	key := url.QueryEscape(order.Key)
	if u.opts.CleanURLs {
		return strings.TrimRight(u.opts.CheckoutURL, "/") + "/order-pay/" + id + "/?pay=1&key=" + key
	}
	return u.opts.CheckoutURL + querySep(u.opts.CheckoutURL) + "order-pay=" + id + "&pay=1&key=" + key
}

// ReturnURL is where the widget sends the shopper after a completed payment.
func (u *CheckoutUseCase) ReturnURL(order *model.Order) string {
	id := strconv.FormatInt(order.ID, 10)
	key := url.QueryEscape(order.Key)
	if u.opts.CleanURLs {
		return strings.TrimRight(u.opts.CheckoutURL, "/") + "/order-received/" + id + "/?key=" + key
	}
	return u.opts.CheckoutURL + querySep(u.opts.CheckoutURL) + "order-received=" + id + "&key=" + key
}

func querySep(base string) string {
	if strings.Contains(base, "?") {
		return "&"
	}
	return "?"
}

// loadAuthorizedOrder fails closed on a wrong order key, a foreign owner or a
// different payment method.
func loadAuthorizedOrder(ctx context.Context, orders repository.OrderRepository, access OrderAccess) (*model.Order, error) {
	order, err := orders.GetByID(ctx, access.OrderID)
	if err != nil {
		return nil, err
	}
	if access.Key == "" || subtle.ConstantTimeCompare([]byte(access.Key), []byte(order.Key)) != 1 {
		return nil, domainErrors.ErrAccessDenied
	}
	if access.CustomerID != 0 && order.CustomerID != access.CustomerID {
		return nil, domainErrors.ErrAccessDenied
	}
	if order.PaymentMethod != model.PaymentMethodLightPay {
		return nil, domainErrors.ErrWrongPaymentMethod
	}
	return order, nil
}
