package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/golightpay/internal/domain/errors"
	"github.com/polkiloo/golightpay/internal/domain/model"
	"github.com/polkiloo/golightpay/internal/domain/repository"
)

// PlaceOrder describes a new storefront order.
type PlaceOrder struct {
	CustomerID    int64
	Total         decimal.Decimal
	Currency      string
	PaymentMethod string
}

// OrderUseCase encapsulates order lifecycle logic.
type OrderUseCase struct {
	orders repository.OrderRepository
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(orders repository.OrderRepository) *OrderUseCase {
	return &OrderUseCase{orders: orders}
}

// Place stores a pending order with a fresh access key. The order number
// defaults to its ID.
func (u *OrderUseCase) Place(ctx context.Context, in PlaceOrder) (*model.Order, error) {
	if !in.Total.IsPositive() {
		return nil, domainErrors.ErrInvalidAmount
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if len(currency) != 3 {
		return nil, domainErrors.ErrInvalidCurrency
	}
	method := strings.TrimSpace(in.PaymentMethod)
	if method == "" {
		method = model.PaymentMethodLightPay
	}

	return u.orders.Create(ctx, &model.Order{
		Key:           "order_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		CustomerID:    in.CustomerID,
		Status:        model.OrderStatusPending,
		Total:         in.Total.Round(2),
		Currency:      currency,
		PaymentMethod: method,
	})
}

// ListByCustomer returns the customer's orders, newest first.
func (u *OrderUseCase) ListByCustomer(ctx context.Context, customerID int64) ([]model.Order, error) {
	return u.orders.ListByCustomer(ctx, customerID)
}

// Notes returns the audit trail of an order owned by customerID.
func (u *OrderUseCase) Notes(ctx context.Context, customerID, orderID int64) ([]model.OrderNote, error) {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, domainErrors.ErrNotFound
	}
	return u.orders.ListNotes(ctx, orderID)
}
