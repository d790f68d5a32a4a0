package repository

import (
	"context"
	"time"

	"github.com/polkiloo/golightpay/internal/domain/model"
)

// OrderRepository describes persistence operations with orders, their
// metadata and audit notes.
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) (*model.Order, error)
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]model.Order, error)

	// FindByMeta returns the order owning the given metadata value.
	// It returns errors.ErrNotFound when no order matches.
	FindByMeta(ctx context.Context, key, value string) (*model.Order, error)
	GetMeta(ctx context.Context, orderID int64, key string) (string, error)
	UpdateMeta(ctx context.Context, orderID int64, key, value string) error

	// TransitionStatus atomically moves the order to the target status when
	// its current status is one of from, recording note alongside. The
	// boolean result is false when the order was not in an allowed status.
	TransitionStatus(ctx context.Context, orderID int64, from []model.OrderStatus, to model.OrderStatus, note string) (bool, error)
	AddNote(ctx context.Context, orderID int64, note string) error
	ListNotes(ctx context.Context, orderID int64) ([]model.OrderNote, error)

	// ListAwaitingPayment returns lightpay orders still awaiting payment that
	// carry an invoice reference and were created before olderThan. Orders
	// never synced come first, then the least recently synced.
	ListAwaitingPayment(ctx context.Context, olderThan time.Time, limit int) ([]model.PendingInvoice, error)
	MarkInvoiceSynced(ctx context.Context, orderID int64, at time.Time) error
}
