package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus describes the storefront payment lifecycle.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusOnHold     OrderStatus = "on-hold"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
	OrderStatusFailed     OrderStatus = "failed"
)

// PaymentMethodLightPay identifies orders paid through this integration.
const PaymentMethodLightPay = "lightpay"

// MetaInvoiceID is the order metadata key holding the processor invoice reference.
const MetaInvoiceID = "_lightpay_invoice_id"

// Order describes a storefront order awaiting or holding payment.
type Order struct {
	ID            int64
	Number        string
	Key           string
	CustomerID    int64
	Status        OrderStatus
	Total         decimal.Decimal
	Currency      string
	PaymentMethod string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasStatus reports whether the order is in one of the given statuses.
func (o *Order) HasStatus(statuses ...OrderStatus) bool {
	for _, s := range statuses {
		if o.Status == s {
			return true
		}
	}
	return false
}

// OrderNote is a human-readable audit entry attached to an order.
type OrderNote struct {
	ID        int64
	OrderID   int64
	Note      string
	CreatedAt time.Time
}

// PendingInvoice pairs an unpaid order with its processor invoice reference.
type PendingInvoice struct {
	Order     Order
	InvoiceID string
}
