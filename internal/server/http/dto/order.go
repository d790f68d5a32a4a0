package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlaceOrderRequest is the payload of POST /api/orders.
type PlaceOrderRequest struct {
	Total         decimal.Decimal `json:"total"`
	Currency      string          `json:"currency"`
	PaymentMethod string          `json:"payment_method,omitempty"`
}

// OrderResponse represents an order in API responses.
type OrderResponse struct {
	ID            int64           `json:"id"`
	Number        string          `json:"number"`
	Key           string          `json:"order_key"`
	Status        string          `json:"status"`
	Total         decimal.Decimal `json:"total"`
	Currency      string          `json:"currency"`
	PaymentMethod string          `json:"payment_method"`
	CreatedAt     time.Time       `json:"created_at"`
}

// OrderNoteResponse is one audit entry of an order.
type OrderNoteResponse struct {
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}
