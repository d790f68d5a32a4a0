package model

import "github.com/shopspring/decimal"

// InvoiceStatus is the processor-side invoice state.
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusExpired InvoiceStatus = "expired"
)

// InvoiceRequest is the body of POST /v2/invoices.
type InvoiceRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	AcceptedTokens []string        `json:"accepted_tokens"`
	Description    string          `json:"description"`
	ReturnURL      string          `json:"return_url"`
	OutBizID       string          `json:"out_biz_id"`
}

// Invoice is a processor payment request linked 1:1 to an order.
type Invoice struct {
	ID             string          `json:"invoice_id"`
	Status         InvoiceStatus   `json:"status,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency,omitempty"`
	AcceptedTokens []string        `json:"accepted_tokens,omitempty"`
	Description    string          `json:"description,omitempty"`
	ReturnURL      string          `json:"return_url,omitempty"`
	OutBizID       string          `json:"out_biz_id,omitempty"`
}
