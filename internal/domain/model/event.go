package model

import (
	"encoding/json"
	"time"
)

// EventType enumerates webhook event kinds sent by the processor.
type EventType string

const (
	EventInvoicePaid    EventType = "invoice.paid"
	EventInvoiceExpired EventType = "invoice.expired"
)

// WebhookEvent is an authenticated webhook delivery ready for reconciliation.
type WebhookEvent struct {
	Type      EventType
	ID        string
	InvoiceID string
	Timestamp time.Time
	Payload   json.RawMessage
}
