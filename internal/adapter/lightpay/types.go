package lightpay

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Network describes a settlement chain supported by the processor.
type Network struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Tokens []string `json:"tokens,omitempty"`
}

// TransactionRequest is the body of POST /v2/invoices/{id}/transactions.
type TransactionRequest struct {
	Network     string `json:"network"`
	Token       string `json:"token"`
	FromAddress string `json:"from_address,omitempty"`
}

// Transaction is an on-chain payment attempt against an invoice.
type Transaction struct {
	ID        string          `json:"transaction_id"`
	InvoiceID string          `json:"invoice_id,omitempty"`
	Status    string          `json:"status,omitempty"`
	Network   string          `json:"network,omitempty"`
	Token     string          `json:"token,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	TxHash    string          `json:"tx_hash,omitempty"`
	Address   string          `json:"address,omitempty"`
}

// WebhookConfig is the processor-side delivery configuration of an API key.
type WebhookConfig struct {
	URL     string   `json:"webhook_url"`
	Enabled bool     `json:"webhook_enabled"`
	Events  []string `json:"webhook_events"`
}

// errorBody mirrors the processor's error envelope.
type errorBody struct {
	Error string `json:"error"`
}

// unwrap returns the object stored under key when present, otherwise raw itself.
func unwrap(raw []byte, key string) []byte {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return raw
	}
	if inner, ok := envelope[key]; ok && len(inner) > 0 && inner[0] == '{' {
		return inner
	}
	return raw
}
