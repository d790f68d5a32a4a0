package errors

import "errors"

var (
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidCurrency    = errors.New("invalid currency")

	// Webhook boundary.
	ErrMissingEventType = errors.New("missing event type")
	ErrMissingInvoiceID = errors.New("missing invoice_id")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrStaleDelivery    = errors.New("delivery timestamp outside replay window")

	// Merchant configuration.
	ErrMissingAPIKey = errors.New("api key not configured")
	ErrInvalidAPIKey = errors.New("api key format invalid")

	// Payment page and checkout access.
	ErrAccessDenied       = errors.New("access denied")
	ErrWrongPaymentMethod = errors.New("order does not use lightpay payment method")
	ErrInvoiceMissing     = errors.New("payment invoice not found")
	ErrNotPayable         = errors.New("order is not awaiting payment")
)
