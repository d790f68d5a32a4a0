package model

// PaymentPage carries what the hosted widget page needs to render.
type PaymentPage struct {
	Order     Order
	InvoiceID string
	BaseURL   string
	Sandbox   bool
}
