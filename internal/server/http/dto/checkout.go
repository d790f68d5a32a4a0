package dto

// CheckoutRequest carries the order key proving access to a guest order.
type CheckoutRequest struct {
	Key string `json:"key"`
}

// CheckoutResponse mirrors the storefront checkout result contract.
type CheckoutResponse struct {
	Result   string   `json:"result"`
	Redirect string   `json:"redirect"`
	Messages []string `json:"messages,omitempty"`
}
