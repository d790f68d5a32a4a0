package dto

// WebhookAck acknowledges a processed delivery.
type WebhookAck struct {
	Received bool `json:"received"`
}

// ErrorResponse is the JSON error body for machine clients.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse reports readiness per dependency.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
