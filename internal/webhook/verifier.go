// Package webhook authenticates inbound LightPay webhook deliveries.
package webhook

import (
	"bytes"
	"crypto/hmac"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/polkiloo/golightpay/internal/domain/errors"
	"github.com/polkiloo/golightpay/internal/domain/model"
	"github.com/polkiloo/golightpay/internal/pkg/apikey"
)

// Header names set by the processor on every delivery.
const (
	HeaderSignature = "X-LightPay-Signature"
	HeaderEvent     = "X-LightPay-Event"
	HeaderEventID   = "X-LightPay-Event-ID"
	HeaderTimestamp = "X-LightPay-Timestamp"
)

const diagnosticPrefix = 20

// Delivery is a raw webhook request as received from the processor.
type Delivery struct {
	Body      []byte
	Signature string
	EventType string
	EventID   string
	Timestamp string
}

// DeliveryFromRequest collects the webhook headers next to an already read body.
func DeliveryFromRequest(h http.Header, body []byte) Delivery {
	return Delivery{
		Body:      body,
		Signature: h.Get(HeaderSignature),
		EventType: h.Get(HeaderEvent),
		EventID:   h.Get(HeaderEventID),
		Timestamp: h.Get(HeaderTimestamp),
	}
}

// Verifier checks signatures and, optionally, delivery freshness.
type Verifier struct {
	insecure bool
	window   time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// NewVerifier constructs a verifier. A zero window disables the freshness check.
// insecure lets unsigned deliveries through and must stay off in production.
func NewVerifier(insecure bool, window time.Duration, logger *slog.Logger) *Verifier {
	return &Verifier{insecure: insecure, window: window, now: time.Now, logger: logger}
}

// Verify reports whether signature authenticates raw under apiKey.
func (v *Verifier) Verify(raw []byte, signature, apiKey string) bool {
	if signature == "" {
		if v.insecure {
			v.logger.Warn("webhook signature missing, accepted because insecure mode is enabled")
			return true
		}
		v.logger.Warn("webhook signature missing")
		return false
	}

	expected, err := apikey.Sign(raw, apiKey)
	if err != nil {
		v.logger.Error("webhook signing key unavailable", slog.String("error", err.Error()))
		return false
	}

	if !hmac.Equal([]byte(signature), []byte(expected)) {
		v.logger.Warn("webhook signature mismatch",
			slog.String("received", truncate(signature)),
			slog.String("expected", truncate(expected)),
		)
		return false
	}
	return true
}

// VerifyDelivery authenticates d and applies the freshness window when enabled.
func (v *Verifier) VerifyDelivery(d Delivery, apiKey string) error {
	if !v.Verify(d.Body, d.Signature, apiKey) {
		return errors.ErrInvalidSignature
	}
	if v.window <= 0 {
		return nil
	}

	ts, ok := parseTimestamp(d.Timestamp)
	if !ok {
		v.logger.Warn("webhook timestamp missing or malformed", slog.String("timestamp", d.Timestamp))
		return errors.ErrStaleDelivery
	}
	skew := v.now().Sub(ts)
	if skew < 0 {
		skew = -skew
	}
	if skew > v.window {
		v.logger.Warn("webhook delivery outside replay window",
			slog.Duration("skew", skew),
			slog.Duration("window", v.window),
		)
		return errors.ErrStaleDelivery
	}
	return nil
}

// ParseEvent turns an authenticated delivery into a reconciler event.
// A body that is not a JSON object yields an event without invoice ID.
func ParseEvent(d Delivery) model.WebhookEvent {
	evt := model.WebhookEvent{
		Type:    model.EventType(strings.TrimSpace(d.EventType)),
		ID:      d.EventID,
		Payload: json.RawMessage(d.Body),
	}
	if ts, ok := parseTimestamp(d.Timestamp); ok {
		evt.Timestamp = ts
	}

	var body struct {
		InvoiceID any `json:"invoice_id"`
	}
	dec := json.NewDecoder(bytes.NewReader(d.Body))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return evt
	}
	switch id := body.InvoiceID.(type) {
	case string:
		evt.InvoiceID = strings.TrimSpace(id)
	case json.Number:
		evt.InvoiceID = id.String()
	}
	return evt
}

// parseTimestamp accepts unix seconds or RFC 3339.
func parseTimestamp(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Unix(secs, 0), true
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func truncate(s string) string {
	if len(s) <= diagnosticPrefix {
		return s
	}
	return s[:diagnosticPrefix] + "..."
}
