package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/golightpay/internal/domain/errors"
	"github.com/polkiloo/golightpay/internal/server/http/dto"
	testhelpers "github.com/polkiloo/golightpay/internal/test"
	"github.com/polkiloo/golightpay/internal/usecase"
	"github.com/polkiloo/golightpay/internal/webhook"
)

func postWebhook(t *testing.T, facade WebhookFacade, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.POST("/api/lightpay/webhook", NewWebhookHandler(facade, slog.New(slog.NewJSONHandler(io.Discard, nil))).Receive)
	req := httptest.NewRequest(http.MethodPost, "/api/lightpay/webhook", strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestWebhookHandlerAcknowledges(t *testing.T) {
	var got webhook.Delivery
	facade := testhelpers.WebhookFacadeStub{HandleFn: func(_ context.Context, d webhook.Delivery) (string, error) {
		got = d
		return "order_not_found", nil
	}}

	body := `{"invoice_id": "inv_abc",  "amount": "25.00"}`
	resp := postWebhook(t, facade, body, map[string]string{
		webhook.HeaderSignature: "sha256=deadbeef",
		webhook.HeaderEvent:     "invoice.paid",
		webhook.HeaderEventID:   "evt_1",
		webhook.HeaderTimestamp: "1700000000",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var ack dto.WebhookAck
	if err := json.Unmarshal(resp.Body.Bytes(), &ack); err != nil || !ack.Received {
		t.Fatalf("unexpected ack %s err=%v", resp.Body.String(), err)
	}
	if string(got.Body) != body {
		t.Fatalf("body must reach the verifier byte for byte, got %q", got.Body)
	}
	if got.Signature != "sha256=deadbeef" || got.EventType != "invoice.paid" || got.EventID != "evt_1" || got.Timestamp != "1700000000" {
		t.Fatalf("unexpected delivery headers %+v", got)
	}
}

func TestWebhookHandlerFailures(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		want   dto.ErrorResponse
	}{
		{name: "bad signature", err: domainErrors.ErrInvalidSignature, status: http.StatusForbidden, want: dto.ErrorResponse{Error: "Invalid signature"}},
		{name: "stale", err: domainErrors.ErrStaleDelivery, status: http.StatusForbidden, want: dto.ErrorResponse{Error: "Stale delivery"}},
		{name: "missing type", err: domainErrors.ErrMissingEventType, status: http.StatusBadRequest, want: dto.ErrorResponse{Error: "Missing event type"}},
		{name: "missing invoice", err: domainErrors.ErrMissingInvoiceID, status: http.StatusBadRequest, want: dto.ErrorResponse{Error: "Missing invoice_id"}},
		{name: "processing", err: errors.New("db down"), status: http.StatusInternalServerError, want: dto.ErrorResponse{Error: "Processing failed", Message: "db down"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facade := testhelpers.WebhookFacadeStub{HandleFn: func(context.Context, webhook.Delivery) (string, error) {
				return "", tt.err
			}}
			resp := postWebhook(t, facade, `{}`, nil)
			if resp.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, resp.Code)
			}
			var body dto.ErrorResponse
			if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if body != tt.want {
				t.Fatalf("unexpected body %+v", body)
			}
		})
	}
}

func TestWebhookResultLabels(t *testing.T) {
	tests := []struct {
		outcome usecase.Outcome
		want    string
	}{
		{usecase.OutcomeTransitioned, "ok"},
		{usecase.OutcomeNoop, "ok"},
		{usecase.OutcomeIgnored, "ok"},
		{usecase.OutcomeDuplicate, "duplicate"},
		{usecase.OutcomeOrderNotFound, "order_not_found"},
	}
	for _, tt := range tests {
		if got := webhookResult(string(tt.outcome)); got != tt.want {
			t.Fatalf("outcome %q: expected label %q, got %q", tt.outcome, tt.want, got)
		}
	}
}
