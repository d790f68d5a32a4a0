package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	domainErrors "github.com/polkiloo/golightpay/internal/domain/errors"
	"github.com/polkiloo/golightpay/internal/server/http/dto"
	testhelpers "github.com/polkiloo/golightpay/internal/test"
	"github.com/polkiloo/golightpay/internal/usecase"
)

func TestCheckoutHandlerSuccess(t *testing.T) {
	var gotKey string
	var gotCustomer int64
	facade := testhelpers.CheckoutFacadeStub{CheckoutFn: func(_ context.Context, orderID int64, key string, customerID int64) (string, error) {
		gotKey, gotCustomer = key, customerID
		return "https://shop.example.com/checkout/order-pay/1042/?pay=1&key=order_key", nil
	}}

	resp := serveRoute(t, http.MethodPost, "/api/orders/:id/checkout", "/api/orders/1042/checkout", NewCheckoutHandler(facade).Checkout, 7, `{"key":"order_key"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if gotKey != "order_key" || gotCustomer != 7 {
		t.Fatalf("unexpected facade input %q %d", gotKey, gotCustomer)
	}

	var body dto.CheckoutResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Result != "success" || body.Redirect == "" || len(body.Messages) != 0 {
		t.Fatalf("unexpected response %+v", body)
	}
}

func TestCheckoutHandlerKeyFromQuery(t *testing.T) {
	var gotKey string
	facade := testhelpers.CheckoutFacadeStub{CheckoutFn: func(_ context.Context, _ int64, key string, _ int64) (string, error) {
		gotKey = key
		return "https://shop.example.com/pay", nil
	}}
	resp := serveRoute(t, http.MethodPost, "/api/orders/:id/checkout", "/api/orders/1042/checkout?key=from_query", NewCheckoutHandler(facade).Checkout, 0, "")
	if resp.Code != http.StatusOK || gotKey != "from_query" {
		t.Fatalf("unexpected result %d key=%q", resp.Code, gotKey)
	}
}

func TestCheckoutHandlerFailures(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		err     error
		status  int
		message string
	}{
		{name: "bad id", target: "/api/orders/abc/checkout", status: http.StatusNotFound, message: msgOrderNotFound},
		{name: "unknown order", target: "/api/orders/1/checkout", err: domainErrors.ErrNotFound, status: http.StatusNotFound, message: msgOrderNotFound},
		{name: "wrong key", target: "/api/orders/1/checkout", err: domainErrors.ErrAccessDenied, status: http.StatusForbidden, message: msgOrderDenied},
		{name: "other gateway", target: "/api/orders/1/checkout", err: domainErrors.ErrWrongPaymentMethod, status: http.StatusForbidden, message: msgWrongGateway},
		{name: "not payable", target: "/api/orders/1/checkout", err: &usecase.InvoiceError{Message: "This order can no longer be paid.", Err: domainErrors.ErrNotPayable}, status: http.StatusConflict, message: "This order can no longer be paid."},
		{name: "processor rejected", target: "/api/orders/1/checkout", err: &usecase.InvoiceError{Message: "Currency not supported", Err: errors.New("422")}, status: http.StatusBadGateway, message: "Currency not supported"},
		{name: "internal", target: "/api/orders/1/checkout", err: errors.New("boom"), status: http.StatusInternalServerError, message: msgCheckoutError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facade := testhelpers.CheckoutFacadeStub{CheckoutFn: func(context.Context, int64, string, int64) (string, error) {
				return "", tt.err
			}}
			resp := serveRoute(t, http.MethodPost, "/api/orders/:id/checkout", tt.target, NewCheckoutHandler(facade).Checkout, 0, `{"key":"k"}`)
			if resp.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, resp.Code)
			}
			var body dto.CheckoutResponse
			if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if body.Result != "fail" || body.Redirect != "" || len(body.Messages) != 1 || body.Messages[0] != tt.message {
				t.Fatalf("unexpected response %+v", body)
			}
		})
	}
}
