package lightpay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/polkiloo/golightpay/internal/domain/model"
	"github.com/polkiloo/golightpay/internal/metrics"
)

const defaultErrorMessage = "API request failed"

// ErrMalformedResponse indicates a 2xx response missing required fields.
var ErrMalformedResponse = errors.New("malformed lightpay response")

// APIError represents a non-2xx answer from the processor.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("lightpay api error: status=%d message=%s", e.StatusCode, e.Message)
}

// Client exposes the processor REST API.
type Client interface {
	Networks(ctx context.Context) ([]Network, error)
	CreateInvoice(ctx context.Context, req model.InvoiceRequest) (*model.Invoice, error)
	GetInvoice(ctx context.Context, invoiceID string) (*model.Invoice, error)
	CreateTransaction(ctx context.Context, invoiceID string, req TransactionRequest) (*Transaction, error)
	GetTransaction(ctx context.Context, transactionID string) (*Transaction, error)
	GetWebhookConfig(ctx context.Context, keyID string) (*WebhookConfig, error)
	UpdateWebhookConfig(ctx context.Context, keyID string, cfg WebhookConfig) (*WebhookConfig, error)
	VerifyAPIKey(ctx context.Context) error
}

// HTTPClient implements Client via HTTP API.
type HTTPClient struct {
	baseURL    *url.URL
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPClient creates a processor client authenticated with apiKey.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse lightpay url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("lightpay url must be absolute")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		baseURL: parsed,
		apiKey:  apiKey,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Networks lists supported networks. It doubles as a credential check.
func (c *HTTPClient) Networks(ctx context.Context) ([]Network, error) {
	body, err := c.do(ctx, "networks", http.MethodGet, "/payment/networks", nil)
	if err != nil {
		return nil, err
	}

	var list []Network
	if err := json.Unmarshal(body, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Networks []Network `json:"networks"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return wrapped.Networks, nil
}

// CreateInvoice submits a new invoice and returns the processor's record.
func (c *HTTPClient) CreateInvoice(ctx context.Context, req model.InvoiceRequest) (*model.Invoice, error) {
	body, err := c.do(ctx, "create_invoice", http.MethodPost, "/v2/invoices", req)
	if err != nil {
		return nil, err
	}
	return decodeInvoice(body)
}

// GetInvoice fetches the current processor-side state of an invoice.
func (c *HTTPClient) GetInvoice(ctx context.Context, invoiceID string) (*model.Invoice, error) {
	body, err := c.do(ctx, "get_invoice", http.MethodGet, path.Join("/payment/invoices", url.PathEscape(invoiceID)), nil)
	if err != nil {
		return nil, err
	}
	return decodeInvoice(body)
}

// CreateTransaction opens a payment transaction against an invoice.
func (c *HTTPClient) CreateTransaction(ctx context.Context, invoiceID string, req TransactionRequest) (*Transaction, error) {
	endpoint := path.Join("/v2/invoices", url.PathEscape(invoiceID), "transactions")
	body, err := c.do(ctx, "create_transaction", http.MethodPost, endpoint, req)
	if err != nil {
		return nil, err
	}
	return decodeTransaction(body)
}

// GetTransaction fetches a transaction by ID.
func (c *HTTPClient) GetTransaction(ctx context.Context, transactionID string) (*Transaction, error) {
	body, err := c.do(ctx, "get_transaction", http.MethodGet, path.Join("/payment/transactions", url.PathEscape(transactionID)), nil)
	if err != nil {
		return nil, err
	}
	return decodeTransaction(body)
}

// GetWebhookConfig reads the delivery configuration of keyID.
func (c *HTTPClient) GetWebhookConfig(ctx context.Context, keyID string) (*WebhookConfig, error) {
	body, err := c.do(ctx, "get_webhook", http.MethodGet, webhookPath(keyID), nil)
	if err != nil {
		return nil, err
	}
	return decodeWebhookConfig(body)
}

// UpdateWebhookConfig replaces the delivery configuration of keyID.
func (c *HTTPClient) UpdateWebhookConfig(ctx context.Context, keyID string, cfg WebhookConfig) (*WebhookConfig, error) {
	body, err := c.do(ctx, "update_webhook", http.MethodPost, webhookPath(keyID), cfg)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return &cfg, nil
	}
	return decodeWebhookConfig(body)
}

// VerifyAPIKey checks that the configured key is accepted by the processor.
func (c *HTTPClient) VerifyAPIKey(ctx context.Context) error {
	_, err := c.do(ctx, "networks", http.MethodGet, "/payment/networks", nil)
	return err
}

func (c *HTTPClient) do(ctx context.Context, endpointName, method, endpointPath string, payload any) ([]byte, error) {
	endpoint := c.baseURL.JoinPath(endpointPath)

	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", endpointName, err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveAPIRequest(endpointName, 0, time.Since(start))
		return nil, fmt.Errorf("lightpay %s: %w", endpointName, err)
	}
	defer resp.Body.Close()
	metrics.ObserveAPIRequest(endpointName, resp.StatusCode, time.Since(start))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", endpointName, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := defaultErrorMessage
		var data errorBody
		if json.Unmarshal(body, &data) == nil && data.Error != "" {
			message = data.Error
		}
		c.logger.Error("lightpay request failed",
			slog.String("endpoint", endpointName),
			slog.Int("status", resp.StatusCode),
			slog.String("message", message),
		)
		return nil, &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	return body, nil
}

func webhookPath(keyID string) string {
	return path.Join("/auth/api-keys", url.PathEscape(keyID), "webhook")
}

func decodeInvoice(body []byte) (*model.Invoice, error) {
	var inv model.Invoice
	if err := json.Unmarshal(unwrap(body, "invoice"), &inv); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if inv.ID == "" {
		return nil, fmt.Errorf("%w: missing invoice_id", ErrMalformedResponse)
	}
	return &inv, nil
}

func decodeTransaction(body []byte) (*Transaction, error) {
	var txn Transaction
	if err := json.Unmarshal(unwrap(body, "transaction"), &txn); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if txn.ID == "" {
		return nil, fmt.Errorf("%w: missing transaction_id", ErrMalformedResponse)
	}
	return &txn, nil
}

func decodeWebhookConfig(body []byte) (*WebhookConfig, error) {
	var cfg WebhookConfig
	if err := json.Unmarshal(unwrap(body, "webhook"), &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &cfg, nil
}
