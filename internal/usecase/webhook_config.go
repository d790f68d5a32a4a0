package usecase

import (
	"context"
	"log/slog"

	"github.com/polkiloo/golightpay/internal/adapter/lightpay"
	"github.com/polkiloo/golightpay/internal/domain/model"
	"github.com/polkiloo/golightpay/internal/pkg/apikey"
)

// ConfigureResult reports what webhook auto-configuration did.
type ConfigureResult string

const (
	ConfigureUnchanged ConfigureResult = "unchanged"
	ConfigureUpdated   ConfigureResult = "updated"
	ConfigureSkipped   ConfigureResult = "skipped"
	ConfigureFailed    ConfigureResult = "failed"
)

// WebhookEvents are the event types this service subscribes to.
var WebhookEvents = []string{string(model.EventInvoicePaid), string(model.EventInvoiceExpired)}

// WebhookAPI is the part of the processor API used to manage deliveries.
type WebhookAPI interface {
	VerifyAPIKey(ctx context.Context) error
	GetWebhookConfig(ctx context.Context, keyID string) (*lightpay.WebhookConfig, error)
	UpdateWebhookConfig(ctx context.Context, keyID string, cfg lightpay.WebhookConfig) (*lightpay.WebhookConfig, error)
}

// WebhookConfigurator points the processor's webhook for the active API key at
// this service.
type WebhookConfigurator struct {
	api        WebhookAPI
	apiKey     string
	webhookURL string
	logger     *slog.Logger
}

// NewWebhookConfigurator constructs WebhookConfigurator.
func NewWebhookConfigurator(api WebhookAPI, apiKey, webhookURL string, logger *slog.Logger) *WebhookConfigurator {
	return &WebhookConfigurator{api: api, apiKey: apiKey, webhookURL: webhookURL, logger: logger}
}

// Configure never returns an error; a failure only leaves manual setup
// instructions in the log.
func (c *WebhookConfigurator) Configure(ctx context.Context) ConfigureResult {
	if c.apiKey == "" {
		c.logger.Info("webhook auto-configuration skipped: api key is empty")
		return ConfigureSkipped
	}
	keyID, ok := apikey.KeyID(c.apiKey)
	if !ok {
		c.logger.Warn("webhook auto-configuration skipped: api key has no key id")
		return ConfigureSkipped
	}

	if err := c.api.VerifyAPIKey(ctx); err != nil {
		c.logger.Error("api key verification failed", slog.Any("error", err))
		c.manualSetup()
		return ConfigureFailed
	}

	current, err := c.api.GetWebhookConfig(ctx, keyID)
	if err == nil && current.URL == c.webhookURL && current.Enabled {
		c.logger.Info("webhook already configured", slog.String("url", c.webhookURL))
		return ConfigureUnchanged
	}
	if err != nil {
		c.logger.Info("webhook config not readable, overwriting", slog.Any("error", err))
	}

	_, err = c.api.UpdateWebhookConfig(ctx, keyID, lightpay.WebhookConfig{
		URL:     c.webhookURL,
		Enabled: true,
		Events:  append([]string(nil), WebhookEvents...),
	})
	if err != nil {
		c.logger.Error("webhook auto-configuration failed", slog.Any("error", err))
		c.manualSetup()
		return ConfigureFailed
	}
	c.logger.Info("webhook configured", slog.String("url", c.webhookURL))
	return ConfigureUpdated
}

func (c *WebhookConfigurator) manualSetup() {
	c.logger.Warn("configure the webhook URL in the LightPay dashboard", slog.String("url", c.webhookURL))
}
