package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/golightpay/internal/domain/errors"
	"github.com/polkiloo/golightpay/internal/metrics"
	"github.com/polkiloo/golightpay/internal/server/http/dto"
	"github.com/polkiloo/golightpay/internal/usecase"
	"github.com/polkiloo/golightpay/internal/webhook"
)

// maxWebhookBody bounds the delivery body read before authentication.
const maxWebhookBody = 1 << 20

// WebhookHandler receives LightPay event deliveries.
type WebhookHandler struct {
	facade WebhookFacade
	logger *slog.Logger
}

// NewWebhookHandler constructs WebhookHandler.
func NewWebhookHandler(facade WebhookFacade, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{facade: facade, logger: logger}
}

// Receive handles POST /api/lightpay/webhook. The body is read raw because
// the signature covers the exact bytes sent.
func (h *WebhookHandler) Receive(c *gin.Context) {
	start := time.Now()

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		metrics.ObserveWebhook("bad_request", time.Since(start))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Unreadable body"})
		return
	}

	outcome, err := h.facade.HandleWebhook(c.Request.Context(), webhook.DeliveryFromRequest(c.Request.Header, body))
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrInvalidSignature):
			metrics.ObserveWebhook("bad_signature", time.Since(start))
			c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "Invalid signature"})
		case errors.Is(err, domainErrors.ErrStaleDelivery):
			metrics.ObserveWebhook("stale", time.Since(start))
			c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "Stale delivery"})
		case errors.Is(err, domainErrors.ErrMissingEventType):
			metrics.ObserveWebhook("bad_request", time.Since(start))
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Missing event type"})
		case errors.Is(err, domainErrors.ErrMissingInvoiceID):
			metrics.ObserveWebhook("bad_request", time.Since(start))
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Missing invoice_id"})
		default:
			h.logger.Error("webhook processing failed", slog.String("error", err.Error()))
			metrics.ObserveWebhook("error", time.Since(start))
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Processing failed", Message: err.Error()})
		}
		return
	}

	metrics.ObserveWebhook(webhookResult(outcome), time.Since(start))
	c.JSON(http.StatusOK, dto.WebhookAck{Received: true})
}

// webhookResult maps a reconciler outcome to the delivery metric label.
func webhookResult(outcome string) string {
	switch usecase.Outcome(outcome) {
	case usecase.OutcomeTransitioned, usecase.OutcomeNoop, usecase.OutcomeIgnored:
		return "ok"
	}
	return outcome
}
