package handlers

import (
	"bytes"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/golightpay/internal/domain/errors"
	"github.com/polkiloo/golightpay/internal/domain/model"
)

// WidgetScriptURL is the hosted payment widget bundle.
const WidgetScriptURL = "https://cdn.golightpay.com/sdk/golightpay-widget.es.js"

const (
	msgPageOrderNotFound   = "Order not found."
	msgPageDenied          = "You are not allowed to view this payment page."
	msgPageInvoiceNotFound = "Payment invoice not found. Please contact support."
	msgPageUnavailable     = "Unable to load the payment page."
)

var paymentPageTemplate = template.Must(template.New("payment-page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Payment - Order #{{.Order.Number}}</title>
</head>
<body class="golightpay-payment-body">
  <div class="golightpay-payment-page">
    <golightpay-widget invoice-id="{{.InvoiceID}}" base-url="{{.BaseURL}}"{{if .Sandbox}} use-testnet{{end}}></golightpay-widget>
  </div>
  <script type="module" src="{{.ScriptURL}}"></script>
  <script type="module">
    const widget = document.querySelector('golightpay-widget');
    if (widget) {
      widget.addEventListener('payment-success', (e) => console.log('Payment successful:', e.detail));
      widget.addEventListener('payment-error', (e) => console.error('Payment error:', e.detail));
    }
  </script>
</body>
</html>
`))

type paymentPageView struct {
	model.PaymentPage
	ScriptURL string
}

// PaymentPageHandler renders the hosted widget page for an unpaid order.
type PaymentPageHandler struct {
	facade CheckoutFacade
	logger *slog.Logger
}

// NewPaymentPageHandler constructs PaymentPageHandler.
func NewPaymentPageHandler(facade CheckoutFacade, logger *slog.Logger) *PaymentPageHandler {
	return &PaymentPageHandler{facade: facade, logger: logger}
}

// ByPath handles GET {checkout}/order-pay/:id/?pay=1&key=...
func (h *PaymentPageHandler) ByPath(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok || c.Query("pay") != "1" {
		c.String(http.StatusNotFound, msgPageOrderNotFound)
		return
	}
	h.render(c, orderID)
}

// ByQuery handles GET {checkout}?order-pay={id}&pay=1&key=...
func (h *PaymentPageHandler) ByQuery(c *gin.Context) {
	orderID, ok := parseOrderID(c.Query("order-pay"))
	if !ok || c.Query("pay") != "1" {
		c.String(http.StatusNotFound, msgPageOrderNotFound)
		return
	}
	h.render(c, orderID)
}

func (h *PaymentPageHandler) render(c *gin.Context, orderID int64) {
	page, err := h.facade.PaymentPage(c.Request.Context(), orderID, c.Query("key"), CurrentCustomerID(c))
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrNotFound):
			c.String(http.StatusNotFound, msgPageOrderNotFound)
		case errors.Is(err, domainErrors.ErrAccessDenied), errors.Is(err, domainErrors.ErrWrongPaymentMethod):
			c.String(http.StatusForbidden, msgPageDenied)
		case errors.Is(err, domainErrors.ErrInvoiceMissing):
			c.String(http.StatusNotFound, msgPageInvoiceNotFound)
		default:
			c.String(http.StatusInternalServerError, msgPageUnavailable)
		}
		return
	}

	var buf bytes.Buffer
	if err := paymentPageTemplate.Execute(&buf, paymentPageView{PaymentPage: *page, ScriptURL: WidgetScriptURL}); err != nil {
		h.logger.Error("render payment page failed", slog.Int64("order_id", orderID), slog.String("error", err.Error()))
		c.String(http.StatusInternalServerError, msgPageUnavailable)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
