package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/golightpay/internal/domain/errors"
	"github.com/polkiloo/golightpay/internal/server/http/dto"
	"github.com/polkiloo/golightpay/internal/usecase"
)

const (
	checkoutSuccess = "success"
	checkoutFail    = "fail"

	msgOrderNotFound = "Order not found."
	msgOrderDenied   = "You are not allowed to pay for this order."
	msgWrongGateway  = "This order is not paid with LightPay."
	msgCheckoutError = "Unable to start the payment. Please try again."
)

// CheckoutHandler starts a LightPay payment for an order.
type CheckoutHandler struct {
	facade CheckoutFacade
}

// NewCheckoutHandler constructs CheckoutHandler.
func NewCheckoutHandler(facade CheckoutFacade) *CheckoutHandler {
	return &CheckoutHandler{facade: facade}
}

// Checkout handles POST /api/orders/:id/checkout.
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		checkoutFailure(c, http.StatusNotFound, msgOrderNotFound)
		return
	}

	var req dto.CheckoutRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
	}
	if req.Key == "" {
		req.Key = c.Query("key")
	}

	redirect, err := h.facade.Checkout(c.Request.Context(), orderID, req.Key, CurrentCustomerID(c))
	if err != nil {
		var invErr *usecase.InvoiceError
		switch {
		case errors.Is(err, domainErrors.ErrNotFound):
			checkoutFailure(c, http.StatusNotFound, msgOrderNotFound)
		case errors.Is(err, domainErrors.ErrAccessDenied):
			checkoutFailure(c, http.StatusForbidden, msgOrderDenied)
		case errors.Is(err, domainErrors.ErrWrongPaymentMethod):
			checkoutFailure(c, http.StatusForbidden, msgWrongGateway)
		case errors.Is(err, domainErrors.ErrNotPayable) && errors.As(err, &invErr):
			checkoutFailure(c, http.StatusConflict, invErr.Message)
		case errors.As(err, &invErr):
			checkoutFailure(c, http.StatusBadGateway, invErr.Message)
		default:
			checkoutFailure(c, http.StatusInternalServerError, msgCheckoutError)
		}
		return
	}

	c.JSON(http.StatusOK, dto.CheckoutResponse{Result: checkoutSuccess, Redirect: redirect})
}

func checkoutFailure(c *gin.Context, status int, message string) {
	c.JSON(status, dto.CheckoutResponse{Result: checkoutFail, Messages: []string{message}})
}
