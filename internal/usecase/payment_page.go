package usecase

import (
	"context"
	"errors"
	"strings"

	domainErrors "github.com/polkiloo/golightpay/internal/domain/errors"
	"github.com/polkiloo/golightpay/internal/domain/model"
	"github.com/polkiloo/golightpay/internal/domain/repository"
)

// PaymentPageUseCase resolves what the hosted payment page needs to render.
type PaymentPageUseCase struct {
	orders  repository.OrderRepository
	baseURL string
	sandbox bool
}

// NewPaymentPageUseCase constructs PaymentPageUseCase. baseURL is the processor
// URL handed to the widget.
func NewPaymentPageUseCase(orders repository.OrderRepository, baseURL string, sandbox bool) *PaymentPageUseCase {
	return &PaymentPageUseCase{orders: orders, baseURL: strings.TrimRight(baseURL, "/"), sandbox: sandbox}
}

// Resolve loads the order behind a pay request. Every failed check returns an
// error; callers must not render anything in that case.
func (u *PaymentPageUseCase) Resolve(ctx context.Context, access OrderAccess) (*model.PaymentPage, error) {
	order, err := loadAuthorizedOrder(ctx, u.orders, access)
	if err != nil {
		return nil, err
	}

	invoiceID, err := u.orders.GetMeta(ctx, order.ID, model.MetaInvoiceID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, domainErrors.ErrInvoiceMissing
		}
		return nil, err
	}
	if strings.TrimSpace(invoiceID) == "" {
		return nil, domainErrors.ErrInvoiceMissing
	}

	return &model.PaymentPage{
		Order:     *order,
		InvoiceID: invoiceID,
		BaseURL:   u.baseURL,
		Sandbox:   u.sandbox,
	}, nil
}
