package repository

import (
	"context"

	"github.com/polkiloo/golightpay/internal/domain/model"
)

// CustomerRepository describes persistence operations for storefront customers.
type CustomerRepository interface {
	Create(ctx context.Context, login, passwordHash string) (*model.Customer, error)
	GetByLogin(ctx context.Context, login string) (*model.Customer, error)
}
