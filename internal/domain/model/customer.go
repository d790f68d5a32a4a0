package model

import "time"

// Customer represents a registered storefront shopper.
type Customer struct {
	ID           int64
	Login        string
	PasswordHash string
	CreatedAt    time.Time
}
