package product

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product mirrors a row of the productos table.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Stock       int             `json:"stock"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Update carries a partial field update; nil fields are left untouched.
type Update struct {
	Name        *string
	Price       *decimal.Decimal
	Description *string
	Stock       *int
	Active      *bool
}
