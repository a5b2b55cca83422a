package customer

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer mirrors a row of the clientes table. OrderCount and TotalSpent are
// never stored; they are aggregated over pedidos on demand.
type Customer struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Update carries a partial field update; nil fields are left untouched.
type Update struct {
	Name  *string
	Email *string
	Phone *string
}

// OrderStats holds the aggregates derived from the customer's orders.
type OrderStats struct {
	OrderCount int64
	TotalSpent decimal.Decimal
}
