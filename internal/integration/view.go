package integration

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/clientsync/backoffice/internal/order"
	"github.com/clientsync/backoffice/internal/profile"
)

// CompleteCustomer is the merged view of a customer across both stores.
// Comments, Preferences and LastProfileUpdate come from the document store and
// stay empty/nil when the customer has no profile; ProfileSynced says whether
// a profile was actually found, so callers can tell a fully synced record from
// a relational-only one.
type CompleteCustomer struct {
	ID                int64                `json:"id"`
	Name              string               `json:"name"`
	Email             string               `json:"email"`
	Phone             string               `json:"phone"`
	RegisteredAt      time.Time            `json:"registered_at"`
	OrderCount        int64                `json:"order_count"`
	TotalSpent        decimal.Decimal      `json:"total_spent"`
	Comments          []profile.Comment    `json:"comments"`
	Preferences       *profile.Preferences `json:"preferences"`
	LastProfileUpdate *time.Time           `json:"last_profile_update"`
	ProfileSynced     bool                 `json:"profile_synced"`
}

// CustomerSummary is the customer slice embedded in an order view.
type CustomerSummary struct {
	ID          int64                `json:"id"`
	Name        string               `json:"name"`
	Email       string               `json:"email"`
	Preferences *profile.Preferences `json:"preferences"`
}

type ProductSummary struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type LineView struct {
	ID        int64           `json:"id"`
	Product   ProductSummary  `json:"product"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// CompleteOrder is the merged view of an order: relational order and lines
// plus the owning customer's document-store preferences.
type CompleteOrder struct {
	ID              int64           `json:"id"`
	CreatedAt       time.Time       `json:"created_at"`
	Total           decimal.Decimal `json:"total"`
	Status          order.Status    `json:"status"`
	ShippingAddress string          `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`
	Customer        CustomerSummary `json:"customer"`
	Lines           []LineView      `json:"lines"`
}

// Skipped names an entity left out of an aggregate read and why. Batch reads
// never fail as a whole; they report what they dropped instead.
type Skipped struct {
	ID     int64  `json:"id"`
	Reason string `json:"reason"`
}

type RelationalStats struct {
	Customers     int64           `json:"customers"`
	Orders        int64           `json:"orders"`
	Products      int64           `json:"products"`
	TotalSales    decimal.Decimal `json:"total_sales"`
	AvgOrderValue decimal.Decimal `json:"avg_order_value"`
}

// Statistics joins independently computed numbers from both stores.
// CoveragePercent is the share of customers that have a document profile.
type Statistics struct {
	Relational      RelationalStats `json:"relational"`
	Documents       profile.Stats   `json:"documents"`
	CoveragePercent float64         `json:"coverage_percent"`
}
