package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending    Status = "pendiente"
	StatusConfirmed  Status = "confirmado"
	StatusProcessing Status = "en_proceso"
	StatusShipped    Status = "enviado"
	StatusDelivered  Status = "entregado"
	StatusCancelled  Status = "cancelado"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Line mirrors a row of detalle_pedido. ProductName and ProductPrice are
// joined from productos on read; ProductPrice is the product's current price,
// while UnitPrice stays at whatever was snapshotted when the line was created.
type Line struct {
	ID           int64           `json:"id"`
	OrderID      int64           `json:"order_id"`
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductPrice decimal.Decimal `json:"product_price"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// LineInput describes a requested order line. UnitPrice is optional: when nil
// the product's current price is snapshotted at insert time.
type LineInput struct {
	ProductID int64
	Quantity  int
	UnitPrice *decimal.Decimal
}

// Order mirrors a row of pedidos plus its lines. Total is derived from the
// lines and is never accepted as input.
type Order struct {
	ID              int64           `json:"id"`
	CustomerID      int64           `json:"customer_id"`
	CreatedAt       time.Time       `json:"created_at"`
	Total           decimal.Decimal `json:"total"`
	Status          Status          `json:"status"`
	ShippingAddress string          `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`
	Lines           []Line          `json:"lines"`
}

// Subtotal computes a line subtotal at two decimal places.
func Subtotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

// TotalOf sums the subtotals of the given lines.
func TotalOf(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal)
	}
	return total.Round(2)
}
