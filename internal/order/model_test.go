package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestSubtotal(t *testing.T) {
	testCases := []struct {
		name      string
		unitPrice string
		quantity  int
		want      string
	}{
		{name: "whole units", unitPrice: "10.00", quantity: 2, want: "20.00"},
		{name: "single unit", unitPrice: "5.00", quantity: 1, want: "5.00"},
		{name: "rounds to cents", unitPrice: "3.333", quantity: 3, want: "10.00"},
		{name: "zero quantity", unitPrice: "99.99", quantity: 0, want: "0.00"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Subtotal(decimal.RequireFromString(tc.unitPrice), tc.quantity)
			require.True(t, got.Equal(decimal.RequireFromString(tc.want)),
				"Subtotal(%s, %d) = %s, want %s", tc.unitPrice, tc.quantity, got, tc.want)
		})
	}
}

func TestTotalOf(t *testing.T) {
	lines := []Line{
		{Quantity: 2, UnitPrice: decimal.RequireFromString("10.00"), Subtotal: decimal.RequireFromString("20.00")},
		{Quantity: 3, UnitPrice: decimal.RequireFromString("5.00"), Subtotal: decimal.RequireFromString("15.00")},
	}

	total := TotalOf(lines)
	require.True(t, total.Equal(decimal.RequireFromString("35.00")), "total = %s", total)
}

func TestTotalOf_Empty(t *testing.T) {
	require.True(t, TotalOf(nil).IsZero())
	require.True(t, TotalOf([]Line{}).IsZero())
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled} {
		require.True(t, s.Valid(), "status %q", s)
	}

	require.False(t, Status("devuelto").Valid())
	require.False(t, Status("").Valid())
	require.False(t, Status("Pendiente").Valid(), "status values are lowercase")
}
