package profile

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalizePreferences(t *testing.T) {
	testCases := []struct {
		name string
		raw  map[string]any
		want Preferences
	}{
		{
			name: "nil map yields defaults",
			raw:  nil,
			want: Preferences{Language: "ES", PaymentMethod: "Tarjeta de crédito", Notifications: true},
		},
		{
			name: "empty map yields defaults",
			raw:  map[string]any{},
			want: Preferences{Language: "ES", PaymentMethod: "Tarjeta de crédito", Notifications: true},
		},
		{
			name: "partial map keeps defaults for missing keys",
			raw:  map[string]any{"idioma": "EN"},
			want: Preferences{Language: "EN", PaymentMethod: "Tarjeta de crédito", Notifications: true},
		},
		{
			name: "full map replaces everything",
			raw:  map[string]any{"idioma": "FR", "metodo_pago": "PayPal", "notificaciones": false},
			want: Preferences{Language: "FR", PaymentMethod: "PayPal", Notifications: false},
		},
		{
			name: "unrecognized keys are dropped",
			raw:  map[string]any{"metodo_pago": "Transferencia", "tema": "oscuro", "moneda": "EUR"},
			want: Preferences{Language: "ES", PaymentMethod: "Transferencia", Notifications: true},
		},
		{
			name: "wrongly typed values fall back to defaults",
			raw:  map[string]any{"idioma": 42, "notificaciones": "sí"},
			want: Preferences{Language: "ES", PaymentMethod: "Tarjeta de crédito", Notifications: true},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizePreferences(tc.raw)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("unexpected preferences (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDefaultPreferences(t *testing.T) {
	got := DefaultPreferences()
	if got.Language != DefaultLanguage || got.PaymentMethod != DefaultPaymentMethod || !got.Notifications {
		t.Errorf("unexpected defaults: %+v", got)
	}
}
