package profile

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Preference keys recognized by the store. Anything else in an incoming
// preference map is dropped.
const (
	DefaultLanguage      = "ES"
	DefaultPaymentMethod = "Tarjeta de crédito"
)

type Comment struct {
	Text string    `json:"text" bson:"texto"`
	Date time.Time `json:"date" bson:"fecha"`
}

type Preferences struct {
	Language      string `json:"language" bson:"idioma"`
	PaymentMethod string `json:"payment_method" bson:"metodo_pago"`
	Notifications bool   `json:"notifications" bson:"notificaciones"`
}

// DefaultPreferences returns the preferences a fresh profile starts with.
func DefaultPreferences() Preferences {
	return Preferences{
		Language:      DefaultLanguage,
		PaymentMethod: DefaultPaymentMethod,
		Notifications: true,
	}
}

// NormalizePreferences validates a raw preference map: recognized keys are
// kept, unrecognized keys are dropped and missing keys take their defaults.
func NormalizePreferences(raw map[string]any) Preferences {
	prefs := DefaultPreferences()
	if v, ok := raw["idioma"].(string); ok {
		prefs.Language = v
	}
	if v, ok := raw["metodo_pago"].(string); ok {
		prefs.PaymentMethod = v
	}
	if v, ok := raw["notificaciones"].(bool); ok {
		prefs.Notifications = v
	}
	return prefs
}

// Profile is the clientes_info document for one customer. CustomerID refers to
// clientes.id_cliente by value only; the collection does not enforce it.
type Profile struct {
	ID          primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	CustomerID  int64              `json:"customer_id" bson:"id_cliente"`
	Comments    []Comment          `json:"comments" bson:"comentarios"`
	Preferences Preferences        `json:"preferences" bson:"preferencias"`
	CreatedAt   time.Time          `json:"created_at" bson:"fecha_creacion"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"ultima_actualizacion"`
}

// Stats aggregates the whole collection.
type Stats struct {
	Profiles           int64   `json:"profiles"`
	Comments           int64   `json:"comments"`
	CommentsPerProfile float64 `json:"comments_per_profile"`
}
