package transport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	handler "github.com/clientsync/backoffice/internal/handler/http"
	"github.com/clientsync/backoffice/internal/integration"
	"github.com/clientsync/backoffice/internal/order"
	"github.com/clientsync/backoffice/internal/product"
)

func NewRouter(service *integration.Service, products product.Repository, orders order.Repository) *chi.Mux {
	r := chi.NewRouter()
	r.Use(requestLogger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	handler.NewCustomerHandler(service).RegisterRoutes(r)
	handler.NewOrderHandler(service, orders).RegisterRoutes(r)
	handler.NewProductHandler(products).RegisterRoutes(r)
	handler.NewStatsHandler(service).RegisterRoutes(r)

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// requestLogger tags every request with a generated ID and logs it on
// completion.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := ""
		if id, err := uuid.NewV4(); err == nil {
			requestID = id.String()
			w.Header().Set("X-Request-Id", requestID)
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		log.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request completed")
	})
}
