package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/clientsync/backoffice/internal/integration"
)

type StatsHandler struct {
	service *integration.Service
}

func NewStatsHandler(service *integration.Service) *StatsHandler {
	return &StatsHandler{service: service}
}

func (h *StatsHandler) RegisterRoutes(router chi.Router) {
	router.Get("/stats", h.handleGetStats)
}

func (h *StatsHandler) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.SystemStatistics(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to compute system statistics")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to compute system statistics")
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}
