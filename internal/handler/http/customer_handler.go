package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/clientsync/backoffice/internal/customer"
	"github.com/clientsync/backoffice/internal/integration"
)

type CreateCustomerRequest struct {
	Name        string         `json:"name" validate:"required,min=2"`
	Email       string         `json:"email" validate:"required,email"`
	Phone       string         `json:"phone" validate:"required,min=5"`
	Preferences map[string]any `json:"preferences,omitempty"`
}

type UpdateCustomerRequest struct {
	Name        *string        `json:"name,omitempty" validate:"omitempty,min=2"`
	Email       *string        `json:"email,omitempty" validate:"omitempty,email"`
	Phone       *string        `json:"phone,omitempty" validate:"omitempty,min=5"`
	Comment     *string        `json:"comment,omitempty" validate:"omitempty,min=1"`
	Preferences map[string]any `json:"preferences,omitempty"`
}

type UpdateCustomerResponse struct {
	ProfileSynced bool `json:"profile_synced"`
}

type CustomerListResponse struct {
	Customers []integration.CompleteCustomer `json:"customers"`
	Skipped   []integration.Skipped          `json:"skipped"`
}

type CustomerOrdersResponse struct {
	Orders  []integration.CompleteOrder `json:"orders"`
	Skipped []integration.Skipped       `json:"skipped"`
}

type CustomerHandler struct {
	service  *integration.Service
	validate *validator.Validate
}

func NewCustomerHandler(service *integration.Service) *CustomerHandler {
	return &CustomerHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *CustomerHandler) RegisterRoutes(router chi.Router) {
	router.Post("/customers", h.handleCreateCustomer)
	router.Get("/customers", h.handleListCustomers)
	router.Get("/customers/{id}", h.handleGetCustomer)
	router.Put("/customers/{id}", h.handleUpdateCustomer)
	router.Delete("/customers/{id}", h.handleDeleteCustomer)
	router.Get("/customers/{id}/orders", h.handleGetCustomerOrders)
}

func (h *CustomerHandler) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateCustomerRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		respondWithValidationErrors(w, err)
		return
	}

	view, err := h.service.CreateCompleteCustomer(r.Context(),
		requestPayload.Name, requestPayload.Email, requestPayload.Phone, requestPayload.Preferences)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create customer via service")

		clientMessage := "Failed to create customer"
		if errors.Is(err, customer.ErrEmailExists) {
			clientMessage = "Email already exists"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusCreated, view)
}

func (h *CustomerHandler) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	views, skipped, err := h.service.GetAllCompleteCustomers(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list customers via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to list customers")
		return
	}

	respondWithJSON(w, http.StatusOK, CustomerListResponse{Customers: views, Skipped: skipped})
}

func (h *CustomerHandler) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := parseIDParam(r, "id")
	if err != nil {
		log.Warn().Err(err).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	view, err := h.service.GetCompleteCustomer(r.Context(), customerID)
	if err != nil {
		log.Error().Err(err).Int64("customer_id", customerID).Msg("Failed to get customer via service")

		clientMessage := "Failed to get customer"
		if errors.Is(err, customer.ErrNotFound) {
			clientMessage = "Customer not found"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, view)
}

func (h *CustomerHandler) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := parseIDParam(r, "id")
	if err != nil {
		log.Warn().Err(err).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	var requestPayload UpdateCustomerRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		respondWithValidationErrors(w, err)
		return
	}

	var upd *customer.Update
	if requestPayload.Name != nil || requestPayload.Email != nil || requestPayload.Phone != nil {
		upd = &customer.Update{
			Name:  requestPayload.Name,
			Email: requestPayload.Email,
			Phone: requestPayload.Phone,
		}
	}

	synced, err := h.service.UpdateCompleteCustomer(r.Context(), customerID, upd,
		requestPayload.Comment, requestPayload.Preferences)
	if err != nil {
		log.Error().Err(err).Int64("customer_id", customerID).Msg("Failed to update customer via service")

		clientMessage := "Failed to update customer"
		switch {
		case errors.Is(err, customer.ErrNotFound):
			clientMessage = "Customer not found"
		case errors.Is(err, customer.ErrEmailExists):
			clientMessage = "Email already exists"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, UpdateCustomerResponse{ProfileSynced: synced})
}

func (h *CustomerHandler) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := parseIDParam(r, "id")
	if err != nil {
		log.Warn().Err(err).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	if err := h.service.DeleteCompleteCustomer(r.Context(), customerID); err != nil {
		log.Error().Err(err).Int64("customer_id", customerID).Msg("Failed to delete customer via service")

		clientMessage := "Failed to delete customer"
		if errors.Is(err, customer.ErrNotFound) {
			clientMessage = "Customer not found"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CustomerHandler) handleGetCustomerOrders(w http.ResponseWriter, r *http.Request) {
	customerID, err := parseIDParam(r, "id")
	if err != nil {
		log.Warn().Err(err).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	views, skipped, err := h.service.GetOrdersForCustomer(r.Context(), customerID)
	if err != nil {
		log.Error().Err(err).Int64("customer_id", customerID).Msg("Failed to list customer orders via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to list customer orders")
		return
	}

	respondWithJSON(w, http.StatusOK, CustomerOrdersResponse{Orders: views, Skipped: skipped})
}
