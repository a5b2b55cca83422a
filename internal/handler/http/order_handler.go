package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/clientsync/backoffice/internal/integration"
	"github.com/clientsync/backoffice/internal/order"
)

type OrderLineRequest struct {
	ProductID int64            `json:"product_id" validate:"required"`
	Quantity  int              `json:"quantity" validate:"required,min=1"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

type CreateOrderRequest struct {
	CustomerID      int64              `json:"customer_id" validate:"required"`
	Lines           []OrderLineRequest `json:"lines" validate:"required,min=1,dive"`
	ShippingAddress string             `json:"shipping_address" validate:"required"`
	PaymentMethod   string             `json:"payment_method" validate:"required"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type UpdateLineQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

type OrderHandler struct {
	service  *integration.Service
	orders   order.Repository
	validate *validator.Validate
}

func NewOrderHandler(service *integration.Service, orders order.Repository) *OrderHandler {
	return &OrderHandler{
		service:  service,
		orders:   orders,
		validate: validator.New(),
	}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Post("/orders", h.handleCreateOrder)
	router.Get("/orders/{id}", h.handleGetOrder)
	router.Patch("/orders/{id}/status", h.handleUpdateOrderStatus)
	router.Post("/orders/{id}/lines", h.handleAddLine)
	router.Patch("/lines/{id}", h.handleUpdateLineQuantity)
	router.Delete("/lines/{id}", h.handleDeleteLine)
}

func (h *OrderHandler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateOrderRequest

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

	lines := make([]order.LineInput, 0, len(requestPayload.Lines))
	for _, l := range requestPayload.Lines {
		lines = append(lines, order.LineInput{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}

	view, err := h.service.CreateCompleteOrder(r.Context(),
		requestPayload.CustomerID, lines, requestPayload.ShippingAddress, requestPayload.PaymentMethod)
	if err != nil {
		log.Error().Err(err).Int64("customer_id", requestPayload.CustomerID).Msg("Failed to create order via service")

		clientMessage := "Failed to create order"
		switch {
		case errors.Is(err, order.ErrCustomerNotFound):
			clientMessage = "Customer not found"
		case errors.Is(err, order.ErrProductNotFound):
			clientMessage = "Product not found"
		case errors.Is(err, order.ErrDuplicateLine):
			clientMessage = "Duplicate product in order"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusCreated, view)
}

func (h *OrderHandler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := parseIDParam(r, "id")
	if err != nil {
		log.Warn().Err(err).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	view, err := h.service.GetCompleteOrder(r.Context(), orderID)
	if err != nil {
		log.Error().Err(err).Int64("order_id", orderID).Msg("Failed to get order via service")

		clientMessage := "Failed to get order"
		if errors.Is(err, order.ErrOrderNotFound) {
			clientMessage = "Order not found"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, view)
}

func (h *OrderHandler) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := parseIDParam(r, "id")
	if err != nil {
		log.Warn().Err(err).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	var requestPayload UpdateOrderStatusRequest

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

	err = h.orders.UpdateStatus(r.Context(), orderID, order.Status(requestPayload.Status))
	if err != nil {
		log.Error().Err(err).Int64("order_id", orderID).Msg("Failed to update order status")

		clientMessage := "Failed to update order status"
		switch {
		case errors.Is(err, order.ErrOrderNotFound):
			clientMessage = "Order not found"
		case errors.Is(err, order.ErrInvalidStatus):
			clientMessage = "Invalid order status"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) handleAddLine(w http.ResponseWriter, r *http.Request) {
	orderID, err := parseIDParam(r, "id")
	if err != nil {
		log.Warn().Err(err).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	var requestPayload OrderLineRequest

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

	line, err := h.orders.AddLine(r.Context(), orderID, order.LineInput{
		ProductID: requestPayload.ProductID,
		Quantity:  requestPayload.Quantity,
		UnitPrice: requestPayload.UnitPrice,
	})
	if err != nil {
		log.Error().Err(err).Int64("order_id", orderID).Msg("Failed to add order line")

		clientMessage := "Failed to add order line"
		switch {
		case errors.Is(err, order.ErrOrderNotFound):
			clientMessage = "Order not found"
		case errors.Is(err, order.ErrProductNotFound):
			clientMessage = "Product not found"
		case errors.Is(err, order.ErrDuplicateLine):
			clientMessage = "Order already has a line for this product"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusCreated, line)
}

func (h *OrderHandler) handleUpdateLineQuantity(w http.ResponseWriter, r *http.Request) {
	lineID, err := parseIDParam(r, "id")
	if err != nil {
		log.Warn().Err(err).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	var requestPayload UpdateLineQuantityRequest

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

	err = h.orders.UpdateLineQuantity(r.Context(), lineID, requestPayload.Quantity)
	if err != nil {
		log.Error().Err(err).Int64("line_id", lineID).Msg("Failed to update order line")

		clientMessage := "Failed to update order line"
		if errors.Is(err, order.ErrLineNotFound) {
			clientMessage = "Order line not found"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) handleDeleteLine(w http.ResponseWriter, r *http.Request) {
	lineID, err := parseIDParam(r, "id")
	if err != nil {
		log.Warn().Err(err).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	err = h.orders.DeleteLine(r.Context(), lineID)
	if err != nil {
		log.Error().Err(err).Int64("line_id", lineID).Msg("Failed to delete order line")

		clientMessage := "Failed to delete order line"
		if errors.Is(err, order.ErrLineNotFound) {
			clientMessage = "Order line not found"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
