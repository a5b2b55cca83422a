package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/clientsync/backoffice/internal/product"
)

type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required,min=2"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Stock       int             `json:"stock" validate:"min=0"`
	Active      *bool           `json:"active,omitempty"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,min=2"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Description *string          `json:"description,omitempty"`
	Stock       *int             `json:"stock,omitempty" validate:"omitempty,min=0"`
	Active      *bool            `json:"active,omitempty"`
}

type ProductListResponse struct {
	Products []product.Product `json:"products"`
}

type ProductHandler struct {
	repo     product.Repository
	validate *validator.Validate
}

func NewProductHandler(repo product.Repository) *ProductHandler {
	return &ProductHandler{
		repo:     repo,
		validate: validator.New(),
	}
}

func (h *ProductHandler) RegisterRoutes(router chi.Router) {
	router.Post("/products", h.handleCreateProduct)
	router.Get("/products", h.handleListProducts)
	router.Get("/products/{id}", h.handleGetProduct)
	router.Put("/products/{id}", h.handleUpdateProduct)
	router.Delete("/products/{id}", h.handleDeleteProduct)
}

func (h *ProductHandler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateProductRequest

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
	if !requestPayload.Price.IsPositive() {
		respondWithError(w, http.StatusBadRequest, "Price must be positive")
		return
	}

	p := &product.Product{
		Name:        requestPayload.Name,
		Price:       requestPayload.Price.Round(2),
		Description: requestPayload.Description,
		Stock:       requestPayload.Stock,
		Active:      true,
	}
	if requestPayload.Active != nil {
		p.Active = *requestPayload.Active
	}

	if _, err := h.repo.Create(r.Context(), p); err != nil {
		log.Error().Err(err).Msg("Failed to create product")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to create product")
		return
	}

	respondWithJSON(w, http.StatusCreated, p)
}

func (h *ProductHandler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.repo.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list products")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to list products")
		return
	}

	respondWithJSON(w, http.StatusOK, ProductListResponse{Products: products})
}

func (h *ProductHandler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := parseIDParam(r, "id")
	if err != nil {
		log.Warn().Err(err).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	p, err := h.repo.GetByID(r.Context(), productID)
	if err != nil {
		log.Error().Err(err).Int64("product_id", productID).Msg("Failed to get product")

		clientMessage := "Failed to get product"
		if errors.Is(err, product.ErrNotFound) {
			clientMessage = "Product not found"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := parseIDParam(r, "id")
	if err != nil {
		log.Warn().Err(err).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	var requestPayload UpdateProductRequest

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
	if requestPayload.Price != nil && !requestPayload.Price.IsPositive() {
		respondWithError(w, http.StatusBadRequest, "Price must be positive")
		return
	}

	err = h.repo.Update(r.Context(), productID, product.Update{
		Name:        requestPayload.Name,
		Price:       requestPayload.Price,
		Description: requestPayload.Description,
		Stock:       requestPayload.Stock,
		Active:      requestPayload.Active,
	})
	if err != nil {
		log.Error().Err(err).Int64("product_id", productID).Msg("Failed to update product")

		clientMessage := "Failed to update product"
		if errors.Is(err, product.ErrNotFound) {
			clientMessage = "Product not found"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductHandler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := parseIDParam(r, "id")
	if err != nil {
		log.Warn().Err(err).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	if err := h.repo.Delete(r.Context(), productID); err != nil {
		log.Error().Err(err).Int64("product_id", productID).Msg("Failed to delete product")

		clientMessage := "Failed to delete product"
		if errors.Is(err, product.ErrNotFound) {
			clientMessage = "Product not found"
		}

		respondWithError(w, mapErrorToStatusCode(err), clientMessage)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
