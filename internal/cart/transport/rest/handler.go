// Package rest provides HTTP handlers for cart endpoints.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	carterrors "github.com/nhupane/gopasal/internal/cart/errors"
	"github.com/nhupane/gopasal/internal/cart/service"
	"github.com/nhupane/gopasal/pkg/web"
)

// CartHandler handles HTTP requests related to the shopping cart.
type CartHandler struct {
	service   service.CartService
	logger    *slog.Logger
	validator *validator.Validate
}

// NewHandler creates a new instance of CartHandler.
func NewHandler(service service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service:   service,
		logger:    logger,
		validator: validator.New(),
	}
}

// RegisterRoutes mounts the cart routes.
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.get)
	r.Put("/items", h.upsert)
	r.Delete("/items/{productID}", h.remove)
	r.Delete("/", h.clear)
}

func (h *CartHandler) get(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerWithReqID(r.Context())

	userID, ok := web.GetUserID(w, r, logger)
	if !ok {
		return
	}

	cart, err := h.service.FindByUserID(r.Context(), userID)
	if err != nil {
		logger.Error("Failed to load cart", "error", err)
		web.RespondError(w, logger, http.StatusInternalServerError, "Internal server error")
		return
	}

	web.RespondJSON(w, logger, http.StatusOK, cart)
}

func (h *CartHandler) upsert(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerWithReqID(r.Context())

	userID, ok := web.GetUserID(w, r, logger)
	if !ok {
		return
	}

	var dto service.CartItemDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		web.RespondError(w, logger, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := h.validator.Struct(dto); err != nil {
		web.RespondError(w, logger, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	item, err := h.service.Upsert(r.Context(), userID, dto)
	if err != nil {
		if errors.Is(err, carterrors.ErrProductNotFound) {
			web.RespondError(w, logger, http.StatusNotFound, "Product not found")
			return
		}
		logger.Error("Failed to save cart item", "error", err)
		web.RespondError(w, logger, http.StatusInternalServerError, "Internal server error")
		return
	}

	web.RespondJSON(w, logger, http.StatusOK, item)
}

func (h *CartHandler) remove(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerWithReqID(r.Context())

	userID, ok := web.GetUserID(w, r, logger)
	if !ok {
		return
	}
	productID, ok := web.ParsePathUUID(w, r, logger, "productID")
	if !ok {
		return
	}

	if err := h.service.Remove(r.Context(), userID, productID); err != nil {
		if errors.Is(err, carterrors.ErrItemNotFound) {
			web.RespondError(w, logger, http.StatusNotFound, "Cart item not found")
			return
		}
		logger.Error("Failed to remove cart item", "error", err)
		web.RespondError(w, logger, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) clear(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerWithReqID(r.Context())

	userID, ok := web.GetUserID(w, r, logger)
	if !ok {
		return
	}

	if err := h.service.Clear(r.Context(), userID); err != nil {
		logger.Error("Failed to clear cart", "error", err)
		web.RespondError(w, logger, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) loggerWithReqID(ctx context.Context) *slog.Logger {
	if reqID, ok := web.RequestIDFrom(ctx); ok {
		return h.logger.With("request_id", reqID)
	}
	return h.logger
}
