// Package rest provides HTTP handlers for wishlist endpoints.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	wlerrors "github.com/nhupane/gopasal/internal/wishlist/errors"
	"github.com/nhupane/gopasal/internal/wishlist/service"
	"github.com/nhupane/gopasal/pkg/web"
)

// WishlistHandler handles HTTP requests related to wishlists.
type WishlistHandler struct {
	service   service.WishlistService
	logger    *slog.Logger
	validator *validator.Validate
}

// NewHandler creates a new instance of WishlistHandler.
func NewHandler(service service.WishlistService, logger *slog.Logger) *WishlistHandler {
	return &WishlistHandler{
		service:   service,
		logger:    logger,
		validator: validator.New(),
	}
}

// RegisterRoutes mounts the wishlist routes.
func (h *WishlistHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.add)
	r.Delete("/{productID}", h.remove)
}

type addItemDto struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
}

func (h *WishlistHandler) add(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerWithReqID(r.Context())

	userID, ok := web.GetUserID(w, r, logger)
	if !ok {
		return
	}

	var dto addItemDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		web.RespondError(w, logger, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := h.validator.Struct(dto); err != nil {
		web.RespondError(w, logger, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	item, err := h.service.Add(r.Context(), userID, dto.ProductID)
	if err != nil {
		if errors.Is(err, wlerrors.ErrProductNotFound) {
			web.RespondError(w, logger, http.StatusNotFound, "Product not found")
			return
		}
		logger.Error("Failed to add wishlist item", "error", err)
		web.RespondError(w, logger, http.StatusInternalServerError, "Internal server error")
		return
	}

	web.RespondJSON(w, logger, http.StatusCreated, item)
}

func (h *WishlistHandler) list(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerWithReqID(r.Context())

	userID, ok := web.GetUserID(w, r, logger)
	if !ok {
		return
	}

	items, err := h.service.FindByUserID(r.Context(), userID)
	if err != nil {
		logger.Error("Failed to list wishlist", "error", err)
		web.RespondError(w, logger, http.StatusInternalServerError, "Internal server error")
		return
	}

	web.RespondJSON(w, logger, http.StatusOK, items)
}

func (h *WishlistHandler) remove(w http.ResponseWriter, r *http.Request) {
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
		if errors.Is(err, wlerrors.ErrItemNotFound) {
			web.RespondError(w, logger, http.StatusNotFound, "Wishlist item not found")
			return
		}
		logger.Error("Failed to remove wishlist item", "error", err)
		web.RespondError(w, logger, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *WishlistHandler) loggerWithReqID(ctx context.Context) *slog.Logger {
	if reqID, ok := web.RequestIDFrom(ctx); ok {
		return h.logger.With("request_id", reqID)
	}
	return h.logger
}
