// Package rest provides HTTP handlers for catalog endpoints.
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

	catalogerrors "github.com/nhupane/gopasal/internal/catalog/errors"
	"github.com/nhupane/gopasal/internal/catalog/service"
	"github.com/nhupane/gopasal/internal/catalog/store"
	"github.com/nhupane/gopasal/pkg/web"
)

// ProductHandler handles HTTP requests related to products.
type ProductHandler struct {
	service   service.ProductService
	logger    *slog.Logger
	validator *validator.Validate
}

// NewHandler creates a new instance of ProductHandler.
func NewHandler(service service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service:   service,
		logger:    logger,
		validator: validator.New(),
	}
}

// RegisterRoutes mounts the public catalog routes.
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.getByID)
}

// RegisterAdminRoutes mounts the catalog write routes. The caller is expected
// to guard them with web.RequireAdmin.
func (h *ProductHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

func (h *ProductHandler) list(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerWithReqID(r.Context())

	offset, ok := web.ParseOptionalGte(r, w, logger, "offset", 0, 0)
	if !ok {
		return
	}
	limit, ok := web.ParseOptionalGt(r, w, logger, "limit", 20, 0)
	if !ok {
		return
	}

	products, err := h.service.FindAll(r.Context(), store.ListParams{
		Category: r.URL.Query().Get("category"),
		Search:   r.URL.Query().Get("search"),
		Offset:   offset,
		Limit:    limit,
	})
	if err != nil {
		logger.Error("Failed to list products", "error", err)
		web.RespondError(w, logger, http.StatusInternalServerError, "Internal server error")
		return
	}

	web.RespondJSON(w, logger, http.StatusOK, products)
}

func (h *ProductHandler) getByID(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerWithReqID(r.Context())

	id, ok := h.pathID(w, r, logger)
	if !ok {
		return
	}

	product, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		h.respondProductError(w, logger, err)
		return
	}

	web.RespondJSON(w, logger, http.StatusOK, product)
}

func (h *ProductHandler) create(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerWithReqID(r.Context())

	var dto service.ProductCreateDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		web.RespondError(w, logger, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := h.validator.Struct(dto); err != nil {
		web.RespondError(w, logger, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	product, err := h.service.Create(r.Context(), dto)
	if err != nil {
		h.respondProductError(w, logger, err)
		return
	}

	web.RespondJSON(w, logger, http.StatusCreated, product)
}

func (h *ProductHandler) update(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerWithReqID(r.Context())

	id, ok := h.pathID(w, r, logger)
	if !ok {
		return
	}

	var dto service.ProductUpdateDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		web.RespondError(w, logger, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := h.validator.Struct(dto); err != nil {
		web.RespondError(w, logger, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	product, err := h.service.Update(r.Context(), id, dto)
	if err != nil {
		h.respondProductError(w, logger, err)
		return
	}

	web.RespondJSON(w, logger, http.StatusOK, product)
}

func (h *ProductHandler) delete(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerWithReqID(r.Context())

	id, ok := h.pathID(w, r, logger)
	if !ok {
		return
	}

	if err := h.service.DeleteByID(r.Context(), id); err != nil {
		h.respondProductError(w, logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductHandler) respondProductError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, catalogerrors.ErrProductNotFound):
		web.RespondError(w, logger, http.StatusNotFound, "Product not found")
	case errors.Is(err, catalogerrors.ErrVersionConflict):
		web.RespondError(w, logger, http.StatusConflict, err.Error())
	default:
		logger.Error("Product request failed", "error", err)
		web.RespondError(w, logger, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *ProductHandler) pathID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.RespondError(w, logger, http.StatusBadRequest, "Invalid product ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *ProductHandler) loggerWithReqID(ctx context.Context) *slog.Logger {
	if reqID, ok := web.RequestIDFrom(ctx); ok {
		return h.logger.With("request_id", reqID)
	}
	return h.logger
}
