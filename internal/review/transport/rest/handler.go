// Package rest provides HTTP handlers for review endpoints.
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

	revErrors "github.com/nhupane/gopasal/internal/review/errors"
	"github.com/nhupane/gopasal/internal/review/service"
	"github.com/nhupane/gopasal/pkg/web"
)

// ReviewHandler handles HTTP requests related to reviews.
type ReviewHandler struct {
	service   service.ReviewService
	logger    *slog.Logger
	validator *validator.Validate
}

// NewHandler creates a new instance of ReviewHandler.
func NewHandler(service service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service:   service,
		logger:    logger,
		validator: validator.New(),
	}
}

// RegisterRoutes mounts the customer review routes.
func (h *ReviewHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

// RegisterPublicRoutes mounts the unauthenticated review routes under the
// product subtree.
func (h *ReviewHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/{id}/reviews", h.listByProduct)
}

// RegisterAdminRoutes mounts the moderation routes. The caller is expected to
// guard them with web.RequireAdmin.
func (h *ReviewHandler) RegisterAdminRoutes(r chi.Router) {
	r.Put("/{id}/visibility", h.setVisibility)
}

func (h *ReviewHandler) create(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerWithReqID(r.Context())

	userID, ok := web.GetUserID(w, r, logger)
	if !ok {
		return
	}

	var dto service.ReviewCreateDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		web.RespondError(w, logger, http.StatusBadRequest, "Invalid request payload")
		return
	}
	dto.UserID = userID

	if err := h.validator.Struct(dto); err != nil {
		web.RespondError(w, logger, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	review, err := h.service.Create(r.Context(), dto)
	if err != nil {
		h.respondReviewError(w, logger, err)
		return
	}

	web.RespondJSON(w, logger, http.StatusCreated, review)
}

func (h *ReviewHandler) listByProduct(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerWithReqID(r.Context())

	productID, ok := web.ParsePathUUID(w, r, logger, "id")
	if !ok {
		return
	}
	offset, ok := web.ParseOptionalGte(r, w, logger, "offset", 0, 0)
	if !ok {
		return
	}
	limit, ok := web.ParseOptionalGt(r, w, logger, "limit", 20, 0)
	if !ok {
		return
	}

	reviews, err := h.service.FindByProductID(r.Context(), productID, offset, limit)
	if err != nil {
		logger.Error("Failed to list reviews", "error", err)
		web.RespondError(w, logger, http.StatusInternalServerError, "Internal server error")
		return
	}

	web.RespondJSON(w, logger, http.StatusOK, reviews)
}

func (h *ReviewHandler) update(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerWithReqID(r.Context())

	userID, ok := web.GetUserID(w, r, logger)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.RespondError(w, logger, http.StatusBadRequest, "Invalid review ID")
		return
	}

	var dto service.ReviewUpdateDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		web.RespondError(w, logger, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := h.validator.Struct(dto); err != nil {
		web.RespondError(w, logger, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	review, err := h.service.Update(r.Context(), userID, id, dto)
	if err != nil {
		h.respondReviewError(w, logger, err)
		return
	}

	web.RespondJSON(w, logger, http.StatusOK, review)
}

func (h *ReviewHandler) delete(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerWithReqID(r.Context())

	userID, ok := web.GetUserID(w, r, logger)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.RespondError(w, logger, http.StatusBadRequest, "Invalid review ID")
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		h.respondReviewError(w, logger, err)
		return
	}

	web.RespondJSON(w, logger, http.StatusNoContent, nil)
}

func (h *ReviewHandler) setVisibility(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerWithReqID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.RespondError(w, logger, http.StatusBadRequest, "Invalid review ID")
		return
	}

	var dto service.VisibilityUpdateDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		web.RespondError(w, logger, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := h.validator.Struct(dto); err != nil {
		web.RespondError(w, logger, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	review, err := h.service.SetVisibility(r.Context(), id, *dto.Visible)
	if err != nil {
		h.respondReviewError(w, logger, err)
		return
	}

	web.RespondJSON(w, logger, http.StatusOK, review)
}

func (h *ReviewHandler) respondReviewError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, revErrors.ErrReviewNotFound):
		web.RespondError(w, logger, http.StatusNotFound, "Review not found")
	case errors.Is(err, revErrors.ErrNotEligible):
		web.RespondError(w, logger, http.StatusForbidden, err.Error())
	case errors.Is(err, revErrors.ErrAccessDenied):
		web.RespondError(w, logger, http.StatusForbidden, "Access denied")
	case errors.Is(err, revErrors.ErrDuplicateReview):
		web.RespondError(w, logger, http.StatusConflict, err.Error())
	default:
		logger.Error("Review request failed", "error", err)
		web.RespondError(w, logger, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *ReviewHandler) loggerWithReqID(ctx context.Context) *slog.Logger {
	if reqID, ok := web.RequestIDFrom(ctx); ok {
		return h.logger.With("request_id", reqID)
	}
	return h.logger
}
