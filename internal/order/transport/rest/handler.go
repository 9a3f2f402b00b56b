// Package rest provides HTTP handlers for order endpoints.
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

	ordererrors "github.com/nhupane/gopasal/internal/order/errors"
	"github.com/nhupane/gopasal/internal/order/service"
	"github.com/nhupane/gopasal/internal/payment"
	"github.com/nhupane/gopasal/pkg/web"
)

// OrderHandler handles HTTP requests related to orders.
type OrderHandler struct {
	service   service.OrderService
	logger    *slog.Logger
	validator *validator.Validate
}

// NewHandler creates a new instance of OrderHandler.
func NewHandler(service service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		service:   service,
		logger:    logger,
		validator: validator.New(),
	}
}

// RegisterRoutes mounts the customer-facing order routes.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.listMine)
	r.Get("/{id}", h.getByID)
	r.Post("/{id}/cancel", h.cancel)
	r.Post("/{id}/payment/initiate", h.initiatePayment)
	r.Post("/{id}/payment/confirm", h.confirmPayment)
}

// RegisterAdminRoutes mounts the admin order routes. The caller is expected
// to guard them with web.RequireAdmin.
func (h *OrderHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/", h.listAll)
	r.Put("/{id}/status", h.updateStatus)
}

func (h *OrderHandler) create(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerWithReqID(r.Context())

	userID, ok := web.GetUserID(w, r, logger)
	if !ok {
		return
	}

	var dto service.OrderCreateDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		web.RespondError(w, logger, http.StatusBadRequest, "Invalid request payload")
		return
	}
	dto.UserID = userID

	if err := h.validator.Struct(dto); err != nil {
		logger.Warn("Order validation failed", "error", err)
		web.RespondError(w, logger, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	order, err := h.service.Create(r.Context(), dto)
	if err != nil {
		h.respondOrderError(w, logger, err)
		return
	}

	web.RespondJSON(w, logger, http.StatusCreated, order)
}

func (h *OrderHandler) listMine(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerWithReqID(r.Context())

	userID, ok := web.GetUserID(w, r, logger)
	if !ok {
		return
	}

	offset, ok := web.ParseOptionalGte(r, w, logger, "offset", 0, 0)
	if !ok {
		return
	}
	limit, ok := web.ParseOptionalGt(r, w, logger, "limit", 10, 0)
	if !ok {
		return
	}

	orders, err := h.service.FindByUserID(r.Context(), userID, offset, limit)
	if err != nil {
		logger.Error("Failed to list orders", "error", err)
		web.RespondError(w, logger, http.StatusInternalServerError, "Internal server error")
		return
	}

	web.RespondJSON(w, logger, http.StatusOK, orders)
}

func (h *OrderHandler) listAll(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerWithReqID(r.Context())

	offset, ok := web.ParseOptionalGte(r, w, logger, "offset", 0, 0)
	if !ok {
		return
	}
	limit, ok := web.ParseOptionalGt(r, w, logger, "limit", 10, 0)
	if !ok {
		return
	}

	orders, err := h.service.FindAll(r.Context(), offset, limit)
	if err != nil {
		logger.Error("Failed to list all orders", "error", err)
		web.RespondError(w, logger, http.StatusInternalServerError, "Internal server error")
		return
	}

	web.RespondJSON(w, logger, http.StatusOK, orders)
}

func (h *OrderHandler) getByID(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerWithReqID(r.Context())

	userID, ok := web.GetUserID(w, r, logger)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, logger)
	if !ok {
		return
	}

	order, err := h.service.FindByID(r.Context(), userID, id)
	if err != nil {
		h.respondOrderError(w, logger, err)
		return
	}

	web.RespondJSON(w, logger, http.StatusOK, order)
}

func (h *OrderHandler) cancel(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerWithReqID(r.Context())

	userID, ok := web.GetUserID(w, r, logger)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, logger)
	if !ok {
		return
	}

	order, err := h.service.Cancel(r.Context(), userID, id)
	if err != nil {
		h.respondOrderError(w, logger, err)
		return
	}

	web.RespondJSON(w, logger, http.StatusOK, order)
}

func (h *OrderHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerWithReqID(r.Context())

	id, ok := h.pathID(w, r, logger)
	if !ok {
		return
	}

	var dto service.OrderStatusUpdateDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		web.RespondError(w, logger, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := h.validator.Struct(dto); err != nil {
		web.RespondError(w, logger, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), id, dto.Status)
	if err != nil {
		h.respondOrderError(w, logger, err)
		return
	}

	web.RespondJSON(w, logger, http.StatusOK, order)
}

func (h *OrderHandler) initiatePayment(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerWithReqID(r.Context())

	userID, ok := web.GetUserID(w, r, logger)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, logger)
	if !ok {
		return
	}

	result, err := h.service.InitiatePayment(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, payment.ErrProviderUnavailable) {
			web.RespondError(w, logger, http.StatusServiceUnavailable, "Payment provider unavailable")
			return
		}
		h.respondOrderError(w, logger, err)
		return
	}

	web.RespondJSON(w, logger, http.StatusOK, result)
}

func (h *OrderHandler) confirmPayment(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerWithReqID(r.Context())

	userID, ok := web.GetUserID(w, r, logger)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, logger)
	if !ok {
		return
	}

	var dto service.PaymentConfirmDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		web.RespondError(w, logger, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := h.validator.Struct(dto); err != nil {
		web.RespondError(w, logger, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	order, err := h.service.ConfirmPayment(r.Context(), userID, id, dto.Ref)
	if err != nil {
		if errors.Is(err, payment.ErrProviderUnavailable) {
			web.RespondError(w, logger, http.StatusServiceUnavailable, "Payment provider unavailable")
			return
		}
		h.respondOrderError(w, logger, err)
		return
	}

	web.RespondJSON(w, logger, http.StatusOK, order)
}

// respondOrderError maps order domain errors to HTTP status codes.
func (h *OrderHandler) respondOrderError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, ordererrors.ErrOrderNotFound),
		errors.Is(err, ordererrors.ErrProductNotFound):
		web.RespondError(w, logger, http.StatusNotFound, err.Error())
	case errors.Is(err, ordererrors.ErrAccessDenied):
		web.RespondError(w, logger, http.StatusForbidden, "Access denied")
	case errors.Is(err, ordererrors.ErrInsufficientStock),
		errors.Is(err, ordererrors.ErrNotCancellable),
		errors.Is(err, ordererrors.ErrInvalidTransition),
		errors.Is(err, ordererrors.ErrAlreadyPaid),
		errors.Is(err, ordererrors.ErrPaymentRefMismatch),
		errors.Is(err, ordererrors.ErrPaymentAmountMismatch):
		web.RespondError(w, logger, http.StatusConflict, err.Error())
	default:
		logger.Error("Order request failed", "error", err)
		web.RespondError(w, logger, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *OrderHandler) pathID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.RespondError(w, logger, http.StatusBadRequest, "Invalid order ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *OrderHandler) loggerWithReqID(ctx context.Context) *slog.Logger {
	if reqID, ok := web.RequestIDFrom(ctx); ok {
		return h.logger.With("request_id", reqID)
	}
	return h.logger
}
