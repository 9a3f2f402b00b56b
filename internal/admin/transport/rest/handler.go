// Package rest provides HTTP handlers for admin dashboard endpoints.
package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nhupane/gopasal/internal/admin/service"
	"github.com/nhupane/gopasal/pkg/web"
)

// DashboardHandler handles HTTP requests for the admin dashboard.
type DashboardHandler struct {
	service service.DashboardService
	logger  *slog.Logger
}

// NewHandler creates a new instance of DashboardHandler.
func NewHandler(service service.DashboardService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{service: service, logger: logger}
}

// RegisterRoutes mounts the dashboard routes. The caller is expected to guard
// them with web.RequireAdmin.
func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/stats", h.stats)
}

func (h *DashboardHandler) stats(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerWithReqID(r.Context())

	stats, err := h.service.Stats(r.Context())
	if err != nil {
		logger.Error("Failed to load dashboard stats", "error", err)
		web.RespondError(w, logger, http.StatusInternalServerError, "Internal server error")
		return
	}

	web.RespondJSON(w, logger, http.StatusOK, stats)
}

func (h *DashboardHandler) loggerWithReqID(ctx context.Context) *slog.Logger {
	if reqID, ok := web.RequestIDFrom(ctx); ok {
		return h.logger.With("request_id", reqID)
	}
	return h.logger
}
