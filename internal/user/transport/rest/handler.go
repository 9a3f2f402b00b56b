// Package rest provides HTTP handlers for account endpoints.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	usererrors "github.com/nhupane/gopasal/internal/user/errors"
	"github.com/nhupane/gopasal/internal/user/service"
	"github.com/nhupane/gopasal/pkg/web"
)

// UserHandler handles HTTP requests related to accounts.
type UserHandler struct {
	service   service.UserService
	logger    *slog.Logger
	validator *validator.Validate
}

// NewHandler creates a new instance of UserHandler.
func NewHandler(service service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		service:   service,
		logger:    logger,
		validator: validator.New(),
	}
}

// RegisterRoutes mounts the unauthenticated account routes.
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/verify", h.verify)
	r.Post("/resend", h.resend)
	r.Post("/login", h.login)
}

// RegisterAuthRoutes mounts the authenticated account routes.
func (h *UserHandler) RegisterAuthRoutes(r chi.Router) {
	r.Get("/me", h.me)
}

func (h *UserHandler) register(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerWithReqID(r.Context())

	var dto service.RegisterDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		web.RespondError(w, logger, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := h.validator.Struct(dto); err != nil {
		web.RespondError(w, logger, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	user, err := h.service.Register(r.Context(), dto)
	if err != nil {
		h.respondUserError(w, logger, err)
		return
	}

	web.RespondJSON(w, logger, http.StatusCreated, user)
}

func (h *UserHandler) verify(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerWithReqID(r.Context())

	var dto service.VerifyDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		web.RespondError(w, logger, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := h.validator.Struct(dto); err != nil {
		web.RespondError(w, logger, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	auth, err := h.service.VerifyOTP(r.Context(), dto.Email, dto.Code)
	if err != nil {
		h.respondUserError(w, logger, err)
		return
	}

	web.RespondJSON(w, logger, http.StatusOK, auth)
}

func (h *UserHandler) resend(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerWithReqID(r.Context())

	var dto service.ResendDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		web.RespondError(w, logger, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := h.validator.Struct(dto); err != nil {
		web.RespondError(w, logger, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	if err := h.service.ResendOTP(r.Context(), dto.Email); err != nil {
		h.respondUserError(w, logger, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (h *UserHandler) login(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerWithReqID(r.Context())

	var dto service.LoginDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		web.RespondError(w, logger, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := h.validator.Struct(dto); err != nil {
		web.RespondError(w, logger, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	auth, err := h.service.Login(r.Context(), dto.Email, dto.Password)
	if err != nil {
		h.respondUserError(w, logger, err)
		return
	}

	web.RespondJSON(w, logger, http.StatusOK, auth)
}

func (h *UserHandler) me(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerWithReqID(r.Context())

	userID, ok := web.GetUserID(w, r, logger)
	if !ok {
		return
	}

	user, err := h.service.FindByID(r.Context(), userID)
	if err != nil {
		h.respondUserError(w, logger, err)
		return
	}

	web.RespondJSON(w, logger, http.StatusOK, user)
}

func (h *UserHandler) respondUserError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, usererrors.ErrUserNotFound):
		web.RespondError(w, logger, http.StatusNotFound, "User not found")
	case errors.Is(err, usererrors.ErrEmailTaken):
		web.RespondError(w, logger, http.StatusConflict, err.Error())
	case errors.Is(err, usererrors.ErrInvalidCredentials),
		errors.Is(err, usererrors.ErrInvalidOTP):
		web.RespondError(w, logger, http.StatusUnauthorized, err.Error())
	case errors.Is(err, usererrors.ErrNotVerified):
		web.RespondError(w, logger, http.StatusForbidden, err.Error())
	default:
		logger.Error("Account request failed", "error", err)
		web.RespondError(w, logger, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *UserHandler) loggerWithReqID(ctx context.Context) *slog.Logger {
	if reqID, ok := web.RequestIDFrom(ctx); ok {
		return h.logger.With("request_id", reqID)
	}
	return h.logger
}
