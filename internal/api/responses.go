package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	app_errors "bible-chat/backend/internal/errors"
	"bible-chat/backend/internal/logger"
)

// This file contains shared DTOs for API responses and helper functions for
// sending consistent HTTP responses.

// ErrorResponse defines the standard JSON structure for error messages.
type ErrorResponse struct {
	Code    string `json:"code" example:"rate_limit:chat"`
	Error   string `json:"error" example:"rate_limit"`
	Message string `json:"message,omitempty"`
}

// StatusResponse is returned by the health check.
type StatusResponse struct {
	Status string `json:"status"`
}

// statusFor maps an error kind to its HTTP status code.
func statusFor(kind error) int {
	switch kind {
	case app_errors.ErrBadRequest:
		return http.StatusBadRequest
	case app_errors.ErrUnauthorized:
		return http.StatusUnauthorized
	case app_errors.ErrForbidden:
		return http.StatusForbidden
	case app_errors.ErrNotFound:
		return http.StatusNotFound
	case app_errors.ErrRateLimit:
		return http.StatusTooManyRequests
	case app_errors.ErrOffline:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondWithError is the centralized error handling function for the API
// layer. Classified errors are rendered with their code and a user-facing
// message. Anything else is logged and becomes a generic 500.
func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())

	var appErr *app_errors.Error
	if !errors.As(err, &appErr) {
		kind := app_errors.KindOf(err)
		if kind == app_errors.ErrInternal {
			log.Error("Unhandled error", "error", err)
			respondWithJSON(w, r, http.StatusInternalServerError, ErrorResponse{
				Code:    app_errors.ErrInternal.Error(),
				Error:   "Internal server error",
				Message: err.Error(),
			})
			return
		}
		appErr = app_errors.New(kind, "")
	}

	kind := app_errors.KindOf(appErr)
	status := statusFor(kind)
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	log.Log(r.Context(), level, "Responding with error", "status_code", status, "code", appErr.Code(), "internal_error", err)

	respondWithJSON(w, r, status, ErrorResponse{
		Code:    appErr.Code(),
		Error:   kind.Error(),
		Message: appErr.UserMessage(),
	})
}

// respondWithJSON marshals payload and writes it with the given status code.
func respondWithJSON(w http.ResponseWriter, r *http.Request, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to marshal JSON response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		logger.FromContext(r.Context()).Error("Failed to write JSON response", "error", err)
	}
}
