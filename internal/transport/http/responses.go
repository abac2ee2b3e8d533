package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"todo-api/internal/domain"
)

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: apiError{Code: code, Message: message}})
}

// writeDomainError maps service errors to stable codes; driver and internal
// detail never reaches the caller.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, domain.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email_taken", "email already registered")
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "wrong email or password")
	case errors.Is(err, domain.ErrNotVerified):
		writeError(w, http.StatusForbidden, "not_verified", "please verify your email first")
	case errors.Is(err, domain.ErrOtpInvalid):
		writeError(w, http.StatusBadRequest, "otp_invalid", "invalid or expired verification code")
	case errors.Is(err, domain.ErrResetTokenInvalid):
		writeError(w, http.StatusBadRequest, "reset_token_invalid", "invalid or expired reset token")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authorized")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, domain.ErrEmailDelivery):
		writeError(w, http.StatusBadGateway, "email_delivery_failed", "could not send email, please try again")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
