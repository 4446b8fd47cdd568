package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/kickoff/storefront-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for errors that escape a
// handler.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>", "code": "<code>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := resolveError(err, log, c)
		_ = c.JSON(status, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	// Known domain errors → deterministic HTTP codes. Handlers normally map
	// these themselves; this is the safety net for errors returned upward.
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: "invalid credentials", Code: "INVALID_CREDENTIALS"}
	case errors.Is(err, domain.ErrAccountLocked):
		return http.StatusLocked, errorResponse{Error: "account locked, try again later", Code: "ACCOUNT_LOCKED"}
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict, errorResponse{Error: "email already registered", Code: "EMAIL_TAKEN"}
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest, errorResponse{Error: "invalid request", Code: "INVALID_REQUEST"}
	case errors.Is(err, domain.ErrOTPExpired):
		return http.StatusBadRequest, errorResponse{Error: "OTP expired", Code: "OTP_EXPIRED"}
	case errors.Is(err, domain.ErrOTPInvalid):
		return http.StatusUnauthorized, errorResponse{Error: "invalid OTP", Code: "INVALID_OTP"}
	case errors.Is(err, domain.ErrOTPAttemptsExceeded):
		return http.StatusUnauthorized, errorResponse{Error: "too many attempts, log in again", Code: "OTP_ATTEMPTS_EXCEEDED"}
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound, errorResponse{Error: "account not found"}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: "INTERNAL_ERROR"}
}
