package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kickoff/storefront-api/internal/api/metrics"
	"github.com/kickoff/storefront-api/internal/core/domain"
	"github.com/kickoff/storefront-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a new account. No token is issued.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload", Code: codeValidationFailed})
	}
	if err := c.Validate(&req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Code: codeValidationFailed})
	}

	account, err := h.authService.Register(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		var policyErr *domain.PasswordPolicyError
		switch {
		case errors.As(err, &policyErr):
			metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
			return c.JSON(http.StatusBadRequest, errorResponse{
				Error:      "password does not meet policy",
				Code:       codeValidationFailed,
				Violations: policyErr.Violations,
			})
		case errors.Is(err, domain.ErrEmailTaken):
			metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
			return c.JSON(http.StatusConflict, errorResponse{Error: "email already registered", Code: codeEmailTaken})
		}
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusCreated, registerResponse{
		Message:   "account registered",
		AccountID: account.ID,
	})
}

// Login performs the password step and triggers OTP delivery.
//
// @Summary      Login (password step)
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      423   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload", Code: codeValidationFailed})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Code: codeValidationFailed})
	}

	challengeID, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "invalid credentials", Code: codeInvalidCredentials})
		case errors.Is(err, domain.ErrAccountLocked):
			metrics.LoginAttemptsTotal.WithLabelValues("locked").Inc()
			return c.JSON(http.StatusLocked, errorResponse{Error: "account locked, try again later", Code: codeAccountLocked})
		}
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.LoginAttemptsTotal.WithLabelValues("challenge_issued").Inc()
	return c.JSON(http.StatusOK, loginResponse{
		Message:     "OTP sent to email",
		ChallengeID: challengeID,
	})
}

// VerifyOTP performs the second factor step and returns a bearer token.
//
// @Summary      Verify the one-time code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      verifyOTPRequest  true  "Challenge reference and code"
// @Success      200   {object}  verifyOTPResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /auth/verify-otp [post]
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req verifyOTPRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload", Code: codeValidationFailed})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Code: codeValidationFailed})
	}

	token, role, err := h.authService.VerifyOTP(c.Request().Context(), req.ChallengeID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRequest):
			metrics.OTPVerificationsTotal.WithLabelValues("invalid_request").Inc()
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request", Code: codeInvalidRequest})
		case errors.Is(err, domain.ErrOTPExpired):
			metrics.OTPVerificationsTotal.WithLabelValues("expired").Inc()
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "OTP expired", Code: codeOTPExpired})
		case errors.Is(err, domain.ErrOTPInvalid):
			metrics.OTPVerificationsTotal.WithLabelValues("invalid_code").Inc()
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "invalid OTP", Code: codeInvalidOTP})
		case errors.Is(err, domain.ErrOTPAttemptsExceeded):
			metrics.OTPVerificationsTotal.WithLabelValues("attempts_exceeded").Inc()
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "too many attempts, log in again", Code: codeOTPAttemptsExceeded})
		}
		metrics.OTPVerificationsTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.OTPVerificationsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, verifyOTPResponse{
		Message: "MFA verified",
		Token:   token,
		Role:    role,
	})
}
