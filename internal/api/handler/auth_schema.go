package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx
// responses. Code is a stable machine-readable identifier; Violations carries
// per-rule password policy feedback on registration failures.
type errorResponse struct {
	Error      string   `json:"error"`
	Code       string   `json:"code,omitempty"`
	Violations []string `json:"violations,omitempty"`
}

// Machine-readable error codes surfaced to clients.
const (
	codeValidationFailed    = "VALIDATION_FAILED"
	codeEmailTaken          = "EMAIL_TAKEN"
	codeInvalidCredentials  = "INVALID_CREDENTIALS"
	codeAccountLocked       = "ACCOUNT_LOCKED"
	codeInvalidRequest      = "INVALID_REQUEST"
	codeOTPExpired          = "OTP_EXPIRED"
	codeInvalidOTP          = "INVALID_OTP"
	codeOTPAttemptsExceeded = "OTP_ATTEMPTS_EXCEEDED"
)

// --- Request / Response types ---

type registerRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerResponse struct {
	Message   string `json:"message"`
	AccountID string `json:"account_id"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// loginResponse deliberately carries no token; the challenge ID must be
// redeemed with the delivered OTP first.
type loginResponse struct {
	Message     string `json:"message"`
	ChallengeID string `json:"challenge_id"`
}

type verifyOTPRequest struct {
	ChallengeID string `json:"challenge_id" validate:"required"`
	Code        string `json:"code"         validate:"required"`
}

type verifyOTPResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	Role    string `json:"role"`
}

// accountResponse is the sanitized account view returned on authenticated
// reads. Owned by the transport layer so the JSON contract is not coupled to
// internal domain changes.
type accountResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
