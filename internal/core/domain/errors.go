package domain

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidCredentials is returned for both unknown emails and wrong
	// passwords so responses carry no enumeration signal.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountLocked is returned while a lockout window is active.
	ErrAccountLocked = errors.New("account locked")

	// ErrEmailTaken is returned when registration hits the unique email index.
	ErrEmailTaken = errors.New("email already registered")

	// ErrAccountNotFound is returned by repositories on a missed lookup.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidRequest is returned when OTP verification references an
	// account with no pending challenge.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrOTPExpired is returned when the submitted code arrives after the
	// challenge expiry.
	ErrOTPExpired = errors.New("otp expired")

	// ErrOTPInvalid is returned on a code mismatch.
	ErrOTPInvalid = errors.New("invalid otp")

	// ErrOTPAttemptsExceeded is returned once the per-challenge verification
	// budget is exhausted; the challenge is invalidated at that point.
	ErrOTPAttemptsExceeded = errors.New("otp attempts exceeded")
)

// PasswordPolicyError reports every policy rule the candidate password
// violates, so clients can render actionable feedback.
type PasswordPolicyError struct {
	Violations []string
}

func (e *PasswordPolicyError) Error() string {
	return "password policy: " + strings.Join(e.Violations, "; ")
}
