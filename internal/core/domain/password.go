package domain

import (
	"unicode"
	"unicode/utf8"
)

const (
	MinPasswordLength = 12

	// MaxPasswordBytes is bcrypt's input limit. Anything longer would be
	// silently truncated or rejected by the hasher, so the policy rejects it
	// up front with a proper violation.
	MaxPasswordBytes = 72
)

// ValidatePassword checks the candidate against the registration policy and
// returns a PasswordPolicyError naming every violated rule, or nil when all
// rules pass.
func ValidatePassword(password string) error {
	var violations []string

	// Characters, not bytes: a multibyte password is as long as it reads.
	if utf8.RuneCountInString(password) < MinPasswordLength {
		violations = append(violations, "must be at least 12 characters long")
	}
	if len(password) > MaxPasswordBytes {
		violations = append(violations, "must be at most 72 bytes long")
	}

	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}

	if !upper {
		violations = append(violations, "must contain an uppercase letter")
	}
	if !lower {
		violations = append(violations, "must contain a lowercase letter")
	}
	if !digit {
		violations = append(violations, "must contain a digit")
	}
	if !symbol {
		violations = append(violations, "must contain a symbol")
	}

	if len(violations) > 0 {
		return &PasswordPolicyError{Violations: violations}
	}
	return nil
}
