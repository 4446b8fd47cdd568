package domain

import (
	"strings"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Account models a storefront customer or administrator able to authenticate.
//
// Lockout and challenge fields are owned by the login flow; nothing else may
// write them. OTPHash and OTPExpiresAt are always set or cleared together.
type Account struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"`
	Role           string     `json:"role"`
	FailedAttempts int        `json:"-"`
	LockedUntil    *time.Time `json:"-"`
	OTPHash        string     `json:"-"`
	OTPExpiresAt   *time.Time `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Locked reports whether the account is locked at the given instant.
// An expiry in the past counts as unlocked; the stale field is cleared
// lazily by the next successful password check.
func (a *Account) Locked(now time.Time) bool {
	return a.LockedUntil != nil && a.LockedUntil.After(now)
}

// HasChallenge reports whether an OTP challenge is pending on the account.
func (a *Account) HasChallenge() bool {
	return a.OTPHash != "" && a.OTPExpiresAt != nil
}

// NormalizeEmail canonicalizes an address the way the store indexes it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
