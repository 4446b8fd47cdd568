package ports

import (
	"context"

	"github.com/kickoff/storefront-api/internal/core/domain"
)

// AuthService orchestrates registration, the two-step login and token minting.
type AuthService interface {
	// Register creates an account and returns it. No token is issued;
	// registration does not imply login.
	Register(ctx context.Context, name, email, password string) (*domain.Account, error)

	// Login performs the password step. On success an OTP has been delivered
	// out of band and the returned challenge ID must be presented to
	// VerifyOTP within the challenge lifetime.
	Login(ctx context.Context, email, password string) (challengeID string, err error)

	// VerifyOTP performs the second factor step and, on success, mints a
	// bearer token for the account.
	VerifyOTP(ctx context.Context, challengeID, code string) (token, role string, err error)

	// Profile returns the account behind an authenticated request.
	Profile(ctx context.Context, accountID string) (*domain.Account, error)
}
