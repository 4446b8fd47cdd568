package ports

import (
	"context"
	"time"

	"github.com/kickoff/storefront-api/internal/core/domain"
)

// AccountRepository defines persistence for accounts. Mutating operations on
// lockout and challenge state must be applied as single atomic updates in the
// store so concurrent login attempts for the same account cannot lose writes.
type AccountRepository interface {
	// Create persists a new account and returns it with its assigned ID.
	// Returns domain.ErrEmailTaken when the email is already registered.
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)

	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)

	// RecordFailure atomically increments the failed-attempt counter and
	// returns the post-increment value.
	RecordFailure(ctx context.Context, id string) (int, error)

	// Lock sets the lock expiry and resets the failed-attempt counter, but
	// only while the counter is still at or above threshold. Concurrent
	// callers racing on the same account converge on a single lock.
	Lock(ctx context.Context, id string, until time.Time, threshold int) error

	// SetChallenge stores the OTP digest and its expiry and, in the same
	// update, zeroes the failed-attempt counter and clears any stale lock.
	SetChallenge(ctx context.Context, id, otpHash string, expiresAt time.Time) error

	// ClearChallenge removes both challenge fields together.
	ClearChallenge(ctx context.Context, id string) error
}
