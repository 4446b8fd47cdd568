package ports

import (
	"context"
	"time"
)

// OTPAttemptStore tracks verification attempts per pending challenge. The
// increment must be atomic so concurrent submissions cannot slip under the
// cap.
type OTPAttemptStore interface {
	// Increment records one verification attempt for the account's pending
	// challenge and returns the post-increment count. The counter expires
	// with the challenge (ttl).
	Increment(ctx context.Context, accountID string, ttl time.Duration) (int64, error)

	// Reset discards the counter, typically when the challenge is resolved
	// or replaced.
	Reset(ctx context.Context, accountID string) error
}
