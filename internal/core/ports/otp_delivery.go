package ports

import (
	"context"
	"time"
)

// OTPDelivery sends a plaintext one-time code to an out-of-band address.
// The code exists in plaintext only in memory and in the outbound message;
// callers bound the call with a context deadline and fail the login attempt
// when delivery fails.
type OTPDelivery interface {
	SendCode(ctx context.Context, email, code string, validFor time.Duration) error
}
