package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// OTPAttemptStore counts OTP verification attempts per pending challenge,
// backed by an atomic Redis INCR so concurrent submissions cannot slip under
// the cap. Key format: otp:att:<account_id>
type OTPAttemptStore struct {
	client *redis.Client
}

// NewOTPAttemptStore creates an OTPAttemptStore wrapping the given Redis client.
func NewOTPAttemptStore(client *redis.Client) *OTPAttemptStore {
	return &OTPAttemptStore{client: client}
}

// Increment records one attempt and returns the post-increment count. The
// TTL is set when the key is created so the counter dies with the challenge.
func (s *OTPAttemptStore) Increment(ctx context.Context, accountID string, ttl time.Duration) (int64, error) {
	key := s.key(accountID)

	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("otp attempt incr: %w", err)
	}
	if n == 1 {
		if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
			return n, fmt.Errorf("otp attempt expire: %w", err)
		}
	}
	return n, nil
}

// Reset discards the counter for the account's challenge.
func (s *OTPAttemptStore) Reset(ctx context.Context, accountID string) error {
	if err := s.client.Del(ctx, s.key(accountID)).Err(); err != nil {
		return fmt.Errorf("otp attempt reset: %w", err)
	}
	return nil
}

func (s *OTPAttemptStore) key(accountID string) string {
	return fmt.Sprintf("otp:att:%s", accountID)
}
