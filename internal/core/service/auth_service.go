package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/kickoff/storefront-api/internal/core/domain"
	"github.com/kickoff/storefront-api/internal/core/ports"
)

// Defaults applied when the corresponding Config field is zero.
const (
	defaultTokenTTL         = 15 * time.Minute
	defaultLockoutThreshold = 5
	defaultLockoutDuration  = 15 * time.Minute
	defaultOTPLength        = 6
	defaultOTPTTL           = 5 * time.Minute
	defaultOTPMaxAttempts   = 5
	defaultDeliveryTimeout  = 10 * time.Second

	// minBcryptCost is the floor for the adaptive hash work factor. The
	// configured cost may raise it but never lower it.
	minBcryptCost = 12
)

// dummyHash is a bcrypt digest of an unguessable throwaway value. Login
// attempts against unknown emails verify the supplied password against it so
// the miss path costs the same as a wrong password.
var dummyHash = []byte("$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW")

// Config carries the tunable security parameters of the credential manager.
type Config struct {
	JWTSecret        string
	TokenTTL         time.Duration
	LockoutThreshold int
	LockoutDuration  time.Duration
	OTPLength        int
	OTPTTL           time.Duration
	OTPMaxAttempts   int
	BcryptCost       int
	DeliveryTimeout  time.Duration
}

func (c *Config) applyDefaults() {
	if c.TokenTTL <= 0 {
		c.TokenTTL = defaultTokenTTL
	}
	if c.LockoutThreshold <= 0 {
		c.LockoutThreshold = defaultLockoutThreshold
	}
	if c.LockoutDuration <= 0 {
		c.LockoutDuration = defaultLockoutDuration
	}
	if c.OTPLength <= 0 {
		c.OTPLength = defaultOTPLength
	}
	if c.OTPTTL <= 0 {
		c.OTPTTL = defaultOTPTTL
	}
	if c.OTPMaxAttempts <= 0 {
		c.OTPMaxAttempts = defaultOTPMaxAttempts
	}
	if c.BcryptCost < minBcryptCost {
		c.BcryptCost = minBcryptCost
	}
	if c.DeliveryTimeout <= 0 {
		c.DeliveryTimeout = defaultDeliveryTimeout
	}
}

// AuthService implements the credential & session manager: registration,
// password login with progressive lockout, the OTP second factor and JWT
// issuance.
type AuthService struct {
	accounts ports.AccountRepository
	delivery ports.OTPDelivery
	attempts ports.OTPAttemptStore
	audit    ports.AuditRecorder
	cfg      Config
	log      zerolog.Logger
}

func NewAuthService(
	accounts ports.AccountRepository,
	delivery ports.OTPDelivery,
	attempts ports.OTPAttemptStore,
	audit ports.AuditRecorder,
	cfg Config,
	log zerolog.Logger,
) *AuthService {
	cfg.applyDefaults()
	return &AuthService{
		accounts: accounts,
		delivery: delivery,
		attempts: attempts,
		audit:    audit,
		cfg:      cfg,
		log:      log,
	}
}

// Register creates an account with a freshly hashed password and zeroed
// security state. The password must already satisfy the policy; callers get a
// per-rule report when it does not.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.Account, error) {
	if err := domain.ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	account := &domain.Account{
		Name:         name,
		Email:        domain.NormalizeEmail(email),
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.accounts.Create(ctx, account)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, domain.AuditEntry{
		AccountID: created.ID,
		Email:     created.Email,
		Action:    domain.AuditRegister,
		Status:    domain.AuditSuccess,
		Timestamp: now,
	})
	return created, nil
}

// Login performs the password step of the login sequence. On success the
// account carries a fresh OTP challenge, the code has been delivered out of
// band, and the returned challenge ID references the account for VerifyOTP.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	email = domain.NormalizeEmail(email)

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			// Burn a compare so the miss costs as much as a mismatch.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return "", domain.ErrInvalidCredentials
		}
		return "", err
	}

	now := time.Now().UTC()
	if account.Locked(now) {
		return "", domain.ErrAccountLocked
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return "", s.handlePasswordMismatch(ctx, account, now)
	}

	code, digest, err := generateOTP(s.cfg.OTPLength)
	if err != nil {
		return "", err
	}

	// One atomic update: counter back to zero, stale lock gone, challenge set.
	expiresAt := now.Add(s.cfg.OTPTTL)
	if err := s.accounts.SetChallenge(ctx, account.ID, digest, expiresAt); err != nil {
		return "", fmt.Errorf("set challenge: %w", err)
	}
	if err := s.attempts.Reset(ctx, account.ID); err != nil {
		s.log.Warn().Err(err).Str("account_id", account.ID).Msg("otp attempt counter reset failed")
	}

	deliveryCtx, cancel := context.WithTimeout(ctx, s.cfg.DeliveryTimeout)
	defer cancel()
	if err := s.delivery.SendCode(deliveryCtx, account.Email, code, s.cfg.OTPTTL); err != nil {
		// Fail closed: an undeliverable code must not stay usable.
		if clearErr := s.accounts.ClearChallenge(ctx, account.ID); clearErr != nil {
			s.log.Error().Err(clearErr).Str("account_id", account.ID).Msg("challenge cleanup failed after delivery error")
		}
		return "", fmt.Errorf("deliver otp: %w", err)
	}

	s.audit.Record(ctx, domain.AuditEntry{
		AccountID: account.ID,
		Email:     account.Email,
		Action:    domain.AuditOTPIssued,
		Status:    domain.AuditSuccess,
		Timestamp: now,
	})
	return account.ID, nil
}

// handlePasswordMismatch records the failure and locks the account once the
// threshold is reached. The counter resets to zero together with the lock, so
// an expired lock grants a fresh attempt budget.
func (s *AuthService) handlePasswordMismatch(ctx context.Context, account *domain.Account, now time.Time) error {
	attempts, err := s.accounts.RecordFailure(ctx, account.ID)
	if err != nil {
		return fmt.Errorf("record failed attempt: %w", err)
	}

	s.audit.Record(ctx, domain.AuditEntry{
		AccountID: account.ID,
		Email:     account.Email,
		Action:    domain.AuditFailedLogin,
		Status:    domain.AuditFailure,
		Detail:    fmt.Sprintf("failed attempt %d of %d", attempts, s.cfg.LockoutThreshold),
		Timestamp: now,
	})

	if attempts < s.cfg.LockoutThreshold {
		return domain.ErrInvalidCredentials
	}

	until := now.Add(s.cfg.LockoutDuration)
	if err := s.accounts.Lock(ctx, account.ID, until, s.cfg.LockoutThreshold); err != nil {
		return fmt.Errorf("lock account: %w", err)
	}
	s.audit.Record(ctx, domain.AuditEntry{
		AccountID: account.ID,
		Email:     account.Email,
		Action:    domain.AuditAccountLocked,
		Status:    domain.AuditFailure,
		Detail:    "locked until " + until.Format(time.RFC3339),
		Timestamp: now,
	})

	// The attempt that trips the threshold reports the lock, not a generic
	// credential failure.
	return domain.ErrAccountLocked
}

// VerifyOTP performs the second factor step and mints a token on success.
func (s *AuthService) VerifyOTP(ctx context.Context, challengeID, code string) (string, string, error) {
	account, err := s.accounts.FindByID(ctx, challengeID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return "", "", domain.ErrInvalidRequest
		}
		return "", "", err
	}
	if !account.HasChallenge() {
		return "", "", domain.ErrInvalidRequest
	}

	now := time.Now().UTC()
	if account.OTPExpiresAt.Before(now) {
		if err := s.invalidateChallenge(ctx, account.ID); err != nil {
			return "", "", err
		}
		return "", "", domain.ErrOTPExpired
	}

	count, err := s.attempts.Increment(ctx, account.ID, s.cfg.OTPTTL)
	if err != nil {
		// Fail closed: without the counter the cap cannot be enforced.
		return "", "", fmt.Errorf("count otp attempt: %w", err)
	}
	if count > int64(s.cfg.OTPMaxAttempts) {
		if err := s.invalidateChallenge(ctx, account.ID); err != nil {
			return "", "", err
		}
		return "", "", domain.ErrOTPAttemptsExceeded
	}

	if !verifyOTP(code, account.OTPHash) {
		return "", "", domain.ErrOTPInvalid
	}

	if err := s.invalidateChallenge(ctx, account.ID); err != nil {
		return "", "", err
	}

	token, err := s.generateToken(account, now)
	if err != nil {
		return "", "", fmt.Errorf("sign token: %w", err)
	}

	s.audit.Record(ctx, domain.AuditEntry{
		AccountID: account.ID,
		Email:     account.Email,
		Action:    domain.AuditLogin,
		Status:    domain.AuditSuccess,
		Timestamp: now,
	})
	return token, account.Role, nil
}

// Profile returns the account referenced by a validated token.
func (s *AuthService) Profile(ctx context.Context, accountID string) (*domain.Account, error) {
	return s.accounts.FindByID(ctx, accountID)
}

// invalidateChallenge clears both challenge fields together and discards the
// attempt counter.
func (s *AuthService) invalidateChallenge(ctx context.Context, accountID string) error {
	if err := s.accounts.ClearChallenge(ctx, accountID); err != nil {
		return fmt.Errorf("clear challenge: %w", err)
	}
	if err := s.attempts.Reset(ctx, accountID); err != nil {
		s.log.Warn().Err(err).Str("account_id", accountID).Msg("otp attempt counter reset failed")
	}
	return nil
}

// generateToken mints a stateless HS256 bearer token. Revocation before
// expiry is not supported; the short TTL bounds the exposure.
func (s *AuthService) generateToken(account *domain.Account, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":  account.ID,
		"role": account.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(s.cfg.TokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.cfg.JWTSecret))
}
