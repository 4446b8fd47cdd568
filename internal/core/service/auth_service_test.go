package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/kickoff/storefront-api/internal/core/domain"
)

const strongPassword = "Str0ng!Passw0rd"

type stubAccountRepo struct {
	accounts map[string]*domain.Account
	nextID   int
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{accounts: make(map[string]*domain.Account)}
}

func cloneAccount(a *domain.Account) *domain.Account {
	if a == nil {
		return nil
	}
	clone := *a
	if a.LockedUntil != nil {
		t := *a.LockedUntil
		clone.LockedUntil = &t
	}
	if a.OTPExpiresAt != nil {
		t := *a.OTPExpiresAt
		clone.OTPExpiresAt = &t
	}
	return &clone
}

func (r *stubAccountRepo) Create(_ context.Context, account *domain.Account) (*domain.Account, error) {
	for _, existing := range r.accounts {
		if existing.Email == account.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	r.nextID++
	created := cloneAccount(account)
	created.ID = fmt.Sprintf("acct_%d", r.nextID)
	r.accounts[created.ID] = cloneAccount(created)
	return cloneAccount(created), nil
}

func (r *stubAccountRepo) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	for _, a := range r.accounts {
		if a.Email == email {
			return cloneAccount(a), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *stubAccountRepo) FindByID(_ context.Context, id string) (*domain.Account, error) {
	a, ok := r.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(a), nil
}

func (r *stubAccountRepo) RecordFailure(_ context.Context, id string) (int, error) {
	a, ok := r.accounts[id]
	if !ok {
		return 0, domain.ErrAccountNotFound
	}
	a.FailedAttempts++
	return a.FailedAttempts, nil
}

func (r *stubAccountRepo) Lock(_ context.Context, id string, until time.Time, threshold int) error {
	a, ok := r.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	if a.FailedAttempts >= threshold {
		a.LockedUntil = &until
		a.FailedAttempts = 0
	}
	return nil
}

func (r *stubAccountRepo) SetChallenge(_ context.Context, id, otpHash string, expiresAt time.Time) error {
	a, ok := r.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.FailedAttempts = 0
	a.LockedUntil = nil
	a.OTPHash = otpHash
	a.OTPExpiresAt = &expiresAt
	return nil
}

func (r *stubAccountRepo) ClearChallenge(_ context.Context, id string) error {
	a, ok := r.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.OTPHash = ""
	a.OTPExpiresAt = nil
	return nil
}

type stubDelivery struct {
	sentTo   []string
	lastCode string
	err      error
}

func (d *stubDelivery) SendCode(_ context.Context, email, code string, _ time.Duration) error {
	if d.err != nil {
		return d.err
	}
	d.sentTo = append(d.sentTo, email)
	d.lastCode = code
	return nil
}

type stubAttemptStore struct {
	counts map[string]int64
	err    error
}

func newStubAttemptStore() *stubAttemptStore {
	return &stubAttemptStore{counts: make(map[string]int64)}
}

func (s *stubAttemptStore) Increment(_ context.Context, accountID string, _ time.Duration) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.counts[accountID]++
	return s.counts[accountID], nil
}

func (s *stubAttemptStore) Reset(_ context.Context, accountID string) error {
	delete(s.counts, accountID)
	return nil
}

type stubAudit struct {
	entries []domain.AuditEntry
}

func (a *stubAudit) Record(_ context.Context, entry domain.AuditEntry) {
	a.entries = append(a.entries, entry)
}

func (a *stubAudit) actions() []string {
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

type fixture struct {
	repo     *stubAccountRepo
	delivery *stubDelivery
	attempts *stubAttemptStore
	audit    *stubAudit
	svc      *AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:     newStubAccountRepo(),
		delivery: &stubDelivery{},
		attempts: newStubAttemptStore(),
		audit:    &stubAudit{},
	}
	f.svc = NewAuthService(f.repo, f.delivery, f.attempts, f.audit, Config{
		JWTSecret: "test-secret",
	}, zerolog.Nop())
	return f
}

func (f *fixture) register(t *testing.T, name, email string) *domain.Account {
	t.Helper()
	account, err := f.svc.Register(context.Background(), name, email, strongPassword)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	return account
}

func TestAuthService_Register_Success(t *testing.T) {
	f := newFixture(t)

	account := f.register(t, "Alice", "  Alice@X.com ")

	if account.ID == "" {
		t.Fatalf("expected assigned ID")
	}
	if account.Email != "alice@x.com" {
		t.Fatalf("email not normalized: %q", account.Email)
	}
	if account.Role != domain.RoleUser {
		t.Fatalf("unexpected role: %q", account.Role)
	}
	if account.PasswordHash == strongPassword {
		t.Fatalf("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(strongPassword)); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if account.FailedAttempts != 0 || account.LockedUntil != nil || account.HasChallenge() {
		t.Fatalf("fresh account carries security state: %+v", account)
	}
	if got := f.audit.actions(); len(got) != 1 || got[0] != domain.AuditRegister {
		t.Fatalf("unexpected audit trail: %v", got)
	}
}

func TestAuthService_Register_WeakPassword(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Register(context.Background(), "Bob", "bob@x.com", "alllowercase!!") // no upper, no digit
	var policyErr *domain.PasswordPolicyError
	if !errors.As(err, &policyErr) {
		t.Fatalf("expected PasswordPolicyError, got %v", err)
	}
	if len(policyErr.Violations) != 2 {
		t.Fatalf("expected 2 violations, got %v", policyErr.Violations)
	}
	for _, v := range policyErr.Violations {
		if !strings.Contains(v, "uppercase") && !strings.Contains(v, "digit") {
			t.Fatalf("unexpected violation: %q", v)
		}
	}
}

func TestAuthService_Register_OverlongPassword(t *testing.T) {
	f := newFixture(t)

	// Past bcrypt's 72-byte input limit: the policy must reject it as a
	// violation rather than letting the hasher error surface as a 500.
	long := "Aa1!" + strings.Repeat("x", 80)
	_, err := f.svc.Register(context.Background(), "Bob", "bob@x.com", long)
	var policyErr *domain.PasswordPolicyError
	if !errors.As(err, &policyErr) {
		t.Fatalf("expected PasswordPolicyError, got %v", err)
	}
	if len(policyErr.Violations) != 1 || !strings.Contains(policyErr.Violations[0], "72 bytes") {
		t.Fatalf("unexpected violations: %v", policyErr.Violations)
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.register(t, "Alice", "alice@x.com")

	// Case-insensitive: the normalized form collides.
	if _, err := f.svc.Register(context.Background(), "Mallory", "ALICE@x.com", strongPassword); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.Login(context.Background(), "ghost@x.com", "whatever"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_WrongPasswordIncrementsCounter(t *testing.T) {
	f := newFixture(t)
	account := f.register(t, "Alice", "alice@x.com")

	for i := 1; i <= 4; i++ {
		if _, err := f.svc.Login(context.Background(), "alice@x.com", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i, err)
		}
		if got := f.repo.accounts[account.ID].FailedAttempts; got != i {
			t.Fatalf("attempt %d: counter = %d", i, got)
		}
	}
	if f.repo.accounts[account.ID].LockedUntil != nil {
		t.Fatalf("account locked before threshold")
	}
}

func TestAuthService_Login_FifthFailureLocks(t *testing.T) {
	f := newFixture(t)
	account := f.register(t, "Alice", "alice@x.com")

	for i := 0; i < 4; i++ {
		_, _ = f.svc.Login(context.Background(), "alice@x.com", "wrong")
	}

	before := time.Now().UTC()
	if _, err := f.svc.Login(context.Background(), "alice@x.com", "wrong"); !errors.Is(err, domain.ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked on fifth failure, got %v", err)
	}

	stored := f.repo.accounts[account.ID]
	if stored.LockedUntil == nil {
		t.Fatalf("lock expiry not set")
	}
	wantMin := before.Add(15 * time.Minute)
	if stored.LockedUntil.Before(wantMin.Add(-time.Second)) || stored.LockedUntil.After(wantMin.Add(5*time.Second)) {
		t.Fatalf("lock expiry %v not ~15m from now", stored.LockedUntil)
	}
	if stored.FailedAttempts != 0 {
		t.Fatalf("counter not reset with lock, got %d", stored.FailedAttempts)
	}

	actions := f.audit.actions()
	if actions[len(actions)-1] != domain.AuditAccountLocked {
		t.Fatalf("expected ACCOUNT_LOCKED audit entry, got %v", actions)
	}
}

func TestAuthService_Login_LockedRejectsCorrectPassword(t *testing.T) {
	f := newFixture(t)
	account := f.register(t, "Alice", "alice@x.com")

	until := time.Now().UTC().Add(10 * time.Minute)
	f.repo.accounts[account.ID].LockedUntil = &until

	if _, err := f.svc.Login(context.Background(), "alice@x.com", strongPassword); !errors.Is(err, domain.ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked, got %v", err)
	}
	if len(f.delivery.sentTo) != 0 {
		t.Fatalf("OTP delivered while locked")
	}
}

func TestAuthService_Login_ExpiredLockClearedOnSuccess(t *testing.T) {
	f := newFixture(t)
	account := f.register(t, "Alice", "alice@x.com")

	past := time.Now().UTC().Add(-time.Minute)
	f.repo.accounts[account.ID].LockedUntil = &past

	challengeID, err := f.svc.Login(context.Background(), "alice@x.com", strongPassword)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if challengeID != account.ID {
		t.Fatalf("challenge ID %q != account ID %q", challengeID, account.ID)
	}

	stored := f.repo.accounts[account.ID]
	if stored.LockedUntil != nil {
		t.Fatalf("stale lock not cleared")
	}
	if stored.FailedAttempts != 0 {
		t.Fatalf("counter not reset on success")
	}
}

func TestAuthService_Login_SuccessIssuesChallenge(t *testing.T) {
	f := newFixture(t)
	account := f.register(t, "Alice", "alice@x.com")

	before := time.Now().UTC()
	challengeID, err := f.svc.Login(context.Background(), "alice@x.com", strongPassword)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if challengeID != account.ID {
		t.Fatalf("unexpected challenge ID: %q", challengeID)
	}

	if len(f.delivery.sentTo) != 1 || f.delivery.sentTo[0] != "alice@x.com" {
		t.Fatalf("OTP not delivered: %v", f.delivery.sentTo)
	}
	if len(f.delivery.lastCode) != 6 {
		t.Fatalf("expected 6-digit code, got %q", f.delivery.lastCode)
	}

	stored := f.repo.accounts[account.ID]
	if !stored.HasChallenge() {
		t.Fatalf("challenge not stored")
	}
	if stored.OTPHash == f.delivery.lastCode {
		t.Fatalf("OTP stored in plaintext")
	}
	if stored.OTPHash != hashOTP(f.delivery.lastCode) {
		t.Fatalf("stored digest does not match delivered code")
	}
	wantExpiry := before.Add(5 * time.Minute)
	if stored.OTPExpiresAt.Before(wantExpiry.Add(-time.Second)) || stored.OTPExpiresAt.After(wantExpiry.Add(5*time.Second)) {
		t.Fatalf("challenge expiry %v not ~5m from now", stored.OTPExpiresAt)
	}
}

func TestAuthService_Login_DeliveryFailureClearsChallenge(t *testing.T) {
	f := newFixture(t)
	account := f.register(t, "Alice", "alice@x.com")
	f.delivery.err = errors.New("smtp unreachable")

	_, err := f.svc.Login(context.Background(), "alice@x.com", strongPassword)
	if err == nil {
		t.Fatalf("expected delivery failure to fail the login")
	}
	if errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("delivery failure misreported as bad credentials")
	}

	if f.repo.accounts[account.ID].HasChallenge() {
		t.Fatalf("dangling challenge left after delivery failure")
	}
}

func TestAuthService_VerifyOTP_UnknownChallenge(t *testing.T) {
	f := newFixture(t)

	if _, _, err := f.svc.VerifyOTP(context.Background(), "acct_404", "123456"); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestAuthService_VerifyOTP_NoChallengePending(t *testing.T) {
	f := newFixture(t)
	account := f.register(t, "Alice", "alice@x.com")

	if _, _, err := f.svc.VerifyOTP(context.Background(), account.ID, "123456"); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestAuthService_VerifyOTP_ExpiredClearsChallenge(t *testing.T) {
	f := newFixture(t)
	account := f.register(t, "Alice", "alice@x.com")
	if _, err := f.svc.Login(context.Background(), "alice@x.com", strongPassword); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	code := f.delivery.lastCode

	past := time.Now().UTC().Add(-time.Second)
	f.repo.accounts[account.ID].OTPExpiresAt = &past

	// Correct code, but too late.
	if _, _, err := f.svc.VerifyOTP(context.Background(), account.ID, code); !errors.Is(err, domain.ErrOTPExpired) {
		t.Fatalf("expected ErrOTPExpired, got %v", err)
	}
	if f.repo.accounts[account.ID].HasChallenge() {
		t.Fatalf("expired challenge not cleared")
	}

	// The cleared challenge cannot be replayed.
	if _, _, err := f.svc.VerifyOTP(context.Background(), account.ID, code); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest after clear, got %v", err)
	}
}

func TestAuthService_VerifyOTP_WrongCodeKeepsChallenge(t *testing.T) {
	f := newFixture(t)
	account := f.register(t, "Alice", "alice@x.com")
	if _, err := f.svc.Login(context.Background(), "alice@x.com", strongPassword); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	wrong := "000000"
	if wrong == f.delivery.lastCode {
		wrong = "000001"
	}
	if _, _, err := f.svc.VerifyOTP(context.Background(), account.ID, wrong); !errors.Is(err, domain.ErrOTPInvalid) {
		t.Fatalf("expected ErrOTPInvalid, got %v", err)
	}
	if !f.repo.accounts[account.ID].HasChallenge() {
		t.Fatalf("challenge cleared on a plain mismatch")
	}

	// The correct code still works afterwards.
	if _, _, err := f.svc.VerifyOTP(context.Background(), account.ID, f.delivery.lastCode); err != nil {
		t.Fatalf("verify after one mismatch failed: %v", err)
	}
}

func TestAuthService_VerifyOTP_AttemptCap(t *testing.T) {
	f := newFixture(t)
	account := f.register(t, "Alice", "alice@x.com")
	if _, err := f.svc.Login(context.Background(), "alice@x.com", strongPassword); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	wrong := "000000"
	if wrong == f.delivery.lastCode {
		wrong = "000001"
	}
	for i := 0; i < 5; i++ {
		if _, _, err := f.svc.VerifyOTP(context.Background(), account.ID, wrong); !errors.Is(err, domain.ErrOTPInvalid) {
			t.Fatalf("attempt %d: expected ErrOTPInvalid, got %v", i+1, err)
		}
	}

	// Sixth attempt exceeds the budget even with the correct code.
	if _, _, err := f.svc.VerifyOTP(context.Background(), account.ID, f.delivery.lastCode); !errors.Is(err, domain.ErrOTPAttemptsExceeded) {
		t.Fatalf("expected ErrOTPAttemptsExceeded, got %v", err)
	}
	if f.repo.accounts[account.ID].HasChallenge() {
		t.Fatalf("challenge survived attempt-cap exhaustion")
	}
}

func TestAuthService_VerifyOTP_AttemptStoreDownFailsClosed(t *testing.T) {
	f := newFixture(t)
	account := f.register(t, "Alice", "alice@x.com")
	if _, err := f.svc.Login(context.Background(), "alice@x.com", strongPassword); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	f.attempts.err = errors.New("redis down")
	_, _, err := f.svc.VerifyOTP(context.Background(), account.ID, f.delivery.lastCode)
	if err == nil || errors.Is(err, domain.ErrOTPInvalid) {
		t.Fatalf("expected internal failure, got %v", err)
	}
}

func TestAuthService_VerifyOTP_SuccessMintsToken(t *testing.T) {
	f := newFixture(t)
	account := f.register(t, "Alice", "alice@x.com")
	if _, err := f.svc.Login(context.Background(), "alice@x.com", strongPassword); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	before := time.Now().UTC()
	token, role, err := f.svc.VerifyOTP(context.Background(), account.ID, f.delivery.lastCode)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if role != domain.RoleUser {
		t.Fatalf("unexpected role: %q", role)
	}
	if f.repo.accounts[account.ID].HasChallenge() {
		t.Fatalf("challenge not cleared on success")
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims["sub"] != account.ID {
		t.Fatalf("expected sub %q, got %v", account.ID, claims["sub"])
	}
	if claims["role"] != domain.RoleUser {
		t.Fatalf("expected role %q, got %v", domain.RoleUser, claims["role"])
	}
	exp, _ := claims["exp"].(float64)
	wantExp := before.Add(15 * time.Minute).Unix()
	if int64(exp) < wantExp-1 || int64(exp) > wantExp+5 {
		t.Fatalf("token expiry %d not ~15m from now (%d)", int64(exp), wantExp)
	}

	actions := f.audit.actions()
	if actions[len(actions)-1] != domain.AuditLogin {
		t.Fatalf("expected LOGIN audit entry, got %v", actions)
	}
}

func TestAuthService_FullLoginScenario(t *testing.T) {
	f := newFixture(t)
	account := f.register(t, "Alice", "alice@x.com")

	// Four wrong passwords: still just invalid credentials.
	for i := 0; i < 4; i++ {
		if _, err := f.svc.Login(context.Background(), "alice@x.com", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("attempt %d: got %v", i+1, err)
		}
	}
	// Fifth locks.
	if _, err := f.svc.Login(context.Background(), "alice@x.com", "wrong"); !errors.Is(err, domain.ErrAccountLocked) {
		t.Fatalf("expected lock on fifth attempt, got %v", err)
	}
	// Correct password does not bypass the lock.
	if _, err := f.svc.Login(context.Background(), "alice@x.com", strongPassword); !errors.Is(err, domain.ErrAccountLocked) {
		t.Fatalf("lock bypassed by correct password")
	}

	// Simulate the lock expiring.
	past := time.Now().UTC().Add(-time.Second)
	f.repo.accounts[account.ID].LockedUntil = &past

	challengeID, err := f.svc.Login(context.Background(), "alice@x.com", strongPassword)
	if err != nil {
		t.Fatalf("login after lock expiry failed: %v", err)
	}

	token, role, err := f.svc.VerifyOTP(context.Background(), challengeID, f.delivery.lastCode)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if token == "" || role != domain.RoleUser {
		t.Fatalf("unexpected result: token=%q role=%q", token, role)
	}
}
