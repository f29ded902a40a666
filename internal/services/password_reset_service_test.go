package services

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/cuido/cuidosvc/domain"
)

func TestGenerateResetCode(t *testing.T) {
	pattern := regexp.MustCompile(`^[1-9][0-9]{5}$`)
	for i := 0; i < 200; i++ {
		code, err := generateResetCode()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !pattern.MatchString(code) {
			t.Fatalf("code %q is not a six digit number in range", code)
		}
	}
}

func lastCode(t *testing.T, env *testEnv) string {
	t.Helper()

	calls := env.notifier.Calls()
	for i := len(calls) - 1; i >= 0; i-- {
		if calls[i].Kind == "otp" {
			return calls[i].Code
		}
	}
	t.Fatal("no reset code was sent")
	return ""
}

func TestPasswordResetServiceImpl_SingleUse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "ana@example.com", domain.RolePatient)

	if err := env.passwordResetSvc.RequestReset(ctx, "ANA@example.com"); err != nil {
		t.Fatalf("request: %v", err)
	}
	code := lastCode(t, env)

	if err := env.passwordResetSvc.ResetPassword(ctx, code, "nueva123"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	stored, _ := env.users.FindByID(ctx, user.ID)
	if stored.PasswordHash != "hashed_nueva123" {
		t.Errorf("password not updated: %q", stored.PasswordHash)
	}

	err := env.passwordResetSvc.ResetPassword(ctx, code, "otra456")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("second use: expected invalid credentials, got %v", err)
	}
	stored, _ = env.users.FindByID(ctx, user.ID)
	if stored.PasswordHash != "hashed_nueva123" {
		t.Error("second use must not change the password")
	}

	kinds := []string{}
	for _, c := range env.notifier.Calls() {
		kinds = append(kinds, c.Kind)
	}
	if len(kinds) != 2 || kinds[0] != "otp" || kinds[1] != "password_changed" {
		t.Errorf("unexpected notifications %v", kinds)
	}
}

func TestPasswordResetServiceImpl_Expired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "ana@example.com", domain.RolePatient)

	if err := env.passwordResetSvc.RequestReset(ctx, user.Email); err != nil {
		t.Fatalf("request: %v", err)
	}
	code := lastCode(t, env)

	env.now = env.now.Add(15*time.Minute + time.Second)
	err := env.passwordResetSvc.ResetPassword(ctx, code, "nueva123")
	if !errors.Is(err, domain.ErrExpired) {
		t.Fatalf("expected expired, got %v", err)
	}

	stored, _ := env.users.FindByID(ctx, user.ID)
	if stored.PasswordHash != "hashed_secret123" {
		t.Error("expired code must not change the password")
	}
	token, err := env.tokens.FindUnusedByCode(ctx, code)
	if err != nil || token.Used {
		t.Errorf("expired token must stay untouched, got %+v, %v", token, err)
	}
}

func TestPasswordResetServiceImpl_AtExpiryInstantStillValid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "ana@example.com", domain.RolePatient)

	if err := env.passwordResetSvc.RequestReset(ctx, "ana@example.com"); err != nil {
		t.Fatalf("request: %v", err)
	}
	env.now = env.now.Add(15 * time.Minute)
	if err := env.passwordResetSvc.ResetPassword(ctx, lastCode(t, env), "nueva123"); err != nil {
		t.Errorf("code is valid until its expiry instant: %v", err)
	}
}

func TestPasswordResetServiceImpl_NewRequestInvalidatesPrevious(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "ana@example.com", domain.RolePatient)

	codes := []string{"111111", "222222"}
	env.passwordResetSvc.newCode = func() (string, error) {
		c := codes[0]
		codes = codes[1:]
		return c, nil
	}

	for i := 0; i < 2; i++ {
		if err := env.passwordResetSvc.RequestReset(ctx, "ana@example.com"); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}

	if err := env.passwordResetSvc.ResetPassword(ctx, "111111", "x"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("older code should be invalidated, got %v", err)
	}
	if err := env.passwordResetSvc.ResetPassword(ctx, "222222", "x"); err != nil {
		t.Errorf("newest code should work: %v", err)
	}
}

type inTxKey struct{}

// markingTx tags the context it hands to fn.
type markingTx struct{ domain.Transactor }

func (m markingTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.Transactor.WithinTx(ctx, func(ctx context.Context) error {
		return fn(context.WithValue(ctx, inTxKey{}, true))
	})
}

// lockRecorder notes where LockByID ran relative to token writes.
type lockRecorder struct {
	domain.UserRepository
	steps []string
}

func (r *lockRecorder) LockByID(ctx context.Context, id uint) (*domain.User, error) {
	if ctx.Value(inTxKey{}) == nil {
		r.steps = append(r.steps, "lock outside tx")
	} else {
		r.steps = append(r.steps, "lock")
	}
	return r.UserRepository.LockByID(ctx, id)
}

type invalidateRecorder struct {
	domain.ResetTokenRepository
	rec *lockRecorder
}

func (r invalidateRecorder) InvalidateForUser(ctx context.Context, userID uint) (int64, error) {
	r.rec.steps = append(r.rec.steps, "invalidate")
	return r.ResetTokenRepository.InvalidateForUser(ctx, userID)
}

func TestPasswordResetServiceImpl_RequestLocksUserFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "ana@example.com", domain.RolePatient)

	users := &lockRecorder{UserRepository: env.users}
	tokens := invalidateRecorder{ResetTokenRepository: env.tokens, rec: users}
	svc := NewPasswordResetService(users, tokens, markingTx{env.tx}, fakeHasher{}, env.notifier, env.audit, env.clock, 15*time.Minute, nil)

	if err := svc.RequestReset(ctx, "ana@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"lock", "invalidate"}
	if len(users.steps) != len(want) || users.steps[0] != want[0] || users.steps[1] != want[1] {
		t.Errorf("expected steps %v, got %v", want, users.steps)
	}
}

func TestPasswordResetServiceImpl_AntiEnumeration(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "ana@example.com", domain.RolePatient)

	tests := []struct {
		name     string
		email    string
		expected int
	}{
		{name: "unknown email", email: "nadie@example.com", expected: 0},
		{name: "known email", email: "ana@example.com", expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(env.notifier.Calls())
			if err := env.passwordResetSvc.RequestReset(ctx, tt.email); err != nil {
				t.Fatalf("expected nil error, got %v", err)
			}
			if sent := len(env.notifier.Calls()) - before; sent != tt.expected {
				t.Errorf("expected %d messages, got %d", tt.expected, sent)
			}
		})
	}
}

func TestPasswordResetServiceImpl_DeliveryFailureIsNotReturned(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "ana@example.com", domain.RolePatient)
	env.notifier.Err = errors.New("twilio down")

	if err := env.passwordResetSvc.RequestReset(ctx, "ana@example.com"); err != nil {
		t.Fatalf("delivery failure must not surface: %v", err)
	}
	if err := env.passwordResetSvc.ResetPassword(ctx, lastCode(t, env), "nueva123"); err != nil {
		t.Errorf("stored code should still be usable: %v", err)
	}
}

func TestPasswordResetServiceImpl_SweepExpired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "ana@example.com", domain.RolePatient)

	seed := []domain.PasswordResetToken{
		{UserID: user.ID, Code: "100001", ExpiresAt: fixedNow.Add(-time.Hour)},
		{UserID: user.ID, Code: "100002", ExpiresAt: fixedNow.Add(-time.Second), Used: true},
		{UserID: user.ID, Code: "100003", ExpiresAt: fixedNow.Add(time.Minute)},
	}
	for i := range seed {
		if err := env.tokens.Create(ctx, &seed[i]); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	n, err := env.passwordResetSvc.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 expired tokens removed, got %d", n)
	}
	if _, err := env.tokens.FindUnusedByCode(ctx, "100003"); err != nil {
		t.Errorf("live token should survive: %v", err)
	}
}
