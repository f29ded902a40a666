package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/cuido/cuidosvc/domain"
	"go.uber.org/zap"
)

const (
	resetCodeMin = 100000
	resetCodeMax = 999999
)

// DefaultResetTTL is how long a reset code stays valid.
const DefaultResetTTL = 15 * time.Minute

// PasswordResetServiceImpl implements domain.PasswordResetService
type PasswordResetServiceImpl struct {
	users       domain.UserRepository
	tokens      domain.ResetTokenRepository
	tx          domain.Transactor
	passwordSvc domain.PasswordService
	notifier    domain.Notifier
	audit       domain.AuditLogger
	clock       domain.Clock
	ttl         time.Duration
	log         *zap.Logger

	// overridable in tests
	newCode func() (string, error)
}

// NewPasswordResetService creates a new password reset service
func NewPasswordResetService(
	users domain.UserRepository,
	tokens domain.ResetTokenRepository,
	tx domain.Transactor,
	passwordSvc domain.PasswordService,
	notifier domain.Notifier,
	audit domain.AuditLogger,
	clock domain.Clock,
	ttl time.Duration,
	log *zap.Logger,
) *PasswordResetServiceImpl {
	if ttl <= 0 {
		ttl = DefaultResetTTL
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PasswordResetServiceImpl{
		users:       users,
		tokens:      tokens,
		tx:          tx,
		passwordSvc: passwordSvc,
		notifier:    notifier,
		audit:       audit,
		clock:       clock,
		ttl:         ttl,
		log:         log.Named("password_reset"),
		newCode:     generateResetCode,
	}
}

// generateResetCode returns a uniformly random six digit code.
func generateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(resetCodeMax-resetCodeMin+1))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+resetCodeMin), nil
}

func (s *PasswordResetServiceImpl) logEvent(ctx context.Context, event *domain.AuditEvent) {
	if s.audit == nil {
		return
	}
	if err := s.audit.LogEvent(ctx, event); err != nil {
		s.log.Warn("audit log failed", zap.Error(err))
	}
}

// RequestReset issues a new code for the account behind email. An unknown
// address is not reported to the caller.
func (s *PasswordResetServiceImpl) RequestReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.log.Warn("password reset requested for unknown email", zap.String("email", email))
			return nil
		}
		return err
	}

	code, err := s.newCode()
	if err != nil {
		return fmt.Errorf("failed to generate reset code: %w", err)
	}

	now := s.clock.Now()
	token := &domain.PasswordResetToken{
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}

	// Concurrent requests for one account serialize on the user row, so
	// exactly one unused code survives.
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.users.LockByID(ctx, user.ID); err != nil {
			return err
		}
		if _, err := s.tokens.InvalidateForUser(ctx, user.ID); err != nil {
			return err
		}
		return s.tokens.Create(ctx, token)
	})
	if err != nil {
		return fmt.Errorf("failed to store reset code: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.SendOTP(ctx, user, code, s.ttl); err != nil {
			s.log.Error("reset code delivery failed", zap.Uint("user_id", user.ID), zap.Error(err))
		}
	}
	s.logEvent(ctx, domain.NewAuditEvent(domain.PasswordResetRequestEvent, user.ID, now).WithEmail(user.Email))
	return nil
}

// ResetPassword consumes code and sets newPassword on its account. An expired
// code leaves both the code and the credential untouched.
func (s *PasswordResetServiceImpl) ResetPassword(ctx context.Context, code, newPassword string) error {
	now := s.clock.Now()
	token, err := s.tokens.FindUnusedByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		s.logEvent(ctx, domain.NewAuditEvent(domain.PasswordResetFailureEvent, 0, now).WithError(err))
		return err
	}
	if token.Expired(now) {
		s.logEvent(ctx, domain.NewAuditEvent(domain.PasswordResetFailureEvent, token.UserID, now).
			WithError(domain.ErrResetCodeExpired))
		return domain.ErrResetCodeExpired
	}

	user, err := s.users.FindByID(ctx, token.UserID)
	if err != nil {
		return err
	}
	hashed, err := s.passwordSvc.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.users.UpdatePassword(ctx, user.ID, hashed); err != nil {
			return err
		}
		return s.tokens.MarkUsed(ctx, token.ID)
	})
	if err != nil {
		return err
	}

	if s.notifier != nil {
		if err := s.notifier.SendPasswordChanged(ctx, user); err != nil {
			s.log.Error("password changed email failed", zap.Uint("user_id", user.ID), zap.Error(err))
		}
	}
	s.logEvent(ctx, domain.NewAuditEvent(domain.PasswordResetEvent, user.ID, now).WithEmail(user.Email))
	return nil
}

// SweepExpired deletes every code whose expiry is before now.
func (s *PasswordResetServiceImpl) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.tokens.DeleteExpired(ctx, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep reset codes: %w", err)
	}
	return n, nil
}

var _ domain.PasswordResetService = (*PasswordResetServiceImpl)(nil)
