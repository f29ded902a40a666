package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cuido/cuidosvc/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthConfig holds token lifetimes used by the auth service.
type AuthConfig struct {
	AccessTTL  time.Duration
	SessionTTL time.Duration
}

// AuthServiceImpl implements domain.AuthService
type AuthServiceImpl struct {
	userRepo    domain.UserRepository
	sessionRepo domain.SessionRepository
	passwordSvc domain.PasswordService
	tokenSvc    domain.TokenService
	notifier    domain.Notifier
	audit       domain.AuditLogger
	clock       domain.Clock
	cfg         AuthConfig
	log         *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo domain.UserRepository,
	sessionRepo domain.SessionRepository,
	passwordSvc domain.PasswordService,
	tokenSvc domain.TokenService,
	notifier domain.Notifier,
	audit domain.AuditLogger,
	clock domain.Clock,
	cfg AuthConfig,
	log *zap.Logger,
) domain.AuthService {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 7 * 24 * time.Hour
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthServiceImpl{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		passwordSvc: passwordSvc,
		tokenSvc:    tokenSvc,
		notifier:    notifier,
		audit:       audit,
		clock:       clock,
		cfg:         cfg,
		log:         log.Named("auth"),
	}
}

func (s *AuthServiceImpl) logEvent(ctx context.Context, event *domain.AuditEvent) {
	if s.audit == nil {
		return
	}
	if err := s.audit.LogEvent(ctx, event); err != nil {
		s.log.Warn("audit log failed", zap.Error(err))
	}
}

// Register implements domain.AuthService. Only patients and caregivers may
// self-register.
func (s *AuthServiceImpl) Register(ctx context.Context, in domain.RegisterInput) (*domain.User, error) {
	if in.Role != domain.RolePatient && in.Role != domain.RoleCaregiver {
		return nil, domain.ErrInvalidRole
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if existing, err := s.userRepo.FindByEmail(ctx, email); err == nil && existing != nil {
		return nil, domain.ErrUserAlreadyExists
	}

	hashedPassword, err := s.passwordSvc.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.clock.Now()
	user := &domain.User{
		FullName:     strings.TrimSpace(in.FullName),
		Email:        email,
		Phone:        strings.TrimSpace(in.Phone),
		Address:      strings.TrimSpace(in.Address),
		PasswordHash: hashedPassword,
		Role:         in.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.SendWelcome(ctx, user); err != nil {
			s.log.Error("welcome email failed", zap.Uint("user_id", user.ID), zap.Error(err))
		}
	}
	s.logEvent(ctx, domain.NewAuditEvent(domain.UserRegistrationEvent, user.ID, now).
		WithEmail(user.Email).
		WithMetadata("role", string(user.Role)))

	return user, nil
}

// Login implements domain.AuthService
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	now := s.clock.Now()

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		s.logEvent(ctx, domain.NewAuditEvent(domain.UserLoginFailureEvent, 0, now).
			WithEmail(email).
			WithError(domain.ErrInvalidCredentials))
		return nil, domain.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}

	if !s.passwordSvc.Verify(user.PasswordHash, password) {
		s.logEvent(ctx, domain.NewAuditEvent(domain.UserLoginFailureEvent, user.ID, now).
			WithEmail(email).
			WithError(domain.ErrInvalidCredentials))
		return nil, domain.ErrInvalidCredentials
	}

	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.cfg.SessionTTL),
		CreatedAt: now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	accessToken, err := s.tokenSvc.GenerateAccessToken(user, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := s.tokenSvc.GenerateRefreshToken(user, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	s.logEvent(ctx, domain.NewAuditEvent(domain.UserLoginEvent, user.ID, now).WithEmail(user.Email))

	return &domain.AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		SessionID:    session.ID,
		ExpiresIn:    int64(s.cfg.AccessTTL.Seconds()),
	}, nil
}

// RefreshToken implements domain.AuthService
func (s *AuthServiceImpl) RefreshToken(ctx context.Context, refreshToken string) (*domain.AuthResult, error) {
	claims, err := s.tokenSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			return nil, err
		}
		return nil, domain.ErrTokenInvalid
	}

	session, err := s.sessionRepo.FindByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session.ExpiresAt.Before(s.clock.Now()) {
		return nil, domain.ErrSessionExpired
	}
	if session.UserID != claims.UserID {
		return nil, domain.ErrTokenInvalid
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		// the account was deleted after the token was issued
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}

	accessToken, err := s.tokenSvc.GenerateAccessToken(user, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &domain.AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		SessionID:    session.ID,
		ExpiresIn:    int64(s.cfg.AccessTTL.Seconds()),
	}, nil
}

// Logout implements domain.AuthService
func (s *AuthServiceImpl) Logout(ctx context.Context, sessionID string) error {
	session, _ := s.sessionRepo.FindByID(ctx, sessionID)
	if err := s.sessionRepo.Delete(ctx, sessionID); err != nil {
		return err
	}
	if session != nil {
		s.logEvent(ctx, domain.NewAuditEvent(domain.UserLogoutEvent, session.UserID, s.clock.Now()))
	}
	return nil
}

// GetUserProfile implements domain.AuthService
func (s *AuthServiceImpl) GetUserProfile(ctx context.Context, userID uint) (*domain.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

// UpdateAccount edits the caller's own name, phone and address. E-mail and
// role are not editable.
func (s *AuthServiceImpl) UpdateAccount(ctx context.Context, userID uint, in domain.AccountInput) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := user.ApplyAccount(in); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}
	user.UpdatedAt = s.clock.Now()
	return user, nil
}

// DeleteAccount closes the caller's account after re-checking the password.
// Its caregiver links are removed and the current session ends. Refresh
// tokens of other sessions stop working once the user is gone.
func (s *AuthServiceImpl) DeleteAccount(ctx context.Context, userID uint, password, sessionID string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.passwordSvc.Verify(user.PasswordHash, password) {
		return domain.ErrInvalidCredentials
	}
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if sessionID != "" {
		if err := s.sessionRepo.Delete(ctx, sessionID); err != nil {
			s.log.Warn("session cleanup after account deletion failed", zap.Uint("user_id", userID), zap.Error(err))
		}
	}
	s.logEvent(ctx, domain.NewAuditEvent(domain.UserDeletedEvent, user.ID, s.clock.Now()).WithEmail(user.Email))
	s.log.Info("account deleted", zap.Uint("user_id", user.ID))
	return nil
}

// ChangePassword implements domain.AuthService
func (s *AuthServiceImpl) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.passwordSvc.Verify(user.PasswordHash, current) {
		return domain.ErrInvalidCredentials
	}

	hashed, err := s.passwordSvc.Hash(next)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hashed); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.SendPasswordChanged(ctx, user); err != nil {
			s.log.Error("password changed email failed", zap.Uint("user_id", user.ID), zap.Error(err))
		}
	}
	return nil
}
