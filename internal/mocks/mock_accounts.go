package mocks

import (
	"context"
	"fmt"
	"time"

	"github.com/cuido/cuidosvc/domain"
)

// MockUserRepository is a domain.UserRepository whose lookups miss unless a
// Func is set. Writes succeed.
type MockUserRepository struct {
	CreateFunc         func(ctx context.Context, user *domain.User) error
	FindByEmailFunc    func(ctx context.Context, email string) (*domain.User, error)
	FindByIDFunc       func(ctx context.Context, id uint) (*domain.User, error)
	UpdateFunc         func(ctx context.Context, user *domain.User) error
	UpdatePasswordFunc func(ctx context.Context, userID uint, passwordHash string) error
	LockByIDFunc       func(ctx context.Context, id uint) (*domain.User, error)
	DeleteFunc         func(ctx context.Context, id uint) error
}

func NewMockUserRepository() *MockUserRepository { return &MockUserRepository{} }

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFunc == nil {
		return nil
	}
	return m.CreateFunc(ctx, user)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.FindByEmailFunc == nil {
		return nil, domain.ErrUserNotFound
	}
	return m.FindByEmailFunc(ctx, email)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	if m.FindByIDFunc == nil {
		return nil, domain.ErrUserNotFound
	}
	return m.FindByIDFunc(ctx, id)
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	if m.UpdateFunc == nil {
		return nil
	}
	return m.UpdateFunc(ctx, user)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, userID uint, passwordHash string) error {
	if m.UpdatePasswordFunc == nil {
		return nil
	}
	return m.UpdatePasswordFunc(ctx, userID, passwordHash)
}

// LockByID falls back to FindByID when no LockByIDFunc is set.
func (m *MockUserRepository) LockByID(ctx context.Context, id uint) (*domain.User, error) {
	if m.LockByIDFunc == nil {
		return m.FindByID(ctx, id)
	}
	return m.LockByIDFunc(ctx, id)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uint) error {
	if m.DeleteFunc == nil {
		return nil
	}
	return m.DeleteFunc(ctx, id)
}

// MockSessionRepository is a domain.SessionRepository with no stored
// sessions by default.
type MockSessionRepository struct {
	CreateFunc   func(ctx context.Context, session *domain.Session) error
	FindByIDFunc func(ctx context.Context, sessionID string) (*domain.Session, error)
	DeleteFunc   func(ctx context.Context, sessionID string) error
}

func NewMockSessionRepository() *MockSessionRepository { return &MockSessionRepository{} }

func (m *MockSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	if m.CreateFunc == nil {
		return nil
	}
	return m.CreateFunc(ctx, session)
}

func (m *MockSessionRepository) FindByID(ctx context.Context, sessionID string) (*domain.Session, error) {
	if m.FindByIDFunc == nil {
		return nil, domain.ErrSessionNotFound
	}
	return m.FindByIDFunc(ctx, sessionID)
}

func (m *MockSessionRepository) Delete(ctx context.Context, sessionID string) error {
	if m.DeleteFunc == nil {
		return nil
	}
	return m.DeleteFunc(ctx, sessionID)
}

// MockPasswordService hashes by prefixing "hashed_", which keeps service
// tests readable and fast.
type MockPasswordService struct {
	HashFunc   func(password string) (string, error)
	VerifyFunc func(hashedPassword, password string) bool
}

func NewMockPasswordService() *MockPasswordService { return &MockPasswordService{} }

func (m *MockPasswordService) Hash(password string) (string, error) {
	if m.HashFunc != nil {
		return m.HashFunc(password)
	}
	return "hashed_" + password, nil
}

func (m *MockPasswordService) Verify(hashedPassword, password string) bool {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(hashedPassword, password)
	}
	return hashedPassword == "hashed_"+password
}

// MockTokenService issues readable tokens of the form kind.user.session and
// accepts any non-empty token as belonging to patient 1.
type MockTokenService struct {
	GenerateAccessTokenFunc  func(user *domain.User, sessionID string) (string, error)
	GenerateRefreshTokenFunc func(user *domain.User, sessionID string) (string, error)
	ValidateAccessTokenFunc  func(token string) (*domain.TokenClaims, error)
	ValidateRefreshTokenFunc func(token string) (*domain.TokenClaims, error)
}

func NewMockTokenService() *MockTokenService { return &MockTokenService{} }

func (m *MockTokenService) GenerateAccessToken(user *domain.User, sessionID string) (string, error) {
	if m.GenerateAccessTokenFunc != nil {
		return m.GenerateAccessTokenFunc(user, sessionID)
	}
	return fmt.Sprintf("access.%d.%s", user.ID, sessionID), nil
}

func (m *MockTokenService) GenerateRefreshToken(user *domain.User, sessionID string) (string, error) {
	if m.GenerateRefreshTokenFunc != nil {
		return m.GenerateRefreshTokenFunc(user, sessionID)
	}
	return fmt.Sprintf("refresh.%d.%s", user.ID, sessionID), nil
}

func (m *MockTokenService) ValidateAccessToken(token string) (*domain.TokenClaims, error) {
	if m.ValidateAccessTokenFunc != nil {
		return m.ValidateAccessTokenFunc(token)
	}
	return defaultClaims(token, 15*time.Minute)
}

func (m *MockTokenService) ValidateRefreshToken(token string) (*domain.TokenClaims, error) {
	if m.ValidateRefreshTokenFunc != nil {
		return m.ValidateRefreshTokenFunc(token)
	}
	return defaultClaims(token, 7*24*time.Hour)
}

func defaultClaims(token string, ttl time.Duration) (*domain.TokenClaims, error) {
	if token == "" {
		return nil, domain.ErrTokenInvalid
	}
	now := time.Now()
	return &domain.TokenClaims{
		UserID:    1,
		Role:      domain.RolePatient,
		SessionID: "session-1",
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}, nil
}

var (
	_ domain.UserRepository    = (*MockUserRepository)(nil)
	_ domain.SessionRepository = (*MockSessionRepository)(nil)
	_ domain.PasswordService   = (*MockPasswordService)(nil)
	_ domain.TokenService      = (*MockTokenService)(nil)
)
