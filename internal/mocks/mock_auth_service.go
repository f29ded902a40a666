package mocks

import (
	"context"
	"time"

	"github.com/cuido/cuidosvc/domain"
)

// MockAuthService implements domain.AuthService interface for testing
type MockAuthService struct {
	RegisterFunc       func(ctx context.Context, in domain.RegisterInput) (*domain.User, error)
	LoginFunc          func(ctx context.Context, email, password string) (*domain.AuthResult, error)
	RefreshTokenFunc   func(ctx context.Context, refreshToken string) (*domain.AuthResult, error)
	LogoutFunc         func(ctx context.Context, sessionID string) error
	GetUserProfileFunc func(ctx context.Context, userID uint) (*domain.User, error)
	ChangePasswordFunc func(ctx context.Context, userID uint, current, next string) error
	UpdateAccountFunc  func(ctx context.Context, userID uint, in domain.AccountInput) (*domain.User, error)
	DeleteAccountFunc  func(ctx context.Context, userID uint, password, sessionID string) error
}

// NewMockAuthService creates a new MockAuthService with default behaviors
func NewMockAuthService() *MockAuthService {
	return &MockAuthService{}
}

// Register registers a new user
func (m *MockAuthService) Register(ctx context.Context, in domain.RegisterInput) (*domain.User, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, in)
	}
	return &domain.User{
		ID:           1,
		FullName:     in.FullName,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: "hashed_" + in.Password,
		Role:         in.Role,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}, nil
}

// Login authenticates a user
func (m *MockAuthService) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return &domain.AuthResult{
		User:         &domain.User{ID: 1, Email: email, Role: domain.RolePatient, IsActive: true},
		AccessToken:  "mock_access_token",
		RefreshToken: "mock_refresh_token",
		SessionID:    "mock_session_id",
		ExpiresIn:    900,
	}, nil
}

// RefreshToken issues a new access token
func (m *MockAuthService) RefreshToken(ctx context.Context, refreshToken string) (*domain.AuthResult, error) {
	if m.RefreshTokenFunc != nil {
		return m.RefreshTokenFunc(ctx, refreshToken)
	}
	return &domain.AuthResult{
		User:         &domain.User{ID: 1, Email: "test@example.com", Role: domain.RolePatient, IsActive: true},
		AccessToken:  "new_mock_access_token",
		RefreshToken: refreshToken,
		SessionID:    "mock_session_id",
		ExpiresIn:    900,
	}, nil
}

// Logout ends a session
func (m *MockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, sessionID)
	}
	return nil
}

// GetUserProfile returns a user's profile
func (m *MockAuthService) GetUserProfile(ctx context.Context, userID uint) (*domain.User, error) {
	if m.GetUserProfileFunc != nil {
		return m.GetUserProfileFunc(ctx, userID)
	}
	return &domain.User{ID: userID, Email: "test@example.com", Role: domain.RolePatient, IsActive: true}, nil
}

// ChangePassword replaces a user's password
func (m *MockAuthService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	if m.ChangePasswordFunc != nil {
		return m.ChangePasswordFunc(ctx, userID, current, next)
	}
	return nil
}

// Compile-time interface compliance verification
var _ domain.AuthService = (*MockAuthService)(nil)

// MockPasswordResetService implements domain.PasswordResetService interface for testing
type MockPasswordResetService struct {
	RequestResetFunc  func(ctx context.Context, email string) error
	ResetPasswordFunc func(ctx context.Context, code, newPassword string) error
	SweepExpiredFunc  func(ctx context.Context) (int64, error)
}

// NewMockPasswordResetService creates a new MockPasswordResetService
func NewMockPasswordResetService() *MockPasswordResetService {
	return &MockPasswordResetService{}
}

// RequestReset issues a reset code
func (m *MockPasswordResetService) RequestReset(ctx context.Context, email string) error {
	if m.RequestResetFunc != nil {
		return m.RequestResetFunc(ctx, email)
	}
	return nil
}

// ResetPassword consumes a reset code
func (m *MockPasswordResetService) ResetPassword(ctx context.Context, code, newPassword string) error {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, code, newPassword)
	}
	return nil
}

// SweepExpired removes expired codes
func (m *MockPasswordResetService) SweepExpired(ctx context.Context) (int64, error) {
	if m.SweepExpiredFunc != nil {
		return m.SweepExpiredFunc(ctx)
	}
	return 0, nil
}

var _ domain.PasswordResetService = (*MockPasswordResetService)(nil)

// UpdateAccount applies in to a stub user
func (m *MockAuthService) UpdateAccount(ctx context.Context, userID uint, in domain.AccountInput) (*domain.User, error) {
	if m.UpdateAccountFunc != nil {
		return m.UpdateAccountFunc(ctx, userID, in)
	}
	u := &domain.User{ID: userID, FullName: "Test User", Email: "test@example.com", Role: domain.RolePatient, IsActive: true}
	if err := u.ApplyAccount(in); err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteAccount closes an account
func (m *MockAuthService) DeleteAccount(ctx context.Context, userID uint, password, sessionID string) error {
	if m.DeleteAccountFunc != nil {
		return m.DeleteAccountFunc(ctx, userID, password, sessionID)
	}
	return nil
}
