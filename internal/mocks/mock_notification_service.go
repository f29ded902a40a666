package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/cuido/cuidosvc/domain"
)

// MockNotificationService implements domain.NotificationService interface for testing
type MockNotificationService struct {
	SendSMSFunc   func(ctx context.Context, to, message string) error
	SendEmailFunc func(ctx context.Context, to, subject, body string) error
}

// NewMockNotificationService creates a new MockNotificationService with default behaviors
func NewMockNotificationService() *MockNotificationService {
	return &MockNotificationService{}
}

// SendSMS sends an SMS message
func (m *MockNotificationService) SendSMS(ctx context.Context, to, message string) error {
	if m.SendSMSFunc != nil {
		return m.SendSMSFunc(ctx, to, message)
	}
	return nil
}

// SendEmail sends an email message
func (m *MockNotificationService) SendEmail(ctx context.Context, to, subject, body string) error {
	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(ctx, to, subject, body)
	}
	return nil
}

// Compile-time interface compliance verification
var _ domain.NotificationService = (*MockNotificationService)(nil)

// NotifierCall records one message handed to MockNotifier.
type NotifierCall struct {
	Kind string
	To   string
	Code string
}

// MockNotifier implements domain.Notifier. Calls are recorded, and Err (when
// set) is returned from every send.
type MockNotifier struct {
	Err error

	mu    sync.Mutex
	calls []NotifierCall
}

// NewMockNotifier creates a new MockNotifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) record(c NotifierCall) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, c)
	return m.Err
}

// Calls returns a copy of the recorded calls.
func (m *MockNotifier) Calls() []NotifierCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]NotifierCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// SendInvitation records an invitation
func (m *MockNotifier) SendInvitation(ctx context.Context, caregiver, patient *domain.User) error {
	return m.record(NotifierCall{Kind: "invitation", To: caregiver.Email})
}

// SendOTP records a reset code
func (m *MockNotifier) SendOTP(ctx context.Context, user *domain.User, code string, ttl time.Duration) error {
	return m.record(NotifierCall{Kind: "otp", To: user.Email, Code: code})
}

// SendPasswordChanged records a password change confirmation
func (m *MockNotifier) SendPasswordChanged(ctx context.Context, user *domain.User) error {
	return m.record(NotifierCall{Kind: "password_changed", To: user.Email})
}

// SendWelcome records a welcome message
func (m *MockNotifier) SendWelcome(ctx context.Context, user *domain.User) error {
	return m.record(NotifierCall{Kind: "welcome", To: user.Email})
}

var _ domain.Notifier = (*MockNotifier)(nil)
