package notifications

import (
	"context"

	"github.com/cuido/cuidosvc/domain"
)

type emailSender interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// NotificationServiceImpl implements domain.NotificationService by routing
// each channel to its provider
type NotificationServiceImpl struct {
	email emailSender
	sms   smsSender
}

// NewNotificationService combines an e-mail and an SMS provider
func NewNotificationService(email *SendGridMailer, sms *TwilioSMS) domain.NotificationService {
	return &NotificationServiceImpl{email: email, sms: sms}
}

// SendEmail implements domain.NotificationService
func (n *NotificationServiceImpl) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	return n.email.SendEmail(ctx, to, subject, htmlBody)
}

// SendSMS implements domain.NotificationService
func (n *NotificationServiceImpl) SendSMS(ctx context.Context, to, message string) error {
	return n.sms.SendSMS(ctx, to, message)
}
