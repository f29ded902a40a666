package notifications

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/cuido/cuidosvc/domain"
	"go.uber.org/zap"
)

// NotifierImpl implements domain.Notifier with HTML e-mail and, when the
// user has a phone number, an SMS copy of the reset code
type NotifierImpl struct {
	transport domain.NotificationService
	appURL    string
	log       *zap.Logger
}

// NewNotifier creates a notifier on top of a message transport
func NewNotifier(transport domain.NotificationService, appURL string, log *zap.Logger) domain.Notifier {
	return &NotifierImpl{transport: transport, appURL: appURL, log: log.Named("notifier")}
}

func displayName(u *domain.User) string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

func roleLabel(r domain.Role) string {
	switch r {
	case domain.RolePatient:
		return "paciente"
	case domain.RoleCaregiver:
		return "cuidador"
	default:
		return "administrador"
	}
}

func (n *NotifierImpl) send(ctx context.Context, to, subject string, tmpl *template.Template, data emailData) error {
	data.Title = subject
	data.AppURL = n.appURL
	body, err := render(tmpl, data)
	if err != nil {
		return err
	}
	if err := n.transport.SendEmail(ctx, to, subject, body); err != nil {
		return fmt.Errorf("failed to send %q to %s: %w", subject, to, err)
	}
	n.log.Debug("email sent", zap.String("template", tmpl.Name()), zap.String("to", to))
	return nil
}

// SendWelcome implements domain.Notifier
func (n *NotifierImpl) SendWelcome(ctx context.Context, user *domain.User) error {
	return n.send(ctx, user.Email, "¡Bienvenido a Cuido!", welcomeTemplate, emailData{
		Name:      displayName(user),
		RoleLabel: roleLabel(user.Role),
	})
}

// SendOTP implements domain.Notifier
func (n *NotifierImpl) SendOTP(ctx context.Context, user *domain.User, code string, ttl time.Duration) error {
	err := n.send(ctx, user.Email, "Código de recuperación de contraseña", otpTemplate, emailData{
		Name:    displayName(user),
		Code:    code,
		Minutes: int(ttl.Minutes()),
	})
	if user.Phone == "" {
		return err
	}
	msg := fmt.Sprintf("Cuido: tu código de recuperación es %s. Vence en %d minutos.", code, int(ttl.Minutes()))
	if smsErr := n.transport.SendSMS(ctx, user.Phone, msg); smsErr != nil {
		err = errors.Join(err, fmt.Errorf("failed to send reset code by sms: %w", smsErr))
	}
	return err
}

// SendPasswordChanged implements domain.Notifier
func (n *NotifierImpl) SendPasswordChanged(ctx context.Context, user *domain.User) error {
	return n.send(ctx, user.Email, "Contraseña actualizada", passwordChangedTemplate, emailData{
		Name: displayName(user),
	})
}

// SendInvitation implements domain.Notifier
func (n *NotifierImpl) SendInvitation(ctx context.Context, caregiver, patient *domain.User) error {
	return n.send(ctx, caregiver.Email, "Invitación para ser cuidador en Cuido", invitationTemplate, emailData{
		Name:        displayName(caregiver),
		PatientName: displayName(patient),
	})
}
