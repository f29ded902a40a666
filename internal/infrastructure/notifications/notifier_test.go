package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cuido/cuidosvc/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sentEmail struct{ to, subject, body string }
type sentSMS struct{ to, message string }

type recordingTransport struct {
	emails   []sentEmail
	sms      []sentSMS
	emailErr error
	smsErr   error
}

func (r *recordingTransport) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	r.emails = append(r.emails, sentEmail{to, subject, htmlBody})
	return r.emailErr
}

func (r *recordingTransport) SendSMS(ctx context.Context, to, message string) error {
	r.sms = append(r.sms, sentSMS{to, message})
	return r.smsErr
}

func TestNotifier_SendOTP(t *testing.T) {
	tests := []struct {
		name      string
		phone     string
		wantSMS   int
		transport *recordingTransport
		wantErr   bool
	}{
		{"email only", "", 0, &recordingTransport{}, false},
		{"email and sms", "+5491155550000", 1, &recordingTransport{}, false},
		{"sms failure is reported", "+5491155550000", 1, &recordingTransport{smsErr: errors.New("twilio down")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNotifier(tt.transport, "", zap.NewNop())
			user := &domain.User{FullName: "Ana Gómez", Email: "ana@example.com", Phone: tt.phone}

			err := n.SendOTP(context.Background(), user, "482913", 15*time.Minute)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			require.Len(t, tt.transport.emails, 1)
			mail := tt.transport.emails[0]
			assert.Equal(t, "ana@example.com", mail.to)
			assert.Contains(t, mail.body, "482913")
			assert.Contains(t, mail.body, "15 minutos")
			assert.Contains(t, mail.body, "Ana Gómez")

			require.Len(t, tt.transport.sms, tt.wantSMS)
			if tt.wantSMS > 0 {
				assert.Contains(t, tt.transport.sms[0].message, "482913")
			}
		})
	}
}

func TestNotifier_EscapesUserInput(t *testing.T) {
	tr := &recordingTransport{}
	n := NewNotifier(tr, "https://cuido.app", zap.NewNop())

	caregiver := &domain.User{Email: "c@example.com", FullName: "Carla"}
	patient := &domain.User{Email: "p@example.com", FullName: "<script>alert(1)</script>"}
	require.NoError(t, n.SendInvitation(context.Background(), caregiver, patient))

	body := tr.emails[0].body
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
	assert.Contains(t, body, "https://cuido.app")
	assert.Equal(t, "c@example.com", tr.emails[0].to)
}

func TestNotifier_WelcomeAndPasswordChanged(t *testing.T) {
	tr := &recordingTransport{}
	n := NewNotifier(tr, "", zap.NewNop())
	ctx := context.Background()

	require.NoError(t, n.SendWelcome(ctx, &domain.User{Email: "x@example.com", Role: domain.RoleCaregiver}))
	require.NoError(t, n.SendPasswordChanged(ctx, &domain.User{Email: "x@example.com", FullName: "Xime"}))

	require.Len(t, tr.emails, 2)
	assert.Contains(t, tr.emails[0].body, "cuidador")
	assert.Contains(t, tr.emails[0].body, "x@example.com", "falls back to e-mail when the name is empty")
	assert.Equal(t, "Contraseña actualizada", tr.emails[1].subject)
}

func TestNotifier_TransportErrorIsWrapped(t *testing.T) {
	boom := errors.New("boom")
	n := NewNotifier(&recordingTransport{emailErr: boom}, "", zap.NewNop())

	err := n.SendPasswordChanged(context.Background(), &domain.User{Email: "x@example.com"})
	assert.ErrorIs(t, err, boom)
}

func TestSendGridMailer_PostsV3Mail(t *testing.T) {
	var got map[string]interface{}
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	m := NewSendGridMailer("SG.key", srv.URL, "Cuido", "no-reply@cuido.app", zap.NewNop())
	require.True(t, m.Configured())
	require.NoError(t, m.SendEmail(context.Background(), "ana@example.com", "Hola", "<p>hi</p>"))

	assert.Equal(t, "Bearer SG.key", auth)
	assert.Equal(t, "Hola", got["subject"])
	from := got["from"].(map[string]interface{})
	assert.Equal(t, "no-reply@cuido.app", from["email"])
}

func TestSendGridMailer_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer srv.Close()

	m := NewSendGridMailer("SG.bad", srv.URL, "Cuido", "no-reply@cuido.app", zap.NewNop())
	err := m.SendEmail(context.Background(), "ana@example.com", "Hola", "<p>hi</p>")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "401"))
}

func TestUnconfiguredProvidersDropMessages(t *testing.T) {
	svc := NewNotificationService(
		NewSendGridMailer("", "", "Cuido", "no-reply@cuido.app", zap.NewNop()),
		NewTwilioSMS("", "", "", zap.NewNop()),
	)
	ctx := context.Background()

	assert.NoError(t, svc.SendEmail(ctx, "a@example.com", "s", "b"))
	assert.NoError(t, svc.SendSMS(ctx, "+100", "m"))
}
