package notifications

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

// TwilioSMS sends text messages through Twilio
type TwilioSMS struct {
	client     *twilio.RestClient
	fromNumber string
	log        *zap.Logger
}

// NewTwilioSMS creates a Twilio sender. With no from number configured,
// messages are logged instead of sent.
func NewTwilioSMS(accountSID, authToken, fromNumber string, log *zap.Logger) *TwilioSMS {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioSMS{
		client:     client,
		fromNumber: fromNumber,
		log:        log.Named("twilio"),
	}
}

// Configured reports whether messages are actually delivered.
func (t *TwilioSMS) Configured() bool {
	return t.fromNumber != ""
}

// SendSMS delivers message to the E.164 number to.
func (t *TwilioSMS) SendSMS(ctx context.Context, to, message string) error {
	if !t.Configured() {
		t.log.Info("sms delivery disabled, message dropped", zap.String("to", to), zap.Int("length", len(message)))
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.fromNumber)
	params.SetBody(message)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	if resp.Sid != nil {
		t.log.Debug("sms sent", zap.String("sid", *resp.Sid))
	}
	return nil
}
