package notification

import (
	"context"
	"fmt"

	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

// twilioMessages is the part of the Twilio REST API the sender uses
type twilioMessages interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioSMSSender sends SMS through the Twilio Messages API
type TwilioSMSSender struct {
	api    twilioMessages
	from   string
	logger *zap.Logger
}

// NewTwilioSMSSender creates a sender from the SMS configuration
func NewTwilioSMSSender(cfg config.SMSConfig, logger *zap.Logger) *TwilioSMSSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return newTwilioSMSSender(client.Api, cfg.From, logger)
}

func newTwilioSMSSender(api twilioMessages, from string, logger *zap.Logger) *TwilioSMSSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TwilioSMSSender{api: api, from: from, logger: logger}
}

// SendSMS delivers body to the phone number. The Twilio client has no
// context support; ctx is only checked before the call.
func (s *TwilioSMSSender) SendSMS(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		s.logger.Error("Failed to send SMS via Twilio", zap.String("to", to), zap.Error(err))
		return fmt.Errorf("%w: twilio: %v", ErrDeliveryFailed, err)
	}

	sid := ""
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}
	s.logger.Debug("SMS sent", zap.String("to", to), zap.String("sid", sid))
	return nil
}

var _ SMSSender = (*TwilioSMSSender)(nil)
