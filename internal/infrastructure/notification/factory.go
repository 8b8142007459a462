package notification

import (
	"github.com/crm/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewMailer returns the SendGrid mailer when mail is enabled, otherwise a LogMailer
func NewMailer(cfg config.MailConfig, logger *zap.Logger) Mailer {
	if cfg.Enabled {
		return NewSendGridMailer(cfg, logger)
	}
	return NewLogMailer(logger)
}

// NewSMSSender returns the Twilio sender when SMS is enabled, otherwise a LogSMSSender
func NewSMSSender(cfg config.SMSConfig, logger *zap.Logger) SMSSender {
	if cfg.Enabled {
		return NewTwilioSMSSender(cfg, logger)
	}
	return NewLogSMSSender(logger)
}
