package notification

import (
	"context"
	"fmt"
	"net/http"

	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// sendgridClient is the part of *sendgrid.Client the mailer uses
type sendgridClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridMailer sends e-mail through the SendGrid v3 API
type SendGridMailer struct {
	client  sendgridClient
	from    *mail.Email
	sandbox bool
	logger  *zap.Logger
}

// NewSendGridMailer creates a mailer from the mail configuration
func NewSendGridMailer(cfg config.MailConfig, logger *zap.Logger) *SendGridMailer {
	return newSendGridMailer(sendgrid.NewSendClient(cfg.APIKey), cfg, logger)
}

func newSendGridMailer(client sendgridClient, cfg config.MailConfig, logger *zap.Logger) *SendGridMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SendGridMailer{
		client:  client,
		from:    mail.NewEmail(cfg.FromName, cfg.FromEmail),
		sandbox: cfg.SandboxMode,
		logger:  logger,
	}
}

// Send delivers msg. Non-2xx responses are returned as ErrDeliveryFailed.
func (m *SendGridMailer) Send(ctx context.Context, msg Email) error {
	to := mail.NewEmail(msg.ToName, msg.ToAddress)
	message := mail.NewSingleEmail(m.from, msg.Subject, to, msg.Text, msg.HTML)

	if m.sandbox {
		ms := mail.NewMailSettings()
		ms.SetSandboxMode(mail.NewSetting(true))
		message.MailSettings = ms
	}

	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		m.logger.Error("Failed to send e-mail via SendGrid", zap.String("to", msg.ToAddress), zap.Error(err))
		return fmt.Errorf("%w: sendgrid: %v", ErrDeliveryFailed, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		m.logger.Error("SendGrid rejected e-mail",
			zap.String("to", msg.ToAddress),
			zap.Int("status", resp.StatusCode),
			zap.String("body", resp.Body),
		)
		return fmt.Errorf("%w: sendgrid status %d", ErrDeliveryFailed, resp.StatusCode)
	}

	m.logger.Debug("E-mail sent", zap.String("to", msg.ToAddress), zap.String("subject", msg.Subject))
	return nil
}

var _ Mailer = (*SendGridMailer)(nil)
