package notification

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// LogMailer writes messages to the log instead of sending them. It is used
// when mail delivery is disabled and keeps the messages for inspection.
type LogMailer struct {
	logger *zap.Logger

	mu   sync.Mutex
	sent []Email
}

// NewLogMailer creates a LogMailer
func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, msg Email) error {
	m.logger.Info("E-mail delivery disabled, message logged",
		zap.String("to", msg.ToAddress),
		zap.String("subject", msg.Subject),
		zap.String("text", msg.Text),
	)
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	return nil
}

// Sent returns a copy of the logged messages
func (m *LogMailer) Sent() []Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Email(nil), m.sent...)
}

// SMS is a logged text message
type SMS struct {
	To   string
	Body string
}

// LogSMSSender is the SMS counterpart of LogMailer
type LogSMSSender struct {
	logger *zap.Logger

	mu   sync.Mutex
	sent []SMS
}

// NewLogSMSSender creates a LogSMSSender
func NewLogSMSSender(logger *zap.Logger) *LogSMSSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSMSSender{logger: logger}
}

func (s *LogSMSSender) SendSMS(_ context.Context, to, body string) error {
	s.logger.Info("SMS delivery disabled, message logged", zap.String("to", to), zap.String("body", body))
	s.mu.Lock()
	s.sent = append(s.sent, SMS{To: to, Body: body})
	s.mu.Unlock()
	return nil
}

// Sent returns a copy of the logged messages
func (s *LogSMSSender) Sent() []SMS {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SMS(nil), s.sent...)
}

var (
	_ Mailer    = (*LogMailer)(nil)
	_ SMSSender = (*LogSMSSender)(nil)
)
