// Package notification delivers e-mail (SendGrid) and SMS (Twilio) messages.
package notification

import (
	"context"
	"errors"
)

// ErrDeliveryFailed wraps provider failures
var ErrDeliveryFailed = errors.New("notification delivery failed")

// Email is a single plain-text message
type Email struct {
	ToName    string
	ToAddress string
	Subject   string
	Text      string
	HTML      string
}

// Mailer sends e-mail
type Mailer interface {
	Send(ctx context.Context, msg Email) error
}

// SMSSender sends text messages to E.164 phone numbers
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}
