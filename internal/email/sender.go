// Package email delivers transactional email for the platform. The SMTP
// sender renders embedded HTML templates, the noop sender keeps the rest of
// the application working when email is disabled.
package email

import (
	"context"

	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/config"
)

// Sender sends the platform's transactional emails.
type Sender interface {
	SendWelcomeEmail(ctx context.Context, toEmail, salonName string) error
	SendAppointmentBookedEmail(ctx context.Context, toEmail, clientName, serviceName, professionalName, scheduledDate string) error
	SendAppointmentConfirmedEmail(ctx context.Context, toEmail, clientName, serviceName, scheduledDate string) error
	SendAppointmentCancelledEmail(ctx context.Context, toEmail, clientName, serviceName, scheduledDate string) error
	SendEscalationAlertEmail(ctx context.Context, toEmail, clientName, serviceName, scheduledDate, responseDeadline string) error
}

// NewSender builds the configured Sender. Without an SMTP host every email
// is silently discarded.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}, nil
	}

	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	), nil
}

// NoopSender discards all email. Used when no SMTP host is configured.
type NoopSender struct{}

func (NoopSender) SendWelcomeEmail(ctx context.Context, toEmail, salonName string) error {
	return nil
}

func (NoopSender) SendAppointmentBookedEmail(ctx context.Context, toEmail, clientName, serviceName, professionalName, scheduledDate string) error {
	return nil
}

func (NoopSender) SendAppointmentConfirmedEmail(ctx context.Context, toEmail, clientName, serviceName, scheduledDate string) error {
	return nil
}

func (NoopSender) SendAppointmentCancelledEmail(ctx context.Context, toEmail, clientName, serviceName, scheduledDate string) error {
	return nil
}

func (NoopSender) SendEscalationAlertEmail(ctx context.Context, toEmail, clientName, serviceName, scheduledDate, responseDeadline string) error {
	return nil
}

// Compile-time check that NoopSender implements Sender
var _ Sender = NoopSender{}
