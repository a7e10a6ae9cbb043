package email

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements the Sender interface over a direct SMTP connection
// via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) SendWelcomeEmail(ctx context.Context, toEmail, salonName string) error {
	content, err := renderEmailTemplate("welcome.html", welcomeEmailData{
		baseEmailData: baseEmailData{
			Title:   "Bem-vindo",
			Heading: "Seu salão está pronto",
		},
		SalonName: salonName,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectWelcomeFmt, salonName), content)
}

func (s *SMTPSender) SendAppointmentBookedEmail(ctx context.Context, toEmail, clientName, serviceName, professionalName, scheduledDate string) error {
	content, err := renderEmailTemplate("appointment_booked.html", appointmentBookedEmailData{
		baseEmailData: baseEmailData{
			Title:   "Horário reservado",
			Heading: "Horário reservado",
		},
		ClientName:       clientName,
		ServiceName:      serviceName,
		ProfessionalName: professionalName,
		ScheduledDate:    scheduledDate,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectAppointmentBooked, content)
}

func (s *SMTPSender) SendAppointmentConfirmedEmail(ctx context.Context, toEmail, clientName, serviceName, scheduledDate string) error {
	content, err := renderEmailTemplate("appointment_confirmed.html", appointmentConfirmedEmailData{
		baseEmailData: baseEmailData{
			Title:   "Agendamento confirmado",
			Heading: "Agendamento confirmado",
		},
		ClientName:    clientName,
		ServiceName:   serviceName,
		ScheduledDate: scheduledDate,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectAppointmentConfirmed, content)
}

func (s *SMTPSender) SendAppointmentCancelledEmail(ctx context.Context, toEmail, clientName, serviceName, scheduledDate string) error {
	content, err := renderEmailTemplate("appointment_cancelled.html", appointmentCancelledEmailData{
		baseEmailData: baseEmailData{
			Title:   "Agendamento cancelado",
			Heading: "Agendamento cancelado",
		},
		ClientName:    clientName,
		ServiceName:   serviceName,
		ScheduledDate: scheduledDate,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectAppointmentCancelled, content)
}

func (s *SMTPSender) SendEscalationAlertEmail(ctx context.Context, toEmail, clientName, serviceName, scheduledDate, responseDeadline string) error {
	content, err := renderEmailTemplate("escalation_alert.html", escalationAlertEmailData{
		baseEmailData: baseEmailData{
			Title:   "Cliente em atraso",
			Heading: "Cliente em atraso",
		},
		ClientName:       clientName,
		ServiceName:      serviceName,
		ScheduledDate:    scheduledDate,
		ResponseDeadline: responseDeadline,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectEscalationAlertFmt, clientName), content)
}

// Compile-time check that SMTPSender implements Sender
var _ Sender = (*SMTPSender)(nil)
