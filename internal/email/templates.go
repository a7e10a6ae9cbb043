package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

type welcomeEmailData struct {
	baseEmailData
	SalonName string
}

type appointmentBookedEmailData struct {
	baseEmailData
	ClientName       string
	ServiceName      string
	ProfessionalName string
	ScheduledDate    string
}

type appointmentConfirmedEmailData struct {
	baseEmailData
	ClientName    string
	ServiceName   string
	ScheduledDate string
}

type appointmentCancelledEmailData struct {
	baseEmailData
	ClientName    string
	ServiceName   string
	ScheduledDate string
}

type escalationAlertEmailData struct {
	baseEmailData
	ClientName       string
	ServiceName      string
	ScheduledDate    string
	ResponseDeadline string
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}
