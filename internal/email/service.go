// Package email delivers account notifications.
package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/redmonkez12/matcha/internal/domain"
	"github.com/redmonkez12/matcha/internal/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

// Message is a rendered HTML email.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// Sender is the transport under Service.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type Service struct {
	sender Sender
	from   string
	logger *logging.Logger

	verify *template.Template
	reset  *template.Template
}

func NewService(sender Sender, from string, logger *logging.Logger) (*Service, error) {
	verify, err := template.ParseFS(templateFS, "templates/layout.html", "templates/verify.html")
	if err != nil {
		return nil, fmt.Errorf("parse verification template: %w", err)
	}
	reset, err := template.ParseFS(templateFS, "templates/layout.html", "templates/reset.html")
	if err != nil {
		return nil, fmt.Errorf("parse password reset template: %w", err)
	}

	return &Service{
		sender: sender,
		from:   from,
		logger: logger,
		verify: verify,
		reset:  reset,
	}, nil
}

type templateData struct {
	Heading string
	Action  string
	Link    string
	Expiry  string
}

// SendVerificationEmail sends the email verification link.
func (s *Service) SendVerificationEmail(ctx context.Context, to, link string) error {
	body, err := render(s.verify, templateData{
		Heading: "Welcome to Matcha",
		Action:  "Verify Email Address",
		Link:    link,
		Expiry:  "24 hours",
	})
	if err != nil {
		return err
	}
	return s.Send(ctx, to, "Verify your email address", body)
}

// SendPasswordResetEmail sends the password reset link.
func (s *Service) SendPasswordResetEmail(ctx context.Context, to, link string) error {
	body, err := render(s.reset, templateData{
		Heading: "Password Reset Request",
		Action:  "Reset Password",
		Link:    link,
		Expiry:  "1 hour",
	})
	if err != nil {
		return err
	}
	return s.Send(ctx, to, "Reset your password", body)
}

// Send delivers an HTML body. Transport failures wrap domain.ErrDelivery.
func (s *Service) Send(ctx context.Context, to, subject, body string) error {
	msg := Message{From: s.from, To: to, Subject: subject, HTML: body}
	if err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrDelivery, subject, err)
	}

	logging.FromContext(ctx, s.logger).Debug("email sent", "subject", subject)
	return nil
}

func render(t *template.Template, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}
