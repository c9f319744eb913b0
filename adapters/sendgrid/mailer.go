// Package sendgrid provides a usermanagement.Mailer backed by the SendGrid
// v3 API. Templates are registered by name and rendered with the template
// data passed to SendTemplateEmail.
package sendgrid

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	usermanagement "github.com/goliatone/go-usermanagement"
)

// Mailer implements usermanagement.Mailer over SendGrid.
type Mailer struct {
	client     *sendgrid.Client
	senderName string
	templates  map[string]*template.Template
	logger     usermanagement.Logger
}

var _ usermanagement.Mailer = (*Mailer)(nil)

type Option func(*Mailer)

func WithSenderName(name string) Option {
	return func(m *Mailer) {
		m.senderName = name
	}
}

// WithTemplate registers an HTML template under the name used by callers of
// SendTemplateEmail.
func WithTemplate(name string, tmpl *template.Template) Option {
	return func(m *Mailer) {
		m.templates[name] = tmpl
	}
}

func WithLogger(logger usermanagement.Logger) Option {
	return func(m *Mailer) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func New(apiKey string, opts ...Option) *Mailer {
	m := &Mailer{
		client:    sendgrid.NewSendClient(apiKey),
		templates: map[string]*template.Template{},
		logger:    noopLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m
}

func (m *Mailer) SendTemplateEmail(
	ctx context.Context,
	templateName string,
	subject string,
	recipients []string,
	templateData map[string]any,
	senderAddress string,
	cc []string,
	bcc []string,
	attachments []usermanagement.Attachment,
	replyToAddress string,
) error {
	tmpl, ok := m.templates[templateName]
	if !ok {
		return fmt.Errorf("no template registered under %q", templateName)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, templateData); err != nil {
		return fmt.Errorf("failed to render template %q: %w", templateName, err)
	}

	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail(m.senderName, senderAddress))
	message.Subject = subject
	message.AddContent(mail.NewContent("text/html", body.String()))

	personalization := mail.NewPersonalization()
	for _, to := range recipients {
		personalization.AddTos(mail.NewEmail("", to))
	}
	for _, addr := range cc {
		personalization.AddCCs(mail.NewEmail("", addr))
	}
	for _, addr := range bcc {
		personalization.AddBCCs(mail.NewEmail("", addr))
	}
	message.AddPersonalizations(personalization)

	if replyToAddress != "" {
		message.SetReplyTo(mail.NewEmail("", replyToAddress))
	}

	for _, att := range attachments {
		attachment := mail.NewAttachment()
		attachment.SetFilename(att.Filename)
		attachment.SetType(att.ContentType)
		attachment.SetContent(base64.StdEncoding.EncodeToString(att.Content))
		message.AddAttachment(attachment)
	}

	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send failed: %w", err)
	}

	if response.StatusCode >= 400 {
		m.logger.Error("sendgrid rejected message: status %d body %s", response.StatusCode, response.Body)
		return fmt.Errorf("sendgrid rejected message with status %d", response.StatusCode)
	}

	return nil
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
