// Package mail renders and delivers the notification emails.
package mail

import (
	"context"
	"embed"
	"fmt"
	"path"
	"strings"
	"html/template"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

//go:embed templates/*.gohtml
var templatesFS embed.FS

type TemplateName string

const (
	TemplateTicketConfirmation TemplateName = "ticket_confirmation.gohtml"
	TemplateLawyerNotification TemplateName = "lawyer_notification.gohtml"
	TemplateWelcome            TemplateName = "welcome.gohtml"
)

var templateSubjects = map[TemplateName]string{
	TemplateTicketConfirmation: "We received your request",
	TemplateLawyerNotification: "New intake request",
	TemplateWelcome:            "Welcome",
}

// Message is a rendered email ready for delivery.
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
}

// Sender delivers rendered messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Renderer turns template data into messages.
type Renderer struct {
	templates map[TemplateName]*template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	entries, err := templatesFS.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("error reading template directory: %w", err)
	}
	r := &Renderer{templates: make(map[TemplateName]*template.Template, len(entries))}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		tmpl, err := template.ParseFS(templatesFS, path.Join("templates", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("error parsing template '%s': %w", entry.Name(), err)
		}
		r.templates[TemplateName(entry.Name())] = tmpl
	}
	return r, nil
}

// Render executes the named template for a single recipient.
func (r *Renderer) Render(name TemplateName, to, toName string, data any) (Message, error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return Message{}, fmt.Errorf("template not found: %v", name)
	}
	subject, ok := templateSubjects[name]
	if !ok {
		return Message{}, fmt.Errorf("subject not found for template: %v", name)
	}
	body := &strings.Builder{}
	if err := tmpl.Execute(body, data); err != nil {
		return Message{}, fmt.Errorf("error executing template: %w", err)
	}
	return Message{To: to, ToName: toName, Subject: subject, HTML: body.String()}, nil
}

// SendGridSender delivers through the SendGrid v3 API.
type SendGridSender struct {
	client *sendgrid.Client
	from   *sgmail.Email
}

// NewSendGridSender builds a sender for apiKey.
func NewSendGridSender(apiKey, fromName, fromEmail string) *SendGridSender {
	return &SendGridSender{
		client: sendgrid.NewSendClient(apiKey),
		from:   sgmail.NewEmail(fromName, fromEmail),
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	email := sgmail.NewSingleEmail(s.from, msg.Subject, sgmail.NewEmail(msg.ToName, msg.To), "", msg.HTML)
	resp, err := s.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("error sending email: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("error sending email bad status code: %s, status code: %d", resp.Body, resp.StatusCode)
	}
	return nil
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("mail not delivered, no provider configured",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject))
	return nil
}
