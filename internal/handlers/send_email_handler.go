package handlers

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"mime/multipart"
	"net/smtp"
	"net/textproto"

	"github.com/illegalcall/cofoundr-waitlist/internal/config"
	"github.com/illegalcall/cofoundr-waitlist/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	ErrIncompleteConfig = errors.New("email configuration not complete")
	ErrUnsupportedEvent = errors.New("unsupported event type")
)

// notification is the email sent for one event type.
type notification struct {
	template string
	subject  string
}

var notifications = map[models.EventType]notification{
	models.EventAccountSignedUp: {template: "welcome.html", subject: "Welcome to CoFoundr"},
	models.EventProfileSaved:    {template: "profile_saved.html", subject: "Your CoFoundr profile is saved"},
	models.EventProfileSkipped:  {template: "waitlist_joined.html", subject: "You're on the CoFoundr waitlist"},
}

// Mailer delivers a single HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPMailer sends mail through an authenticated SMTP relay.
type SMTPMailer struct {
	cfg config.EmailConfig
}

func NewSMTPMailer(cfg config.EmailConfig) (*SMTPMailer, error) {
	if !cfg.Complete() {
		return nil, ErrIncompleteConfig
	}
	return &SMTPMailer{cfg: cfg}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Create an authentication object.
	auth := smtp.PlainAuth("", m.cfg.From, m.cfg.Password, m.cfg.Host)

	msg, err := buildMessage(m.cfg.From, to, subject, htmlBody)
	if err != nil {
		return err
	}

	// Send the email
	err = smtp.SendMail(
		fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port),
		auth,
		m.cfg.From,
		[]string{to},
		msg,
	)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func buildMessage(from, to, subject, htmlBody string) ([]byte, error) {
	// Create a new multipart writer
	var msg bytes.Buffer
	mw := multipart.NewWriter(&msg)

	// Set email headers
	msg.WriteString("MIME-version: 1.0;\r\n")
	msg.WriteString(fmt.Sprintf("From: %s\r\n", from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=%s\r\n", mw.Boundary()))
	msg.WriteString("\r\n")

	// Add the email body
	h := make(textproto.MIMEHeader)
	h.Set("Content-Type", "text/html; charset=UTF-8")
	pw, err := mw.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create email body part: %w", err)
	}
	if _, err = pw.Write([]byte(htmlBody)); err != nil {
		return nil, fmt.Errorf("failed to write email body: %w", err)
	}

	// Close the multipart writer
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return msg.Bytes(), nil
}

// NotificationHandler turns waitlist events into emails.
type NotificationHandler struct {
	mailer    Mailer
	templates *template.Template
	siteURL   string
	logger    *slog.Logger
}

func NewNotificationHandler(mailer Mailer, siteURL string, logger *slog.Logger) (*NotificationHandler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &NotificationHandler{mailer: mailer, templates: tmpl, siteURL: siteURL, logger: logger}, nil
}

// Handle renders and sends the email for ev.
func (h *NotificationHandler) Handle(ctx context.Context, ev models.Event) (models.Result, error) {
	n, ok := notifications[ev.Type]
	if !ok {
		return models.Result{}, fmt.Errorf("%w: %s", ErrUnsupportedEvent, ev.Type)
	}
	if ev.Email == "" {
		return models.Result{}, fmt.Errorf("recipient is required")
	}

	var body bytes.Buffer
	data := struct {
		Email   string
		SiteURL string
	}{Email: ev.Email, SiteURL: h.siteURL}
	if err := h.templates.ExecuteTemplate(&body, n.template, data); err != nil {
		return models.Result{}, fmt.Errorf("failed to execute template: %w", err)
	}

	if err := h.mailer.Send(ctx, ev.Email, n.subject, body.String()); err != nil {
		return models.Result{}, err
	}

	h.logger.Info("Email sent successfully", "recipient", ev.Email, "subject", n.subject, "event_id", ev.ID)

	return models.Result{
		Message: "Email sent successfully",
		Data:    map[string]interface{}{"recipient": ev.Email, "subject": n.subject},
	}, nil
}
