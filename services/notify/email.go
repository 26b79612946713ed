package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"

	"ikonwatch/logger"
	"ikonwatch/pkg/errors"

	"github.com/jordan-wright/email"
)

// EmailConfig holds the optional SMTP channel settings
type EmailConfig struct {
	Addr     string // host:port
	User     string
	Password string
	From     string
	To       []string
}

// EmailNotifier sends the alert as a plain-text email over SMTP
type EmailNotifier struct {
	cfg EmailConfig
	log *logger.Logger
}

var _ Notifier = (*EmailNotifier)(nil)

// NewEmailNotifier creates an email notifier for the given SMTP server
func NewEmailNotifier(cfg EmailConfig) *EmailNotifier {
	return &EmailNotifier{
		cfg: cfg,
		log: logger.ForComponent("email"),
	}
}

// Name identifies the channel in logs
func (e *EmailNotifier) Name() string {
	return "email"
}

// Send dispatches the message to the configured recipients
func (e *EmailNotifier) Send(ctx context.Context, message string) error {
	host, _, err := net.SplitHostPort(e.cfg.Addr)
	if err != nil {
		return errors.NewNotify("email", fmt.Sprintf("invalid SMTP address %q", e.cfg.Addr), err)
	}

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("ikonwatch <%s>", e.cfg.From)
	mail.To = e.cfg.To
	mail.Subject = "Ikon Pass availability"
	mail.Text = []byte(message)

	var auth smtp.Auth
	if e.cfg.User != "" {
		auth = smtp.PlainAuth("", e.cfg.User, e.cfg.Password, host)
	}
	if err := mail.Send(e.cfg.Addr, auth); err != nil {
		return errors.NewTransport("email", "smtp send failed", err)
	}

	e.log.Info().Int("recipients", len(e.cfg.To)).Msg("Email sent")
	return nil
}
