package mail

import (
	"context"
	"crypto/tls"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/dayyanintl/surgishop/config"
)

// Message is a single html email
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers a message synchronously.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender sends mail through an SMTP relay with STARTTLS.
type SMTPSender struct {
	cfg config.MailConfig
}

func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) from() string {
	if s.cfg.From != "" {
		return s.cfg.From
	}
	return s.cfg.SmtpUser
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from())
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	d := gomail.NewDialer(s.cfg.SmtpHost, s.cfg.SmtpPort, s.cfg.SmtpUser, s.cfg.SmtpPwd)
	d.TLSConfig = &tls.Config{ServerName: s.cfg.SmtpHost, MinVersion: tls.VersionTLS12}
	if err := d.DialAndSend(m); err != nil {
		return errors.Wrapf(err, "send mail to %s", msg.To)
	}
	return nil
}

// LogSender is used when SMTP is not configured; it only logs.
type LogSender struct{}

func (LogSender) Send(_ context.Context, msg Message) error {
	zap.L().Warn("SMTP settings not configured, email not sent",
		zap.String("namespace", "mail"),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject))
	return nil
}

// NewSender picks the SMTP sender when the configuration is complete.
func NewSender(cfg config.MailConfig) Sender {
	if cfg.Enabled() {
		return NewSMTPSender(cfg)
	}
	return LogSender{}
}
