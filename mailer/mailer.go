// Package mailer delivers account lifecycle emails over SMTP.
package mailer

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

// Config holds SMTP transport and addressing options.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// BaseURL is the client application root used to build links,
	// e.g. https://app.example.com
	BaseURL string
}

// SMTPMailer sends verification and password reset emails.
type SMTPMailer struct {
	cfg Config
}

func NewSMTPMailer(cfg Config) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("mailer: missing SMTP host")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("mailer: missing from address")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPMailer{cfg: cfg}, nil
}

func (m *SMTPMailer) SendVerificationEmail(ctx context.Context, email, token string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", m.cfg.BaseURL, token)
	body := fmt.Sprintf(`<p>Welcome!</p>
<p>Please verify your email address by clicking the link below:</p>
<p><a href="%s">Verify email</a></p>
<p>If you did not create an account, you can ignore this message.</p>`, link)

	return m.send(ctx, email, "Verify your email address", body)
}

func (m *SMTPMailer) SendPasswordResetEmail(ctx context.Context, email, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", m.cfg.BaseURL, token)
	body := fmt.Sprintf(`<p>You requested a password reset.</p>
<p>Click the link below to choose a new password. The link expires in 1 hour:</p>
<p><a href="%s">Reset password</a></p>
<p>If you did not request this, you can ignore this message.</p>`, link)

	return m.send(ctx, email, "Reset your password", body)
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("mailer: invalid from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("mailer: invalid recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("mailer: client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", to, err)
	}
	return nil
}
