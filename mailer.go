package accounts

import (
	"context"
	"fmt"
)

// NoopMailer drops every message. Used as the default so handlers never have
// to nil-check their mailer.
type NoopMailer struct{}

func (NoopMailer) SendVerificationEmail(context.Context, string, string) error  { return nil }
func (NoopMailer) SendPasswordResetEmail(context.Context, string, string) error { return nil }

var _ Mailer = NoopMailer{}

// LogMailer prints the links that would have been mailed. It stands in for a
// real transport during local development.
type LogMailer struct {
	BaseURL string
}

var _ Mailer = LogMailer{}

func (m LogMailer) SendVerificationEmail(_ context.Context, email, token string) error {
	printEmailNotification(email, fmt.Sprintf("%s/verify-email?token=%s", m.BaseURL, token))
	return nil
}

func (m LogMailer) SendPasswordResetEmail(_ context.Context, email, token string) error {
	printEmailNotification(email, fmt.Sprintf("%s/reset-password?token=%s", m.BaseURL, token))
	return nil
}

func printEmailNotification(email, link string) {
	fmt.Println("====== SENDING EMAIL NOTIFICATION =======")
	fmt.Printf("to: %s\n", email)
	fmt.Printf("link: %s\n", link)
}
