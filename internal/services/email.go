package services

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"

	"github.com/rentfold/rentfold/internal/config"
	"github.com/rentfold/rentfold/internal/logging"
)

// SignupPath is the path segment the signup UI serves; the invite code
// is appended to it to form the claim URL.
const SignupPath = "/signup/"

// Email represents an email to be sent
type Email struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// EmailProvider is the interface for sending emails
type EmailProvider interface {
	Send(ctx context.Context, email *Email) error
}

// EmailService dispatches invite and reminder messages. A send failure
// is reported to the caller and never mutates invite state.
type EmailService struct {
	provider    EmailProvider
	fromAddress string
	fromName    string
	baseURL     string
}

// NewEmailService creates a new email service based on configuration
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	var provider EmailProvider

	switch cfg.Provider {
	case "resend":
		provider = NewResendProvider(cfg.ResendAPIKey, cfg.FromName, cfg.FromAddress)
	case "smtp":
		provider = NewSMTPProvider(cfg.SMTPHost, cfg.SMTPPort, cfg.FromName, cfg.FromAddress)
	default:
		provider = NewConsoleProvider()
	}

	return &EmailService{
		provider:    provider,
		fromAddress: cfg.FromAddress,
		fromName:    cfg.FromName,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// ClaimURL builds the signup link for an invite code. Pure string
// formatting; not part of the lifecycle contract.
func (s *EmailService) ClaimURL(code string) string {
	return s.baseURL + SignupPath + code
}

// SendInviteEmail sends the initial invitation with the claim link.
func (s *EmailService) SendInviteEmail(ctx context.Context, to, firstName, code string, expiresAt time.Time) error {
	claimURL := s.ClaimURL(code)
	html, text := s.renderInviteEmail(firstName, claimURL, expiresAt)

	return s.provider.Send(ctx, &Email{
		To:      to,
		Subject: "You're invited to your tenant portal",
		HTML:    html,
		Text:    text,
	})
}

// SendReminderEmail re-sends the claim link for a still-pending invite.
func (s *EmailService) SendReminderEmail(ctx context.Context, to, firstName, code string, expiresAt time.Time) error {
	claimURL := s.ClaimURL(code)
	html, text := s.renderReminderEmail(firstName, claimURL, expiresAt)

	return s.provider.Send(ctx, &Email{
		To:      to,
		Subject: "Reminder: your tenant portal invitation is waiting",
		HTML:    html,
		Text:    text,
	})
}

func greeting(firstName string) string {
	if firstName == "" {
		return "Hello,"
	}
	return fmt.Sprintf("Hi %s,", firstName)
}

// Email templates

func (s *EmailService) renderInviteEmail(firstName, claimURL string, expiresAt time.Time) (html, text string) {
	expires := expiresAt.UTC().Format("January 2, 2006")

	html = fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #333; font-size: 24px;">Your tenant portal is ready</h1>

  <p>%s</p>

  <p>Your property manager has set up a tenant portal account for you. Click the button below to claim it:</p>

  <a href="%s"
     style="display: inline-block; background: #4F46E5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; margin: 20px 0;">
    Set Up My Account
  </a>

  <p style="color: #666; font-size: 14px;">
    This invitation expires on %s. If you weren't expecting it, you can ignore this email.
  </p>

  <p style="color: #666; font-size: 14px;">
    Or copy this link: %s
  </p>

  <hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">
  <p style="color: #999; font-size: 12px;">Rentfold - rentfold.com</p>
</body>
</html>`, greeting(firstName), claimURL, expires, claimURL)

	text = fmt.Sprintf(`%s

Your property manager has set up a tenant portal account for you.

Claim it by visiting:
%s

This invitation expires on %s.

If you weren't expecting this invitation, you can ignore this email.

--
Rentfold
rentfold.com`, greeting(firstName), claimURL, expires)

	return html, text
}

func (s *EmailService) renderReminderEmail(firstName, claimURL string, expiresAt time.Time) (html, text string) {
	expires := expiresAt.UTC().Format("January 2, 2006")

	html = fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #333; font-size: 24px;">Your invitation is still waiting</h1>

  <p>%s</p>

  <p>You haven't claimed your tenant portal account yet. It only takes a minute:</p>

  <a href="%s"
     style="display: inline-block; background: #4F46E5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; margin: 20px 0;">
    Set Up My Account
  </a>

  <p style="color: #666; font-size: 14px;">
    This invitation expires on %s. After that your property manager will need to send a new one.
  </p>

  <p style="color: #666; font-size: 14px;">
    Or copy this link: %s
  </p>

  <hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">
  <p style="color: #999; font-size: 12px;">Rentfold - rentfold.com</p>
</body>
</html>`, greeting(firstName), claimURL, expires, claimURL)

	text = fmt.Sprintf(`%s

You haven't claimed your tenant portal account yet.

Claim it by visiting:
%s

This invitation expires on %s. After that your property manager will
need to send a new one.

--
Rentfold
rentfold.com`, greeting(firstName), claimURL, expires)

	return html, text
}

// ResendProvider sends emails using the Resend API
type ResendProvider struct {
	client *resend.Client
	from   string
}

func NewResendProvider(apiKey, fromName, fromAddress string) *ResendProvider {
	return &ResendProvider{
		client: resend.NewClient(apiKey),
		from:   fmt.Sprintf("%s <%s>", fromName, fromAddress),
	}
}

func (p *ResendProvider) Send(ctx context.Context, email *Email) error {
	params := &resend.SendEmailRequest{
		From:    p.from,
		To:      []string{email.To},
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
	}

	// The caller's deadline must bound the HTTP call; a hung send would
	// otherwise stall the whole reminder batch.
	_, err := p.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("sending email via Resend: %w", err)
	}

	logging.Info("Email sent via Resend", map[string]interface{}{"to": email.To, "subject": email.Subject})
	return nil
}

// SMTPProvider sends emails via SMTP (for Mailpit in local dev)
type SMTPProvider struct {
	host string
	port int
	from string
	addr string
}

func NewSMTPProvider(host string, port int, fromName, fromAddress string) *SMTPProvider {
	return &SMTPProvider{
		host: host,
		port: port,
		from: fmt.Sprintf("%s <%s>", fromName, fromAddress),
		addr: fromAddress,
	}
}

func (p *SMTPProvider) Send(ctx context.Context, email *Email) error {
	addr := fmt.Sprintf("%s:%d", p.host, p.port)

	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("From: %s\r\n", p.from))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", email.To))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", email.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(email.HTML)

	// smtp.SendMail has no context support, so dial with the caller's
	// context and pin its deadline on the connection; the whole exchange
	// is bounded, not just the dial.
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connecting to SMTP server: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, p.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("sending email via SMTP: %w", err)
	}
	defer client.Close()

	if err := client.Mail(p.addr); err != nil {
		return fmt.Errorf("sending email via SMTP: %w", err)
	}
	if err := client.Rcpt(email.To); err != nil {
		return fmt.Errorf("sending email via SMTP: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("sending email via SMTP: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("sending email via SMTP: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("sending email via SMTP: %w", err)
	}
	if err := client.Quit(); err != nil {
		return fmt.Errorf("sending email via SMTP: %w", err)
	}

	logging.Info("Email sent via SMTP", map[string]interface{}{"to": email.To, "subject": email.Subject})
	return nil
}

// ConsoleProvider logs emails to console (for development)
type ConsoleProvider struct{}

func NewConsoleProvider() *ConsoleProvider {
	return &ConsoleProvider{}
}

func (p *ConsoleProvider) Send(ctx context.Context, email *Email) error {
	logging.Info("=== EMAIL (Console Provider) ===", map[string]interface{}{"to": email.To, "subject": email.Subject})
	fmt.Printf("\n=== EMAIL ===\n")
	fmt.Printf("To: %s\n", email.To)
	fmt.Printf("Subject: %s\n", email.Subject)
	fmt.Printf("---\n")
	fmt.Printf("%s\n", email.Text)
	fmt.Printf("=============\n\n")
	return nil
}
