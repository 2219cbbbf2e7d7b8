package email

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dmitrymomot/authkit/pkg/auth"
	"github.com/dmitrymomot/authkit/pkg/email/templates"
)

// MagicLinkMailer delivers login links through an EmailSender.
type MagicLinkMailer struct {
	sender  EmailSender
	baseURL *url.URL
	appName string
	subject string
}

var _ auth.MagicLinkSender = (*MagicLinkMailer)(nil)

// MagicLinkMailerOption configures a MagicLinkMailer.
type MagicLinkMailerOption func(*MagicLinkMailer)

func WithAppName(name string) MagicLinkMailerOption {
	return func(m *MagicLinkMailer) { m.appName = name }
}

func WithSubject(subject string) MagicLinkMailerOption {
	return func(m *MagicLinkMailer) { m.subject = subject }
}

// NewMagicLinkMailer builds links by adding a token query parameter to
// verifyURL, e.g. https://app.example.com/auth/magic-link/verify.
func NewMagicLinkMailer(sender EmailSender, verifyURL string, opts ...MagicLinkMailerOption) (*MagicLinkMailer, error) {
	u, err := url.Parse(verifyURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: verify URL must be absolute: %q", ErrInvalidConfig, verifyURL)
	}
	m := &MagicLinkMailer{
		sender:  sender,
		baseURL: u,
		appName: "authkit",
		subject: "Your sign-in link",
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// LoginURL returns the verify URL carrying token.
func (m *MagicLinkMailer) LoginURL(token string) string {
	u := *m.baseURL
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

func (m *MagicLinkMailer) SendMagicLink(ctx context.Context, link auth.MagicLink) error {
	body, err := templates.Render(ctx, templates.MagicLink(templates.MagicLinkData{
		AppName:   m.appName,
		Email:     link.Email,
		LoginURL:  m.LoginURL(link.Token),
		ExpiresIn: link.TTL,
	}))
	if err != nil {
		return fmt.Errorf("failed to render magic link email: %w", err)
	}

	return m.sender.SendEmail(ctx, SendEmailParams{
		SendTo:   link.Email,
		Subject:  m.subject,
		BodyHTML: body,
		Tag:      "magic-link",
	})
}
