// Package email delivers transactional email through Postmark, or to files
// on disk during development, and renders the login link message.
//
//	sender, err := email.NewSender(cfg) // Postmark when both tokens are set
//	if err != nil {
//		return err
//	}
//	mailer, err := email.NewMagicLinkMailer(sender, "https://app.example.com/auth/magic-link/verify",
//		email.WithAppName("Acme"))
//	if err != nil {
//		return err
//	}
//
//	magic := auth.MagicLinkFactory(auth.WithMagicLinkSender(mailer))
//
// SendEmailParams are validated before any delivery attempt; failures wrap
// ErrInvalidParams and carry validator.ValidationErrors.
package email
