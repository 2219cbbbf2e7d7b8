package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/pkg/sanitizer"
	"github.com/dmitrymomot/authkit/pkg/token"
	"github.com/dmitrymomot/authkit/pkg/validator"
)

// DefaultMagicLinkTTL is the lifetime of an issued login link.
const DefaultMagicLinkTTL = time.Hour

// MagicLink is what a MagicLinkSender delivers.
type MagicLink struct {
	Email     string
	Token     string
	ExpiresAt time.Time
	TTL       time.Duration
}

// MagicLinkSender delivers the raw token to the subject.
type MagicLinkSender interface {
	SendMagicLink(ctx context.Context, link MagicLink) error
}

// MagicLinkSenderFunc adapts a function to MagicLinkSender.
type MagicLinkSenderFunc func(ctx context.Context, link MagicLink) error

func (f MagicLinkSenderFunc) SendMagicLink(ctx context.Context, link MagicLink) error {
	return f(ctx, link)
}

// MagicLinkAuthenticator logs subjects in through single-use links.
// Only the SHA-256 digest of a link token is stored.
type MagicLinkAuthenticator struct {
	*base
	sender       MagicLinkSender
	ttl          time.Duration
	singleActive bool
}

type MagicLinkOption func(*MagicLinkAuthenticator)

// WithMagicLinkTTL sets the link lifetime.
func WithMagicLinkTTL(ttl time.Duration) MagicLinkOption {
	return func(a *MagicLinkAuthenticator) {
		if ttl > 0 {
			a.ttl = ttl
		}
	}
}

// WithMagicLinkSender sets how links reach the subject.
func WithMagicLinkSender(s MagicLinkSender) MagicLinkOption {
	return func(a *MagicLinkAuthenticator) {
		a.sender = s
	}
}

// WithSingleOutstandingLink revokes earlier links when a new one is issued.
func WithSingleOutstandingLink() MagicLinkOption {
	return func(a *MagicLinkAuthenticator) {
		a.singleActive = true
	}
}

func NewMagicLinkAuthenticator(deps Dependencies, opts ...MagicLinkOption) *MagicLinkAuthenticator {
	a := &MagicLinkAuthenticator{
		base: newBase(deps, "magic_link"),
		ttl:  DefaultMagicLinkTTL,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// MagicLinkFactory registers the scheme with a Registry.
func MagicLinkFactory(opts ...MagicLinkOption) Factory {
	return func(deps Dependencies) Authenticator {
		return NewMagicLinkAuthenticator(deps, opts...)
	}
}

// ErrNoSender is returned by RequestLink when no delivery channel is set.
var ErrNoSender = errors.New("magic link sender not configured")

// RequestLink issues a link for the subject owning email. Unknown emails
// return nil without creating anything so callers respond the same way
// whether or not the address is registered.
func (a *MagicLinkAuthenticator) RequestLink(ctx context.Context, email string) error {
	if a.sender == nil {
		return ErrNoSender
	}
	email = sanitizer.NormalizeEmail(email)
	if err := validator.Apply(validator.ValidEmail("email", email)); err != nil {
		return errors.Join(ErrInvalidEmail, err)
	}

	owner, err := a.store.FindIdentityByTypeAndSecret(ctx, TypeEmailPassword, email)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			a.logger.DebugContext(ctx, "magic link requested for unknown email")
			return nil
		}
		return fmt.Errorf("failed to look up email: %w", err)
	}

	if a.singleActive {
		if err := a.revokeLinks(ctx, owner.OwnerID); err != nil {
			return err
		}
	}

	raw, err := token.Random(32)
	if err != nil {
		return fmt.Errorf("failed to generate magic link token: %w", err)
	}

	now := a.clock.Now()
	expires := now.Add(a.ttl)
	identity := NewIdentity(owner.OwnerID, TypeMagicLink, now)
	identity.Secret = token.Hash(raw)
	identity.Expires = &expires
	if err := a.store.SaveIdentity(ctx, identity); err != nil {
		return fmt.Errorf("failed to save magic link: %w", err)
	}

	if err := a.sender.SendMagicLink(ctx, MagicLink{Email: email, Token: raw, ExpiresAt: expires, TTL: a.ttl}); err != nil {
		if delErr := a.store.DeleteIdentity(ctx, identity.ID); delErr != nil {
			a.logger.ErrorContext(ctx, "failed to clean up undelivered magic link",
				logger.UserID(owner.OwnerID),
				logger.Error(delErr),
			)
		}
		return fmt.Errorf("failed to send magic link: %w", err)
	}

	a.logger.InfoContext(ctx, "magic link issued", logger.UserID(owner.OwnerID))
	return nil
}

func (a *MagicLinkAuthenticator) revokeLinks(ctx context.Context, ownerID string) error {
	links, err := a.store.FindIdentitiesByOwner(ctx, ownerID, TypeMagicLink)
	if err != nil {
		return fmt.Errorf("failed to list magic links: %w", err)
	}
	for _, l := range links {
		if err := a.store.DeleteIdentity(ctx, l.ID); err != nil && !errors.Is(err, ErrIdentityNotFound) {
			return fmt.Errorf("failed to revoke magic link: %w", err)
		}
	}
	return nil
}

// Attempt redeems the link. The record is consumed before the expiry check,
// so every presented token works at most once.
func (a *MagicLinkAuthenticator) Attempt(ctx context.Context, creds Credentials) Result {
	raw := creds.Get(CredentialToken)
	res := a.redeem(ctx, raw)
	a.record(ctx, AttemptTypeMagicLink, MaskIdentifier(raw), res)
	return res
}

func (a *MagicLinkAuthenticator) redeem(ctx context.Context, raw string) Result {
	if raw == "" {
		return Failure(ErrTokenNotFound)
	}
	identity, err := a.store.ConsumeIdentity(ctx, TypeMagicLink, token.Hash(raw))
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return Failure(ErrTokenNotFound)
		}
		return a.unavailable(ctx, "failed to consume magic link", err)
	}
	if identity.Expired(a.clock.Now()) {
		return Failure(ErrLinkExpired)
	}

	if err := a.LoginByID(ctx, identity.OwnerID); err != nil {
		if errors.Is(err, ErrSubjectNotFound) {
			return Failure(ErrTokenNotFound)
		}
		return a.unavailable(ctx, "failed to log in magic link owner", err)
	}
	return Success(a.User(), identity)
}

// Check reports whether the link would redeem, without consuming it.
func (a *MagicLinkAuthenticator) Check(ctx context.Context, creds Credentials) Result {
	raw := creds.Get(CredentialToken)
	if raw == "" {
		return Failure(ErrTokenNotFound)
	}
	identity, err := a.store.FindIdentityByTypeAndSecret(ctx, TypeMagicLink, token.Hash(raw))
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return Failure(ErrTokenNotFound)
		}
		return a.unavailable(ctx, "failed to look up magic link", err)
	}
	if identity.Expired(a.clock.Now()) {
		return Failure(ErrLinkExpired)
	}
	subject, err := a.resolveOwner(ctx, identity)
	if err != nil {
		if errors.Is(err, ErrSubjectNotFound) {
			return Failure(ErrTokenNotFound)
		}
		return a.unavailable(ctx, "failed to load magic link owner", err)
	}
	return Success(subject, identity)
}
