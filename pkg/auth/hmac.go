package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/pkg/token"
)

// DefaultUnusedTokenLifetime is how long an HMAC key may sit idle.
const DefaultUnusedTokenLifetime = 365 * 24 * time.Hour

// KeyCipher protects Identity.Secret2 at rest.
type KeyCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// HMACAuthenticator verifies requests signed with a per-key shared secret.
// The presented token is "<public key>:<hex HMAC-SHA256 of the body>".
type HMACAuthenticator struct {
	*base
	cipher         KeyCipher
	unusedLifetime time.Duration
}

type HMACOption func(*HMACAuthenticator)

// WithUnusedTokenLifetime sets the idle window after which a key is rejected.
func WithUnusedTokenLifetime(d time.Duration) HMACOption {
	return func(a *HMACAuthenticator) {
		if d > 0 {
			a.unusedLifetime = d
		}
	}
}

// WithKeyCipher stores signing secrets encrypted.
func WithKeyCipher(c KeyCipher) HMACOption {
	return func(a *HMACAuthenticator) {
		a.cipher = c
	}
}

func NewHMACAuthenticator(deps Dependencies, opts ...HMACOption) *HMACAuthenticator {
	a := &HMACAuthenticator{
		base:           newBase(deps, "hmac"),
		unusedLifetime: DefaultUnusedTokenLifetime,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// HMACFactory registers the scheme with a Registry.
func HMACFactory(opts ...HMACOption) Factory {
	return func(deps Dependencies) Authenticator {
		return NewHMACAuthenticator(deps, opts...)
	}
}

// Attempt verifies the request and logs the key owner in.
func (a *HMACAuthenticator) Attempt(ctx context.Context, creds Credentials) Result {
	res := a.Check(ctx, creds)
	if res.OK() {
		a.loginResult(res)
	}
	// Never log the signature.
	public, _, _ := strings.Cut(creds.Get(CredentialToken), ":")
	a.record(ctx, AttemptTypeHMAC, public, res)
	return res
}

// Check verifies the signature and stamps the key's last use.
func (a *HMACAuthenticator) Check(ctx context.Context, creds Credentials) Result {
	raw := creds.Get(CredentialToken)
	if raw == "" {
		return Failure(ErrNoToken)
	}
	public, signature, ok := strings.Cut(raw, ":")
	if !ok || public == "" || signature == "" {
		a.logger.DebugContext(ctx, "malformed hmac token")
		return Failure(ErrBadToken)
	}

	identity, err := a.store.FindIdentityByTypeAndSecret(ctx, TypeHMAC, public)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return Failure(ErrBadToken)
		}
		return a.unavailable(ctx, "failed to look up hmac key", err)
	}
	identity = identity.Clone()

	key, err := a.signingKey(identity)
	if err != nil {
		return a.unavailable(ctx, "failed to decrypt hmac key", err)
	}
	if err := token.Verify([]byte(creds.Get(CredentialBody)), key, signature); err != nil {
		a.logger.DebugContext(ctx, "hmac signature rejected", slog.String("key_id", identity.ID.String()))
		return Failure(ErrBadToken)
	}

	now := a.clock.Now()
	if identity.Expired(now) || now.Sub(identity.LastActivity()) > a.unusedLifetime {
		return Failure(ErrOldToken)
	}

	subject, err := a.resolveOwner(ctx, identity)
	if err != nil {
		if errors.Is(err, ErrSubjectNotFound) {
			return Failure(ErrBadToken)
		}
		return a.unavailable(ctx, "failed to load hmac key owner", err)
	}

	if err := a.store.TouchIdentity(ctx, identity.ID, now); err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			// Revoked while being verified.
			return Failure(ErrBadToken)
		}
		// A failed timestamp write does not fail verification.
		a.logger.ErrorContext(ctx, "failed to update hmac key last use",
			logger.UserID(identity.OwnerID),
			logger.Error(err),
		)
	}
	identity.LastUsedAt = &now

	identity.Secret2 = ""
	return Success(subject, identity)
}

// CurrentIdentity returns the key used by the logged in request,
// without its signing secret.
func (a *HMACAuthenticator) CurrentIdentity() *Identity {
	return a.current()
}

func (a *HMACAuthenticator) signingKey(identity *Identity) (string, error) {
	if a.cipher == nil {
		return identity.Secret2, nil
	}
	return a.cipher.Decrypt(identity.Secret2)
}

// GenerateHMACKey creates a signing key for ownerID. The returned record
// carries the plain Secret2, the only time it is ever visible.
func (a *HMACAuthenticator) GenerateHMACKey(ctx context.Context, ownerID, name string) (*Identity, error) {
	public, err := token.RandomHex(16)
	if err != nil {
		return nil, fmt.Errorf("failed to generate hmac key id: %w", err)
	}
	private, err := token.RandomHex(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate hmac secret: %w", err)
	}

	identity := NewIdentity(ownerID, TypeHMAC, a.clock.Now())
	identity.Name = name
	identity.Secret = public
	identity.Secret2 = private
	if a.cipher != nil {
		if identity.Secret2, err = a.cipher.Encrypt(private); err != nil {
			return nil, fmt.Errorf("failed to encrypt hmac secret: %w", err)
		}
	}

	if err := a.store.SaveIdentity(ctx, identity); err != nil {
		return nil, fmt.Errorf("failed to save hmac key: %w", err)
	}

	a.logger.InfoContext(ctx, "hmac key generated", logger.UserID(ownerID))

	out := identity.Clone()
	out.Secret2 = private
	return out, nil
}

// RevokeHMACKey deletes the key with the given public id when owned by ownerID.
func (a *HMACAuthenticator) RevokeHMACKey(ctx context.Context, ownerID, publicKey string) error {
	identity, err := a.store.FindIdentityByTypeAndSecret(ctx, TypeHMAC, publicKey)
	if err != nil {
		return err
	}
	if identity.OwnerID != ownerID {
		return ErrIdentityNotFound
	}
	if err := a.store.DeleteIdentity(ctx, identity.ID); err != nil {
		return fmt.Errorf("failed to revoke hmac key: %w", err)
	}
	return nil
}

// SignRequest builds the token a client sends for body.
func SignRequest(publicKey, secret string, body []byte) string {
	return publicKey + ":" + token.Sign(body, secret)
}
