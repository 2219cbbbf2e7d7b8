package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/pkg/token"
)

// AccessTokenAuthenticator verifies opaque bearer tokens. The store keeps
// only the hex SHA-256 of each token.
type AccessTokenAuthenticator struct {
	*base
	unusedLifetime time.Duration
	ttl            time.Duration
}

type AccessTokenOption func(*AccessTokenAuthenticator)

// WithAccessTokenIdleLifetime sets the idle window after which a token is rejected.
func WithAccessTokenIdleLifetime(d time.Duration) AccessTokenOption {
	return func(a *AccessTokenAuthenticator) {
		if d > 0 {
			a.unusedLifetime = d
		}
	}
}

// WithAccessTokenTTL gives issued tokens a hard expiry. Zero means none.
func WithAccessTokenTTL(d time.Duration) AccessTokenOption {
	return func(a *AccessTokenAuthenticator) {
		a.ttl = d
	}
}

func NewAccessTokenAuthenticator(deps Dependencies, opts ...AccessTokenOption) *AccessTokenAuthenticator {
	a := &AccessTokenAuthenticator{
		base:           newBase(deps, "access_token"),
		unusedLifetime: DefaultUnusedTokenLifetime,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AccessTokenFactory registers the scheme with a Registry.
func AccessTokenFactory(opts ...AccessTokenOption) Factory {
	return func(deps Dependencies) Authenticator {
		return NewAccessTokenAuthenticator(deps, opts...)
	}
}

func (a *AccessTokenAuthenticator) Attempt(ctx context.Context, creds Credentials) Result {
	raw := creds.Get(CredentialToken)
	res := a.Check(ctx, creds)
	if res.OK() {
		a.loginResult(res)
	}
	a.record(ctx, AttemptTypeAccessToken, MaskIdentifier(raw), res)
	return res
}

func (a *AccessTokenAuthenticator) Check(ctx context.Context, creds Credentials) Result {
	raw := creds.Get(CredentialToken)
	if raw == "" {
		return Failure(ErrNoToken)
	}

	identity, err := a.store.FindIdentityByTypeAndSecret(ctx, TypeAccessToken, token.Hash(raw))
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return Failure(ErrBadToken)
		}
		return a.unavailable(ctx, "failed to look up access token", err)
	}
	identity = identity.Clone()

	now := a.clock.Now()
	if identity.Expired(now) || now.Sub(identity.LastActivity()) > a.unusedLifetime {
		return Failure(ErrOldToken)
	}

	subject, err := a.resolveOwner(ctx, identity)
	if err != nil {
		if errors.Is(err, ErrSubjectNotFound) {
			return Failure(ErrBadToken)
		}
		return a.unavailable(ctx, "failed to load access token owner", err)
	}

	if err := a.store.TouchIdentity(ctx, identity.ID, now); err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return Failure(ErrBadToken)
		}
		a.logger.ErrorContext(ctx, "failed to update access token last use",
			logger.UserID(identity.OwnerID),
			logger.Error(err),
		)
	}
	identity.LastUsedAt = &now
	return Success(subject, identity)
}

// CurrentIdentity returns the token record of the logged in request.
func (a *AccessTokenAuthenticator) CurrentIdentity() *Identity {
	return a.current()
}

// IssueToken creates a token for ownerID and returns the raw value once.
func (a *AccessTokenAuthenticator) IssueToken(ctx context.Context, ownerID, name string) (string, error) {
	raw, err := token.Random(32)
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}

	now := a.clock.Now()
	identity := NewIdentity(ownerID, TypeAccessToken, now)
	identity.Name = name
	identity.Secret = token.Hash(raw)
	if a.ttl > 0 {
		exp := now.Add(a.ttl)
		identity.Expires = &exp
	}
	if err := a.store.SaveIdentity(ctx, identity); err != nil {
		return "", fmt.Errorf("failed to save access token: %w", err)
	}

	a.logger.InfoContext(ctx, "access token issued", logger.UserID(ownerID))
	return raw, nil
}

// RevokeAccessToken deletes the record matching raw when owned by ownerID.
func (a *AccessTokenAuthenticator) RevokeAccessToken(ctx context.Context, ownerID, raw string) error {
	identity, err := a.store.FindIdentityByTypeAndSecret(ctx, TypeAccessToken, token.Hash(raw))
	if err != nil {
		return err
	}
	if identity.OwnerID != ownerID {
		return ErrIdentityNotFound
	}
	if err := a.store.DeleteIdentity(ctx, identity.ID); err != nil {
		return fmt.Errorf("failed to revoke access token: %w", err)
	}
	return nil
}
