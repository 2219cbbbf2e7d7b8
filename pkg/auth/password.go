package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/pkg/sanitizer"
	"github.com/dmitrymomot/authkit/pkg/validator"
)

// PasswordAuthenticator verifies an email and password pair against the
// subject's email_password record.
type PasswordAuthenticator struct {
	*base
	hasher   Hasher
	strength validator.PasswordStrengthConfig

	dummyOnce sync.Once
	dummyHash string
}

type PasswordOption func(*PasswordAuthenticator)

// WithHasher replaces the default bcrypt hasher.
func WithHasher(h Hasher) PasswordOption {
	return func(a *PasswordAuthenticator) {
		a.hasher = h
	}
}

// WithPasswordStrength sets the rules applied by Register.
func WithPasswordStrength(cfg validator.PasswordStrengthConfig) PasswordOption {
	return func(a *PasswordAuthenticator) {
		a.strength = cfg
	}
}

func NewPasswordAuthenticator(deps Dependencies, opts ...PasswordOption) *PasswordAuthenticator {
	a := &PasswordAuthenticator{
		base:     newBase(deps, "password"),
		hasher:   BcryptHasher{},
		strength: validator.DefaultPasswordStrength(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// PasswordFactory registers the scheme with a Registry.
func PasswordFactory(opts ...PasswordOption) Factory {
	return func(deps Dependencies) Authenticator {
		return NewPasswordAuthenticator(deps, opts...)
	}
}

func (a *PasswordAuthenticator) Attempt(ctx context.Context, creds Credentials) Result {
	res := a.Check(ctx, creds)
	if res.OK() {
		a.loginResult(res)
	}
	a.record(ctx, AttemptTypeEmailPassword, sanitizer.NormalizeEmail(creds.Get(CredentialEmail)), res)
	return res
}

// Check returns ErrInvalidCredentials for unknown emails and wrong passwords
// alike, and spends a hash verification in both cases.
func (a *PasswordAuthenticator) Check(ctx context.Context, creds Credentials) Result {
	email := sanitizer.NormalizeEmail(creds.Get(CredentialEmail))
	password := creds.Get(CredentialPassword)
	if email == "" || password == "" {
		return Failure(ErrInvalidCredentials)
	}

	identity, err := a.store.FindIdentityByTypeAndSecret(ctx, TypeEmailPassword, email)
	if err != nil {
		if !errors.Is(err, ErrIdentityNotFound) {
			return a.unavailable(ctx, "failed to look up password identity", err)
		}
		a.hasher.Verify(password, a.dummy())
		return Failure(ErrInvalidCredentials)
	}

	if !a.hasher.Verify(password, identity.Secret2) {
		a.logger.DebugContext(ctx, "password rejected", logger.UserID(identity.OwnerID))
		return Failure(ErrInvalidCredentials)
	}

	subject, err := a.resolveOwner(ctx, identity)
	if err != nil {
		if errors.Is(err, ErrSubjectNotFound) {
			return Failure(ErrInvalidCredentials)
		}
		return a.unavailable(ctx, "failed to load password owner", err)
	}

	identity = identity.Clone()
	identity.Secret2 = ""
	return Success(subject, identity)
}

// Register sets the password of ownerID, replacing any earlier one.
func (a *PasswordAuthenticator) Register(ctx context.Context, ownerID, email, password string) (*Identity, error) {
	email = sanitizer.NormalizeEmail(email)
	if err := validator.Apply(
		validator.Required("email", email),
		validator.ValidEmail("email", email),
		validator.StrongPassword("password", password, a.strength),
		validator.NotCommonPassword("password", password),
	); err != nil {
		return nil, err
	}

	existing, err := a.store.FindIdentityByTypeAndSecret(ctx, TypeEmailPassword, email)
	switch {
	case err == nil && existing.OwnerID != ownerID:
		return nil, ErrIdentityTypeExists
	case err != nil && !errors.Is(err, ErrIdentityNotFound):
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}

	hash, err := a.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	identity := NewIdentity(ownerID, TypeEmailPassword, a.clock.Now())
	identity.Secret = email
	identity.Secret2 = hash
	if err := a.store.ReplaceUniqueIdentity(ctx, identity); err != nil {
		return nil, fmt.Errorf("failed to save password: %w", err)
	}

	a.logger.InfoContext(ctx, "password registered", logger.UserID(ownerID))

	out := identity.Clone()
	out.Secret2 = ""
	return out, nil
}

// fallbackDummyHash is a cost 10 bcrypt digest used when the hasher cannot
// produce one, so unknown emails still pay a full comparison.
const fallbackDummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

func (a *PasswordAuthenticator) dummy() string {
	a.dummyOnce.Do(func() {
		h, err := a.hasher.Hash("authkit-timing-parity")
		if err != nil || h == "" {
			a.logger.Warn("failed to compute dummy password hash, using fallback", logger.Error(err))
			h = fallbackDummyHash
		}
		a.dummyHash = h
	})
	return a.dummyHash
}
