package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultJWTTTL is the lifetime of issued JWTs.
const DefaultJWTTTL = 15 * time.Minute

// JWTAuthenticator verifies stateless HS256 bearer tokens whose subject
// claim is the subject id. No identity record backs these tokens.
type JWTAuthenticator struct {
	*base
	key    []byte
	ttl    time.Duration
	issuer string
}

type JWTOption func(*JWTAuthenticator)

// WithJWTTTL sets the lifetime of issued tokens.
func WithJWTTTL(ttl time.Duration) JWTOption {
	return func(a *JWTAuthenticator) {
		if ttl > 0 {
			a.ttl = ttl
		}
	}
}

// WithJWTIssuer sets the iss claim and requires it on verification.
func WithJWTIssuer(iss string) JWTOption {
	return func(a *JWTAuthenticator) {
		a.issuer = iss
	}
}

// NewJWTAuthenticator panics on an empty signing key.
func NewJWTAuthenticator(deps Dependencies, key []byte, opts ...JWTOption) *JWTAuthenticator {
	if len(key) == 0 {
		panic("auth: jwt signing key is required")
	}
	a := &JWTAuthenticator{
		base: newBase(deps, "jwt"),
		key:  key,
		ttl:  DefaultJWTTTL,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// JWTFactory registers the scheme with a Registry.
func JWTFactory(key []byte, opts ...JWTOption) Factory {
	return func(deps Dependencies) Authenticator {
		return NewJWTAuthenticator(deps, key, opts...)
	}
}

func (a *JWTAuthenticator) Attempt(ctx context.Context, creds Credentials) Result {
	res := a.Check(ctx, creds)
	if res.OK() {
		a.loginResult(res)
	}
	a.record(ctx, AttemptTypeJWT, MaskIdentifier(creds.Get(CredentialToken)), res)
	return res
}

func (a *JWTAuthenticator) Check(ctx context.Context, creds Credentials) Result {
	raw := creds.Get(CredentialToken)
	if raw == "" {
		return Failure(ErrNoToken)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.clock.Now),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return a.key, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Failure(ErrOldToken)
		}
		a.logger.DebugContext(ctx, "jwt rejected", "reason", err.Error())
		return Failure(ErrBadToken)
	}
	if claims.Subject == "" {
		return Failure(ErrBadToken)
	}

	subject, err := a.store.FindSubjectByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrSubjectNotFound) {
			return Failure(ErrBadToken)
		}
		return a.unavailable(ctx, "failed to load jwt subject", err)
	}
	return Success(subject, nil)
}

// IssueToken signs a token for ownerID. name becomes the jti prefix.
func (a *JWTAuthenticator) IssueToken(_ context.Context, ownerID, name string) (string, error) {
	now := a.clock.Now()
	id := uuid.NewString()
	if name != "" {
		id = name + ":" + id
	}
	claims := jwt.RegisteredClaims{
		ID:        id,
		Subject:   ownerID,
		Issuer:    a.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign jwt: %w", err)
	}
	return signed, nil
}
