package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/authkit/pkg/logger"
)

// Authenticator verifies one credential scheme and tracks the subject
// authenticated for the current request.
//
// Attempt writes exactly one LoginAttempt per call and logs the subject in
// on success. Check verifies without touching the login state or the
// attempt log. Verification failures are always reported through Result.
type Authenticator interface {
	Attempt(ctx context.Context, creds Credentials) Result
	Check(ctx context.Context, creds Credentials) Result
	Login(ctx context.Context, subject Subject) error
	LoginByID(ctx context.Context, id string) error
	Logout(ctx context.Context) error
	LoggedIn() bool
	User() Subject
	RecordActive(ctx context.Context) error
}

// IdentityHolder is implemented by token schemes that expose the record
// used to authenticate the current request.
type IdentityHolder interface {
	CurrentIdentity() *Identity
}

// LinkIssuer issues single-use login links.
type LinkIssuer interface {
	RequestLink(ctx context.Context, email string) error
}

// TokenIssuer issues bearer tokens for a subject.
type TokenIssuer interface {
	IssueToken(ctx context.Context, ownerID, name string) (string, error)
}

// HMACKeyIssuer manages HMAC signing keys.
type HMACKeyIssuer interface {
	GenerateHMACKey(ctx context.Context, ownerID, name string) (*Identity, error)
	RevokeHMACKey(ctx context.Context, ownerID, publicKey string) error
}

// Registrar creates login credentials for a subject.
type Registrar interface {
	Register(ctx context.Context, ownerID, email, password string) (*Identity, error)
}

// Dependencies are handed to every Factory by the Registry.
type Dependencies struct {
	Store    CredentialStore
	Attempts AttemptLogger
	Clock    Clock
	Logger   *slog.Logger
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Store == nil {
		panic(ErrUnconfiguredProvider)
	}
	if d.Attempts == nil {
		d.Attempts = noopAttemptLogger{}
	}
	if d.Clock == nil {
		d.Clock = SystemClock
	}
	if d.Logger == nil {
		d.Logger = logger.Noop()
	}
	return d
}

// Factory builds an Authenticator from the registry's collaborators.
type Factory func(deps Dependencies) Authenticator

// base carries the login state and collaborators shared by all schemes.
// The mutex is never held across store calls.
type base struct {
	store    CredentialStore
	attempts AttemptLogger
	clock    Clock
	logger   *slog.Logger

	mu       sync.RWMutex
	user     Subject
	identity *Identity
}

func newBase(deps Dependencies, component string) *base {
	deps = deps.withDefaults()
	return &base{
		store:    deps.Store,
		attempts: deps.Attempts,
		clock:    deps.Clock,
		logger:   deps.Logger.With(logger.Component(component)),
	}
}

func (b *base) Login(_ context.Context, subject Subject) error {
	if subject == nil {
		return ErrSubjectNotFound
	}
	b.mu.Lock()
	b.user = subject
	b.identity = nil
	b.mu.Unlock()
	return nil
}

func (b *base) LoginByID(ctx context.Context, id string) error {
	subject, err := b.store.FindSubjectByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSubjectNotFound) {
			return ErrSubjectNotFound
		}
		return errors.Join(ErrAuthUnavailable, err)
	}
	return b.Login(ctx, subject)
}

func (b *base) Logout(context.Context) error {
	b.mu.Lock()
	b.user = nil
	b.identity = nil
	b.mu.Unlock()
	return nil
}

func (b *base) LoggedIn() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.user != nil
}

func (b *base) User() Subject {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.user
}

func (b *base) RecordActive(ctx context.Context) error {
	subject := b.User()
	if subject == nil {
		return ErrNotLoggedIn
	}
	if err := b.store.RecordSubjectActive(ctx, subject.AuthID(), b.clock.Now()); err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

// current returns the record the current subject logged in with.
func (b *base) current() *Identity {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.identity.Clone()
}

// loginResult stores the subject and record of a successful result.
func (b *base) loginResult(res Result) {
	b.mu.Lock()
	b.user = res.Subject()
	b.identity = res.Identity()
	b.mu.Unlock()
}

// record appends one attempt entry. Write failures are logged and never
// change the verification outcome.
func (b *base) record(ctx context.Context, idType, identifier string, res Result) {
	ip, ua := ClientInfoFromContext(ctx)
	attempt := LoginAttempt{
		IDType:     idType,
		Identifier: identifier,
		Success:    res.OK(),
		IP:         ip,
		UserAgent:  ua,
		Timestamp:  b.clock.Now(),
	}
	if s := res.Subject(); s != nil {
		attempt.UserID = s.AuthID()
	}
	if err := b.attempts.Record(ctx, attempt); err != nil {
		b.logger.ErrorContext(ctx, "failed to record login attempt",
			slog.String("id_type", idType),
			logger.Error(err),
		)
	}
}

// resolveOwner loads the subject owning a record.
func (b *base) resolveOwner(ctx context.Context, identity *Identity) (Subject, error) {
	subject, err := b.store.FindSubjectByID(ctx, identity.OwnerID)
	if err != nil {
		if errors.Is(err, ErrSubjectNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, errors.Join(ErrAuthUnavailable, err)
	}
	return subject, nil
}

// unavailable logs a store failure and folds it into a generic result.
func (b *base) unavailable(ctx context.Context, msg string, err error) Result {
	b.logger.ErrorContext(ctx, msg, logger.Error(err))
	return Failure(ErrAuthUnavailable)
}

var (
	_ Authenticator  = (*HMACAuthenticator)(nil)
	_ IdentityHolder = (*HMACAuthenticator)(nil)
	_ HMACKeyIssuer  = (*HMACAuthenticator)(nil)
	_ Authenticator  = (*MagicLinkAuthenticator)(nil)
	_ LinkIssuer     = (*MagicLinkAuthenticator)(nil)
	_ Authenticator  = (*PasswordAuthenticator)(nil)
	_ Registrar      = (*PasswordAuthenticator)(nil)
	_ Authenticator  = (*AccessTokenAuthenticator)(nil)
	_ IdentityHolder = (*AccessTokenAuthenticator)(nil)
	_ TokenIssuer    = (*AccessTokenAuthenticator)(nil)
	_ Authenticator  = (*JWTAuthenticator)(nil)
	_ TokenIssuer    = (*JWTAuthenticator)(nil)
)
