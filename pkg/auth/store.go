package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// CredentialStore persists identity records and resolves their owners.
// Implementations return ErrIdentityNotFound / ErrSubjectNotFound for
// missing rows so authenticators can tell "unknown" from "unavailable".
type CredentialStore interface {
	FindIdentityByTypeAndSecret(ctx context.Context, typ IdentityType, secret string) (*Identity, error)
	FindIdentitiesByOwner(ctx context.Context, ownerID string, typ IdentityType) ([]*Identity, error)
	// SaveIdentity inserts the record or updates it by ID.
	SaveIdentity(ctx context.Context, identity *Identity) error
	DeleteIdentity(ctx context.Context, id uuid.UUID) error
	// ConsumeIdentity finds and deletes a record in one atomic step.
	// Of two concurrent callers with the same secret at most one gets the record.
	ConsumeIdentity(ctx context.Context, typ IdentityType, secret string) (*Identity, error)
	// ReplaceUniqueIdentity removes every record of identity.Type owned by
	// identity.OwnerID and stores identity in their place, atomically.
	ReplaceUniqueIdentity(ctx context.Context, identity *Identity) error
	// TouchIdentity sets LastUsedAt on an existing record and nothing else.
	// It never inserts: a deleted record stays deleted (ErrIdentityNotFound).
	TouchIdentity(ctx context.Context, id uuid.UUID, at time.Time) error

	FindSubjectByID(ctx context.Context, id string) (Subject, error)
	RecordSubjectActive(ctx context.Context, id string, at time.Time) error
}

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// BcryptHasher is the default Hasher.
type BcryptHasher struct {
	Cost int // bcrypt.DefaultCost when zero
}

func (h BcryptHasher) Hash(plaintext string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h BcryptHasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

// Clock is the time source for every expiry decision.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock in UTC.
var SystemClock Clock = ClockFunc(func() time.Time { return time.Now().UTC() })
