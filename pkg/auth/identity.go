package auth

import (
	"time"

	"github.com/google/uuid"
)

// IdentityType discriminates identity records and decides which
// Authenticator may consume them.
type IdentityType string

const (
	TypeEmailPassword IdentityType = "email_password"
	TypeMagicLink     IdentityType = "magic_link"
	TypeAccessToken   IdentityType = "access_token"
	TypeHMAC          IdentityType = "hmac_sha256"
)

// Identity is a single credential owned by a subject.
// A subject may own any number of records of each type.
type Identity struct {
	ID      uuid.UUID
	OwnerID string
	Type    IdentityType
	Name    string // Display name, e.g. a token label

	// Secret is the lookup material: an email, a token hash, a public key id.
	Secret string
	// Secret2 is private material: a password hash or an HMAC signing key.
	Secret2 string
	// Extra holds scheme-scoped metadata.
	Extra string

	Expires    *time.Time
	LastUsedAt *time.Time
	ForceReset bool
	CreatedAt  time.Time
}

// NewIdentity returns a record with a fresh ID stamped at now.
func NewIdentity(ownerID string, typ IdentityType, now time.Time) *Identity {
	return &Identity{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Type:      typ,
		CreatedAt: now,
	}
}

// Expired reports whether the record has an expiry at or before now.
// Records without an expiry never time out.
func (i *Identity) Expired(now time.Time) bool {
	return i.Expires != nil && !now.Before(*i.Expires)
}

// LastActivity is the reference point for staleness checks:
// the last successful use, or issuance for a record never used.
func (i *Identity) LastActivity() time.Time {
	if i.LastUsedAt != nil {
		return *i.LastUsedAt
	}
	return i.CreatedAt
}

// Clone returns a deep copy so callers can mutate without touching
// the store's view of the record.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	if i.Expires != nil {
		t := *i.Expires
		c.Expires = &t
	}
	if i.LastUsedAt != nil {
		t := *i.LastUsedAt
		c.LastUsedAt = &t
	}
	return &c
}
