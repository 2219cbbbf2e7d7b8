package auth

import (
	"time"

	"github.com/google/uuid"
)

// Handler aliases used by the default registry configuration.
const (
	AliasPassword    = "password"
	AliasMagicLink   = "magic_link"
	AliasHMAC        = "hmac"
	AliasAccessToken = "tokens"
	AliasJWT         = "jwt"
)

// Login attempt id types, one per scheme.
const (
	AttemptTypeEmailPassword = "email_password"
	AttemptTypeMagicLink     = "magic_link"
	AttemptTypeHMAC          = "hmac_token"
	AttemptTypeAccessToken   = "access_token"
	AttemptTypeJWT           = "jwt"
)

// Credential bundle keys.
const (
	CredentialToken    = "token"
	CredentialBody     = "body"
	CredentialEmail    = "email"
	CredentialPassword = "password"
)

// Credentials is a scheme-specific credential bundle,
// e.g. {"token": "...", "body": "..."} for HMAC requests.
type Credentials map[string]string

// Get returns the value for key, or "" for a nil bundle.
func (c Credentials) Get(key string) string {
	if c == nil {
		return ""
	}
	return c[key]
}

// Subject is anything that can be the authenticated user of a request.
type Subject interface {
	// AuthID returns the stable identifier used as Identity.OwnerID.
	AuthID() string
}

// User is the default Subject shipped with the bundled stores.
type User struct {
	ID         uuid.UUID
	Email      string
	Name       string // Display name (optional)
	Active     bool
	LastActive *time.Time
	CreatedAt  time.Time
}

// AuthID implements Subject.
func (u *User) AuthID() string {
	return u.ID.String()
}
