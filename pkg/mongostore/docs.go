package mongostore

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authkit/pkg/auth"
)

type identityDoc struct {
	ID         string     `bson:"_id"`
	OwnerID    string     `bson:"owner_id"`
	Type       string     `bson:"type"`
	Name       string     `bson:"name,omitempty"`
	Secret     string     `bson:"secret"`
	Secret2    string     `bson:"secret2,omitempty"`
	Extra      string     `bson:"extra,omitempty"`
	Expires    *time.Time `bson:"expires_at,omitempty"`
	LastUsedAt *time.Time `bson:"last_used_at,omitempty"`
	ForceReset bool       `bson:"force_reset"`
	CreatedAt  time.Time  `bson:"created_at"`
}

func toIdentityDoc(i *auth.Identity) identityDoc {
	return identityDoc{
		ID:         i.ID.String(),
		OwnerID:    i.OwnerID,
		Type:       string(i.Type),
		Name:       i.Name,
		Secret:     i.Secret,
		Secret2:    i.Secret2,
		Extra:      i.Extra,
		Expires:    utcPtr(i.Expires),
		LastUsedAt: utcPtr(i.LastUsedAt),
		ForceReset: i.ForceReset,
		CreatedAt:  i.CreatedAt.UTC(),
	}
}

func (d identityDoc) identity() *auth.Identity {
	id, _ := uuid.Parse(d.ID)
	return &auth.Identity{
		ID:         id,
		OwnerID:    d.OwnerID,
		Type:       auth.IdentityType(d.Type),
		Name:       d.Name,
		Secret:     d.Secret,
		Secret2:    d.Secret2,
		Extra:      d.Extra,
		Expires:    utcPtr(d.Expires),
		LastUsedAt: utcPtr(d.LastUsedAt),
		ForceReset: d.ForceReset,
		CreatedAt:  d.CreatedAt.UTC(),
	}
}

type userDoc struct {
	ID         string     `bson:"_id"`
	Email      string     `bson:"email"`
	Name       string     `bson:"name,omitempty"`
	Active     bool       `bson:"active"`
	LastActive *time.Time `bson:"last_active_at,omitempty"`
	CreatedAt  time.Time  `bson:"created_at"`
}

func (d userDoc) user() *auth.User {
	id, _ := uuid.Parse(d.ID)
	return &auth.User{
		ID:         id,
		Email:      d.Email,
		Name:       d.Name,
		Active:     d.Active,
		LastActive: utcPtr(d.LastActive),
		CreatedAt:  d.CreatedAt.UTC(),
	}
}

type attemptDoc struct {
	IDType     string    `bson:"id_type"`
	Identifier string    `bson:"identifier"`
	Success    bool      `bson:"success"`
	UserID     string    `bson:"user_id,omitempty"`
	IP         string    `bson:"ip,omitempty"`
	UserAgent  string    `bson:"user_agent,omitempty"`
	Timestamp  time.Time `bson:"created_at"`
}

// utcPtr copies t normalised to UTC.
func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
