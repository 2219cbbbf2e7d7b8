package auth

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a CredentialStore kept in process memory, for tests and
// local development. Returned records are copies.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[string]*User
	identities map[uuid.UUID]*Identity
}

var _ CredentialStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[string]*User),
		identities: make(map[uuid.UUID]*Identity),
	}
}

// CreateUser adds or replaces a user. Emails are unique across users.
func (m *MemoryStore) CreateUser(_ context.Context, u *User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	c := *u
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.users {
		if u.Email != "" && existing.Email == u.Email && id != u.AuthID() {
			return ErrSubjectExists
		}
	}
	m.users[u.AuthID()] = &c
	return nil
}

func (m *MemoryStore) FindSubjectByID(_ context.Context, id string) (Subject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrSubjectNotFound
	}
	c := *u
	return &c, nil
}

func (m *MemoryStore) RecordSubjectActive(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrSubjectNotFound
	}
	u.LastActive = &at
	return nil
}

func (m *MemoryStore) FindIdentityByTypeAndSecret(_ context.Context, typ IdentityType, secret string) (*Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i := m.lookup(typ, secret); i != nil {
		return i.Clone(), nil
	}
	return nil, ErrIdentityNotFound
}

func (m *MemoryStore) FindIdentitiesByOwner(_ context.Context, ownerID string, typ IdentityType) ([]*Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Identity
	for _, i := range m.identities {
		if i.OwnerID == ownerID && (typ == "" || i.Type == typ) {
			out = append(out, i.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *Identity) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) SaveIdentity(_ context.Context, identity *Identity) error {
	if identity.ID == uuid.Nil {
		identity.ID = uuid.New()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing := m.lookup(identity.Type, identity.Secret); existing != nil && existing.ID != identity.ID {
		return ErrIdentityTypeExists
	}
	m.identities[identity.ID] = identity.Clone()
	return nil
}

func (m *MemoryStore) DeleteIdentity(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.identities[id]; !ok {
		return ErrIdentityNotFound
	}
	delete(m.identities, id)
	return nil
}

func (m *MemoryStore) ConsumeIdentity(_ context.Context, typ IdentityType, secret string) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.lookup(typ, secret)
	if i == nil {
		return nil, ErrIdentityNotFound
	}
	delete(m.identities, i.ID)
	return i, nil
}

func (m *MemoryStore) ReplaceUniqueIdentity(_ context.Context, identity *Identity) error {
	if identity.ID == uuid.Nil {
		identity.ID = uuid.New()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing := m.lookup(identity.Type, identity.Secret); existing != nil && existing.OwnerID != identity.OwnerID {
		return ErrIdentityTypeExists
	}
	for id, i := range m.identities {
		if i.OwnerID == identity.OwnerID && i.Type == identity.Type {
			delete(m.identities, id)
		}
	}
	m.identities[identity.ID] = identity.Clone()
	return nil
}

func (m *MemoryStore) TouchIdentity(_ context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.identities[id]
	if !ok {
		return ErrIdentityNotFound
	}
	i.LastUsedAt = &at
	return nil
}

// lookup must be called with mu held.
func (m *MemoryStore) lookup(typ IdentityType, secret string) *Identity {
	for _, i := range m.identities {
		if i.Type == typ && i.Secret == secret {
			return i
		}
	}
	return nil
}
