package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockCredentialStore is a mock implementation of CredentialStore.
type MockCredentialStore struct {
	mock.Mock
}

func (m *MockCredentialStore) FindIdentityByTypeAndSecret(ctx context.Context, typ IdentityType, secret string) (*Identity, error) {
	args := m.Called(ctx, typ, secret)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Identity), args.Error(1)
}

func (m *MockCredentialStore) FindIdentitiesByOwner(ctx context.Context, ownerID string, typ IdentityType) ([]*Identity, error) {
	args := m.Called(ctx, ownerID, typ)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Identity), args.Error(1)
}

func (m *MockCredentialStore) SaveIdentity(ctx context.Context, identity *Identity) error {
	args := m.Called(ctx, identity)
	return args.Error(0)
}

func (m *MockCredentialStore) DeleteIdentity(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCredentialStore) ConsumeIdentity(ctx context.Context, typ IdentityType, secret string) (*Identity, error) {
	args := m.Called(ctx, typ, secret)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Identity), args.Error(1)
}

func (m *MockCredentialStore) ReplaceUniqueIdentity(ctx context.Context, identity *Identity) error {
	args := m.Called(ctx, identity)
	return args.Error(0)
}

func (m *MockCredentialStore) TouchIdentity(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockCredentialStore) FindSubjectByID(ctx context.Context, id string) (Subject, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Subject), args.Error(1)
}

func (m *MockCredentialStore) RecordSubjectActive(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// MockMagicLinkSender is a mock implementation of MagicLinkSender.
type MockMagicLinkSender struct {
	mock.Mock
}

func (m *MockMagicLinkSender) SendMagicLink(ctx context.Context, link MagicLink) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

// attemptRecorder collects attempt entries in memory.
type attemptRecorder struct {
	mu       sync.Mutex
	attempts []LoginAttempt
}

func (r *attemptRecorder) Record(_ context.Context, a LoginAttempt) error {
	r.mu.Lock()
	r.attempts = append(r.attempts, a)
	r.mu.Unlock()
	return nil
}

func (r *attemptRecorder) All() []LoginAttempt {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LoginAttempt(nil), r.attempts...)
}

// testClock is a settable Clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// reversingCipher is a trivially reversible KeyCipher.
type reversingCipher struct{}

func (reversingCipher) Encrypt(s string) (string, error) { return "enc:" + reverse(s), nil }

func (reversingCipher) Decrypt(s string) (string, error) {
	if len(s) < 4 || s[:4] != "enc:" {
		return "", ErrBadToken
	}
	return reverse(s[4:]), nil
}

func reverse(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

// fixture bundles a memory store with a seeded user.
type fixture struct {
	store    *MemoryStore
	attempts *attemptRecorder
	clock    *testClock
	user     *User
}

func newFixture(t interface{ Helper() }) *fixture {
	t.Helper()
	store := NewMemoryStore()
	user := &User{ID: uuid.New(), Email: "user@example.com", Active: true}
	_ = store.CreateUser(context.Background(), user)
	return &fixture{
		store:    store,
		attempts: &attemptRecorder{},
		clock:    newTestClock(),
		user:     user,
	}
}

func (f *fixture) deps() Dependencies {
	return Dependencies{Store: f.store, Attempts: f.attempts, Clock: f.clock}
}

// raceStore runs onResolve once, between the identity lookup and the
// last use update of a verification.
type raceStore struct {
	*MemoryStore
	once      sync.Once
	onResolve func()
}

func (s *raceStore) FindSubjectByID(ctx context.Context, id string) (Subject, error) {
	s.once.Do(s.onResolve)
	return s.MemoryStore.FindSubjectByID(ctx, id)
}
