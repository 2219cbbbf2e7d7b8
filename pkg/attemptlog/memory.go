package attemptlog

import (
	"context"
	"sync"

	"github.com/dmitrymomot/authkit/pkg/auth"
)

// Memory keeps attempts in a slice. Useful in tests and for local runs.
type Memory struct {
	mu       sync.RWMutex
	attempts []auth.LoginAttempt
}

var (
	_ auth.AttemptLogger = (*Memory)(nil)
	_ BatchWriter        = (*Memory)(nil)
)

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Record(_ context.Context, a auth.LoginAttempt) error {
	m.mu.Lock()
	m.attempts = append(m.attempts, a)
	m.mu.Unlock()
	return nil
}

func (m *Memory) StoreBatch(_ context.Context, attempts []auth.LoginAttempt) error {
	m.mu.Lock()
	m.attempts = append(m.attempts, attempts...)
	m.mu.Unlock()
	return nil
}

// All returns a copy of the recorded attempts in write order.
func (m *Memory) All() []auth.LoginAttempt {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]auth.LoginAttempt(nil), m.attempts...)
}

// ForUser returns the attempts attributed to userID.
func (m *Memory) ForUser(userID string) []auth.LoginAttempt {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []auth.LoginAttempt
	for _, a := range m.attempts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out
}
