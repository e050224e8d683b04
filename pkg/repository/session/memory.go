// Package session stores the working state of open assessments, either in
// process memory or in Redis so that sessions survive a server restart.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskassess/pkg/domain/assessment"
	"github.com/secmon-lab/riskassess/pkg/domain/interfaces"
	"github.com/secmon-lab/riskassess/pkg/domain/model"
)

// DefaultTTL is how long an untouched session is kept
const DefaultTTL = 24 * time.Hour

type entry struct {
	session   *assessment.Session
	expiresAt time.Time
}

// Memory is an in-process session store
type Memory struct {
	mu       sync.RWMutex
	sessions map[assessment.SessionID]*entry
	ttl      time.Duration
	now      func() time.Time
}

var _ interfaces.SessionStore = &Memory{}

type MemoryOption func(*Memory)

// WithMemoryTTL sets the session lifetime
func WithMemoryTTL(ttl time.Duration) MemoryOption {
	return func(m *Memory) {
		m.ttl = ttl
	}
}

// WithClock replaces the time source
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		m.now = now
	}
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		sessions: make(map[assessment.SessionID]*entry),
		ttl:      DefaultTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Get(ctx context.Context, id assessment.SessionID) (*assessment.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.sessions[id]
	if !ok || m.now().After(e.expiresAt) {
		return nil, goerr.Wrap(model.ErrSessionNotFound, "session not found", goerr.V(model.SessionIDKey, id))
	}
	return e.session.Clone(), nil
}

func (m *Memory) Put(ctx context.Context, s *assessment.Session) error {
	if s.ID == "" {
		return goerr.New("session ID is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sessions[s.ID] = &entry{
		session:   s.Clone(),
		expiresAt: now.Add(m.ttl),
	}

	// drop expired sessions while holding the lock
	for id, e := range m.sessions {
		if now.After(e.expiresAt) {
			delete(m.sessions, id)
		}
	}
	return nil
}

func (m *Memory) Delete(ctx context.Context, id assessment.SessionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}
