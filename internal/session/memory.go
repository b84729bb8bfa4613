package session

import (
	"context"
	"sync"
	"time"
)

// Memory is a process-local Store; sessions are lost on restart.
type Memory struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	byID map[int64]Session
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, now: time.Now, byID: map[int64]Session{}}
}

func (m *Memory) expired(s Session) bool {
	return m.ttl > 0 && m.now().Sub(s.UpdatedAt) > m.ttl
}

func (m *Memory) Get(_ context.Context, userID int64) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[userID]
	if !ok || m.expired(s) {
		delete(m.byID, userID)
		return Session{UserID: userID}, nil
	}
	return s, nil
}

func (m *Memory) Put(_ context.Context, s Session) error {
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = m.now()
	}
	m.mu.Lock()
	m.byID[s.UserID] = s
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	delete(m.byID, userID)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }
