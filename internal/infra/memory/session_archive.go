package memory

import (
	"context"
	"sync"

	"livequiz-service/internal/domain"
)

// SessionArchive keeps committed session aggregates in memory. It stands in
// for the Postgres writer when no database is configured.
type SessionArchive struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

func NewSessionArchive() *SessionArchive {
	return &SessionArchive{sessions: make(map[string]domain.Session)}
}

func (a *SessionArchive) SaveSession(_ context.Context, s domain.Session) error {
	a.mu.Lock()
	a.sessions[s.ID] = s
	a.mu.Unlock()
	return nil
}

// LoadSession returns the last committed aggregate for a session.
func (a *SessionArchive) LoadSession(_ context.Context, sessionID string) (domain.Session, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if s, ok := a.sessions[sessionID]; ok {
		return s, nil
	}
	return domain.Session{}, domain.ErrSessionNotFound
}
