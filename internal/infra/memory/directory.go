package memory

import (
	"sync"

	"livequiz-service/internal/app"
)

// Directory is an in-memory implementation of app.SessionDirectory. Sessions
// are never removed; ended ones stay listed as inactive.
type Directory struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
	byQuiz   map[string][]*app.Session
}

func NewDirectory() *Directory {
	return &Directory{
		sessions: make(map[string]*app.Session),
		byQuiz:   make(map[string][]*app.Session),
	}
}

func (d *Directory) Put(s *app.Session) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := s.ID()
	if _, ok := d.sessions[id]; ok {
		return
	}
	d.sessions[id] = s
	quizID := s.QuizID()
	d.byQuiz[quizID] = append(d.byQuiz[quizID], s)
}

func (d *Directory) Get(sessionID string) (*app.Session, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.sessions[sessionID]
	return s, ok
}

func (d *Directory) ByQuiz(quizID string) []*app.Session {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]*app.Session(nil), d.byQuiz[quizID]...)
}

// Deactivate is a notification hook; the in-memory directory derives
// activity from the session itself.
func (d *Directory) Deactivate(*app.Session) {}
