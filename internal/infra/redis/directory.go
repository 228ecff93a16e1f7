package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"livequiz-service/internal/app"
)

// Directory is a Redis-aware implementation of app.SessionDirectory.
// Notes:
//   - It keeps a local in-memory map of sessions because the runtime session
//     (mutex, timers, subscribers) is inherently in-process.
//   - Redis holds liveness markers per session and a per-quiz index so other
//     instances and dashboards can see which sessions exist and which are
//     still running.
type Directory struct {
	client *redis.Client
	ttl    time.Duration

	mu       sync.RWMutex
	sessions map[string]*app.Session
	byQuiz   map[string][]*app.Session
}

func NewDirectory(client *redis.Client, ttl time.Duration) *Directory {
	return &Directory{
		client:   client,
		ttl:      ttl,
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

	// best-effort liveness marker plus quiz index
	ctx := context.Background()
	_ = d.client.Set(ctx, d.liveKey(id), "1", d.ttl).Err()
	_ = d.client.SAdd(ctx, d.quizKey(quizID), id).Err()
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

// Deactivate clears the liveness marker once a session reaches its terminal
// state. The session stays in the local map and the quiz index for listing.
func (d *Directory) Deactivate(s *app.Session) {
	_ = d.client.Del(context.Background(), d.liveKey(s.ID())).Err()
}

func (d *Directory) liveKey(sessionID string) string {
	return "session:live:" + sessionID
}

func (d *Directory) quizKey(quizID string) string {
	return "quiz:sessions:" + quizID
}
