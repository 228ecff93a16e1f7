// Package timer provides cancellable one-shot callbacks keyed by session id.
// Each key holds at most one live timer; scheduling replaces any pending one.
package timer

import (
	"sync"
	"time"
)

// Service schedules deferred callbacks. The zero value is not usable; create
// one with NewService. Callbacks run on their own goroutine.
type Service struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewService() *Service {
	return &Service{timers: make(map[string]*time.Timer)}
}

// Schedule arms fn to run after d, replacing any pending timer for key.
// A replaced or cancelled timer never invokes its callback, even if it had
// already expired and was waiting on the internal lock.
func (s *Service) Schedule(key string, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.timers[key]; ok {
		prev.Stop()
	}

	var t *time.Timer
	t = time.AfterFunc(d, func() {
		s.mu.Lock()
		if s.timers[key] != t {
			// superseded between expiry and acquiring the lock
			s.mu.Unlock()
			return
		}
		delete(s.timers, key)
		s.mu.Unlock()
		fn()
	})
	s.timers[key] = t
}

// Cancel stops the pending timer for key, if any. Idempotent.
func (s *Service) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[key]; ok {
		t.Stop()
		delete(s.timers, key)
	}
}

// Pending reports whether a timer is armed for key.
func (s *Service) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[key]
	return ok
}
