package app

import (
	"sort"
	"sync"
	"time"

	"livequiz-service/internal/domain"
)

// Session is the in-memory owner of one live quiz run. The aggregate inside
// is only touched while holding mu; host actions, timer callbacks, joins and
// submissions all serialize on it, so a timer racing an explicit action
// always observes the already-transitioned state. Different sessions never
// block each other.
type Session struct {
	mu   sync.Mutex
	data domain.Session

	// current-question submissions, dropped when the next question opens
	answers  map[string]submission
	openedAt time.Time
	seq      int

	subscribers map[chan domain.SessionStatus]struct{}
	now         func() time.Time
}

// submission wraps a player answer with an arrival sequence so ties on the
// wall clock still rank in submission order.
type submission struct {
	domain.PlayerAnswer
	seq int
}

func newSession(data domain.Session, now func() time.Time) *Session {
	return &Session{
		data:        data,
		answers:     make(map[string]submission),
		subscribers: make(map[chan domain.SessionStatus]struct{}),
		now:         now,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.ID
}

// QuizID returns the quiz the session was started from.
func (s *Session) QuizID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.QuizID
}

// Active reports whether the session has not reached END.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Active()
}

// Snapshot returns a copy of the aggregate for persistence or inspection.
func (s *Session) Snapshot() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

func (s *Session) statusLocked() domain.SessionStatus {
	return domain.SessionStatus{
		SessionID:     s.data.ID,
		QuizID:        s.data.QuizID,
		State:         s.data.State,
		AtQuestion:    s.data.AtQuestion,
		QuestionCount: len(s.data.QuizCopy.Questions),
		PlayerCount:   len(s.data.Players),
		ChangedAt:     s.data.StateEnteredAt,
	}
}

func (s *Session) playerLocked(playerID string) (domain.Player, bool) {
	for _, p := range s.data.Players {
		if p.ID == playerID {
			return p, true
		}
	}
	return domain.Player{}, false
}

func (s *Session) nameTakenLocked(name string) bool {
	for _, p := range s.data.Players {
		if p.Name == name {
			return true
		}
	}
	return false
}

// resetAnswersLocked opens the collection window for the current question.
func (s *Session) resetAnswersLocked(openedAt time.Time) {
	s.answers = make(map[string]submission)
	s.openedAt = openedAt
	s.seq = 0
}

// recordAnswerLocked stores a submission, replacing any earlier one by the
// same player. Last write wins, including its timestamp.
func (s *Session) recordAnswerLocked(playerID string, answerIDs []string) {
	s.seq++
	s.answers[playerID] = submission{
		PlayerAnswer: domain.PlayerAnswer{
			PlayerID:    playerID,
			AnswerIDs:   append([]string(nil), answerIDs...),
			SubmittedAt: s.now(),
		},
		seq: s.seq,
	}
}

// submissionsLocked returns current submissions ordered by submit time, then
// arrival sequence.
func (s *Session) submissionsLocked() []submission {
	subs := make([]submission, 0, len(s.answers))
	for _, sub := range s.answers {
		subs = append(subs, sub)
	}
	sort.Slice(subs, func(i, j int) bool {
		if !subs[i].SubmittedAt.Equal(subs[j].SubmittedAt) {
			return subs[i].SubmittedAt.Before(subs[j].SubmittedAt)
		}
		return subs[i].seq < subs[j].seq
	})
	return subs
}

func (s *Session) subscribe() (<-chan domain.SessionStatus, func()) {
	ch := make(chan domain.SessionStatus, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	// the channel is fresh and buffered, so this never blocks; sending under
	// the lock keeps the snapshot ordered ahead of any broadcast
	ch <- s.statusLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked() {
	status := s.statusLocked()
	for ch := range s.subscribers {
		select {
		case ch <- status:
		default:
			// drop the stale update so slow readers never block a transition
			select {
			case <-ch:
			default:
			}
			ch <- status
		}
	}
}

// nextState is the transition table. hasMore reports whether questions remain
// after the one currently addressed; NEXT_QUESTION is only valid while they
// do. GO_TO_FINAL_RESULTS is accepted from ANSWER_SHOW as well as
// QUESTION_CLOSE so a session that already showed answers for the last
// question is never stranded.
func nextState(cur domain.State, act domain.Action, hasMore bool) (domain.State, error) {
	switch cur {
	case domain.StateLobby:
		switch act {
		case domain.ActionNextQuestion:
			return domain.StateQuestionCountdown, nil
		case domain.ActionEnd:
			return domain.StateEnd, nil
		}
	case domain.StateQuestionCountdown:
		switch act {
		case domain.ActionSkipCountdown:
			return domain.StateQuestionOpen, nil
		case domain.ActionEnd:
			return domain.StateEnd, nil
		}
	case domain.StateQuestionOpen:
		switch act {
		case domain.ActionGoToAnswer:
			return domain.StateAnswerShow, nil
		case domain.ActionEnd:
			return domain.StateEnd, nil
		}
	case domain.StateQuestionClose:
		switch act {
		case domain.ActionNextQuestion:
			if hasMore {
				return domain.StateQuestionCountdown, nil
			}
		case domain.ActionGoToAnswer:
			return domain.StateAnswerShow, nil
		case domain.ActionGoToFinalResults:
			return domain.StateFinalResults, nil
		case domain.ActionEnd:
			return domain.StateEnd, nil
		}
	case domain.StateAnswerShow:
		switch act {
		case domain.ActionNextQuestion:
			if hasMore {
				return domain.StateQuestionCountdown, nil
			}
		case domain.ActionGoToFinalResults:
			return domain.StateFinalResults, nil
		case domain.ActionEnd:
			return domain.StateEnd, nil
		}
	case domain.StateFinalResults:
		if act == domain.ActionEnd {
			return domain.StateEnd, nil
		}
	case domain.StateEnd:
		// terminal, nothing accepted
	}
	return "", domain.ErrInvalidAction
}
