package app

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"livequiz-service/internal/domain"
	"livequiz-service/internal/timer"
)

// SessionDirectory tracks live sessions for lookup and per-quiz listing
// (in-memory, Redis-backed, etc).
type SessionDirectory interface {
	Put(s *Session)
	Get(sessionID string) (*Session, bool)
	ByQuiz(quizID string) []*Session
	Deactivate(s *Session)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// UserRepository looks up host accounts.
type UserRepository interface {
	GetUser(ctx context.Context, userID string) (domain.User, error)
}

// SessionWriter commits a full session aggregate. The commit either fully
// succeeds or fails; there is no partial-field update.
type SessionWriter interface {
	SaveSession(ctx context.Context, s domain.Session) error
}

const (
	defaultCountdown    = 3 * time.Second
	defaultQuestionTime = 20 * time.Second
	defaultMaxActive    = 4
)

type Config struct {
	Directory SessionDirectory
	Quizzes   QuizRepository
	Users     UserRepository
	Sessions  SessionWriter
	Timers    *timer.Service

	// Countdown is the delay between NEXT_QUESTION and the question opening.
	Countdown time.Duration
	// QuestionTime is the answer window for questions without their own.
	QuestionTime time.Duration
	// MaxActive caps concurrently active sessions per quiz.
	MaxActive int

	// Clock is test-only for deterministic timestamps.
	Clock func() time.Time
}

// SessionService runs the quiz session lifecycle: it validates host actions,
// drives autonomous timer transitions through the same path, collects player
// answers, and computes results.
type SessionService struct {
	directory SessionDirectory
	quizzes   QuizRepository
	users     UserRepository
	sessions  SessionWriter
	timers    *timer.Service

	countdown    time.Duration
	questionTime time.Duration
	maxActive    int
	clock        func() time.Time

	// serializes session creation per quiz so the active cap holds under
	// concurrent starts
	startMu    sync.Mutex
	startLocks map[string]*sync.Mutex
}

func NewSessionService(c Config) *SessionService {
	s := &SessionService{
		directory:    c.Directory,
		quizzes:      c.Quizzes,
		users:        c.Users,
		sessions:     c.Sessions,
		timers:       c.Timers,
		countdown:    c.Countdown,
		questionTime: c.QuestionTime,
		maxActive:    c.MaxActive,
		clock:        c.Clock,
		startLocks:   make(map[string]*sync.Mutex),
	}
	if s.timers == nil {
		s.timers = timer.NewService()
	}
	if s.countdown <= 0 {
		s.countdown = defaultCountdown
	}
	if s.questionTime <= 0 {
		s.questionTime = defaultQuestionTime
	}
	if s.maxActive <= 0 {
		s.maxActive = defaultMaxActive
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	return s
}

// StartSession creates a session in LOBBY for the given quiz. The quiz is
// snapshotted into the session so later edits or deletion of the source quiz
// never affect the running session.
func (s *SessionService) StartSession(ctx context.Context, quizID, hostID string, autoStartCount int) (domain.Session, error) {
	if _, err := s.users.GetUser(ctx, hostID); err != nil {
		return domain.Session{}, err
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Session{}, err
	}
	if quiz.OwnerID != hostID {
		return domain.Session{}, domain.ErrNotHost
	}
	if quiz.InTrash {
		return domain.Session{}, domain.ErrQuizTrashed
	}
	if len(quiz.Questions) == 0 {
		return domain.Session{}, domain.ErrNoQuestions
	}

	// the cap check and the directory registration must be atomic per quiz,
	// or concurrent starts all observe the same count and all pass
	lock := s.quizStartLock(quizID)
	lock.Lock()
	defer lock.Unlock()

	active := 0
	for _, other := range s.directory.ByQuiz(quizID) {
		if other.Active() {
			active++
		}
	}
	if active >= s.maxActive {
		return domain.Session{}, domain.ErrSessionLimit
	}

	now := s.clock()
	data := domain.Session{
		ID:             uuid.NewString(),
		QuizID:         quizID,
		HostID:         hostID,
		State:          domain.StateLobby,
		AtQuestion:     0,
		Players:        []domain.Player{},
		Messages:       []domain.ChatMessage{},
		Results:        []domain.QuestionResult{},
		QuizCopy:       snapshotQuiz(quiz),
		AutoStartCount: autoStartCount,
		CreatedAt:      now,
		StateEnteredAt: now,
	}

	if err := s.sessions.SaveSession(ctx, data); err != nil {
		return domain.Session{}, fmt.Errorf("commit session: %w", err)
	}

	sess := newSession(data, s.clock)
	s.directory.Put(sess)
	return data, nil
}

// ApplyAction applies a host command to a session. Quiz and session ids are
// validated before the action is dispatched; a bad session id fails
// distinctly from a bad quiz id.
func (s *SessionService) ApplyAction(ctx context.Context, quizID, sessionID, hostID, rawAction string) (domain.SessionStatus, error) {
	sess, err := s.sessionForQuiz(ctx, quizID, sessionID)
	if err != nil {
		return domain.SessionStatus{}, err
	}

	act, err := domain.ParseAction(rawAction)
	if err != nil {
		return domain.SessionStatus{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.data.HostID != hostID {
		return domain.SessionStatus{}, domain.ErrNotHost
	}
	if err := s.transitionLocked(ctx, sess, act); err != nil {
		return domain.SessionStatus{}, err
	}
	return sess.statusLocked(), nil
}

// Join adds a guest player to a session. A blank display name gets a
// generated one. Reaching the session's auto-start count while in LOBBY
// fires NEXT_QUESTION.
func (s *SessionService) Join(ctx context.Context, sessionID, displayName string) (domain.Player, error) {
	sess, ok := s.directory.Get(sessionID)
	if !ok {
		return domain.Player{}, domain.ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if !sess.data.Active() {
		return domain.Player{}, domain.ErrInvalidAction
	}

	name := displayName
	if name == "" {
		for name = generateName(); sess.nameTakenLocked(name); name = generateName() {
		}
	} else if sess.nameTakenLocked(name) {
		return domain.Player{}, domain.ErrNameTaken
	}

	player := domain.Player{ID: uuid.NewString(), Name: name}

	data := sess.data
	data.Players = append(append([]domain.Player(nil), data.Players...), player)
	if err := s.sessions.SaveSession(ctx, data); err != nil {
		return domain.Player{}, fmt.Errorf("commit session: %w", err)
	}
	sess.data = data
	sess.broadcastLocked()

	if data.State == domain.StateLobby && data.AutoStartCount > 0 && len(data.Players) >= data.AutoStartCount {
		if err := s.transitionLocked(ctx, sess, domain.ActionNextQuestion); err != nil {
			log.Printf("session %s: auto-start failed: %v", data.ID, err)
		}
	}

	return player, nil
}

// SubmitAnswer records a player's answer for the open question. A later
// submission by the same player replaces the earlier one. Submissions are
// ephemeral; they are not part of the persisted aggregate.
func (s *SessionService) SubmitAnswer(ctx context.Context, sessionID, playerID string, questionPos int, answerIDs []string) error {
	sess, ok := s.directory.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.data.State != domain.StateQuestionOpen {
		return domain.ErrAnswersClosed
	}
	if questionPos != sess.data.AtQuestion {
		return domain.ErrWrongQuestion
	}
	if _, ok := sess.playerLocked(playerID); !ok {
		return domain.ErrPlayerNotFound
	}
	if len(answerIDs) == 0 {
		return domain.ErrEmptyAnswer
	}

	question, _ := sess.data.QuestionAt(sess.data.AtQuestion)
	valid := make(map[string]struct{}, len(question.Answers))
	for _, a := range question.Answers {
		valid[a.ID] = struct{}{}
	}
	seen := make(map[string]struct{}, len(answerIDs))
	for _, id := range answerIDs {
		if _, dup := seen[id]; dup {
			return domain.ErrDuplicateAnswer
		}
		seen[id] = struct{}{}
		if _, ok := valid[id]; !ok {
			return domain.ErrUnknownAnswer
		}
	}

	sess.recordAnswerLocked(playerID, answerIDs)
	return nil
}

// SessionStatus returns the current lifecycle view of a session.
func (s *SessionService) SessionStatus(ctx context.Context, quizID, sessionID string) (domain.SessionStatus, error) {
	sess, err := s.sessionForQuiz(ctx, quizID, sessionID)
	if err != nil {
		return domain.SessionStatus{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.statusLocked(), nil
}

// ListSessions returns status views for every session of a quiz, active and
// ended, ordered by creation time.
func (s *SessionService) ListSessions(ctx context.Context, quizID string) ([]domain.SessionStatus, error) {
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return nil, err
	}

	sessions := s.directory.ByQuiz(quizID)
	snapshots := make([]domain.Session, 0, len(sessions))
	for _, sess := range sessions {
		snapshots = append(snapshots, sess.Snapshot())
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].CreatedAt.Before(snapshots[j].CreatedAt)
	})

	out := make([]domain.SessionStatus, 0, len(snapshots))
	for _, data := range snapshots {
		out = append(out, domain.SessionStatus{
			SessionID:     data.ID,
			QuizID:        data.QuizID,
			State:         data.State,
			AtQuestion:    data.AtQuestion,
			QuestionCount: len(data.QuizCopy.Questions),
			PlayerCount:   len(data.Players),
			ChangedAt:     data.StateEnteredAt,
		})
	}
	return out, nil
}

// QuestionResult returns the computed result for a 1-based question position.
func (s *SessionService) QuestionResult(ctx context.Context, quizID, sessionID string, pos int) (domain.QuestionResult, error) {
	sess, err := s.sessionForQuiz(ctx, quizID, sessionID)
	if err != nil {
		return domain.QuestionResult{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	for _, res := range sess.data.Results {
		if res.Position == pos {
			return res, nil
		}
	}
	return domain.QuestionResult{}, domain.ErrResultNotAvailable
}

// FinalResults returns the final ranking, available once the session reached
// FINAL_RESULTS.
func (s *SessionService) FinalResults(ctx context.Context, quizID, sessionID string) ([]domain.FinalStanding, error) {
	sess, err := s.sessionForQuiz(ctx, quizID, sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	// standings exist once FINAL_RESULTS was reached, including after END;
	// a session ended before that has none
	if sess.data.State != domain.StateFinalResults && sess.data.Standings == nil {
		return nil, domain.ErrResultNotAvailable
	}
	return append([]domain.FinalStanding(nil), sess.data.Standings...), nil
}

// PlayerStatus returns a player's own record plus the session view.
func (s *SessionService) PlayerStatus(_ context.Context, sessionID, playerID string) (domain.Player, domain.SessionStatus, error) {
	sess, ok := s.directory.Get(sessionID)
	if !ok {
		return domain.Player{}, domain.SessionStatus{}, domain.ErrSessionNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	player, ok := sess.playerLocked(playerID)
	if !ok {
		return domain.Player{}, domain.SessionStatus{}, domain.ErrPlayerNotFound
	}
	return player, sess.statusLocked(), nil
}

// QuestionInfo returns the currently addressed question without correct
// flags, for player display.
func (s *SessionService) QuestionInfo(_ context.Context, sessionID string) (domain.QuestionView, error) {
	sess, ok := s.directory.Get(sessionID)
	if !ok {
		return domain.QuestionView{}, domain.ErrSessionNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.data.AtQuestion == 0 || !sess.data.Active() {
		return domain.QuestionView{}, domain.ErrInvalidAction
	}
	question, _ := sess.data.QuestionAt(sess.data.AtQuestion)

	view := domain.QuestionView{
		Position: sess.data.AtQuestion,
		Prompt:   question.Prompt,
		Answers:  make([]domain.AnswerView, 0, len(question.Answers)),
		Points:   question.Points,
		Seconds:  question.Seconds,
	}
	for _, a := range question.Answers {
		view.Answers = append(view.Answers, domain.AnswerView{ID: a.ID, Text: a.Text})
	}
	return view, nil
}

// PostMessage appends to the session's chat log.
func (s *SessionService) PostMessage(ctx context.Context, sessionID, playerID, text string) error {
	sess, ok := s.directory.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	player, ok := sess.playerLocked(playerID)
	if !ok {
		return domain.ErrPlayerNotFound
	}

	data := sess.data
	data.Messages = append(append([]domain.ChatMessage(nil), data.Messages...), domain.ChatMessage{
		PlayerID: player.ID,
		Name:     player.Name,
		Text:     text,
		SentAt:   s.clock(),
	})
	if err := s.sessions.SaveSession(ctx, data); err != nil {
		return fmt.Errorf("commit session: %w", err)
	}
	sess.data = data
	return nil
}

// Messages returns the session's chat log.
func (s *SessionService) Messages(_ context.Context, sessionID string) ([]domain.ChatMessage, error) {
	sess, ok := s.directory.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return append([]domain.ChatMessage(nil), sess.data.Messages...), nil
}

// Subscribe returns a channel receiving status updates for a session. The
// caller must invoke the returned cancel function to avoid leaks.
func (s *SessionService) Subscribe(_ context.Context, sessionID string) (<-chan domain.SessionStatus, func(), error) {
	sess, ok := s.directory.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := sess.subscribe()
	return ch, cancel, nil
}

func (s *SessionService) quizStartLock(quizID string) *sync.Mutex {
	s.startMu.Lock()
	defer s.startMu.Unlock()
	lock, ok := s.startLocks[quizID]
	if !ok {
		lock = &sync.Mutex{}
		s.startLocks[quizID] = lock
	}
	return lock
}

// sessionForQuiz validates both identifiers: a missing session, or one
// belonging to another quiz, fails distinctly from a missing quiz. A known
// session is resolved without touching the live quiz, so editing or deleting
// the source quiz never breaks an in-progress session.
func (s *SessionService) sessionForQuiz(ctx context.Context, quizID, sessionID string) (*Session, error) {
	if sess, ok := s.directory.Get(sessionID); ok && sess.QuizID() == quizID {
		return sess, nil
	}
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return nil, err
	}
	return nil, domain.ErrSessionNotFound
}

// transitionLocked is the single transition path shared by host actions,
// timer callbacks and auto-start. The aggregate is committed before any
// in-memory mutation or timer change, so a failed commit has no visible side
// effect.
func (s *SessionService) transitionLocked(ctx context.Context, sess *Session, act domain.Action) error {
	hasMore := sess.data.AtQuestion < len(sess.data.QuizCopy.Questions)
	next, err := nextState(sess.data.State, act, hasMore)
	if err != nil {
		return err
	}
	return s.enterLocked(ctx, sess, next)
}

// enterLocked moves the session into next, computing results when the open
// window closes and committing the updated aggregate before arming or
// cancelling timers.
func (s *SessionService) enterLocked(ctx context.Context, sess *Session, next domain.State) error {
	now := s.clock()
	cur := sess.data.State
	data := sess.data

	switch next {
	case domain.StateQuestionCountdown:
		data.AtQuestion++
	case domain.StateQuestionClose, domain.StateAnswerShow:
		if cur == domain.StateQuestionOpen {
			question, _ := data.QuestionAt(data.AtQuestion)
			result, players := computeQuestionResult(data.AtQuestion, question, sess.submissionsLocked(), data.Players, sess.openedAt)
			data.Results = append(append([]domain.QuestionResult(nil), data.Results...), result)
			data.Players = players
		}
	case domain.StateFinalResults:
		data.Standings = finalStandings(data.Players)
	}
	data.State = next
	data.StateEnteredAt = now

	if err := s.sessions.SaveSession(ctx, data); err != nil {
		return fmt.Errorf("commit session: %w", err)
	}
	sess.data = data

	switch next {
	case domain.StateQuestionCountdown:
		id := data.ID
		s.timers.Schedule(id, s.countdown, func() { s.countdownElapsed(id) })
	case domain.StateQuestionOpen:
		sess.resetAnswersLocked(now)
		id, pos := data.ID, data.AtQuestion
		s.timers.Schedule(id, s.questionDuration(data), func() { s.questionElapsed(id, pos) })
	case domain.StateEnd:
		s.timers.Cancel(data.ID)
		s.directory.Deactivate(sess)
	default:
		s.timers.Cancel(data.ID)
	}

	sess.broadcastLocked()
	return nil
}

func (s *SessionService) questionDuration(data domain.Session) time.Duration {
	if question, ok := data.QuestionAt(data.AtQuestion); ok && question.Seconds > 0 {
		return time.Duration(question.Seconds) * time.Second
	}
	return s.questionTime
}

// countdownElapsed is the autonomous countdown→open transition. The state
// check makes a late callback against an already-moved session a no-op.
func (s *SessionService) countdownElapsed(sessionID string) {
	sess, ok := s.directory.Get(sessionID)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.data.State != domain.StateQuestionCountdown {
		return
	}
	if err := s.enterLocked(context.Background(), sess, domain.StateQuestionOpen); err != nil {
		log.Printf("session %s: open question failed: %v", sessionID, err)
	}
}

// questionElapsed is the autonomous open→close transition when the answer
// window runs out without a host action.
func (s *SessionService) questionElapsed(sessionID string, pos int) {
	sess, ok := s.directory.Get(sessionID)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.data.State != domain.StateQuestionOpen || sess.data.AtQuestion != pos {
		return
	}
	if err := s.enterLocked(context.Background(), sess, domain.StateQuestionClose); err != nil {
		log.Printf("session %s: close question failed: %v", sessionID, err)
	}
}

// snapshotQuiz deep-copies quiz content so the session is isolated from
// later edits to the live quiz.
func snapshotQuiz(quiz domain.Quiz) domain.Quiz {
	copied := quiz
	copied.Questions = make([]domain.Question, len(quiz.Questions))
	for i, q := range quiz.Questions {
		cq := q
		cq.Answers = append([]domain.Answer(nil), q.Answers...)
		copied.Questions[i] = cq
	}
	return copied
}
