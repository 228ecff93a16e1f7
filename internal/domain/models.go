package domain

import "time"

// Answer represents one selectable answer of a question. Questions may mark
// several answers correct; players must submit the exact correct set.
type Answer struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question models a timed multiple-answer question.
type Question struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Answers []Answer `json:"answers"`
	Points  int      `json:"points"`  // defaults to 1 if zero
	Seconds int      `json:"seconds"` // answer window; service default applies if zero
}

// Quiz is the authored content a session is started from.
type Quiz struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"ownerId"`
	Title     string     `json:"title"`
	InTrash   bool       `json:"inTrash"`
	Questions []Question `json:"questions"`
}

// User is an account known to the backing store. Only the lookup is consumed
// here; registration and credentials live elsewhere.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Player is a guest participant of one session.
type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// ChatMessage is one entry of a session's append-only chat log.
type ChatMessage struct {
	PlayerID string    `json:"playerId"`
	Name     string    `json:"name"`
	Text     string    `json:"text"`
	SentAt   time.Time `json:"sentAt"`
}

// PlayerAnswer is a submission for the currently open question. At most one
// exists per player; a later submission replaces the earlier one. Submissions
// are dropped when the next question opens.
type PlayerAnswer struct {
	PlayerID    string    `json:"playerId"`
	AnswerIDs   []string  `json:"answerIds"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// PlayerAward records what one correct respondent earned on one question.
// Rank is 1-based in submission order among correct respondents.
type PlayerAward struct {
	PlayerID string `json:"playerId"`
	Rank     int    `json:"rank"`
	Points   int    `json:"points"`
}

// QuestionResult holds the computed outcome of one closed question.
type QuestionResult struct {
	Position       int           `json:"position"` // 1-based question position
	QuestionID     string        `json:"questionId"`
	CorrectPlayers []string      `json:"correctPlayers"` // display names
	AverageMillis  int64         `json:"averageMillis"`  // over submitters only
	PercentCorrect int           `json:"percentCorrect"` // of all joined players
	Awards         []PlayerAward `json:"awards"`
}

// FinalStanding is one row of the final ranking.
type FinalStanding struct {
	Position int    `json:"position"`
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

// Session is the persistable aggregate of one live quiz run. It is mutated
// only through the lifecycle engine and committed back whole to the store.
// The quiz snapshot is taken at start time so later edits to the source quiz
// never affect a running session. In-flight timers are not part of the
// aggregate and do not survive a restart.
type Session struct {
	ID             string           `json:"id"`
	QuizID         string           `json:"quizId"`
	HostID         string           `json:"hostId"`
	State          State            `json:"state"`
	AtQuestion     int              `json:"atQuestion"` // 1-based, 0 before the first countdown
	Players        []Player         `json:"players"`    // join order
	Messages       []ChatMessage    `json:"messages"`
	Results        []QuestionResult `json:"results"`
	Standings      []FinalStanding  `json:"standings,omitempty"`
	QuizCopy       Quiz             `json:"quizCopy"`
	AutoStartCount int              `json:"autoStartCount"`
	CreatedAt      time.Time        `json:"createdAt"`
	StateEnteredAt time.Time        `json:"stateEnteredAt"`
}

// Active reports whether the session can still accept actions.
func (s Session) Active() bool {
	return s.State != StateEnd
}

// QuestionAt returns the 1-based question at pos from the session's snapshot.
func (s Session) QuestionAt(pos int) (Question, bool) {
	if pos < 1 || pos > len(s.QuizCopy.Questions) {
		return Question{}, false
	}
	return s.QuizCopy.Questions[pos-1], true
}

// SessionStatus is the read-only view served to status queries and pushed to
// subscribers.
type SessionStatus struct {
	SessionID     string    `json:"sessionId"`
	QuizID        string    `json:"quizId"`
	State         State     `json:"state"`
	AtQuestion    int       `json:"atQuestion"`
	QuestionCount int       `json:"questionCount"`
	PlayerCount   int       `json:"playerCount"`
	ChangedAt     time.Time `json:"changedAt"`
}

// QuestionView is the player-facing shape of the current question, stripped
// of correct flags.
type QuestionView struct {
	Position int          `json:"position"`
	Prompt   string       `json:"prompt"`
	Answers  []AnswerView `json:"answers"`
	Points   int          `json:"points"`
	Seconds  int          `json:"seconds"`
}

type AnswerView struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}
