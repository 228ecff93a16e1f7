package domain

import "errors"

// Not-found and authorization errors. Session lookups fail distinctly from
// quiz lookups so callers can tell a bad session id from a bad quiz id.
var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrSessionNotFound is returned when no session matches the given id
	// under the addressed quiz.
	ErrSessionNotFound = errors.New("session not found")
	// ErrPlayerNotFound is returned when a player acts before joining.
	ErrPlayerNotFound = errors.New("player not found in session")
	// ErrUserNotFound indicates the host account could not be loaded.
	ErrUserNotFound = errors.New("user not found")
	// ErrNotHost is returned when the requester does not own the quiz.
	ErrNotHost = errors.New("requester is not the quiz host")
)

// Invalid-state errors. None of these mutate the session.
var (
	// ErrUnknownAction is returned for actions outside the enumeration.
	ErrUnknownAction = errors.New("unrecognized action")
	// ErrInvalidAction is returned when the action is recognized but not
	// applicable in the session's current state.
	ErrInvalidAction = errors.New("action not applicable in current state")
	// ErrWrongQuestion is returned when a submission addresses a question
	// position other than the one currently open.
	ErrWrongQuestion = errors.New("question position does not match the open question")
	// ErrAnswersClosed is returned when a submission arrives outside the
	// question's open window.
	ErrAnswersClosed = errors.New("answers are not being accepted")
	// ErrResultNotAvailable is returned when a result is queried before the
	// engine has computed it.
	ErrResultNotAvailable = errors.New("result not available yet")
)

// Invalid-input errors.
var (
	// ErrEmptyAnswer is returned for submissions with no answer ids.
	ErrEmptyAnswer = errors.New("submission contains no answers")
	// ErrDuplicateAnswer is returned when a submission repeats an answer id.
	ErrDuplicateAnswer = errors.New("submission contains duplicate answers")
	// ErrUnknownAnswer is returned when an answer id does not belong to the
	// open question.
	ErrUnknownAnswer = errors.New("answer does not belong to the open question")
	// ErrNameTaken is returned when the display name is already used in the
	// session.
	ErrNameTaken = errors.New("display name already taken")
	// ErrNoQuestions rejects starting a session for a quiz without questions.
	ErrNoQuestions = errors.New("quiz has no questions")
	// ErrQuizTrashed rejects starting a session for a trashed quiz.
	ErrQuizTrashed = errors.New("quiz is in trash")
	// ErrSessionLimit rejects starting a session beyond the per-quiz cap of
	// concurrently active sessions.
	ErrSessionLimit = errors.New("too many active sessions for quiz")
)
