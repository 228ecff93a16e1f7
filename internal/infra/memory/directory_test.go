package memory

import (
	"context"
	"testing"
	"time"

	"livequiz-service/internal/app"
	"livequiz-service/internal/domain"
)

func TestDirectoryTracksSessions(t *testing.T) {
	directory := NewDirectory()
	store := NewStaticStore(
		map[string]domain.Quiz{"quiz-1": sampleQuiz()},
		map[string]domain.User{"host-1": {ID: "host-1"}},
	)
	service := app.NewSessionService(app.Config{
		Directory: directory,
		Quizzes:   store,
		Users:     store,
		Sessions:  NewSessionArchive(),
		Countdown: time.Minute,
	})

	first, err := service.StartSession(context.Background(), "quiz-1", "host-1", 0)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	second, err := service.StartSession(context.Background(), "quiz-1", "host-1", 0)
	if err != nil {
		t.Fatalf("start second: %v", err)
	}

	if _, ok := directory.Get(first.ID); !ok {
		t.Fatalf("expected session present")
	}
	if _, ok := directory.Get("no-such-id"); ok {
		t.Fatalf("expected miss for unknown id")
	}
	if got := len(directory.ByQuiz("quiz-1")); got != 2 {
		t.Fatalf("expected 2 sessions for quiz, got %d", got)
	}

	// ended sessions stay listed but report inactive
	if _, err := service.ApplyAction(context.Background(), "quiz-1", first.ID, "host-1", "END"); err != nil {
		t.Fatalf("end: %v", err)
	}
	sessions := directory.ByQuiz("quiz-1")
	if len(sessions) != 2 {
		t.Fatalf("ended session must stay listed, got %d", len(sessions))
	}
	ended, _ := directory.Get(first.ID)
	if ended.Active() {
		t.Fatalf("expected ended session inactive")
	}
	still, _ := directory.Get(second.ID)
	if !still.Active() {
		t.Fatalf("expected second session active")
	}
}

func TestSessionArchiveRoundTrip(t *testing.T) {
	archive := NewSessionArchive()

	if _, err := archive.LoadSession(context.Background(), "missing"); err != domain.ErrSessionNotFound {
		t.Fatalf("expected not-found, got %v", err)
	}

	data := domain.Session{ID: "s1", QuizID: "quiz-1", State: domain.StateLobby}
	if err := archive.SaveSession(context.Background(), data); err != nil {
		t.Fatalf("save: %v", err)
	}
	data.State = domain.StateEnd
	if err := archive.SaveSession(context.Background(), data); err != nil {
		t.Fatalf("save again: %v", err)
	}

	loaded, err := archive.LoadSession(context.Background(), "s1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.State != domain.StateEnd {
		t.Fatalf("expected last committed state, got %+v", loaded)
	}
}
