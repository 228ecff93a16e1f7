package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"livequiz-service/internal/app"
	"livequiz-service/internal/domain"
	"livequiz-service/internal/infra/memory"
)

func TestWebSocketAnswerFlow(t *testing.T) {
	service := newTestService()
	sess, err := service.StartSession(context.Background(), "quiz-1", "host-1", 0)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", NewWSHandler(service).ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?sessionId=" + sess.ID + "&name=Alice"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var player domain.Player
	if err := json.Unmarshal(waitFor(t, conn, "joined"), &player); err != nil {
		t.Fatalf("decode joined payload: %v", err)
	}
	if player.Name != "Alice" {
		t.Fatalf("expected Alice, got %+v", player)
	}

	// answers are rejected while the session is still in the lobby
	writeMessage(t, conn, "answer", map[string]any{"question": 1, "answerIds": []string{"a2"}})
	waitFor(t, conn, "error")

	// host opens the first question, subscribers see the transitions
	if _, err := service.ApplyAction(context.Background(), "quiz-1", sess.ID, "host-1", "NEXT_QUESTION"); err != nil {
		t.Fatalf("next question: %v", err)
	}
	if _, err := service.ApplyAction(context.Background(), "quiz-1", sess.ID, "host-1", "SKIP_COUNTDOWN"); err != nil {
		t.Fatalf("skip countdown: %v", err)
	}

	writeMessage(t, conn, "question", nil)
	var view domain.QuestionView
	if err := json.Unmarshal(waitFor(t, conn, "question"), &view); err != nil {
		t.Fatalf("decode question payload: %v", err)
	}
	if view.Position != 1 || len(view.Answers) != 2 {
		t.Fatalf("unexpected question view %+v", view)
	}

	writeMessage(t, conn, "answer", map[string]any{"question": 1, "answerIds": []string{"a2"}})
	waitFor(t, conn, "answerAccepted")

	if _, err := service.ApplyAction(context.Background(), "quiz-1", sess.ID, "host-1", "GO_TO_ANSWER"); err != nil {
		t.Fatalf("go to answer: %v", err)
	}
	result, err := service.QuestionResult(context.Background(), "quiz-1", sess.ID, 1)
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if len(result.CorrectPlayers) != 1 || result.CorrectPlayers[0] != "Alice" {
		t.Fatalf("expected Alice scored over the socket, got %v", result.CorrectPlayers)
	}
}

func TestWebSocketChatAndStatus(t *testing.T) {
	service := newTestService()
	sess, err := service.StartSession(context.Background(), "quiz-1", "host-1", 0)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", NewWSHandler(service).ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?sessionId=" + sess.ID
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	waitFor(t, conn, "joined")

	var status domain.SessionStatus
	if err := json.Unmarshal(waitFor(t, conn, "status"), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.State != domain.StateLobby {
		t.Fatalf("expected lobby snapshot, got %+v", status)
	}

	writeMessage(t, conn, "chat", map[string]any{"text": "hello"})
	var messages []domain.ChatMessage
	if err := json.Unmarshal(waitFor(t, conn, "chat"), &messages); err != nil {
		t.Fatalf("decode chat: %v", err)
	}
	if len(messages) != 1 || messages[0].Text != "hello" {
		t.Fatalf("unexpected chat log %+v", messages)
	}
}

func TestWebSocketRejectsUnknownSession(t *testing.T) {
	service := newTestService()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", NewWSHandler(service).ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?sessionId=no-such-session"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	waitFor(t, conn, "error")
}

// waitFor reads messages until one of the wanted type arrives, skipping
// interleaved status pushes.
func waitFor(t *testing.T, conn *websocket.Conn, want string) json.RawMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for i := 0; i < 20; i++ {
		var msg struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read json: %v", err)
		}
		if msg.Type == want {
			return msg.Payload
		}
	}
	t.Fatalf("message of type %s never arrived", want)
	return nil
}

func writeMessage(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": msgType, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

func newTestService() *app.SessionService {
	store := memory.NewStaticStore(
		map[string]domain.Quiz{
			"quiz-1": {
				ID:      "quiz-1",
				OwnerID: "host-1",
				Title:   "Sample",
				Questions: []domain.Question{
					{
						ID:     "q1",
						Prompt: "What is 2 + 2?",
						Answers: []domain.Answer{
							{ID: "a1", Text: "3"},
							{ID: "a2", Text: "4", Correct: true},
						},
						Points: 1,
					},
				},
			},
		},
		map[string]domain.User{"host-1": {ID: "host-1", Name: "Host"}},
	)
	return app.NewSessionService(app.Config{
		Directory:    memory.NewDirectory(),
		Quizzes:      store,
		Users:        store,
		Sessions:     memory.NewSessionArchive(),
		Countdown:    time.Minute,
		QuestionTime: time.Minute,
	})
}
