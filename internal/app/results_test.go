package app

import (
	"testing"
	"time"

	"livequiz-service/internal/domain"
)

func TestRankMultiplierPct(t *testing.T) {
	cases := []struct{ rank, want int }{
		{1, 100}, {2, 90}, {3, 80}, {6, 50}, {7, 50}, {20, 50},
	}
	for _, c := range cases {
		if got := rankMultiplierPct(c.rank); got != c.want {
			t.Fatalf("rank %d: expected %d, got %d", c.rank, c.want, got)
		}
	}
}

func TestComputeQuestionResult(t *testing.T) {
	question := domain.Question{
		ID:     "q1",
		Points: 100,
		Answers: []domain.Answer{
			{ID: "a1", Correct: true},
			{ID: "a2"},
			{ID: "a3", Correct: true},
		},
	}
	players := []domain.Player{
		{ID: "p1", Name: "Alice"},
		{ID: "p2", Name: "Bob"},
		{ID: "p3", Name: "Carol"},
	}
	opened := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	subs := []submission{
		{PlayerAnswer: domain.PlayerAnswer{PlayerID: "p2", AnswerIDs: []string{"a3", "a1"}, SubmittedAt: opened.Add(1 * time.Second)}, seq: 1},
		{PlayerAnswer: domain.PlayerAnswer{PlayerID: "p1", AnswerIDs: []string{"a1", "a3"}, SubmittedAt: opened.Add(2 * time.Second)}, seq: 2},
		{PlayerAnswer: domain.PlayerAnswer{PlayerID: "p3", AnswerIDs: []string{"a1"}, SubmittedAt: opened.Add(3 * time.Second)}, seq: 3},
	}

	result, updated := computeQuestionResult(1, question, subs, players, opened)

	// order matters: Bob answered first and gets rank 1
	if len(result.Awards) != 2 {
		t.Fatalf("expected 2 awards, got %+v", result.Awards)
	}
	if result.Awards[0].PlayerID != "p2" || result.Awards[0].Rank != 1 || result.Awards[0].Points != 100 {
		t.Fatalf("unexpected rank-1 award %+v", result.Awards[0])
	}
	if result.Awards[1].PlayerID != "p1" || result.Awards[1].Rank != 2 || result.Awards[1].Points != 90 {
		t.Fatalf("unexpected rank-2 award %+v", result.Awards[1])
	}
	if len(result.CorrectPlayers) != 2 || result.CorrectPlayers[0] != "Bob" || result.CorrectPlayers[1] != "Alice" {
		t.Fatalf("unexpected correct players %v", result.CorrectPlayers)
	}

	// subset of the correct answers is wrong; average is over all submitters
	if result.AverageMillis != 2000 {
		t.Fatalf("expected average 2000ms, got %d", result.AverageMillis)
	}
	if result.PercentCorrect != 67 {
		t.Fatalf("expected 67%%, got %d", result.PercentCorrect)
	}

	if updated[0].Score != 90 || updated[1].Score != 100 || updated[2].Score != 0 {
		t.Fatalf("unexpected score updates %+v", updated)
	}
	if players[0].Score != 0 {
		t.Fatalf("input players must not be mutated")
	}
}

func TestComputeQuestionResultNonAnswersExcluded(t *testing.T) {
	question := domain.Question{
		ID:      "q1",
		Points:  1,
		Answers: []domain.Answer{{ID: "a1", Correct: true}},
	}
	players := []domain.Player{{ID: "p1"}, {ID: "p2"}, {ID: "p3"}}
	opened := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	subs := []submission{
		{PlayerAnswer: domain.PlayerAnswer{PlayerID: "p1", AnswerIDs: []string{"a1"}, SubmittedAt: opened.Add(500 * time.Millisecond)}, seq: 1},
	}

	result, _ := computeQuestionResult(1, question, subs, players, opened)

	if result.AverageMillis != 500 {
		t.Fatalf("non-answering players must not drag the average, got %d", result.AverageMillis)
	}
	// 1 of 3 correct rounds to 33
	if result.PercentCorrect != 33 {
		t.Fatalf("expected 33%%, got %d", result.PercentCorrect)
	}
	// ceiling division keeps a correct answer worth at least a point
	if result.Awards[0].Points != 1 {
		t.Fatalf("expected 1 point, got %d", result.Awards[0].Points)
	}
}

func TestFinalStandingsStableOnTies(t *testing.T) {
	players := []domain.Player{
		{ID: "p1", Name: "Alice", Score: 10},
		{ID: "p2", Name: "Bob", Score: 30},
		{ID: "p3", Name: "Carol", Score: 10},
	}

	standings := finalStandings(players)

	if standings[0].PlayerID != "p2" || standings[0].Position != 1 {
		t.Fatalf("expected Bob first, got %+v", standings[0])
	}
	// equal scores keep join order
	if standings[1].PlayerID != "p1" || standings[2].PlayerID != "p3" {
		t.Fatalf("tie must keep join order, got %+v", standings[1:])
	}
	if standings[2].Position != 3 {
		t.Fatalf("positions must be sequential, got %+v", standings[2])
	}
}
