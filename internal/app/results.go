package app

import (
	"math"
	"sort"
	"time"

	"livequiz-service/internal/domain"
)

// rankMultiplierPct scales a question's points by the respondent's rank among
// correct submissions: full points for the first, ten percentage points less
// per rank after that, never below half.
func rankMultiplierPct(rank int) int {
	pct := 100 - 10*(rank-1)
	if pct < 50 {
		pct = 50
	}
	return pct
}

// computeQuestionResult scores the just-closed question. Correctness requires
// the submitted set to match the full correct set exactly. The average is
// taken over players who submitted; players who never answered are excluded,
// not counted as zero. Percent-correct is over all joined players, rounded to
// a whole number. It returns the result plus a copy of players with awards
// applied to their running scores.
func computeQuestionResult(pos int, q domain.Question, subs []submission, players []domain.Player, openedAt time.Time) (domain.QuestionResult, []domain.Player) {
	correctSet := make(map[string]struct{})
	for _, a := range q.Answers {
		if a.Correct {
			correctSet[a.ID] = struct{}{}
		}
	}

	names := make(map[string]string, len(players))
	for _, p := range players {
		names[p.ID] = p.Name
	}

	res := domain.QuestionResult{
		Position:       pos,
		QuestionID:     q.ID,
		CorrectPlayers: []string{},
		Awards:         []domain.PlayerAward{},
	}

	points := q.Points
	if points == 0 {
		points = 1
	}

	var totalMillis int64
	rank := 0
	for _, sub := range subs { // already in submission order
		totalMillis += sub.SubmittedAt.Sub(openedAt).Milliseconds()
		if !matchesCorrectSet(sub.AnswerIDs, correctSet) {
			continue
		}
		rank++
		award := domain.PlayerAward{
			PlayerID: sub.PlayerID,
			Rank:     rank,
			Points:   (points*rankMultiplierPct(rank) + 99) / 100, // ceil, so a correct answer is never worth zero
		}
		res.Awards = append(res.Awards, award)
		res.CorrectPlayers = append(res.CorrectPlayers, names[sub.PlayerID])
	}

	if len(subs) > 0 {
		res.AverageMillis = totalMillis / int64(len(subs))
	}
	if len(players) > 0 {
		res.PercentCorrect = int(math.Round(float64(rank) / float64(len(players)) * 100))
	}

	updated := append([]domain.Player(nil), players...)
	for _, award := range res.Awards {
		for i := range updated {
			if updated[i].ID == award.PlayerID {
				updated[i].Score += award.Points
				break
			}
		}
	}
	return res, updated
}

func matchesCorrectSet(answerIDs []string, correct map[string]struct{}) bool {
	if len(answerIDs) != len(correct) {
		return false
	}
	for _, id := range answerIDs {
		if _, ok := correct[id]; !ok {
			return false
		}
	}
	return true
}

// finalStandings ranks players by total score descending. The stable sort
// keeps join order for equal scores.
func finalStandings(players []domain.Player) []domain.FinalStanding {
	ranked := append([]domain.Player(nil), players...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	standings := make([]domain.FinalStanding, 0, len(ranked))
	for i, p := range ranked {
		standings = append(standings, domain.FinalStanding{
			Position: i + 1,
			PlayerID: p.ID,
			Name:     p.Name,
			Score:    p.Score,
		})
	}
	return standings
}
