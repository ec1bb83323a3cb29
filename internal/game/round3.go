package game

import (
	"context"
	"sort"
	"time"

	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/gameerr"
	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/models"
)

// round3RankScores rewards correct answers by submission speed.
var round3RankScores = []int{40, 30, 20, 10}

// StartRound3 jumps the game into the timed free-for-all round.
func (a *App) StartRound3(ctx context.Context) (*models.GameState, error) {
	return a.mutate(ctx, CmdStartRound3, func(ctx context.Context, g *models.GameState) (*models.Package, error) {
		g.Round = models.RoundThree
		g.Phase = models.PhaseRound3Ready
		a.clearTransients(g)
		markTeamsActive(g)
		g.Round3 = &models.Round3State{
			QuestionResults: make(map[int]models.Round3Result),
		}
		return nil, nil
	})
}

// StartQuestionRound3 puts a round-3 question on screen and opens its
// submission window for the given duration. Pending answers from a
// previous question are discarded.
func (a *App) StartQuestionRound3(ctx context.Context, questionID string, duration time.Duration) (*models.GameState, error) {
	return a.mutate(ctx, CmdStartQuestion3, func(ctx context.Context, g *models.GameState) (*models.Package, error) {
		if duration <= 0 {
			return nil, gameerr.Validationf("question duration must be positive")
		}
		q, err := a.questions.FindQuestion(ctx, questionID)
		if err != nil {
			return nil, err
		}
		if q.Round != models.RoundThree {
			return nil, gameerr.Validationf("question %s belongs to %s", questionID, q.Round)
		}
		s := g.Round3
		if _, done := s.QuestionResults[q.Index]; done {
			return nil, gameerr.PhaseConflictf("question %d was already played", q.Index)
		}
		idx := q.Index
		s.CurrentQuestionIndex = &idx
		s.PendingAnswers = nil
		g.CurrentQuestionID = q.ID
		g.Timer = &models.QuestionTimer{
			EndsAt:  a.now().Add(duration),
			Running: true,
		}
		g.Phase = models.PhaseRound3QuestionActive
		return nil, nil
	})
}

// SubmitAnswerRound3 records a team's answer while the window is open.
// Resubmission replaces the previous answer and timestamp, so a team
// that edits late pays for it in speed ranking.
func (a *App) SubmitAnswerRound3(ctx context.Context, teamID, answer string) (*models.GameState, error) {
	return a.mutate(ctx, CmdSubmitAnswerRound3, func(ctx context.Context, g *models.GameState) (*models.Package, error) {
		if answer == "" {
			return nil, gameerr.Validationf("answer must not be empty")
		}
		team := g.Team(teamID)
		if team == nil {
			return nil, gameerr.NotFoundf("team %s is not on the scoreboard", teamID)
		}
		if !a.windowOpen(g) {
			return nil, gameerr.PhaseConflictf("submission window is closed")
		}
		s := g.Round3
		if p := s.Pending(teamID); p != nil {
			p.Answer = answer
			p.SubmittedAt = a.now()
			return nil, nil
		}
		s.PendingAnswers = append(s.PendingAnswers, models.PendingAnswer{
			TeamID:      teamID,
			Answer:      answer,
			SubmittedAt: a.now(),
		})
		return nil, nil
	})
}

// JudgeRound3 scores every pending answer against the official answer:
// correct answers are ranked by submission time and rewarded on the
// speed curve, wrong answers score zero. The per-team outcome is frozen
// into the question results.
func (a *App) JudgeRound3(ctx context.Context, judgedBy string) (*models.GameState, error) {
	return a.mutate(ctx, CmdJudgeRound3, func(ctx context.Context, g *models.GameState) (*models.Package, error) {
		s := g.Round3
		if s.CurrentQuestionIndex == nil {
			return nil, gameerr.PhaseConflictf("no question in play")
		}
		q, err := a.questions.FindQuestion(ctx, g.CurrentQuestionID)
		if err != nil {
			return nil, err
		}

		pending := make([]models.PendingAnswer, len(s.PendingAnswers))
		copy(pending, s.PendingAnswers)
		sort.SliceStable(pending, func(i, j int) bool {
			return pending[i].SubmittedAt.Before(pending[j].SubmittedAt)
		})

		entries := make([]models.Round3Entry, 0, len(pending))
		rank := 0
		for _, p := range pending {
			e := models.Round3Entry{
				TeamID:      p.TeamID,
				Answer:      p.Answer,
				SubmittedAt: p.SubmittedAt,
			}
			if AnswersMatch(q, p.Answer) {
				rank++
				e.Correct = true
				e.Rank = rank
				if rank <= len(round3RankScores) {
					e.Points = round3RankScores[rank-1]
				}
			}
			if team := g.Team(p.TeamID); team != nil {
				team.Score += e.Points
			}
			entries = append(entries, e)
		}

		s.QuestionResults[*s.CurrentQuestionIndex] = models.Round3Result{
			QuestionIndex: *s.CurrentQuestionIndex,
			QuestionID:    q.ID,
			Entries:       entries,
			JudgedAt:      a.now(),
		}
		if g.Timer != nil {
			g.Timer.Running = false
		}
		g.Phase = models.PhaseRound3Judging
		return nil, nil
	})
}

// EndQuestionRound3 closes out the judged question for result display.
// Scores were applied at judging; nothing is recomputed here.
func (a *App) EndQuestionRound3(ctx context.Context) (*models.GameState, error) {
	return a.mutate(ctx, CmdEndQuestion3, func(ctx context.Context, g *models.GameState) (*models.Package, error) {
		g.Timer = nil
		g.CurrentQuestionID = ""
		g.Phase = models.PhaseRound3Results
		return nil, nil
	})
}
