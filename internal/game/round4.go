package game

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/gameerr"
	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/models"
)

// stealWindowDuration bounds the buzz race after a wrong main answer.
const stealWindowDuration = 15 * time.Second

// StartRound4 jumps the game into the final package round and hands
// the first package pick to the first team on the scoreboard.
func (a *App) StartRound4(ctx context.Context) (*models.GameState, error) {
	return a.mutate(ctx, CmdStartRound4, func(ctx context.Context, g *models.GameState) (*models.Package, error) {
		g.Round = models.RoundFour
		a.clearTransients(g)
		markTeamsActive(g)
		s := &models.Round4State{
			UsedQuestionIDsByTier: make(map[int]map[string]bool),
			StarUsages:            make(map[string]models.StarUsage),
		}
		s.CurrentTeamID = NextEligibleTeam(g.Teams, nil, "")
		g.Round4 = s
		if s.CurrentTeamID == "" {
			g.Phase = models.PhaseRound4Idle
		} else {
			g.Phase = models.PhaseRound4SelectPackage
		}
		return nil, nil
	})
}

// SelectPackageRound4 lets the turn holder commit to a point pattern,
// e.g. 40-60-80. One fresh question is drawn per tier; a question id
// never repeats within the same tier for the whole game.
func (a *App) SelectPackageRound4(ctx context.Context, teamID string, pattern []int) (*models.GameState, error) {
	return a.mutate(ctx, CmdSelectPackage4, func(ctx context.Context, g *models.GameState) (*models.Package, error) {
		s := g.Round4
		if s.CurrentTeamID != teamID {
			return nil, gameerr.PhaseConflictf("not team %s's turn", teamID)
		}
		if len(pattern) == 0 {
			return nil, gameerr.Validationf("point pattern must not be empty")
		}
		for _, tier := range pattern {
			if tier <= 0 {
				return nil, gameerr.Validationf("point tier %d must be positive", tier)
			}
		}

		questions := make([]models.Round4Question, 0, len(pattern))
		for _, tier := range pattern {
			qs, err := a.questions.ListQuestions(ctx, models.QuestionFilter{
				Round:  models.RoundFour,
				Points: tier,
			})
			if err != nil {
				return nil, err
			}
			drawn := ""
			for i := range qs {
				if !s.QuestionUsed(tier, qs[i].ID) {
					drawn = qs[i].ID
					break
				}
			}
			if drawn == "" {
				return nil, gameerr.Validationf("no unused %d-point questions left", tier)
			}
			s.MarkQuestionUsed(tier, drawn)
			questions = append(questions, models.Round4Question{QuestionID: drawn, Points: tier})
		}

		s.SelectedPackage = &models.Round4Package{
			Label:   patternLabel(pattern),
			Pattern: append([]int(nil), pattern...),
		}
		s.QuestionPattern = append([]int(nil), pattern...)
		s.Questions = questions
		first := 0
		s.CurrentQuestionIndex = &first
		g.Phase = models.PhaseRound4PickQuestions
		return nil, nil
	})
}

// StartQuestionRound4 puts the next drawn question on screen. If the
// main team has not yet declared its star the flow detours through the
// confirmation phase first.
func (a *App) StartQuestionRound4(ctx context.Context) (*models.GameState, error) {
	return a.mutate(ctx, CmdStartQuestion4, func(ctx context.Context, g *models.GameState) (*models.Package, error) {
		s := g.Round4
		if s.CurrentQuestionIndex == nil || *s.CurrentQuestionIndex >= len(s.Questions) {
			return nil, gameerr.PhaseConflictf("no question staged")
		}
		g.CurrentQuestionID = s.Questions[*s.CurrentQuestionIndex].QuestionID
		if _, decided := s.StarUsages[s.CurrentTeamID]; !decided {
			g.Phase = models.PhaseRound4StarConfirm
		} else {
			g.Phase = models.PhaseRound4QuestionShow
		}
		return nil, nil
	})
}

// SetStar records the main team's one-time star declaration: either
// wagered on a question of its package for double-or-nothing, or opted
// out for the rest of the game. The declaration is immutable.
func (a *App) SetStar(ctx context.Context, teamID string, use bool, questionIndex int) (*models.GameState, error) {
	return a.mutate(ctx, CmdSetStar, func(ctx context.Context, g *models.GameState) (*models.Package, error) {
		s := g.Round4
		if s.CurrentTeamID != teamID {
			return nil, gameerr.PhaseConflictf("not team %s's turn", teamID)
		}
		if _, decided := s.StarUsages[teamID]; decided {
			return nil, gameerr.PhaseConflictf("team %s already declared its star", teamID)
		}
		usage := models.StarUsage{OptedOut: !use}
		if use {
			if s.CurrentQuestionIndex == nil ||
				questionIndex < *s.CurrentQuestionIndex ||
				questionIndex >= len(s.Questions) {
				return nil, gameerr.Validationf("star question index %d out of range", questionIndex)
			}
			usage = models.StarUsage{Used: true, QuestionIndex: questionIndex}
		}
		if s.StarUsages == nil {
			s.StarUsages = make(map[string]models.StarUsage)
		}
		s.StarUsages[teamID] = usage
		g.Phase = models.PhaseRound4QuestionShow
		return nil, nil
	})
}

// StartTimerRound4 opens the main team's answer window.
func (a *App) StartTimerRound4(ctx context.Context, duration time.Duration) (*models.GameState, error) {
	return a.mutate(ctx, CmdStartTimer4, func(ctx context.Context, g *models.GameState) (*models.Package, error) {
		if duration <= 0 {
			return nil, gameerr.Validationf("timer duration must be positive")
		}
		g.Timer = &models.QuestionTimer{
			EndsAt:  a.now().Add(duration),
			Running: true,
		}
		return nil, nil
	})
}

// SubmitMainAnswer records the main team's answer; last write wins
// while the timer runs.
func (a *App) SubmitMainAnswer(ctx context.Context, teamID, answer string) (*models.GameState, error) {
	return a.mutate(ctx, CmdSubmitMainAnswer, func(ctx context.Context, g *models.GameState) (*models.Package, error) {
		if answer == "" {
			return nil, gameerr.Validationf("answer must not be empty")
		}
		s := g.Round4
		if s.CurrentTeamID != teamID {
			return nil, gameerr.Authorizationf("only the main team may answer")
		}
		if !a.windowOpen(g) {
			return nil, gameerr.PhaseConflictf("answer window is closed")
		}
		s.LastMainAnswer = &models.MainAnswer{
			TeamID:      teamID,
			Answer:      answer,
			SubmittedAt: a.now(),
		}
		return nil, nil
	})
}

// LockMain freezes the main answer for judging. No scoring happens
// here.
func (a *App) LockMain(ctx context.Context) (*models.GameState, error) {
	return a.mutate(ctx, CmdLockMain, func(ctx context.Context, g *models.GameState) (*models.Package, error) {
		if g.Timer != nil {
			g.Timer.Running = false
		}
		g.Phase = models.PhaseRound4LockMain
		return nil, nil
	})
}

// JudgeMain resolves the locked main answer. Correct awards the tier
// points, doubled on the starred question; wrong costs the starred team
// its wager and opens a steal window for everyone else.
func (a *App) JudgeMain(ctx context.Context, judgedBy string, correct bool) (*models.GameState, error) {
	return a.mutate(ctx, CmdJudgeMain, func(ctx context.Context, g *models.GameState) (*models.Package, error) {
		s := g.Round4
		if s.CurrentQuestionIndex == nil || *s.CurrentQuestionIndex >= len(s.Questions) {
			return nil, gameerr.PhaseConflictf("no question staged")
		}
		idx := *s.CurrentQuestionIndex
		points := s.Questions[idx].Points
		team := g.Team(s.CurrentTeamID)
		if team == nil {
			return nil, gameerr.NotFoundf("team %s is not on the scoreboard", s.CurrentTeamID)
		}
		star := s.StarUsages[s.CurrentTeamID]
		starred := star.Used && star.QuestionIndex == idx

		if correct {
			delta := points
			if starred {
				delta = 2 * points
			}
			team.Score += delta
			a.advanceRound4(g)
			return nil, nil
		}

		if starred {
			team.Score -= points
		}
		g.Timer = nil
		s.StealWindow = &models.StealWindow{
			Active: true,
			EndsAt: a.now().Add(stealWindowDuration),
		}
		g.Phase = models.PhaseRound4StealWindow
		return nil, nil
	})
}

// BuzzSteal races for the steal. Exactly one team wins the lock; the
// main team may not buzz its own question, and buzzes after the window
// deadline are rejected.
func (a *App) BuzzSteal(ctx context.Context, teamID string) (*models.GameState, error) {
	return a.mutate(ctx, CmdBuzzSteal, func(ctx context.Context, g *models.GameState) (*models.Package, error) {
		s := g.Round4
		sw := s.StealWindow
		if sw == nil || !sw.Active {
			return nil, gameerr.PhaseConflictf("no steal window open")
		}
		if teamID == s.CurrentTeamID {
			return nil, gameerr.Authorizationf("the main team cannot steal its own question")
		}
		if g.Team(teamID) == nil {
			return nil, gameerr.NotFoundf("team %s is not on the scoreboard", teamID)
		}
		if sw.BuzzLockedTeamID != "" {
			return nil, gameerr.Concurrencyf("steal already locked by team %s", sw.BuzzLockedTeamID)
		}
		if a.now().After(sw.EndsAt) {
			return nil, gameerr.PhaseConflictf("steal window has expired")
		}
		sw.BuzzedTeams = append(sw.BuzzedTeams, models.StealBuzz{
			TeamID:   teamID,
			BuzzedAt: a.now(),
		})
		sw.BuzzLockedTeamID = teamID
		g.Phase = models.PhaseRound4StealLocked
		return nil, nil
	})
}

// SubmitStealAnswer records the locked stealer's single answer; the
// first write wins and later writes are rejected.
func (a *App) SubmitStealAnswer(ctx context.Context, teamID, answer string) (*models.GameState, error) {
	return a.mutate(ctx, CmdSubmitStealAnswer, func(ctx context.Context, g *models.GameState) (*models.Package, error) {
		if answer == "" {
			return nil, gameerr.Validationf("answer must not be empty")
		}
		s := g.Round4
		sw := s.StealWindow
		if sw == nil || sw.BuzzLockedTeamID == "" {
			return nil, gameerr.PhaseConflictf("no steal lock to answer")
		}
		if sw.BuzzLockedTeamID != teamID {
			return nil, gameerr.Authorizationf("only the locked team may answer the steal")
		}
		if s.StealAnswer != nil {
			return nil, gameerr.Concurrencyf("steal answer already submitted")
		}
		s.StealAnswer = &models.StealAnswer{
			TeamID:      teamID,
			Answer:      answer,
			SubmittedAt: a.now(),
		}
		return nil, nil
	})
}

// JudgeSteal resolves the steal: a correct steal moves the full tier
// points from the main team to the stealer, a wrong steal costs the
// stealer half the tier. Either way the question is finished.
func (a *App) JudgeSteal(ctx context.Context, judgedBy string, correct bool) (*models.GameState, error) {
	return a.mutate(ctx, CmdJudgeSteal, func(ctx context.Context, g *models.GameState) (*models.Package, error) {
		s := g.Round4
		sw := s.StealWindow
		if sw == nil || sw.BuzzLockedTeamID == "" {
			return nil, gameerr.PhaseConflictf("no steal lock to judge")
		}
		if s.CurrentQuestionIndex == nil || *s.CurrentQuestionIndex >= len(s.Questions) {
			return nil, gameerr.PhaseConflictf("no question staged")
		}
		points := s.Questions[*s.CurrentQuestionIndex].Points
		stealer := g.Team(sw.BuzzLockedTeamID)
		if stealer == nil {
			return nil, gameerr.NotFoundf("team %s is not on the scoreboard", sw.BuzzLockedTeamID)
		}

		if correct {
			stealer.Score += points
			if main := g.Team(s.CurrentTeamID); main != nil {
				main.Score -= points
			}
		} else {
			stealer.Score -= points / 2
		}
		a.advanceRound4(g)
		return nil, nil
	})
}

// NextQuestionRound4 moves on after a steal window expired with no
// lock. It refuses while the window is still open.
func (a *App) NextQuestionRound4(ctx context.Context) (*models.GameState, error) {
	return a.mutate(ctx, CmdNextQuestion4, func(ctx context.Context, g *models.GameState) (*models.Package, error) {
		s := g.Round4
		sw := s.StealWindow
		if sw == nil {
			return nil, gameerr.PhaseConflictf("no steal window to close")
		}
		if sw.BuzzLockedTeamID != "" {
			return nil, gameerr.PhaseConflictf("steal in progress")
		}
		if !a.now().After(sw.EndsAt) {
			return nil, gameerr.PhaseConflictf("steal window is still open")
		}
		a.advanceRound4(g)
		return nil, nil
	})
}

// advanceRound4 clears the question-scoped state and moves either to
// the next staged question or, when the package is exhausted, to the
// next team's package pick.
func (a *App) advanceRound4(g *models.GameState) {
	s := g.Round4
	s.LastMainAnswer = nil
	s.StealWindow = nil
	s.StealAnswer = nil
	g.CurrentQuestionID = ""
	g.Timer = nil

	next := 0
	if s.CurrentQuestionIndex != nil {
		next = *s.CurrentQuestionIndex + 1
	}
	if next < len(s.Questions) {
		s.CurrentQuestionIndex = &next
		g.Phase = models.PhaseRound4PickQuestions
		return
	}

	s.SelectedPackage = nil
	s.QuestionPattern = nil
	s.Questions = nil
	s.CurrentQuestionIndex = nil
	s.CurrentTeamID = NextEligibleTeam(g.Teams, nil, s.CurrentTeamID)
	if s.CurrentTeamID == "" {
		g.Phase = models.PhaseRound4Idle
	} else {
		g.Phase = models.PhaseRound4SelectPackage
	}
}

func patternLabel(pattern []int) string {
	parts := make([]string, len(pattern))
	for i, p := range pattern {
		parts[i] = fmt.Sprintf("%d", p)
	}
	return strings.Join(parts, "-")
}
