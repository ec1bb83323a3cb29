package game

import (
	"context"
	"time"

	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/gameerr"
	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/models"
)

const (
	// horizontalAnswerWindow bounds simultaneous answers to a revealed
	// horizontal clue; cnvAnswerWindow bounds the locked keyword guess.
	horizontalAnswerWindow = 15 * time.Second
	cnvAnswerWindow        = 15 * time.Second

	puzzlePieceCount = 4
)

// cnvScore is the reward curve for guessing the hidden keyword: the
// fewer clues opened at the moment of the correct guess, the higher the
// reward.
func cnvScore(openedClueCount int) int {
	switch {
	case openedClueCount <= 1:
		return 80
	case openedClueCount == 2:
		return 60
	case openedClueCount == 3:
		return 40
	default:
		return 20
	}
}

// StartRound2 jumps the game into the picture-puzzle round with the
// given package. Runtime sub-state on the package is rebuilt from
// scratch; authored content (image, keyword, clue questions) is kept.
func (a *App) StartRound2(ctx context.Context, packageID string) (*models.GameState, error) {
	return a.mutate(ctx, CmdStartRound2, func(ctx context.Context, g *models.GameState) (*models.Package, error) {
		pkg, err := a.packs.FindPackage(ctx, packageID)
		if err != nil {
			return nil, err
		}
		if pkg.Round != models.RoundTwo {
			return nil, gameerr.Validationf("package %s belongs to %s", packageID, pkg.Round)
		}
		m := pkg.Round2Meta
		if m == nil {
			return nil, gameerr.Validationf("package %s has no picture puzzle data", packageID)
		}

		pkg.Status = models.PackageStatusInProgress
		pkg.AssignedTeamID = ""
		pkg.CurrentQuestionIndex = 0
		pkg.History = nil
		if len(m.HorizontalOrder) == 0 {
			m.HorizontalOrder = map[int]int{1: 1, 2: 2, 3: 3, 4: 4}
		}
		m.CNVLetterCount = LetterCount(m.CNVAnswer)
		m.RevealedPieces = make(map[int]bool)
		m.OpenedClueCount = 0
		m.EliminatedTeams = make(map[string]bool)
		m.BuzzState = models.BuzzState{}
		m.TurnState = models.TurnState{
			TeamsUsedHorizontalAttempt: make(map[string]bool),
		}

		g.Round = models.RoundTwo
		g.Phase = models.PhaseTurnSelect
		a.clearTransients(g)
		markTeamsActive(g)
		g.ActivePackageID = pkg.ID
		g.Round2 = &models.Round2State{}
		m.TurnState.CurrentTeamID = NextEligibleTeam(g.Teams, nil, "")
		return pkg, nil
	})
}

// SelectHorizontal spends the turn holder's single horizontal attempt on
// one of the four clue rows and opens the shared answer window.
func (a *App) SelectHorizontal(ctx context.Context, teamID string, order int) (*models.GameState, error) {
	return a.mutate(ctx, CmdSelectHorizontal, func(ctx context.Context, g *models.GameState) (*models.Package, error) {
		pkg, m, err := a.activeRound2Package(ctx, g)
		if err != nil {
			return nil, err
		}
		if order < 1 || order > puzzlePieceCount {
			return nil, gameerr.Validationf("horizontal order %d out of range", order)
		}
		if m.TurnState.CurrentTeamID != teamID {
			return nil, gameerr.PhaseConflictf("not team %s's turn", teamID)
		}
		if m.Eliminated(teamID) {
			return nil, gameerr.PhaseConflictf("team %s is eliminated", teamID)
		}
		if m.TurnState.TeamsUsedHorizontalAttempt[teamID] {
			return nil, gameerr.PhaseConflictf("team %s already used its horizontal attempt", teamID)
		}
		if pkg.HistoryFor(order) != nil {
			return nil, gameerr.PhaseConflictf("horizontal %d was already played", order)
		}
		q, err := a.findHorizontal(ctx, pkg.ID, order)
		if err != nil {
			return nil, err
		}

		if m.TurnState.TeamsUsedHorizontalAttempt == nil {
			m.TurnState.TeamsUsedHorizontalAttempt = make(map[string]bool)
		}
		m.TurnState.TeamsUsedHorizontalAttempt[teamID] = true

		g.CurrentQuestionID = q.ID
		g.Round2.CurrentHorizontalOrder = order
		g.Round2.Submissions = make(map[string]models.AnswerSubmission)
		g.Timer = &models.QuestionTimer{
			EndsAt:  a.now().Add(horizontalAnswerWindow),
			Running: true,
		}
		g.Phase = models.PhaseHorizontalActive
		return pkg, nil
	})
}

// SubmitAnswerRound2 records a team's answer. During a horizontal clue
// all non-eliminated teams answer simultaneously, one shot each; during
// a CNV lock only the lock holder may answer, and that first answer
// moves the lock to judging.
func (a *App) SubmitAnswerRound2(ctx context.Context, teamID, answer string) (*models.GameState, error) {
	return a.mutate(ctx, CmdSubmitAnswerRound2, func(ctx context.Context, g *models.GameState) (*models.Package, error) {
		if answer == "" {
			return nil, gameerr.Validationf("answer must not be empty")
		}
		if g.Team(teamID) == nil {
			return nil, gameerr.NotFoundf("team %s is not on the scoreboard", teamID)
		}
		_, m, err := a.activeRound2Package(ctx, g)
		if err != nil {
			return nil, err
		}
		if m.Eliminated(teamID) {
			return nil, gameerr.PhaseConflictf("team %s is eliminated", teamID)
		}
		if g.Round2.Submissions == nil {
			g.Round2.Submissions = make(map[string]models.AnswerSubmission)
		}

		switch g.Phase {
		case models.PhaseHorizontalActive:
			if !a.windowOpen(g) {
				return nil, gameerr.PhaseConflictf("answer window is closed")
			}
			if _, dup := g.Round2.Submissions[teamID]; dup {
				return nil, gameerr.PhaseConflictf("team %s already submitted", teamID)
			}
			g.Round2.Submissions[teamID] = models.AnswerSubmission{
				TeamID:      teamID,
				Answer:      answer,
				SubmittedAt: a.now(),
			}
			return nil, nil

		case models.PhaseCNVLocked:
			if m.BuzzState.CNVLockTeamID != teamID {
				return nil, gameerr.Authorizationf("only the locked team may answer the keyword")
			}
			if !a.windowOpen(g) {
				return nil, gameerr.PhaseConflictf("answer window is closed")
			}
			g.Round2.Submissions[teamID] = models.AnswerSubmission{
				TeamID:      teamID,
				Answer:      answer,
				SubmittedAt: a.now(),
			}
			if g.Timer != nil {
				g.Timer.Running = false
			}
			g.Phase = models.PhaseCNVJudging
			return nil, nil
		}
		return nil, gameerr.PhaseConflictf("submissions not accepted in %s", g.Phase)
	})
}

// JudgeHorizontal resolves the active horizontal clue: the listed teams
// answered correctly and each receives the entered points, and a correct
// outcome uncovers the mapped puzzle piece.
func (a *App) JudgeHorizontal(ctx context.Context, judgedBy string, correctTeamIDs []string, points int) (*models.GameState, error) {
	return a.mutate(ctx, CmdJudgeHorizontal, func(ctx context.Context, g *models.GameState) (*models.Package, error) {
		pkg, m, err := a.activeRound2Package(ctx, g)
		if err != nil {
			return nil, err
		}
		order := g.Round2.CurrentHorizontalOrder
		if order == 0 {
			return nil, gameerr.PhaseConflictf("no horizontal clue in play")
		}
		for _, id := range correctTeamIDs {
			team := g.Team(id)
			if team == nil {
				return nil, gameerr.NotFoundf("team %s is not on the scoreboard", id)
			}
			team.Score += points
		}

		result := models.ResultWrong
		if len(correctTeamIDs) > 0 {
			result = models.ResultCorrect
		}
		pkg.History = append(pkg.History, models.HistoryEntry{
			Index:      order,
			QuestionID: g.CurrentQuestionID,
			Result:     result,
			JudgedBy:   judgedBy,
			JudgedAt:   a.now(),
		})
		if result == models.ResultCorrect {
			a.revealPiece(m, order)
		}

		a.clearHorizontal(g)
		g.Phase = models.PhaseTurnSelect
		return pkg, nil
	})
}

// ContinueHorizontal advances past the current clue. With submissions
// on the table it moves to judging; with none and a lapsed timer it
// records a timeout and returns to turn selection. Safe to repeat: the
// timeout entry is written at most once.
func (a *App) ContinueHorizontal(ctx context.Context) (*models.GameState, error) {
	return a.mutate(ctx, CmdContinueHorizontal, func(ctx context.Context, g *models.GameState) (*models.Package, error) {
		pkg, _, err := a.activeRound2Package(ctx, g)
		if err != nil {
			return nil, err
		}
		order := g.Round2.CurrentHorizontalOrder
		if order == 0 {
			return nil, gameerr.PhaseConflictf("no horizontal clue in play")
		}

		if len(g.Round2.Submissions) == 0 {
			if !a.timerLapsed(g) {
				return nil, gameerr.PhaseConflictf("answer window is still open")
			}
			if pkg.HistoryFor(order) == nil {
				pkg.History = append(pkg.History, models.HistoryEntry{
					Index:      order,
					QuestionID: g.CurrentQuestionID,
					Result:     models.ResultTimeout,
					JudgedAt:   a.now(),
				})
			}
			a.clearHorizontal(g)
			g.Phase = models.PhaseTurnSelect
			return pkg, nil
		}

		if g.Timer != nil {
			g.Timer.Running = false
		}
		g.Phase = models.PhaseHorizontalJudging
		return nil, nil
	})
}

// BuzzCNV races for the right to guess the hidden keyword. Exactly one
// buzz wins; everyone after the lock is set loses the race. A wrong
// guess eliminates the team, and eliminated teams cannot buzz again.
func (a *App) BuzzCNV(ctx context.Context, teamID string) (*models.GameState, error) {
	return a.mutate(ctx, CmdBuzzCNV, func(ctx context.Context, g *models.GameState) (*models.Package, error) {
		if g.Team(teamID) == nil {
			return nil, gameerr.NotFoundf("team %s is not on the scoreboard", teamID)
		}
		pkg, m, err := a.activeRound2Package(ctx, g)
		if err != nil {
			return nil, err
		}
		if m.Eliminated(teamID) {
			return nil, gameerr.PhaseConflictf("eliminated teams cannot buzz")
		}
		if m.BuzzState.CNVLockTeamID != "" {
			return nil, gameerr.Concurrencyf("keyword already locked by team %s", m.BuzzState.CNVLockTeamID)
		}

		ends := a.now().Add(cnvAnswerWindow)
		m.BuzzState.CNVLockTeamID = teamID
		m.BuzzState.CNVLockEndsAt = &ends

		// A buzz over the center hint or the frozen queue pauses that
		// stage; a buzz over a clue abandons it for turn selection.
		switch g.Phase {
		case models.PhaseCenterHintActive, models.PhaseKeywordBuzzJudging:
			g.Round2.ResumePhase = g.Phase
		default:
			g.Round2.ResumePhase = ""
		}

		// The buzz preempts whatever clue was on screen.
		g.CurrentQuestionID = ""
		g.Round2.CurrentHorizontalOrder = 0
		g.Round2.Submissions = make(map[string]models.AnswerSubmission)
		g.Timer = &models.QuestionTimer{EndsAt: ends, Running: true}
		g.Phase = models.PhaseCNVLocked
		return pkg, nil
	})
}

// JudgeCNV resolves the locked keyword guess. Correct ends the round
// with the clue-count-scaled reward and the full picture revealed;
// wrong eliminates the guesser, releases the lock, and play resumes at
// turn selection unless nobody is left.
func (a *App) JudgeCNV(ctx context.Context, judgedBy string, correct bool) (*models.GameState, error) {
	return a.mutate(ctx, CmdJudgeCNV, func(ctx context.Context, g *models.GameState) (*models.Package, error) {
		pkg, m, err := a.activeRound2Package(ctx, g)
		if err != nil {
			return nil, err
		}
		lockTeam := m.BuzzState.CNVLockTeamID
		if lockTeam == "" {
			return nil, gameerr.PhaseConflictf("no keyword lock to judge")
		}
		team := g.Team(lockTeam)
		if team == nil {
			return nil, gameerr.NotFoundf("team %s is not on the scoreboard", lockTeam)
		}

		if correct {
			team.Score += cnvScore(m.OpenedClueCount)
			for piece := 1; piece <= puzzlePieceCount; piece++ {
				m.RevealedPieces[piece] = true
			}
			m.OpenedClueCount = puzzlePieceCount
			pkg.Status = models.PackageStatusCompleted
			a.clearHorizontal(g)
			g.Phase = models.PhaseRoundEnd
			return pkg, nil
		}

		if m.EliminatedTeams == nil {
			m.EliminatedTeams = make(map[string]bool)
		}
		m.EliminatedTeams[lockTeam] = true
		m.BuzzState.CNVLockTeamID = ""
		m.BuzzState.CNVLockEndsAt = nil
		resume := g.Round2.ResumePhase
		g.Round2.ResumePhase = ""
		a.clearHorizontal(g)

		if NextEligibleTeam(g.Teams, m.EliminatedTeams, "") == "" {
			pkg.Status = models.PackageStatusCompleted
			g.Phase = models.PhaseRoundEnd
			return pkg, nil
		}
		switch resume {
		case models.PhaseCenterHintActive, models.PhaseKeywordBuzzJudging:
			g.Phase = resume
		default:
			if m.TurnState.CurrentTeamID == lockTeam || g.Team(m.TurnState.CurrentTeamID) == nil {
				m.TurnState.CurrentTeamID = NextEligibleTeam(g.Teams, m.EliminatedTeams, lockTeam)
			}
			g.Phase = models.PhaseTurnSelect
		}
		return pkg, nil
	})
}

// RevealFinalPiece uncovers the whole picture as the center hint and
// opens the keyword prediction queue.
func (a *App) RevealFinalPiece(ctx context.Context) (*models.GameState, error) {
	return a.mutate(ctx, CmdRevealFinalPiece, func(ctx context.Context, g *models.GameState) (*models.Package, error) {
		pkg, m, err := a.activeRound2Package(ctx, g)
		if err != nil {
			return nil, err
		}
		if m.RevealedPieces == nil {
			m.RevealedPieces = make(map[int]bool)
		}
		for piece := 1; piece <= puzzlePieceCount; piece++ {
			m.RevealedPieces[piece] = true
		}
		m.OpenedClueCount = puzzlePieceCount
		a.clearHorizontal(g)
		g.Phase = models.PhaseCenterHintActive
		return pkg, nil
	})
}

// BuzzKeyword queues a team for an ordered keyword attempt after the
// center hint. Order of arrival is preserved; one slot per team.
func (a *App) BuzzKeyword(ctx context.Context, teamID string) (*models.GameState, error) {
	return a.mutate(ctx, CmdBuzzKeyword, func(ctx context.Context, g *models.GameState) (*models.Package, error) {
		if g.Team(teamID) == nil {
			return nil, gameerr.NotFoundf("team %s is not on the scoreboard", teamID)
		}
		pkg, m, err := a.activeRound2Package(ctx, g)
		if err != nil {
			return nil, err
		}
		if m.Eliminated(teamID) {
			return nil, gameerr.PhaseConflictf("eliminated teams cannot buzz")
		}
		for _, b := range m.BuzzState.KeywordBuzzQueue {
			if b.TeamID == teamID {
				return nil, gameerr.PhaseConflictf("team %s already queued", teamID)
			}
		}
		m.BuzzState.KeywordBuzzQueue = append(m.BuzzState.KeywordBuzzQueue, models.KeywordBuzz{
			TeamID:   teamID,
			BuzzedAt: a.now(),
		})
		return pkg, nil
	})
}

// StartKeywordJudging freezes the queue and points at its first entry.
func (a *App) StartKeywordJudging(ctx context.Context) (*models.GameState, error) {
	return a.mutate(ctx, CmdStartKeywordJudging, func(ctx context.Context, g *models.GameState) (*models.Package, error) {
		pkg, m, err := a.activeRound2Package(ctx, g)
		if err != nil {
			return nil, err
		}
		if len(m.BuzzState.KeywordBuzzQueue) == 0 {
			return nil, gameerr.Validationf("no keyword buzzes to judge")
		}
		first := 0
		m.BuzzState.CurrentKeywordBuzzIndex = &first
		g.Phase = models.PhaseKeywordBuzzJudging
		return pkg, nil
	})
}

// JudgeKeywordBuzz resolves the queue entry under the cursor. Correct
// awards the entered points and ends the round; wrong advances the
// cursor to the next queued team.
func (a *App) JudgeKeywordBuzz(ctx context.Context, judgedBy string, correct bool, points int) (*models.GameState, error) {
	return a.mutate(ctx, CmdJudgeKeywordBuzz, func(ctx context.Context, g *models.GameState) (*models.Package, error) {
		pkg, m, err := a.activeRound2Package(ctx, g)
		if err != nil {
			return nil, err
		}
		cursor := m.BuzzState.CurrentKeywordBuzzIndex
		if cursor == nil {
			return nil, gameerr.PhaseConflictf("keyword queue is exhausted")
		}
		// Teams eliminated after queueing (a wrong keyword lock guess)
		// forfeit their slot.
		queue := m.BuzzState.KeywordBuzzQueue
		idx := *cursor
		for idx < len(queue) && m.Eliminated(queue[idx].TeamID) {
			idx++
		}
		if idx != *cursor {
			m.BuzzState.CurrentKeywordBuzzIndex = &idx
		}
		if idx >= len(queue) {
			return nil, gameerr.PhaseConflictf("keyword queue is exhausted")
		}
		entry := queue[idx]
		team := g.Team(entry.TeamID)
		if team == nil {
			return nil, gameerr.NotFoundf("team %s is not on the scoreboard", entry.TeamID)
		}

		if correct {
			team.Score += points
			pkg.Status = models.PackageStatusCompleted
			g.Phase = models.PhaseRoundEnd
			return pkg, nil
		}
		next := idx + 1
		m.BuzzState.CurrentKeywordBuzzIndex = &next
		return pkg, nil
	})
}

// NextTurn rotates the clue-selection turn to the next team still in
// the round, ending the round when nobody is left.
func (a *App) NextTurn(ctx context.Context) (*models.GameState, error) {
	return a.mutate(ctx, CmdNextTurn, func(ctx context.Context, g *models.GameState) (*models.Package, error) {
		pkg, m, err := a.activeRound2Package(ctx, g)
		if err != nil {
			return nil, err
		}
		next := NextEligibleTeam(g.Teams, m.EliminatedTeams, m.TurnState.CurrentTeamID)
		if next == "" {
			pkg.Status = models.PackageStatusCompleted
			g.Phase = models.PhaseRoundEnd
			return pkg, nil
		}
		m.TurnState.CurrentTeamID = next
		return pkg, nil
	})
}

// findHorizontal returns the horizontal clue question at the given row.
func (a *App) findHorizontal(ctx context.Context, packageID string, order int) (*models.Question, error) {
	qs, err := a.questions.ListQuestions(ctx, models.QuestionFilter{
		PackageID: packageID,
		Type:      models.QuestionTypeHorizontal,
	})
	if err != nil {
		return nil, err
	}
	for i := range qs {
		if qs[i].Index == order {
			return &qs[i], nil
		}
	}
	return nil, gameerr.NotFoundf("package %s has no horizontal clue %d", packageID, order)
}

// revealPiece uncovers the puzzle piece mapped to the clue row.
func (a *App) revealPiece(m *models.Round2Meta, order int) {
	piece, ok := m.HorizontalOrder[order]
	if !ok {
		piece = order
	}
	if m.RevealedPieces == nil {
		m.RevealedPieces = make(map[int]bool)
	}
	if !m.RevealedPieces[piece] {
		m.RevealedPieces[piece] = true
		m.OpenedClueCount++
	}
}

// clearHorizontal drops the on-screen clue pointers and timer.
func (a *App) clearHorizontal(g *models.GameState) {
	g.CurrentQuestionID = ""
	g.Timer = nil
	if g.Round2 != nil {
		g.Round2.CurrentHorizontalOrder = 0
		g.Round2.Submissions = nil
		g.Round2.ResumePhase = ""
	}
}
