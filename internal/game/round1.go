package game

import (
	"context"

	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/gameerr"
	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/models"
)

// StartRound1 jumps the game into the opening knowledge round. All
// round runtime state from a previous round is discarded; scores and
// package history survive.
func (a *App) StartRound1(ctx context.Context) (*models.GameState, error) {
	return a.mutate(ctx, CmdStartRound1, func(ctx context.Context, g *models.GameState) (*models.Package, error) {
		g.Round = models.RoundOne
		g.Phase = models.PhaseRoundReady
		a.clearTransients(g)
		markTeamsActive(g)
		return nil, nil
	})
}

// SelectTeam puts a team on stage for its individual package run.
func (a *App) SelectTeam(ctx context.Context, teamID string) (*models.GameState, error) {
	return a.mutate(ctx, CmdSelectTeam, func(ctx context.Context, g *models.GameState) (*models.Package, error) {
		team := g.Team(teamID)
		if team == nil {
			return nil, gameerr.NotFoundf("team %s is not on the scoreboard", teamID)
		}
		if team.Status == models.TeamStatusFinished {
			return nil, gameerr.PhaseConflictf("team %s already finished its turn", teamID)
		}
		team.Status = models.TeamStatusActive
		g.ActiveTeamID = teamID
		return nil, nil
	})
}

// PreviewPackage puts a round-1 package on screen and, if a team is on
// stage and the package is still unassigned, binds it to that team.
func (a *App) PreviewPackage(ctx context.Context, packageID string) (*models.GameState, error) {
	return a.mutate(ctx, CmdPreviewPackage, func(ctx context.Context, g *models.GameState) (*models.Package, error) {
		pkg, err := a.packs.FindPackage(ctx, packageID)
		if err != nil {
			return nil, err
		}
		if pkg.Round != models.RoundOne {
			return nil, gameerr.Validationf("package %s belongs to %s", packageID, pkg.Round)
		}
		if pkg.Status == models.PackageStatusCompleted {
			return nil, gameerr.PhaseConflictf("package %s is already completed", packageID)
		}
		if pkg.AssignedTeamID != "" && pkg.AssignedTeamID != g.ActiveTeamID {
			return nil, gameerr.PhaseConflictf("package %s is assigned to team %s", packageID, pkg.AssignedTeamID)
		}
		dirty := false
		if pkg.Status == models.PackageStatusUnassigned && g.ActiveTeamID != "" {
			pkg.Status = models.PackageStatusInProgress
			pkg.AssignedTeamID = g.ActiveTeamID
			dirty = true
		}
		g.ActivePackageID = pkg.ID
		g.CurrentQuestionID = ""
		if dirty {
			return pkg, nil
		}
		return nil, nil
	})
}

// SelectQuestion puts one question of the active package on screen.
func (a *App) SelectQuestion(ctx context.Context, questionID string) (*models.GameState, error) {
	return a.mutate(ctx, CmdSelectQuestion, func(ctx context.Context, g *models.GameState) (*models.Package, error) {
		if g.ActivePackageID == "" {
			return nil, gameerr.PhaseConflictf("no package in play")
		}
		q, err := a.questions.FindQuestion(ctx, questionID)
		if err != nil {
			return nil, err
		}
		if q.PackageID != g.ActivePackageID {
			return nil, gameerr.Validationf("question %s does not belong to package %s", questionID, g.ActivePackageID)
		}
		g.CurrentQuestionID = q.ID
		return nil, nil
	})
}

// JudgeQuestionRound1 records the moderator's verdict for one question
// of the active package and applies the manually entered points to the
// team on stage. Each question index is judged at most once; once every
// question carries a verdict the package completes and the team's run
// ends.
func (a *App) JudgeQuestionRound1(ctx context.Context, questionID string, result models.QuestionResult, judgedBy string, points int) (*models.GameState, error) {
	return a.mutate(ctx, CmdJudgeRound1, func(ctx context.Context, g *models.GameState) (*models.Package, error) {
		switch result {
		case models.ResultCorrect, models.ResultWrong, models.ResultTimeout, models.ResultNoAnswer:
		default:
			return nil, gameerr.Validationf("unknown result %q", result)
		}
		if g.ActivePackageID == "" {
			return nil, gameerr.PhaseConflictf("no package in play")
		}
		pkg, err := a.packs.FindPackage(ctx, g.ActivePackageID)
		if err != nil {
			return nil, err
		}
		q, err := a.questions.FindQuestion(ctx, questionID)
		if err != nil {
			return nil, err
		}
		if q.PackageID != pkg.ID {
			return nil, gameerr.Validationf("question %s does not belong to package %s", questionID, pkg.ID)
		}
		if pkg.HistoryFor(q.Index) != nil {
			return nil, gameerr.PhaseConflictf("question %d of package %s is already judged", q.Index, pkg.ID)
		}
		pkg.History = append(pkg.History, models.HistoryEntry{
			Index:      q.Index,
			QuestionID: q.ID,
			Result:     result,
			JudgedBy:   judgedBy,
			JudgedAt:   a.now(),
		})
		if q.Index >= pkg.CurrentQuestionIndex {
			pkg.CurrentQuestionIndex = q.Index + 1
		}

		team := g.Team(pkg.AssignedTeamID)
		if team == nil {
			team = g.Team(g.ActiveTeamID)
		}
		if team != nil && result == models.ResultCorrect {
			team.Score += points
		}

		qs, err := a.questions.ListQuestions(ctx, models.QuestionFilter{PackageID: pkg.ID})
		if err != nil {
			return nil, err
		}
		if len(qs) > 0 && len(pkg.History) >= len(qs) {
			pkg.Status = models.PackageStatusCompleted
			if team != nil {
				team.Status = models.TeamStatusFinished
			}
			g.ActiveTeamID = ""
			g.ActivePackageID = ""
			g.CurrentQuestionID = ""
		} else if g.CurrentQuestionID == q.ID {
			g.CurrentQuestionID = ""
		}
		return pkg, nil
	})
}

// clearTransients drops all cross-round pointers and per-round state.
func (a *App) clearTransients(g *models.GameState) {
	g.ActiveTeamID = ""
	g.ActivePackageID = ""
	g.CurrentQuestionID = ""
	g.Timer = nil
	g.Round2 = nil
	g.Round3 = nil
	g.Round4 = nil
}

// markTeamsActive puts every team back on the board at a round start,
// including teams that finished their turn in an earlier round.
func markTeamsActive(g *models.GameState) {
	for i := range g.Teams {
		g.Teams[i].Status = models.TeamStatusActive
	}
}
