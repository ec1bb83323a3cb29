package game

import (
	"context"

	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/models"
)

// reconcileLocked syncs the scoreboard with the live roster before any
// command or export. Idempotent: a second run against the same roster
// changes nothing. Caller holds a.mu.
//
// Newly registered teams join mid-game with zero points, deregistered
// teams drop out of the scoreboard, and renamed teams get their display
// name refreshed without touching score or status.
func (a *App) reconcileLocked(ctx context.Context, g *models.GameState) (bool, error) {
	roster, err := a.teams.ListTeams(ctx)
	if err != nil {
		return false, err
	}

	changed := false
	known := make(map[string]*models.Team, len(roster))
	for i := range roster {
		known[roster[i].ID] = &roster[i]
	}

	kept := g.Teams[:0]
	seen := make(map[string]bool, len(g.Teams))
	for _, ts := range g.Teams {
		t, ok := known[ts.TeamID]
		if !ok {
			changed = true
			continue
		}
		if ts.Name != t.Name {
			ts.Name = t.Name
			changed = true
		}
		seen[ts.TeamID] = true
		kept = append(kept, ts)
	}
	g.Teams = kept

	admitStatus := models.TeamStatusActive
	if g.Round == models.RoundOne && g.Phase == models.PhaseIdle {
		admitStatus = models.TeamStatusWaiting
	}
	for _, t := range roster {
		if seen[t.ID] {
			continue
		}
		g.Teams = append(g.Teams, models.TeamScore{
			TeamID: t.ID,
			Name:   t.Name,
			Status: admitStatus,
		})
		changed = true
	}

	// Dangling references to deregistered teams are cleared rather than
	// left pointing at a ghost.
	if g.ActiveTeamID != "" && g.Team(g.ActiveTeamID) == nil {
		g.ActiveTeamID = ""
		changed = true
	}
	if s := g.Round4; s != nil && s.CurrentTeamID != "" && g.Team(s.CurrentTeamID) == nil {
		s.CurrentTeamID = NextEligibleTeam(g.Teams, nil, "")
		changed = true
	}
	return changed, nil
}
