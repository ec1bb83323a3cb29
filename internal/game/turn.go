package game

import "github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/models"

// NextEligibleTeam walks the scoreboard in admission order starting
// after current, wrapping circularly and skipping eliminated and
// finished teams. When current is absent or no longer eligible the walk
// restarts at the first eligible team. Returns "" when nobody is
// eligible.
func NextEligibleTeam(teams []models.TeamScore, eliminated map[string]bool, current string) string {
	eligible := func(t *models.TeamScore) bool {
		return !eliminated[t.TeamID] && t.Status != models.TeamStatusFinished
	}
	idx := -1
	for i := range teams {
		if teams[i].TeamID == current {
			idx = i
			break
		}
	}
	if idx == -1 || !eligible(&teams[idx]) {
		for i := range teams {
			if eligible(&teams[i]) {
				return teams[i].TeamID
			}
		}
		return ""
	}
	n := len(teams)
	for off := 1; off <= n; off++ {
		t := &teams[(idx+off)%n]
		if eligible(t) {
			return t.TeamID
		}
	}
	return ""
}
