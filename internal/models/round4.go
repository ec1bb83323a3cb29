package models

import "time"

// Round4Package is the point-value bundle a team picks at the start of
// its round-4 turn, e.g. "40-60-80".
type Round4Package struct {
	Label   string `json:"label"`
	Pattern []int  `json:"pattern"`
}

// Round4Question pairs a drawn question with its point tier.
type Round4Question struct {
	QuestionID string `json:"question_id"`
	Points     int    `json:"points"`
}

// MainAnswer is the main team's answer; last write wins while the
// question timer runs.
type MainAnswer struct {
	TeamID      string    `json:"team_id"`
	Answer      string    `json:"answer"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// StealBuzz is one buzz during the steal window.
type StealBuzz struct {
	TeamID   string    `json:"team_id"`
	BuzzedAt time.Time `json:"buzzed_at"`
}

// StealWindow is the interval after the main answer is judged wrong in
// which other teams race to claim the question.
type StealWindow struct {
	Active           bool        `json:"active"`
	EndsAt           time.Time   `json:"ends_at"`
	BuzzedTeams      []StealBuzz `json:"buzzed_teams,omitempty"`
	BuzzLockedTeamID string      `json:"buzz_locked_team_id,omitempty"`
}

// StealAnswer is the locked stealer's single answer; first write wins.
type StealAnswer struct {
	TeamID      string    `json:"team_id"`
	Answer      string    `json:"answer"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// StarUsage records a team's one-time star declaration. Immutable once
// set: either Used with a target question index, or OptedOut.
type StarUsage struct {
	Used          bool `json:"used"`
	OptedOut      bool `json:"opted_out"`
	QuestionIndex int  `json:"question_index"`
}

// Round4State is the package/steal round extension state.
type Round4State struct {
	CurrentTeamID         string                  `json:"current_team_id,omitempty"`
	SelectedPackage       *Round4Package          `json:"selected_package,omitempty"`
	QuestionPattern       []int                   `json:"question_pattern,omitempty"`
	Questions             []Round4Question        `json:"questions,omitempty"`
	CurrentQuestionIndex  *int                    `json:"current_question_index,omitempty"`
	UsedQuestionIDsByTier map[int]map[string]bool `json:"used_question_ids_by_points,omitempty"`
	LastMainAnswer        *MainAnswer             `json:"last_main_answer,omitempty"`
	StealWindow           *StealWindow            `json:"steal_window,omitempty"`
	StealAnswer           *StealAnswer            `json:"steal_answer,omitempty"`
	StarUsages            map[string]StarUsage    `json:"star_usages,omitempty"`
}

// QuestionUsed reports whether the question id was already drawn for the
// given point tier at any time this game.
func (s *Round4State) QuestionUsed(points int, questionID string) bool {
	return s.UsedQuestionIDsByTier[points][questionID]
}

// MarkQuestionUsed records a drawn question id under its point tier.
func (s *Round4State) MarkQuestionUsed(points int, questionID string) {
	if s.UsedQuestionIDsByTier == nil {
		s.UsedQuestionIDsByTier = make(map[int]map[string]bool)
	}
	if s.UsedQuestionIDsByTier[points] == nil {
		s.UsedQuestionIDsByTier[points] = make(map[string]bool)
	}
	s.UsedQuestionIDsByTier[points][questionID] = true
}
