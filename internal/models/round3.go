package models

import "time"

// PendingAnswer is a round-3 submission awaiting judgment. One entry per
// team; resubmission replaces answer and timestamp.
type PendingAnswer struct {
	TeamID      string    `json:"team_id"`
	Answer      string    `json:"answer"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Round3Entry is one team's judged outcome for a round-3 question.
type Round3Entry struct {
	TeamID      string    `json:"team_id"`
	Answer      string    `json:"answer"`
	Correct     bool      `json:"correct"`
	Rank        int       `json:"rank,omitempty"`
	Points      int       `json:"points"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Round3Result holds the judged detail for one question index.
type Round3Result struct {
	QuestionIndex int           `json:"question_index"`
	QuestionID    string        `json:"question_id,omitempty"`
	Entries       []Round3Entry `json:"entries"`
	JudgedAt      time.Time     `json:"judged_at"`
}

// Round3State is the timed free-for-all extension state.
type Round3State struct {
	CurrentQuestionIndex *int                 `json:"current_question_index,omitempty"`
	PendingAnswers       []PendingAnswer      `json:"pending_answers,omitempty"`
	QuestionResults      map[int]Round3Result `json:"question_results,omitempty"`
}

// Pending returns the pending answer for teamID, or nil.
func (s *Round3State) Pending(teamID string) *PendingAnswer {
	for i := range s.PendingAnswers {
		if s.PendingAnswers[i].TeamID == teamID {
			return &s.PendingAnswers[i]
		}
	}
	return nil
}
