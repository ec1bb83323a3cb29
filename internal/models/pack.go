package models

import "time"

// PackageStatus defines the lifecycle status of a question package.
type PackageStatus string

const (
	PackageStatusUnassigned PackageStatus = "UNASSIGNED"
	PackageStatusInProgress PackageStatus = "IN_PROGRESS"
	PackageStatusCompleted  PackageStatus = "COMPLETED"
)

// QuestionResult is the judged outcome recorded in package history.
type QuestionResult string

const (
	ResultCorrect  QuestionResult = "CORRECT"
	ResultWrong    QuestionResult = "WRONG"
	ResultTimeout  QuestionResult = "TIMEOUT"
	ResultNoAnswer QuestionResult = "NO_ANSWER"
)

// HistoryEntry is one judged question in a package.
type HistoryEntry struct {
	Index      int            `json:"index"`
	QuestionID string         `json:"question_id"`
	Result     QuestionResult `json:"result"`
	JudgedBy   string         `json:"judged_by,omitempty"`
	JudgedAt   time.Time      `json:"judged_at"`
}

// Package is a moderator-authored bundle of questions for one round.
// Content survives game resets; assignment and history do not.
type Package struct {
	ID                   string         `json:"id"`
	Round                Round          `json:"round"`
	Number               int            `json:"number"`
	Status               PackageStatus  `json:"status"`
	AssignedTeamID       string         `json:"assigned_team_id,omitempty"`
	CurrentQuestionIndex int            `json:"current_question_index"`
	History              []HistoryEntry `json:"history,omitempty"`
	Round2Meta           *Round2Meta    `json:"round2_meta,omitempty"`
}

// HistoryFor reports whether the package already holds a judged entry for
// the given question index.
func (p *Package) HistoryFor(index int) *HistoryEntry {
	for i := range p.History {
		if p.History[i].Index == index {
			return &p.History[i]
		}
	}
	return nil
}

// KeywordBuzz is one entry in the round-2 keyword prediction queue.
type KeywordBuzz struct {
	TeamID   string    `json:"team_id"`
	BuzzedAt time.Time `json:"buzzed_at"`
}

// TurnState tracks whose turn it is to pick a horizontal clue and which
// teams already spent their single attempt.
type TurnState struct {
	CurrentTeamID              string          `json:"current_team_id,omitempty"`
	TeamsUsedHorizontalAttempt map[string]bool `json:"teams_used_horizontal_attempt,omitempty"`
}

// BuzzState tracks the two independent round-2 buzzer tracks: the CNV
// first-come lock and the ordered keyword prediction queue.
type BuzzState struct {
	CNVLockTeamID           string        `json:"cnv_lock_team_id,omitempty"`
	CNVLockEndsAt           *time.Time    `json:"cnv_lock_ends_at,omitempty"`
	KeywordBuzzQueue        []KeywordBuzz `json:"keyword_buzz_queue,omitempty"`
	CurrentKeywordBuzzIndex *int          `json:"current_keyword_buzz_index,omitempty"`
}

// Round2Meta is the picture-puzzle state carried by a round-2 package.
type Round2Meta struct {
	ImageRef        string          `json:"image_ref,omitempty"`
	CNVAnswer       string          `json:"cnv_answer"`
	CNVLetterCount  int             `json:"cnv_letter_count"`
	HorizontalOrder map[int]int     `json:"horizontal_order,omitempty"`
	RevealedPieces  map[int]bool    `json:"revealed_pieces,omitempty"`
	OpenedClueCount int             `json:"opened_clue_count"`
	EliminatedTeams map[string]bool `json:"eliminated_team_ids,omitempty"`
	TurnState       TurnState       `json:"turn_state"`
	BuzzState       BuzzState       `json:"buzz_state"`
}

// Eliminated reports whether the team is out of round 2.
func (m *Round2Meta) Eliminated(teamID string) bool {
	return m.EliminatedTeams[teamID]
}
