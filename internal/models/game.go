package models

import (
	"encoding/json"
	"time"
)

// Round identifies one of the four competition rounds.
type Round string

const (
	RoundOne   Round = "ROUND1"
	RoundTwo   Round = "ROUND2"
	RoundThree Round = "ROUND3"
	RoundFour  Round = "ROUND4"
)

// Phase is a string tag scoped to the current round. The transition table
// in the game package decides which phases are reachable per round.
type Phase string

const (
	// Round 1
	PhaseIdle       Phase = "IDLE"
	PhaseRoundReady Phase = "ROUND_READY"

	// Round 2
	PhaseTurnSelect         Phase = "TURN_SELECT"
	PhaseHorizontalActive   Phase = "HORIZONTAL_ACTIVE"
	PhaseHorizontalJudging  Phase = "HORIZONTAL_JUDGING"
	PhaseCNVActive          Phase = "CNV_ACTIVE"
	PhaseCNVLocked          Phase = "CNV_LOCKED"
	PhaseCNVJudging         Phase = "CNV_JUDGING"
	PhaseCenterHintActive   Phase = "CENTER_HINT_ACTIVE"
	PhaseKeywordBuzzJudging Phase = "KEYWORD_BUZZ_JUDGING"
	PhaseRoundEnd           Phase = "ROUND_END"

	// Round 3
	PhaseRound3Ready          Phase = "ROUND3_READY"
	PhaseRound3QuestionActive Phase = "ROUND3_QUESTION_ACTIVE"
	PhaseRound3Judging        Phase = "ROUND3_JUDGING"
	PhaseRound3Results        Phase = "ROUND3_RESULTS"

	// Round 4
	PhaseRound4Idle          Phase = "R4_IDLE"
	PhaseRound4SelectPackage Phase = "R4_TURN_SELECT_PACKAGE"
	PhaseRound4PickQuestions Phase = "R4_TURN_PICK_QUESTIONS"
	PhaseRound4StarConfirm   Phase = "R4_STAR_CONFIRMATION"
	PhaseRound4QuestionShow  Phase = "R4_QUESTION_SHOW"
	PhaseRound4LockMain      Phase = "R4_QUESTION_LOCK_MAIN"
	PhaseRound4StealWindow   Phase = "R4_STEAL_WINDOW"
	PhaseRound4StealLocked   Phase = "R4_STEAL_LOCKED"
)

// TeamStatus defines the lifecycle status of a team within the game.
type TeamStatus string

const (
	TeamStatusWaiting  TeamStatus = "WAITING"
	TeamStatusActive   TeamStatus = "ACTIVE"
	TeamStatusFinished TeamStatus = "FINISHED"
)

// TeamScore is the per-team slice of the game snapshot. Name is copied
// from the roster at admission and refreshed by reconciliation, never
// live-joined at read time.
type TeamScore struct {
	TeamID string     `json:"team_id"`
	Name   string     `json:"name"`
	Score  int        `json:"score"`
	Status TeamStatus `json:"status"`
}

// QuestionTimer is an absolute server-stamped deadline. Expiry is checked
// reactively on the next write attempt; nothing fires when it lapses.
type QuestionTimer struct {
	EndsAt  time.Time
	Running bool
}

type questionTimerJSON struct {
	EndsAtMs int64 `json:"ends_at_ms"`
	Running  bool  `json:"running"`
}

// MarshalJSON serializes the deadline as epoch milliseconds so viewer
// clients can diff it against the broadcast server time.
func (t QuestionTimer) MarshalJSON() ([]byte, error) {
	return json.Marshal(questionTimerJSON{
		EndsAtMs: t.EndsAt.UnixMilli(),
		Running:  t.Running,
	})
}

func (t *QuestionTimer) UnmarshalJSON(data []byte) error {
	var raw questionTimerJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.EndsAt = time.UnixMilli(raw.EndsAtMs).UTC()
	t.Running = raw.Running
	return nil
}

// GameState is the authoritative snapshot for the single running game.
// Exactly one of Round2/Round3/Round4 is non-nil, matching Round; round 2
// keeps most of its runtime sub-state on the active package.
type GameState struct {
	Round             Round          `json:"round"`
	Phase             Phase          `json:"phase"`
	ActiveTeamID      string         `json:"active_team_id,omitempty"`
	ActivePackageID   string         `json:"active_package_id,omitempty"`
	CurrentQuestionID string         `json:"current_question_id,omitempty"`
	Timer             *QuestionTimer `json:"question_timer,omitempty"`
	Teams             []TeamScore    `json:"teams"`
	Round2            *Round2State   `json:"round2_state,omitempty"`
	Round3            *Round3State   `json:"round3_state,omitempty"`
	Round4            *Round4State   `json:"round4_state,omitempty"`
	UpdatedAt         time.Time      `json:"updated_at"`

	// Version is the optimistic-concurrency token managed by the store.
	Version int64 `json:"-"`
}

// Team returns the scoreboard entry for teamID, or nil if absent.
func (g *GameState) Team(teamID string) *TeamScore {
	for i := range g.Teams {
		if g.Teams[i].TeamID == teamID {
			return &g.Teams[i]
		}
	}
	return nil
}

// AnswerSubmission is a single team's answer for the currently active
// question of a round-2 track.
type AnswerSubmission struct {
	TeamID      string    `json:"team_id"`
	Answer      string    `json:"answer"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Round2State is the game-level slice of round-2 runtime state; the
// package-level slice lives in Round2Meta on the active package.
type Round2State struct {
	CurrentHorizontalOrder int                         `json:"current_horizontal_order,omitempty"`
	Submissions            map[string]AnswerSubmission `json:"submissions,omitempty"`
	// ResumePhase is where play returns after a wrong keyword guess when
	// the buzz preempted the center-hint or queue-judging stage.
	ResumePhase Phase `json:"resume_phase,omitempty"`
}
