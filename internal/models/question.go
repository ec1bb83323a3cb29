package models

import "time"

// QuestionType classifies how a question is presented.
type QuestionType string

const (
	QuestionTypeHorizontal QuestionType = "horizontal"
	QuestionTypeVideo      QuestionType = "video"
	QuestionTypeArrange    QuestionType = "arrange"
	QuestionTypeReasoning  QuestionType = "reasoning"
)

// Question is moderator-authored content. Index is unique per package;
// Points is the tier value used when drawing round-4 questions.
type Question struct {
	ID              string       `json:"id"`
	PackageID       string       `json:"package_id,omitempty"`
	Round           Round        `json:"round"`
	Index           int          `json:"index"`
	Text            string       `json:"text"`
	AnswerText      string       `json:"answer_text"`
	AcceptedAnswers []string     `json:"accepted_answers,omitempty"`
	Type            QuestionType `json:"type"`
	Points          int          `json:"points,omitempty"`
	VideoURL        string       `json:"video_url,omitempty"`
	ArrangeSteps    []string     `json:"arrange_steps,omitempty"`
}

// QuestionFilter narrows question listings; zero values mean "any".
type QuestionFilter struct {
	PackageID string
	Round     Round
	Type      QuestionType
	Points    int
}

// Matches reports whether q satisfies the filter.
func (f QuestionFilter) Matches(q *Question) bool {
	if f.PackageID != "" && q.PackageID != f.PackageID {
		return false
	}
	if f.Round != "" && q.Round != f.Round {
		return false
	}
	if f.Type != "" && q.Type != f.Type {
		return false
	}
	if f.Points != 0 && q.Points != f.Points {
		return false
	}
	return true
}

// Team is a roster entry managed outside the game engine.
type Team struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
