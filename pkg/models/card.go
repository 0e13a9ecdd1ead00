package models

import "time"

// Difficulty levels a card can be tagged with
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Card represents a single question/answer unit belonging to a set
type Card struct {
	ID         string    `json:"id" db:"id"`
	SetID      string    `json:"set_id" db:"set_id"`
	Position   int       `json:"position" db:"position"` // Order within the set, 0-based
	Question   string    `json:"question" db:"question"`
	Answer     string    `json:"answer" db:"answer"`
	Hint       string    `json:"hint,omitempty" db:"hint"`
	Difficulty string    `json:"difficulty,omitempty" db:"difficulty"` // easy, medium or hard
	Stats      CardStats `json:"stats"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// CardStats holds the lifetime review counters of a card.
// CorrectCount + IncorrectCount always equals TimesReviewed.
type CardStats struct {
	TimesReviewed  int        `json:"times_reviewed" db:"times_reviewed"`
	CorrectCount   int        `json:"correct_count" db:"correct_count"`
	IncorrectCount int        `json:"incorrect_count" db:"incorrect_count"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty" db:"last_reviewed_at"`
}
