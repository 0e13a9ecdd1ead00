package models

import "time"

// Set represents a named collection of cards, the unit of study
type Set struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description,omitempty" db:"description"`
	CardCount   int       `json:"card_count" db:"card_count"`
	Stats       SetStats  `json:"stats"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// SetStats holds the aggregate study statistics of a set.
// AverageScore is derived from the per-card success rates and is
// recomputed, never mutated independently.
type SetStats struct {
	TimesStudied  int        `json:"times_studied" db:"times_studied"`
	AverageScore  int        `json:"average_score" db:"average_score"` // 0-100
	LastStudiedAt *time.Time `json:"last_studied_at,omitempty" db:"last_studied_at"`
}
