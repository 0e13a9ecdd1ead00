package models

import "time"

// Outcome records the result of answering one card once during a study
// session. (SessionID, Position) is the idempotency key: replaying the
// same outcome must never double-count.
type Outcome struct {
	SessionID  string    `json:"session_id" db:"session_id"`
	Position   int       `json:"position" db:"position"`
	SetID      string    `json:"set_id" db:"set_id"`
	CardID     string    `json:"card_id" db:"card_id"`
	Correct    bool      `json:"correct" db:"correct"`
	ElapsedMs  int64     `json:"elapsed_ms" db:"elapsed_ms"`
	AnsweredAt time.Time `json:"answered_at" db:"answered_at"`
}
