package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/flashdeck/pkg/models"
)

// OutcomeRepository handles database operations for review outcomes
type OutcomeRepository struct{}

// NewOutcomeRepository creates a new repository instance
func NewOutcomeRepository() *OutcomeRepository {
	return &OutcomeRepository{}
}

// Insert stores an outcome keyed by (session_id, position). Replaying
// the same outcome is swallowed by the conflict clause; the returned
// bool reports whether this call actually inserted the row. q is the
// caller's transaction so the insert commits together with the counter
// increments it guards.
func (r *OutcomeRepository) Insert(ctx context.Context, q sqlx.ExtContext, o models.Outcome) (bool, error) {
	query := `
		INSERT INTO review_outcomes (session_id, position, set_id, card_id, correct, elapsed_ms, answered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (session_id, position) DO NOTHING
	`
	result, err := q.ExecContext(ctx, query,
		o.SessionID, o.Position, o.SetID, o.CardID, o.Correct, o.ElapsedMs, o.AnsweredAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert outcome %s/%d: %v", o.SessionID, o.Position, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %v", err)
	}
	return rows > 0, nil
}

// GetBySession returns a session's recorded outcomes in answer order
func (r *OutcomeRepository) GetBySession(ctx context.Context, sessionID string) ([]models.Outcome, error) {
	query := `
		SELECT session_id, position, set_id, card_id, correct, elapsed_ms, answered_at
		FROM review_outcomes
		WHERE session_id = $1
		ORDER BY position ASC
	`
	var outcomes []models.Outcome
	if err := DB.SelectContext(ctx, &outcomes, query, sessionID); err != nil {
		return nil, fmt.Errorf("failed to get outcomes for session %s: %v", sessionID, err)
	}
	return outcomes, nil
}
