package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/example/flashdeck/pkg/models"
)

// CardRepository handles database operations for flashcards
type CardRepository struct{}

// NewCardRepository creates a new repository instance
func NewCardRepository() *CardRepository {
	return &CardRepository{}
}

const cardColumns = `id, set_id, position, question, answer, hint, difficulty,
		times_reviewed, correct_count, incorrect_count, last_reviewed_at,
		created_at, updated_at`

func scanCard(row sqlRow) (models.Card, error) {
	var c models.Card
	var lastReviewed sql.NullTime
	err := row.Scan(&c.ID, &c.SetID, &c.Position, &c.Question, &c.Answer,
		&c.Hint, &c.Difficulty,
		&c.Stats.TimesReviewed, &c.Stats.CorrectCount, &c.Stats.IncorrectCount,
		&lastReviewed, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return c, err
	}
	if lastReviewed.Valid {
		t := lastReviewed.Time
		c.Stats.LastReviewedAt = &t
	}
	return c, nil
}

// CreateBatch inserts all cards of a set in one transaction, assigning
// ids and sequential positions
func (r *CardRepository) CreateBatch(ctx context.Context, setID string, cards []models.Card) error {
	tx, err := DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO flashcards (id, set_id, position, question, answer, hint, difficulty)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for i := range cards {
		if cards[i].ID == "" {
			cards[i].ID = uuid.New().String()
		}
		cards[i].SetID = setID
		cards[i].Position = i
		_, err := tx.ExecContext(ctx, query,
			cards[i].ID, setID, i, cards[i].Question, cards[i].Answer,
			cards[i].Hint, cards[i].Difficulty)
		if err != nil {
			return fmt.Errorf("failed to insert card %d: %v", i, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE flashcard_sets SET card_count = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		len(cards), setID); err != nil {
		return fmt.Errorf("failed to update card count for set %s: %v", setID, err)
	}

	return tx.Commit()
}

// GetBySet returns all cards of a set ordered by position
func (r *CardRepository) GetBySet(ctx context.Context, setID string) ([]models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM flashcards WHERE set_id = $1 ORDER BY position ASC`
	rows, err := DB.QueryContext(ctx, query, setID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards for set %s: %v", setID, err)
	}
	defer rows.Close()

	var cards []models.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card row: %v", err)
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

// GetByID returns a single card
func (r *CardRepository) GetByID(ctx context.Context, id string) (*models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM flashcards WHERE id = $1`
	card, err := scanCard(DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get card %s: %v", id, err)
	}
	return &card, nil
}

// Update modifies a card's content fields. Stats are never written
// here; they move only through ApplyOutcome.
func (r *CardRepository) Update(ctx context.Context, card *models.Card) error {
	query := `
		UPDATE flashcards SET
			question = $1,
			answer = $2,
			hint = $3,
			difficulty = $4,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $5
	`
	result, err := DB.ExecContext(ctx, query,
		card.Question, card.Answer, card.Hint, card.Difficulty, card.ID)
	if err != nil {
		return fmt.Errorf("failed to update card %s: %v", card.ID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %v", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ApplyOutcome increments a card's review counters within the caller's
// transaction. The increments are commutative: concurrent sessions
// studying the same card never lose updates to a read-modify-write
// race.
func (r *CardRepository) ApplyOutcome(ctx context.Context, q sqlx.ExtContext, cardID string, correct bool, at time.Time) error {
	correctDelta, incorrectDelta := 0, 1
	if correct {
		correctDelta, incorrectDelta = 1, 0
	}
	query := `
		UPDATE flashcards SET
			times_reviewed = times_reviewed + 1,
			correct_count = correct_count + $1,
			incorrect_count = incorrect_count + $2,
			last_reviewed_at = $3,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $4
	`
	result, err := q.ExecContext(ctx, query, correctDelta, incorrectDelta, at, cardID)
	if err != nil {
		return fmt.Errorf("failed to apply outcome to card %s: %v", cardID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %v", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ResetStats zeroes a card's counters. This is the explicit user-level
// reset: a full overwrite, not a decrement.
func (r *CardRepository) ResetStats(ctx context.Context, cardID string) error {
	query := `
		UPDATE flashcards SET
			times_reviewed = 0,
			correct_count = 0,
			incorrect_count = 0,
			last_reviewed_at = NULL,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`
	if _, err := DB.ExecContext(ctx, query, cardID); err != nil {
		return fmt.Errorf("failed to reset stats for card %s: %v", cardID, err)
	}
	return nil
}
