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

// SetRepository handles database operations for flashcard sets
type SetRepository struct{}

// NewSetRepository creates a new repository instance
func NewSetRepository() *SetRepository {
	return &SetRepository{}
}

const setColumns = `id, user_id, title, description, card_count,
		times_studied, average_score, last_studied_at, created_at, updated_at`

func scanSet(row sqlRow) (models.Set, error) {
	var s models.Set
	var lastStudied sql.NullTime
	err := row.Scan(&s.ID, &s.UserID, &s.Title, &s.Description, &s.CardCount,
		&s.Stats.TimesStudied, &s.Stats.AverageScore, &lastStudied,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return s, err
	}
	if lastStudied.Valid {
		t := lastStudied.Time
		s.Stats.LastStudiedAt = &t
	}
	return s, nil
}

// sqlRow is satisfied by both *sql.Row and *sql.Rows
type sqlRow interface {
	Scan(dest ...interface{}) error
}

// Create inserts a new set. A missing id is generated.
func (r *SetRepository) Create(ctx context.Context, set *models.Set) error {
	if set.ID == "" {
		set.ID = uuid.New().String()
	}
	query := `
		INSERT INTO flashcard_sets (id, user_id, title, description, card_count)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := DB.ExecContext(ctx, query,
		set.ID, set.UserID, set.Title, set.Description, set.CardCount)
	if err != nil {
		return fmt.Errorf("failed to create set: %v", err)
	}
	return nil
}

// GetByID returns a single set
func (r *SetRepository) GetByID(ctx context.Context, id string) (*models.Set, error) {
	query := `SELECT ` + setColumns + ` FROM flashcard_sets WHERE id = $1`
	set, err := scanSet(DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get set %s: %v", id, err)
	}
	return &set, nil
}

// GetAll returns all sets, most recently modified first
func (r *SetRepository) GetAll(ctx context.Context) ([]models.Set, error) {
	query := `SELECT ` + setColumns + ` FROM flashcard_sets ORDER BY updated_at DESC`
	rows, err := DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get sets: %v", err)
	}
	defer rows.Close()

	var sets []models.Set
	for rows.Next() {
		set, err := scanSet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan set row: %v", err)
		}
		sets = append(sets, set)
	}
	return sets, rows.Err()
}

// Update modifies a set's title and description
func (r *SetRepository) Update(ctx context.Context, set *models.Set) error {
	query := `
		UPDATE flashcard_sets SET
			title = $1,
			description = $2,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $3
	`
	result, err := DB.ExecContext(ctx, query, set.Title, set.Description, set.ID)
	if err != nil {
		return fmt.Errorf("failed to update set %s: %v", set.ID, err)
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

// Delete removes a set, its cards and its recorded outcomes
func (r *SetRepository) Delete(ctx context.Context, id string) error {
	tx, err := DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM review_outcomes WHERE set_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete outcomes for set %s: %v", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM flashcards WHERE set_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete cards for set %s: %v", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM flashcard_sets WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete set %s: %v", id, err)
	}

	return tx.Commit()
}

// TouchStudied bumps the study counter and timestamp within the
// caller's transaction. The increment is commutative so concurrent
// sessions never lose updates.
func (r *SetRepository) TouchStudied(ctx context.Context, q sqlx.ExtContext, id string, at time.Time) error {
	query := `
		UPDATE flashcard_sets SET
			times_studied = times_studied + 1,
			last_studied_at = $1,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
	`
	if _, err := q.ExecContext(ctx, query, at, id); err != nil {
		return fmt.Errorf("failed to touch set %s: %v", id, err)
	}
	return nil
}

// UpdateDerivedStats overwrites the recomputed aggregate fields
func (r *SetRepository) UpdateDerivedStats(ctx context.Context, id string, averageScore, cardCount int) error {
	query := `
		UPDATE flashcard_sets SET
			average_score = $1,
			card_count = $2,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $3
	`
	if _, err := DB.ExecContext(ctx, query, averageScore, cardCount, id); err != nil {
		return fmt.Errorf("failed to update stats for set %s: %v", id, err)
	}
	return nil
}
