package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/example/flashdeck/internal/engine"
	"github.com/example/flashdeck/pkg/models"
)

// Store is the persistence gateway of the study engine, backed by the
// repositories in this package. It satisfies engine.Gateway.
type Store struct {
	Sets     *SetRepository
	Cards    *CardRepository
	Outcomes *OutcomeRepository
}

// NewStore creates a store over the package connection
func NewStore() *Store {
	return &Store{
		Sets:     NewSetRepository(),
		Cards:    NewCardRepository(),
		Outcomes: NewOutcomeRepository(),
	}
}

// LoadDeck returns the cards of a set ordered by position. A missing
// set maps to engine.ErrNotFound; the engine turns an empty card list
// into engine.ErrEmptySet.
func (s *Store) LoadDeck(ctx context.Context, setID string) ([]models.Card, error) {
	if _, err := s.Sets.GetByID(ctx, setID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, engine.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", engine.ErrPersistenceUnavailable, err)
	}
	cards, err := s.Cards.GetBySet(ctx, setID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrPersistenceUnavailable, err)
	}
	return cards, nil
}

// RecordOutcome durably applies one review outcome: the outcome row is
// the idempotency guard, and only a first-time insert increments the
// card and set counters, so replays never double-count. Insert and
// increments run in one transaction — a failure rolls back the guard
// row too, so the retry carrying the same key still applies the
// counters instead of hitting the conflict clause and losing them.
func (s *Store) RecordOutcome(ctx context.Context, outcome models.Outcome) error {
	tx, err := DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", engine.ErrPersistenceUnavailable, err)
	}
	defer tx.Rollback()

	inserted, err := s.Outcomes.Insert(ctx, tx, outcome)
	if err != nil {
		return fmt.Errorf("%w: %v", engine.ErrPersistenceUnavailable, err)
	}
	if !inserted {
		// Replay of an already durable outcome
		return nil
	}

	if err := s.Cards.ApplyOutcome(ctx, tx, outcome.CardID, outcome.Correct, outcome.AnsweredAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Card deleted between answer and flush; keep the guard row
			// so the retry queue stops replaying an uncountable outcome
			log.Printf("Outcome %s/%d references missing card %s", outcome.SessionID, outcome.Position, outcome.CardID)
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("%w: %v", engine.ErrPersistenceUnavailable, err)
			}
			return nil
		}
		return fmt.Errorf("%w: %v", engine.ErrPersistenceUnavailable, err)
	}

	if err := s.Sets.TouchStudied(ctx, tx, outcome.SetID, outcome.AnsweredAt); err != nil {
		return fmt.Errorf("%w: %v", engine.ErrPersistenceUnavailable, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", engine.ErrPersistenceUnavailable, err)
	}
	return nil
}

// CreateSet stores a new set together with its cards
func (s *Store) CreateSet(ctx context.Context, set *models.Set, cards []models.Card) error {
	set.CardCount = len(cards)
	if err := s.Sets.Create(ctx, set); err != nil {
		return err
	}
	if len(cards) == 0 {
		return nil
	}
	return s.Cards.CreateBatch(ctx, set.ID, cards)
}

// ListSets returns all sets
func (s *Store) ListSets(ctx context.Context) ([]models.Set, error) {
	return s.Sets.GetAll(ctx)
}

// GetSet returns one set, mapping a missing row to engine.ErrNotFound
func (s *Store) GetSet(ctx context.Context, id string) (*models.Set, error) {
	set, err := s.Sets.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, engine.ErrNotFound
	}
	return set, err
}

// UpdateSet modifies a set's title and description
func (s *Store) UpdateSet(ctx context.Context, set *models.Set) error {
	err := s.Sets.Update(ctx, set)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.ErrNotFound
	}
	return err
}

// DeleteSet removes a set with its cards and outcomes
func (s *Store) DeleteSet(ctx context.Context, id string) error {
	return s.Sets.Delete(ctx, id)
}

// GetCards returns a set's cards in order
func (s *Store) GetCards(ctx context.Context, setID string) ([]models.Card, error) {
	return s.Cards.GetBySet(ctx, setID)
}

// GetCard returns one card, mapping a missing row to engine.ErrNotFound
func (s *Store) GetCard(ctx context.Context, id string) (*models.Card, error) {
	card, err := s.Cards.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, engine.ErrNotFound
	}
	return card, err
}

// UpdateCard modifies a card's content
func (s *Store) UpdateCard(ctx context.Context, card *models.Card) error {
	err := s.Cards.Update(ctx, card)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.ErrNotFound
	}
	return err
}

// ResetCardStats zeroes a card's lifetime counters and reconciles the
// set aggregate
func (s *Store) ResetCardStats(ctx context.Context, cardID string) error {
	card, err := s.GetCard(ctx, cardID)
	if err != nil {
		return err
	}
	if err := s.Cards.ResetStats(ctx, cardID); err != nil {
		return err
	}
	return s.RecomputeSetStats(ctx, card.SetID)
}

// RecomputeSetStats recalculates the set's derived aggregates from its
// cards' current counters. The average score is always a function of
// the cards, never an independently drifting value.
func (s *Store) RecomputeSetStats(ctx context.Context, setID string) error {
	cards, err := s.Cards.GetBySet(ctx, setID)
	if err != nil {
		return fmt.Errorf("%w: %v", engine.ErrPersistenceUnavailable, err)
	}
	score := engine.SetAverageScore(cards)
	if err := s.Sets.UpdateDerivedStats(ctx, setID, score, len(cards)); err != nil {
		return fmt.Errorf("%w: %v", engine.ErrPersistenceUnavailable, err)
	}
	return nil
}
