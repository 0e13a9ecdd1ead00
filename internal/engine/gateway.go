package engine

import (
	"context"

	"github.com/example/flashdeck/pkg/models"
)

// Gateway is the engine's boundary to durable storage. The engine reads
// a deck snapshot through it and emits incremental stat updates back;
// it never assumes exclusive access to the persisted counters, so
// implementations must apply outcomes as commutative increments.
type Gateway interface {
	// LoadDeck returns the cards of a set ordered by position.
	// Returns ErrNotFound if the set does not exist.
	LoadDeck(ctx context.Context, setID string) ([]models.Card, error)

	// RecordOutcome durably applies one review outcome. Calling it
	// again with the same (SessionID, Position) must be a no-op.
	RecordOutcome(ctx context.Context, outcome models.Outcome) error

	// RecomputeSetStats recalculates the set's derived aggregates
	// (average score, card count) from its cards' current stats.
	RecomputeSetStats(ctx context.Context, setID string) error
}
