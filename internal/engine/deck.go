package engine

import (
	"context"
	"fmt"

	"github.com/example/flashdeck/pkg/models"
)

// Deck is a fixed, ordered snapshot of a set's cards for one session.
// Its ordering and content never change after load; only the persisted
// stats of the underlying cards may move concurrently.
type Deck struct {
	setID string
	cards []models.Card
}

// LoadDeck fetches a set's cards through the gateway and freezes them
// into a deck. Returns ErrNotFound if the set is missing and ErrEmptySet
// if it has no cards, since a session cannot start on an empty deck.
func LoadDeck(ctx context.Context, gw Gateway, setID string) (*Deck, error) {
	cards, err := gw.LoadDeck(ctx, setID)
	if err != nil {
		return nil, fmt.Errorf("failed to load deck %s: %w", setID, err)
	}
	if len(cards) == 0 {
		return nil, fmt.Errorf("deck %s: %w", setID, ErrEmptySet)
	}
	snapshot := make([]models.Card, len(cards))
	copy(snapshot, cards)
	return &Deck{setID: setID, cards: snapshot}, nil
}

// NewDeck builds a deck directly from cards. Used by tests and callers
// that already hold a snapshot.
func NewDeck(setID string, cards []models.Card) (*Deck, error) {
	if len(cards) == 0 {
		return nil, fmt.Errorf("deck %s: %w", setID, ErrEmptySet)
	}
	snapshot := make([]models.Card, len(cards))
	copy(snapshot, cards)
	return &Deck{setID: setID, cards: snapshot}, nil
}

// SetID returns the id of the set this deck was loaded from.
func (d *Deck) SetID() string {
	return d.setID
}

// Len returns the number of cards in the deck.
func (d *Deck) Len() int {
	return len(d.cards)
}

// CardAt returns the card at the given position. Returns ErrOutOfRange
// if position is not in [0, Len).
func (d *Deck) CardAt(position int) (models.Card, error) {
	if position < 0 || position >= len(d.cards) {
		return models.Card{}, fmt.Errorf("position %d of %d: %w", position, len(d.cards), ErrOutOfRange)
	}
	return d.cards[position], nil
}
