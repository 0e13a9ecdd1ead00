package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/flashdeck/pkg/models"
)

// Mode selects how a session consumes user events. Quiz mode scores
// answers and records outcomes; browse mode allows free navigation and
// never records anything.
type Mode string

const (
	ModeQuiz   Mode = "quiz"
	ModeBrowse Mode = "browse"
)

// Phase is the state of the session machine for the current card.
type Phase string

const (
	PhaseReviewing Phase = "reviewing"
	PhaseRevealed  Phase = "revealed"
	PhaseComplete  Phase = "complete"
)

// Session drives one bounded pass over a deck. It processes one event
// at a time to completion and is not safe for concurrent use; callers
// serialize events per session. Only the session's effects on card and
// set stats are persisted, never the session itself.
type Session struct {
	id       string
	deck     *Deck
	mode     Mode
	phase    Phase
	position int
	streak   int
	skipped  int
	outcomes []models.Outcome

	startedAt      time.Time
	lastTransition time.Time

	now func() time.Time
}

// NewSession starts a session over the deck at position 0 with the
// answer hidden and all counters at zero.
func NewSession(deck *Deck, mode Mode) *Session {
	s := &Session{
		id:   uuid.New().String(),
		deck: deck,
		mode: mode,
		now:  time.Now,
	}
	s.restart()
	return s
}

func (s *Session) restart() {
	now := s.now()
	s.phase = PhaseReviewing
	s.position = 0
	s.streak = 0
	s.skipped = 0
	s.outcomes = nil
	s.startedAt = now
	s.lastTransition = now
}

// ID returns the session's unique id, used as the idempotency key
// prefix for persisted outcomes.
func (s *Session) ID() string { return s.id }

// Mode returns the session's mode.
func (s *Session) Mode() Mode { return s.mode }

// Phase returns the current machine state.
func (s *Session) Phase() Phase { return s.phase }

// Deck returns the deck the session runs over.
func (s *Session) Deck() *Deck { return s.deck }

// Position returns the index of the current card. After completion it
// equals the deck length.
func (s *Session) Position() int { return s.position }

// Streak returns the count of consecutive correct answers ending at the
// current point, for live display. See Summary for the session's peak.
func (s *Session) Streak() int { return s.streak }

// Skipped returns how many cards were explicitly skipped.
func (s *Session) Skipped() int { return s.skipped }

// Completed reports whether the session has reached its terminal state.
func (s *Session) Completed() bool { return s.phase == PhaseComplete }

// Revealed reports whether the current card's answer is showing.
func (s *Session) Revealed() bool { return s.phase == PhaseRevealed }

// StartedAt returns when the session began.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// CurrentCard returns the card at the current position.
func (s *Session) CurrentCard() (models.Card, error) {
	return s.deck.CardAt(s.position)
}

// Outcomes returns a copy of the outcomes recorded so far, in answer
// order.
func (s *Session) Outcomes() []models.Outcome {
	out := make([]models.Outcome, len(s.outcomes))
	copy(out, s.outcomes)
	return out
}

// Progress returns the percentage of the deck answered so far.
func (s *Session) Progress() int {
	return Progress(s.position, s.deck.Len())
}

// Summary condenses the session's outcomes recorded so far.
func (s *Session) Summary() SessionSummary {
	sum := Summarize(s.outcomes)
	sum.Skipped = s.skipped
	return sum
}

// Reveal shows the answer of the current card. Revealing twice is a
// no-op; revealing after completion is an invalid transition. Revealing
// touches nothing persisted.
func (s *Session) Reveal() error {
	switch s.phase {
	case PhaseComplete:
		return fmt.Errorf("reveal after completion: %w", ErrInvalidTransition)
	case PhaseRevealed:
		return nil
	}
	s.phase = PhaseRevealed
	s.lastTransition = s.now()
	return nil
}

// Answer scores the current card and advances. Valid only in quiz mode
// with the answer revealed; the state is left unchanged otherwise. The
// returned outcome carries the session id and position as its
// idempotency key and is what the caller hands to the persistence side.
func (s *Session) Answer(correct bool) (models.Outcome, error) {
	if s.mode != ModeQuiz {
		return models.Outcome{}, fmt.Errorf("answer in %s mode: %w", s.mode, ErrInvalidTransition)
	}
	if s.phase != PhaseRevealed {
		return models.Outcome{}, fmt.Errorf("answer while %s: %w", s.phase, ErrInvalidTransition)
	}

	card, err := s.deck.CardAt(s.position)
	if err != nil {
		return models.Outcome{}, err
	}

	now := s.now()
	outcome := models.Outcome{
		SessionID:  s.id,
		Position:   s.position,
		SetID:      s.deck.SetID(),
		CardID:     card.ID,
		Correct:    correct,
		ElapsedMs:  now.Sub(s.lastTransition).Milliseconds(),
		AnsweredAt: now,
	}
	s.outcomes = append(s.outcomes, outcome)

	if correct {
		s.streak++
	} else {
		s.streak = 0
	}

	s.advance(now)
	return outcome, nil
}

// Skip passes over the current card without scoring it. The skip is
// counted explicitly rather than silently dropped, but contributes no
// outcome and leaves the streak alone. Valid only in quiz mode before
// completion.
func (s *Session) Skip() error {
	if s.mode != ModeQuiz {
		return fmt.Errorf("skip in %s mode: %w", s.mode, ErrInvalidTransition)
	}
	if s.phase == PhaseComplete {
		return fmt.Errorf("skip after completion: %w", ErrInvalidTransition)
	}
	s.skipped++
	s.advance(s.now())
	return nil
}

func (s *Session) advance(now time.Time) {
	s.position++
	if s.position >= s.deck.Len() {
		s.position = s.deck.Len()
		s.phase = PhaseComplete
	} else {
		s.phase = PhaseReviewing
	}
	s.lastTransition = now
}

// GoForward moves to the next card without scoring. Browse mode only;
// navigating is never conflated with skipping.
func (s *Session) GoForward() error {
	if s.mode != ModeBrowse {
		return fmt.Errorf("navigate in %s mode: %w", s.mode, ErrInvalidTransition)
	}
	if s.position+1 >= s.deck.Len() {
		return fmt.Errorf("forward past last card: %w", ErrOutOfRange)
	}
	s.position++
	s.phase = PhaseReviewing
	s.lastTransition = s.now()
	return nil
}

// GoBack moves to the previous card without scoring. Browse mode only.
func (s *Session) GoBack() error {
	if s.mode != ModeBrowse {
		return fmt.Errorf("navigate in %s mode: %w", s.mode, ErrInvalidTransition)
	}
	if s.position == 0 {
		return fmt.Errorf("back past first card: %w", ErrOutOfRange)
	}
	s.position--
	s.phase = PhaseReviewing
	s.lastTransition = s.now()
	return nil
}

// Reset returns the session to its start state. Outcomes already
// persisted stay persisted; lifetime card stats are cumulative across
// sessions and are never decremented by a reset.
func (s *Session) Reset() {
	s.id = uuid.New().String()
	s.restart()
}
