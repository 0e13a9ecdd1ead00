package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/flashdeck/pkg/models"
)

func testDeck(t *testing.T, n int) *Deck {
	t.Helper()
	cards := make([]models.Card, n)
	for i := range cards {
		cards[i] = models.Card{
			ID:       fmt.Sprintf("card-%d", i),
			SetID:    "set-1",
			Position: i,
			Question: fmt.Sprintf("Q%d", i),
			Answer:   fmt.Sprintf("A%d", i),
		}
	}
	deck, err := NewDeck("set-1", cards)
	require.NoError(t, err)
	return deck
}

// fakeClock returns a clock advancing by step on every call
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	now := start
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func answerAll(t *testing.T, s *Session, answers []bool) {
	t.Helper()
	for _, correct := range answers {
		require.NoError(t, s.Reveal())
		_, err := s.Answer(correct)
		require.NoError(t, err)
	}
}

func TestSessionQuizRun(t *testing.T) {
	s := NewSession(testDeck(t, 3), ModeQuiz)
	s.now = fakeClock(time.Unix(0, 0), 100*time.Millisecond)

	require.Equal(t, PhaseReviewing, s.Phase())
	require.Equal(t, 0, s.Progress())

	// Scenario A: [correct, incorrect, correct]
	answerAll(t, s, []bool{true, false, true})

	require.True(t, s.Completed())
	require.Equal(t, 100, s.Progress())
	require.Equal(t, 1, s.Streak())

	summary := s.Summary()
	assert.Equal(t, 2, summary.Correct)
	assert.Equal(t, 1, summary.Incorrect)
	assert.Equal(t, 67, summary.Accuracy)
	assert.Equal(t, 1, summary.BestStreak)
}

func TestSessionSingleCard(t *testing.T) {
	// Scenario B: one card goes straight to Complete
	s := NewSession(testDeck(t, 1), ModeQuiz)

	require.NoError(t, s.Reveal())
	_, err := s.Answer(true)
	require.NoError(t, err)

	assert.Equal(t, PhaseComplete, s.Phase())
	assert.Equal(t, 100, s.Progress())
}

func TestRevealTwiceIsNoOp(t *testing.T) {
	// Scenario C
	s := NewSession(testDeck(t, 2), ModeQuiz)

	require.NoError(t, s.Reveal())
	require.NoError(t, s.Reveal())

	assert.Equal(t, PhaseRevealed, s.Phase())
	assert.Equal(t, 0, s.Position())
}

func TestAnswerBeforeRevealFails(t *testing.T) {
	// Scenario D
	s := NewSession(testDeck(t, 2), ModeQuiz)

	_, err := s.Answer(true)
	require.ErrorIs(t, err, ErrInvalidTransition)

	assert.Equal(t, PhaseReviewing, s.Phase())
	assert.Equal(t, 0, s.Position())
	assert.Empty(t, s.Outcomes())
}

func TestEmptyDeckFails(t *testing.T) {
	// Scenario E
	_, err := NewDeck("set-1", nil)
	require.ErrorIs(t, err, ErrEmptySet)
}

func TestLoadDeckErrors(t *testing.T) {
	gw := newFakeGateway()
	_, err := LoadDeck(context.Background(), gw, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	gw.decks["empty"] = nil
	_, err = LoadDeck(context.Background(), gw, "empty")
	require.ErrorIs(t, err, ErrEmptySet)
}

func TestProgressMonotonic(t *testing.T) {
	s := NewSession(testDeck(t, 4), ModeQuiz)
	last := s.Progress()
	require.Equal(t, 0, last)

	for i := 0; i < 4; i++ {
		require.NoError(t, s.Reveal())
		_, err := s.Answer(i%2 == 0)
		require.NoError(t, err)
		p := s.Progress()
		assert.GreaterOrEqual(t, p, last)
		last = p
	}
	assert.Equal(t, 100, last)
}

func TestBestStreakCoversCurrentStreak(t *testing.T) {
	s := NewSession(testDeck(t, 6), ModeQuiz)

	answers := []bool{true, true, true, false, true, true}
	for _, correct := range answers {
		require.NoError(t, s.Reveal())
		_, err := s.Answer(correct)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, s.Summary().BestStreak, s.Streak())
	}

	assert.Equal(t, 3, s.Summary().BestStreak)
	assert.Equal(t, 2, s.Streak())
}

func TestAnswerElapsedUsesClock(t *testing.T) {
	s := NewSession(testDeck(t, 2), ModeQuiz)
	s.now = fakeClock(time.Unix(1000, 0), 250*time.Millisecond)

	require.NoError(t, s.Reveal())
	outcome, err := s.Answer(true)
	require.NoError(t, err)

	assert.Equal(t, int64(250), outcome.ElapsedMs)
	assert.Equal(t, "card-0", outcome.CardID)
	assert.Equal(t, s.ID(), outcome.SessionID)
	assert.Equal(t, 0, outcome.Position)
}

func TestBrowseNavigation(t *testing.T) {
	s := NewSession(testDeck(t, 3), ModeBrowse)

	require.ErrorIs(t, s.GoBack(), ErrOutOfRange)

	require.NoError(t, s.GoForward())
	require.NoError(t, s.GoForward())
	require.Equal(t, 2, s.Position())
	require.ErrorIs(t, s.GoForward(), ErrOutOfRange)

	require.NoError(t, s.GoBack())
	require.Equal(t, 1, s.Position())

	// Browsing never scores
	_, err := s.Answer(true)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Empty(t, s.Outcomes())
}

func TestQuizForbidsFreeNavigation(t *testing.T) {
	s := NewSession(testDeck(t, 3), ModeQuiz)

	require.ErrorIs(t, s.GoForward(), ErrInvalidTransition)
	require.ErrorIs(t, s.GoBack(), ErrInvalidTransition)
}

func TestSkipCountsExplicitly(t *testing.T) {
	s := NewSession(testDeck(t, 2), ModeQuiz)

	require.NoError(t, s.Reveal())
	_, err := s.Answer(true)
	require.NoError(t, err)

	require.NoError(t, s.Skip())
	assert.True(t, s.Completed())
	assert.Equal(t, 1, s.Skipped())
	assert.Equal(t, 1, s.Streak()) // skipping leaves the streak alone

	summary := s.Summary()
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Correct)

	require.ErrorIs(t, s.Skip(), ErrInvalidTransition)
}

func TestResetRestartsWithFreshIdentity(t *testing.T) {
	s := NewSession(testDeck(t, 3), ModeQuiz)
	oldID := s.ID()

	answerAll(t, s, []bool{true, true})
	require.Equal(t, 2, s.Position())

	s.Reset()

	// A new id keeps re-answered positions from colliding with the
	// previous run's idempotency keys
	assert.NotEqual(t, oldID, s.ID())
	assert.Equal(t, 0, s.Position())
	assert.Equal(t, 0, s.Streak())
	assert.Equal(t, PhaseReviewing, s.Phase())
	assert.Empty(t, s.Outcomes())
}

func TestTransitionsAfterComplete(t *testing.T) {
	s := NewSession(testDeck(t, 1), ModeQuiz)
	answerAll(t, s, []bool{false})
	require.True(t, s.Completed())

	require.ErrorIs(t, s.Reveal(), ErrInvalidTransition)
	_, err := s.Answer(true)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = s.CurrentCard()
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestDeckCardAt(t *testing.T) {
	deck := testDeck(t, 3)

	card, err := deck.CardAt(2)
	require.NoError(t, err)
	assert.Equal(t, "card-2", card.ID)

	_, err = deck.CardAt(-1)
	require.ErrorIs(t, err, ErrOutOfRange)
	_, err = deck.CardAt(3)
	require.ErrorIs(t, err, ErrOutOfRange)
}

var errGatewayDown = errors.New("gateway down")

// fakeGateway is an in-memory Gateway with switchable failure, counting
// how often each idempotency key was actually applied
type fakeGateway struct {
	decks      map[string][]models.Card
	applied    map[string]int
	stats      map[string]models.CardStats
	recomputed map[string]int
	failing    bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		decks:      make(map[string][]models.Card),
		applied:    make(map[string]int),
		stats:      make(map[string]models.CardStats),
		recomputed: make(map[string]int),
	}
}

func (g *fakeGateway) LoadDeck(_ context.Context, setID string) ([]models.Card, error) {
	cards, ok := g.decks[setID]
	if !ok {
		return nil, ErrNotFound
	}
	return cards, nil
}

func (g *fakeGateway) RecordOutcome(_ context.Context, o models.Outcome) error {
	if g.failing {
		return fmt.Errorf("%w: %v", ErrPersistenceUnavailable, errGatewayDown)
	}
	key := fmt.Sprintf("%s/%d", o.SessionID, o.Position)
	if g.applied[key] > 0 {
		return nil // replay of a durable outcome
	}
	g.applied[key]++
	g.stats[o.CardID] = ApplyOutcome(g.stats[o.CardID], o.Correct, o.AnsweredAt)
	return nil
}

func (g *fakeGateway) RecomputeSetStats(_ context.Context, setID string) error {
	if g.failing {
		return fmt.Errorf("%w: %v", ErrPersistenceUnavailable, errGatewayDown)
	}
	g.recomputed[setID]++
	return nil
}
