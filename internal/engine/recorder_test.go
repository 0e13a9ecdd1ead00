package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/flashdeck/pkg/models"
)

func testOutcome(session string, position int, correct bool) models.Outcome {
	return models.Outcome{
		SessionID:  session,
		Position:   position,
		SetID:      "set-1",
		CardID:     "card-1",
		Correct:    correct,
		ElapsedMs:  1200,
		AnsweredAt: time.Unix(1700000000, 0),
	}
}

func TestRecorderWritesThrough(t *testing.T) {
	gw := newFakeGateway()
	rec := NewRecorder(gw)

	rec.Record(context.Background(), testOutcome("s1", 0, true))

	assert.Equal(t, 0, rec.PendingCount())
	assert.Equal(t, 1, gw.applied["s1/0"])
}

func TestRecorderQueuesOnFailure(t *testing.T) {
	gw := newFakeGateway()
	gw.failing = true
	rec := NewRecorder(gw)

	// Never an error surfaced to the session; the outcome waits.
	rec.Record(context.Background(), testOutcome("s1", 0, true))
	rec.Record(context.Background(), testOutcome("s1", 1, false))

	assert.Equal(t, 2, rec.PendingCount())
	assert.Empty(t, gw.applied)
}

func TestRecorderFlushDeliversExactlyOnce(t *testing.T) {
	gw := newFakeGateway()
	gw.failing = true
	rec := NewRecorder(gw)
	ctx := context.Background()

	rec.Record(ctx, testOutcome("s1", 0, true))
	rec.Record(ctx, testOutcome("s1", 1, true))

	// Storage still down: flush keeps everything queued.
	require.Error(t, rec.Flush(ctx))
	assert.Equal(t, 2, rec.PendingCount())

	gw.failing = false
	require.NoError(t, rec.Flush(ctx))

	assert.Equal(t, 0, rec.PendingCount())
	assert.Equal(t, 1, gw.applied["s1/0"])
	assert.Equal(t, 1, gw.applied["s1/1"])
	assert.Equal(t, 1, gw.recomputed["set-1"])

	// A second flush has nothing to deliver and recomputes nothing.
	require.NoError(t, rec.Flush(ctx))
	assert.Equal(t, 1, gw.applied["s1/0"])
	assert.Equal(t, 1, gw.recomputed["set-1"])
}

func TestRecorderFlushRecomputesDirtySets(t *testing.T) {
	gw := newFakeGateway()
	gw.decks["set-2"] = []models.Card{{ID: "card-9", SetID: "set-2"}}
	rec := NewRecorder(gw)
	ctx := context.Background()

	rec.Record(ctx, testOutcome("s1", 0, true))
	other := testOutcome("s2", 0, false)
	other.SetID = "set-2"
	other.CardID = "card-9"
	rec.Record(ctx, other)

	require.NoError(t, rec.Flush(ctx))
	assert.Equal(t, 1, gw.recomputed["set-1"])
	assert.Equal(t, 1, gw.recomputed["set-2"])
}

func TestRecorderReplayDoesNotDoubleCount(t *testing.T) {
	gw := newFakeGateway()
	rec := NewRecorder(gw)
	ctx := context.Background()

	o := testOutcome("s1", 0, true)
	rec.Record(ctx, o)
	rec.Record(ctx, o) // same idempotency key

	assert.Equal(t, 1, gw.applied["s1/0"])
	assert.Equal(t, 1, gw.stats["card-1"].TimesReviewed)
}
