package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/flashdeck/pkg/models"
)

func TestApplyOutcomeKeepsCountersConsistent(t *testing.T) {
	now := time.Unix(1700000000, 0)
	var stats models.CardStats

	answers := []bool{true, false, true, true, false, false, true}
	for i, correct := range answers {
		stats = ApplyOutcome(stats, correct, now.Add(time.Duration(i)*time.Minute))
		assert.Equal(t, stats.TimesReviewed, stats.CorrectCount+stats.IncorrectCount)
	}

	assert.Equal(t, 7, stats.TimesReviewed)
	assert.Equal(t, 4, stats.CorrectCount)
	assert.Equal(t, 3, stats.IncorrectCount)
	require.NotNil(t, stats.LastReviewedAt)
	assert.Equal(t, now.Add(6*time.Minute), *stats.LastReviewedAt)
}

func TestApplyOutcomeFoldMatchesStepwise(t *testing.T) {
	now := time.Unix(1700000000, 0)
	answers := []bool{true, true, false, true}

	var stepwise models.CardStats
	for _, correct := range answers {
		stepwise = ApplyOutcome(stepwise, correct, now)
	}

	folded := models.CardStats{}
	for _, correct := range answers {
		folded = ApplyOutcome(folded, correct, now)
	}

	assert.Equal(t, stepwise, folded)
}

func TestCardSuccessRate(t *testing.T) {
	tests := []struct {
		name  string
		stats models.CardStats
		want  int
	}{
		{"unreviewed card scores zero", models.CardStats{}, 0},
		{"all correct", models.CardStats{TimesReviewed: 4, CorrectCount: 4}, 100},
		{"all incorrect", models.CardStats{TimesReviewed: 3, IncorrectCount: 3}, 0},
		{"two thirds rounds up", models.CardStats{TimesReviewed: 3, CorrectCount: 2, IncorrectCount: 1}, 67},
		{"one third rounds down", models.CardStats{TimesReviewed: 3, CorrectCount: 1, IncorrectCount: 2}, 33},
		{"half", models.CardStats{TimesReviewed: 2, CorrectCount: 1, IncorrectCount: 1}, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CardSuccessRate(tt.stats))
		})
	}
}

func TestSetAverageScoreWeighsCardsEqually(t *testing.T) {
	// One heavily-reviewed perfect card must not drown out a struggling
	// card: average mastery is per card, not pooled accuracy.
	cards := []models.Card{
		{Stats: models.CardStats{TimesReviewed: 100, CorrectCount: 100}},
		{Stats: models.CardStats{TimesReviewed: 2, IncorrectCount: 2}},
	}
	assert.Equal(t, 50, SetAverageScore(cards))

	assert.Equal(t, 0, SetAverageScore(nil))
}

func TestSummarize(t *testing.T) {
	outcomes := []models.Outcome{
		{Correct: true, ElapsedMs: 1000},
		{Correct: false, ElapsedMs: 2000},
		{Correct: true, ElapsedMs: 500},
	}
	sum := Summarize(outcomes)

	assert.Equal(t, 2, sum.Correct)
	assert.Equal(t, 1, sum.Incorrect)
	assert.Equal(t, 67, sum.Accuracy)
	assert.Equal(t, 1, sum.BestStreak)
	assert.Equal(t, int64(3500), sum.TotalElapsedMs)
}

func TestSummarizeEmpty(t *testing.T) {
	sum := Summarize(nil)
	assert.Equal(t, 0, sum.Accuracy)
	assert.Equal(t, 0, sum.BestStreak)
}

func TestSummarizeBestStreakIsPeakNotFinal(t *testing.T) {
	outcomes := []models.Outcome{
		{Correct: true}, {Correct: true}, {Correct: true},
		{Correct: false},
		{Correct: true},
	}
	sum := Summarize(outcomes)
	assert.Equal(t, 3, sum.BestStreak)
}

func TestProgress(t *testing.T) {
	tests := []struct {
		position, length, want int
	}{
		{0, 4, 0},
		{1, 4, 25},
		{4, 4, 100},
		{5, 4, 100},  // clamped
		{-1, 4, 0},   // clamped
		{0, 0, 0},    // no division by zero
		{1, 3, 33},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Progress(tt.position, tt.length),
			"Progress(%d, %d)", tt.position, tt.length)
	}
}
