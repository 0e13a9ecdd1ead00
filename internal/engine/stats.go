package engine

import (
	"math"
	"time"

	"github.com/example/flashdeck/pkg/models"
)

// Pure aggregation functions over review outcomes. No I/O happens here;
// folding a sequence of outcomes one at a time gives the same result as
// applying them in a batch, which keeps replayed writes safe.

// ApplyOutcome returns the card stats after one review. Counters only
// ever grow; CorrectCount + IncorrectCount stays equal to TimesReviewed.
func ApplyOutcome(stats models.CardStats, correct bool, at time.Time) models.CardStats {
	stats.TimesReviewed++
	if correct {
		stats.CorrectCount++
	} else {
		stats.IncorrectCount++
	}
	t := at
	stats.LastReviewedAt = &t
	return stats
}

// CardSuccessRate returns the percentage of a card's lifetime reviews
// that were correct, rounded to the nearest integer. An unreviewed card
// scores 0.
func CardSuccessRate(stats models.CardStats) int {
	if stats.TimesReviewed == 0 {
		return 0
	}
	return int(math.Round(100 * float64(stats.CorrectCount) / float64(stats.TimesReviewed)))
}

// SetAverageScore returns the mean of the per-card success rates,
// weighted equally per card rather than per review. This is the set's
// "average mastery", distinct from pooled accuracy.
func SetAverageScore(cards []models.Card) int {
	if len(cards) == 0 {
		return 0
	}
	sum := 0
	for _, c := range cards {
		sum += CardSuccessRate(c.Stats)
	}
	return int(math.Round(float64(sum) / float64(len(cards))))
}

// Progress returns the percentage of a deck already answered, clamped
// to [0, 100]. It is 0 at session start and exactly 100 at completion.
func Progress(position, length int) int {
	if length <= 0 {
		return 0
	}
	p := 100 * position / length
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// SessionSummary condenses one session's outcomes for display after
// completion. BestStreak is the session's peak run of correct answers,
// which can exceed the live streak when a miss lands near the end.
type SessionSummary struct {
	Correct        int   `json:"correct"`
	Incorrect      int   `json:"incorrect"`
	Skipped        int   `json:"skipped"`
	Accuracy       int   `json:"accuracy"` // 0-100
	BestStreak     int   `json:"best_streak"`
	TotalElapsedMs int64 `json:"total_elapsed_ms"`
}

// Summarize folds a session's ordered outcomes into a summary.
func Summarize(outcomes []models.Outcome) SessionSummary {
	var s SessionSummary
	run := 0
	for _, o := range outcomes {
		s.TotalElapsedMs += o.ElapsedMs
		if o.Correct {
			s.Correct++
			run++
			if run > s.BestStreak {
				s.BestStreak = run
			}
		} else {
			s.Incorrect++
			run = 0
		}
	}
	answered := s.Correct + s.Incorrect
	if answered < 1 {
		answered = 1
	}
	s.Accuracy = int(math.Round(100 * float64(s.Correct) / float64(answered)))
	return s
}
