package engine

import (
	"context"
	"log"
	"sync"

	"github.com/example/flashdeck/pkg/models"
)

// Recorder persists outcomes through the gateway without ever blocking
// a session on storage. A failed write is queued and retried with the
// same idempotency key until durable, so a retry can never
// double-count. Recorder is safe for concurrent use; sessions record
// while the scheduler flushes.
type Recorder struct {
	gw Gateway

	mu      sync.Mutex
	pending []models.Outcome
	dirty   map[string]bool // set ids needing aggregate recompute
}

// NewRecorder creates a recorder over the gateway.
func NewRecorder(gw Gateway) *Recorder {
	return &Recorder{
		gw:    gw,
		dirty: make(map[string]bool),
	}
}

// Record applies one outcome. On storage failure the outcome is queued
// for retry and a warning is logged; the caller's session proceeds
// either way.
func (r *Recorder) Record(ctx context.Context, outcome models.Outcome) {
	r.mu.Lock()
	r.dirty[outcome.SetID] = true
	r.mu.Unlock()

	if err := r.gw.RecordOutcome(ctx, outcome); err != nil {
		log.Printf("Failed to record outcome %s/%d, queued for retry: %v",
			outcome.SessionID, outcome.Position, err)
		r.mu.Lock()
		r.pending = append(r.pending, outcome)
		r.mu.Unlock()
	}
}

// Flush retries queued outcomes and recomputes aggregates for every set
// touched since the last flush. Outcomes that still fail stay queued.
func (r *Recorder) Flush(ctx context.Context) error {
	r.mu.Lock()
	pending := r.pending
	r.pending = nil
	dirty := r.dirty
	r.dirty = make(map[string]bool)
	r.mu.Unlock()

	var firstErr error
	var requeue []models.Outcome
	for _, outcome := range pending {
		if err := r.gw.RecordOutcome(ctx, outcome); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			requeue = append(requeue, outcome)
			dirty[outcome.SetID] = true
		}
	}

	for setID := range dirty {
		if err := r.gw.RecomputeSetStats(ctx, setID); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			r.mu.Lock()
			r.dirty[setID] = true
			r.mu.Unlock()
		}
	}

	if len(requeue) > 0 {
		r.mu.Lock()
		r.pending = append(requeue, r.pending...)
		for _, o := range requeue {
			r.dirty[o.SetID] = true
		}
		r.mu.Unlock()
	}
	return firstErr
}

// PendingCount returns how many outcomes are still waiting to become
// durable, for a "progress not saved" warning surface.
func (r *Recorder) PendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
