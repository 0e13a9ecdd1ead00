package scheduler

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-co-op/gocron"
)

// DefaultFlushIntervalSeconds is how often queued outcomes are retried
// and dirty set aggregates recomputed
const DefaultFlushIntervalSeconds = 60

// Flusher retries queued outcome writes and reconciles set aggregates
type Flusher interface {
	Flush(ctx context.Context) error
	PendingCount() int
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	flusher   Flusher
}

// New creates a new scheduler instance
func New(flusher Flusher) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		flusher:   flusher,
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() {
	interval := DefaultFlushIntervalSeconds
	if v := os.Getenv("FLUSH_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			interval = n
		}
	}

	s.scheduler.Every(interval).Seconds().Do(s.flushOutcomes)

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// flushOutcomes pushes queued review outcomes to storage and
// recomputes aggregates for sets studied since the last run
func (s *Scheduler) flushOutcomes() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.flusher.Flush(ctx); err != nil {
		log.Printf("Error flushing outcomes (%d still pending): %v", s.flusher.PendingCount(), err)
	}
}

// RunManualFlush forces an immediate flush, used at shutdown so queued
// outcomes are not lost with the process
func (s *Scheduler) RunManualFlush(ctx context.Context) error {
	return s.flusher.Flush(ctx)
}
