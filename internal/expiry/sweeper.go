// Package expiry removes items whose lifetime has passed. The sweep is a
// best-effort cleanup: feed queries filter on expires_at themselves, so rows
// lingering between sweeps are never served.
package expiry

import (
	"context"
	"log"
	"time"

	"stories-service/internal/observability"
	"stories-service/internal/repositories"
	"stories-service/internal/telemetry"
)

// Sweeper periodically hard-deletes expired stories and notes.
type Sweeper struct {
	storyRepo repositories.StoryRepository
	noteRepo  repositories.NoteRepository
	interval  time.Duration
}

// NewSweeper constructs a Sweeper.
func NewSweeper(storyRepo repositories.StoryRepository, noteRepo repositories.NoteRepository, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{storyRepo: storyRepo, noteRepo: noteRepo, interval: interval}
}

// Run sweeps on a fixed interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce deletes everything currently past its expiry.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	ctx, span := telemetry.StartSpan(ctx, "expiry.sweep")
	defer span.End()

	stories, err := s.storyRepo.DeleteExpired(ctx)
	if err != nil {
		log.Printf("expiry sweep stories failed: %v", err)
	} else if stories > 0 {
		observability.AddExpiredPurged("story", stories)
		log.Printf("expiry sweep removed %d stories", stories)
	}

	notes, err := s.noteRepo.DeleteExpired(ctx)
	if err != nil {
		log.Printf("expiry sweep notes failed: %v", err)
	} else if notes > 0 {
		observability.AddExpiredPurged("note", notes)
		log.Printf("expiry sweep removed %d notes", notes)
	}
}
