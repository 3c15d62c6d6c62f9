// Package sweeper removes accounts whose deletion grace period has elapsed.
package sweeper

import (
	"context"
	"log/slog"
	"time"
)

// DefaultInterval runs the sweep once a day.
const DefaultInterval = 24 * time.Hour

// Store is the persistence the sweeper needs. PurgeUser must only delete a user whose deletion
// is still scheduled and due at now, and report false when there was nothing to delete.
type Store interface {
	UsersDueForDeletion(ctx context.Context, now time.Time) ([]int, error)
	PurgeUser(ctx context.Context, id int, now time.Time) (bool, error)
}

type Sweeper struct {
	store    Store
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// Result summarises one sweep.
type Result struct {
	Candidates int
	Deleted    int
	Skipped    int
	Failed     int
}

func New(store Store, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Sweeper{
		store:    store,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Run sweeps once immediately and then on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("starting deletion sweeper", slog.Duration("interval", s.interval))

	s.Sweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-ctx.Done():
			s.logger.Info("stopping deletion sweeper")
			return
		}
	}
}

// Sweep deletes every user due at the current time. A failure on one user is logged and the
// sweep moves on to the next.
func (s *Sweeper) Sweep(ctx context.Context) Result {
	now := s.now()

	ids, err := s.store.UsersDueForDeletion(ctx, now)
	if err != nil {
		s.logger.Error("could not list users due for deletion", slog.String("error", err.Error()))
		return Result{}
	}

	res := Result{Candidates: len(ids)}

	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}

		deleted, err := s.store.PurgeUser(ctx, id, now)
		switch {
		case err != nil:
			res.Failed++
			s.logger.Error("could not delete user", slog.Int("user_id", id), slog.String("error", err.Error()))
		case deleted:
			res.Deleted++
			s.logger.Info("deleted user", slog.Int("user_id", id))
		default:
			res.Skipped++
		}
	}

	s.logger.Info("deletion sweep finished",
		slog.Int("candidates", res.Candidates),
		slog.Int("deleted", res.Deleted),
		slog.Int("skipped", res.Skipped),
		slog.Int("failed", res.Failed))

	return res
}
