// Package stats applies evaluation outcomes to per-user counters and
// keeps the derived reputation in sync with them.
package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stockforumx/reputation-engine/internal/model"
	"github.com/stockforumx/reputation-engine/internal/reputation"
	"github.com/stockforumx/reputation-engine/internal/store"
)

// Updater is the atomic-per-user unit behind each evaluation: read
// stats, apply counter deltas, recompute reputation, persist.
type Updater struct {
	store store.Store
}

// NewUpdater creates an updater backed by the given store.
func NewUpdater(st store.Store) *Updater {
	return &Updater{store: st}
}

// Apply records one evaluated prediction for a user: increments the
// total counter, increments the accurate counter when correct, and
// recomputes reputation from the new counters.
//
// A missing user (deleted account) is skipped with a warning and
// returns (nil, nil); it must never fail the evaluation batch.
func (u *Updater) Apply(ctx context.Context, userID string, correct bool) (*model.UserStats, error) {
	stats, err := u.store.GetUserStats(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		slog.Warn("skipping stats update for missing user", "user", userID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read stats for user %s: %w", userID, err)
	}

	stats.TotalPredictions++
	if correct {
		stats.AccuratePredictions++
	}
	stats.Reputation = reputation.Score(stats.AccuratePredictions, stats.TotalPredictions)

	if err := u.store.SetUserStats(ctx, stats); err != nil {
		return nil, fmt.Errorf("persist stats for user %s: %w", userID, err)
	}

	slog.Debug("user stats updated",
		"user", userID,
		"total", stats.TotalPredictions,
		"accurate", stats.AccuratePredictions,
		"reputation", stats.Reputation,
	)
	return stats, nil
}
