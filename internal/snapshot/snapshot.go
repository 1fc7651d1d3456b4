// Package snapshot captures the daily leaderboard: one immutable
// reputation record per user, ranked by reputation.
package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/stockforumx/reputation-engine/internal/metrics"
	"github.com/stockforumx/reputation-engine/internal/model"
	"github.com/stockforumx/reputation-engine/internal/reputation"
	"github.com/stockforumx/reputation-engine/internal/store"
)

// Snapshotter appends one ranked reputation snapshot per user.
type Snapshotter struct {
	store store.Store
}

// NewSnapshotter creates a snapshotter backed by the given store.
func NewSnapshotter(st store.Store) *Snapshotter {
	return &Snapshotter{store: st}
}

// Run captures one snapshot batch at the given instant. Ranks are
// 1-based on reputation descending; the sort is stable, so users tied
// on reputation keep the store's iteration order. Every row in a batch
// shares the same CreatedAt so the batch can be read back as a unit.
func (s *Snapshotter) Run(ctx context.Context, now time.Time) error {
	users, err := s.store.ListUserStats(ctx)
	if err != nil {
		return fmt.Errorf("list user stats: %w", err)
	}
	if len(users) == 0 {
		slog.Info("no users to snapshot")
		return nil
	}

	sort.SliceStable(users, func(i, j int) bool {
		return users[i].Reputation > users[j].Reputation
	})

	snapshots := make([]model.ReputationSnapshot, len(users))
	for i, u := range users {
		snapshots[i] = model.ReputationSnapshot{
			ID:                  uuid.New().String(),
			UserID:              u.UserID,
			Reputation:          u.Reputation,
			Rank:                i + 1,
			TotalPredictions:    u.TotalPredictions,
			AccuratePredictions: u.AccuratePredictions,
			Accuracy:            reputation.Accuracy(u.AccuratePredictions, u.TotalPredictions),
			CreatedAt:           now,
		}
	}

	if err := s.store.AppendSnapshots(ctx, snapshots); err != nil {
		return fmt.Errorf("append snapshots: %w", err)
	}

	metrics.SnapshotsWritten.Add(float64(len(snapshots)))
	slog.Info("reputation snapshots created", "count", len(snapshots))
	return nil
}
