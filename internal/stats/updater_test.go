package stats_test

import (
	"context"
	"testing"

	"github.com/stockforumx/reputation-engine/internal/model"
	"github.com/stockforumx/reputation-engine/internal/stats"
	"github.com/stockforumx/reputation-engine/internal/store"
)

func TestApply_Correct(t *testing.T) {
	ms := store.NewMemoryStore()
	ms.SeedUser(&model.UserStats{UserID: "u1", TotalPredictions: 9, AccuratePredictions: 7})

	updated, err := stats.NewUpdater(ms).Apply(context.Background(), "u1", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.TotalPredictions != 10 || updated.AccuratePredictions != 8 {
		t.Errorf("counters = (%d, %d), want (10, 8)", updated.TotalPredictions, updated.AccuratePredictions)
	}
	// 8/10 accurate: 0.8 * ln(11) * 100 → 191.8
	if updated.Reputation != 191.8 {
		t.Errorf("reputation = %v, want 191.8", updated.Reputation)
	}

	persisted, _ := ms.GetUserStats(context.Background(), "u1")
	if persisted.Reputation != updated.Reputation {
		t.Error("reputation not persisted")
	}
}

func TestApply_Incorrect(t *testing.T) {
	ms := store.NewMemoryStore()
	ms.SeedUser(&model.UserStats{UserID: "u1", TotalPredictions: 4, AccuratePredictions: 2})

	updated, err := stats.NewUpdater(ms).Apply(context.Background(), "u1", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.TotalPredictions != 5 || updated.AccuratePredictions != 2 {
		t.Errorf("counters = (%d, %d), want (5, 2)", updated.TotalPredictions, updated.AccuratePredictions)
	}
}

func TestApply_MissingUserSkipped(t *testing.T) {
	ms := store.NewMemoryStore()

	updated, err := stats.NewUpdater(ms).Apply(context.Background(), "gone", true)
	if err != nil {
		t.Fatalf("missing user must not be an error, got %v", err)
	}
	if updated != nil {
		t.Errorf("expected nil stats for missing user, got %+v", updated)
	}
}

func TestApply_InvariantAccurateLEQTotal(t *testing.T) {
	ms := store.NewMemoryStore()
	ms.SeedUser(&model.UserStats{UserID: "u1"})
	updater := stats.NewUpdater(ms)

	for i := 0; i < 20; i++ {
		updated, err := updater.Apply(context.Background(), "u1", i%3 == 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if updated.AccuratePredictions > updated.TotalPredictions {
			t.Fatalf("invariant violated: accurate %d > total %d",
				updated.AccuratePredictions, updated.TotalPredictions)
		}
	}
}
