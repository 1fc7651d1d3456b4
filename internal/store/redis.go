package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/stockforumx/reputation-engine/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis
// read-through cache for stock reads, the hot path, since each tick
// reads one price per due prediction. Price writes invalidate; all
// other operations pass through.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Read-through (check cache first) ---

func (s *CachedStore) GetStock(ctx context.Context, id string) (*model.Stock, error) {
	data, err := s.rdb.Get(ctx, stockKey(id)).Bytes()
	if err == nil {
		var st model.Stock
		if json.Unmarshal(data, &st) == nil {
			return &st, nil
		}
	}

	// Cache miss: read from primary.
	st, err := s.primary.GetStock(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cacheStock(ctx, st)
	return st, nil
}

// --- Write-through (write to primary, invalidate cache) ---

func (s *CachedStore) UpdateStockPrice(ctx context.Context, id string, price, prevClose, high, low decimal.Decimal) error {
	if err := s.primary.UpdateStockPrice(ctx, id, price, prevClose, high, low); err != nil {
		return err
	}
	// Invalidate; next read re-populates.
	s.rdb.Del(ctx, stockKey(id))
	return nil
}

// --- Passthrough (not cached) ---

func (s *CachedStore) FindDue(ctx context.Context, now time.Time) ([]model.Prediction, error) {
	return s.primary.FindDue(ctx, now)
}

func (s *CachedStore) FindSince(ctx context.Context, since time.Time) ([]model.Prediction, error) {
	return s.primary.FindSince(ctx, since)
}

func (s *CachedStore) MarkEvaluated(ctx context.Context, id string, result model.EvaluationResult) (bool, error) {
	return s.primary.MarkEvaluated(ctx, id, result)
}

func (s *CachedStore) ListStocks(ctx context.Context) ([]model.Stock, error) {
	return s.primary.ListStocks(ctx)
}

func (s *CachedStore) GetUserStats(ctx context.Context, userID string) (*model.UserStats, error) {
	return s.primary.GetUserStats(ctx, userID)
}

func (s *CachedStore) SetUserStats(ctx context.Context, stats *model.UserStats) error {
	return s.primary.SetUserStats(ctx, stats)
}

func (s *CachedStore) ListUserStats(ctx context.Context) ([]model.UserStats, error) {
	return s.primary.ListUserStats(ctx)
}

func (s *CachedStore) AppendSnapshots(ctx context.Context, snapshots []model.ReputationSnapshot) error {
	return s.primary.AppendSnapshots(ctx, snapshots)
}

func (s *CachedStore) LatestSnapshots(ctx context.Context, limit int) ([]model.ReputationSnapshot, error) {
	return s.primary.LatestSnapshots(ctx, limit)
}

func (s *CachedStore) InsertNotification(ctx context.Context, n *model.Notification) error {
	return s.primary.InsertNotification(ctx, n)
}

// --- Cache helpers ---

func (s *CachedStore) cacheStock(ctx context.Context, st *model.Stock) {
	if data, err := json.Marshal(st); err == nil {
		s.rdb.Set(ctx, stockKey(st.ID), data, s.ttl)
	}
}

func stockKey(id string) string { return fmt.Sprintf("stock:%s", id) }
