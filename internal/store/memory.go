package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockforumx/reputation-engine/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu            sync.RWMutex
	predictions   map[string]*model.Prediction
	predictionIDs []string // insertion order
	stocks        map[string]*model.Stock
	users         map[string]*model.UserStats
	userIDs       []string // insertion order; snapshot tie order
	snapshots     []model.ReputationSnapshot
	notifications []model.Notification
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		predictions: make(map[string]*model.Prediction),
		stocks:      make(map[string]*model.Stock),
		users:       make(map[string]*model.UserStats),
	}
}

// --- Seeding (creation is owned by external collaborators in
// production; tests and the dev server seed directly) ---

// SeedPrediction inserts a prediction record.
func (s *MemoryStore) SeedPrediction(p *model.Prediction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *p
	s.predictions[p.ID] = &copy
	s.predictionIDs = append(s.predictionIDs, p.ID)
}

// SeedStock inserts a stock record.
func (s *MemoryStore) SeedStock(st *model.Stock) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *st
	s.stocks[st.ID] = &copy
}

// SeedUser inserts a user stats record.
func (s *MemoryStore) SeedUser(u *model.UserStats) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *u
	s.users[u.UserID] = &copy
	s.userIDs = append(s.userIDs, u.UserID)
}

// DeleteUser removes a user, simulating a deleted account.
func (s *MemoryStore) DeleteUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.users, userID)
	for i, id := range s.userIDs {
		if id == userID {
			s.userIDs = append(s.userIDs[:i], s.userIDs[i+1:]...)
			break
		}
	}
}

// GetPrediction returns a copy of a stored prediction. Test accessor.
func (s *MemoryStore) GetPrediction(id string) (*model.Prediction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.predictions[id]
	if !ok {
		return nil, false
	}
	copy := *p
	return &copy, true
}

// Notifications returns all persisted notifications. Test accessor.
func (s *MemoryStore) Notifications() []model.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// --- Prediction operations ---

func (s *MemoryStore) FindDue(_ context.Context, now time.Time) ([]model.Prediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var due []model.Prediction
	for _, id := range s.predictionIDs {
		p := s.predictions[id]
		if !p.IsEvaluated && !p.TargetDate.After(now) {
			due = append(due, *p)
		}
	}
	return due, nil
}

func (s *MemoryStore) FindSince(_ context.Context, since time.Time) ([]model.Prediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Prediction
	for _, id := range s.predictionIDs {
		p := s.predictions[id]
		if !p.CreatedAt.Before(since) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *MemoryStore) MarkEvaluated(_ context.Context, id string, result model.EvaluationResult) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.predictions[id]
	if !ok {
		return false, fmt.Errorf("mark evaluated %s: %w", id, ErrNotFound)
	}
	if p.IsEvaluated {
		return false, nil
	}
	p.ActualPrice = result.ActualPrice
	p.IsCorrect = result.IsCorrect
	p.PrecisionLevel = result.PrecisionLevel
	p.IsEvaluated = true
	return true, nil
}

// --- Stock operations ---

func (s *MemoryStore) GetStock(_ context.Context, id string) (*model.Stock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.stocks[id]
	if !ok {
		return nil, fmt.Errorf("stock %s: %w", id, ErrNotFound)
	}
	copy := *st
	return &copy, nil
}

func (s *MemoryStore) ListStocks(_ context.Context) ([]model.Stock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stocks := make([]model.Stock, 0, len(s.stocks))
	for _, st := range s.stocks {
		stocks = append(stocks, *st)
	}
	sort.Slice(stocks, func(i, j int) bool { return stocks[i].Symbol < stocks[j].Symbol })
	return stocks, nil
}

func (s *MemoryStore) UpdateStockPrice(_ context.Context, id string, price, prevClose, high, low decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.stocks[id]
	if !ok {
		return fmt.Errorf("update stock %s: %w", id, ErrNotFound)
	}
	st.CurrentPrice = price
	st.PreviousClose = prevClose
	st.High24h = high
	st.Low24h = low
	return nil
}

// --- User statistics ---

func (s *MemoryStore) GetUserStats(_ context.Context, userID string) (*model.UserStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	copy := *u
	return &copy, nil
}

func (s *MemoryStore) SetUserStats(_ context.Context, stats *model.UserStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[stats.UserID]
	if !ok {
		return fmt.Errorf("user %s: %w", stats.UserID, ErrNotFound)
	}
	u.TotalPredictions = stats.TotalPredictions
	u.AccuratePredictions = stats.AccuratePredictions
	u.Reputation = stats.Reputation
	return nil
}

func (s *MemoryStore) ListUserStats(_ context.Context) ([]model.UserStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]model.UserStats, 0, len(s.userIDs))
	for _, id := range s.userIDs {
		users = append(users, *s.users[id])
	}
	return users, nil
}

// --- Reputation snapshots ---

func (s *MemoryStore) AppendSnapshots(_ context.Context, snapshots []model.ReputationSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots = append(s.snapshots, snapshots...)
	return nil
}

func (s *MemoryStore) LatestSnapshots(_ context.Context, limit int) ([]model.ReputationSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.snapshots) == 0 {
		return nil, nil
	}

	// Latest batch = all rows sharing the newest CreatedAt.
	newest := s.snapshots[0].CreatedAt
	for _, snap := range s.snapshots {
		if snap.CreatedAt.After(newest) {
			newest = snap.CreatedAt
		}
	}

	var latest []model.ReputationSnapshot
	for _, snap := range s.snapshots {
		if snap.CreatedAt.Equal(newest) {
			latest = append(latest, snap)
		}
	}
	sort.Slice(latest, func(i, j int) bool { return latest[i].Rank < latest[j].Rank })

	if limit > 0 && len(latest) > limit {
		latest = latest[:limit]
	}
	return latest, nil
}

// --- Notifications ---

func (s *MemoryStore) InsertNotification(_ context.Context, n *model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications = append(s.notifications, *n)
	return nil
}
