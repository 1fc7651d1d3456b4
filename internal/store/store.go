// Package store defines the persistence interface for the reputation
// engine. Implementations include PostgreSQL (source of truth), Redis
// (read-through cache for hot stock reads), and in-memory (for testing).
package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockforumx/reputation-engine/internal/model"
)

// ErrNotFound is returned when a referenced record does not exist.
// Callers in the evaluation path treat it as skip-with-log, never as a
// batch abort.
var ErrNotFound = errors.New("store: not found")

// Store is the persistence interface. PostgreSQL is the source of
// truth; Redis provides a read-through cache for stock reads.
type Store interface {
	// --- Prediction operations ---

	// FindDue returns predictions with isEvaluated=false whose target
	// date has passed.
	FindDue(ctx context.Context, now time.Time) ([]model.Prediction, error)

	// FindSince returns predictions created at or after the given time,
	// evaluated or not. Used by the manipulation scan.
	FindSince(ctx context.Context, since time.Time) ([]model.Prediction, error)

	// MarkEvaluated writes the evaluation outcome if and only if the
	// prediction is still unevaluated. Returns false when a concurrent
	// run already committed a result; that is not an error.
	MarkEvaluated(ctx context.Context, id string, result model.EvaluationResult) (bool, error)

	// --- Stock operations ---

	// GetStock retrieves a stock by its ID.
	GetStock(ctx context.Context, id string) (*model.Stock, error)

	// ListStocks returns all stocks.
	ListStocks(ctx context.Context) ([]model.Stock, error)

	// UpdateStockPrice writes a new price observation, rolling the
	// previous close and widening the 24h band.
	UpdateStockPrice(ctx context.Context, id string, price, prevClose, high, low decimal.Decimal) error

	// --- User statistics ---

	// GetUserStats retrieves one user's counters and reputation.
	GetUserStats(ctx context.Context, userID string) (*model.UserStats, error)

	// SetUserStats persists counters and the derived reputation.
	SetUserStats(ctx context.Context, stats *model.UserStats) error

	// ListUserStats returns all users' stats in a stable order, so that
	// snapshot ranking ties keep a consistent relative order.
	ListUserStats(ctx context.Context) ([]model.UserStats, error)

	// --- Reputation snapshots (append-only) ---

	// AppendSnapshots inserts one immutable snapshot row per user.
	AppendSnapshots(ctx context.Context, snapshots []model.ReputationSnapshot) error

	// LatestSnapshots returns the most recent snapshot batch ordered by
	// rank, limited to the given count.
	LatestSnapshots(ctx context.Context, limit int) ([]model.ReputationSnapshot, error)

	// --- Notifications ---

	// InsertNotification persists an outcome notification record.
	InsertNotification(ctx context.Context, n *model.Notification) error
}
