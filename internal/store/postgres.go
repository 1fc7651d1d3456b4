package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/stockforumx/reputation-engine/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of
// truth. All prices are stored as NUMERIC for exact decimal precision.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const predictionColumns = `id, user_id, stock_id, kind, direction, timeframe, rationale,
       initial_price::TEXT, target_price::TEXT, target_date,
       actual_price::TEXT, is_evaluated, is_correct, precision_level, created_at`

func (s *PostgresStore) FindDue(ctx context.Context, now time.Time) ([]model.Prediction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+predictionColumns+`
		 FROM predictions
		 WHERE is_evaluated = FALSE AND target_date <= $1
		 ORDER BY target_date`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPredictions(rows)
}

func (s *PostgresStore) FindSince(ctx context.Context, since time.Time) ([]model.Prediction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+predictionColumns+`
		 FROM predictions
		 WHERE created_at >= $1
		 ORDER BY created_at`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPredictions(rows)
}

// MarkEvaluated is the conditional update that guarantees a prediction
// is evaluated at most once: the WHERE clause re-checks is_evaluated,
// and zero rows affected means a concurrent run already committed.
func (s *PostgresStore) MarkEvaluated(ctx context.Context, id string, result model.EvaluationResult) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE predictions
		 SET actual_price = $2::NUMERIC, is_correct = $3,
		     precision_level = $4, is_evaluated = TRUE
		 WHERE id = $1 AND is_evaluated = FALSE`,
		id, result.ActualPrice.String(), result.IsCorrect, result.PrecisionLevel,
	)
	if err != nil {
		return false, fmt.Errorf("mark evaluated %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) GetStock(ctx context.Context, id string) (*model.Stock, error) {
	var st model.Stock
	var cur, prev, high, low string

	err := s.pool.QueryRow(ctx,
		`SELECT id, symbol, name, sector,
		        current_price::TEXT, previous_close::TEXT,
		        high_24h::TEXT, low_24h::TEXT
		 FROM stocks WHERE id = $1`, id).
		Scan(&st.ID, &st.Symbol, &st.Name, &st.Sector,
			&cur, &prev, &high, &low)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("stock %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get stock %s: %w", id, err)
	}

	st.CurrentPrice, _ = decimal.NewFromString(cur)
	st.PreviousClose, _ = decimal.NewFromString(prev)
	st.High24h, _ = decimal.NewFromString(high)
	st.Low24h, _ = decimal.NewFromString(low)

	return &st, nil
}

func (s *PostgresStore) ListStocks(ctx context.Context) ([]model.Stock, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, symbol, name, sector,
		        current_price::TEXT, previous_close::TEXT,
		        high_24h::TEXT, low_24h::TEXT
		 FROM stocks ORDER BY symbol`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stocks []model.Stock
	for rows.Next() {
		var st model.Stock
		var cur, prev, high, low string
		if err := rows.Scan(&st.ID, &st.Symbol, &st.Name, &st.Sector,
			&cur, &prev, &high, &low); err != nil {
			return nil, err
		}
		st.CurrentPrice, _ = decimal.NewFromString(cur)
		st.PreviousClose, _ = decimal.NewFromString(prev)
		st.High24h, _ = decimal.NewFromString(high)
		st.Low24h, _ = decimal.NewFromString(low)
		stocks = append(stocks, st)
	}
	return stocks, rows.Err()
}

func (s *PostgresStore) UpdateStockPrice(ctx context.Context, id string, price, prevClose, high, low decimal.Decimal) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE stocks
		 SET current_price = $2::NUMERIC, previous_close = $3::NUMERIC,
		     high_24h = $4::NUMERIC, low_24h = $5::NUMERIC
		 WHERE id = $1`,
		id, price.String(), prevClose.String(), high.String(), low.String(),
	)
	if err != nil {
		return fmt.Errorf("update stock %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update stock %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) GetUserStats(ctx context.Context, userID string) (*model.UserStats, error) {
	var u model.UserStats

	err := s.pool.QueryRow(ctx,
		`SELECT id, username, total_predictions, accurate_predictions, reputation
		 FROM users WHERE id = $1`, userID).
		Scan(&u.UserID, &u.Username, &u.TotalPredictions, &u.AccuratePredictions, &u.Reputation)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user stats %s: %w", userID, err)
	}
	return &u, nil
}

func (s *PostgresStore) SetUserStats(ctx context.Context, stats *model.UserStats) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users
		 SET total_predictions = $2, accurate_predictions = $3, reputation = $4
		 WHERE id = $1`,
		stats.UserID, stats.TotalPredictions, stats.AccuratePredictions, stats.Reputation,
	)
	if err != nil {
		return fmt.Errorf("set user stats %s: %w", stats.UserID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set user stats %s: %w", stats.UserID, ErrNotFound)
	}
	return nil
}

// ListUserStats orders by signup time so that snapshot ranking ties
// keep a consistent relative order across runs.
func (s *PostgresStore) ListUserStats(ctx context.Context) ([]model.UserStats, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, username, total_predictions, accurate_predictions, reputation
		 FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.UserStats
	for rows.Next() {
		var u model.UserStats
		if err := rows.Scan(&u.UserID, &u.Username, &u.TotalPredictions,
			&u.AccuratePredictions, &u.Reputation); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *PostgresStore) AppendSnapshots(ctx context.Context, snapshots []model.ReputationSnapshot) error {
	batch := &pgx.Batch{}
	for _, snap := range snapshots {
		batch.Queue(
			`INSERT INTO reputation_snapshots
			 (id, user_id, reputation, rank, total_predictions, accurate_predictions, accuracy, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			snap.ID, snap.UserID, snap.Reputation, snap.Rank,
			snap.TotalPredictions, snap.AccuratePredictions, snap.Accuracy, snap.CreatedAt,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range snapshots {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("append snapshots: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) LatestSnapshots(ctx context.Context, limit int) ([]model.ReputationSnapshot, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, reputation, rank,
		        total_predictions, accurate_predictions, accuracy, created_at
		 FROM reputation_snapshots
		 WHERE created_at = (SELECT MAX(created_at) FROM reputation_snapshots)
		 ORDER BY rank
		 LIMIT NULLIF($1, 0)`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []model.ReputationSnapshot
	for rows.Next() {
		var snap model.ReputationSnapshot
		if err := rows.Scan(&snap.ID, &snap.UserID, &snap.Reputation, &snap.Rank,
			&snap.TotalPredictions, &snap.AccuratePredictions, &snap.Accuracy, &snap.CreatedAt); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}

func (s *PostgresStore) InsertNotification(ctx context.Context, n *model.Notification) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO notifications (id, user_id, type, message, link, read, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		n.ID, n.UserID, n.Type, n.Message, n.Link, n.Read, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func scanPredictions(rows pgx.Rows) ([]model.Prediction, error) {
	var predictions []model.Prediction
	for rows.Next() {
		var p model.Prediction
		var initialS, targetS, actualS string

		if err := rows.Scan(&p.ID, &p.UserID, &p.StockID, &p.Kind, &p.Direction,
			&p.Timeframe, &p.Rationale,
			&initialS, &targetS, &p.TargetDate,
			&actualS, &p.IsEvaluated, &p.IsCorrect, &p.PrecisionLevel,
			&p.CreatedAt); err != nil {
			return nil, err
		}

		p.InitialPrice, _ = decimal.NewFromString(initialS)
		p.TargetPrice, _ = decimal.NewFromString(targetS)
		p.ActualPrice, _ = decimal.NewFromString(actualS)

		predictions = append(predictions, p)
	}
	return predictions, rows.Err()
}
