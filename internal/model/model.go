// Package model defines the core domain types shared across the
// reputation engine. All prices use shopspring/decimal, never float64
// for money. Reputation scores are display values, not money.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Prediction kinds.
const (
	KindPrice     = "price"
	KindDirection = "direction"
)

// Directions for direction-kind predictions.
const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// Precision levels for price-kind predictions.
const (
	PrecisionDirect = "direct" // within 1% of target
	PrecisionNormal = "normal" // within 5% but outside 1%
)

// Timeframe labels carried on predictions. Informational only; the
// evaluation engine keys off TargetDate.
const (
	TimeframeHour  = "1h"
	TimeframeDay   = "1d"
	TimeframeWeek  = "1w"
	TimeframeMonth = "1m"
)

// Prediction is a user's forecast about one stock. It is created by the
// forum collaborator and mutated exactly once, by the evaluation engine,
// when TargetDate has passed. Once IsEvaluated is true the record is
// immutable.
type Prediction struct {
	ID             string          `json:"id" db:"id"`
	UserID         string          `json:"user_id" db:"user_id"`
	StockID        string          `json:"stock_id" db:"stock_id"`
	Kind           string          `json:"kind" db:"kind"` // "price" or "direction"
	Direction      string          `json:"direction,omitempty" db:"direction"`
	Timeframe      string          `json:"timeframe,omitempty" db:"timeframe"`
	Rationale      string          `json:"rationale,omitempty" db:"rationale"`
	InitialPrice   decimal.Decimal `json:"initial_price" db:"initial_price"` // price at creation, immutable
	TargetPrice    decimal.Decimal `json:"target_price" db:"target_price"`   // price kind only
	TargetDate     time.Time       `json:"target_date" db:"target_date"`
	ActualPrice    decimal.Decimal `json:"actual_price" db:"actual_price"` // filled at evaluation
	IsEvaluated    bool            `json:"is_evaluated" db:"is_evaluated"`
	IsCorrect      bool            `json:"is_correct" db:"is_correct"`
	PrecisionLevel string          `json:"precision_level,omitempty" db:"precision_level"` // price kind only
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// EvaluationResult is the outcome written back to a prediction at its
// single evaluation commit point.
type EvaluationResult struct {
	ActualPrice    decimal.Decimal `json:"actual_price"`
	IsCorrect      bool            `json:"is_correct"`
	PrecisionLevel string          `json:"precision_level,omitempty"`
}

// Stock is the priced instrument a prediction references. The engine
// reads CurrentPrice; the simulated price walk is the only writer.
type Stock struct {
	ID            string          `json:"id" db:"id"`
	Symbol        string          `json:"symbol" db:"symbol"`
	Name          string          `json:"name" db:"name"`
	Sector        string          `json:"sector,omitempty" db:"sector"`
	CurrentPrice  decimal.Decimal `json:"current_price" db:"current_price"`
	PreviousClose decimal.Decimal `json:"previous_close" db:"previous_close"`
	High24h       decimal.Decimal `json:"high_24h" db:"high_24h"`
	Low24h        decimal.Decimal `json:"low_24h" db:"low_24h"`
}

// UserStats is the slice of the user entity this core owns: two
// monotonic counters and the reputation derived from them. Reputation
// is never mutated independently of the counters.
type UserStats struct {
	UserID              string  `json:"user_id" db:"user_id"`
	Username            string  `json:"username" db:"username"`
	TotalPredictions    int     `json:"total_predictions" db:"total_predictions"`
	AccuratePredictions int     `json:"accurate_predictions" db:"accurate_predictions"`
	Reputation          float64 `json:"reputation" db:"reputation"`
}

// ReputationSnapshot is an immutable, append-only leaderboard record
// captured by the daily snapshot job. Never updated or deleted.
type ReputationSnapshot struct {
	ID                  string    `json:"id" db:"id"`
	UserID              string    `json:"user_id" db:"user_id"`
	Reputation          float64   `json:"reputation" db:"reputation"`
	Rank                int       `json:"rank" db:"rank"` // 1-based, reputation descending
	TotalPredictions    int       `json:"total_predictions" db:"total_predictions"`
	AccuratePredictions int       `json:"accurate_predictions" db:"accurate_predictions"`
	Accuracy            float64   `json:"accuracy" db:"accuracy"` // percent, 0 when no predictions
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
}

// Notification is the persisted record of an evaluation outcome. This
// core only creates them; the read/delete lifecycle belongs to the
// collaborator that serves notifications to users.
type Notification struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Type      string    `json:"type" db:"type"`
	Message   string    `json:"message" db:"message"`
	Link      string    `json:"link" db:"link"`
	Read      bool      `json:"read" db:"read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
