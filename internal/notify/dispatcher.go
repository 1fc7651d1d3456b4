package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockforumx/reputation-engine/internal/model"
	"github.com/stockforumx/reputation-engine/internal/store"
)

// PredictionResult is the payload of a prediction_result event,
// delivered on the owning user's channel. TargetPrice is null for
// direction-kind predictions.
type PredictionResult struct {
	PredictionID   string           `json:"predictionId"`
	IsCorrect      bool             `json:"isCorrect"`
	PrecisionLevel string           `json:"precisionLevel,omitempty"`
	Symbol         string           `json:"symbol"`
	ActualPrice    decimal.Decimal  `json:"actualPrice"`
	TargetPrice    *decimal.Decimal `json:"targetPrice"`
}

// ReputationUpdate is broadcast after a user's reputation changes.
type ReputationUpdate struct {
	UserID     string  `json:"userId"`
	Reputation float64 `json:"reputation"`
}

// Dispatcher translates evaluation outcomes into real-time events and
// persisted notification records. Both channels are best-effort: a
// failure on either is logged and never propagated into the tick.
type Dispatcher struct {
	store store.Store
	ch    Channel
}

// NewDispatcher creates a dispatcher. Pass nil for ch to disable
// real-time delivery (tests, or running without a socket layer).
func NewDispatcher(st store.Store, ch Channel) *Dispatcher {
	return &Dispatcher{store: st, ch: ch}
}

// PredictionEvaluated emits the outcome event to the owning user and
// persists a notification record for the serving collaborator.
func (d *Dispatcher) PredictionEvaluated(ctx context.Context, p *model.Prediction, symbol string) {
	result := PredictionResult{
		PredictionID:   p.ID,
		IsCorrect:      p.IsCorrect,
		PrecisionLevel: p.PrecisionLevel,
		Symbol:         symbol,
		ActualPrice:    p.ActualPrice,
	}
	if p.Kind == model.KindPrice {
		target := p.TargetPrice
		result.TargetPrice = &target
	}

	if d.ch != nil {
		d.ch.EmitToUser(p.UserID, EventPredictionResult, result)
	}

	n := &model.Notification{
		ID:        uuid.New().String(),
		UserID:    p.UserID,
		Type:      EventPredictionResult,
		Message:   outcomeMessage(p, symbol),
		Link:      "/predictions/" + p.ID,
		CreatedAt: time.Now().UTC(),
	}
	if err := d.store.InsertNotification(ctx, n); err != nil {
		slog.Warn("notification persist failed", "prediction", p.ID, "user", p.UserID, "err", err)
	}
}

// ReputationChanged broadcasts the user's new reputation to the global
// updates channel.
func (d *Dispatcher) ReputationChanged(userID string, reputation float64) {
	if d.ch == nil {
		return
	}
	d.ch.Broadcast(EventReputationUpdate, ReputationUpdate{
		UserID:     userID,
		Reputation: reputation,
	})
}

// StockUpdated broadcasts a price move to the global updates channel.
func (d *Dispatcher) StockUpdated(st *model.Stock) {
	if d.ch == nil {
		return
	}
	d.ch.Broadcast(EventStockUpdate, st)
}

// outcomeMessage builds the human-readable notification text. The type
// and precision level travel separately so the serving collaborator can
// pick icons without parsing this string.
func outcomeMessage(p *model.Prediction, symbol string) string {
	verdict := "missed"
	if p.IsCorrect {
		verdict = "was correct"
	}

	switch p.Kind {
	case model.KindPrice:
		return fmt.Sprintf("Your price prediction on %s %s: target %s, actual %s",
			symbol, verdict, p.TargetPrice.String(), p.ActualPrice.String())
	case model.KindDirection:
		return fmt.Sprintf("Your %q prediction on %s %s: price moved from %s to %s",
			p.Direction, symbol, verdict, p.InitialPrice.String(), p.ActualPrice.String())
	default:
		return fmt.Sprintf("Your prediction on %s %s", symbol, verdict)
	}
}
