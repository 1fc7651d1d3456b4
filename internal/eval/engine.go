// Package eval implements the prediction evaluation engine: the
// scheduled pass that resolves due predictions against observed prices,
// drives the per-user statistics update, and hands outcomes to the
// notification dispatcher.
package eval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockforumx/reputation-engine/internal/metrics"
	"github.com/stockforumx/reputation-engine/internal/model"
	"github.com/stockforumx/reputation-engine/internal/notify"
	"github.com/stockforumx/reputation-engine/internal/stats"
	"github.com/stockforumx/reputation-engine/internal/store"
)

// ErrMalformed marks a prediction that violates upstream data
// integrity (e.g. price kind without a target price). Such predictions
// are skipped with an error log, never crash the tick.
var ErrMalformed = errors.New("eval: malformed prediction")

var (
	// marginRatio is the correctness band for price predictions: the
	// actual price must land within 5% of the target.
	marginRatio = decimal.NewFromFloat(0.05)

	// tightRatio is the "direct" precision band: within 1% of target.
	// Strictly inside the correctness band, so direct implies correct.
	tightRatio = decimal.NewFromFloat(0.01)
)

// Engine scans due predictions and evaluates them. Dependencies are
// injected so ticks can be tested against fake stores and channels.
type Engine struct {
	store      store.Store
	updater    *stats.Updater
	dispatcher *notify.Dispatcher
}

// NewEngine creates an evaluation engine.
func NewEngine(st store.Store, updater *stats.Updater, dispatcher *notify.Dispatcher) *Engine {
	return &Engine{
		store:      st,
		updater:    updater,
		dispatcher: dispatcher,
	}
}

// Run executes one evaluation pass over every prediction due at the
// given instant. Per-prediction failures (missing stock, malformed
// data) are logged and skipped; a store-level failure aborts the rest
// of the batch; the next scheduled tick retries naturally.
func (e *Engine) Run(ctx context.Context, now time.Time) error {
	due, err := e.store.FindDue(ctx, now)
	if err != nil {
		return fmt.Errorf("find due predictions: %w", err)
	}
	if len(due) == 0 {
		slog.Debug("no predictions due")
		return nil
	}

	slog.Info("evaluating due predictions", "count", len(due))

	for i := range due {
		p := &due[i]
		err := e.evaluateOne(ctx, p)
		switch {
		case err == nil:
		case errors.Is(err, store.ErrNotFound):
			// Left unevaluated; re-selected next tick.
			slog.Warn("skipping prediction with missing reference", "prediction", p.ID, "err", err)
			metrics.PredictionsSkipped.WithLabelValues("missing_reference").Inc()
		case errors.Is(err, ErrMalformed):
			slog.Error("skipping malformed prediction", "prediction", p.ID, "err", err)
			metrics.PredictionsSkipped.WithLabelValues("malformed").Inc()
		default:
			// Transient store failure: stop here, next tick retries.
			return fmt.Errorf("evaluate prediction %s: %w", p.ID, err)
		}
	}
	return nil
}

// evaluateOne resolves a single prediction. The MarkEvaluated
// conditional write is the commit point: if a concurrent pass already
// committed, the local result is discarded and no stats or
// notifications fire.
func (e *Engine) evaluateOne(ctx context.Context, p *model.Prediction) error {
	stock, err := e.store.GetStock(ctx, p.StockID)
	if err != nil {
		return err
	}

	result, err := scorePrediction(p, stock.CurrentPrice)
	if err != nil {
		return err
	}

	committed, err := e.store.MarkEvaluated(ctx, p.ID, result)
	if err != nil {
		return err
	}
	if !committed {
		slog.Debug("prediction already evaluated by concurrent run", "prediction", p.ID)
		return nil
	}

	p.ActualPrice = result.ActualPrice
	p.IsCorrect = result.IsCorrect
	p.PrecisionLevel = result.PrecisionLevel
	p.IsEvaluated = true

	metrics.PredictionsEvaluated.WithLabelValues(p.Kind, outcomeLabel(p.IsCorrect)).Inc()
	slog.Info("prediction evaluated",
		"prediction", p.ID,
		"user", p.UserID,
		"symbol", stock.Symbol,
		"kind", p.Kind,
		"correct", p.IsCorrect,
		"actual", p.ActualPrice.String(),
	)

	newStats, err := e.updater.Apply(ctx, p.UserID, p.IsCorrect)
	if err != nil {
		return err
	}
	if newStats == nil {
		// Owner deleted their account; outcome is committed, nobody to tell.
		return nil
	}

	e.dispatcher.PredictionEvaluated(ctx, p, stock.Symbol)
	e.dispatcher.ReputationChanged(newStats.UserID, newStats.Reputation)
	return nil
}

// scorePrediction applies the correctness rule for the prediction's
// kind against the observed price.
func scorePrediction(p *model.Prediction, actual decimal.Decimal) (model.EvaluationResult, error) {
	result := model.EvaluationResult{ActualPrice: actual}

	switch p.Kind {
	case model.KindPrice:
		if !p.TargetPrice.IsPositive() {
			return result, fmt.Errorf("%w: price prediction %s has no target price", ErrMalformed, p.ID)
		}
		diff := actual.Sub(p.TargetPrice).Abs()
		margin := p.TargetPrice.Mul(marginRatio)
		tight := p.TargetPrice.Mul(tightRatio)

		result.IsCorrect = diff.LessThanOrEqual(margin)
		// Recorded unconditionally for inspectability; "direct" can only
		// coincide with a correct outcome since tight < margin.
		if diff.LessThanOrEqual(tight) {
			result.PrecisionLevel = model.PrecisionDirect
		} else {
			result.PrecisionLevel = model.PrecisionNormal
		}

	case model.KindDirection:
		change := actual.Sub(p.InitialPrice)
		switch p.Direction {
		case model.DirectionUp:
			result.IsCorrect = change.IsPositive()
		case model.DirectionDown:
			result.IsCorrect = change.IsNegative()
		default:
			return result, fmt.Errorf("%w: direction prediction %s has direction %q", ErrMalformed, p.ID, p.Direction)
		}
		// An unchanged price is incorrect for both directions.

	default:
		return result, fmt.Errorf("%w: prediction %s has kind %q", ErrMalformed, p.ID, p.Kind)
	}

	return result, nil
}

func outcomeLabel(correct bool) string {
	if correct {
		return "correct"
	}
	return "incorrect"
}
