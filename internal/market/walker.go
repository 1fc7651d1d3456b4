// Package market provides the simulated price walk. It is a
// policy-free stand-in for real market data: every tick each stock
// moves by a uniform ±2%, and the evaluation engine scores predictions
// against whatever price results. Nothing in the engine depends on how
// these prices move.
package market

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockforumx/reputation-engine/internal/model"
	"github.com/stockforumx/reputation-engine/internal/notify"
	"github.com/stockforumx/reputation-engine/internal/store"
)

// maxStepPct is the largest single-tick move in either direction.
const maxStepPct = 2.0

// Walker applies one random step per stock per tick and broadcasts the
// updated quotes.
type Walker struct {
	store      store.Store
	dispatcher *notify.Dispatcher
}

// NewWalker creates a price walker.
func NewWalker(st store.Store, dispatcher *notify.Dispatcher) *Walker {
	return &Walker{store: st, dispatcher: dispatcher}
}

// Run advances every stock by one random step. Per-stock write failures
// are logged and the rest of the batch continues.
func (w *Walker) Run(ctx context.Context, _ time.Time) error {
	stocks, err := w.store.ListStocks(ctx)
	if err != nil {
		return fmt.Errorf("list stocks: %w", err)
	}

	for i := range stocks {
		st := &stocks[i]
		changePct := rand.Float64()*2*maxStepPct - maxStepPct
		price, prevClose, high, low := Step(st, changePct)

		if err := w.store.UpdateStockPrice(ctx, st.ID, price, prevClose, high, low); err != nil {
			slog.Warn("price update failed", "stock", st.ID, "symbol", st.Symbol, "err", err)
			continue
		}

		st.CurrentPrice = price
		st.PreviousClose = prevClose
		st.High24h = high
		st.Low24h = low
		w.dispatcher.StockUpdated(st)
	}

	slog.Info("stock prices updated", "count", len(stocks))
	return nil
}

// Step computes one price move of changePct percent. The previous close
// rolls to the pre-move price and the 24h band widens to include the
// new price. Prices are quoted to two decimal places.
func Step(st *model.Stock, changePct float64) (price, prevClose, high, low decimal.Decimal) {
	factor := decimal.NewFromFloat(1 + changePct/100)
	price = st.CurrentPrice.Mul(factor).Round(2)
	prevClose = st.CurrentPrice

	high = st.High24h
	if price.GreaterThan(high) {
		high = price
	}
	low = st.Low24h
	if price.LessThan(low) {
		low = price
	}
	return price, prevClose, high, low
}
