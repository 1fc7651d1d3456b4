package guard_test

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/stockforumx/reputation-engine/internal/guard"
	"github.com/stockforumx/reputation-engine/internal/model"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func upPrediction(id, userID, stockID string) model.Prediction {
	return model.Prediction{
		ID:        id,
		UserID:    userID,
		StockID:   stockID,
		Kind:      model.KindDirection,
		Direction: model.DirectionUp,
	}
}

func TestDetectPumps_FlagsAtThreshold(t *testing.T) {
	var predictions []model.Prediction
	for i := 0; i < 10; i++ {
		predictions = append(predictions, upPrediction(fmt.Sprintf("p%d", i), fmt.Sprintf("u%d", i), "s1"))
	}

	findings := guard.DetectPumps(predictions, 10)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	f := findings[0]
	if f.Type != guard.FindingPump || f.StockID != "s1" || f.Count != 10 {
		t.Errorf("unexpected finding: %+v", f)
	}
}

func TestDetectPumps_BelowThreshold(t *testing.T) {
	var predictions []model.Prediction
	for i := 0; i < 9; i++ {
		predictions = append(predictions, upPrediction(fmt.Sprintf("p%d", i), fmt.Sprintf("u%d", i), "s1"))
	}

	if findings := guard.DetectPumps(predictions, 10); len(findings) != 0 {
		t.Errorf("9 calls should not be flagged, got %v", findings)
	}
}

func TestDetectPumps_BullishPriceTargetsCount(t *testing.T) {
	var predictions []model.Prediction
	for i := 0; i < 5; i++ {
		predictions = append(predictions, upPrediction(fmt.Sprintf("up%d", i), fmt.Sprintf("u%d", i), "s1"))
	}
	for i := 0; i < 5; i++ {
		predictions = append(predictions, model.Prediction{
			ID:           fmt.Sprintf("tgt%d", i),
			UserID:       fmt.Sprintf("v%d", i),
			StockID:      "s1",
			Kind:         model.KindPrice,
			InitialPrice: d(100),
			TargetPrice:  d(120), // above entry: bullish
		})
	}
	// Bearish calls never count toward a pump.
	predictions = append(predictions, model.Prediction{
		ID: "down", UserID: "w", StockID: "s1",
		Kind: model.KindDirection, Direction: model.DirectionDown,
	})

	findings := guard.DetectPumps(predictions, 10)
	if len(findings) != 1 || findings[0].Count != 10 {
		t.Fatalf("expected one finding with 10 bullish calls, got %v", findings)
	}
}

func TestDetectPumps_SeparateStocks(t *testing.T) {
	var predictions []model.Prediction
	for i := 0; i < 6; i++ {
		predictions = append(predictions, upPrediction(fmt.Sprintf("a%d", i), fmt.Sprintf("u%d", i), "s1"))
		predictions = append(predictions, upPrediction(fmt.Sprintf("b%d", i), fmt.Sprintf("u%d", i), "s2"))
	}

	// 6 per stock, threshold 10: no single stock crosses it.
	if findings := guard.DetectPumps(predictions, 10); len(findings) != 0 {
		t.Errorf("calls split across stocks should not be flagged, got %v", findings)
	}
}

func TestDetectCopyPaste_FlagsNearCopies(t *testing.T) {
	rationale := "TSLA will hit 300 by friday, earnings strong and deliveries beat"
	predictions := []model.Prediction{
		{ID: "p1", UserID: "u1", StockID: "s1", Rationale: rationale},
		{ID: "p2", UserID: "u2", StockID: "s1", Rationale: rationale},
	}

	findings := guard.DetectCopyPaste(predictions, 0.8)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	f := findings[0]
	if f.Type != guard.FindingCopyPaste || f.Similarity < 0.8 {
		t.Errorf("unexpected finding: %+v", f)
	}
	if len(f.PredictionIDs) != 2 {
		t.Errorf("finding should name both predictions, got %v", f.PredictionIDs)
	}
}

func TestDetectCopyPaste_SameUserIgnored(t *testing.T) {
	rationale := "doubling down on my own thesis"
	predictions := []model.Prediction{
		{ID: "p1", UserID: "u1", StockID: "s1", Rationale: rationale},
		{ID: "p2", UserID: "u1", StockID: "s1", Rationale: rationale},
	}

	if findings := guard.DetectCopyPaste(predictions, 0.8); len(findings) != 0 {
		t.Errorf("a user repeating themselves is not copy-paste, got %v", findings)
	}
}

func TestDetectCopyPaste_DifferentStocksIgnored(t *testing.T) {
	rationale := "breakout above resistance, volume confirms"
	predictions := []model.Prediction{
		{ID: "p1", UserID: "u1", StockID: "s1", Rationale: rationale},
		{ID: "p2", UserID: "u2", StockID: "s2", Rationale: rationale},
	}

	if findings := guard.DetectCopyPaste(predictions, 0.8); len(findings) != 0 {
		t.Errorf("same rationale on different stocks is not flagged, got %v", findings)
	}
}

func TestDetectCopyPaste_EmptyRationalesIgnored(t *testing.T) {
	predictions := []model.Prediction{
		{ID: "p1", UserID: "u1", StockID: "s1"},
		{ID: "p2", UserID: "u2", StockID: "s1"},
	}

	if findings := guard.DetectCopyPaste(predictions, 0.8); len(findings) != 0 {
		t.Errorf("predictions without rationales should be skipped, got %v", findings)
	}
}
