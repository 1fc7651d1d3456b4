// Package guard implements the hourly manipulation scan over recent
// predictions: coordinated pumping (many bullish calls piling onto one
// stock) and copy-pasted rationales. Detection only: it flags, logs,
// and counts; enforcement at creation time belongs to the forum
// collaborator.
package guard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stockforumx/reputation-engine/internal/metrics"
	"github.com/stockforumx/reputation-engine/internal/model"
	"github.com/stockforumx/reputation-engine/internal/similarity"
	"github.com/stockforumx/reputation-engine/internal/store"
)

// Default thresholds.
const (
	// DefaultPumpThreshold is how many bullish calls on one stock
	// within the window look like coordinated pumping.
	DefaultPumpThreshold = 10

	// DefaultSimilarityThreshold is the cosine similarity above which
	// two rationales count as copy-paste.
	DefaultSimilarityThreshold = 0.8

	// DefaultWindow is how far back each scan looks.
	DefaultWindow = time.Hour
)

// Finding types.
const (
	FindingPump      = "pump"
	FindingCopyPaste = "copy_paste"
)

// Finding is one flagged pattern.
type Finding struct {
	Type          string   `json:"type"`
	StockID       string   `json:"stock_id"`
	Count         int      `json:"count,omitempty"`      // pump: bullish calls in window
	Similarity    float64  `json:"similarity,omitempty"` // copy_paste: cosine score
	PredictionIDs []string `json:"prediction_ids"`
}

// Scanner runs the periodic manipulation scan.
type Scanner struct {
	store               store.Store
	PumpThreshold       int
	SimilarityThreshold float64
	Window              time.Duration
}

// NewScanner creates a scanner with the default thresholds.
func NewScanner(st store.Store) *Scanner {
	return &Scanner{
		store:               st,
		PumpThreshold:       DefaultPumpThreshold,
		SimilarityThreshold: DefaultSimilarityThreshold,
		Window:              DefaultWindow,
	}
}

// Run scans predictions created inside the window ending at now.
func (s *Scanner) Run(ctx context.Context, now time.Time) error {
	predictions, err := s.store.FindSince(ctx, now.Add(-s.Window))
	if err != nil {
		return fmt.Errorf("load recent predictions: %w", err)
	}

	findings := append(
		DetectPumps(predictions, s.PumpThreshold),
		DetectCopyPaste(predictions, s.SimilarityThreshold)...,
	)

	for _, f := range findings {
		metrics.ManipulationFlags.WithLabelValues(f.Type).Inc()
		switch f.Type {
		case FindingPump:
			slog.Warn("possible pump detected",
				"stock", f.StockID, "bullish_calls", f.Count, "window", s.Window)
		case FindingCopyPaste:
			slog.Warn("possible copy-paste rationale",
				"stock", f.StockID, "similarity", f.Similarity, "predictions", f.PredictionIDs)
		}
	}

	slog.Info("manipulation scan complete", "predictions", len(predictions), "findings", len(findings))
	return nil
}

// DetectPumps flags stocks that attracted at least threshold bullish
// calls. A call is bullish when it predicts "up" or targets a price
// above the price at creation.
func DetectPumps(predictions []model.Prediction, threshold int) []Finding {
	byStock := make(map[string][]string)
	var order []string

	for _, p := range predictions {
		if !isBullish(&p) {
			continue
		}
		if _, seen := byStock[p.StockID]; !seen {
			order = append(order, p.StockID)
		}
		byStock[p.StockID] = append(byStock[p.StockID], p.ID)
	}

	var findings []Finding
	for _, stockID := range order {
		ids := byStock[stockID]
		if len(ids) >= threshold {
			findings = append(findings, Finding{
				Type:          FindingPump,
				StockID:       stockID,
				Count:         len(ids),
				PredictionIDs: ids,
			})
		}
	}
	return findings
}

// DetectCopyPaste flags pairs of predictions on the same stock, from
// different users, whose rationales score at or above the similarity
// threshold.
func DetectCopyPaste(predictions []model.Prediction, threshold float64) []Finding {
	var findings []Finding
	for i := 0; i < len(predictions); i++ {
		a := &predictions[i]
		if a.Rationale == "" {
			continue
		}
		for j := i + 1; j < len(predictions); j++ {
			b := &predictions[j]
			if b.Rationale == "" || a.StockID != b.StockID || a.UserID == b.UserID {
				continue
			}
			if sim := similarity.Cosine(a.Rationale, b.Rationale); sim >= threshold {
				findings = append(findings, Finding{
					Type:          FindingCopyPaste,
					StockID:       a.StockID,
					Similarity:    sim,
					PredictionIDs: []string{a.ID, b.ID},
				})
			}
		}
	}
	return findings
}

func isBullish(p *model.Prediction) bool {
	switch p.Kind {
	case model.KindDirection:
		return p.Direction == model.DirectionUp
	case model.KindPrice:
		return p.TargetPrice.GreaterThan(p.InitialPrice)
	default:
		return false
	}
}
