package reputation

import (
	"math"
	"testing"
)

// --- Score tests ---

func TestScore_ZeroTotal(t *testing.T) {
	if got := Score(0, 0); got != 0 {
		t.Errorf("expected 0 for no predictions, got %v", got)
	}
}

func TestScore_ZeroAccurate(t *testing.T) {
	if got := Score(0, 25); got != 0 {
		t.Errorf("expected 0 for zero accurate predictions, got %v", got)
	}
}

func TestScore_NonNegative(t *testing.T) {
	for total := 0; total <= 50; total++ {
		for accurate := 0; accurate <= total; accurate++ {
			if got := Score(accurate, total); got < 0 {
				t.Fatalf("Score(%d, %d) = %v, want >= 0", accurate, total, got)
			}
		}
	}
}

func TestScore_ZeroOnlyWhenNoHits(t *testing.T) {
	for total := 1; total <= 50; total++ {
		for accurate := 1; accurate <= total; accurate++ {
			if got := Score(accurate, total); got == 0 {
				t.Fatalf("Score(%d, %d) = 0, want > 0", accurate, total)
			}
		}
	}
}

func TestScore_KnownValue(t *testing.T) {
	// 8/10 accurate: 0.8 * ln(11) * 100 = 191.848... → 191.8
	got := Score(8, 10)
	want := math.Round(0.8*math.Log(11)*100*10) / 10
	if got != want {
		t.Errorf("Score(8, 10) = %v, want %v", got, want)
	}
}

func TestScore_OneDecimalPlace(t *testing.T) {
	for total := 1; total <= 30; total++ {
		for accurate := 0; accurate <= total; accurate++ {
			got := Score(accurate, total)
			scaled := got * 10
			if math.Abs(scaled-math.Round(scaled)) > 1e-9 {
				t.Fatalf("Score(%d, %d) = %v, not rounded to one decimal", accurate, total, got)
			}
		}
	}
}

func TestScore_MonotonicInAccurate(t *testing.T) {
	const total = 40
	prev := Score(0, total)
	for accurate := 1; accurate <= total; accurate++ {
		cur := Score(accurate, total)
		if cur < prev {
			t.Fatalf("score decreased: Score(%d, %d)=%v < Score(%d, %d)=%v",
				accurate, total, cur, accurate-1, total, prev)
		}
		prev = cur
	}
}

func TestScore_VolumeBonus(t *testing.T) {
	// Same 50% accuracy, increasing volume: score must not decrease.
	prev := Score(1, 2)
	for n := 2; n <= 100; n++ {
		cur := Score(n, 2*n)
		if cur < prev {
			t.Fatalf("volume bonus violated: Score(%d, %d)=%v < Score(%d, %d)=%v",
				n, 2*n, cur, n-1, 2*(n-1), prev)
		}
		prev = cur
	}
}

// --- Accuracy tests ---

func TestAccuracy(t *testing.T) {
	if got := Accuracy(0, 0); got != 0 {
		t.Errorf("Accuracy(0, 0) = %v, want 0", got)
	}
	if got := Accuracy(3, 4); got != 75 {
		t.Errorf("Accuracy(3, 4) = %v, want 75", got)
	}
}

// --- Tier tests ---

func TestTierFor_Boundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0, "Novice"},
		{9.99, "Novice"},
		{10, "Apprentice"},
		{49.9, "Apprentice"},
		{50, "Expert"},
		{99.9, "Expert"},
		{100, "Master"},
		{499.999, "Master"},
		{500, "Legend"},
		{1200, "Legend"},
	}
	for _, tt := range tests {
		if got := TierFor(tt.score); got.Label != tt.want {
			t.Errorf("TierFor(%v) = %s, want %s", tt.score, got.Label, tt.want)
		}
	}
}

func TestTierFor_HasColor(t *testing.T) {
	for _, score := range []float64{0, 10, 50, 100, 500} {
		if TierFor(score).Color == "" {
			t.Errorf("TierFor(%v) has empty color", score)
		}
	}
}
