package similarity

import (
	"math"
	"testing"
)

func TestTokenize(t *testing.T) {
	tokens := Tokenize("AAPL is going UP, way up!")
	want := []string{"aapl", "is", "going", "up", "way", "up"}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens %v, want %d", len(tokens), tokens, len(want))
	}
	for i, tok := range tokens {
		if tok != want[i] {
			t.Errorf("token %d = %q, want %q", i, tok, want[i])
		}
	}
}

func TestCosine_Identical(t *testing.T) {
	got := Cosine("strong earnings, buying the dip", "strong earnings, buying the dip")
	if math.Abs(got-1) > 1e-9 {
		t.Errorf("identical texts should score 1, got %v", got)
	}
}

func TestCosine_CaseInsensitive(t *testing.T) {
	got := Cosine("BUY THE DIP", "buy the dip")
	if math.Abs(got-1) > 1e-9 {
		t.Errorf("case should not matter, got %v", got)
	}
}

func TestCosine_Disjoint(t *testing.T) {
	if got := Cosine("bullish on tech", "bearish energy selloff"); got != 0 {
		t.Errorf("disjoint texts should score 0, got %v", got)
	}
}

func TestCosine_Empty(t *testing.T) {
	if got := Cosine("", "anything at all"); got != 0 {
		t.Errorf("empty text should score 0, got %v", got)
	}
	if got := Cosine("", ""); got != 0 {
		t.Errorf("two empty texts should score 0, got %v", got)
	}
}

func TestCosine_NearCopyScoresHigh(t *testing.T) {
	a := "TSLA will hit 300 by friday, earnings are strong and deliveries beat"
	b := "TSLA will hit 300 by friday, earnings strong and deliveries beat"
	if got := Cosine(a, b); got < 0.8 {
		t.Errorf("near-copy should score >= 0.8, got %v", got)
	}
}

func TestCosine_LooselyRelatedScoresLow(t *testing.T) {
	a := "TSLA deliveries beat expectations this quarter"
	b := "AAPL services revenue keeps growing year over year"
	if got := Cosine(a, b); got >= 0.8 {
		t.Errorf("unrelated rationales should score below 0.8, got %v", got)
	}
}
