// Package similarity implements TF-IDF cosine similarity between two
// texts. Used by the manipulation guard to detect copy-pasted
// prediction rationales.
//
// The model is deliberately small: two documents, term frequency
// weighted by the add-one inverse document frequency
//
//	idf(t) = 1 + ln(N / (1 + df(t)))
//
// and cosine over the union vocabulary. Identical texts score 1,
// texts with no shared terms score 0.
package similarity

import (
	"math"
	"regexp"
	"strings"
)

// tokenRegex splits lowercased text into word tokens.
var tokenRegex = regexp.MustCompile(`[a-z0-9']+`)

// Tokenize lowercases text and extracts word tokens.
func Tokenize(text string) []string {
	return tokenRegex.FindAllString(strings.ToLower(text), -1)
}

// Cosine returns the TF-IDF cosine similarity of two texts in [0, 1].
// Empty or token-free inputs score 0.
func Cosine(text1, text2 string) float64 {
	tf1 := termFrequencies(Tokenize(text1))
	tf2 := termFrequencies(Tokenize(text2))
	if len(tf1) == 0 || len(tf2) == 0 {
		return 0
	}

	// Union vocabulary with per-term document frequency.
	df := make(map[string]int, len(tf1)+len(tf2))
	for term := range tf1 {
		df[term]++
	}
	for term := range tf2 {
		df[term]++
	}

	const docs = 2
	var dot, mag1, mag2 float64
	for term, d := range df {
		idf := 1 + math.Log(docs/float64(1+d))
		w1 := float64(tf1[term]) * idf
		w2 := float64(tf2[term]) * idf
		dot += w1 * w2
		mag1 += w1 * w1
		mag2 += w2 * w2
	}

	if mag1 == 0 || mag2 == 0 {
		return 0
	}
	return dot / (math.Sqrt(mag1) * math.Sqrt(mag2))
}

func termFrequencies(tokens []string) map[string]int {
	tf := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		tf[tok]++
	}
	return tf
}
