// Package scorer computes weighted multi-category similarity between two
// product attribute sets.
package scorer

import (
	"math"

	"github.com/briannabogos1157/threadtwin/internal/dupe"
)

// Category weights. Fabric dominates because material composition is the
// main determinant of whether a dupe feels like the original; care
// instructions carry the least signal. They sum to 1.0 exactly.
const (
	weightFabric       = 0.40
	weightConstruction = 0.25
	weightFit          = 0.25
	weightCare         = 0.10
)

// Scorer produces match breakdowns. It is stateless; a single value can be
// shared across goroutines.
type Scorer struct{}

// New constructs a Scorer.
func New() *Scorer {
	return &Scorer{}
}

// Score compares two attribute sets and returns the per-category scores
// plus the weighted total. It is total: missing or empty inputs degrade to
// zero scores, never to an error.
//
// The total is computed from the already-rounded category integers, so the
// result can drift by one point from an unrounded weighted sum. That
// double-rounding is kept for compatibility with stored historical scores.
func (s *Scorer) Score(a, b dupe.ProductAttributes) dupe.MatchBreakdown {
	breakdown := dupe.MatchBreakdown{
		Fabric:       cosineScore(a.FabricComposition, b.FabricComposition),
		Construction: overlapScore(a.Construction, b.Construction),
		Fit:          overlapScore(a.Fit, b.Fit),
		Care:         overlapScore(a.CareInstructions, b.CareInstructions),
	}
	breakdown.Total = roundHalfAway(
		float64(breakdown.Fabric)*weightFabric +
			float64(breakdown.Construction)*weightConstruction +
			float64(breakdown.Fit)*weightFit +
			float64(breakdown.Care)*weightCare,
	)
	return breakdown
}

// cosineScore builds binary indicator vectors over the union vocabulary of
// both sets and returns their cosine similarity scaled to 0-100.
func cosineScore(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	vocab := union(a, b)
	va := indicatorVector(a, vocab)
	vb := indicatorVector(b, vocab)

	sim := cosine(va, vb)
	if math.IsNaN(sim) {
		return 0
	}
	return roundHalfAway(sim * 100)
}

// overlapScore is round(|A∩B| / max(|A|,|B|) * 100). Dividing by the larger
// set rather than the union penalizes a product carrying many unrelated
// extra tags harder than Jaccard would.
func overlapScore(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inB := make(map[string]struct{}, len(b))
	for _, tag := range b {
		inB[tag] = struct{}{}
	}
	common := 0
	for _, tag := range a {
		if _, ok := inB[tag]; ok {
			common++
		}
	}
	larger := len(a)
	if len(b) > larger {
		larger = len(b)
	}
	return roundHalfAway(float64(common) / float64(larger) * 100)
}

func union(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	for _, s := range b {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

func indicatorVector(set []string, vocab []string) []float64 {
	present := make(map[string]struct{}, len(set))
	for _, s := range set {
		present[s] = struct{}{}
	}
	vec := make([]float64, len(vocab))
	for i, term := range vocab {
		if _, ok := present[term]; ok {
			vec[i] = 1
		}
	}
	return vec
}

func cosine(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return math.NaN()
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// roundHalfAway pins the rounding mode for scores: halves round away from
// zero, so 57.5 becomes 58.
func roundHalfAway(v float64) int {
	return int(math.Round(v))
}
