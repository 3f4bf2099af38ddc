package scorer

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/briannabogos1157/threadtwin/internal/dupe"
)

func TestFabricCosineSharedVocabulary(t *testing.T) {
	t.Parallel()
	s := New()

	// Vocabulary {cotton, elastane, spandex}; vectors [1,1,0] and [1,0,1];
	// cosine = 1/2.
	a := dupe.ProductAttributes{FabricComposition: []string{"cotton", "elastane"}}
	b := dupe.ProductAttributes{FabricComposition: []string{"cotton", "spandex"}}

	breakdown := s.Score(a, b)
	require.Equal(t, 50, breakdown.Fabric)
}

func TestOverlapDividesByLargerSet(t *testing.T) {
	t.Parallel()
	s := New()

	a := dupe.ProductAttributes{Construction: []string{"ribbed", "knit"}}
	b := dupe.ProductAttributes{Construction: []string{"ribbed"}}

	breakdown := s.Score(a, b)
	require.Equal(t, 50, breakdown.Construction)
}

func TestWeightedTotalRoundsHalfUp(t *testing.T) {
	t.Parallel()
	s := New()

	// fabric 50, construction 50, fit 100, care 0 ->
	// 0.40*50 + 0.25*50 + 0.25*100 + 0.10*0 = 57.5 -> 58.
	a := dupe.ProductAttributes{
		FabricComposition: []string{"cotton", "elastane"},
		Construction:      []string{"ribbed", "knit"},
		Fit:               []string{"slim"},
	}
	b := dupe.ProductAttributes{
		FabricComposition: []string{"cotton", "spandex"},
		Construction:      []string{"ribbed"},
		Fit:               []string{"slim"},
	}

	breakdown := s.Score(a, b)
	require.Equal(t, 50, breakdown.Fabric)
	require.Equal(t, 50, breakdown.Construction)
	require.Equal(t, 100, breakdown.Fit)
	require.Equal(t, 0, breakdown.Care)
	require.Equal(t, 58, breakdown.Total)
}

func TestEmptySideScoresZeroPerCategory(t *testing.T) {
	t.Parallel()
	s := New()

	a := dupe.ProductAttributes{
		FabricComposition: []string{"cotton"},
		Construction:      []string{"knit"},
		Fit:               []string{"slim"},
		CareInstructions:  []string{"machine wash"},
	}
	empty := dupe.ProductAttributes{}

	breakdown := s.Score(a, empty)
	require.Zero(t, breakdown.Fabric)
	require.Zero(t, breakdown.Construction)
	require.Zero(t, breakdown.Fit)
	require.Zero(t, breakdown.Care)
	require.Zero(t, breakdown.Total)

	breakdown = s.Score(empty, empty)
	require.Zero(t, breakdown.Total)
}

func TestScoreSymmetricUnderArgumentSwap(t *testing.T) {
	t.Parallel()
	s := New()

	a := dupe.ProductAttributes{
		FabricComposition: []string{"cotton", "elastane", "wool"},
		Construction:      []string{"ribbed", "knit"},
		Fit:               []string{"slim", "cropped", "fitted"},
		CareInstructions:  []string{"machine wash", "tumble dry"},
	}
	b := dupe.ProductAttributes{
		FabricComposition: []string{"cotton", "spandex"},
		Construction:      []string{"ribbed"},
		Fit:               []string{"slim"},
		CareInstructions:  []string{"hand wash", "machine wash"},
	}

	require.Equal(t, s.Score(a, b), s.Score(b, a))
}

func TestScoresStayWithinBounds(t *testing.T) {
	t.Parallel()
	s := New()
	rng := rand.New(rand.NewSource(42))

	pool := []string{"cotton", "polyester", "nylon", "spandex", "wool", "silk", "linen"}
	randomSet := func() []string {
		n := rng.Intn(len(pool) + 1)
		out := make([]string, 0, n)
		for _, kw := range pool[:n] {
			out = append(out, kw)
		}
		return out
	}

	for i := 0; i < 50; i++ {
		a := dupe.ProductAttributes{
			FabricComposition: randomSet(),
			Construction:      randomSet(),
			Fit:               randomSet(),
			CareInstructions:  randomSet(),
		}
		b := dupe.ProductAttributes{
			FabricComposition: randomSet(),
			Construction:      randomSet(),
			Fit:               randomSet(),
			CareInstructions:  randomSet(),
		}
		breakdown := s.Score(a, b)
		for _, score := range []int{
			breakdown.Fabric, breakdown.Construction, breakdown.Fit,
			breakdown.Care, breakdown.Total,
		} {
			require.GreaterOrEqual(t, score, 0)
			require.LessOrEqual(t, score, 100)
		}
	}
}

// sharedSets builds two equal-sized keyword sets of n elements sharing
// exactly m of them, so both the cosine and overlap scores come out to
// round(m/n * 100).
func sharedSets(prefix string, n, m int) ([]string, []string) {
	a := make([]string, 0, n)
	b := make([]string, 0, n)
	for i := 0; i < n; i++ {
		a = append(a, fmt.Sprintf("%s-shared-%d", prefix, i))
	}
	b = append(b, a[:m]...)
	for i := m; i < n; i++ {
		b = append(b, fmt.Sprintf("%s-only-%d", prefix, i))
	}
	return a, b
}

func TestWeightedSumLaw(t *testing.T) {
	t.Parallel()
	s := New()
	rng := rand.New(rand.NewSource(7))

	category := func(prefix string) (as, bs []string, score int) {
		n := 1 + rng.Intn(6)
		m := rng.Intn(n + 1)
		as, bs = sharedSets(prefix, n, m)
		return as, bs, int(math.Round(float64(m) / float64(n) * 100))
	}

	for i := 0; i < 20; i++ {
		var a, b dupe.ProductAttributes
		var fabric, construction, fit, care int
		a.FabricComposition, b.FabricComposition, fabric = category("fabric")
		a.Construction, b.Construction, construction = category("construction")
		a.Fit, b.Fit, fit = category("fit")
		a.CareInstructions, b.CareInstructions, care = category("care")

		want := int(math.Round(
			0.40*float64(fabric) + 0.25*float64(construction) +
				0.25*float64(fit) + 0.10*float64(care),
		))

		breakdown := s.Score(a, b)
		require.Equal(t, fabric, breakdown.Fabric)
		require.Equal(t, construction, breakdown.Construction)
		require.Equal(t, fit, breakdown.Fit)
		require.Equal(t, care, breakdown.Care)
		require.Equal(t, want, breakdown.Total)
	}
}

func TestIdenticalFabricSetsScoreFull(t *testing.T) {
	t.Parallel()
	s := New()

	a := dupe.ProductAttributes{FabricComposition: []string{"cotton", "elastane"}}
	breakdown := s.Score(a, a)
	require.Equal(t, 100, breakdown.Fabric)
}
