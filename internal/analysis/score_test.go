package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dusk-indust/semdiff/internal/semantic"
	"github.com/dusk-indust/semdiff/internal/structure"
)

func renamed() *structure.StructuralComparison {
	return &structure.StructuralComparison{
		Functions: structure.EntityDiff{Added: []string{"bar"}, Removed: []string{"foo"}},
	}
}

// ---------------------------------------------------------------------------
// Penalties
// ---------------------------------------------------------------------------

func TestStructuralPenalty(t *testing.T) {
	w := DefaultWeights()
	assert.Zero(t, w.StructuralPenalty(nil))
	assert.InDelta(t, 0.15, w.StructuralPenalty(renamed()), 1e-9)

	sc := &structure.StructuralComparison{
		Classes:          structure.EntityDiff{Added: []string{"A"}, Removed: []string{"B", "C"}},
		ComplexityChange: -7,
	}
	assert.InDelta(t, 0.10+0.30+0.07, w.StructuralPenalty(sc), 1e-9)
}

func TestDifferencePenalty(t *testing.T) {
	w := DefaultWeights()
	diffs := []Difference{
		{Severity: SeverityHigh},
		{Severity: SeverityMedium},
		{Severity: SeverityLow},
		{Severity: Severity("critical")},
	}
	assert.InDelta(t, 0.10+0.05+0.01+0.01, w.DifferencePenalty(diffs), 1e-9)
	assert.Zero(t, w.DifferencePenalty(nil))
}

// ---------------------------------------------------------------------------
// Score
// ---------------------------------------------------------------------------

func TestScore_Reference(t *testing.T) {
	w := DefaultWeights()

	t.Run("identical without comparator", func(t *testing.T) {
		assert.InDelta(t, 0.7, w.Score(&structure.StructuralComparison{}, nil, nil), 1e-9)
	})

	t.Run("rename without comparator", func(t *testing.T) {
		diffs := []Difference{{Severity: SeverityHigh}, {Severity: SeverityMedium}}
		assert.InDelta(t, 0.64, w.Score(renamed(), nil, diffs), 1e-9)
	})

	t.Run("semantic only", func(t *testing.T) {
		sem := &semantic.Result{SimilarityScore: ptr(0.95)}
		assert.InDelta(t, 0.97, w.Score(nil, sem, nil), 1e-9)
	})

	t.Run("semantic without score", func(t *testing.T) {
		assert.InDelta(t, 0.7, w.Score(nil, &semantic.Result{}, nil), 1e-9)
	})

	t.Run("nothing available", func(t *testing.T) {
		assert.Equal(t, 0.5, w.Score(nil, nil, nil))
	})
}

func TestScore_Clamped(t *testing.T) {
	heavy := DefaultWeights()
	heavy.RemovedFunction = 50
	sc := &structure.StructuralComparison{Functions: structure.EntityDiff{Removed: []string{"a", "b"}}}
	assert.Equal(t, 0.0, heavy.Score(sc, &semantic.Result{SimilarityScore: ptr(0.0)}, nil))

	generous := DefaultWeights()
	generous.Semantic = 3
	assert.Equal(t, 1.0, generous.Score(&structure.StructuralComparison{}, &semantic.Result{SimilarityScore: ptr(1.0)}, nil))
}

func TestScore_AlwaysInUnitRange(t *testing.T) {
	w := DefaultWeights()
	for delta := -100; delta <= 100; delta += 7 {
		sc := &structure.StructuralComparison{ComplexityChange: delta}
		for _, s := range []float64{0, 0.25, 1} {
			got := w.Score(sc, &semantic.Result{SimilarityScore: ptr(s)}, []Difference{{Severity: SeverityHigh}})
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		}
	}
}

func TestClamp01_NaN(t *testing.T) {
	assert.Equal(t, 0.5, clamp01(math.NaN()))
	assert.Equal(t, 1.0, clamp01(math.Inf(1)))
	assert.Equal(t, 0.0, clamp01(math.Inf(-1)))
}

// ---------------------------------------------------------------------------
// Summary and recommendations
// ---------------------------------------------------------------------------

func TestSummary_Tiers(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0.95, "The code is highly similar, mostly minor tweaks."},
		{0.8, "The code is similar, with some important changes."},
		{0.61, "The code is similar, with some important changes."},
		{0.6, "The code differs notably and may include functional changes."},
		{0.41, "The code differs notably and may include functional changes."},
		{0.4, "The code differs substantially, likely a major rewrite or refactor."},
		{0, "The code differs substantially, likely a major rewrite or refactor."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Summary(tt.score, nil, nil), "score %v", tt.score)
	}
}

func TestSummary_CountsAndDeltas(t *testing.T) {
	diffs := []Difference{{Severity: SeverityHigh}, {Severity: SeverityMedium}, {Severity: SeverityMedium}}
	sc := &structure.StructuralComparison{ComplexityChange: -2, LOCChange: 4}

	got := Summary(0.64, diffs, sc)
	assert.Equal(t,
		"The code is similar, with some important changes; found 3 differences (1 high, 2 medium); complexity change: -2; lines of code change: +4.",
		got)

	one := Summary(0.9, []Difference{{Severity: SeverityLow}}, &structure.StructuralComparison{})
	assert.Equal(t, "The code is highly similar, mostly minor tweaks; found 1 difference (1 low).", one)
}

func TestRecommendations(t *testing.T) {
	t.Run("nothing notable", func(t *testing.T) {
		assert.Equal(t, []string{"The changes look reasonable"},
			Recommendations(nil, &structure.StructuralComparison{}, nil))
	})

	t.Run("removed function", func(t *testing.T) {
		diffs := []Difference{{Severity: SeverityHigh}, {Severity: SeverityMedium}}
		got := Recommendations(diffs, renamed(), nil)
		assert.Equal(t, []string{
			"Found 1 high-severity difference; review carefully",
			"Functions were removed; confirm this is intentional",
		}, got)
	})

	t.Run("many medium", func(t *testing.T) {
		diffs := make([]Difference, 6)
		for i := range diffs {
			diffs[i].Severity = SeverityMedium
		}
		assert.Contains(t, Recommendations(diffs, nil, nil), "Many medium-severity differences; consider refactoring")
	})

	t.Run("complexity", func(t *testing.T) {
		up := Recommendations(nil, &structure.StructuralComparison{ComplexityChange: 11}, nil)
		assert.Contains(t, up, "Complexity increased significantly; review the design")
		down := Recommendations(nil, &structure.StructuralComparison{ComplexityChange: -6}, nil)
		assert.Contains(t, down, "Complexity decreased, which is a positive change")
		flat := Recommendations(nil, &structure.StructuralComparison{ComplexityChange: -5}, nil)
		assert.Equal(t, []string{"The changes look reasonable"}, flat)
	})

	t.Run("semantic extremes", func(t *testing.T) {
		low := Recommendations(nil, nil, &semantic.Result{SimilarityScore: ptr(0.1)})
		assert.Contains(t, low, "Semantic similarity is low; this may be a major refactor or functional change")
		high := Recommendations(nil, nil, &semantic.Result{SimilarityScore: ptr(0.95)})
		assert.Contains(t, high, "Semantic similarity is very high; changes are likely formatting or style")
	})
}
