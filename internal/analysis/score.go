package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/dusk-indust/semdiff/internal/semantic"
	"github.com/dusk-indust/semdiff/internal/structure"
)

// neutralSimilarity stands in for an unknown semantic score, and is the
// final score when neither analysis source is available.
const neutralSimilarity = 0.5

// Weights is the scoring policy: the linear blend of the three components
// and the per-change penalties.
type Weights struct {
	Semantic   float64 `json:"semantic"`
	Structural float64 `json:"structural"`
	Difference float64 `json:"difference"`

	AddedFunction   float64 `json:"addedFunction"`
	RemovedFunction float64 `json:"removedFunction"`
	AddedClass      float64 `json:"addedClass"`
	RemovedClass    float64 `json:"removedClass"`
	ComplexityUnit  float64 `json:"complexityUnit"`

	High   float64 `json:"high"`
	Medium float64 `json:"medium"`
	Low    float64 `json:"low"`
}

// DefaultWeights returns the reference scoring policy.
func DefaultWeights() Weights {
	return Weights{
		Semantic:   0.6,
		Structural: 0.3,
		Difference: 0.1,

		AddedFunction:   0.05,
		RemovedFunction: 0.10,
		AddedClass:      0.10,
		RemovedClass:    0.15,
		ComplexityUnit:  0.01,

		High:   0.10,
		Medium: 0.05,
		Low:    0.01,
	}
}

// StructuralPenalty sums the per-change penalties of a structural diff.
// A nil comparison carries no penalty.
func (w Weights) StructuralPenalty(sc *structure.StructuralComparison) float64 {
	if sc == nil {
		return 0
	}
	return w.AddedFunction*float64(len(sc.Functions.Added)) +
		w.RemovedFunction*float64(len(sc.Functions.Removed)) +
		w.AddedClass*float64(len(sc.Classes.Added)) +
		w.RemovedClass*float64(len(sc.Classes.Removed)) +
		w.ComplexityUnit*math.Abs(float64(sc.ComplexityChange))
}

// DifferencePenalty sums the severity penalty of every difference.
// Unrecognized severities count as low.
func (w Weights) DifferencePenalty(diffs []Difference) float64 {
	p := 0.0
	for _, d := range diffs {
		switch d.Severity {
		case SeverityHigh:
			p += w.High
		case SeverityMedium:
			p += w.Medium
		default:
			p += w.Low
		}
	}
	return p
}

// Score blends the semantic similarity with the structural and difference
// penalties and clamps the result to [0,1]. With neither source available
// the score is neutral.
func (w Weights) Score(sc *structure.StructuralComparison, sem *semantic.Result, diffs []Difference) float64 {
	if sc == nil && sem == nil {
		return neutralSimilarity
	}
	semScore, ok := sem.Similarity()
	if !ok {
		semScore = neutralSimilarity
	}
	final := w.Semantic*semScore +
		w.Structural*(1-w.StructuralPenalty(sc)) +
		w.Difference*(1-w.DifferencePenalty(diffs))
	return clamp01(final)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return neutralSimilarity
	}
	return min(max(v, 0), 1)
}

// Summary renders the score, the severity counts and the structural deltas
// as one sentence-joined string.
func Summary(score float64, diffs []Difference, sc *structure.StructuralComparison) string {
	var parts []string
	switch {
	case score > 0.8:
		parts = append(parts, "The code is highly similar, mostly minor tweaks")
	case score > 0.6:
		parts = append(parts, "The code is similar, with some important changes")
	case score > 0.4:
		parts = append(parts, "The code differs notably and may include functional changes")
	default:
		parts = append(parts, "The code differs substantially, likely a major rewrite or refactor")
	}

	if len(diffs) > 0 {
		counts := severityCounts(diffs)
		s := fmt.Sprintf("found %d difference%s", len(diffs), plural(len(diffs)))
		var tiers []string
		for _, sev := range []Severity{SeverityHigh, SeverityMedium, SeverityLow} {
			if n := counts[sev]; n > 0 {
				tiers = append(tiers, fmt.Sprintf("%d %s", n, sev))
			}
		}
		if len(tiers) > 0 {
			s += " (" + strings.Join(tiers, ", ") + ")"
		}
		parts = append(parts, s)
	}

	if sc != nil {
		if sc.ComplexityChange != 0 {
			parts = append(parts, fmt.Sprintf("complexity change: %+d", sc.ComplexityChange))
		}
		if sc.LOCChange != 0 {
			parts = append(parts, fmt.Sprintf("lines of code change: %+d", sc.LOCChange))
		}
	}
	return strings.Join(parts, "; ") + "."
}

// incompleteSummary is reported when neither source produced anything.
const incompleteSummary = "Analysis could not be completed: structural and semantic analysis were both unavailable."

// Recommendations derives review advice from the differences and both
// analysis sources.
func Recommendations(diffs []Difference, sc *structure.StructuralComparison, sem *semantic.Result) []string {
	var out []string
	counts := severityCounts(diffs)
	if n := counts[SeverityHigh]; n > 0 {
		out = append(out, fmt.Sprintf("Found %d high-severity difference%s; review carefully", n, plural(n)))
	}
	if counts[SeverityMedium] > 5 {
		out = append(out, "Many medium-severity differences; consider refactoring")
	}

	if sc != nil {
		switch {
		case sc.ComplexityChange > 10:
			out = append(out, "Complexity increased significantly; review the design")
		case sc.ComplexityChange < -5:
			out = append(out, "Complexity decreased, which is a positive change")
		}
		if len(sc.Functions.Removed) > 0 {
			out = append(out, "Functions were removed; confirm this is intentional")
		}
	}

	if score, ok := sem.Similarity(); ok {
		switch {
		case score < 0.3:
			out = append(out, "Semantic similarity is low; this may be a major refactor or functional change")
		case score > 0.9:
			out = append(out, "Semantic similarity is very high; changes are likely formatting or style")
		}
	}

	if len(out) == 0 {
		out = append(out, "The changes look reasonable")
	}
	return out
}

func severityCounts(diffs []Difference) map[Severity]int {
	counts := make(map[Severity]int, 3)
	for _, d := range diffs {
		counts[d.Severity]++
	}
	return counts
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
