package analysis

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"

	"github.com/dusk-indust/semdiff/internal/semantic"
	"github.com/dusk-indust/semdiff/internal/structure"
)

// Confidence attached to records derived from the structural diff.
const (
	structuralConfidence = 0.9
	complexityConfidence = 0.8
)

// Defaults for fields the semantic comparator left out.
const (
	functionalConfidence = 0.7
	logicalConfidence    = 0.6
)

// Synthesize merges the structural comparison and the semantic result into
// a deduplicated, ranked difference list. Either source may be nil. before
// and after are only used to locate added and removed entities and may also
// be nil.
func Synthesize(sc *structure.StructuralComparison, before, after *structure.CodeStructure, sem *semantic.Result) []Difference {
	diffs := []Difference{}
	if sc != nil {
		diffs = append(diffs, structuralDifferences(sc, before, after)...)
	}
	if sem != nil {
		diffs = append(diffs, semanticDifferences(sem)...)
	}
	return Rank(Deduplicate(diffs))
}

func structuralDifferences(sc *structure.StructuralComparison, before, after *structure.CodeStructure) []Difference {
	var out []Difference
	for _, name := range sc.Functions.Added {
		out = append(out, Difference{
			Type:           TypeStructural,
			Severity:       SeverityMedium,
			Category:       CategoryFunction,
			NewContent:     name,
			NewLocation:    functionSpan(after, name),
			Description:    "added function: " + name,
			SemanticImpact: "functionality extended",
			Confidence:     structuralConfidence,
		})
	}
	for _, name := range sc.Functions.Removed {
		out = append(out, Difference{
			Type:           TypeStructural,
			Severity:       SeverityHigh,
			Category:       CategoryFunction,
			OldContent:     name,
			OldLocation:    functionSpan(before, name),
			Description:    "removed function: " + name,
			SemanticImpact: "functionality removed",
			Confidence:     structuralConfidence,
		})
	}
	for _, name := range sc.Classes.Added {
		out = append(out, Difference{
			Type:           TypeStructural,
			Severity:       SeverityMedium,
			Category:       CategoryClass,
			NewContent:     name,
			NewLocation:    classSpan(after, name),
			Description:    "added class: " + name,
			SemanticImpact: "architecture extended",
			Confidence:     structuralConfidence,
		})
	}
	for _, name := range sc.Classes.Removed {
		out = append(out, Difference{
			Type:           TypeStructural,
			Severity:       SeverityHigh,
			Category:       CategoryClass,
			OldContent:     name,
			OldLocation:    classSpan(before, name),
			Description:    "removed class: " + name,
			SemanticImpact: "architecture changed",
			Confidence:     structuralConfidence,
		})
	}
	if delta := sc.ComplexityChange; delta != 0 {
		impact := "performance impact"
		if delta < 0 {
			impact = "performance improved"
		}
		out = append(out, Difference{
			Type:           TypeStructural,
			Severity:       complexitySeverity(delta),
			Category:       CategoryComplexity,
			OldContent:     strconv.Itoa(delta),
			Description:    fmt.Sprintf("complexity change: %+d", delta),
			SemanticImpact: impact,
			Confidence:     complexityConfidence,
		})
	}
	return out
}

// complexitySeverity buckets |delta|: <5 low, 5..10 medium, >10 high.
func complexitySeverity(delta int) Severity {
	switch d := max(delta, -delta); {
	case d > 10:
		return SeverityHigh
	case d >= 5:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func semanticDifferences(sem *semantic.Result) []Difference {
	var out []Difference
	for _, c := range sem.FunctionalChanges {
		out = append(out, fromChange(c, CategoryFunction, "functional change", "unknown impact", functionalConfidence))
	}
	for _, c := range sem.LogicalDifferences {
		out = append(out, fromChange(c, CategoryLogic, "logical difference", "logic change", logicalConfidence))
	}
	return out
}

func fromChange(c semantic.Change, category Category, description, impact string, confidence float64) Difference {
	d := Difference{
		Type:           TypeFunctional,
		Severity:       SeverityMedium,
		Category:       category,
		OldContent:     c.Old,
		NewContent:     c.New,
		Description:    cmp.Or(c.Description, description),
		SemanticImpact: cmp.Or(c.Impact, impact),
		Confidence:     confidence,
	}
	if c.Severity != "" {
		d.Severity = Severity(c.Severity)
	}
	if c.Confidence != nil {
		d.Confidence = *c.Confidence
	}
	return d
}

func functionSpan(cs *structure.CodeStructure, name string) Location {
	if cs == nil {
		return Location{}
	}
	fn, ok := cs.FindFunction(name)
	if !ok {
		return Location{}
	}
	return Location{Start: fn.StartLine, End: fn.EndLine}
}

func classSpan(cs *structure.CodeStructure, name string) Location {
	if cs == nil {
		return Location{}
	}
	c, ok := cs.FindClass(name)
	if !ok {
		return Location{}
	}
	return Location{Start: c.StartLine, End: c.EndLine}
}

// Deduplicate drops records whose type, category, description and contents
// repeat an earlier record. The first occurrence wins.
func Deduplicate(diffs []Difference) []Difference {
	seen := make(map[dedupKey]bool, len(diffs))
	out := make([]Difference, 0, len(diffs))
	for _, d := range diffs {
		k := d.key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, d)
	}
	return out
}

// Rank returns diffs sorted by severity, then confidence, both descending.
// Equal records keep their input order.
func Rank(diffs []Difference) []Difference {
	out := slices.Clone(diffs)
	if out == nil {
		out = []Difference{}
	}
	slices.SortStableFunc(out, func(a, b Difference) int {
		if c := cmp.Compare(b.Severity.Rank(), a.Severity.Rank()); c != 0 {
			return c
		}
		return cmp.Compare(b.Confidence, a.Confidence)
	})
	return out
}
