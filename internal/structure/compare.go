package structure

import "sort"

// EntityDiff holds the names present in only one of two snapshots, sorted.
type EntityDiff struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// StructuralComparison is the set-based diff of two snapshots.
type StructuralComparison struct {
	Functions        EntityDiff `json:"functions"`
	Classes          EntityDiff `json:"classes"`
	Variables        EntityDiff `json:"variables"`
	Imports          EntityDiff `json:"imports"`
	ComplexityChange int        `json:"complexityChange"`
	LOCChange        int        `json:"locChange"`
}

// IsEmpty reports whether the comparison found no entity or metric change.
func (c *StructuralComparison) IsEmpty() bool {
	for _, d := range []EntityDiff{c.Functions, c.Classes, c.Variables, c.Imports} {
		if len(d.Added) > 0 || len(d.Removed) > 0 {
			return false
		}
	}
	return c.ComplexityChange == 0 && c.LOCChange == 0
}

// Compare diffs a against b by entity name. Renames show up as one removal
// plus one addition. Name sets are built fresh on every call.
func Compare(a, b *CodeStructure) *StructuralComparison {
	return &StructuralComparison{
		Functions:        diffNames(a.FunctionNames(), b.FunctionNames()),
		Classes:          diffNames(classNames(a), classNames(b)),
		Variables:        diffNames(variableNames(a), variableNames(b)),
		Imports:          diffNames(importModules(a), importModules(b)),
		ComplexityChange: b.Complexity - a.Complexity,
		LOCChange:        b.LinesOfCode - a.LinesOfCode,
	}
}

func diffNames(before, after []string) EntityDiff {
	inBefore := make(map[string]bool, len(before))
	for _, n := range before {
		inBefore[n] = true
	}
	inAfter := make(map[string]bool, len(after))
	for _, n := range after {
		inAfter[n] = true
	}
	return EntityDiff{
		Added:   missingFrom(inAfter, inBefore),
		Removed: missingFrom(inBefore, inAfter),
	}
}

// missingFrom returns the sorted keys of set that are not in other.
func missingFrom(set, other map[string]bool) []string {
	out := []string{}
	for n := range set {
		if !other[n] {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

func classNames(s *CodeStructure) []string {
	out := make([]string, 0, len(s.Classes))
	for _, c := range s.Classes {
		out = append(out, c.Name)
	}
	return out
}

func variableNames(s *CodeStructure) []string {
	out := make([]string, 0, len(s.Variables))
	for _, v := range s.Variables {
		out = append(out, v.Name)
	}
	return out
}

func importModules(s *CodeStructure) []string {
	out := make([]string, 0, len(s.Imports))
	for _, i := range s.Imports {
		out = append(out, i.Module)
	}
	return out
}
