// Package semantic defines the boundary with the external semantic
// comparator: the optional-field result schema and its validation.
package semantic

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Wire keys of the comparator payload.
const (
	KeySimilarity         = "semantic_similarity_score"
	KeyFunctionalChanges  = "functional_changes"
	KeyLogicalDifferences = "logical_differences"
)

// ErrNotObject is returned by FromJSON when the payload is not a JSON object.
var ErrNotObject = errors.New("semantic: payload is not a JSON object")

// Change is one functional change or logical difference reported by the
// comparator. Empty strings and nil pointers mean the field was absent or
// malformed.
type Change struct {
	Description string   `json:"description,omitempty"`
	Severity    string   `json:"severity,omitempty"`
	Impact      string   `json:"impact,omitempty"`
	Confidence  *float64 `json:"confidence,omitempty"`
	Old         string   `json:"old,omitempty"`
	New         string   `json:"new,omitempty"`
}

// Result is the validated comparator output. Every field is optional:
// a nil SimilarityScore means "unknown", never zero.
type Result struct {
	SimilarityScore    *float64 `json:"semantic_similarity_score,omitempty"`
	FunctionalChanges  []Change `json:"functional_changes,omitempty"`
	LogicalDifferences []Change `json:"logical_differences,omitempty"`

	// Raw is the payload as received, kept for reporting.
	Raw map[string]any `json:"-"`
}

// Similarity returns the score and whether one was reported.
func (r *Result) Similarity() (float64, bool) {
	if r == nil || r.SimilarityScore == nil {
		return 0, false
	}
	return *r.SimilarityScore, true
}

// Empty reports whether r carries nothing usable: no score and no changes.
func (r *Result) Empty() bool {
	return r == nil || (r.SimilarityScore == nil && len(r.FunctionalChanges) == 0 && len(r.LogicalDifferences) == 0)
}

// FromMap validates a decoded payload. Fields with the wrong shape are
// dropped rather than reported; a nil map yields a nil Result.
func FromMap(m map[string]any) *Result {
	if m == nil {
		return nil
	}
	r := &Result{Raw: m}
	if v, ok := unitFloat(m[KeySimilarity]); ok {
		r.SimilarityScore = &v
	}
	r.FunctionalChanges = changes(m[KeyFunctionalChanges])
	r.LogicalDifferences = changes(m[KeyLogicalDifferences])
	return r
}

// FromJSON decodes and validates a JSON object.
func FromJSON(data []byte) (*Result, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("semantic: decode payload: %w", err)
	}
	if m == nil {
		return nil, ErrNotObject
	}
	return FromMap(m), nil
}

func changes(v any) []Change {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]Change, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		c := Change{
			Description: stringField(m, "description"),
			Severity:    severity(m["severity"]),
			Impact:      stringField(m, "impact"),
			Old:         stringField(m, "old"),
			New:         stringField(m, "new"),
		}
		if conf, ok := unitFloat(m["confidence"]); ok {
			c.Confidence = &conf
		}
		out = append(out, c)
	}
	return out
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

// severity accepts only the three known tiers; models sometimes echo the
// prompt's "high|medium|low" placeholder, which counts as absent.
func severity(v any) string {
	s, _ := v.(string)
	switch s = strings.ToLower(strings.TrimSpace(s)); s {
	case "high", "medium", "low":
		return s
	}
	return ""
}

// unitFloat reads a number and clamps it to [0,1]. NaN and infinities are
// treated as absent.
func unitFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return min(max(f, 0), 1), true
}
