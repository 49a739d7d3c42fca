package semantic

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/semdiff/internal/structure"
)

func TestFromJSON_FullPayload(t *testing.T) {
	r, err := FromJSON([]byte(`{
		"semantic_similarity_score": 0.82,
		"functional_changes": [
			{"description": "adds retry", "severity": "High", "impact": "callers wait longer", "confidence": 0.9}
		],
		"logical_differences": [
			{"description": "loop bound changed", "old": "i < n", "new": "i <= n"}
		],
		"performance_impact": "negligible"
	}`))
	require.NoError(t, err)

	score, ok := r.Similarity()
	require.True(t, ok)
	assert.InDelta(t, 0.82, score, 1e-9)

	require.Len(t, r.FunctionalChanges, 1)
	fc := r.FunctionalChanges[0]
	assert.Equal(t, "adds retry", fc.Description)
	assert.Equal(t, "high", fc.Severity)
	assert.Equal(t, "callers wait longer", fc.Impact)
	require.NotNil(t, fc.Confidence)
	assert.InDelta(t, 0.9, *fc.Confidence, 1e-9)

	require.Len(t, r.LogicalDifferences, 1)
	ld := r.LogicalDifferences[0]
	assert.Empty(t, ld.Severity, "absent severity stays unknown")
	assert.Nil(t, ld.Confidence, "absent confidence stays unknown")
	assert.Equal(t, "i < n", ld.Old)
	assert.Equal(t, "i <= n", ld.New)

	assert.Equal(t, "negligible", r.Raw["performance_impact"])
}

// ---------------------------------------------------------------------------
// Malformed fields
// ---------------------------------------------------------------------------

func TestFromMap_MalformedFieldsAreAbsent(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]any
	}{
		{"missing score", map[string]any{}},
		{"string garbage", map[string]any{KeySimilarity: "very"}},
		{"NaN", map[string]any{KeySimilarity: math.NaN()}},
		{"infinity", map[string]any{KeySimilarity: math.Inf(1)}},
		{"bool", map[string]any{KeySimilarity: true}},
		{"changes not a list", map[string]any{KeyFunctionalChanges: "none"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := FromMap(tt.in)
			require.NotNil(t, r)
			_, ok := r.Similarity()
			assert.False(t, ok)
			assert.Empty(t, r.FunctionalChanges)
		})
	}
}

func TestFromMap_ClampsOutOfRange(t *testing.T) {
	r := FromMap(map[string]any{
		KeySimilarity:         1.7,
		KeyLogicalDifferences: []any{
			map[string]any{"description": "x", "confidence": -3.0},
		},
	})
	score, ok := r.Similarity()
	require.True(t, ok)
	assert.Equal(t, 1.0, score)
	require.NotNil(t, r.LogicalDifferences[0].Confidence)
	assert.Equal(t, 0.0, *r.LogicalDifferences[0].Confidence)
}

func TestFromMap_NumericStrings(t *testing.T) {
	r := FromMap(map[string]any{KeySimilarity: " 0.4 "})
	score, ok := r.Similarity()
	require.True(t, ok)
	assert.InDelta(t, 0.4, score, 1e-9)
}

func TestFromMap_SkipsNonObjectEntries(t *testing.T) {
	r := FromMap(map[string]any{
		KeyFunctionalChanges: []any{"text", 42, map[string]any{"description": "ok", "severity": "high|medium|low"}},
	})
	require.Len(t, r.FunctionalChanges, 1)
	assert.Equal(t, "ok", r.FunctionalChanges[0].Description)
	assert.Empty(t, r.FunctionalChanges[0].Severity, "placeholder severity is not a tier")
}

func TestFromMap_Nil(t *testing.T) {
	assert.Nil(t, FromMap(nil))
	var r *Result
	_, ok := r.Similarity()
	assert.False(t, ok)
}

func TestResult_Empty(t *testing.T) {
	score := 0.4
	tests := []struct {
		name string
		r    *Result
		want bool
	}{
		{"nil", nil, true},
		{"zero value", &Result{}, true},
		{"unknown keys only", FromMap(map[string]any{"garbage": 1}), true},
		{"malformed fields only", FromMap(map[string]any{KeySimilarity: "high", KeyFunctionalChanges: "none"}), true},
		{"score", &Result{SimilarityScore: &score}, false},
		{"zero score is still a score", FromMap(map[string]any{KeySimilarity: 0}), false},
		{"changes only", &Result{LogicalDifferences: []Change{{Description: "d"}}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.r.Empty())
		})
	}
}

func TestFromJSON_RejectsNonObjects(t *testing.T) {
	_, err := FromJSON([]byte(`null`))
	assert.ErrorIs(t, err, ErrNotObject)

	_, err = FromJSON([]byte(`[1, 2]`))
	assert.Error(t, err)

	_, err = FromJSON([]byte(`{broken`))
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Comparator adapters
// ---------------------------------------------------------------------------

func TestComparatorFunc(t *testing.T) {
	want := errors.New("offline")
	var c Comparator = ComparatorFunc(func(_ context.Context, code1, code2 string, lang structure.Language) (*Result, error) {
		assert.Equal(t, "a", code1)
		assert.Equal(t, "b", code2)
		assert.Equal(t, structure.LangGo, lang)
		return nil, want
	})
	_, err := c.Compare(context.Background(), "a", "b", structure.LangGo)
	assert.ErrorIs(t, err, want)
}

func TestStatic(t *testing.T) {
	score := 0.95
	r := &Result{SimilarityScore: &score}
	got, err := Static(r).Compare(context.Background(), "", "", structure.LangPython)
	require.NoError(t, err)
	assert.Same(t, r, got)
}
