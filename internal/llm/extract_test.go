package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{"plain object", `{"semantic_similarity_score": 0.8}`, 0.8},
		{"leading prose", `Here is the result: {"semantic_similarity_score": 0.7} hope it helps`, 0.7},
		{"think block", "<think>I need to {compare} these</think>\n{\"semantic_similarity_score\": 0.6}", 0.6},
		{"braces inside strings", `{"a": "}{", "semantic_similarity_score": 0.5}`, 0.5},
		{"fenced json", "```json\n{\"semantic_similarity_score\": 0.4}\n```", 0.4},
		{"single quotes", `{'semantic_similarity_score': 0.3, 'summary': 'minor'}`, 0.3},
		{"line comments and trailing comma", "{\n\"semantic_similarity_score\": 0.2, // model note\n}", 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := ExtractJSON(tt.in)
			require.True(t, ok)
			assert.InDelta(t, tt.want, m["semantic_similarity_score"], 1e-9)
		})
	}
}

func TestExtractJSON_Failures(t *testing.T) {
	for _, in := range []string{"", "   ", "no json at all", "[1, 2, 3]", `{"truncated": "ye`} {
		_, ok := ExtractJSON(in)
		assert.False(t, ok, "%q", in)
	}
}

func TestExtractJSON_NestedObjects(t *testing.T) {
	m, ok := ExtractJSON(`prefix {"outer": {"inner": [1, {"x": 2}]}, "semantic_similarity_score": 1} suffix {"other": 1}`)
	require.True(t, ok)
	assert.Contains(t, m, "outer")
	assert.NotContains(t, m, "other")
}

func TestSimilarityFromText(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"Similarity: 85%", 0.85},
		{"roughly 40 % similar overall", 0.4},
		{"similarity: 150%", 1},
		{"Similarity: 0.35", 0.35},
		{"final score: 0.9 after review", 0.9},
		{"The two versions are identical.", 1.0},
		{"They are very similar.", 0.9},
		{"Mostly similar code.", 0.7},
		{"These are very different programs.", 0.1},
		{"The implementations are different.", 0.3},
		{"The approaches are dissimilar.", 0.3},
		{"I cannot tell.", 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.InDelta(t, tt.want, SimilarityFromText(tt.text), 1e-9)
		})
	}
}

func TestComparePrompt(t *testing.T) {
	p := ComparePrompt("x = 1", "x = 2 # 100%", "python")
	assert.Contains(t, p, "```python\nx = 1\n```")
	assert.Contains(t, p, "```python\nx = 2 # 100%\n```")
	assert.Contains(t, p, `"semantic_similarity_score": 0.8`)
	assert.NotContains(t, p, "%!", "no formatting verbs leak")
}
