package export

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/semdiff/internal/analysis"
	"github.com/dusk-indust/semdiff/internal/structure"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func fixedNow(t *testing.T) {
	t.Helper()
	orig := now
	now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = orig })
}

func result(score float64, severities ...analysis.Severity) *analysis.Result {
	r := &analysis.Result{
		SimilarityScore: score,
		Summary:         "summary text",
		Quality:         analysis.QualityMedium,
		Differences:     []analysis.Difference{},
		Recommendations: []string{},
	}
	for i, s := range severities {
		r.Differences = append(r.Differences, analysis.Difference{
			Type:        analysis.TypeStructural,
			Severity:    s,
			Category:    analysis.CategoryFunction,
			Description: "change " + string(rune('a'+i)),
			Confidence:  0.9,
		})
	}
	return r
}

func renamedComparison() *analysis.FileComparison {
	r := result(0.64, analysis.SeverityHigh, analysis.SeverityMedium)
	r.Differences[0].Description = "removed function: foo"
	r.Differences[0].OldContent = "def foo():\n    return 1"
	r.Differences[0].OldLocation = analysis.Location{Start: 1, End: 2}
	r.Differences[1].Description = "added function: bar"
	r.Recommendations = []string{"Review callers of removed functions."}
	r.Semantic.Error = "no semantic comparator configured"
	r.Structural.Comparison = &structure.StructuralComparison{
		Functions: structure.EntityDiff{Added: []string{"bar"}, Removed: []string{"foo"}},
	}
	return &analysis.FileComparison{
		Path1:    "before/app.py",
		Path2:    "after/app.py",
		Language: structure.LangPython,
		Result:   r,
	}
}

func sampleDirectory() *analysis.DirectoryComparison {
	return &analysis.DirectoryComparison{
		Dir1: "v1",
		Dir2: "v2",
		Files: []analysis.FileComparison{
			{Path: "main.go", Result: result(1.0)},
			{Path: "pkg/a.go", Result: result(0.64, analysis.SeverityHigh)},
			{Path: "pkg/b.go", Result: result(0.3, analysis.SeverityHigh, analysis.SeverityHigh, analysis.SeverityLow)},
			{Path: "pkg/big.go", Error: "file too large"},
		},
		OnlyInFirst:       []string{"pkg/old.go"},
		OnlyInSecond:      []string{"new.go"},
		AverageSimilarity: (1.0 + 0.64 + 0.3) / 3,
	}
}

// ---------------------------------------------------------------------------
// Formats
// ---------------------------------------------------------------------------

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"json", FormatJSON},
		{"TEXT", FormatText},
		{" plain ", FormatText},
		{"Mermaid", FormatMermaid},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseFormat("html")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.ErrorContains(t, err, `"html"`)
}

func TestWrite_UnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, WriteFile(&buf, "yaml", renamedComparison()), ErrUnsupportedFormat)
	assert.ErrorIs(t, WriteDirectory(&buf, "yaml", sampleDirectory()), ErrUnsupportedFormat)
	assert.Zero(t, buf.Len())
}

// ---------------------------------------------------------------------------
// JSON
// ---------------------------------------------------------------------------

func TestWriteFile_JSON(t *testing.T) {
	fixedNow(t)

	var buf bytes.Buffer
	require.NoError(t, WriteFile(&buf, FormatJSON, renamedComparison()))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "2026-03-01T12:00:00Z", got["exportedAt"])
	assert.Equal(t, "before/app.py", got["path1"], "comparison fields are inlined")
	assert.Equal(t, "python", got["language"])

	res, ok := got["result"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 0.64, res["similarityScore"], 1e-9)
}

func TestNewDirectoryReport(t *testing.T) {
	fixedNow(t)

	rep := NewDirectoryReport(sampleDirectory())
	assert.Equal(t, "2026-03-01T12:00:00Z", rep.ExportedAt)
	assert.Equal(t, 3, rep.TotalFiles)
	assert.Equal(t, 1, rep.FailedFiles)
	assert.Equal(t, 4, rep.TotalDifferences)

	assert.Equal(t, []SeverityCount{
		{Path: "pkg/b.go", Count: 2},
		{Path: "pkg/a.go", Count: 1},
	}, rep.HighSeverity)

	counts := map[string]int{}
	for _, b := range rep.Distribution {
		counts[b.Label] = b.Count
	}
	assert.Equal(t, map[string]int{
		"very similar":      1,
		"similar":           0,
		"partially similar": 1,
		"different":         1,
	}, counts)

	require.Len(t, rep.Files, 4)
	assert.Equal(t, FileSummary{Path: "pkg/b.go", SimilarityScore: 0.3, Differences: 3, HighSeverityCount: 2}, rep.Files[2])
	assert.Equal(t, "file too large", rep.Files[3].Error)
}

func TestNewDirectoryReport_Empty(t *testing.T) {
	rep := NewDirectoryReport(&analysis.DirectoryComparison{OnlyInFirst: []string{}, OnlyInSecond: []string{}})
	assert.Zero(t, rep.TotalFiles)
	assert.Empty(t, rep.HighSeverity)
	assert.NotNil(t, rep.Files)

	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, rep))
	assert.Contains(t, buf.String(), `"files": []`)
	assert.Contains(t, buf.String(), `"highSeverityFiles": []`)
}

func TestHighSeverityFiles_Limit(t *testing.T) {
	dc := &analysis.DirectoryComparison{}
	for _, p := range []string{"e", "d", "c", "b", "a"} {
		dc.Files = append(dc.Files, analysis.FileComparison{Path: p, Result: result(0.5, analysis.SeverityHigh)})
	}
	got := highSeverityFiles(dc, 3)
	assert.Equal(t, []SeverityCount{{"a", 1}, {"b", 1}, {"c", 1}}, got, "ties break by path")
}

// ---------------------------------------------------------------------------
// Text
// ---------------------------------------------------------------------------

func TestWriteFile_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFile(&buf, FormatText, renamedComparison()))
	out := buf.String()

	for _, want := range []string{
		"Semantic diff report",
		"File 1:     before/app.py",
		"Language:   python",
		"Similarity: 64.00%",
		"Quality:    medium",
		"Summary:\n" + subRule + "\nsummary text\n",
		"Differences (2):",
		"1. removed function: foo\n   type: structural  severity: high  category: function\n",
		"   confidence: 90.00%\n",
		"   old (lines 1-2): def foo(): return 1\n",
		"2. added function: bar",
		"Recommendations:",
		"1. Review callers of removed functions.",
		"Semantic analysis unavailable: no semantic comparator configured",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "Cache hit")
	assert.NotContains(t, out, "Structural analysis unavailable")
}

func TestWriteFile_TextNoDifferences(t *testing.T) {
	fc := &analysis.FileComparison{Path1: "a", Path2: "b", Result: result(0.7)}
	fc.Result.CacheHit = true

	var buf bytes.Buffer
	require.NoError(t, WriteFile(&buf, FormatText, fc))
	assert.Contains(t, buf.String(), "Cache hit:  yes")
	assert.Contains(t, buf.String(), "No significant differences found.")
	assert.NotContains(t, buf.String(), "Recommendations:")
}

func TestWriteFile_TextError(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFile(&buf, FormatText, &analysis.FileComparison{Path1: "a", Path2: "b", Error: "boom"}))
	assert.Contains(t, buf.String(), "Error:      boom")
	assert.NotContains(t, buf.String(), "Similarity")
}

func TestWriteDirectory_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDirectory(&buf, FormatText, sampleDirectory()))
	out := buf.String()

	for _, want := range []string{
		"Directory comparison",
		"Files compared:     3",
		"Files failed:       1",
		"Total differences:  4",
		"Average similarity: 64.67%",
		"  main.go: 100.00%, 0 differences",
		"  pkg/big.go: error: file too large",
		"Files with high-severity differences:\n" + subRule + "\n  pkg/b.go: 2\n  pkg/a.go: 1\n",
		"  very similar:        1 (33.33%)",
		"  similar:             0 (0.00%)",
		"Only in v1:\n" + subRule + "\n  pkg/old.go\n",
		"Only in v2:\n" + subRule + "\n  new.go\n",
	} {
		assert.Contains(t, out, want)
	}
}

func TestWriteDirectory_TextEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDirectory(&buf, FormatText, &analysis.DirectoryComparison{Dir1: "a", Dir2: "b"}))
	assert.Contains(t, buf.String(), "No files to compare.")
	assert.NotContains(t, buf.String(), "Similarity distribution")
	assert.NotContains(t, buf.String(), "Only in")
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "a b c", snippet("a\n\tb   c\n"))
	long := strings.Repeat("é", maxSnippet+5)
	assert.Equal(t, strings.Repeat("é", maxSnippet)+"...", snippet(long))
}

func TestLines(t *testing.T) {
	assert.Equal(t, "", lines(analysis.Location{}))
	assert.Equal(t, " (line 4)", lines(analysis.Location{Start: 4, End: 4}))
	assert.Equal(t, " (lines 4-9)", lines(analysis.Location{Start: 4, End: 9}))
}

// ---------------------------------------------------------------------------
// Mermaid
// ---------------------------------------------------------------------------

func TestDirectoryMermaid(t *testing.T) {
	out := DirectoryMermaid(sampleDirectory())

	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	assert.Contains(t, out, `["main.go<br/>100.00%"]:::verySimilar`)
	assert.Contains(t, out, `["new.go<br/>added"]:::added`)
	assert.Contains(t, out, `subgraph N`)
	assert.Contains(t, out, `["pkg"]`)
	assert.Contains(t, out, `["a.go<br/>64.00%"]:::partial`)
	assert.Contains(t, out, `["b.go<br/>30.00%"]:::different`)
	assert.Contains(t, out, `["big.go<br/>error"]:::failed`)
	assert.Contains(t, out, `["old.go<br/>removed"]:::removed`)
	assert.Equal(t, 1, strings.Count(out, "  end\n"), "root files are not wrapped")
	assert.Contains(t, out, "classDef verySimilar")

	// Root-level nodes come first and are indented by two spaces.
	rows := strings.Split(out, "\n")
	assert.True(t, strings.HasPrefix(rows[1], "  N"), rows[1])
	assert.Contains(t, rows[1], "main.go")
}

func TestFileMermaid(t *testing.T) {
	out := FileMermaid(renamedComparison())

	assert.True(t, strings.HasPrefix(out, "graph LR\n"))
	assert.Contains(t, out, `N0["app.py<br/>64.00%"]:::partial`)
	assert.Contains(t, out, `N1["function foo"]:::removed`)
	assert.Contains(t, out, "N0 -.-x N1")
	assert.Contains(t, out, `N2["function bar"]:::added`)
	assert.Contains(t, out, "N0 --> N2")

	failed := FileMermaid(&analysis.FileComparison{Path2: "x/y.go", Error: "boom"})
	assert.Contains(t, failed, `N0["y.go<br/>error"]:::failed`)
}

func TestEscape(t *testing.T) {
	assert.Equal(t, "say #quot;hi#quot;", escape(`say "hi"`))
}

// ---------------------------------------------------------------------------
// End to end
// ---------------------------------------------------------------------------

func TestWriteDirectory_FromAnalyzer(t *testing.T) {
	dc, err := analysis.New().CompareDirectories(context.Background(),
		"../../testdata/fixtures/go/before", "../../testdata/fixtures/go/after", nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteDirectory(&buf, FormatText, dc))
	assert.Contains(t, buf.String(), "Files compared:     2")
	assert.Contains(t, buf.String(), "  audit.go\n")

	buf.Reset()
	require.NoError(t, WriteDirectory(&buf, FormatMermaid, dc))
	assert.Contains(t, buf.String(), `["audit.go<br/>added"]:::added`)
}
