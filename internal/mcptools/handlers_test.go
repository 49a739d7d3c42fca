package mcptools

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/semdiff/internal/analysis"
	"github.com/dusk-indust/semdiff/internal/structure"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

const (
	fooSource = "def foo():\n    return 1\n"
	barSource = "def bar():\n    return 1\n"
)

// fixturePath returns the absolute path of a test fixture. Tests run from
// internal/mcptools/, so the relative path is ../../testdata/fixtures/...
func fixturePath(t *testing.T, rel string) string {
	t.Helper()
	abs, err := filepath.Abs(filepath.Join("../../testdata/fixtures", rel))
	require.NoError(t, err)
	return abs
}

func newService(langs ...structure.Language) *DiffService {
	return NewDiffService(analysis.New(), langs)
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func TestDiffService_AnalyzeCode(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, out, err := svc.AnalyzeCode(ctx, nil, AnalyzeCodeInput{Code1: fooSource, Code2: barSource, Language: "Python"})
	require.NoError(t, err)
	require.NotNil(t, out.Result)
	assert.InDelta(t, 0.64, out.Result.SimilarityScore, 1e-9)
	assert.Len(t, out.Result.Differences, 2)
	assert.False(t, out.Result.CacheHit)

	_, again, err := svc.AnalyzeCode(ctx, nil, AnalyzeCodeInput{Code1: fooSource, Code2: barSource, Language: "py"})
	require.NoError(t, err)
	assert.True(t, again.Result.CacheHit, "language aliases share the cache entry")
}

func TestDiffService_AnalyzeCode_Validation(t *testing.T) {
	svc := newService(structure.LangPython, structure.LangGo)
	ctx := context.Background()

	_, _, err := svc.AnalyzeCode(ctx, nil, AnalyzeCodeInput{Code1: "a", Code2: "b"})
	assert.ErrorContains(t, err, "language is required")

	_, _, err = svc.AnalyzeCode(ctx, nil, AnalyzeCodeInput{Code1: "a", Code2: "b", Language: "rust"})
	assert.ErrorContains(t, err, `unsupported language "rust"`)

	_, _, err = svc.AnalyzeCode(ctx, nil, AnalyzeCodeInput{Language: "go"})
	assert.ErrorIs(t, err, analysis.ErrEmptyInput)

	_, out, err := svc.AnalyzeCode(ctx, nil, AnalyzeCodeInput{Code2: "package main\n", Language: "golang"})
	require.NoError(t, err)
	assert.NotNil(t, out.Result)
}

func TestDiffService_ParseCode(t *testing.T) {
	svc := newService()

	_, out, err := svc.ParseCode(context.Background(), nil, ParseCodeInput{Code: fooSource, Language: "python"})
	require.NoError(t, err)
	require.NotNil(t, out.Structure)
	assert.Equal(t, structure.CapGrammar, out.Capability)
	assert.Equal(t, []string{"foo"}, out.Structure.FunctionNames())

	_, unknown, err := svc.ParseCode(context.Background(), nil, ParseCodeInput{Code: "x", Language: "cobol"})
	require.NoError(t, err)
	assert.Equal(t, structure.CapFallback, unknown.Capability)
}

func TestDiffService_CompareStructures(t *testing.T) {
	svc := newService()

	_, out, err := svc.CompareStructures(context.Background(), nil,
		CompareStructuresInput{Code1: fooSource, Code2: barSource, Language: "python"})
	require.NoError(t, err)
	require.NotNil(t, out.Comparison)
	assert.Equal(t, []string{"bar"}, out.Comparison.Functions.Added)
	assert.Equal(t, []string{"foo"}, out.Comparison.Functions.Removed)
	assert.Zero(t, svc.analyzer.CacheStatistics().TotalAnalyses, "structural comparison is not an analysis")
}

func TestDiffService_CompareFiles(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, out, err := svc.CompareFiles(ctx, nil, CompareFilesInput{
		Path1: fixturePath(t, "python/before.py"),
		Path2: fixturePath(t, "python/after.py"),
	})
	require.NoError(t, err)
	assert.Equal(t, structure.LangPython, out.Comparison.Language)
	require.NotNil(t, out.Comparison.Result)

	_, _, err = svc.CompareFiles(ctx, nil, CompareFilesInput{Path1: fixturePath(t, "python/before.py")})
	assert.ErrorContains(t, err, "path1 and path2 are required")

	_, _, err = svc.CompareFiles(ctx, nil, CompareFilesInput{
		Path1: fixturePath(t, "python/missing.py"),
		Path2: fixturePath(t, "python/after.py"),
	})
	assert.ErrorContains(t, err, "compare files")
}

func TestDiffService_CompareDirectories(t *testing.T) {
	svc := newService()

	_, out, err := svc.CompareDirectories(context.Background(), nil, CompareDirectoriesInput{
		Dir1: fixturePath(t, "go/before"),
		Dir2: fixturePath(t, "go/after"),
	})
	require.NoError(t, err)
	assert.Len(t, out.Comparison.Files, 2)
	assert.Equal(t, []string{"audit.go"}, out.Comparison.OnlyInSecond)

	_, _, err = svc.CompareDirectories(context.Background(), nil, CompareDirectoriesInput{Dir1: "a"})
	assert.ErrorContains(t, err, "dir1 and dir2 are required")
}

func TestDiffService_CacheTools(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	for _, code := range []string{fooSource, barSource} {
		_, _, err := svc.AnalyzeCode(ctx, nil, AnalyzeCodeInput{Code1: code, Code2: code, Language: "python"})
		require.NoError(t, err)
	}

	_, stats, err := svc.CacheStats(ctx, nil, CacheStatsInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Stats.TotalAnalyses)
	assert.Equal(t, 2, stats.Stats.CacheEntries)

	_, cleared, err := svc.ClearCache(ctx, nil, ClearCacheInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, cleared.Removed)

	_, stats, err = svc.CacheStats(ctx, nil, CacheStatsInput{})
	require.NoError(t, err)
	assert.Zero(t, stats.Stats.CacheEntries)
	assert.Equal(t, 2, stats.Stats.TotalAnalyses)
}

func TestDiffService_ListLanguages(t *testing.T) {
	_, all, err := newService().ListLanguages(context.Background(), nil, ListLanguagesInput{})
	require.NoError(t, err)
	require.Len(t, all.Languages, len(structure.KnownLanguages))
	for _, l := range all.Languages {
		assert.Equal(t, structure.CapGrammar, l.Capability, "language %s", l.Language)
	}

	_, some, err := newService(structure.LangRust, structure.Language("cobol")).
		ListLanguages(context.Background(), nil, ListLanguagesInput{})
	require.NoError(t, err)
	assert.Equal(t, []LanguageInfo{
		{Language: "cobol", Capability: structure.CapFallback},
		{Language: structure.LangRust, Capability: structure.CapGrammar},
	}, some.Languages)
}
