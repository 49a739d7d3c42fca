package mcptools

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/semdiff/internal/analysis"
	"github.com/dusk-indust/semdiff/internal/structure"
)

// DiffService holds the analyzer used by MCP tool handlers.
type DiffService struct {
	analyzer  *analysis.Analyzer
	languages []structure.Language
}

// NewDiffService creates a DiffService. Requests naming a language outside
// languages are rejected; an empty list accepts every language.
func NewDiffService(analyzer *analysis.Analyzer, languages []structure.Language) *DiffService {
	return &DiffService{analyzer: analyzer, languages: languages}
}

func (s *DiffService) language(name string) (structure.Language, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("language is required")
	}
	lang := structure.ParseLanguage(name)
	if len(s.languages) > 0 && !slices.Contains(s.languages, lang) {
		return "", fmt.Errorf("unsupported language %q", name)
	}
	return lang, nil
}

// AnalyzeCode runs the full analysis pipeline on two code versions.
func (s *DiffService) AnalyzeCode(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnalyzeCodeInput,
) (*mcp.CallToolResult, AnalyzeCodeOutput, error) {
	lang, err := s.language(input.Language)
	if err != nil {
		return nil, AnalyzeCodeOutput{}, err
	}
	if input.Code1 == "" && input.Code2 == "" {
		return nil, AnalyzeCodeOutput{}, analysis.ErrEmptyInput
	}

	return nil, AnalyzeCodeOutput{Result: s.analyzer.Analyze(ctx, input.Code1, input.Code2, lang)}, nil
}

// ParseCode extracts the structure of one code version.
func (s *DiffService) ParseCode(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ParseCodeInput,
) (*mcp.CallToolResult, ParseCodeOutput, error) {
	lang, err := s.language(input.Language)
	if err != nil {
		return nil, ParseCodeOutput{}, err
	}

	return nil, ParseCodeOutput{
		Structure:  s.analyzer.Parse(input.Code, lang),
		Capability: s.analyzer.Registry().Capability(lang),
	}, nil
}

// CompareStructures diffs the structure of two code versions without the
// semantic comparator.
func (s *DiffService) CompareStructures(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input CompareStructuresInput,
) (*mcp.CallToolResult, CompareStructuresOutput, error) {
	lang, err := s.language(input.Language)
	if err != nil {
		return nil, CompareStructuresOutput{}, err
	}

	before := s.analyzer.Parse(input.Code1, lang)
	after := s.analyzer.Parse(input.Code2, lang)
	return nil, CompareStructuresOutput{Comparison: s.analyzer.CompareStructures(before, after)}, nil
}

// CompareFiles analyzes two files on the server's filesystem.
func (s *DiffService) CompareFiles(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CompareFilesInput,
) (*mcp.CallToolResult, CompareFilesOutput, error) {
	if input.Path1 == "" || input.Path2 == "" {
		return nil, CompareFilesOutput{}, fmt.Errorf("path1 and path2 are required")
	}

	var lang structure.Language
	if input.Language != "" {
		l, err := s.language(input.Language)
		if err != nil {
			return nil, CompareFilesOutput{}, err
		}
		lang = l
	}

	fc, err := s.analyzer.CompareFiles(ctx, input.Path1, input.Path2, lang)
	if err != nil {
		return nil, CompareFilesOutput{}, fmt.Errorf("compare files: %w", err)
	}
	return nil, CompareFilesOutput{Comparison: fc}, nil
}

// CompareDirectories analyzes every file the two trees have in common.
func (s *DiffService) CompareDirectories(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CompareDirectoriesInput,
) (*mcp.CallToolResult, CompareDirectoriesOutput, error) {
	if input.Dir1 == "" || input.Dir2 == "" {
		return nil, CompareDirectoriesOutput{}, fmt.Errorf("dir1 and dir2 are required")
	}

	dc, err := s.analyzer.CompareDirectories(ctx, input.Dir1, input.Dir2, input.Patterns)
	if err != nil {
		return nil, CompareDirectoriesOutput{}, fmt.Errorf("compare directories: %w", err)
	}
	return nil, CompareDirectoriesOutput{Comparison: dc}, nil
}

// CacheStats reports the analyzer's counters.
func (s *DiffService) CacheStats(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ CacheStatsInput,
) (*mcp.CallToolResult, CacheStatsOutput, error) {
	return nil, CacheStatsOutput{Stats: s.analyzer.CacheStatistics()}, nil
}

// ClearCache drops every cached analysis.
func (s *DiffService) ClearCache(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ClearCacheInput,
) (*mcp.CallToolResult, ClearCacheOutput, error) {
	return nil, ClearCacheOutput{Removed: s.analyzer.ClearCache()}, nil
}

// ListLanguages reports the accepted languages, or every language with a
// linked grammar when unrestricted, and the backend each one resolves to.
func (s *DiffService) ListLanguages(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListLanguagesInput,
) (*mcp.CallToolResult, ListLanguagesOutput, error) {
	langs := slices.Clone(structure.KnownLanguages)
	if len(s.languages) > 0 {
		langs = slices.Clone(s.languages)
	}
	slices.Sort(langs)

	reg := s.analyzer.Registry()
	out := ListLanguagesOutput{Languages: make([]LanguageInfo, 0, len(langs))}
	for _, l := range langs {
		out.Languages = append(out.Languages, LanguageInfo{Language: l, Capability: reg.Capability(l)})
	}
	return nil, out, nil
}
