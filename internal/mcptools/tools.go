package mcptools

import (
	"github.com/dusk-indust/semdiff/internal/analysis"
	"github.com/dusk-indust/semdiff/internal/structure"
)

// --- MCP Tool Input Types ---
// These structs define the JSON schema for each MCP tool's input.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// AnalyzeCodeInput is the input for the analyze_code MCP tool.
type AnalyzeCodeInput struct {
	Code1    string `json:"code1" jsonschema:"the original version of the code"`
	Code2    string `json:"code2" jsonschema:"the modified version of the code"`
	Language string `json:"language" jsonschema:"source language: python, javascript, typescript, java, go, rust"`
}

// AnalyzeCodeOutput is the result of the analyze_code MCP tool.
type AnalyzeCodeOutput struct {
	Result *analysis.Result `json:"result"`
}

// ParseCodeInput is the input for the parse_code MCP tool.
type ParseCodeInput struct {
	Code     string `json:"code" jsonschema:"source text to parse"`
	Language string `json:"language" jsonschema:"source language"`
}

// ParseCodeOutput is the result of the parse_code MCP tool. Structure is
// null when the code could not be parsed.
type ParseCodeOutput struct {
	Structure  *structure.CodeStructure `json:"structure"`
	Capability structure.Capability     `json:"capability"`
}

// CompareStructuresInput is the input for the compare_structures MCP tool.
type CompareStructuresInput struct {
	Code1    string `json:"code1" jsonschema:"the original version of the code"`
	Code2    string `json:"code2" jsonschema:"the modified version of the code"`
	Language string `json:"language" jsonschema:"source language"`
}

// CompareStructuresOutput is the result of the compare_structures MCP tool.
// Comparison is null when either version could not be parsed.
type CompareStructuresOutput struct {
	Comparison *structure.StructuralComparison `json:"comparison"`
}

// CompareFilesInput is the input for the compare_files MCP tool.
type CompareFilesInput struct {
	Path1    string `json:"path1" jsonschema:"path to the original file"`
	Path2    string `json:"path2" jsonschema:"path to the modified file"`
	Language string `json:"language,omitempty" jsonschema:"source language (default: detected from the file names and contents)"`
}

// CompareFilesOutput is the result of the compare_files MCP tool.
type CompareFilesOutput struct {
	Comparison *analysis.FileComparison `json:"comparison"`
}

// CompareDirectoriesInput is the input for the compare_directories MCP tool.
type CompareDirectoriesInput struct {
	Dir1     string   `json:"dir1" jsonschema:"the original source tree"`
	Dir2     string   `json:"dir2" jsonschema:"the modified source tree"`
	Patterns []string `json:"patterns,omitempty" jsonschema:"doublestar globs on slash-separated relative paths (default: every supported source extension)"`
}

// CompareDirectoriesOutput is the result of the compare_directories MCP tool.
type CompareDirectoriesOutput struct {
	Comparison *analysis.DirectoryComparison `json:"comparison"`
}

// CacheStatsInput is the input for the cache_stats MCP tool.
type CacheStatsInput struct{}

// CacheStatsOutput is the result of the cache_stats MCP tool.
type CacheStatsOutput struct {
	Stats analysis.Stats `json:"stats"`
}

// ClearCacheInput is the input for the clear_cache MCP tool.
type ClearCacheInput struct{}

// ClearCacheOutput is the result of the clear_cache MCP tool.
type ClearCacheOutput struct {
	Removed int `json:"removed"`
}

// ListLanguagesInput is the input for the list_languages MCP tool.
type ListLanguagesInput struct{}

// LanguageInfo describes one language and how it is parsed.
type LanguageInfo struct {
	Language   structure.Language   `json:"language"`
	Capability structure.Capability `json:"capability"`
}

// ListLanguagesOutput is the result of the list_languages MCP tool.
type ListLanguagesOutput struct {
	Languages []LanguageInfo `json:"languages"`
}
