package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sort"

	"github.com/dusk-indust/semdiff/internal/analysis"
	"github.com/dusk-indust/semdiff/internal/config"
	"github.com/dusk-indust/semdiff/internal/export"
	"github.com/dusk-indust/semdiff/internal/langdetect"
	"github.com/dusk-indust/semdiff/internal/llm"
	"github.com/dusk-indust/semdiff/internal/mcptools"
	"github.com/dusk-indust/semdiff/internal/semantic"
	"github.com/dusk-indust/semdiff/internal/structure"
)

// app holds everything a command needs, built once from flags and config.
type app struct {
	cfg      *config.Config
	analyzer *analysis.Analyzer
	logger   *log.Logger
	language structure.Language
	format   export.Format
}

func newApp(flags cliFlags, stderr io.Writer) (*app, error) {
	cfg, err := loadConfig(flags.ConfigPath)
	if err != nil {
		return nil, err
	}

	logger := log.New(io.Discard, "", 0)
	if flags.Verbose || cfg.Verbose {
		logger = log.New(stderr, "semdiff ", log.LstdFlags)
	}

	format, err := export.ParseFormat(flags.Format)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, format: format}
	if flags.Language != "" {
		a.language = structure.ParseLanguage(flags.Language)
		if !cfg.Supports(a.language) {
			return nil, fmt.Errorf("unsupported language %q", flags.Language)
		}
	}

	comparator, err := newComparator(cfg, logger)
	if err != nil {
		return nil, err
	}
	timeout, err := cfg.ModelTimeout()
	if err != nil {
		return nil, err
	}

	opts := append(cfg.AnalyzerOptions(),
		analysis.WithLogger(logger),
		analysis.WithSemanticTimeout(timeout),
	)
	if comparator != nil {
		opts = append(opts, analysis.WithComparator(comparator))
	}
	if flags.NoCache {
		opts = append(opts, analysis.WithCacheEnabled(false))
	}
	a.analyzer = analysis.New(opts...)
	return a, nil
}

// loadConfig reads path, or the config file in the working directory when
// path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load(".")
}

// newComparator builds the LLM adapter named by the model section. It
// returns nil for model type "none".
func newComparator(cfg *config.Config, logger *log.Logger) (semantic.Comparator, error) {
	if cfg.Model.Type == config.ModelNone {
		return nil, nil
	}
	timeout, err := cfg.ModelTimeout()
	if err != nil {
		return nil, err
	}

	opts := []llm.Option{
		llm.WithTimeout(timeout),
		llm.WithLogger(logger),
		llm.WithGeneration(llm.Generation{
			MaxTokens:   cfg.Model.Generation.MaxTokens,
			Temperature: cfg.Model.Generation.Temperature,
			TopP:        cfg.Model.Generation.TopP,
		}),
	}
	if cfg.Model.BaseURL != "" {
		opts = append(opts, llm.WithBaseURL(cfg.Model.BaseURL))
	}

	client, err := llm.New(llm.Provider(cfg.Model.Type), cfg.Model.Name, opts...)
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	logger.Printf("model: using %s model=%s", client.Provider(), client.Model())
	return client, nil
}

func (a *app) compare(ctx context.Context, w io.Writer, path1, path2 string) error {
	fc, err := a.analyzer.CompareFiles(ctx, path1, path2, a.language)
	if err != nil {
		return err
	}
	return export.WriteFile(w, a.format, fc)
}

func (a *app) dirs(ctx context.Context, w io.Writer, dir1, dir2 string, patterns []string) error {
	if len(patterns) == 0 {
		patterns = a.cfg.Include
	}
	if len(patterns) == 0 {
		patterns = langdetect.Patterns(a.cfg.SupportedLanguages())
	}

	dc, err := a.analyzer.CompareDirectories(ctx, dir1, dir2, patterns)
	if err != nil {
		return err
	}
	return export.WriteDirectory(w, a.format, dc)
}

// parsedFile is the output of the parse command.
type parsedFile struct {
	Path       string                   `json:"path"`
	Language   structure.Language       `json:"language"`
	Capability structure.Capability     `json:"capability"`
	Structure  *structure.CodeStructure `json:"structure"`
}

func (a *app) parse(w io.Writer, path string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	lang := a.language
	if lang == "" {
		detected, ok := langdetect.Detect(path, source)
		if !ok {
			return fmt.Errorf("%w: %s", analysis.ErrUnknownLanguage, path)
		}
		lang = detected
	}

	cs := a.analyzer.Parse(string(source), lang)
	if cs == nil {
		return fmt.Errorf("could not parse %s as %s", path, lang)
	}
	return writeJSON(w, parsedFile{
		Path:       path,
		Language:   lang,
		Capability: a.analyzer.Registry().Capability(lang),
		Structure:  cs,
	})
}

func (a *app) languages(w io.Writer) error {
	reg := a.analyzer.Registry()
	langs := a.cfg.SupportedLanguages()
	sort.Slice(langs, func(i, j int) bool { return langs[i] < langs[j] })
	for _, l := range langs {
		fmt.Fprintf(w, "%-12s %s\n", l, reg.Capability(l))
	}
	return nil
}

func (a *app) serveMCP(ctx context.Context, httpAddr string) error {
	svc := mcptools.NewDiffService(a.analyzer, a.cfg.SupportedLanguages())
	server := mcptools.NewServer(svc)
	if httpAddr != "" {
		a.logger.Printf("mcp: serving http addr=%s", httpAddr)
		return mcptools.RunHTTP(ctx, server, httpAddr)
	}
	return mcptools.RunStdio(ctx, server)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
