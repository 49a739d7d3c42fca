package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/dusk-indust/semdiff/internal/analysis"
	"github.com/dusk-indust/semdiff/internal/structure"
)

// Model types.
const (
	ModelNone   = "none"
	ModelOllama = "ollama"
	ModelVLLM   = "vllm"
)

const defaultModelTimeout = 30 * time.Second

// fileNames are tried in order by Load.
var fileNames = []string{"semdiff.yml", "semdiff.yaml", "semdiff.toml"}

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config holds the settings loaded from semdiff.yml, semdiff.yaml or
// semdiff.toml. Zero or absent values mean "use the default".
type Config struct {
	Model       ModelConfig       `yaml:"model,omitempty" toml:"model,omitempty"`
	Performance PerformanceConfig `yaml:"performance,omitempty" toml:"performance,omitempty"`
	Scoring     ScoringConfig     `yaml:"scoring,omitempty" toml:"scoring,omitempty"`
	Languages   []string          `yaml:"languages,omitempty" toml:"languages,omitempty"`
	Include     []string          `yaml:"include,omitempty" toml:"include,omitempty"`
	Verbose     bool              `yaml:"verbose,omitempty" toml:"verbose,omitempty"`
}

// ModelConfig selects the semantic comparator.
type ModelConfig struct {
	Type       string           `yaml:"type,omitempty" toml:"type,omitempty"`
	Name       string           `yaml:"name,omitempty" toml:"name,omitempty"`
	BaseURL    string           `yaml:"baseUrl,omitempty" toml:"baseUrl,omitempty"`
	Timeout    string           `yaml:"timeout,omitempty" toml:"timeout,omitempty"`
	Generation GenerationConfig `yaml:"generation,omitempty" toml:"generation,omitempty"`
}

// GenerationConfig holds sampling parameters passed to the model.
type GenerationConfig struct {
	MaxTokens   int     `yaml:"maxTokens,omitempty" toml:"maxTokens,omitempty"`
	Temperature float64 `yaml:"temperature,omitempty" toml:"temperature,omitempty"`
	TopP        float64 `yaml:"topP,omitempty" toml:"topP,omitempty"`
}

// PerformanceConfig tunes caching and batch comparison.
type PerformanceConfig struct {
	// CacheEnabled is a pointer so an explicit false survives defaulting.
	CacheEnabled *bool `yaml:"cacheEnabled,omitempty" toml:"cacheEnabled,omitempty"`
	MaxWorkers   int   `yaml:"maxWorkers,omitempty" toml:"maxWorkers,omitempty"`
	MaxFileSize  int64 `yaml:"maxFileSize,omitempty" toml:"maxFileSize,omitempty"`
}

// ScoringConfig overrides individual scoring weights and penalties.
type ScoringConfig struct {
	Semantic   float64 `yaml:"semantic,omitempty" toml:"semantic,omitempty"`
	Structural float64 `yaml:"structural,omitempty" toml:"structural,omitempty"`
	Difference float64 `yaml:"difference,omitempty" toml:"difference,omitempty"`

	AddedFunction   float64 `yaml:"addedFunction,omitempty" toml:"addedFunction,omitempty"`
	RemovedFunction float64 `yaml:"removedFunction,omitempty" toml:"removedFunction,omitempty"`
	AddedClass      float64 `yaml:"addedClass,omitempty" toml:"addedClass,omitempty"`
	RemovedClass    float64 `yaml:"removedClass,omitempty" toml:"removedClass,omitempty"`
	ComplexityUnit  float64 `yaml:"complexityUnit,omitempty" toml:"complexityUnit,omitempty"`

	High   float64 `yaml:"high,omitempty" toml:"high,omitempty"`
	Medium float64 `yaml:"medium,omitempty" toml:"medium,omitempty"`
	Low    float64 `yaml:"low,omitempty" toml:"low,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	enabled := true
	w := analysis.DefaultWeights()
	return &Config{
		Model: ModelConfig{
			Type:    ModelNone,
			Timeout: defaultModelTimeout.String(),
		},
		Performance: PerformanceConfig{
			CacheEnabled: &enabled,
			MaxWorkers:   4,
			MaxFileSize:  1 << 20,
		},
		Scoring: ScoringConfig{
			Semantic:        w.Semantic,
			Structural:      w.Structural,
			Difference:      w.Difference,
			AddedFunction:   w.AddedFunction,
			RemovedFunction: w.RemovedFunction,
			AddedClass:      w.AddedClass,
			RemovedClass:    w.RemovedClass,
			ComplexityUnit:  w.ComplexityUnit,
			High:            w.High,
			Medium:          w.Medium,
			Low:             w.Low,
		},
		Languages: languageNames(structure.KnownLanguages),
	}
}

// Load attempts to read semdiff.yml, semdiff.yaml or semdiff.toml from the
// given directory. Returns the default config (not an error) if no config
// file exists.
func Load(dir string) (*Config, error) {
	for _, name := range fileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return LoadFile(path)
	}
	return Default(), nil
}

// LoadFile reads one config file. The format follows the extension: .toml is
// TOML, anything else YAML.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	d := Default()

	c.Model.Type = strings.ToLower(strings.TrimSpace(c.Model.Type))
	if c.Model.Type == "" {
		c.Model.Type = d.Model.Type
	}
	if c.Model.Timeout == "" {
		c.Model.Timeout = d.Model.Timeout
	}

	if c.Performance.CacheEnabled == nil {
		c.Performance.CacheEnabled = d.Performance.CacheEnabled
	}
	if c.Performance.MaxWorkers <= 0 {
		c.Performance.MaxWorkers = d.Performance.MaxWorkers
	}
	if c.Performance.MaxFileSize <= 0 {
		c.Performance.MaxFileSize = d.Performance.MaxFileSize
	}

	s, ds := &c.Scoring, d.Scoring
	orDefault(&s.Semantic, ds.Semantic)
	orDefault(&s.Structural, ds.Structural)
	orDefault(&s.Difference, ds.Difference)
	orDefault(&s.AddedFunction, ds.AddedFunction)
	orDefault(&s.RemovedFunction, ds.RemovedFunction)
	orDefault(&s.AddedClass, ds.AddedClass)
	orDefault(&s.RemovedClass, ds.RemovedClass)
	orDefault(&s.ComplexityUnit, ds.ComplexityUnit)
	orDefault(&s.High, ds.High)
	orDefault(&s.Medium, ds.Medium)
	orDefault(&s.Low, ds.Low)

	if len(c.Languages) == 0 {
		c.Languages = d.Languages
	}
}

func orDefault(v *float64, def float64) {
	if *v == 0 {
		*v = def
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Model.Type {
	case ModelNone:
	case ModelOllama, ModelVLLM:
		if c.Model.Name == "" {
			return fmt.Errorf("%w: model.name is required for model type %q", ErrInvalid, c.Model.Type)
		}
	default:
		return fmt.Errorf("%w: unknown model type %q", ErrInvalid, c.Model.Type)
	}
	if _, err := c.ModelTimeout(); err != nil {
		return err
	}
	for _, name := range c.Languages {
		if structure.ParseLanguage(name) == "" {
			return fmt.Errorf("%w: empty language name", ErrInvalid)
		}
	}
	for _, p := range c.Include {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("%w: include pattern %q", ErrInvalid, p)
		}
	}
	return nil
}

// ModelTimeout parses model.timeout.
func (c *Config) ModelTimeout() (time.Duration, error) {
	if c.Model.Timeout == "" {
		return defaultModelTimeout, nil
	}
	d, err := time.ParseDuration(c.Model.Timeout)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: model.timeout %q", ErrInvalid, c.Model.Timeout)
	}
	return d, nil
}

// CacheEnabled reports performance.cacheEnabled, true when unset.
func (c *Config) CacheEnabled() bool {
	return c.Performance.CacheEnabled == nil || *c.Performance.CacheEnabled
}

// ScoringWeights converts the scoring section to analysis weights.
func (c *Config) ScoringWeights() analysis.Weights {
	s := c.Scoring
	return analysis.Weights{
		Semantic:        s.Semantic,
		Structural:      s.Structural,
		Difference:      s.Difference,
		AddedFunction:   s.AddedFunction,
		RemovedFunction: s.RemovedFunction,
		AddedClass:      s.AddedClass,
		RemovedClass:    s.RemovedClass,
		ComplexityUnit:  s.ComplexityUnit,
		High:            s.High,
		Medium:          s.Medium,
		Low:             s.Low,
	}
}

// SupportedLanguages returns the configured languages in canonical form.
// Languages without a grammar are allowed and get the regex fallback.
func (c *Config) SupportedLanguages() []structure.Language {
	out := make([]structure.Language, 0, len(c.Languages))
	for _, name := range c.Languages {
		out = append(out, structure.ParseLanguage(name))
	}
	return out
}

// Supports reports whether lang is among the configured languages.
func (c *Config) Supports(lang structure.Language) bool {
	return slices.Contains(c.SupportedLanguages(), structure.ParseLanguage(string(lang)))
}

// AnalyzerOptions returns the analysis options this config implies. The
// semantic comparator is not included; see the model section.
func (c *Config) AnalyzerOptions() []analysis.Option {
	return []analysis.Option{
		analysis.WithWeights(c.ScoringWeights()),
		analysis.WithCacheEnabled(c.CacheEnabled()),
		analysis.WithMaxWorkers(c.Performance.MaxWorkers),
		analysis.WithMaxFileSize(c.Performance.MaxFileSize),
	}
}

func languageNames(langs []structure.Language) []string {
	out := make([]string, len(langs))
	for i, l := range langs {
		out[i] = string(l)
	}
	return out
}
