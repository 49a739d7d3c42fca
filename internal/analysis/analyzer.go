package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/semdiff/internal/semantic"
	"github.com/dusk-indust/semdiff/internal/structure"
)

var (
	// ErrNoComparator marks an analysis run without a semantic comparator.
	ErrNoComparator = errors.New("analysis: semantic comparator not configured")

	// ErrEmptySemanticResult is recorded when the comparator returns neither
	// a result nor an error.
	ErrEmptySemanticResult = errors.New("analysis: semantic comparator returned no result")

	// ErrUnusableSemanticResult is recorded when the payload has no score and
	// no changes; it contributes nothing and counts as absent.
	ErrUnusableSemanticResult = errors.New("analysis: semantic result has no usable fields")
)

// StructuralAnalysis is the structural side of a Result. Before or After is
// nil when that version could not be parsed; Comparison is then nil too.
type StructuralAnalysis struct {
	Before     *structure.CodeStructure        `json:"before"`
	After      *structure.CodeStructure        `json:"after"`
	Comparison *structure.StructuralComparison `json:"comparison"`
	Error      string                          `json:"error,omitempty"`
}

// SemanticAnalysis is the semantic side of a Result: the comparator payload
// as received, or the reason it is missing.
type SemanticAnalysis struct {
	Comparison map[string]any `json:"comparison,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Result is a finished analysis of two code versions.
type Result struct {
	SimilarityScore float64            `json:"similarityScore"`
	Differences     []Difference       `json:"differences"`
	Summary         string             `json:"summary"`
	Structural      StructuralAnalysis `json:"structuralAnalysis"`
	Semantic        SemanticAnalysis   `json:"semanticAnalysis"`
	Recommendations []string           `json:"recommendations"`
	Quality         Quality            `json:"quality"`
	ExecutionTime   time.Duration      `json:"executionTime"`
	CacheHit        bool               `json:"cacheHit"`
}

// Stats are the analyzer's running counters.
type Stats struct {
	TotalAnalyses      int           `json:"totalAnalyses"`
	CacheHits          int           `json:"cacheHits"`
	StructuralAnalyses int           `json:"structuralAnalyses"`
	SemanticAnalyses   int           `json:"semanticAnalyses"`
	TotalTime          time.Duration `json:"totalTime"`
	CacheHitRate       float64       `json:"cacheHitRate"`
	AverageTime        time.Duration `json:"averageTime"`
	CacheEntries       int           `json:"cacheEntries"`
	CacheEnabled       bool          `json:"cacheEnabled"`
}

// Analyzer runs the full comparison pipeline. Safe for concurrent use.
type Analyzer struct {
	registry        *structure.Registry
	extractor       *structure.Extractor
	extract         func([]byte, structure.Language) *structure.CodeStructure
	comparator      semantic.Comparator
	weights         Weights
	cache           *Cache
	semanticTimeout time.Duration
	maxWorkers      int
	maxFileSize     int64
	logger          *log.Logger

	mu           sync.Mutex
	cacheEnabled bool
	stats        Stats
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithRegistry shares a grammar registry between analyzers.
func WithRegistry(r *structure.Registry) Option {
	return func(a *Analyzer) {
		a.registry = r
	}
}

// WithComparator sets the external semantic comparator. Without one every
// analysis is structural only.
func WithComparator(c semantic.Comparator) Option {
	return func(a *Analyzer) {
		a.comparator = c
	}
}

// WithWeights replaces the scoring policy.
func WithWeights(w Weights) Option {
	return func(a *Analyzer) {
		a.weights = w
	}
}

// WithCacheEnabled turns result caching on or off. Caching is on by default.
func WithCacheEnabled(enabled bool) Option {
	return func(a *Analyzer) {
		a.cacheEnabled = enabled
	}
}

// WithSemanticTimeout bounds each semantic comparison. A comparator that
// misses the deadline counts as unavailable.
func WithSemanticTimeout(d time.Duration) Option {
	return func(a *Analyzer) {
		a.semanticTimeout = d
	}
}

// WithMaxWorkers bounds the files compared concurrently by
// CompareDirectories.
func WithMaxWorkers(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.maxWorkers = n
		}
	}
}

// WithMaxFileSize sets the largest file CompareFiles accepts. Zero disables
// the check.
func WithMaxFileSize(n int64) Option {
	return func(a *Analyzer) {
		a.maxFileSize = n
	}
}

// WithLogger sets the logger for the analyzer and the registry and
// extractor it creates.
func WithLogger(l *log.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates an Analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		weights:      DefaultWeights(),
		cache:        NewCache(),
		cacheEnabled: true,
		maxWorkers:   4,
		maxFileSize:  1 << 20,
		logger:       log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.registry == nil {
		a.registry = structure.NewRegistry(structure.WithRegistryLogger(a.logger))
	}
	a.extractor = structure.NewExtractor(a.registry, structure.WithExtractorLogger(a.logger))
	a.extract = a.extractor.Extract
	return a
}

// Registry returns the grammar registry in use.
func (a *Analyzer) Registry() *structure.Registry { return a.registry }

// Parse extracts the structure of source. Nil means structural analysis is
// unavailable for this input.
func (a *Analyzer) Parse(source string, lang structure.Language) *structure.CodeStructure {
	return a.extract([]byte(source), lang)
}

// CompareStructures diffs two snapshots. It returns nil if either is nil.
func (a *Analyzer) CompareStructures(before, after *structure.CodeStructure) *structure.StructuralComparison {
	if before == nil || after == nil {
		return nil
	}
	return structure.Compare(before, after)
}

// Analyze compares code1 with code2. It always returns a result: missing
// sources lower Result.Quality instead of failing. Both extractions and the
// semantic comparison run concurrently. Results are cached unless ctx ended
// before the analysis finished.
func (a *Analyzer) Analyze(ctx context.Context, code1, code2 string, lang structure.Language) *Result {
	start := time.Now()
	key := CacheKey(code1, code2, lang)

	a.mu.Lock()
	a.stats.TotalAnalyses++
	enabled := a.cacheEnabled
	a.mu.Unlock()

	if enabled {
		if r, ok := a.cache.Get(key); ok {
			a.mu.Lock()
			a.stats.CacheHits++
			a.mu.Unlock()
			a.logger.Printf("analyze: cache hit lang=%s key=%s", lang, key[:12])
			return r
		}
	}

	var (
		before, after *structure.CodeStructure
		sem           *semantic.Result
		semErr        error
		g             errgroup.Group
	)
	g.Go(func() error {
		before = a.Parse(code1, lang)
		return nil
	})
	g.Go(func() error {
		after = a.Parse(code2, lang)
		return nil
	})
	g.Go(func() error {
		sem, semErr = a.compareSemantics(ctx, code1, code2, lang)
		return nil
	})
	_ = g.Wait()

	res := &Result{
		Differences: []Difference{},
		Structural:  StructuralAnalysis{Before: before, After: after},
	}

	sc := a.CompareStructures(before, after)
	if sc != nil {
		res.Structural.Comparison = sc
	} else {
		res.Structural.Error = "failed to parse code structure"
		a.logger.Printf("analyze: structural analysis unavailable lang=%s", lang)
	}

	if semErr != nil {
		res.Semantic.Error = semErr.Error()
		if !errors.Is(semErr, ErrNoComparator) {
			a.logger.Printf("analyze: semantic comparison failed lang=%s err=%v", lang, semErr)
		}
		sem = nil
	} else {
		res.Semantic.Comparison = payloadOf(sem)
	}

	res.Quality = qualityOf(sc != nil, sem != nil)
	if res.Quality != QualityHigh {
		a.logger.Printf("analyze: degraded quality=%s lang=%s", res.Quality, lang)
	}

	if sc == nil && sem == nil {
		a.logger.Printf("analyze: warning: analysis could not be completed lang=%s", lang)
		res.SimilarityScore = neutralSimilarity
		res.Summary = incompleteSummary
		res.Recommendations = []string{"Check that both versions parse and that the semantic comparator is reachable, then retry"}
	} else {
		res.Differences = Synthesize(sc, before, after, sem)
		res.SimilarityScore = a.weights.Score(sc, sem, res.Differences)
		res.Summary = Summary(res.SimilarityScore, res.Differences, sc)
		res.Recommendations = Recommendations(res.Differences, sc, sem)
	}
	res.ExecutionTime = time.Since(start)

	a.mu.Lock()
	if sc != nil {
		a.stats.StructuralAnalyses++
	}
	if sem != nil {
		a.stats.SemanticAnalyses++
	}
	a.stats.TotalTime += res.ExecutionTime
	enabled = a.cacheEnabled
	a.mu.Unlock()

	if enabled && ctx.Err() == nil {
		a.cache.Put(key, res)
	}
	return res
}

// compareSemantics calls the comparator under the semantic timeout. The call
// runs in its own goroutine so a comparator that ignores ctx cannot hold the
// analysis past the deadline. Panics are reported as errors.
func (a *Analyzer) compareSemantics(ctx context.Context, code1, code2 string, lang structure.Language) (*semantic.Result, error) {
	if a.comparator == nil {
		return nil, ErrNoComparator
	}
	if a.semanticTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.semanticTimeout)
		defer cancel()
	}

	type outcome struct {
		r   *semantic.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		var o outcome
		defer func() {
			if rec := recover(); rec != nil {
				o = outcome{err: fmt.Errorf("analysis: semantic comparator panicked: %v", rec)}
			}
			done <- o
		}()
		o.r, o.err = a.comparator.Compare(ctx, code1, code2, lang)
	}()

	select {
	case o := <-done:
		if o.err != nil {
			return nil, o.err
		}
		if o.r == nil {
			return nil, ErrEmptySemanticResult
		}
		if o.r.Empty() {
			return nil, ErrUnusableSemanticResult
		}
		return o.r, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("analysis: semantic comparison abandoned: %w", ctx.Err())
	}
}

// payloadOf returns the raw comparator payload, rebuilding it from the
// typed fields when the comparator did not keep one.
func payloadOf(r *semantic.Result) map[string]any {
	if r.Raw != nil {
		return r.Raw
	}
	m := map[string]any{}
	if s, ok := r.Similarity(); ok {
		m[semantic.KeySimilarity] = s
	}
	if len(r.FunctionalChanges) > 0 {
		m[semantic.KeyFunctionalChanges] = r.FunctionalChanges
	}
	if len(r.LogicalDifferences) > 0 {
		m[semantic.KeyLogicalDifferences] = r.LogicalDifferences
	}
	return m
}

// CacheStatistics reports counters and derived rates.
func (a *Analyzer) CacheStatistics() Stats {
	a.mu.Lock()
	s := a.stats
	s.CacheEnabled = a.cacheEnabled
	a.mu.Unlock()

	s.CacheEntries = a.cache.Len()
	if s.TotalAnalyses > 0 {
		s.CacheHitRate = float64(s.CacheHits) / float64(s.TotalAnalyses)
		s.AverageTime = s.TotalTime / time.Duration(s.TotalAnalyses)
	}
	return s
}

// ClearCache drops every cached result and reports how many were dropped.
func (a *Analyzer) ClearCache() int {
	n := a.cache.Clear()
	a.logger.Printf("analyze: cache cleared entries=%d", n)
	return n
}

// SetCacheEnabled turns caching on or off. Disabling also clears the cache.
func (a *Analyzer) SetCacheEnabled(enabled bool) {
	a.mu.Lock()
	a.cacheEnabled = enabled
	a.mu.Unlock()
	if !enabled {
		a.ClearCache()
	}
}
