package structure

import (
	"fmt"
	"io"
	"log"
)

// Extractor turns source text into a CodeStructure using the backend the
// registry resolves for the language.
type Extractor struct {
	registry *Registry
	logger   *log.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithExtractorLogger sets the logger used to report extraction failures.
func WithExtractorLogger(l *log.Logger) ExtractorOption {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewExtractor creates an Extractor backed by registry. A nil registry gets a
// fresh one.
func NewExtractor(registry *Registry, opts ...ExtractorOption) *Extractor {
	if registry == nil {
		registry = NewRegistry()
	}
	e := &Extractor{
		registry: registry,
		logger:   log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the registry backing this extractor.
func (e *Extractor) Registry() *Registry { return e.registry }

// Extract never fails: any backend error or panic is logged and reported as
// nil, meaning structural analysis is unavailable. The backend is never
// switched per call, so both sides of a comparison are parsed the same way.
func (e *Extractor) Extract(source []byte, lang Language) *CodeStructure {
	b := e.registry.Resolve(lang)
	cs, err := safeExtract(b, source)
	if err != nil {
		e.logger.Printf("extract: %s backend failed lang=%s err=%v", b.Capability(), lang, err)
		return nil
	}
	return cs
}

func safeExtract(b Backend, source []byte) (cs *CodeStructure, err error) {
	defer func() {
		if r := recover(); r != nil {
			cs = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return b.Extract(source)
}
