package structure

import (
	"bytes"
	"errors"
	"log"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBackend lets tests force backend failures.
type stubBackend struct {
	capability Capability
	lang       Language
	extract    func([]byte) (*CodeStructure, error)
}

func (s *stubBackend) Capability() Capability { return s.capability }
func (s *stubBackend) Language() Language     { return s.lang }
func (s *stubBackend) Extract(src []byte) (*CodeStructure, error) {
	return s.extract(src)
}

func registryWith(t *testing.T, logger *log.Logger, b Backend) *Registry {
	t.Helper()
	r := NewRegistry(WithRegistryLogger(logger))
	r.backends[b.Language()] = b
	return r
}

func TestExtractor_UsesResolvedBackend(t *testing.T) {
	e := NewExtractor(nil)
	cs := e.Extract(readFixture(t, "testdata/fixtures/python/before.py"), LangPython)
	require.NotNil(t, cs)
	assert.Equal(t, LangPython, cs.Language)
	_, ok := cs.FindFunction("load")
	assert.True(t, ok)
	assert.Equal(t, CapGrammar, e.Registry().Capability(LangPython))
}

func TestExtractor_GrammarErrorIsAbsent(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	r := registryWith(t, logger, &stubBackend{
		capability: CapGrammar,
		lang:       LangPython,
		extract: func([]byte) (*CodeStructure, error) {
			return nil, ErrNilTree
		},
	})

	cs := NewExtractor(r, WithExtractorLogger(logger)).Extract([]byte("def f(x):\n    return x\n"), LangPython)
	assert.Nil(t, cs, "no per-call switch to the regex backend")
	assert.Contains(t, buf.String(), "extract: grammar backend failed lang=python")
	assert.Equal(t, CapGrammar, r.Capability(LangPython), "sticky decision is untouched")
}

func TestExtractor_PanicIsContained(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	r := registryWith(t, logger, &stubBackend{
		capability: CapFallback,
		lang:       LangGo,
		extract: func([]byte) (*CodeStructure, error) {
			panic("boom")
		},
	})

	cs := NewExtractor(r, WithExtractorLogger(logger)).Extract([]byte("package main\n"), LangGo)
	assert.Nil(t, cs, "failed extraction reports absence")
	assert.Contains(t, buf.String(), "panic: boom")
}

func TestExtractor_FallbackErrorIsAbsent(t *testing.T) {
	r := registryWith(t, nil, &stubBackend{
		capability: CapFallback,
		lang:       LangRust,
		extract: func([]byte) (*CodeStructure, error) {
			return nil, errors.New("unreadable")
		},
	})
	assert.Nil(t, NewExtractor(r).Extract([]byte("fn main() {}\n"), LangRust))
}

func TestExtractor_EmptySourceYieldsEmptyStructure(t *testing.T) {
	e := NewExtractor(NewRegistry())
	for _, lang := range append(slices.Clone(KnownLanguages), Language("cobol")) {
		cs := e.Extract(nil, lang)
		require.NotNil(t, cs, lang)
		assert.Empty(t, cs.Functions, lang)
		assert.Equal(t, 1, cs.Complexity, lang)
		assert.Equal(t, 0, cs.LinesOfCode, lang)
	}
}
