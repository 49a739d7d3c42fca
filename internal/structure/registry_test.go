package structure

import (
	"bytes"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"testing"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_LinkedGrammars(t *testing.T) {
	r := NewRegistry()
	for _, lang := range KnownLanguages {
		assert.Equal(t, CapGrammar, r.Capability(lang), "grammar for %s", lang)
	}
	assert.Len(t, r.Snapshot(), len(KnownLanguages))
}

func TestRegistry_UnknownLanguageFallsBack(t *testing.T) {
	var buf bytes.Buffer
	r := NewRegistry(WithRegistryLogger(log.New(&buf, "", 0)))

	b := r.Resolve(Language("cobol"))
	assert.Equal(t, CapFallback, b.Capability())
	assert.Equal(t, Language("cobol"), b.Language())
	assert.Contains(t, buf.String(), "registry: grammar unavailable lang=cobol")
}

func TestRegistry_FailedAcquisitionIsSticky(t *testing.T) {
	var calls atomic.Int32
	loader := func(Language) (*tree_sitter.Language, error) {
		calls.Add(1)
		return nil, errors.New("incompatible ABI")
	}
	r := NewRegistry(WithGrammarLoader(loader))

	for i := 0; i < 3; i++ {
		assert.Equal(t, CapFallback, r.Capability(LangPython))
	}
	assert.Equal(t, int32(1), calls.Load(), "acquisition must not be retried")
}

func TestRegistry_ConcurrentResolveAcquiresOnce(t *testing.T) {
	var calls atomic.Int32
	loader := func(lang Language) (*tree_sitter.Language, error) {
		calls.Add(1)
		return DefaultGrammarLoader(lang)
	}
	r := NewRegistry(WithGrammarLoader(loader))

	var wg sync.WaitGroup
	backends := make([]Backend, 16)
	for i := range backends {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			backends[i] = r.Resolve(LangGo)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, b := range backends {
		assert.Same(t, backends[0], b)
	}
}

func TestRegistry_LoaderPanicFallsBack(t *testing.T) {
	r := NewRegistry(WithGrammarLoader(func(Language) (*tree_sitter.Language, error) {
		panic("native library missing")
	}))
	assert.Equal(t, CapFallback, r.Capability(LangRust))
}

func TestRegistry_NilLanguageFallsBack(t *testing.T) {
	r := NewRegistry(WithGrammarLoader(func(Language) (*tree_sitter.Language, error) {
		return nil, nil
	}))
	assert.Equal(t, CapFallback, r.Capability(LangJava))
}

func TestRegistry_IsolatedInstances(t *testing.T) {
	failing := NewRegistry(WithGrammarLoader(func(Language) (*tree_sitter.Language, error) {
		return nil, errors.New("no grammar")
	}))
	healthy := NewRegistry()

	require.Equal(t, CapFallback, failing.Capability(LangGo))
	assert.Equal(t, CapGrammar, healthy.Capability(LangGo), "decisions do not leak between registries")
}

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		in   string
		want Language
	}{
		{"python", LangPython},
		{" PY ", LangPython},
		{"ts", LangTypeScript},
		{"golang", LangGo},
		{"rs", LangRust},
		{"jsx", LangJavaScript},
		{"Kotlin", Language("kotlin")},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLanguage(tt.in))
		})
	}
}
