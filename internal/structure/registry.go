package structure

import (
	"fmt"
	"io"
	"log"
	"sync"
	"unsafe"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// GrammarLoader acquires the tree-sitter language for a Language. Any error
// makes the registry fall back to regex extraction for that language.
type GrammarLoader func(lang Language) (*tree_sitter.Language, error)

var grammarSources = map[Language]func() unsafe.Pointer{
	LangGo:         tree_sitter_go.Language,
	LangPython:     tree_sitter_python.Language,
	LangRust:       tree_sitter_rust.Language,
	LangTypeScript: tree_sitter_typescript.LanguageTypescript,
	LangJavaScript: tree_sitter_javascript.Language,
	LangJava:       tree_sitter_java.Language,
}

// DefaultGrammarLoader loads the grammars linked into the binary.
func DefaultGrammarLoader(lang Language) (*tree_sitter.Language, error) {
	src, ok := grammarSources[lang]
	if !ok {
		return nil, fmt.Errorf("no grammar linked for %q", lang)
	}
	ptr := src()
	if ptr == nil {
		return nil, fmt.Errorf("grammar for %q returned nil language", lang)
	}
	return tree_sitter.NewLanguage(ptr), nil
}

// Registry decides, once per language, whether extraction uses a grammar or
// the regex fallback. The decision is sticky for the lifetime of the
// registry: a failed acquisition is never retried. Safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	loader   GrammarLoader
	backends map[Language]Backend
	logger   *log.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithGrammarLoader replaces the grammar source, mainly for tests.
func WithGrammarLoader(loader GrammarLoader) RegistryOption {
	return func(r *Registry) {
		r.loader = loader
	}
}

// WithRegistryLogger sets the logger used to report acquisition failures.
func WithRegistryLogger(l *log.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry creates an empty Registry using the linked grammars.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		loader:   DefaultGrammarLoader,
		backends: make(map[Language]Backend),
		logger:   log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the backend for lang, acquiring a grammar on first use.
// Unknown languages resolve to a fallback backend with no patterns.
func (r *Registry) Resolve(lang Language) Backend {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.backends[lang]; ok {
		return b
	}

	var b Backend
	tsLang, err := r.acquire(lang)
	if err != nil {
		r.logger.Printf("registry: grammar unavailable lang=%s err=%v; using regex fallback", lang, err)
		b = NewRegexBackend(lang)
	} else {
		b = newTreeSitterBackend(lang, tsLang, grammarFor(lang))
	}
	r.backends[lang] = b
	return b
}

// Capability reports the capability lang resolves to.
func (r *Registry) Capability(lang Language) Capability {
	return r.Resolve(lang).Capability()
}

// Snapshot returns the decisions made so far.
func (r *Registry) Snapshot() map[Language]Capability {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[Language]Capability, len(r.backends))
	for l, b := range r.backends {
		out[l] = b.Capability()
	}
	return out
}

// acquire loads the grammar and checks that a parser accepts it, which is
// where ABI mismatches surface. Panics from the native runtime count as
// failures.
func (r *Registry) acquire(lang Language) (tsLang *tree_sitter.Language, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			tsLang = nil
			err = fmt.Errorf("grammar acquisition panicked: %v", rec)
		}
	}()

	if grammarFor(lang) == nil {
		return nil, fmt.Errorf("no extraction rules for %q", lang)
	}

	tsLang, err = r.loader(lang)
	if err != nil {
		return nil, err
	}
	if tsLang == nil {
		return nil, fmt.Errorf("loader returned nil language for %q", lang)
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(tsLang); err != nil {
		return nil, fmt.Errorf("set language %s: %w", lang, err)
	}
	return tsLang, nil
}
