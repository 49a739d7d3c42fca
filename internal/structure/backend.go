package structure

import "errors"

// Capability describes how a backend extracts structure for a language.
type Capability string

const (
	// CapGrammar parses a full syntax tree with a tree-sitter grammar.
	CapGrammar Capability = "grammar"

	// CapFallback matches per-line regular expressions. Entities it produces
	// have StartLine == EndLine because true extents are unknown.
	CapFallback Capability = "fallback"
)

// ErrNilTree is returned when the grammar runtime produces no syntax tree.
var ErrNilTree = errors.New("structure: parser returned nil tree")

// Backend extracts a CodeStructure from source text for one language.
// Implementations: TreeSitterBackend (grammar), RegexBackend (fallback).
type Backend interface {
	// Capability reports which extraction strategy this backend uses.
	Capability() Capability

	// Language is the language this backend was resolved for.
	Language() Language

	// Extract parses source and returns its structure snapshot.
	Extract(source []byte) (*CodeStructure, error)
}
