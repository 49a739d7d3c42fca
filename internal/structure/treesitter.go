package structure

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// nodeKind is the closed set of syntax-node categories the visitor acts on.
type nodeKind int

const (
	nodeOther nodeKind = iota
	nodeFunction
	nodeClass
	nodeAssignment
	nodeImport
	nodeComment
	nodeBranch
)

// kindTable maps grammar node types to visitor categories. Types absent from
// the table are nodeOther.
type kindTable map[string]nodeKind

func (t kindTable) kindOf(node *tree_sitter.Node) nodeKind {
	return t[node.Kind()]
}

// grammar holds the per-language rules for turning syntax nodes into
// entities. Each hook reports false (or nil) when the node does not describe
// a usable entity, in which case the visitor ignores it and keeps descending.
type grammar interface {
	kindOf(node *tree_sitter.Node) nodeKind
	function(node *tree_sitter.Node, source []byte) (CodeFunction, bool)
	class(node *tree_sitter.Node, source []byte) (CodeClass, bool)
	variables(node *tree_sitter.Node, source []byte) []CodeVariable
	imports(node *tree_sitter.Node, source []byte) []CodeImport
}

var grammars = map[Language]grammar{
	LangPython:     newPythonGrammar(),
	LangJavaScript: newJSGrammar(false),
	LangTypeScript: newJSGrammar(true),
	LangJava:       newJavaGrammar(),
	LangGo:         newGoGrammar(),
	LangRust:       newRustGrammar(),
}

func grammarFor(lang Language) grammar {
	return grammars[lang]
}

// Compile-time check.
var _ Backend = (*TreeSitterBackend)(nil)

// TreeSitterBackend extracts structure from a full syntax tree. A new
// tree-sitter parser is created per Extract call, so one backend may be shared
// between goroutines.
type TreeSitterBackend struct {
	lang    Language
	tsLang  *tree_sitter.Language
	grammar grammar
}

func newTreeSitterBackend(lang Language, tsLang *tree_sitter.Language, g grammar) *TreeSitterBackend {
	return &TreeSitterBackend{lang: lang, tsLang: tsLang, grammar: g}
}

// Capability implements Backend.
func (b *TreeSitterBackend) Capability() Capability { return CapGrammar }

// Language implements Backend.
func (b *TreeSitterBackend) Language() Language { return b.lang }

// Extract parses source and walks the tree once.
func (b *TreeSitterBackend) Extract(source []byte) (*CodeStructure, error) {
	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(b.tsLang); err != nil {
		return nil, err
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, ErrNilTree
	}
	defer tree.Close()

	out := emptyStructure(b.lang)
	visit(tree.RootNode(), source, b.grammar, out)
	out.LinesOfCode = countLOC(source)
	return out, nil
}

// frame is one pending node on the traversal stack together with the context
// inherited from its ancestors.
type frame struct {
	node  *tree_sitter.Node
	scope Scope
	class int // index in out.Classes of the class whose body holds node, or -1
}

// visit performs a single pre-order depth-first traversal with an explicit
// stack, so deeply nested input cannot exhaust the goroutine stack.
func visit(root *tree_sitter.Node, source []byte, g grammar, out *CodeStructure) {
	stack := []frame{{node: root, scope: ScopeGlobal, class: -1}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := f.node

		childScope, childClass := f.scope, f.class

		switch g.kindOf(node) {
		case nodeFunction:
			if fn, ok := g.function(node, source); ok {
				if f.class >= 0 {
					out.Classes[f.class].Methods = append(out.Classes[f.class].Methods, fn)
				} else {
					out.Functions = append(out.Functions, fn)
				}
				childScope, childClass = ScopeLocal, -1
			}

		case nodeClass:
			if cls, ok := g.class(node, source); ok {
				out.Classes = append(out.Classes, cls)
				childScope, childClass = ScopeClass, len(out.Classes)-1
			}

		case nodeAssignment:
			for _, v := range g.variables(node, source) {
				v.Scope = f.scope
				out.Variables = append(out.Variables, v)
				if f.scope == ScopeClass && f.class >= 0 {
					out.Classes[f.class].Attributes = append(out.Classes[f.class].Attributes, v.Name)
				}
			}

		case nodeImport:
			out.Imports = append(out.Imports, g.imports(node, source)...)

		case nodeComment:
			out.Comments = append(out.Comments, node.Utf8Text(source))

		case nodeBranch:
			out.Complexity++

		case nodeOther:
		}

		// Push in reverse so children pop in source order.
		for i := int(node.NamedChildCount()) - 1; i >= 0; i-- {
			child := node.NamedChild(uint(i))
			if child == nil {
				continue
			}
			stack = append(stack, frame{node: child, scope: childScope, class: childClass})
		}
	}
}

// --- Shared node helpers ---

// lineSpan returns the 1-indexed start and end lines of node.
func lineSpan(node *tree_sitter.Node) (int, int) {
	start := int(node.StartPosition().Row) + 1
	end := int(node.EndPosition().Row) + 1
	if end < start {
		end = start
	}
	return start, end
}

// fieldText returns the text of the named field child, or "".
func fieldText(node *tree_sitter.Node, field string, source []byte) string {
	child := node.ChildByFieldName(field)
	if child == nil {
		return ""
	}
	return child.Utf8Text(source)
}

// hasToken reports whether node has a direct child (named or anonymous) of
// the given kind, e.g. the "async" keyword.
func hasToken(node *tree_sitter.Node, kind string) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		if c := node.Child(i); c != nil && c.Kind() == kind {
			return true
		}
	}
	return false
}

// collectTexts gathers the text of every descendant of node whose kind is in
// kinds, in source order, without descending into matched nodes.
func collectTexts(node *tree_sitter.Node, source []byte, kinds ...string) []string {
	want := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}

	var out []string
	stack := []*tree_sitter.Node{node}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n != node && want[n.Kind()] {
			out = append(out, n.Utf8Text(source))
			continue
		}
		for i := int(n.NamedChildCount()) - 1; i >= 0; i-- {
			if c := n.NamedChild(uint(i)); c != nil {
				stack = append(stack, c)
			}
		}
	}
	return out
}

// firstNamedChild returns the first named child of node with the given kind.
func firstNamedChild(node *tree_sitter.Node, kind string) *tree_sitter.Node {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if c := node.NamedChild(i); c != nil && c.Kind() == kind {
			return c
		}
	}
	return nil
}

// lastSegment returns the part of path after the final sep.
func lastSegment(path, sep string) string {
	if i := strings.LastIndex(path, sep); i >= 0 {
		return path[i+len(sep):]
	}
	return path
}

// trimQuotes strips string delimiters from a literal.
func trimQuotes(s string) string {
	return strings.Trim(s, "\"'`")
}
