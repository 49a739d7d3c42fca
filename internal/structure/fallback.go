package structure

import (
	"regexp"
	"strings"
)

// Compile-time check.
var _ Backend = (*RegexBackend)(nil)

// RegexBackend extracts structure line by line with per-language regular
// expressions. It needs no native grammar and never fails, at the cost of
// degenerate line extents. Languages without a pattern set extract to an
// empty structure.
type RegexBackend struct {
	lang     Language
	patterns *patternSet
}

// NewRegexBackend returns the fallback backend for lang.
func NewRegexBackend(lang Language) *RegexBackend {
	return &RegexBackend{lang: lang, patterns: fallbackPatterns[lang]}
}

// Capability implements Backend.
func (b *RegexBackend) Capability() Capability { return CapFallback }

// Language implements Backend.
func (b *RegexBackend) Language() Language { return b.lang }

// Extract implements Backend.
func (b *RegexBackend) Extract(source []byte) (*CodeStructure, error) {
	out := emptyStructure(b.lang)
	out.LinesOfCode = countLOC(source)
	if b.patterns == nil {
		return out, nil
	}

	s := &lineScanner{p: b.patterns, out: out}
	for i, line := range strings.Split(string(source), "\n") {
		s.scan(i+1, strings.TrimRight(line, "\r"))
	}
	return out, nil
}

type blockKind int

const (
	blockClass blockKind = iota
	blockFunction
	blockImpl
)

// openBlock is a class, function or impl body the scanner is inside of.
type openBlock struct {
	kind  blockKind
	class int    // index into out.Classes for blockClass
	impl  string // type name for blockImpl
	level int    // indent width, or brace depth before the opening brace
}

// lineScanner carries the nesting state across lines.
type lineScanner struct {
	p          *patternSet
	out        *CodeStructure
	stack      []openBlock
	depth      int
	inImports  bool
	decorators []string
}

func (s *lineScanner) top() *openBlock {
	if len(s.stack) == 0 {
		return nil
	}
	return &s.stack[len(s.stack)-1]
}

func (s *lineScanner) scan(n int, line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}

	for _, kw := range s.p.keywords {
		if kw.MatchString(line) {
			s.out.Complexity++
		}
	}

	if s.p.comment.MatchString(line) {
		s.out.Comments = append(s.out.Comments, trimmed)
		return
	}

	indent := len(line) - len(strings.TrimLeft(line, " \t"))
	if s.p.blocks == blockIndent {
		for len(s.stack) > 0 && s.top().level >= indent {
			s.stack = s.stack[:len(s.stack)-1]
		}
	}

	if s.inImports {
		if strings.HasPrefix(trimmed, ")") {
			s.inImports = false
		} else if g := groups(s.p.grouped.re, line); g != nil {
			s.addImports(n, s.p.grouped.build(g))
		}
		return
	}
	if s.p.importOpen != nil && s.p.importOpen.MatchString(line) {
		s.inImports = true
		return
	}

	if s.p.decorator != nil {
		if g := groups(s.p.decorator, line); g != nil {
			s.decorators = append(s.decorators, g["name"])
			return
		}
	}

	opened := s.entity(n, line)
	s.decorators = nil

	switch s.p.blocks {
	case blockIndent:
		if opened != nil {
			opened.level = indent
			s.stack = append(s.stack, *opened)
		}
	case blockBrace:
		code := line
		if s.p.strip != nil {
			code = s.p.strip.ReplaceAllString(code, "")
		}
		next := s.depth + strings.Count(code, "{") - strings.Count(code, "}")
		if next < 0 {
			next = 0
		}
		if opened != nil && next > s.depth {
			opened.level = s.depth
			s.stack = append(s.stack, *opened)
		}
		s.depth = next
		for len(s.stack) > 0 && s.top().level >= s.depth {
			s.stack = s.stack[:len(s.stack)-1]
		}
	}
}

// entity records at most one entity for the line, in precedence order, and
// returns the block it opens, if any.
func (s *lineScanner) entity(n int, line string) *openBlock {
	for _, rule := range s.p.imports {
		if g := groups(rule.re, line); g != nil {
			s.addImports(n, rule.build(g))
			return nil
		}
	}

	ctx := s.top()
	inClass := ctx != nil && ctx.kind == blockClass

	for _, re := range s.p.classes {
		g := groups(re, line)
		if g == nil || s.p.reserved[g["name"]] {
			continue
		}
		s.out.Classes = append(s.out.Classes, CodeClass{
			Name:        g["name"],
			StartLine:   n,
			EndLine:     n,
			BaseClasses: append(splitBases(g["bases"]), splitBases(g["impls"])...),
			Decorators:  s.decorators,
		})
		return &openBlock{kind: blockClass, class: len(s.out.Classes) - 1}
	}

	if s.p.impl != nil {
		if g := groups(s.p.impl, line); g != nil {
			return &openBlock{kind: blockImpl, impl: lastSegment(g["name"], "::")}
		}
	}

	if inClass {
		for _, re := range s.p.methods {
			if fn, ok := s.function(re, n, line); ok {
				s.addMethod(ctx.class, fn)
				return &openBlock{kind: blockFunction}
			}
		}
	}
	for _, re := range s.p.functions {
		fn, ok := s.function(re, n, line)
		if !ok {
			continue
		}
		switch {
		case inClass:
			s.addMethod(ctx.class, fn)
		case ctx != nil && ctx.kind == blockImpl:
			fn.Name = ctx.impl + "." + fn.Name
			s.out.Functions = append(s.out.Functions, fn)
		default:
			s.out.Functions = append(s.out.Functions, fn)
		}
		return &openBlock{kind: blockFunction}
	}

	if inClass {
		for _, re := range s.p.members {
			if g := groups(re, line); g != nil && !s.p.reserved[g["name"]] {
				s.addVariables(n, g, ScopeClass, ctx.class)
				return nil
			}
		}
		for _, re := range s.p.fields {
			if g := groups(re, line); g != nil && !s.p.reserved[g["name"]] {
				cls := &s.out.Classes[ctx.class]
				cls.Attributes = append(cls.Attributes, splitList(g["name"])...)
				return nil
			}
		}
	}

	for _, re := range s.p.variables {
		g := groups(re, line)
		if g == nil || s.p.reserved[g["name"]] || s.p.reserved[strings.TrimSpace(g["type"])] {
			continue
		}
		scope, class := ScopeGlobal, -1
		switch {
		case inClass:
			scope, class = ScopeClass, ctx.class
		case ctx != nil && ctx.kind == blockFunction:
			scope = ScopeLocal
		}
		s.addVariables(n, g, scope, class)
		return nil
	}
	return nil
}

func (s *lineScanner) function(re *regexp.Regexp, n int, line string) (CodeFunction, bool) {
	g := groups(re, line)
	if g == nil || s.p.reserved[g["name"]] || s.p.reserved[strings.TrimSpace(g["ret"])] {
		return CodeFunction{}, false
	}
	name := g["name"]
	if recv := g["recv"]; recv != "" {
		name = recv + "." + name
	}
	params := []string{}
	if p, ok := g["param"]; ok {
		params = append(params, p)
	} else if s.p.params != nil {
		params = append(params, s.p.params(g["params"])...)
	}

	fn := CodeFunction{
		Name:       name,
		StartLine:  n,
		EndLine:    n,
		Parameters: params,
		ReturnType: strings.TrimSpace(g["ret"]),
		Decorators: s.decorators,
		IsAsync:    g["async"] != "",
		IsStatic:   strings.Contains(g["mods"], "static") || strings.Contains(line, "static "),
	}
	for _, d := range fn.Decorators {
		switch d {
		case "staticmethod":
			fn.IsStatic = true
		case "classmethod":
			fn.IsClassMethod = true
		}
	}
	return fn, true
}

func (s *lineScanner) addMethod(class int, fn CodeFunction) {
	cls := &s.out.Classes[class]
	cls.Methods = append(cls.Methods, fn)
}

func (s *lineScanner) addVariables(n int, g map[string]string, scope Scope, class int) {
	for _, name := range splitList(g["name"]) {
		s.out.Variables = append(s.out.Variables, CodeVariable{
			Name:     name,
			Line:     n,
			TypeHint: strings.TrimSpace(g["type"]),
			Value:    strings.TrimSpace(g["value"]),
			Scope:    scope,
		})
		if class >= 0 {
			cls := &s.out.Classes[class]
			cls.Attributes = append(cls.Attributes, name)
		}
	}
}

func (s *lineScanner) addImports(n int, imports []CodeImport) {
	for _, imp := range imports {
		if imp.Module == "" {
			continue
		}
		imp.Line = n
		s.out.Imports = append(s.out.Imports, imp)
	}
}

// groups returns the non-empty named submatches of re in line, or nil when
// re does not match.
func groups(re *regexp.Regexp, line string) map[string]string {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for i, name := range re.SubexpNames() {
		if name != "" && m[i] != "" {
			out[name] = m[i]
		}
	}
	return out
}

// splitBases splits a base-class list on commas and trait-bound pluses.
func splitBases(s string) []string {
	return splitList(strings.ReplaceAll(s, "+", ","))
}
