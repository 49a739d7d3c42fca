package structure

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// rustGrammar extracts entities from tree-sitter-rust trees. Structs, enums
// and traits are classes; functions inside an impl block are reported as
// "Type.method" since impl blocks live outside the type body.
type rustGrammar struct {
	kindTable
}

func newRustGrammar() *rustGrammar {
	return &rustGrammar{kindTable: kindTable{
		"function_item":           nodeFunction,
		"function_signature_item": nodeFunction,
		"struct_item":             nodeClass,
		"enum_item":               nodeClass,
		"trait_item":              nodeClass,
		"let_declaration":         nodeAssignment,
		"const_item":              nodeAssignment,
		"static_item":             nodeAssignment,
		"use_declaration":         nodeImport,
		"line_comment":            nodeComment,
		"block_comment":           nodeComment,
		"if_expression":           nodeBranch,
		"for_expression":          nodeBranch,
		"while_expression":        nodeBranch,
		"loop_expression":         nodeBranch,
		"match_arm":               nodeBranch,
	}}
}

func (g *rustGrammar) function(node *tree_sitter.Node, source []byte) (CodeFunction, bool) {
	name := fieldText(node, "name", source)
	if name == "" {
		return CodeFunction{}, false
	}
	if impl := rustEnclosingImpl(node); impl != nil {
		if t := rustBaseType(fieldText(impl, "type", source)); t != "" {
			name = t + "." + name
		}
	}

	start, end := lineSpan(node)
	fn := CodeFunction{
		Name:       name,
		StartLine:  start,
		EndLine:    end,
		Parameters: rustParameters(node.ChildByFieldName("parameters"), source),
		ReturnType: fieldText(node, "return_type", source),
		Body:       fieldText(node, "body", source),
		Decorators: rustAttributes(node, source),
		Docstring:  docComment(node, source, "///"),
	}
	if mods := firstNamedChild(node, "function_modifiers"); mods != nil {
		fn.IsAsync = strings.Contains(mods.Utf8Text(source), "async")
	}
	// Associated functions without self are the closest analogue of static.
	if params := node.ChildByFieldName("parameters"); params != nil && rustEnclosingImpl(node) != nil {
		fn.IsStatic = firstNamedChild(params, "self_parameter") == nil
	}
	return fn, true
}

// rustEnclosingImpl returns the impl_item whose body directly holds node.
func rustEnclosingImpl(node *tree_sitter.Node) *tree_sitter.Node {
	body := node.Parent()
	if body == nil || body.Kind() != "declaration_list" {
		return nil
	}
	impl := body.Parent()
	if impl == nil || impl.Kind() != "impl_item" {
		return nil
	}
	return impl
}

// rustBaseType strips references, paths and generics: "&mut a::Foo<T>" -> "Foo".
func rustBaseType(t string) string {
	t = strings.TrimLeft(t, "&")
	t = strings.TrimPrefix(t, "mut ")
	if i := strings.IndexByte(t, '<'); i >= 0 {
		t = t[:i]
	}
	return strings.TrimSpace(lastSegment(t, "::"))
}

func rustParameters(params *tree_sitter.Node, source []byte) []string {
	out := []string{}
	if params == nil {
		return out
	}
	for i := uint(0); i < params.NamedChildCount(); i++ {
		p := params.NamedChild(i)
		if p == nil {
			continue
		}
		switch p.Kind() {
		case "self_parameter":
			out = append(out, "self")
		case "parameter":
			pat := p.ChildByFieldName("pattern")
			if pat == nil {
				continue
			}
			if pat.Kind() == "identifier" {
				out = append(out, pat.Utf8Text(source))
			} else if ids := collectTexts(pat, source, "identifier"); len(ids) > 0 {
				out = append(out, ids[0])
			}
		}
	}
	return out
}

// rustAttributes returns the outer attributes (#[...]) directly above node.
func rustAttributes(node *tree_sitter.Node, source []byte) []string {
	var out []string
	for prev := node.PrevSibling(); prev != nil; prev = prev.PrevSibling() {
		k := prev.Kind()
		if k == "line_comment" || k == "block_comment" {
			continue
		}
		if k != "attribute_item" {
			break
		}
		text := strings.TrimSuffix(strings.TrimPrefix(prev.Utf8Text(source), "#["), "]")
		out = append([]string{text}, out...)
	}
	return out
}

func (g *rustGrammar) class(node *tree_sitter.Node, source []byte) (CodeClass, bool) {
	name := fieldText(node, "name", source)
	if name == "" {
		return CodeClass{}, false
	}
	start, end := lineSpan(node)
	cls := CodeClass{
		Name:       name,
		StartLine:  start,
		EndLine:    end,
		Docstring:  docComment(node, source, "///"),
		Decorators: rustAttributes(node, source),
	}

	body := node.ChildByFieldName("body")
	switch node.Kind() {
	case "struct_item":
		if body != nil {
			for i := uint(0); i < body.NamedChildCount(); i++ {
				if f := body.NamedChild(i); f != nil && f.Kind() == "field_declaration" {
					cls.Attributes = append(cls.Attributes, fieldText(f, "name", source))
				}
			}
		}
	case "enum_item":
		if body != nil {
			for i := uint(0); i < body.NamedChildCount(); i++ {
				if v := body.NamedChild(i); v != nil && v.Kind() == "enum_variant" {
					cls.Attributes = append(cls.Attributes, fieldText(v, "name", source))
				}
			}
		}
	case "trait_item":
		if bounds := node.ChildByFieldName("bounds"); bounds != nil {
			for i := uint(0); i < bounds.NamedChildCount(); i++ {
				if b := bounds.NamedChild(i); b != nil {
					cls.BaseClasses = append(cls.BaseClasses, b.Utf8Text(source))
				}
			}
		}
	}
	return cls, true
}

func (g *rustGrammar) variables(node *tree_sitter.Node, source []byte) []CodeVariable {
	line, _ := lineSpan(node)
	hint := fieldText(node, "type", source)
	value := fieldText(node, "value", source)

	var names []string
	if node.Kind() == "let_declaration" {
		pat := node.ChildByFieldName("pattern")
		if pat == nil {
			return nil
		}
		if pat.Kind() == "identifier" {
			names = []string{pat.Utf8Text(source)}
		} else {
			names = collectTexts(pat, source, "identifier")
		}
	} else {
		names = []string{fieldText(node, "name", source)}
	}

	out := make([]CodeVariable, 0, len(names))
	for _, n := range names {
		if n == "" || n == "_" {
			continue
		}
		out = append(out, CodeVariable{Name: n, Line: line, TypeHint: hint, Value: value})
	}
	return out
}

func (g *rustGrammar) imports(node *tree_sitter.Node, source []byte) []CodeImport {
	arg := node.ChildByFieldName("argument")
	if arg == nil {
		return nil
	}
	line, _ := lineSpan(node)
	imp := CodeImport{Line: line}

	switch arg.Kind() {
	case "scoped_use_list":
		imp.Module = fieldText(arg, "path", source)
		imp.IsFromImport = true
		if list := arg.ChildByFieldName("list"); list != nil {
			for i := uint(0); i < list.NamedChildCount(); i++ {
				if c := list.NamedChild(i); c != nil {
					imp.Names = append(imp.Names, c.Utf8Text(source))
				}
			}
		}
	case "use_as_clause":
		imp.Module = fieldText(arg, "path", source)
		imp.Alias = fieldText(arg, "alias", source)
		imp.Names = []string{lastSegment(imp.Module, "::")}
	case "use_wildcard":
		imp.Module = strings.TrimSuffix(arg.Utf8Text(source), "::*")
		imp.Names = []string{"*"}
		imp.IsFromImport = true
	default:
		imp.Module = arg.Utf8Text(source)
		imp.Names = []string{lastSegment(imp.Module, "::")}
	}
	if imp.Module == "" {
		return nil
	}
	return []CodeImport{imp}
}
