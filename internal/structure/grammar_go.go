package structure

import (
	"slices"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// goGrammar extracts entities from tree-sitter-go trees. Struct and interface
// type specs are reported as classes. Methods are declared outside the type
// body, so they are reported as functions named "Recv.Method".
type goGrammar struct {
	kindTable
}

func newGoGrammar() *goGrammar {
	return &goGrammar{kindTable: kindTable{
		"function_declaration":  nodeFunction,
		"method_declaration":    nodeFunction,
		"type_spec":             nodeClass,
		"var_spec":              nodeAssignment,
		"const_spec":            nodeAssignment,
		"short_var_declaration": nodeAssignment,
		"import_spec":           nodeImport,
		"comment":               nodeComment,
		"if_statement":          nodeBranch,
		"for_statement":         nodeBranch,
		"expression_case":       nodeBranch,
		"type_case":             nodeBranch,
		"communication_case":    nodeBranch,
	}}
}

func (g *goGrammar) function(node *tree_sitter.Node, source []byte) (CodeFunction, bool) {
	name := fieldText(node, "name", source)
	if name == "" {
		return CodeFunction{}, false
	}
	if node.Kind() == "method_declaration" {
		if recv := goReceiverType(node.ChildByFieldName("receiver"), source); recv != "" {
			name = recv + "." + name
		}
	}
	start, end := lineSpan(node)
	return CodeFunction{
		Name:       name,
		StartLine:  start,
		EndLine:    end,
		Parameters: goParameters(node.ChildByFieldName("parameters"), source),
		ReturnType: fieldText(node, "result", source),
		Body:       fieldText(node, "body", source),
		Docstring:  docComment(node, source, "//"),
	}, true
}

// goReceiverType returns the bare receiver type name: "*Store[K]" -> "Store".
func goReceiverType(recv *tree_sitter.Node, source []byte) string {
	if recv == nil {
		return ""
	}
	decl := firstNamedChild(recv, "parameter_declaration")
	if decl == nil {
		return ""
	}
	t := strings.TrimLeft(fieldText(decl, "type", source), "*")
	if i := strings.IndexByte(t, '['); i >= 0 {
		t = t[:i]
	}
	return strings.TrimSpace(t)
}

func goParameters(params *tree_sitter.Node, source []byte) []string {
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
		case "parameter_declaration", "variadic_parameter_declaration":
			out = append(out, fieldTexts(p, "name", source)...)
		}
	}
	return out
}

func (g *goGrammar) class(node *tree_sitter.Node, source []byte) (CodeClass, bool) {
	name := fieldText(node, "name", source)
	typ := node.ChildByFieldName("type")
	if name == "" || typ == nil {
		return CodeClass{}, false
	}

	start, end := lineSpan(node)
	cls := CodeClass{Name: name, StartLine: start, EndLine: end}
	if parent := node.Parent(); parent != nil && parent.Kind() == "type_declaration" {
		cls.Docstring = docComment(parent, source, "//")
	}

	switch typ.Kind() {
	case "struct_type":
		fields := firstNamedChild(typ, "field_declaration_list")
		if fields == nil {
			break
		}
		for i := uint(0); i < fields.NamedChildCount(); i++ {
			f := fields.NamedChild(i)
			if f == nil || f.Kind() != "field_declaration" {
				continue
			}
			names := fieldTexts(f, "name", source)
			if len(names) == 0 {
				// Embedded field.
				cls.BaseClasses = append(cls.BaseClasses, strings.TrimLeft(fieldText(f, "type", source), "*"))
				continue
			}
			cls.Attributes = append(cls.Attributes, names...)
		}

	case "interface_type":
		for i := uint(0); i < typ.NamedChildCount(); i++ {
			m := typ.NamedChild(i)
			if m == nil {
				continue
			}
			switch m.Kind() {
			case "method_elem", "method_spec":
				ms, me := lineSpan(m)
				cls.Methods = append(cls.Methods, CodeFunction{
					Name:       fieldText(m, "name", source),
					StartLine:  ms,
					EndLine:    me,
					Parameters: goParameters(m.ChildByFieldName("parameters"), source),
					ReturnType: fieldText(m, "result", source),
				})
			case "type_elem", "constraint_elem":
				cls.BaseClasses = append(cls.BaseClasses, m.Utf8Text(source))
			}
		}

	default:
		// Named non-struct types (type ID string) are not classes.
		return CodeClass{}, false
	}
	return cls, true
}

func (g *goGrammar) variables(node *tree_sitter.Node, source []byte) []CodeVariable {
	line, _ := lineSpan(node)

	var names []string
	var value, hint string
	if node.Kind() == "short_var_declaration" {
		if left := node.ChildByFieldName("left"); left != nil {
			names = collectTexts(left, source, "identifier")
		}
		value = fieldText(node, "right", source)
	} else {
		names = fieldTexts(node, "name", source)
		value = fieldText(node, "value", source)
		hint = fieldText(node, "type", source)
	}

	out := make([]CodeVariable, 0, len(names))
	for _, n := range names {
		if n == "_" {
			continue
		}
		out = append(out, CodeVariable{Name: n, Line: line, TypeHint: hint, Value: value})
	}
	return out
}

func (g *goGrammar) imports(node *tree_sitter.Node, source []byte) []CodeImport {
	path := trimQuotes(fieldText(node, "path", source))
	if path == "" {
		return nil
	}
	line, _ := lineSpan(node)
	return []CodeImport{{
		Module: path,
		Names:  []string{lastSegment(path, "/")},
		Alias:  fieldText(node, "name", source),
		Line:   line,
	}}
}

// fieldTexts returns the text of every child in the named field, in order.
func fieldTexts(node *tree_sitter.Node, field string, source []byte) []string {
	cursor := node.Walk()
	defer cursor.Close()
	var out []string
	for _, c := range node.ChildrenByFieldName(field, cursor) {
		out = append(out, c.Utf8Text(source))
	}
	return out
}

// docComment joins the comment lines immediately above node, stripping
// prefix from each.
func docComment(node *tree_sitter.Node, source []byte, prefix string) string {
	var lines []string
	next := node
	for prev := node.PrevSibling(); prev != nil; prev = prev.PrevSibling() {
		if !strings.HasSuffix(prev.Kind(), "comment") {
			break
		}
		if prev.EndPosition().Row+1 < next.StartPosition().Row {
			break
		}
		text := strings.TrimSpace(prev.Utf8Text(source))
		if !strings.HasPrefix(text, prefix) {
			break
		}
		lines = append(lines, strings.TrimSpace(strings.TrimPrefix(text, prefix)))
		next = prev
	}
	if len(lines) == 0 {
		return ""
	}
	slices.Reverse(lines)
	return strings.Join(lines, "\n")
}
