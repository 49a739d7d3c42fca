package structure

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// pythonGrammar extracts entities from tree-sitter-python trees.
type pythonGrammar struct {
	kindTable
}

func newPythonGrammar() *pythonGrammar {
	return &pythonGrammar{kindTable: kindTable{
		"function_definition":    nodeFunction,
		"class_definition":       nodeClass,
		"assignment":             nodeAssignment,
		"import_statement":       nodeImport,
		"import_from_statement":  nodeImport,
		"comment":                nodeComment,
		"if_statement":           nodeBranch,
		"for_statement":          nodeBranch,
		"while_statement":        nodeBranch,
		"try_statement":          nodeBranch,
		"except_clause":          nodeBranch,
		"with_statement":         nodeBranch,
		"conditional_expression": nodeBranch,
		"case_clause":            nodeBranch,
	}}
}

func (g *pythonGrammar) function(node *tree_sitter.Node, source []byte) (CodeFunction, bool) {
	name := fieldText(node, "name", source)
	if name == "" {
		return CodeFunction{}, false
	}
	start, end := lineSpan(node)
	fn := CodeFunction{
		Name:       name,
		StartLine:  start,
		EndLine:    end,
		Parameters: pyParameters(node.ChildByFieldName("parameters"), source),
		ReturnType: fieldText(node, "return_type", source),
		Body:       fieldText(node, "body", source),
		Decorators: pyDecorators(node, source),
		Docstring:  pyDocstring(node.ChildByFieldName("body"), source),
		IsAsync:    hasToken(node, "async"),
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

func (g *pythonGrammar) class(node *tree_sitter.Node, source []byte) (CodeClass, bool) {
	name := fieldText(node, "name", source)
	if name == "" {
		return CodeClass{}, false
	}
	start, end := lineSpan(node)
	cls := CodeClass{
		Name:       name,
		StartLine:  start,
		EndLine:    end,
		Docstring:  pyDocstring(node.ChildByFieldName("body"), source),
		Decorators: pyDecorators(node, source),
	}
	if supers := node.ChildByFieldName("superclasses"); supers != nil {
		for i := uint(0); i < supers.NamedChildCount(); i++ {
			c := supers.NamedChild(i)
			if c == nil {
				continue
			}
			// Skip keyword arguments such as metaclass=ABCMeta.
			if k := c.Kind(); k == "identifier" || k == "attribute" {
				cls.BaseClasses = append(cls.BaseClasses, c.Utf8Text(source))
			}
		}
	}
	return cls, true
}

func (g *pythonGrammar) variables(node *tree_sitter.Node, source []byte) []CodeVariable {
	left := node.ChildByFieldName("left")
	if left == nil {
		return nil
	}
	line, _ := lineSpan(node)
	value := fieldText(node, "right", source)
	hint := fieldText(node, "type", source)

	var names []string
	switch left.Kind() {
	case "identifier":
		names = []string{left.Utf8Text(source)}
	case "pattern_list", "tuple_pattern", "list_pattern":
		for i := uint(0); i < left.NamedChildCount(); i++ {
			if c := left.NamedChild(i); c != nil && c.Kind() == "identifier" {
				names = append(names, c.Utf8Text(source))
			}
		}
	default:
		// Attribute and subscript targets mutate existing objects.
		return nil
	}

	out := make([]CodeVariable, 0, len(names))
	for _, n := range names {
		out = append(out, CodeVariable{Name: n, Line: line, TypeHint: hint, Value: value})
	}
	return out
}

func (g *pythonGrammar) imports(node *tree_sitter.Node, source []byte) []CodeImport {
	line, _ := lineSpan(node)

	if node.Kind() == "import_from_statement" {
		imp := CodeImport{
			Module:       fieldText(node, "module_name", source),
			Line:         line,
			IsFromImport: true,
		}
		cursor := node.Walk()
		defer cursor.Close()
		for _, n := range node.ChildrenByFieldName("name", cursor) {
			name, alias := pyImportName(&n, source)
			if alias != "" {
				name = name + " as " + alias
			}
			imp.Names = append(imp.Names, name)
		}
		if firstNamedChild(node, "wildcard_import") != nil {
			imp.Names = append(imp.Names, "*")
		}
		if imp.Module == "" {
			return nil
		}
		return []CodeImport{imp}
	}

	var out []CodeImport
	for i := uint(0); i < node.NamedChildCount(); i++ {
		c := node.NamedChild(i)
		if c == nil {
			continue
		}
		name, alias := pyImportName(c, source)
		if name == "" {
			continue
		}
		out = append(out, CodeImport{Module: name, Alias: alias, Line: line})
	}
	return out
}

// pyImportName splits a dotted_name or aliased_import into name and alias.
func pyImportName(node *tree_sitter.Node, source []byte) (string, string) {
	switch node.Kind() {
	case "dotted_name":
		return node.Utf8Text(source), ""
	case "aliased_import":
		return fieldText(node, "name", source), fieldText(node, "alias", source)
	}
	return "", ""
}

func pyParameters(params *tree_sitter.Node, source []byte) []string {
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
		case "identifier":
			out = append(out, p.Utf8Text(source))
		case "default_parameter", "typed_default_parameter":
			out = append(out, fieldText(p, "name", source))
		default:
			// typed_parameter, *args and **kwargs wrap the identifier.
			if ids := collectTexts(p, source, "identifier"); len(ids) > 0 {
				out = append(out, ids[0])
			}
		}
	}
	return out
}

// pyDecorators reads decorators from an enclosing decorated_definition.
func pyDecorators(node *tree_sitter.Node, source []byte) []string {
	parent := node.Parent()
	if parent == nil || parent.Kind() != "decorated_definition" {
		return nil
	}
	var out []string
	for i := uint(0); i < parent.NamedChildCount(); i++ {
		c := parent.NamedChild(i)
		if c == nil || c.Kind() != "decorator" {
			continue
		}
		out = append(out, strings.TrimSpace(strings.TrimPrefix(c.Utf8Text(source), "@")))
	}
	return out
}

// pyDocstring returns the first statement of body when it is a bare string.
func pyDocstring(body *tree_sitter.Node, source []byte) string {
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first == nil || first.Kind() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}
	lit := first.NamedChild(0)
	if lit == nil || lit.Kind() != "string" {
		return ""
	}
	return strings.TrimSpace(trimQuotes(lit.Utf8Text(source)))
}
