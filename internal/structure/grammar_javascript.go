package structure

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// jsGrammar extracts entities from tree-sitter-javascript and
// tree-sitter-typescript trees. The TypeScript grammar is a superset, so the
// same rules serve both with a few extra node types enabled.
type jsGrammar struct {
	kindTable
}

func newJSGrammar(typescript bool) *jsGrammar {
	kinds := kindTable{
		"function_declaration":           nodeFunction,
		"generator_function_declaration": nodeFunction,
		"function_expression":            nodeFunction,
		"arrow_function":                 nodeFunction,
		"method_definition":              nodeFunction,
		"class_declaration":              nodeClass,
		"class":                          nodeClass,
		"variable_declarator":            nodeAssignment,
		"field_definition":               nodeAssignment,
		"import_statement":               nodeImport,
		"comment":                        nodeComment,
		"if_statement":                   nodeBranch,
		"for_statement":                  nodeBranch,
		"for_in_statement":               nodeBranch,
		"while_statement":                nodeBranch,
		"do_statement":                   nodeBranch,
		"try_statement":                  nodeBranch,
		"catch_clause":                   nodeBranch,
		"switch_case":                    nodeBranch,
		"ternary_expression":             nodeBranch,
	}
	if typescript {
		kinds["abstract_class_declaration"] = nodeClass
		kinds["interface_declaration"] = nodeClass
		kinds["public_field_definition"] = nodeAssignment
	}
	return &jsGrammar{kindTable: kinds}
}

func (g *jsGrammar) function(node *tree_sitter.Node, source []byte) (CodeFunction, bool) {
	name := fieldText(node, "name", source)
	if name == "" {
		name = jsBindingName(node, source)
	}
	if name == "" {
		// Anonymous callbacks are not entities.
		return CodeFunction{}, false
	}

	start, end := lineSpan(node)
	fn := CodeFunction{
		Name:       name,
		StartLine:  start,
		EndLine:    end,
		Parameters: jsParameters(node, source),
		ReturnType: strings.TrimSpace(strings.TrimPrefix(fieldText(node, "return_type", source), ":")),
		Body:       fieldText(node, "body", source),
		Decorators: jsDecorators(node, source),
		IsAsync:    hasToken(node, "async"),
		IsStatic:   hasToken(node, "static"),
	}
	return fn, true
}

// jsBindingName names a function expression after the declarator, field or
// property it is assigned to.
func jsBindingName(node *tree_sitter.Node, source []byte) string {
	parent := node.Parent()
	if parent == nil {
		return ""
	}
	switch parent.Kind() {
	case "variable_declarator", "public_field_definition":
		if n := parent.ChildByFieldName("name"); n != nil {
			if k := n.Kind(); k == "identifier" || k == "property_identifier" {
				return n.Utf8Text(source)
			}
		}
	case "field_definition":
		return fieldText(parent, "property", source)
	case "pair":
		return trimQuotes(fieldText(parent, "key", source))
	case "assignment_expression":
		if left := parent.ChildByFieldName("left"); left != nil && left.Kind() == "identifier" {
			return left.Utf8Text(source)
		}
	}
	return ""
}

func jsParameters(node *tree_sitter.Node, source []byte) []string {
	out := []string{}
	if single := node.ChildByFieldName("parameter"); single != nil {
		return append(out, single.Utf8Text(source))
	}
	params := node.ChildByFieldName("parameters")
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
		case "required_parameter", "optional_parameter":
			if pat := p.ChildByFieldName("pattern"); pat != nil && pat.Kind() == "identifier" {
				out = append(out, pat.Utf8Text(source))
				continue
			}
			if ids := collectTexts(p, source, "identifier"); len(ids) > 0 {
				out = append(out, ids[0])
			}
		case "assignment_pattern":
			out = append(out, fieldText(p, "left", source))
		case "comment":
		default:
			// rest_pattern and destructuring patterns.
			if ids := collectTexts(p, source, "identifier", "shorthand_property_identifier_pattern"); len(ids) > 0 {
				out = append(out, ids[0])
			}
		}
	}
	return out
}

func jsDecorators(node *tree_sitter.Node, source []byte) []string {
	var out []string
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if c := node.NamedChild(i); c != nil && c.Kind() == "decorator" {
			out = append(out, strings.TrimSpace(strings.TrimPrefix(c.Utf8Text(source), "@")))
		}
	}
	return out
}

func (g *jsGrammar) class(node *tree_sitter.Node, source []byte) (CodeClass, bool) {
	name := fieldText(node, "name", source)
	if name == "" {
		name = jsBindingName(node, source)
	}
	if name == "" {
		return CodeClass{}, false
	}
	start, end := lineSpan(node)
	cls := CodeClass{
		Name:       name,
		StartLine:  start,
		EndLine:    end,
		Decorators: jsDecorators(node, source),
	}

	// JavaScript: class_heritage holds the extends expression directly.
	// TypeScript: class_heritage wraps extends_clause and implements_clause.
	// Interfaces use extends_type_clause.
	for i := uint(0); i < node.NamedChildCount(); i++ {
		c := node.NamedChild(i)
		if c == nil {
			continue
		}
		switch c.Kind() {
		case "class_heritage", "extends_type_clause":
			cls.BaseClasses = append(cls.BaseClasses, jsHeritage(c, source)...)
		}
	}
	return cls, true
}

func jsHeritage(node *tree_sitter.Node, source []byte) []string {
	var out []string
	for i := uint(0); i < node.NamedChildCount(); i++ {
		c := node.NamedChild(i)
		if c == nil {
			continue
		}
		switch c.Kind() {
		case "extends_clause", "implements_clause":
			out = append(out, jsHeritage(c, source)...)
		case "type_arguments", "comment":
		default:
			out = append(out, c.Utf8Text(source))
		}
	}
	return out
}

func (g *jsGrammar) variables(node *tree_sitter.Node, source []byte) []CodeVariable {
	line, _ := lineSpan(node)

	var nameNode, valueNode *tree_sitter.Node
	switch node.Kind() {
	case "field_definition":
		nameNode, valueNode = node.ChildByFieldName("property"), node.ChildByFieldName("value")
	default:
		nameNode, valueNode = node.ChildByFieldName("name"), node.ChildByFieldName("value")
	}
	if nameNode == nil {
		return nil
	}
	if valueNode != nil {
		switch valueNode.Kind() {
		case "arrow_function", "function_expression", "function", "class":
			// Reported as a function or class instead.
			return nil
		}
	}

	value := ""
	if valueNode != nil {
		value = valueNode.Utf8Text(source)
	}
	hint := strings.TrimSpace(strings.TrimPrefix(fieldText(node, "type", source), ":"))

	var names []string
	switch nameNode.Kind() {
	case "identifier", "property_identifier", "private_property_identifier":
		names = []string{nameNode.Utf8Text(source)}
	default:
		names = collectTexts(nameNode, source, "identifier", "shorthand_property_identifier_pattern")
	}

	out := make([]CodeVariable, 0, len(names))
	for _, n := range names {
		out = append(out, CodeVariable{Name: n, Line: line, TypeHint: hint, Value: value})
	}
	return out
}

func (g *jsGrammar) imports(node *tree_sitter.Node, source []byte) []CodeImport {
	module := trimQuotes(fieldText(node, "source", source))
	if module == "" {
		return nil
	}
	line, _ := lineSpan(node)
	imp := CodeImport{Module: module, Line: line, IsFromImport: true}

	clause := firstNamedChild(node, "import_clause")
	if clause == nil {
		// Side-effect import: import "polyfill".
		imp.IsFromImport = false
		return []CodeImport{imp}
	}
	for i := uint(0); i < clause.NamedChildCount(); i++ {
		c := clause.NamedChild(i)
		if c == nil {
			continue
		}
		switch c.Kind() {
		case "identifier":
			imp.Names = append(imp.Names, c.Utf8Text(source))
		case "namespace_import":
			imp.Names = append(imp.Names, "*")
			if ids := collectTexts(c, source, "identifier"); len(ids) > 0 {
				imp.Alias = ids[0]
			}
		case "named_imports":
			for j := uint(0); j < c.NamedChildCount(); j++ {
				spec := c.NamedChild(j)
				if spec == nil || spec.Kind() != "import_specifier" {
					continue
				}
				name := fieldText(spec, "name", source)
				if alias := fieldText(spec, "alias", source); alias != "" {
					name += " as " + alias
				}
				imp.Names = append(imp.Names, name)
			}
		}
	}
	return []CodeImport{imp}
}
