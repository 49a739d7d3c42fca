package structure

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// javaGrammar extracts entities from tree-sitter-java trees.
type javaGrammar struct {
	kindTable
}

func newJavaGrammar() *javaGrammar {
	return &javaGrammar{kindTable: kindTable{
		"method_declaration":         nodeFunction,
		"constructor_declaration":    nodeFunction,
		"class_declaration":          nodeClass,
		"interface_declaration":      nodeClass,
		"enum_declaration":           nodeClass,
		"record_declaration":         nodeClass,
		"field_declaration":          nodeAssignment,
		"local_variable_declaration": nodeAssignment,
		"import_declaration":         nodeImport,
		"line_comment":               nodeComment,
		"block_comment":              nodeComment,
		"if_statement":               nodeBranch,
		"for_statement":              nodeBranch,
		"enhanced_for_statement":     nodeBranch,
		"while_statement":            nodeBranch,
		"do_statement":               nodeBranch,
		"try_statement":              nodeBranch,
		"catch_clause":               nodeBranch,
		"switch_label":               nodeBranch,
		"ternary_expression":         nodeBranch,
	}}
}

func (g *javaGrammar) function(node *tree_sitter.Node, source []byte) (CodeFunction, bool) {
	name := fieldText(node, "name", source)
	if name == "" {
		return CodeFunction{}, false
	}
	start, end := lineSpan(node)
	mods, annotations := javaModifiers(node, source)
	return CodeFunction{
		Name:       name,
		StartLine:  start,
		EndLine:    end,
		Parameters: javaParameters(node.ChildByFieldName("parameters"), source),
		ReturnType: fieldText(node, "type", source),
		Body:       fieldText(node, "body", source),
		Decorators: annotations,
		Docstring:  javadoc(node, source),
		IsStatic:   strings.Contains(mods, "static"),
	}, true
}

func javaParameters(params *tree_sitter.Node, source []byte) []string {
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
		case "formal_parameter", "receiver_parameter":
			if n := fieldText(p, "name", source); n != "" {
				out = append(out, n)
			}
		case "spread_parameter":
			if d := firstNamedChild(p, "variable_declarator"); d != nil {
				out = append(out, fieldText(d, "name", source))
			}
		}
	}
	return out
}

// javaModifiers returns the modifier keywords and the annotation names.
func javaModifiers(node *tree_sitter.Node, source []byte) (string, []string) {
	mods := firstNamedChild(node, "modifiers")
	if mods == nil {
		return "", nil
	}
	var annotations []string
	for i := uint(0); i < mods.NamedChildCount(); i++ {
		c := mods.NamedChild(i)
		if c == nil {
			continue
		}
		if k := c.Kind(); k == "marker_annotation" || k == "annotation" {
			annotations = append(annotations, fieldText(c, "name", source))
		}
	}
	return mods.Utf8Text(source), annotations
}

// javadoc returns the /** */ block directly above node, without delimiters.
func javadoc(node *tree_sitter.Node, source []byte) string {
	prev := node.PrevSibling()
	if prev == nil || prev.Kind() != "block_comment" {
		return ""
	}
	text := prev.Utf8Text(source)
	if !strings.HasPrefix(text, "/**") {
		return ""
	}
	text = strings.TrimSuffix(strings.TrimPrefix(text, "/**"), "*/")
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(l), "*"))
		if l != "" {
			lines = append(lines, l)
		}
	}
	return strings.Join(lines, "\n")
}

func (g *javaGrammar) class(node *tree_sitter.Node, source []byte) (CodeClass, bool) {
	name := fieldText(node, "name", source)
	if name == "" {
		return CodeClass{}, false
	}
	start, end := lineSpan(node)
	_, annotations := javaModifiers(node, source)
	cls := CodeClass{
		Name:       name,
		StartLine:  start,
		EndLine:    end,
		Docstring:  javadoc(node, source),
		Decorators: annotations,
	}
	for _, field := range []string{"superclass", "interfaces"} {
		if n := node.ChildByFieldName(field); n != nil {
			cls.BaseClasses = append(cls.BaseClasses, collectTexts(n, source, "type_identifier", "generic_type", "scoped_type_identifier")...)
		}
	}
	// interface Foo extends Bar
	if ext := firstNamedChild(node, "extends_interfaces"); ext != nil {
		cls.BaseClasses = append(cls.BaseClasses, collectTexts(ext, source, "type_identifier", "generic_type", "scoped_type_identifier")...)
	}
	return cls, true
}

func (g *javaGrammar) variables(node *tree_sitter.Node, source []byte) []CodeVariable {
	line, _ := lineSpan(node)
	hint := fieldText(node, "type", source)

	cursor := node.Walk()
	defer cursor.Close()
	var out []CodeVariable
	for _, d := range node.ChildrenByFieldName("declarator", cursor) {
		name := fieldText(&d, "name", source)
		if name == "" {
			continue
		}
		out = append(out, CodeVariable{
			Name:     name,
			Line:     line,
			TypeHint: hint,
			Value:    fieldText(&d, "value", source),
		})
	}
	return out
}

func (g *javaGrammar) imports(node *tree_sitter.Node, source []byte) []CodeImport {
	var path string
	for i := uint(0); i < node.NamedChildCount(); i++ {
		c := node.NamedChild(i)
		if c == nil {
			continue
		}
		if k := c.Kind(); k == "scoped_identifier" || k == "identifier" {
			path = c.Utf8Text(source)
		}
	}
	if path == "" {
		return nil
	}
	name := lastSegment(path, ".")
	if firstNamedChild(node, "asterisk") != nil {
		path += ".*"
		name = "*"
	}
	line, _ := lineSpan(node)
	return []CodeImport{{Module: path, Names: []string{name}, Line: line}}
}
