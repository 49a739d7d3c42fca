package structure

import (
	"regexp"
	"strings"
)

// blockStyle is how a language delimits class and function bodies.
type blockStyle int

const (
	blockIndent blockStyle = iota
	blockBrace
)

// importRule turns the named groups of one import pattern into imports.
type importRule struct {
	re    *regexp.Regexp
	build func(g map[string]string) []CodeImport
}

// patternSet is the per-language rule table for the regex fallback. Every
// pattern is matched against a single line; named groups carry the fields.
type patternSet struct {
	blocks blockStyle

	// strip removes string literals and trailing comments before braces are
	// counted.
	strip *regexp.Regexp

	decorator  *regexp.Regexp
	imports    []importRule
	importOpen *regexp.Regexp // opens a parenthesized import group
	grouped    importRule     // one spec inside an import group

	classes   []*regexp.Regexp
	impl      *regexp.Regexp   // block whose functions are named "Type.fn"
	methods   []*regexp.Regexp // only tried inside a class body
	functions []*regexp.Regexp
	members   []*regexp.Regexp // class body: variable and attribute
	fields    []*regexp.Regexp // class body: attribute only
	variables []*regexp.Regexp
	comment   *regexp.Regexp

	keywords []*regexp.Regexp
	reserved map[string]bool // statement keywords that look like calls
	params   func(raw string) []string
}

var rx = regexp.MustCompile

func keywords(words ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(words))
	for _, w := range words {
		out = append(out, rx(`\b`+w+`\b`))
	}
	return out
}

func wordSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

var fallbackPatterns = map[Language]*patternSet{
	LangPython:     pythonPatterns(),
	LangJavaScript: jsPatterns(false),
	LangTypeScript: jsPatterns(true),
	LangJava:       javaPatterns(),
	LangGo:         goPatterns(),
	LangRust:       rustPatterns(),
}

func pythonPatterns() *patternSet {
	return &patternSet{
		blocks:    blockIndent,
		decorator: rx(`^\s*@(?P<name>[\w.]+(?:\(.*\))?)\s*$`),
		imports: []importRule{
			{re: rx(`^\s*from\s+(?P<module>[\w.]+)\s+import\s+(?P<names>.+)$`), build: func(g map[string]string) []CodeImport {
				names := splitList(strings.Trim(g["names"], "() \\"))
				return []CodeImport{{Module: g["module"], Names: names, IsFromImport: true}}
			}},
			{re: rx(`^\s*import\s+(?P<names>[\w., ]+?)\s*$`), build: func(g map[string]string) []CodeImport {
				var out []CodeImport
				for _, entry := range splitList(g["names"]) {
					module, alias, _ := strings.Cut(entry, " as ")
					out = append(out, CodeImport{Module: strings.TrimSpace(module), Alias: strings.TrimSpace(alias)})
				}
				return out
			}},
		},
		classes: []*regexp.Regexp{
			rx(`^\s*class\s+(?P<name>\w+)\s*(?:\((?P<bases>[^)]*)\))?\s*:`),
		},
		functions: []*regexp.Regexp{
			rx(`^\s*(?P<async>async\s+)?def\s+(?P<name>\w+)\s*\((?P<params>[^)]*)\)?(?:\s*->\s*(?P<ret>[^:]+))?`),
		},
		variables: []*regexp.Regexp{
			rx(`^\s*(?P<name>[A-Za-z_]\w*(?:\s*,\s*[A-Za-z_]\w*)*)\s*(?::\s*(?P<type>[^=]+?))?\s*=\s*(?P<value>[^=].*)$`),
		},
		comment:  rx(`^\s*#`),
		keywords: keywords("if", "elif", "else", "for", "while", "try", "except", "finally", "with"),
		params:   pythonParams,
	}
}

func pythonParams(raw string) []string {
	var out []string
	for _, p := range splitList(raw) {
		p, _, _ = strings.Cut(p, "=")
		p, _, _ = strings.Cut(p, ":")
		p = strings.TrimSpace(strings.TrimLeft(p, "*"))
		if p != "" && p != "/" {
			out = append(out, p)
		}
	}
	return out
}

var cLikeComment = rx(`^\s*(?://|/\*|\*/|\*\s|\*$)`)

var cLikeStrip = rx(`"(?:\\.|[^"\\])*"|'(?:\\.|[^'\\])'|//.*$`)

func jsPatterns(typescript bool) *patternSet {
	classRe := `^\s*(?:export\s+(?:default\s+)?)?class\s+(?P<name>[\w$]+)(?:\s+extends\s+(?P<bases>[\w.$]+))?`
	if typescript {
		classRe = `^\s*(?:export\s+(?:default\s+)?)?(?:declare\s+)?(?:abstract\s+)?(?:class|interface)\s+(?P<name>[\w$]+)(?:<[^>]*>)?(?:\s+extends\s+(?P<bases>[\w.$,\s<>]+?))?(?:\s+implements\s+(?P<impls>[\w.$,\s<>]+?))?\s*\{`
	}
	return &patternSet{
		blocks:    blockBrace,
		strip:     rx("\"(?:\\\\.|[^\"\\\\])*\"|'(?:\\\\.|[^'\\\\])*'|`[^`]*`|//.*$"),
		decorator: rx(`^\s*@(?P<name>[\w.]+(?:\(.*\))?)\s*$`),
		imports: []importRule{
			{re: rx(`^\s*import\s+(?:type\s+)?(?P<names>.+?)\s+from\s+['"](?P<module>[^'"]+)['"]`), build: jsImport},
			{re: rx(`^\s*import\s+['"](?P<module>[^'"]+)['"]`), build: func(g map[string]string) []CodeImport {
				return []CodeImport{{Module: g["module"]}}
			}},
			{re: rx(`^\s*(?:const|let|var)\s+(?P<names>.+?)\s*=\s*require\(\s*['"](?P<module>[^'"]+)['"]\s*\)`), build: jsImport},
		},
		classes: []*regexp.Regexp{rx(classRe)},
		methods: []*regexp.Regexp{
			rx(`^\s*(?:(?:public|private|protected|static|readonly|override|abstract|get|set)\s+)*(?P<async>async\s+)?\*?(?P<name>#?[\w$]+)\s*(?:<[^>]*>)?\s*\((?P<params>[^)]*)\)\s*(?::\s*(?P<ret>[^{]+))?\{`),
			rx(`^\s*(?:(?:public|private|protected|static|readonly)\s+)*(?P<name>#?[\w$]+)\s*(?::[^=]+)?=\s*(?P<async>async\s+)?(?:\((?P<params>[^)]*)\)|(?P<param>[\w$]+))\s*(?::\s*(?P<ret>[^=]+?))?\s*=>`),
		},
		functions: []*regexp.Regexp{
			rx(`^\s*(?:export\s+(?:default\s+)?)?(?P<async>async\s+)?function\s*\*?\s*(?P<name>[\w$]+)\s*(?:<[^>]*>)?\s*\((?P<params>[^)]*)\)(?:\s*:\s*(?P<ret>[^{]+))?`),
			rx(`^\s*(?:export\s+)?(?:const|let|var)\s+(?P<name>[\w$]+)\s*(?::[^=]+)?=\s*(?P<async>async\s+)?(?:\((?P<params>[^)]*)\)|(?P<param>[\w$]+))\s*(?::\s*(?P<ret>[^=]+?))?\s*=>`),
			rx(`^\s*(?:export\s+)?(?:const|let|var)\s+(?P<name>[\w$]+)\s*=\s*(?P<async>async\s+)?function\s*\*?\s*\w*\s*\((?P<params>[^)]*)\)`),
			rx(`^\s*(?P<name>[\w$]+)\s*:\s*(?P<async>async\s+)?function\s*\*?\s*\((?P<params>[^)]*)\)`),
		},
		members: []*regexp.Regexp{
			rx(`^\s*(?:(?:public|private|protected|static|readonly|declare)\s+)*(?P<name>#?[\w$]+)\s*[?!]?\s*(?::\s*(?P<type>[^=;]+?))?\s*(?:=\s*(?P<value>.+?))?;?\s*$`),
		},
		variables: []*regexp.Regexp{
			rx(`^\s*(?:export\s+)?(?:const|let|var)\s+(?P<name>[\w$]+)\s*(?::\s*(?P<type>[^=]+?))?\s*=\s*(?P<value>.+?);?\s*$`),
		},
		comment:  cLikeComment,
		keywords: keywords("if", "else", "for", "while", "try", "catch", "finally", "switch", "case"),
		reserved: wordSet("if", "for", "while", "switch", "catch", "return", "function", "new", "else", "do", "try", "with", "typeof", "await", "super"),
		params:   jsParams,
	}
}

func jsImport(g map[string]string) []CodeImport {
	imp := CodeImport{Module: g["module"], IsFromImport: true}
	for _, n := range splitList(strings.NewReplacer("{", ",", "}", ",").Replace(g["names"])) {
		if rest, ok := strings.CutPrefix(n, "* as "); ok {
			imp.Names = append(imp.Names, "*")
			imp.Alias = strings.TrimSpace(rest)
			continue
		}
		imp.Names = append(imp.Names, n)
	}
	return []CodeImport{imp}
}

func jsParams(raw string) []string {
	var out []string
	for _, p := range splitList(raw) {
		p, _, _ = strings.Cut(p, "=")
		p, _, _ = strings.Cut(p, ":")
		p = strings.TrimSuffix(strings.TrimSpace(strings.TrimPrefix(p, "...")), "?")
		for _, mod := range []string{"public ", "private ", "protected ", "readonly "} {
			p = strings.TrimPrefix(p, mod)
		}
		p = strings.Trim(p, "{}[] ")
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func javaPatterns() *patternSet {
	return &patternSet{
		blocks:    blockBrace,
		strip:     cLikeStrip,
		decorator: rx(`^\s*@(?P<name>[\w.]+)(?:\(.*\))?\s*$`),
		imports: []importRule{
			{re: rx(`^\s*import\s+(?:static\s+)?(?P<module>[\w.]+(?:\.\*)?)\s*;`), build: func(g map[string]string) []CodeImport {
				return []CodeImport{{Module: g["module"], Names: []string{lastSegment(g["module"], ".")}}}
			}},
		},
		classes: []*regexp.Regexp{
			rx(`^\s*(?:(?:public|private|protected|abstract|final|static|sealed|non-sealed)\s+)*(?:class|interface|enum|record)\s+(?P<name>\w+)(?:<[^>]*>)?(?:\([^)]*\))?(?:\s+extends\s+(?P<bases>[\w.<>, ]+?))?(?:\s+implements\s+(?P<impls>[\w.<>, ]+?))?\s*\{`),
		},
		functions: []*regexp.Regexp{
			rx(`^\s*(?P<mods>(?:(?:public|private|protected|static|final|abstract|synchronized|native|default)\s+)*)(?:<[^>]+>\s+)?(?:(?P<ret>[\w<>\[\],.? ]+?)\s+)?(?P<name>\w+)\s*\((?P<params>[^)]*)\)\s*(?:throws\s+[\w.,\s]+)?\{`),
		},
		variables: []*regexp.Regexp{
			rx(`^\s*(?:(?:public|private|protected|static|final|volatile|transient)\s+)*(?P<type>[\w<>\[\],.? ]+?)\s+(?P<name>\w+)\s*=\s*(?P<value>.+?);\s*$`),
		},
		comment:  cLikeComment,
		keywords: keywords("if", "else", "for", "while", "try", "catch", "finally", "switch", "case"),
		reserved: wordSet("if", "for", "while", "switch", "catch", "return", "new", "else", "do", "try", "synchronized", "throw"),
		params:   javaParams,
	}
}

func javaParams(raw string) []string {
	var out []string
	for _, p := range splitList(raw) {
		fields := strings.Fields(p)
		if len(fields) < 2 {
			continue
		}
		out = append(out, fields[len(fields)-1])
	}
	return out
}

func goPatterns() *patternSet {
	spec := func(g map[string]string) []CodeImport {
		return []CodeImport{{Module: g["module"], Names: []string{lastSegment(g["module"], "/")}, Alias: g["alias"]}}
	}
	return &patternSet{
		blocks: blockBrace,
		strip:  rx("\"(?:\\\\.|[^\"\\\\])*\"|'(?:\\\\.|[^'\\\\])'|`[^`]*`|//.*$"),
		imports: []importRule{
			{re: rx(`^import\s+(?:(?P<alias>[\w.]+)\s+)?"(?P<module>[^"]+)"`), build: spec},
		},
		importOpen: rx(`^import\s*\(\s*$`),
		grouped:    importRule{re: rx(`^\s*(?:(?P<alias>[\w.]+)\s+)?"(?P<module>[^"]+)"`), build: spec},
		classes: []*regexp.Regexp{
			rx(`^type\s+(?P<name>\w+)(?:\[[^\]]*\])?\s+(?:struct|interface)\s*\{`),
		},
		functions: []*regexp.Regexp{
			rx(`^func\s+(?:\(\s*(?:\w+\s+)?\*?(?P<recv>\w+)(?:\[[^\]]*\])?\s*\)\s*)?(?P<name>\w+)\s*(?:\[[^\]]*\])?\((?P<params>[^)]*)\)\s*(?P<ret>[^{]*?)\s*(?:\{.*)?$`),
		},
		fields: []*regexp.Regexp{
			rx(`^\s*(?P<name>[A-Za-z_]\w*(?:\s*,\s*[A-Za-z_]\w*)*)\s+[*\[\]\w.{}]`),
		},
		variables: []*regexp.Regexp{
			rx(`^\s*(?:var|const)\s+(?P<name>\w+(?:\s*,\s*\w+)*)(?:\s+(?P<type>[^=]+?))?\s*(?:=\s*(?P<value>.+))?$`),
			rx(`^\s*(?P<name>\w+(?:\s*,\s*\w+)*)\s*:=\s*(?P<value>.+)$`),
		},
		comment:  cLikeComment,
		keywords: keywords("if", "else", "for", "switch", "case", "select"),
		params:   goParams,
	}
}

func goParams(raw string) []string {
	var out []string
	for _, p := range splitList(raw) {
		if fields := strings.Fields(p); len(fields) > 0 {
			out = append(out, fields[0])
		}
	}
	return out
}

func rustPatterns() *patternSet {
	vis := `(?:pub(?:\([^)]*\))?\s+)?`
	return &patternSet{
		blocks:    blockBrace,
		strip:     cLikeStrip,
		decorator: rx(`^\s*#\[(?P<name>.+)\]\s*$`),
		imports: []importRule{
			{re: rx(`^\s*` + vis + `use\s+(?P<path>[^;]+);`), build: rustUse},
		},
		classes: []*regexp.Regexp{
			rx(`^\s*` + vis + `(?:unsafe\s+)?(?:struct|enum|trait)\s+(?P<name>\w+)(?:<[^>]*>)?(?:\s*:\s*(?P<bases>[^{;]+?))?\s*(?:where\b.*)?(?:[{;(].*)?$`),
		},
		impl: rx(`^\s*(?:unsafe\s+)?impl(?:<[^>]*>)?\s+(?:[\w:<>, ]+?\s+for\s+)?&?(?P<name>[\w:]+)`),
		functions: []*regexp.Regexp{
			rx(`^\s*` + vis + `(?:default\s+)?(?:const\s+)?(?P<async>async\s+)?(?:unsafe\s+)?(?:extern\s+"[^"]*"\s+)?fn\s+(?P<name>\w+)\s*(?:<[^>]*>)?\s*\((?P<params>[^)]*)\)?(?:\s*->\s*(?P<ret>[^{;]+?))?\s*(?:where\b.*)?[{;]?\s*$`),
		},
		fields: []*regexp.Regexp{
			rx(`^\s*` + vis + `(?P<name>\w+)\s*:\s*\S`),
			rx(`^\s*(?P<name>[A-Z]\w*)\s*(?:[,({=].*)?$`),
		},
		variables: []*regexp.Regexp{
			rx(`^\s*` + vis + `(?:let(?:\s+mut)?|const|static(?:\s+mut)?)\s+(?P<name>\w+)\s*(?::\s*(?P<type>[^=]+?))?\s*=\s*(?P<value>.+?);?\s*$`),
		},
		comment:  cLikeComment,
		keywords: keywords("if", "else", "for", "while", "loop", "match"),
		params:   rustParams,
	}
}

func rustUse(g map[string]string) []CodeImport {
	path := strings.TrimSpace(g["path"])
	if module, list, ok := strings.Cut(path, "::{"); ok {
		return []CodeImport{{Module: module, Names: splitList(strings.TrimSuffix(list, "}")), IsFromImport: true}}
	}
	if module, ok := strings.CutSuffix(path, "::*"); ok {
		return []CodeImport{{Module: module, Names: []string{"*"}, IsFromImport: true}}
	}
	module, alias, _ := strings.Cut(path, " as ")
	module = strings.TrimSpace(module)
	return []CodeImport{{Module: module, Names: []string{lastSegment(module, "::")}, Alias: strings.TrimSpace(alias)}}
}

func rustParams(raw string) []string {
	var out []string
	for _, p := range splitList(raw) {
		name, _, _ := strings.Cut(p, ":")
		name = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(strings.TrimLeft(name, "&")), "mut "))
		if strings.HasSuffix(name, "self") {
			name = "self"
		}
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

// splitList splits a comma-separated list, trimming entries and dropping
// empty ones.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
