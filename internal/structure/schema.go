package structure

import "strings"

// --- Enums ---

// Language identifies a programming language for extraction. Any string is
// accepted; languages without a grammar or fallback pattern set extract to an
// empty CodeStructure.
type Language string

const (
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangJava       Language = "java"
	LangGo         Language = "go"
	LangRust       Language = "rust"
)

// KnownLanguages are the languages with a grammar and a fallback pattern set.
var KnownLanguages = []Language{LangPython, LangJavaScript, LangTypeScript, LangJava, LangGo, LangRust}

var languageAliases = map[string]Language{
	"py":      LangPython,
	"python3": LangPython,
	"js":      LangJavaScript,
	"jsx":     LangJavaScript,
	"node":    LangJavaScript,
	"ts":      LangTypeScript,
	"tsx":     LangTypeScript,
	"golang":  LangGo,
	"rs":      LangRust,
}

// ParseLanguage normalizes a user-supplied language tag. Unrecognized tags are
// returned lowercased and trimmed rather than rejected.
func ParseLanguage(tag string) Language {
	t := strings.ToLower(strings.TrimSpace(tag))
	if l, ok := languageAliases[t]; ok {
		return l
	}
	return Language(t)
}

// Scope tags where a variable was declared.
type Scope string

const (
	ScopeGlobal Scope = "global"
	ScopeLocal  Scope = "local"
	ScopeClass  Scope = "class"
)

// --- Models ---

// CodeFunction is a function or method definition. Optional text fields are
// empty when unknown.
type CodeFunction struct {
	Name          string   `json:"name"`
	StartLine     int      `json:"startLine"`
	EndLine       int      `json:"endLine"`
	Parameters    []string `json:"parameters"`
	ReturnType    string   `json:"returnType,omitempty"`
	Body          string   `json:"body,omitempty"`
	Decorators    []string `json:"decorators,omitempty"`
	Docstring     string   `json:"docstring,omitempty"`
	IsAsync       bool     `json:"isAsync,omitempty"`
	IsStatic      bool     `json:"isStatic,omitempty"`
	IsClassMethod bool     `json:"isClassMethod,omitempty"`
}

// CodeClass is a class-like type definition (class, struct, interface, trait).
type CodeClass struct {
	Name        string         `json:"name"`
	StartLine   int            `json:"startLine"`
	EndLine     int            `json:"endLine"`
	BaseClasses []string       `json:"baseClasses,omitempty"`
	Methods     []CodeFunction `json:"methods,omitempty"`
	Attributes  []string       `json:"attributes,omitempty"`
	Docstring   string         `json:"docstring,omitempty"`
	Decorators  []string       `json:"decorators,omitempty"`
}

// CodeVariable is an assignment or declaration.
type CodeVariable struct {
	Name     string `json:"name"`
	Line     int    `json:"line"`
	TypeHint string `json:"typeHint,omitempty"`
	Value    string `json:"value,omitempty"`
	Scope    Scope  `json:"scope"`
}

// CodeImport is a single import statement or import spec.
type CodeImport struct {
	Module       string   `json:"module"`
	Names        []string `json:"names,omitempty"`
	Alias        string   `json:"alias,omitempty"`
	Line         int      `json:"line"`
	IsFromImport bool     `json:"isFromImport,omitempty"`
}

// CodeStructure is the language-agnostic snapshot of one source file. It is
// built once per extraction and never mutated afterwards.
type CodeStructure struct {
	Language    Language       `json:"language"`
	Functions   []CodeFunction `json:"functions"`
	Classes     []CodeClass    `json:"classes"`
	Variables   []CodeVariable `json:"variables"`
	Imports     []CodeImport   `json:"imports"`
	Comments    []string       `json:"comments"`
	Complexity  int            `json:"complexity"`
	LinesOfCode int            `json:"linesOfCode"`
}

// FunctionNames returns the names of all functions, including class methods
// qualified as "Class.method".
func (s *CodeStructure) FunctionNames() []string {
	names := make([]string, 0, len(s.Functions))
	for _, f := range s.Functions {
		names = append(names, f.Name)
	}
	for _, c := range s.Classes {
		for _, m := range c.Methods {
			names = append(names, c.Name+"."+m.Name)
		}
	}
	return names
}

// FindFunction looks up a function by the name FunctionNames reports.
func (s *CodeStructure) FindFunction(name string) (CodeFunction, bool) {
	for _, f := range s.Functions {
		if f.Name == name {
			return f, true
		}
	}
	for _, c := range s.Classes {
		for _, m := range c.Methods {
			if c.Name+"."+m.Name == name {
				return m, true
			}
		}
	}
	return CodeFunction{}, false
}

// FindClass looks up a class by name.
func (s *CodeStructure) FindClass(name string) (CodeClass, bool) {
	for _, c := range s.Classes {
		if c.Name == name {
			return c, true
		}
	}
	return CodeClass{}, false
}

// countLOC counts non-blank lines.
func countLOC(source []byte) int {
	n := 0
	for _, line := range strings.Split(string(source), "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}

// emptyStructure returns a CodeStructure with non-nil slices so both backends
// serialize identically.
func emptyStructure(lang Language) *CodeStructure {
	return &CodeStructure{
		Language:   lang,
		Functions:  []CodeFunction{},
		Classes:    []CodeClass{},
		Variables:  []CodeVariable{},
		Imports:    []CodeImport{},
		Comments:   []string{},
		Complexity: 1,
	}
}
