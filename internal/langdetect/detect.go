// Package langdetect guesses the language tag of a source file from its
// name, shebang line or content.
package langdetect

import (
	"bytes"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/dusk-indust/semdiff/internal/structure"
)

// sniffLimit bounds how much content the heuristics look at.
const sniffLimit = 4096

var extensions = map[string]structure.Language{
	".py":    structure.LangPython,
	".pyw":   structure.LangPython,
	".js":    structure.LangJavaScript,
	".mjs":   structure.LangJavaScript,
	".cjs":   structure.LangJavaScript,
	".jsx":   structure.LangJavaScript,
	".ts":    structure.LangTypeScript,
	".tsx":   structure.LangTypeScript,
	".java":  structure.LangJava,
	".go":    structure.LangGo,
	".rs":    structure.LangRust,
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".cc":    "cpp",
	".cxx":   "cpp",
	".hpp":   "cpp",
	".cs":    "csharp",
	".rb":    "ruby",
	".php":   "php",
	".swift": "swift",
	".kt":    "kotlin",
	".scala": "scala",
	".sh":    "shell",
	".bash":  "shell",
	".zsh":   "shell",
	".lua":   "lua",
	".pl":    "perl",
	".sql":   "sql",
}

var filenames = map[string]structure.Language{
	"setup.py":          structure.LangPython,
	"manage.py":         structure.LangPython,
	"gulpfile.js":       structure.LangJavaScript,
	"webpack.config.js": structure.LangJavaScript,
	"Makefile":          "makefile",
	"Dockerfile":        "dockerfile",
}

var shebangs = []struct {
	re   *regexp.Regexp
	lang structure.Language
}{
	{regexp.MustCompile(`python\d*(\.\d+)?\b`), structure.LangPython},
	{regexp.MustCompile(`\bnode\b|\bdeno\b|\bbun\b`), structure.LangJavaScript},
	{regexp.MustCompile(`\bts-node\b`), structure.LangTypeScript},
	{regexp.MustCompile(`\bruby\b`), "ruby"},
	{regexp.MustCompile(`\bperl\b`), "perl"},
	{regexp.MustCompile(`\bphp\b`), "php"},
	{regexp.MustCompile(`\blua\b`), "lua"},
	{regexp.MustCompile(`\b(ba|z|fi)?sh\b`), "shell"},
}

type contentRule struct {
	lang     structure.Language
	patterns []*regexp.Regexp
}

func rule(lang structure.Language, patterns ...string) contentRule {
	r := contentRule{lang: lang}
	for _, p := range patterns {
		r.patterns = append(r.patterns, regexp.MustCompile(`(?m)`+p))
	}
	return r
}

// contentRules are scored by match count; ties go to the earlier rule.
var contentRules = []contentRule{
	rule(structure.LangGo,
		`^package\s+\w+\s*$`, `^import\s+\(`, `^func\s+(\(\w+\s+\*?\w+\)\s*)?\w+\s*\(`,
		`^type\s+\w+\s+(struct|interface)\s*\{`, `\bfmt\.\w+\(`, `:=`),
	rule(structure.LangPython,
		`^\s*def\s+\w+\s*\(.*\)\s*(->\s*[^:]+)?:\s*$`, `^\s*class\s+\w+(\(.*\))?:\s*$`,
		`^\s*from\s+[\w.]+\s+import\s`, `^\s*import\s+\w+\s*$`, `if\s+__name__\s*==\s*['"]__main__['"]`, `\bself\.`),
	rule(structure.LangTypeScript,
		`^\s*(export\s+)?interface\s+\w+`, `^\s*(export\s+)?type\s+\w+\s*=`,
		`:\s*(string|number|boolean|void|any|unknown)\b`, `^\s*import\s+.*\s+from\s+['"]`),
	rule(structure.LangJavaScript,
		`^\s*function\s+\w+\s*\(`, `^\s*(const|let|var)\s+\w+\s*=`, `console\.log\s*\(`,
		`\brequire\s*\(`, `module\.exports\s*=`, `=>`),
	rule(structure.LangJava,
		`^\s*package\s+[\w.]+;`, `^\s*import\s+[\w.]+(\.\*)?;`, `^\s*public\s+(final\s+)?class\s+\w+`,
		`public\s+static\s+void\s+main`, `System\.out\.print`),
	rule(structure.LangRust,
		`^\s*(pub\s+)?fn\s+\w+`, `^\s*use\s+\w+(::\w+)*`, `^\s*(pub\s+)?struct\s+\w+`,
		`^\s*impl\b`, `\w+!\s*\(`, `\blet\s+mut\b`),
}

// Detect returns the language of a file. The path is tried first
// (extension, then well-known file names), then the shebang line, then
// content heuristics. The second result is false when nothing matched.
func Detect(path string, content []byte) (structure.Language, bool) {
	if lang, ok := FromPath(path); ok {
		return lang, true
	}
	if lang, ok := fromShebang(content); ok {
		return lang, true
	}
	return FromContent(content)
}

// FromPath looks only at the file name.
func FromPath(path string) (structure.Language, bool) {
	if path == "" {
		return "", false
	}
	base := filepath.Base(path)
	if lang, ok := filenames[base]; ok {
		return lang, true
	}
	lang, ok := extensions[strings.ToLower(filepath.Ext(base))]
	return lang, ok
}

func fromShebang(content []byte) (structure.Language, bool) {
	if !bytes.HasPrefix(content, []byte("#!")) {
		return "", false
	}
	line, _, _ := bytes.Cut(content, []byte("\n"))
	for _, s := range shebangs {
		if s.re.Match(line) {
			return s.lang, true
		}
	}
	return "", false
}

// FromContent scores the content against per-language patterns and returns
// the best-scoring language.
func FromContent(content []byte) (structure.Language, bool) {
	if len(content) > sniffLimit {
		content = content[:sniffLimit]
	}
	best, bestScore := structure.Language(""), 0
	for _, r := range contentRules {
		score := 0
		for _, re := range r.patterns {
			score += len(re.FindAllIndex(content, -1))
		}
		if score > bestScore {
			best, bestScore = r.lang, score
		}
	}
	return best, bestScore > 0
}

// Patterns returns doublestar globs matching the files of langs, e.g.
// "**/*.py". An empty list means every language with a grammar.
func Patterns(langs []structure.Language) []string {
	if len(langs) == 0 {
		langs = structure.KnownLanguages
	}
	var out []string
	for ext, lang := range extensions {
		if slices.Contains(langs, lang) {
			out = append(out, "**/*"+ext)
		}
	}
	slices.Sort(out)
	return out
}
