package llm

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// ExtractJSON pulls the first JSON object out of free-form model output.
// It tries, in order: the whole text, the outermost balanced object, fenced
// code blocks, and finally a lenient repair of single quotes and line
// comments. Reasoning blocks ending in </think> are skipped.
func ExtractJSON(text string) (map[string]any, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil, false
	}
	if i := strings.Index(s, "</think>"); i >= 0 {
		s = strings.TrimSpace(s[i+len("</think>"):])
	}

	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		if m, ok := decodeObject(s); ok {
			return m, true
		}
	}
	if obj, ok := balancedObject(s); ok {
		if m, ok := decodeObject(obj); ok {
			return m, true
		}
	}
	if m, ok := fenced(s); ok {
		return m, true
	}
	return repaired(s)
}

func decodeObject(s string) (map[string]any, bool) {
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil || m == nil {
		return nil, false
	}
	return m, true
}

// balancedObject returns the text from the first '{' to its matching '}',
// ignoring braces inside string literals.
func balancedObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		ch := s[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func fenced(s string) (map[string]any, bool) {
	if i := strings.Index(s, "```json"); i >= 0 {
		rest := s[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			if m, ok := decodeObject(strings.TrimSpace(rest[:j])); ok {
				return m, true
			}
		}
	}
	for _, part := range strings.Split(s, "```") {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			if m, ok := decodeObject(part); ok && len(m) > 0 {
				return m, true
			}
		}
	}
	return nil, false
}

var (
	lineComment   = regexp.MustCompile(`//[^\n]*\n`)
	quotedKey     = regexp.MustCompile(`'([^']*)'\s*:`)
	quotedValue   = regexp.MustCompile(`:\s*'([^']*)'`)
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
)

func repaired(s string) (map[string]any, bool) {
	first, last := strings.IndexByte(s, '{'), strings.LastIndexByte(s, '}')
	if first < 0 || last <= first {
		return nil, false
	}
	candidate := s[first : last+1]
	candidate = lineComment.ReplaceAllString(candidate, "\n")
	candidate = quotedKey.ReplaceAllString(candidate, `"$1":`)
	candidate = quotedValue.ReplaceAllString(candidate, `: "$1"`)
	candidate = trailingComma.ReplaceAllString(candidate, "$1")
	return decodeObject(candidate)
}

var (
	percentCues = []*regexp.Regexp{
		regexp.MustCompile(`(?i)similarity\s*[:：]\s*(\d+(?:\.\d+)?)\s*%`),
		regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*%\s*similar`),
	}
	decimalCues = []*regexp.Regexp{
		regexp.MustCompile(`(?i)similarity\s*[:：]\s*(0(?:\.\d+)?|1(?:\.0+)?)\b`),
		regexp.MustCompile(`(?i)score\s*[:：]\s*(0(?:\.\d+)?|1(?:\.0+)?)\b`),
	}
	keywordCues = []struct {
		word  string
		score float64
	}{
		{"very different", 0.1},
		{"identical", 1.0},
		{"very similar", 0.9},
		{"dissimilar", 0.3},
		{"different", 0.3},
		{"similar", 0.7},
	}
)

// SimilarityFromText estimates a similarity score from prose: an explicit
// percentage, then an explicit decimal, then wording. Defaults to 0.5.
func SimilarityFromText(text string) float64 {
	for _, re := range percentCues {
		if m := re.FindStringSubmatch(text); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				return min(v/100, 1)
			}
		}
	}
	for _, re := range decimalCues {
		if m := re.FindStringSubmatch(text); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				return v
			}
		}
	}
	lower := strings.ToLower(text)
	for _, cue := range keywordCues {
		if strings.Contains(lower, cue.word) {
			return cue.score
		}
	}
	return 0.5
}
