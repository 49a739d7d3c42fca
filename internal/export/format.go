// Package export renders analysis results as JSON, plain text, or Mermaid
// diagrams.
package export

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dusk-indust/semdiff/internal/analysis"
)

// Format names an output rendering.
type Format string

const (
	FormatJSON    Format = "json"
	FormatText    Format = "text"
	FormatMermaid Format = "mermaid"
)

// ErrUnsupportedFormat is returned for unknown formats and for formats that
// cannot render the given value.
var ErrUnsupportedFormat = errors.New("unsupported format")

// ParseFormat accepts a format name case-insensitively. "plain" is an alias
// for text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatText, FormatMermaid:
		return f, nil
	case "plain":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// WriteFile renders a file comparison.
func WriteFile(w io.Writer, f Format, fc *analysis.FileComparison) error {
	switch f {
	case FormatJSON:
		return writeJSON(w, NewFileReport(fc))
	case FormatText:
		return writeFileText(w, fc)
	case FormatMermaid:
		_, err := io.WriteString(w, FileMermaid(fc))
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

// WriteDirectory renders a directory comparison.
func WriteDirectory(w io.Writer, f Format, dc *analysis.DirectoryComparison) error {
	switch f {
	case FormatJSON:
		return writeJSON(w, NewDirectoryReport(dc))
	case FormatText:
		return writeDirectoryText(w, dc)
	case FormatMermaid:
		_, err := io.WriteString(w, DirectoryMermaid(dc))
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

// SeverityCount is a file with at least one high-severity difference.
type SeverityCount struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

// BucketCount is the number of files whose similarity falls in a band.
type BucketCount struct {
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// buckets are half-open [Min, Max) except the top one, which includes 1.0.
var buckets = []BucketCount{
	{Label: "very similar", Min: 0.9, Max: 1.0},
	{Label: "similar", Min: 0.7, Max: 0.9},
	{Label: "partially similar", Min: 0.5, Max: 0.7},
	{Label: "different", Min: 0.0, Max: 0.5},
}

const maxHighSeverity = 10

func countSeverity(r *analysis.Result, s analysis.Severity) int {
	n := 0
	for _, d := range r.Differences {
		if d.Severity == s {
			n++
		}
	}
	return n
}

// highSeverityFiles returns up to limit files ordered by descending
// high-severity count, then path.
func highSeverityFiles(dc *analysis.DirectoryComparison, limit int) []SeverityCount {
	out := []SeverityCount{}
	for _, fc := range dc.Files {
		if fc.Result == nil {
			continue
		}
		if n := countSeverity(fc.Result, analysis.SeverityHigh); n > 0 {
			out = append(out, SeverityCount{Path: fc.Path, Count: n})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Path < out[j].Path
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func distribution(dc *analysis.DirectoryComparison) []BucketCount {
	out := make([]BucketCount, len(buckets))
	copy(out, buckets)
	for _, fc := range dc.Files {
		if fc.Result == nil {
			continue
		}
		out[bucketOf(fc.Result.SimilarityScore)].Count++
	}
	return out
}

func bucketOf(score float64) int {
	for i, b := range buckets {
		if score >= b.Min {
			return i
		}
	}
	return len(buckets) - 1
}
