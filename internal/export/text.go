package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dusk-indust/semdiff/internal/analysis"
)

const (
	rule       = "================================================================================"
	subRule    = "----------------------------------------"
	maxSnippet = 100
)

func writeFileText(w io.Writer, fc *analysis.FileComparison) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, rule)
	fmt.Fprintln(bw, "Semantic diff report")
	fmt.Fprintln(bw, rule)
	fmt.Fprintf(bw, "File 1:     %s\n", fc.Path1)
	fmt.Fprintf(bw, "File 2:     %s\n", fc.Path2)
	if fc.Language != "" {
		fmt.Fprintf(bw, "Language:   %s\n", fc.Language)
	}
	if fc.Error != "" || fc.Result == nil {
		fmt.Fprintf(bw, "Error:      %s\n", fc.Error)
		return bw.Flush()
	}

	r := fc.Result
	fmt.Fprintf(bw, "Similarity: %s\n", percent(r.SimilarityScore))
	fmt.Fprintf(bw, "Quality:    %s\n", r.Quality)
	fmt.Fprintf(bw, "Time:       %s\n", r.ExecutionTime)
	if r.CacheHit {
		fmt.Fprintln(bw, "Cache hit:  yes")
	}
	fmt.Fprintln(bw)

	section(bw, "Summary")
	fmt.Fprintln(bw, r.Summary)
	fmt.Fprintln(bw)

	if len(r.Differences) == 0 {
		fmt.Fprintln(bw, "No significant differences found.")
		fmt.Fprintln(bw)
	} else {
		section(bw, fmt.Sprintf("Differences (%d)", len(r.Differences)))
		for i, d := range r.Differences {
			fmt.Fprintf(bw, "%d. %s\n", i+1, d.Description)
			fmt.Fprintf(bw, "   type: %s  severity: %s  category: %s\n", d.Type, d.Severity, d.Category)
			fmt.Fprintf(bw, "   impact: %s\n", d.SemanticImpact)
			fmt.Fprintf(bw, "   confidence: %s\n", percent(d.Confidence))
			if d.OldContent != "" {
				fmt.Fprintf(bw, "   old%s: %s\n", lines(d.OldLocation), snippet(d.OldContent))
			}
			if d.NewContent != "" {
				fmt.Fprintf(bw, "   new%s: %s\n", lines(d.NewLocation), snippet(d.NewContent))
			}
			fmt.Fprintln(bw)
		}
	}

	if len(r.Recommendations) > 0 {
		section(bw, "Recommendations")
		for i, rec := range r.Recommendations {
			fmt.Fprintf(bw, "%d. %s\n", i+1, rec)
		}
		fmt.Fprintln(bw)
	}

	if r.Semantic.Error != "" {
		fmt.Fprintf(bw, "Semantic analysis unavailable: %s\n", r.Semantic.Error)
	}
	if r.Structural.Error != "" {
		fmt.Fprintf(bw, "Structural analysis unavailable: %s\n", r.Structural.Error)
	}
	return bw.Flush()
}

func writeDirectoryText(w io.Writer, dc *analysis.DirectoryComparison) error {
	bw := bufio.NewWriter(w)
	rep := NewDirectoryReport(dc)

	fmt.Fprintln(bw, rule)
	fmt.Fprintln(bw, "Directory comparison")
	fmt.Fprintln(bw, rule)
	fmt.Fprintf(bw, "Directory 1:        %s\n", dc.Dir1)
	fmt.Fprintf(bw, "Directory 2:        %s\n", dc.Dir2)
	fmt.Fprintf(bw, "Files compared:     %d\n", rep.TotalFiles)
	if rep.FailedFiles > 0 {
		fmt.Fprintf(bw, "Files failed:       %d\n", rep.FailedFiles)
	}
	fmt.Fprintf(bw, "Total differences:  %d\n", rep.TotalDifferences)
	fmt.Fprintf(bw, "Average similarity: %s\n", percent(rep.AverageSimilarity))
	fmt.Fprintln(bw)

	if len(rep.Files) == 0 {
		fmt.Fprintln(bw, "No files to compare.")
		fmt.Fprintln(bw)
	} else {
		section(bw, "Files")
		for _, f := range rep.Files {
			if f.Error != "" {
				fmt.Fprintf(bw, "  %s: error: %s\n", f.Path, f.Error)
				continue
			}
			fmt.Fprintf(bw, "  %s: %s, %d differences\n", f.Path, percent(f.SimilarityScore), f.Differences)
		}
		fmt.Fprintln(bw)
	}

	if len(rep.HighSeverity) > 0 {
		section(bw, "Files with high-severity differences")
		for _, h := range rep.HighSeverity {
			fmt.Fprintf(bw, "  %s: %d\n", h.Path, h.Count)
		}
		fmt.Fprintln(bw)
	}

	if rep.TotalFiles > 0 {
		section(bw, "Similarity distribution")
		for _, b := range rep.Distribution {
			share := float64(b.Count) / float64(rep.TotalFiles)
			fmt.Fprintf(bw, "  %-18s %3d (%s)\n", b.Label+":", b.Count, percent(share))
		}
		fmt.Fprintln(bw)
	}

	listPaths(bw, "Only in "+dc.Dir1, dc.OnlyInFirst)
	listPaths(bw, "Only in "+dc.Dir2, dc.OnlyInSecond)
	return bw.Flush()
}

func section(w io.Writer, title string) {
	fmt.Fprintf(w, "%s:\n%s\n", title, subRule)
}

func listPaths(w io.Writer, title string, paths []string) {
	if len(paths) == 0 {
		return
	}
	section(w, title)
	for _, p := range paths {
		fmt.Fprintf(w, "  %s\n", p)
	}
	fmt.Fprintln(w)
}

func percent(v float64) string { return fmt.Sprintf("%.2f%%", v*100) }

func lines(l analysis.Location) string {
	if l.Start == 0 {
		return ""
	}
	if l.End <= l.Start {
		return fmt.Sprintf(" (line %d)", l.Start)
	}
	return fmt.Sprintf(" (lines %d-%d)", l.Start, l.End)
}

// snippet flattens content onto one line and truncates it.
func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > maxSnippet {
		return string(r[:maxSnippet]) + "..."
	}
	return s
}
