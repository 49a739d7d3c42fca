package export

import (
	"encoding/json"
	"io"
	"time"

	"github.com/dusk-indust/semdiff/internal/analysis"
)

// now is replaced in tests.
var now = time.Now

// FileReport is the JSON export of a single file comparison.
type FileReport struct {
	ExportedAt string `json:"exportedAt"`
	analysis.FileComparison
}

// DirectoryReport is the JSON export of a directory comparison.
type DirectoryReport struct {
	ExportedAt        string          `json:"exportedAt"`
	Dir1              string          `json:"dir1"`
	Dir2              string          `json:"dir2"`
	TotalFiles        int             `json:"totalFiles"`
	FailedFiles       int             `json:"failedFiles"`
	TotalDifferences  int             `json:"totalDifferences"`
	AverageSimilarity float64         `json:"averageSimilarity"`
	HighSeverity      []SeverityCount `json:"highSeverityFiles"`
	Distribution      []BucketCount   `json:"distribution"`
	Files             []FileSummary   `json:"files"`
	OnlyInFirst       []string        `json:"onlyInFirst"`
	OnlyInSecond      []string        `json:"onlyInSecond"`
}

// FileSummary is one row of a directory report.
type FileSummary struct {
	Path              string  `json:"path"`
	SimilarityScore   float64 `json:"similarityScore"`
	Differences       int     `json:"differences"`
	HighSeverityCount int     `json:"highSeverityCount"`
	Error             string  `json:"error,omitempty"`
}

// NewFileReport stamps fc with the export time.
func NewFileReport(fc *analysis.FileComparison) *FileReport {
	return &FileReport{
		ExportedAt:     now().UTC().Format(time.RFC3339),
		FileComparison: *fc,
	}
}

// NewDirectoryReport condenses dc into per-file rows plus aggregate counts.
func NewDirectoryReport(dc *analysis.DirectoryComparison) *DirectoryReport {
	r := &DirectoryReport{
		ExportedAt:        now().UTC().Format(time.RFC3339),
		Dir1:              dc.Dir1,
		Dir2:              dc.Dir2,
		AverageSimilarity: dc.AverageSimilarity,
		HighSeverity:      highSeverityFiles(dc, maxHighSeverity),
		Distribution:      distribution(dc),
		Files:             []FileSummary{},
		OnlyInFirst:       dc.OnlyInFirst,
		OnlyInSecond:      dc.OnlyInSecond,
	}
	for _, fc := range dc.Files {
		row := FileSummary{Path: fc.Path, Error: fc.Error}
		if fc.Result != nil {
			r.TotalFiles++
			r.TotalDifferences += len(fc.Result.Differences)
			row.SimilarityScore = fc.Result.SimilarityScore
			row.Differences = len(fc.Result.Differences)
			row.HighSeverityCount = countSeverity(fc.Result, analysis.SeverityHigh)
		} else {
			r.FailedFiles++
		}
		r.Files = append(r.Files, row)
	}
	return r
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
