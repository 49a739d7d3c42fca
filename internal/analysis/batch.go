package analysis

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/semdiff/internal/langdetect"
	"github.com/dusk-indust/semdiff/internal/structure"
)

var (
	// ErrEmptyInput is returned when both files are empty.
	ErrEmptyInput = errors.New("analysis: both inputs are empty")

	// ErrFileTooLarge is returned for files above the configured size limit.
	ErrFileTooLarge = errors.New("analysis: file too large")

	// ErrUnknownLanguage is returned when no language was given and none
	// could be detected.
	ErrUnknownLanguage = errors.New("analysis: cannot detect language")
)

// FileComparison is the outcome of comparing two files. Exactly one of
// Result and Error is set.
type FileComparison struct {
	// Path is the slash-separated relative path within a directory
	// comparison; empty for CompareFiles.
	Path     string             `json:"path,omitempty"`
	Path1    string             `json:"path1"`
	Path2    string             `json:"path2"`
	Language structure.Language `json:"language,omitempty"`
	Result   *Result            `json:"result,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// DirectoryComparison is the outcome of comparing two source trees.
type DirectoryComparison struct {
	Dir1              string           `json:"dir1"`
	Dir2              string           `json:"dir2"`
	Files             []FileComparison `json:"files"`
	OnlyInFirst       []string         `json:"onlyInFirst"`
	OnlyInSecond      []string         `json:"onlyInSecond"`
	AverageSimilarity float64          `json:"averageSimilarity"`
}

// CompareFiles reads and analyzes two files. An empty lang is detected from
// the first file, then the second.
func (a *Analyzer) CompareFiles(ctx context.Context, path1, path2 string, lang structure.Language) (*FileComparison, error) {
	code1, err := a.readSource(path1)
	if err != nil {
		return nil, err
	}
	code2, err := a.readSource(path2)
	if err != nil {
		return nil, err
	}
	if len(code1) == 0 && len(code2) == 0 {
		return nil, fmt.Errorf("%w: %s, %s", ErrEmptyInput, path1, path2)
	}

	if lang == "" {
		detected, ok := langdetect.Detect(path1, code1)
		if !ok {
			detected, ok = langdetect.Detect(path2, code2)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, path1)
		}
		lang = detected
	}

	return &FileComparison{
		Path1:    path1,
		Path2:    path2,
		Language: lang,
		Result:   a.Analyze(ctx, string(code1), string(code2), lang),
	}, nil
}

func (a *Analyzer) readSource(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("analysis: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("analysis: %s is a directory", path)
	}
	if a.maxFileSize > 0 && info.Size() > a.maxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrFileTooLarge, path, info.Size(), a.maxFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("analysis: %w", err)
	}
	return data, nil
}

// CompareDirectories compares every file present in both trees whose
// slash-separated relative path matches one of patterns. Empty patterns
// select every language with a grammar. Files are compared concurrently,
// bounded by the analyzer's worker limit. A file that cannot be compared is
// reported in its FileComparison rather than failing the whole run.
func (a *Analyzer) CompareDirectories(ctx context.Context, dir1, dir2 string, patterns []string) (*DirectoryComparison, error) {
	if len(patterns) == 0 {
		patterns = langdetect.Patterns(nil)
	}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("analysis: invalid pattern %q", p)
		}
	}

	files1, err := matchFiles(dir1, patterns)
	if err != nil {
		return nil, err
	}
	files2, err := matchFiles(dir2, patterns)
	if err != nil {
		return nil, err
	}

	var common []string
	out := &DirectoryComparison{
		Dir1:         dir1,
		Dir2:         dir2,
		OnlyInFirst:  []string{},
		OnlyInSecond: []string{},
	}
	for _, rel := range files1 {
		if _, ok := slices.BinarySearch(files2, rel); ok {
			common = append(common, rel)
		} else {
			out.OnlyInFirst = append(out.OnlyInFirst, rel)
		}
	}
	for _, rel := range files2 {
		if _, ok := slices.BinarySearch(files1, rel); !ok {
			out.OnlyInSecond = append(out.OnlyInSecond, rel)
		}
	}

	out.Files = make([]FileComparison, len(common))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.maxWorkers)
	for i, rel := range common {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p1 := filepath.Join(dir1, filepath.FromSlash(rel))
			p2 := filepath.Join(dir2, filepath.FromSlash(rel))
			fc, err := a.CompareFiles(gctx, p1, p2, "")
			if err != nil {
				a.logger.Printf("compare: skipped path=%s err=%v", rel, err)
				out.Files[i] = FileComparison{Path: rel, Path1: p1, Path2: p2, Error: err.Error()}
				return nil
			}
			fc.Path = rel
			out.Files[i] = *fc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analysis: compare directories: %w", err)
	}

	total, n := 0.0, 0
	for _, fc := range out.Files {
		if fc.Result != nil {
			total += fc.Result.SimilarityScore
			n++
		}
	}
	if n > 0 {
		out.AverageSimilarity = total / float64(n)
	}
	return out, nil
}

// matchFiles returns the sorted slash-separated paths under root matching
// any pattern. Hidden directories are skipped.
func matchFiles(root string, patterns []string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		for _, p := range patterns {
			if ok, _ := doublestar.Match(p, rel); ok {
				out = append(out, rel)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("analysis: walk %s: %w", root, err)
	}
	slices.Sort(out)
	return out, nil
}
