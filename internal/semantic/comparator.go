package semantic

import (
	"context"

	"github.com/dusk-indust/semdiff/internal/structure"
)

// Comparator is the external semantic comparison service. Implementations
// may fail or return a partially filled Result; callers treat both as
// "semantic analysis unavailable" for the missing parts.
type Comparator interface {
	Compare(ctx context.Context, code1, code2 string, lang structure.Language) (*Result, error)
}

// ComparatorFunc adapts a function to the Comparator interface.
type ComparatorFunc func(ctx context.Context, code1, code2 string, lang structure.Language) (*Result, error)

// Compare calls f.
func (f ComparatorFunc) Compare(ctx context.Context, code1, code2 string, lang structure.Language) (*Result, error) {
	return f(ctx, code1, code2, lang)
}

// Static returns a Comparator that always answers with r. Useful for tests
// and for replaying a recorded payload.
func Static(r *Result) Comparator {
	return ComparatorFunc(func(context.Context, string, string, structure.Language) (*Result, error) {
		return r, nil
	})
}
