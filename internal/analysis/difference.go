// Package analysis merges structural and semantic comparisons of two code
// versions into ranked differences, a similarity score and a summary.
package analysis

// Severity is the coarse impact tier of a difference.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// severityRank orders severities for ranking; string order would put
// "medium" above "low" above "high".
var severityRank = map[Severity]int{
	SeverityLow:    1,
	SeverityMedium: 2,
	SeverityHigh:   3,
}

// Rank returns the ordinal of s; unknown severities rank lowest.
func (s Severity) Rank() int { return severityRank[s] }

// DiffType tells where a difference came from.
type DiffType string

const (
	TypeStructural DiffType = "structural"
	TypeFunctional DiffType = "functional"
)

// Category is the kind of entity a difference concerns.
type Category string

const (
	CategoryFunction   Category = "function"
	CategoryClass      Category = "class"
	CategoryVariable   Category = "variable"
	CategoryImport     Category = "import"
	CategoryComplexity Category = "complexity"
	CategoryLogic      Category = "logic"
)

// Location is a 1-indexed line span. The zero value means "unknown".
type Location struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Difference is one unified, explained change between two code versions.
type Difference struct {
	Type           DiffType `json:"type"`
	Severity       Severity `json:"severity"`
	Category       Category `json:"category"`
	OldContent     string   `json:"oldContent"`
	NewContent     string   `json:"newContent"`
	OldLocation    Location `json:"oldLocation"`
	NewLocation    Location `json:"newLocation"`
	Description    string   `json:"description"`
	SemanticImpact string   `json:"semanticImpact"`
	Confidence     float64  `json:"confidence"`
}

// dedupKey identifies duplicates.
type dedupKey struct {
	typ         DiffType
	category    Category
	description string
	old, new    string
}

func (d Difference) key() dedupKey {
	return dedupKey{d.Type, d.Category, d.Description, d.OldContent, d.NewContent}
}

// Quality reflects which analysis sources succeeded.
type Quality string

const (
	QualityHigh   Quality = "high"
	QualityMedium Quality = "medium"
	QualityLow    Quality = "low"
)

// qualityOf grades an analysis: both sources gives high, one gives medium,
// none gives low.
func qualityOf(structuralOK, semanticOK bool) Quality {
	switch {
	case structuralOK && semanticOK:
		return QualityHigh
	case structuralOK || semanticOK:
		return QualityMedium
	default:
		return QualityLow
	}
}
