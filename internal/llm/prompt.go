package llm

import (
	"fmt"

	"github.com/dusk-indust/semdiff/internal/structure"
)

const jsonRules = `RULES:
- Output ONLY valid JSON
- No explanations, comments, or text before/after JSON
- Do not start with "I need to" or any explanatory text
- Your entire response must be parseable as JSON`

const compareTemplate = `You are a JSON-only code comparison tool. Your response must be valid JSON with no additional text.

%[1]s

Compare these %[2]s code snippets:

Code 1:
` + "```%[2]s\n%[3]s\n```" + `

Code 2:
` + "```%[2]s\n%[4]s\n```" + `

Output format (respond with JSON only):
{
    "semantic_similarity_score": 0.8,
    "functional_changes": [
        {
            "description": "what behavior changed",
            "severity": "high|medium|low",
            "impact": "effect on callers",
            "confidence": 0.9
        }
    ],
    "logical_differences": [
        {
            "description": "what logic differs",
            "severity": "high|medium|low",
            "impact": "logic change",
            "confidence": 0.8
        }
    ],
    "performance_impact": "performance assessment",
    "code_quality": "quality change",
    "security_impact": "security assessment"
}`

// ComparePrompt builds the instruction sent to the model for a pairwise
// comparison.
func ComparePrompt(code1, code2 string, lang structure.Language) string {
	return fmt.Sprintf(compareTemplate, jsonRules, lang, code1, code2)
}
