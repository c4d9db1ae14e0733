package scoring

import "strings"

// Method names reported in [Result.Method].
const (
	MethodLevenshtein = "levenshtein"
	methodAIPrefix    = "ai-"
)

// Highlights lists expected words the speaker got right and wrong.
type Highlights struct {
	Correct   []string `json:"correct"`
	Incorrect []string `json:"incorrect"`
}

// Result is the outcome of one scoring call. Field names are part of the
// public JSON contract.
type Result struct {
	// Score is the final score in [0, 100].
	Score float64 `json:"score"`

	// Similarity is the edit-distance similarity in [0, 100]. Only the
	// deterministic scorer sets it.
	Similarity *float64 `json:"similarity,omitempty"`

	// Hit reports an exact normalized match. Only the deterministic scorer
	// sets it.
	Hit *bool `json:"hit,omitempty"`

	Match       bool       `json:"match"`
	Predicted   string     `json:"predicted"`
	Expected    string     `json:"expected,omitempty"`
	Feedback    string     `json:"feedback"`
	Errors      []string   `json:"errors"`
	Suggestions []string   `json:"suggestions"`
	Highlights  Highlights `json:"highlights"`
	Method      string     `json:"method"`
	Language    string     `json:"language,omitempty"`

	// AIResponse carries the raw model output when it could not be parsed
	// and the deterministic score was used instead.
	AIResponse string `json:"ai_response,omitempty"`
}

// IsAI reports whether r was produced by the qualitative scorer.
func (r Result) IsAI() bool {
	return strings.HasPrefix(r.Method, methodAIPrefix)
}
