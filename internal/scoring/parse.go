package scoring

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
)

// aiPayload mirrors the JSON object requested from the model. Pointer and
// slice fields stay nil when the model omits them.
type aiPayload struct {
	Score       *json.Number `json:"score"`
	Match       *bool        `json:"match"`
	Feedback    *string      `json:"feedback"`
	Errors      []string     `json:"errors"`
	Suggestions []string     `json:"suggestions"`
	Highlights  *struct {
		Correct   []string `json:"correct"`
		Incorrect []string `json:"incorrect"`
	} `json:"highlights"`
}

const defaultAIFeedback = "no feedback available"

// sanitize strips a surrounding markdown code fence (``` or ```json and the
// like) and whitespace from raw model output.
func sanitize(raw string) string {
	s := strings.TrimSpace(raw)
	if rest, ok := strings.CutPrefix(s, "```"); ok {
		s = strings.TrimLeftFunc(rest, isFenceTag)
	}
	s = strings.TrimSpace(s)
	if before, ok := strings.CutSuffix(s, "```"); ok {
		s = before
	}
	return strings.TrimSpace(s)
}

func isFenceTag(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '+'
}

// parse decodes the sanitized model output. Anything that is not a single
// JSON object is malformed.
func parse(clean string) (aiPayload, error) {
	var p aiPayload
	if !strings.HasPrefix(clean, "{") {
		return p, fmt.Errorf("%w: not a JSON object", ErrAIResponseMalformed)
	}
	if err := json.Unmarshal([]byte(clean), &p); err != nil {
		return p, fmt.Errorf("%w: %w", ErrAIResponseMalformed, err)
	}
	return p, nil
}

// validate turns a decoded payload into a Result, defaulting absent fields and
// clamping the score into [0, 100]. The caller fills in method, language and
// the raw texts.
func validate(p aiPayload) Result {
	r := Result{
		Feedback:    defaultAIFeedback,
		Errors:      nonNil(p.Errors),
		Suggestions: nonNil(p.Suggestions),
		Highlights:  Highlights{Correct: []string{}, Incorrect: []string{}},
	}
	if p.Score != nil {
		if v, err := p.Score.Float64(); err == nil {
			r.Score = clamp(v, 0, 100)
		}
	}
	if p.Match != nil {
		r.Match = *p.Match
	}
	if p.Feedback != nil && strings.TrimSpace(*p.Feedback) != "" {
		r.Feedback = *p.Feedback
	}
	if p.Highlights != nil {
		r.Highlights.Correct = nonNil(p.Highlights.Correct)
		r.Highlights.Incorrect = nonNil(p.Highlights.Incorrect)
	}
	return r
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
