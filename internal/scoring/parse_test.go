package scoring

import (
	"errors"
	"slices"
	"testing"
)

func TestSanitize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"score": 90}`, `{"score": 90}`},
		{"whitespace", "\n  {\"score\": 90}  \n", `{"score": 90}`},
		{"bare fence", "```\n{\"score\": 90}\n```", `{"score": 90}`},
		{"json fence", "```json\n{\"score\": 90}\n```", `{"score": 90}`},
		{"upper tag", "```JSON {\"score\": 90}```", `{"score": 90}`},
		{"leading only", "```json\n{\"score\": 90}", `{"score": 90}`},
		{"trailing only", "{\"score\": 90}\n```", `{"score": 90}`},
		{"prose", "Claro! Aqui está", "Claro! Aqui está"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := sanitize(tc.in); got != tc.want {
				t.Errorf("sanitize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()
	for _, in := range []string{
		"",
		"Claro! Aqui está",
		"null",
		"[1, 2]",
		`{"score": 90`,
		`{"score": "muito bom"}`,
		`{"score": 90} extra`,
	} {
		if _, err := parse(in); !errors.Is(err, ErrAIResponseMalformed) {
			t.Errorf("parse(%q) err = %v, want ErrAIResponseMalformed", in, err)
		}
	}
}

func TestParse_NumericString(t *testing.T) {
	t.Parallel()
	p, err := parse(`{"score": "85.5"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if r := validate(p); r.Score != 85.5 {
		t.Errorf("score = %v, want 85.5", r.Score)
	}
}

func TestValidate_Defaults(t *testing.T) {
	t.Parallel()
	p, err := parse(`{}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	r := validate(p)

	if r.Score != 0 || r.Match {
		t.Errorf("score=%v match=%v, want 0 false", r.Score, r.Match)
	}
	if r.Feedback != "no feedback available" {
		t.Errorf("feedback = %q, want default", r.Feedback)
	}
	if r.Errors == nil || r.Suggestions == nil || r.Highlights.Correct == nil || r.Highlights.Incorrect == nil {
		t.Errorf("lists must be empty, not nil: %+v", r)
	}
}

func TestValidate_Full(t *testing.T) {
	t.Parallel()
	p, err := parse(`{
		"score": 72,
		"match": false,
		"feedback": "Boa tentativa.",
		"errors": ["troca de r por l"],
		"suggestions": ["vibre a língua no r"],
		"highlights": {"correct": ["rato"], "incorrect": ["roeu"]}
	}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	r := validate(p)

	if r.Score != 72 || r.Match || r.Feedback != "Boa tentativa." {
		t.Errorf("got score=%v match=%v feedback=%q", r.Score, r.Match, r.Feedback)
	}
	if !slices.Equal(r.Errors, []string{"troca de r por l"}) {
		t.Errorf("errors = %v", r.Errors)
	}
	if !slices.Equal(r.Suggestions, []string{"vibre a língua no r"}) {
		t.Errorf("suggestions = %v", r.Suggestions)
	}
	if !slices.Equal(r.Highlights.Correct, []string{"rato"}) || !slices.Equal(r.Highlights.Incorrect, []string{"roeu"}) {
		t.Errorf("highlights = %+v", r.Highlights)
	}
}

func TestValidate_ClampsScore(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want float64
	}{
		{`{"score": 140}`, 100},
		{`{"score": -5}`, 0},
		{`{"score": null}`, 0},
	}
	for _, tc := range tests {
		p, err := parse(tc.in)
		if err != nil {
			t.Fatalf("parse(%q): %v", tc.in, err)
		}
		if got := validate(p).Score; got != tc.want {
			t.Errorf("validate(%s).Score = %v, want %v", tc.in, got, tc.want)
		}
	}
}
