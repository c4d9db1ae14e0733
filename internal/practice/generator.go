package practice

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/MrWong99/pronuncia/internal/observe"
)

// ErrUnknownCategory is returned by [Generator.Generate] for a key that is not
// in the catalog.
var ErrUnknownCategory = errors.New("practice: unknown category")

// Age groups and difficulties accepted by [Options].
const (
	AgeInfantil = "infantil"
	AgeJuvenil  = "juvenil"
	AgeAdulto   = "adulto"

	DifficultyFacil   = "facil"
	DifficultyMedio   = "medio"
	DifficultyDificil = "dificil"
)

// closingClauses are appended to short sentences.
var closingClauses = []string{"Ela sorriu.", "Ele caminhou.", "O vento soprou."}

// MaxCount caps the items of one [Generator.Generate] call.
const MaxCount = 100

// Item is one generated practice item. Without [Options.IncludeMeta] only
// Text is set and callers are expected to publish [Texts] instead.
type Item struct {
	Text               string   `json:"text"`
	TargetWords        []string `json:"target_words"`
	Instructions       string   `json:"instructions"`
	EstimatedDurationS *int     `json:"estimated_duration_s,omitempty"`
}

// Texts returns the text of every item.
func Texts(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Text
	}
	return out
}

// Options tunes a generation call. Zero values mean "adulto" and "medio".
type Options struct {
	AgeGroup    string
	Difficulty  string
	IncludeMeta bool
}

// WordMultiplier scales item length by age group and difficulty. Unknown age
// groups count as adults and unknown difficulties as medium.
func WordMultiplier(ageGroup, difficulty string) float64 {
	m := 1.6
	switch ageGroup {
	case AgeInfantil:
		m = 1.0
	case AgeJuvenil:
		m = 1.3
	}
	switch difficulty {
	case DifficultyFacil:
		m *= 0.9
	case DifficultyDificil:
		m *= 1.2
	}
	return m
}

// Generator builds practice items from a catalog. It is safe for concurrent
// use.
type Generator struct {
	catalog *Catalog
	metrics *observe.Metrics

	mu  sync.Mutex
	rnd *rand.Rand
}

// Option configures a [Generator].
type Option func(*Generator)

// WithRand makes the generator draw from r instead of the process-wide
// source. Intended for reproducible tests.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) { g.rnd = r }
}

// WithMetrics sets the metrics sink. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(g *Generator) { g.metrics = m }
}

// NewGenerator returns a Generator over c.
func NewGenerator(c *Catalog, opts ...Option) *Generator {
	g := &Generator{catalog: c}
	for _, o := range opts {
		o(g)
	}
	if g.metrics == nil {
		g.metrics = observe.DefaultMetrics()
	}
	return g
}

// Catalog returns the catalog the generator draws from.
func (g *Generator) Catalog() *Catalog { return g.catalog }

// Generate produces up to count items for category. Items with identical
// text are dropped after their first occurrence, so fewer than count items
// may be returned. Negative counts yield no items and counts above
// [MaxCount] are clamped.
func (g *Generator) Generate(ctx context.Context, category string, count int, opts Options) ([]Item, error) {
	cat, ok := g.catalog.Get(category)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}

	count = min(max(count, 0), MaxCount)
	m := WordMultiplier(opts.AgeGroup, opts.Difficulty)
	seen := make(map[string]bool, count)
	items := make([]Item, 0, count)
	for range count {
		text := g.text(cat, m)
		if seen[text] {
			continue
		}
		seen[text] = true

		it := Item{Text: text}
		if opts.IncludeMeta {
			d := cat.ExpectedDurationS
			it.TargetWords = ExtractTargetWords(text, cat.Key)
			if it.TargetWords == nil {
				it.TargetWords = []string{}
			}
			it.Instructions = cat.Instructions
			it.EstimatedDurationS = &d
		}
		items = append(items, it)
	}

	g.metrics.RecordPracticeItems(ctx, cat.Key, len(items))
	return items, nil
}

// text builds one item with the rule of cat.
func (g *Generator) text(cat Category, m float64) string {
	samples := cat.Samples
	switch cat.Key {
	case "leitura_rapida":
		parts := make([]string, max(1, int(m)))
		for i := range parts {
			parts[i] = g.pick(samples)
		}
		return strings.Join(parts, " ")

	case "repeticao_fonemas":
		p := g.pick(samples)
		if g.chance() < 0.5 {
			return p
		}
		a, b, ok := strings.Cut(p, "/")
		if !ok {
			b = p
		}
		return strings.TrimSpace(a) + " / " + strings.TrimSpace(b)

	case "leitura_palavras":
		words := make([]string, max(4, int(4*m)))
		for i := range words {
			words[i] = strings.TrimSpace(g.pick(strings.Split(g.pick(samples), ",")))
		}
		return strings.Join(words, ", ")

	case "frases_curtas":
		base := g.pick(samples)
		if g.chance() < 0.5 {
			return base
		}
		return base + " " + g.pick(closingClauses)

	case "repeticao_silabas":
		if g.chance() < 0.6 {
			tokens := make([]string, max(3, int(3*m)))
			for i := range tokens {
				tokens[i] = firstField(g.pick(samples))
			}
			return strings.Join(tokens, " ")
		}
		return g.pick(samples)

	case "trava_linguas_progressiva":
		return progressive(g.pick(samples), max(2, int(2*m)+1))
	}
	return g.pick(samples)
}

// progressive renders text as stages of growing word prefixes, the last
// stage being the full text.
func progressive(text string, stages int) string {
	words := strings.Fields(text)
	stages = min(stages, len(words))
	if stages <= 1 {
		return text
	}
	out := make([]string, 0, stages)
	for s := 1; s <= stages; s++ {
		n := (len(words)*s + stages - 1) / stages
		out = append(out, strings.Join(words[:n], " "))
	}
	return strings.Join(out, " / ")
}

func firstField(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return s
}

func (g *Generator) pick(s []string) string {
	return s[g.intN(len(s))]
}

func (g *Generator) intN(n int) int {
	if g.rnd == nil {
		return rand.IntN(n)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.IntN(n)
}

func (g *Generator) chance() float64 {
	if g.rnd == nil {
		return rand.Float64()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.Float64()
}
