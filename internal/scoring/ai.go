package scoring

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MrWong99/pronuncia/internal/observe"
	"github.com/MrWong99/pronuncia/pkg/provider/llm"
)

// DefaultProvider is used when the caller names no chat provider.
const DefaultProvider = "gemini"

// NormalizeProvider lower-cases name and substitutes def (or
// [DefaultProvider]) when it is blank.
func NormalizeProvider(name, def string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name != "" {
		return name
	}
	if def = strings.ToLower(strings.TrimSpace(def)); def != "" {
		return def
	}
	return DefaultProvider
}

// ChatResolver looks up a chat backend by provider name.
type ChatResolver interface {
	Chat(name string) (llm.Provider, bool)
}

// Providers is a static [ChatResolver].
type Providers map[string]llm.Provider

// Chat implements [ChatResolver].
func (p Providers) Chat(name string) (llm.Provider, bool) {
	pr, ok := p[name]
	return pr, ok && pr != nil
}

// Cache stores successful qualitative results. Implementations must be safe
// for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (Result, bool, error)
	Set(ctx context.Context, key string, r Result) error
}

// AIScorer asks a chat model for a qualitative score and falls back to the
// deterministic [Scorer] on every failure. It is safe for concurrent use.
type AIScorer struct {
	chats       ChatResolver
	fallback    *Scorer
	weights     PromptWeights
	temperature float64
	defaultName string
	metrics     *observe.Metrics
	cache       Cache
}

// AIOption configures an [AIScorer].
type AIOption func(*AIScorer)

// WithFallback sets the deterministic scorer used on failure.
func WithFallback(s *Scorer) AIOption {
	return func(a *AIScorer) { a.fallback = s }
}

// WithPromptWeights overrides the 70/20/10 guidance.
func WithPromptWeights(w PromptWeights) AIOption {
	return func(a *AIScorer) { a.weights = w }
}

// WithTemperature sets the sampling temperature. Default: 0.2.
func WithTemperature(t float64) AIOption {
	return func(a *AIScorer) { a.temperature = t }
}

// WithDefaultProvider sets the provider used when the caller passes none.
func WithDefaultProvider(name string) AIOption {
	return func(a *AIScorer) { a.defaultName = name }
}

// WithMetrics sets the metrics sink. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) AIOption {
	return func(a *AIScorer) { a.metrics = m }
}

// WithCache enables result caching.
func WithCache(c Cache) AIOption {
	return func(a *AIScorer) { a.cache = c }
}

// NewAIScorer returns a qualitative scorer resolving backends through chats.
func NewAIScorer(chats ChatResolver, opts ...AIOption) *AIScorer {
	a := &AIScorer{
		chats:       chats,
		weights:     DefaultPromptWeights(),
		temperature: 0.2,
		defaultName: DefaultProvider,
	}
	for _, o := range opts {
		o(a)
	}
	if a.fallback == nil {
		a.fallback = defaultScorer
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	if a.chats == nil {
		a.chats = Providers{}
	}
	return a
}

// Score never fails. On success Method is "ai-<provider>", naming the
// backend that answered when provider is a failover group; otherwise the
// deterministic result is returned, with AIResponse set when the model
// answered with something other than the expected JSON.
func (a *AIScorer) Score(ctx context.Context, expected, predicted, provider, language string) Result {
	name := NormalizeProvider(provider, a.defaultName)

	key := cacheKey(name, language, expected, predicted)
	if r, ok := a.cached(ctx, key); ok {
		return r
	}

	r, raw, err := a.score(ctx, name, expected, predicted, language)
	if err != nil {
		return a.degrade(ctx, name, expected, predicted, raw, err)
	}
	a.metrics.RecordScore(ctx, r.Method)

	if a.cache != nil {
		if err := a.cache.Set(ctx, key, r); err != nil {
			observe.Logger(ctx).Warn("score cache write failed", "err", err)
		}
	}
	return r
}

func (a *AIScorer) score(ctx context.Context, name, expected, predicted, language string) (Result, string, error) {
	p, ok := a.chats.Chat(name)
	if !ok {
		return Result{}, "", fmt.Errorf("%w: %q", ErrAIUnavailable, name)
	}

	ctx, span := observe.StartProviderSpan(ctx, observe.KindChat, name)
	start := time.Now()
	resp, err := llm.ReplyResponse(ctx, p, systemInstruction, buildPrompt(expected, predicted, language, a.weights),
		llm.WithTemperature(a.temperature), llm.WithJSONOutput())
	a.metrics.RecordProviderCall(ctx, name, observe.KindChat, time.Since(start), err)
	observe.EndSpan(span, err)
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			return Result{}, "", fmt.Errorf("%w: %w", ErrAIUnavailable, err)
		}
		return Result{}, "", fmt.Errorf("%w: %w", ErrAITransport, err)
	}

	raw := resp.Content
	payload, err := parse(sanitize(raw))
	if err != nil {
		return Result{}, raw, err
	}
	served := name
	if resp.Provider != "" {
		served = resp.Provider
	}
	r := validate(payload)
	r.Method = methodAIPrefix + served
	r.Language = language
	r.Expected = expected
	r.Predicted = predicted
	return r, raw, nil
}

func (a *AIScorer) degrade(ctx context.Context, name, expected, predicted, raw string, err error) Result {
	reason := fallbackReason(err)
	r := a.fallback.Traditional(expected, predicted)
	if reason == ReasonMalformed {
		r.AIResponse = raw
	}

	level := slog.LevelWarn
	if reason == ReasonUnavailable {
		level = slog.LevelDebug
	}
	observe.Logger(ctx).Log(ctx, level, "ai scoring degraded to similarity score",
		"provider", name,
		"reason", reason,
		"err", err,
	)
	a.metrics.RecordFallback(ctx, name, reason)
	a.metrics.RecordScore(ctx, r.Method)
	return r
}

func (a *AIScorer) cached(ctx context.Context, key string) (Result, bool) {
	if a.cache == nil {
		return Result{}, false
	}
	r, ok, err := a.cache.Get(ctx, key)
	switch {
	case err != nil:
		a.metrics.RecordCacheLookup(ctx, "error")
		observe.Logger(ctx).Warn("score cache read failed", "err", err)
		return Result{}, false
	case !ok:
		a.metrics.RecordCacheLookup(ctx, "miss")
		return Result{}, false
	}
	a.metrics.RecordCacheLookup(ctx, "hit")
	a.metrics.RecordScore(ctx, r.Method)
	return r, true
}

// cacheKey identifies a scoring request. Texts are hashed so keys stay short.
func cacheKey(provider, language, expected, predicted string) string {
	h := sha256.New()
	for _, part := range []string{provider, language, expected, predicted} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return provider + ":" + hex.EncodeToString(h.Sum(nil))
}
