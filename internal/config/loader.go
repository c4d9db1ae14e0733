package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"chat":          {"openai", "gemini", "anthropic", "ollama", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
	"transcription": {"gemini", "openai", "whisper", "whisper-native", "gcp-speech"},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, expands ${VAR} references in
// secrets, applies defaults, and validates the result. An empty document
// yields the default configuration.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	expandEnv(cfg)
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// expandEnv resolves environment references in fields that usually carry
// credentials or endpoints.
func expandEnv(cfg *Config) {
	for _, entries := range [][]ProviderEntry{cfg.Providers.Chat, cfg.Providers.Transcription} {
		for i := range entries {
			entries[i].APIKey = os.ExpandEnv(entries[i].APIKey)
			entries[i].BaseURL = os.ExpandEnv(entries[i].BaseURL)
		}
	}
	cfg.Cache.RedisAddr = os.ExpandEnv(cfg.Cache.RedisAddr)
	cfg.Cache.Password = os.ExpandEnv(cfg.Cache.Password)
	cfg.Store.PostgresDSN = os.ExpandEnv(cfg.Store.PostgresDSN)
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.request_timeout %s must not be negative", cfg.Server.RequestTimeout))
	}
	if cfg.Server.MaxUploadBytes < 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_bytes %d must not be negative", cfg.Server.MaxUploadBytes))
	}

	// Providers
	errs = append(errs, validateEntries("chat", cfg.Providers.Chat)...)
	errs = append(errs, validateEntries("transcription", cfg.Providers.Transcription)...)
	warnUnconfigured("chat", cfg.Scoring.DefaultProvider, cfg.Providers.Chat)
	warnUnconfigured("transcription", cfg.Providers.DefaultTranscription, cfg.Providers.Transcription)

	// Scoring
	w := cfg.Scoring.Weights()
	if w.Similarity < 0 || w.Hit < 0 {
		errs = append(errs, fmt.Errorf("scoring weights must not be negative (similarity %.2f, hit %.2f)", w.Similarity, w.Hit))
	} else if w.Similarity+w.Hit == 0 {
		errs = append(errs, errors.New("scoring.similarity_weight and scoring.hit_weight must not both be zero"))
	} else if sum := w.Similarity + w.Hit; sum > 1.000001 {
		slog.Warn("scoring weights sum above 1; scores will be capped at 100", "sum", sum)
	}
	pw := cfg.Scoring.PromptWeights()
	for name, v := range map[string]int{
		"ai_accuracy_weight":      pw.Accuracy,
		"ai_pronunciation_weight": pw.Pronunciation,
		"ai_fluency_weight":       pw.Fluency,
	} {
		if v < 0 || v > 100 {
			errs = append(errs, fmt.Errorf("scoring.%s %d is out of range [0, 100]", name, v))
		}
	}
	if t := cfg.Scoring.Temperature; t != nil && (*t < 0 || *t > 2) {
		errs = append(errs, fmt.Errorf("scoring.temperature %.2f is out of range [0, 2]", *t))
	}

	// Cache and store
	if cfg.Cache.TTL < 0 {
		errs = append(errs, fmt.Errorf("cache.ttl %s must not be negative", cfg.Cache.TTL))
	}
	if cfg.Store.MemoryLimit < 0 {
		errs = append(errs, fmt.Errorf("store.memory_limit %d must not be negative", cfg.Store.MemoryLimit))
	}

	return errors.Join(errs...)
}

// validateEntries checks names and fallback references of one provider kind.
func validateEntries(kind string, entries []ProviderEntry) []error {
	var errs []error
	seen := make(map[string]int, len(entries))
	for i, e := range entries {
		prefix := fmt.Sprintf("providers.%s[%d]", kind, i)
		if e.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
			continue
		}
		if e.Name != strings.ToLower(e.Name) {
			errs = append(errs, fmt.Errorf("%s.name %q must be lower case", prefix, e.Name))
		}
		if prev, ok := seen[e.Name]; ok {
			errs = append(errs, fmt.Errorf("%s.name %q is a duplicate of providers.%s[%d]", prefix, e.Name, kind, prev))
		}
		seen[e.Name] = i
		validateProviderName(kind, e.Name)
	}
	for i, e := range entries {
		for _, fb := range e.Fallbacks {
			if _, ok := seen[fb]; !ok {
				errs = append(errs, fmt.Errorf("providers.%s[%d].fallbacks references unknown provider %q", kind, i, fb))
			} else if fb == e.Name {
				errs = append(errs, fmt.Errorf("providers.%s[%d].fallbacks references itself", kind, i))
			}
		}
	}
	return errs
}

// validateProviderName logs a warning if name is not found in the
// [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	known, ok := ValidProviderNames[kind]
	if !ok || slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name, may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}

func warnUnconfigured(kind, name string, entries []ProviderEntry) {
	if slices.ContainsFunc(entries, func(e ProviderEntry) bool { return e.Name == name }) {
		return
	}
	slog.Warn("default provider is not configured; requests relying on it will degrade",
		"kind", kind,
		"name", name,
	)
}
