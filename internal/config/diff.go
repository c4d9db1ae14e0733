package config

import (
	"fmt"
	"slices"
)

// ConfigDiff describes what changed between two configs.
type ConfigDiff struct {
	// Hot-reloadable sections.
	LogLevelChanged bool
	NewLogLevel     LogLevel
	ScoringChanged  bool
	CatalogChanged  bool

	// RestartRequired lists changed sections that only take effect after a
	// restart.
	RestartRequired []string
}

// Empty reports whether nothing changed.
func (d ConfigDiff) Empty() bool {
	return !d.LogLevelChanged && !d.ScoringChanged && !d.CatalogChanged && len(d.RestartRequired) == 0
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}
	d.ScoringChanged = !scoringEqual(old.Scoring, new.Scoring)
	d.CatalogChanged = old.Practice != new.Practice

	if old.Server.ListenAddr != new.Server.ListenAddr ||
		old.Server.RequestTimeout != new.Server.RequestTimeout ||
		old.Server.MaxUploadBytes != new.Server.MaxUploadBytes ||
		!slices.Equal(old.Server.CORSOrigins, new.Server.CORSOrigins) {
		d.RestartRequired = append(d.RestartRequired, "server")
	}
	if !providersEqual(old.Providers, new.Providers) {
		d.RestartRequired = append(d.RestartRequired, "providers")
	}
	if old.Cache != new.Cache {
		d.RestartRequired = append(d.RestartRequired, "cache")
	}
	if old.Store != new.Store {
		d.RestartRequired = append(d.RestartRequired, "store")
	}
	return d
}

func scoringEqual(a, b ScoringConfig) bool {
	return a.Weights() == b.Weights() &&
		a.PromptWeights() == b.PromptWeights() &&
		ptrEqual(a.Temperature, b.Temperature) &&
		a.DefaultProvider == b.DefaultProvider &&
		a.DefaultLanguage == b.DefaultLanguage
}

func ptrEqual[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// providersEqual compares entries field by field. Options maps are compared
// by their string form only, which is enough to notice edits.
func providersEqual(a, b ProvidersConfig) bool {
	if a.DefaultTranscription != b.DefaultTranscription {
		return false
	}
	eq := func(x, y ProviderEntry) bool {
		if x.Name != y.Name || x.APIKey != y.APIKey || x.BaseURL != y.BaseURL || x.Model != y.Model ||
			!slices.Equal(x.Fallbacks, y.Fallbacks) || len(x.Options) != len(y.Options) {
			return false
		}
		for k, v := range x.Options {
			if w, ok := y.Options[k]; !ok || fmt.Sprint(v) != fmt.Sprint(w) {
				return false
			}
		}
		return true
	}
	return slices.EqualFunc(a.Chat, b.Chat, eq) && slices.EqualFunc(a.Transcription, b.Transcription, eq)
}
