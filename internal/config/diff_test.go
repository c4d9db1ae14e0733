package config_test

import (
	"slices"
	"strings"
	"testing"

	"github.com/MrWong99/pronuncia/internal/config"
)

func mustLoad(t *testing.T, yaml string) *config.Config {
	t.Helper()
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	return cfg
}

func TestDiff_Identical(t *testing.T) {
	t.Parallel()
	a := mustLoad(t, sampleYAMLNoEnv)
	b := mustLoad(t, sampleYAMLNoEnv)
	if d := config.Diff(a, b); !d.Empty() {
		t.Errorf("Diff of identical configs = %+v, want empty", d)
	}
}

func TestDiff_HotReloadable(t *testing.T) {
	t.Parallel()
	old := mustLoad(t, "server:\n  log_level: info\n")
	new := mustLoad(t, "server:\n  log_level: warn\nscoring:\n  hit_weight: 0.5\npractice:\n  catalog_file: cat.yaml\n")

	d := config.Diff(old, new)
	if !d.LogLevelChanged || d.NewLogLevel != config.LogWarn {
		t.Errorf("log level diff = %v / %q", d.LogLevelChanged, d.NewLogLevel)
	}
	if !d.ScoringChanged {
		t.Error("ScoringChanged = false, want true")
	}
	if !d.CatalogChanged {
		t.Error("CatalogChanged = false, want true")
	}
	if len(d.RestartRequired) != 0 {
		t.Errorf("RestartRequired = %v, want none", d.RestartRequired)
	}
}

func TestDiff_DefaultsAreNotChanges(t *testing.T) {
	t.Parallel()
	old := mustLoad(t, "")
	new := mustLoad(t, "scoring:\n  similarity_weight: 0.8\n  hit_weight: 0.2\n")
	if d := config.Diff(old, new); d.ScoringChanged {
		t.Error("explicit default weights reported as a change")
	}
}

func TestDiff_RestartRequired(t *testing.T) {
	t.Parallel()
	old := mustLoad(t, sampleYAMLNoEnv)
	new := mustLoad(t, strings.NewReplacer(
		`listen_addr: ":9000"`, `listen_addr: ":9001"`,
		"language: pt", "language: en",
		"ttl: 1h", "ttl: 2h",
	).Replace(sampleYAMLNoEnv))

	d := config.Diff(old, new)
	for _, want := range []string{"server", "providers", "cache"} {
		if !slices.Contains(d.RestartRequired, want) {
			t.Errorf("RestartRequired = %v, missing %q", d.RestartRequired, want)
		}
	}
	if slices.Contains(d.RestartRequired, "store") {
		t.Errorf("RestartRequired = %v, store did not change", d.RestartRequired)
	}
}

var sampleYAMLNoEnv = strings.ReplaceAll(sampleYAML, "${PRONUNCIA_TEST_GEMINI_KEY}", "g-key")
