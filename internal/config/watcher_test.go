package config_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/MrWong99/pronuncia/internal/config"
)

const watcherValidYAML = `
server:
  log_level: info
scoring:
  hit_weight: 0.2
`

const watcherUpdatedYAML = `
server:
  log_level: debug
scoring:
  hit_weight: 0.4
`

const watcherInvalidYAML = `
server:
  log_level: bananas
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file %q: %v", path, err)
	}
}

func TestWatcher_InitialLoad(t *testing.T) {
	t.Parallel()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, cfgPath, watcherValidYAML)

	w, err := config.NewWatcher(cfgPath, nil, config.WithInterval(50*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	if got := w.Current().Server.LogLevel; got != config.LogInfo {
		t.Errorf("log_level = %q, want %q", got, config.LogInfo)
	}
}

func TestWatcher_DetectsChange(t *testing.T) {
	t.Parallel()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, cfgPath, watcherValidYAML)

	var mu sync.Mutex
	var gotDiff config.ConfigDiff
	var gotOld, gotNew *config.Config
	called := make(chan struct{}, 1)

	w, err := config.NewWatcher(cfgPath, func(old, new *config.Config, d config.ConfigDiff) {
		mu.Lock()
		gotOld, gotNew, gotDiff = old, new, d
		mu.Unlock()
		select {
		case called <- struct{}{}:
		default:
		}
	}, config.WithInterval(50*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	time.Sleep(100 * time.Millisecond)
	writeFile(t, cfgPath, watcherUpdatedYAML)

	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("callback was not invoked within timeout")
	}

	mu.Lock()
	defer mu.Unlock()
	if gotOld.Server.LogLevel != config.LogInfo || gotNew.Server.LogLevel != config.LogDebug {
		t.Errorf("log levels old=%q new=%q", gotOld.Server.LogLevel, gotNew.Server.LogLevel)
	}
	if !gotDiff.ScoringChanged || !gotDiff.LogLevelChanged {
		t.Errorf("diff = %+v, want scoring and log level changes", gotDiff)
	}
	if w.Current().Server.LogLevel != config.LogDebug {
		t.Errorf("Current() was not updated")
	}
}

func TestWatcher_InvalidFileKeepsOldConfig(t *testing.T) {
	t.Parallel()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, cfgPath, watcherValidYAML)

	var mu sync.Mutex
	calls := 0
	w, err := config.NewWatcher(cfgPath, func(*config.Config, *config.Config, config.ConfigDiff) {
		mu.Lock()
		calls++
		mu.Unlock()
	}, config.WithInterval(50*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	time.Sleep(100 * time.Millisecond)
	writeFile(t, cfgPath, watcherInvalidYAML)
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if calls != 0 {
		t.Errorf("callback invoked %d times for an invalid file", calls)
	}
	if w.Current().Server.LogLevel != config.LogInfo {
		t.Errorf("Current() log_level = %q, want previous %q", w.Current().Server.LogLevel, config.LogInfo)
	}
}

func TestWatcher_MissingFile(t *testing.T) {
	t.Parallel()
	if _, err := config.NewWatcher(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	t.Parallel()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, cfgPath, watcherValidYAML)

	w, err := config.NewWatcher(cfgPath, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	w.Stop()
	w.Stop()
}
