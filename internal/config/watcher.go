package config

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// ChangeFunc receives the previous config, the new one, and what differs.
type ChangeFunc func(old, new *Config, diff ConfigDiff)

// Watcher polls a config file and calls a [ChangeFunc] whenever a valid new
// version is written. Invalid versions are logged and ignored.
type Watcher struct {
	path     string
	interval time.Duration
	onChange ChangeFunc

	mu      sync.Mutex
	current *Config
	mtime   time.Time
	hash    [sha256.Size]byte

	done     chan struct{}
	stopOnce sync.Once
}

// WatcherOption configures a [Watcher].
type WatcherOption func(*Watcher)

// WithInterval sets the polling interval. The default is 5 seconds.
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// NewWatcher loads the config at path and starts polling it in the
// background. Call [Watcher.Stop] to end polling.
func NewWatcher(path string, onChange ChangeFunc, opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		path:     path,
		interval: 5 * time.Second,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	cfg, sum, mtime, err := w.read()
	if err != nil {
		return nil, fmt.Errorf("config: watcher initial load: %w", err)
	}
	w.current, w.hash, w.mtime = cfg, sum, mtime

	go w.loop()
	return w, nil
}

// Current returns the most recently loaded valid config.
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Stop ends polling. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.done) })
}

func (w *Watcher) loop() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.check()
		}
	}
}

// check reloads the file when its mtime moved and its content hash changed.
func (w *Watcher) check() {
	info, err := os.Stat(w.path)
	if err != nil {
		slog.Warn("config watcher: cannot stat file", "path", w.path, "err", err)
		return
	}
	w.mu.Lock()
	unchanged := info.ModTime().Equal(w.mtime)
	w.mu.Unlock()
	if unchanged {
		return
	}

	cfg, sum, mtime, err := w.read()
	if err != nil {
		slog.Warn("config watcher: keeping previous config", "path", w.path, "err", err)
		return
	}

	w.mu.Lock()
	if sum == w.hash {
		w.mtime = mtime
		w.mu.Unlock()
		return
	}
	old := w.current
	w.current, w.hash, w.mtime = cfg, sum, mtime
	w.mu.Unlock()

	d := Diff(old, cfg)
	slog.Info("config watcher: configuration reloaded",
		"path", w.path,
		"scoring_changed", d.ScoringChanged,
		"catalog_changed", d.CatalogChanged,
		"log_level_changed", d.LogLevelChanged,
	)
	if len(d.RestartRequired) > 0 {
		slog.Warn("config watcher: some changes need a restart", "sections", d.RestartRequired)
	}
	if w.onChange != nil {
		w.onChange(old, cfg, d)
	}
}

func (w *Watcher) read() (*Config, [sha256.Size]byte, time.Time, error) {
	var zero [sha256.Size]byte
	info, err := os.Stat(w.path)
	if err != nil {
		return nil, zero, time.Time{}, err
	}
	data, err := os.ReadFile(w.path)
	if err != nil {
		return nil, zero, time.Time{}, err
	}
	cfg, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, zero, time.Time{}, err
	}
	return cfg, sha256.Sum256(data), info.ModTime(), nil
}
