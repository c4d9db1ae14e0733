package config

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/MrWong99/pronuncia/pkg/provider/llm"
	"github.com/MrWong99/pronuncia/pkg/provider/stt"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory has
// been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// ChatFactory builds a chat backend from its config entry.
type ChatFactory func(ctx context.Context, entry ProviderEntry) (llm.Provider, error)

// TranscriptionFactory builds a transcription backend from its config entry.
type TranscriptionFactory func(ctx context.Context, entry ProviderEntry) (stt.Transcriber, error)

// Registry maps provider names to their constructor functions for each
// provider kind. It is safe for concurrent use.
type Registry struct {
	mu            sync.RWMutex
	chat          map[string]ChatFactory
	transcription map[string]TranscriptionFactory
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		chat:          make(map[string]ChatFactory),
		transcription: make(map[string]TranscriptionFactory),
	}
}

// RegisterChat registers a chat provider factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterChat(name string, factory ChatFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chat[name] = factory
}

// RegisterTranscription registers a transcription provider factory under name.
func (r *Registry) RegisterTranscription(name string, factory TranscriptionFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transcription[name] = factory
}

// CreateChat instantiates a chat provider using the factory registered under entry.Name.
// Returns [ErrProviderNotRegistered] if no factory has been registered for that name.
func (r *Registry) CreateChat(ctx context.Context, entry ProviderEntry) (llm.Provider, error) {
	r.mu.RLock()
	factory, ok := r.chat[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: chat/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(ctx, entry)
}

// CreateTranscription instantiates a transcription provider using the factory
// registered under entry.Name.
func (r *Registry) CreateTranscription(ctx context.Context, entry ProviderEntry) (stt.Transcriber, error) {
	r.mu.RLock()
	factory, ok := r.transcription[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: transcription/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(ctx, entry)
}

// ChatNames returns the registered chat provider names, sorted.
func (r *Registry) ChatNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.chat)
}

// TranscriptionNames returns the registered transcription provider names, sorted.
func (r *Registry) TranscriptionNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.transcription)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Option extracts a string value from Options.
// Returns "" if the map is nil, the key is absent, or the value is not a string.
func (e ProviderEntry) Option(key string) string {
	s, _ := e.Options[key].(string)
	return s
}
