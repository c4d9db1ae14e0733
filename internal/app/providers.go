package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MrWong99/pronuncia/internal/config"
	"github.com/MrWong99/pronuncia/internal/resilience"
	"github.com/MrWong99/pronuncia/pkg/provider/llm"
	"github.com/MrWong99/pronuncia/pkg/provider/stt"
)

// Providers holds the instantiated backends by configured name. Every value
// is a failover group whose first member is the backend of the same name.
type Providers struct {
	Chat          map[string]llm.Provider
	Transcription map[string]stt.Transcriber

	chatGroups          map[string]*resilience.Chat
	transcriptionGroups map[string]*resilience.Transcriber
}

// BreakerStates returns a function reporting the breaker states of the named
// group, for readiness checks. It returns nil for unknown names.
func (p *Providers) BreakerStates(kind, name string) func() map[string]resilience.State {
	switch kind {
	case "chat":
		if g, ok := p.chatGroups[name]; ok {
			return g.States
		}
	case "transcription":
		if g, ok := p.transcriptionGroups[name]; ok {
			return g.States
		}
	}
	return nil
}

// BuildProviders instantiates every configured provider through reg and
// wraps each one in a failover group following its fallbacks list. Entries
// without a registered factory are skipped with a log line. Entries whose
// factory reports missing credentials are replaced by a fail-fast stand-in
// so their fallbacks and the similarity score still serve requests.
func BuildProviders(ctx context.Context, cfg *config.Config, reg *config.Registry, gc resilience.GroupConfig) (*Providers, error) {
	ps := &Providers{
		Chat:                map[string]llm.Provider{},
		Transcription:       map[string]stt.Transcriber{},
		chatGroups:          map[string]*resilience.Chat{},
		transcriptionGroups: map[string]*resilience.Transcriber{},
	}

	chats := map[string]llm.Provider{}
	for _, e := range cfg.Providers.Chat {
		p, err := reg.CreateChat(ctx, e)
		if errors.Is(err, config.ErrProviderNotRegistered) {
			slog.Warn("no implementation for provider, skipping", "kind", "chat", "name", e.Name)
			continue
		}
		if errors.Is(err, llm.ErrNotConfigured) {
			slog.Warn("provider not configured, requests will degrade", "kind", "chat", "name", e.Name, "err", err)
			chats[e.Name] = llm.Unavailable{Name: e.Name}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("app: create chat provider %q: %w", e.Name, err)
		}
		chats[e.Name] = p
		slog.Info("provider created", "kind", "chat", "name", e.Name, "model", e.Model)
	}
	for _, e := range cfg.Providers.Chat {
		p, ok := chats[e.Name]
		if !ok {
			continue
		}
		g := resilience.NewChat(e.Name, p, gc)
		for _, fb := range e.Fallbacks {
			if fp, ok := chats[fb]; ok {
				g.AddFallback(fb, fp)
			}
		}
		ps.chatGroups[e.Name] = g
		ps.Chat[e.Name] = g
	}

	trs := map[string]stt.Transcriber{}
	for _, e := range cfg.Providers.Transcription {
		t, err := reg.CreateTranscription(ctx, e)
		if errors.Is(err, config.ErrProviderNotRegistered) {
			slog.Warn("no implementation for provider, skipping", "kind", "transcription", "name", e.Name)
			continue
		}
		if errors.Is(err, stt.ErrNotConfigured) {
			slog.Warn("provider not configured, requests will fail", "kind", "transcription", "name", e.Name, "err", err)
			trs[e.Name] = stt.Unavailable{Name: e.Name}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("app: create transcription provider %q: %w", e.Name, err)
		}
		trs[e.Name] = t
		slog.Info("provider created", "kind", "transcription", "name", e.Name, "model", e.Model)
	}
	for _, e := range cfg.Providers.Transcription {
		t, ok := trs[e.Name]
		if !ok {
			continue
		}
		g := resilience.NewTranscriber(e.Name, t, gc)
		for _, fb := range e.Fallbacks {
			if ft, ok := trs[fb]; ok {
				g.AddFallback(fb, ft)
			}
		}
		ps.transcriptionGroups[e.Name] = g
		ps.Transcription[e.Name] = g
	}
	return ps, nil
}
