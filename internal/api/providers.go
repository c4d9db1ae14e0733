package api

import (
	"context"
	"fmt"
	"time"

	"github.com/MrWong99/pronuncia/internal/observe"
	"github.com/MrWong99/pronuncia/internal/scoring"
	"github.com/MrWong99/pronuncia/pkg/provider/llm"
)

// transcribe runs the named transcriber on path. Blank or unknown names use
// the configured default. It returns the provider actually used.
func (s *Server) transcribe(ctx context.Context, provider, path string) (string, string, error) {
	name := scoring.NormalizeProvider(provider, s.cfg.DefaultTranscription)
	tr, ok := s.cfg.Transcribers[name]
	if !ok {
		name = scoring.NormalizeProvider(s.cfg.DefaultTranscription, "")
		if tr, ok = s.cfg.Transcribers[name]; !ok {
			return "", name, fmt.Errorf("provider de transcrição %q não configurado", name)
		}
	}

	ctx, span := observe.StartProviderSpan(ctx, observe.KindTranscription, name)
	start := time.Now()
	text, err := tr.Transcribe(ctx, path)
	s.metrics.RecordProviderCall(ctx, name, observe.KindTranscription, time.Since(start), err)
	observe.EndSpan(span, err)
	return text, name, err
}

// reply sends message to the named chat provider.
func (s *Server) reply(ctx context.Context, provider, system, message string) (string, error) {
	name := scoring.NormalizeProvider(provider, defaultChatProvider)
	p, ok := s.cfg.Chats[name]
	if !ok || p == nil {
		return "", fmt.Errorf("provider sem chat: %q", name)
	}

	ctx, span := observe.StartProviderSpan(ctx, observe.KindChat, name)
	start := time.Now()
	out, err := llm.Reply(ctx, p, system, message)
	s.metrics.RecordProviderCall(ctx, name, observe.KindChat, time.Since(start), err)
	observe.EndSpan(span, err)
	return out, err
}
