// Package openai provides a transcriber backed by the OpenAI audio
// transcription API (whisper-1, gpt-4o-transcribe).
package openai

import (
	"context"
	"fmt"
	"os"
	"strings"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/param"

	llmopenai "github.com/MrWong99/pronuncia/pkg/provider/llm/openai"
	"github.com/MrWong99/pronuncia/pkg/provider/stt"
)

// DefaultModel is used when no model is configured.
const DefaultModel = oai.AudioModelWhisper1

// Provider implements stt.Transcriber using OpenAI.
type Provider struct {
	client   oai.Client
	model    string
	language string
}

// Option is a functional option for Provider.
type Option func(*Provider)

// WithLanguage sets the ISO-639-1 hint sent with every request.
func WithLanguage(lang string) Option {
	return func(p *Provider) { p.language = lang }
}

// New constructs an OpenAI transcriber. clientOpts configure the underlying
// HTTP client the same way as the OpenAI chat provider.
func New(apiKey, model string, opts []Option, clientOpts ...llmopenai.Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai stt: apiKey must not be empty: %w", stt.ErrNotConfigured)
	}
	if model == "" {
		model = DefaultModel
	}
	p := &Provider{
		client: oai.NewClient(llmopenai.RequestOptions(apiKey, clientOpts...)...),
		model:  model,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Transcribe implements stt.Transcriber.
func (p *Provider) Transcribe(ctx context.Context, audioPath string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("openai stt: open audio: %w", err)
	}
	defer f.Close()

	params := oai.AudioTranscriptionNewParams{
		File:  f,
		Model: p.model,
	}
	if p.language != "" {
		params.Language = param.NewOpt(p.language)
	}

	resp, err := p.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai stt: transcribe: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

var _ stt.Transcriber = (*Provider)(nil)
