// Package gemini provides a transcriber that sends the recorded audio inline
// to a Gemini model and asks for a verbatim transcription.
package gemini

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	llmgemini "github.com/MrWong99/pronuncia/pkg/provider/llm/gemini"
	"github.com/MrWong99/pronuncia/pkg/provider/stt"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-1.5-flash"

// maxInlineBytes is the request size limit for inline audio data.
const maxInlineBytes = 20 << 20

const instruction = "Transcreva exatamente o que foi falado neste áudio. " +
	"Responda apenas com a transcrição, sem comentários, sem aspas e sem corrigir a pronúncia."

// Provider implements stt.Transcriber using Gemini multimodal input.
type Provider struct {
	client *genai.Client
	model  string
}

// New dials the Gemini API. Call Close when done.
func New(ctx context.Context, apiKey, model string, opts ...option.ClientOption) (*Provider, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini stt: apiKey must not be empty: %w", stt.ErrNotConfigured)
	}
	if model = strings.TrimSpace(model); model == "" {
		model = DefaultModel
	}
	cl, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("gemini stt: new client: %w", err)
	}
	return &Provider{client: cl, model: model}, nil
}

// Close releases the underlying client.
func (p *Provider) Close() error {
	return p.client.Close()
}

// Transcribe implements stt.Transcriber.
func (p *Provider) Transcribe(ctx context.Context, audioPath string) (string, error) {
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return "", fmt.Errorf("gemini stt: read audio: %w", err)
	}
	if len(data) == 0 {
		return "", stt.ErrEmptyAudio
	}
	if len(data) > maxInlineBytes {
		return "", fmt.Errorf("gemini stt: audio is %d bytes, inline limit is %d", len(data), maxInlineBytes)
	}

	m := p.client.GenerativeModel(p.model)
	m.SetTemperature(0)

	resp, err := m.GenerateContent(ctx,
		genai.Text(instruction),
		genai.Blob{MIMEType: stt.MIMEType(audioPath), Data: data},
	)
	if err != nil {
		return "", fmt.Errorf("gemini stt: generate content: %w", err)
	}
	return cleanTranscript(llmgemini.FirstText(resp)), nil
}

// cleanTranscript trims whitespace and surrounding quotes the model sometimes
// adds despite the instruction.
func cleanTranscript(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"“”'")
	return strings.TrimSpace(s)
}

var _ stt.Transcriber = (*Provider)(nil)
