// Package gemini provides an LLM provider backed by Google Gemini through
// github.com/google/generative-ai-go.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/MrWong99/pronuncia/pkg/provider/llm"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-1.5-flash"

// Provider implements llm.Provider using the Gemini generative API.
type Provider struct {
	client *genai.Client
	model  string
}

// New dials the Gemini API. The returned Provider owns the client; call Close
// when done. An empty model selects DefaultModel.
func New(ctx context.Context, apiKey, model string, opts ...option.ClientOption) (*Provider, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: apiKey must not be empty: %w", llm.ErrNotConfigured)
	}
	if model = strings.TrimSpace(model); model == "" {
		model = DefaultModel
	}
	cl, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return &Provider{client: cl, model: model}, nil
}

// Close releases the underlying client.
func (p *Provider) Close() error {
	return p.client.Close()
}

// Model returns the configured model name.
func (p *Provider) Model() string { return p.model }

// Complete implements llm.Provider.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	m := p.client.GenerativeModel(p.model)
	configureModel(m, req)

	resp, err := m.GenerateContent(ctx, userParts(req)...)
	if err != nil {
		return nil, fmt.Errorf("gemini: generate content: %w", err)
	}
	txt := FirstText(resp)
	if txt == "" {
		return nil, fmt.Errorf("gemini: %w", llm.ErrEmptyResponse)
	}

	out := &llm.CompletionResponse{Content: txt}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = llm.Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return out, nil
}

// configureModel applies the request's generation settings to m. Each call gets
// its own GenerativeModel so concurrent requests never share settings.
func configureModel(m *genai.GenerativeModel, req llm.CompletionRequest) {
	if req.SystemPrompt != "" {
		m.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.SystemPrompt)},
		}
	}
	if req.Temperature != 0 {
		m.SetTemperature(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.JSONOutput {
		m.ResponseMIMEType = "application/json"
	}
}

// userParts flattens the conversation into text parts. System-role messages
// inside Messages are kept inline since Gemini has a single system field.
func userParts(req llm.CompletionRequest) []genai.Part {
	parts := make([]genai.Part, 0, len(req.Messages))
	for _, msg := range req.Messages {
		if msg.Content == "" {
			continue
		}
		parts = append(parts, genai.Text(msg.Content))
	}
	return parts
}

// FirstText returns the first text part of the first candidate carrying one.
func FirstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		for _, part := range c.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

var _ llm.Provider = (*Provider)(nil)
