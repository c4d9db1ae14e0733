// Package llm defines the Provider interface for chat-completion backends.
//
// A provider wraps a remote or local model API (OpenAI, Gemini, or any backend
// reachable through any-llm-go) and exposes a single blocking completion call.
// The scoring engine only needs "system instruction + user text in, text out",
// which [Reply] offers on top of [Provider.Complete].
//
// Implementors must be safe for concurrent use.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Role names accepted in [Message.Role].
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrEmptyResponse is returned when a backend answers without any choices.
var ErrEmptyResponse = errors.New("llm: empty response")

// ErrNotConfigured is returned by [Unavailable] and by constructors missing
// required credentials.
var ErrNotConfigured = errors.New("llm: provider not configured")

// Message is a single message in a chat conversation.
type Message struct {
	// Role is one of RoleSystem, RoleUser or RoleAssistant.
	Role string

	// Content is the text content of the message.
	Content string
}

// Usage holds token accounting information returned by the backend.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionRequest carries everything the model needs to produce a response.
// At minimum Messages must be non-empty.
type CompletionRequest struct {
	// SystemPrompt is an optional high-priority instruction placed before the
	// conversation. Providers without a dedicated system field prepend it as a
	// system-role message.
	SystemPrompt string

	// Messages is the ordered conversation. The last message is typically from
	// the user role and drives the response.
	Messages []Message

	// Temperature controls output randomness. Zero means provider default.
	Temperature float64

	// MaxTokens caps the generated tokens. Zero means provider default.
	MaxTokens int

	// JSONOutput asks the backend to constrain its output to a JSON object when
	// the backend supports it. Callers must still tolerate free text.
	JSONOutput bool
}

// CompletionResponse is returned by Complete.
type CompletionResponse struct {
	// Content is the full text of the assistant's reply.
	Content string

	// Usage contains token accounting for this request/response pair.
	Usage Usage

	// Provider names the backend that answered when the request went through
	// a failover group. Empty otherwise.
	Provider string
}

// Provider is the abstraction over any chat-completion backend.
type Provider interface {
	// Complete sends req to the model and waits for the full response.
	// It returns an error if the request fails or ctx is cancelled first.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// Reply is the "system instruction + user text → text" capability used by the
// scoring engine and the tutor endpoints.
func Reply(ctx context.Context, p Provider, system, user string, opts ...ReplyOption) (string, error) {
	resp, err := ReplyResponse(ctx, p, system, user, opts...)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// ReplyResponse is [Reply] returning the whole response. It never returns a
// nil response without an error.
func ReplyResponse(ctx context.Context, p Provider, system, user string, opts ...ReplyOption) (*CompletionResponse, error) {
	req := CompletionRequest{
		SystemPrompt: system,
		Messages:     []Message{{Role: RoleUser, Content: user}},
	}
	for _, o := range opts {
		o(&req)
	}
	resp, err := p.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, ErrEmptyResponse
	}
	return resp, nil
}

// ReplyOption tweaks the request built by [Reply].
type ReplyOption func(*CompletionRequest)

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) ReplyOption {
	return func(r *CompletionRequest) { r.Temperature = t }
}

// WithJSONOutput requests JSON-constrained output where supported.
func WithJSONOutput() ReplyOption {
	return func(r *CompletionRequest) { r.JSONOutput = true }
}

// Unavailable is a Provider that always fails fast. It stands in for a backend
// that is not configured (missing credentials, unknown name).
type Unavailable struct {
	// Name identifies the backend that is missing.
	Name string
}

// Complete always returns an error naming the missing backend.
func (u Unavailable) Complete(context.Context, CompletionRequest) (*CompletionResponse, error) {
	return nil, fmt.Errorf("%w: %q", ErrNotConfigured, u.Name)
}

var _ Provider = Unavailable{}
