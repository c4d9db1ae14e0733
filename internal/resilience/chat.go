package resilience

import (
	"context"

	"github.com/MrWong99/pronuncia/pkg/provider/llm"
)

// Chat is an [llm.Provider] that fails over across several chat backends.
type Chat struct {
	group *Group[llm.Provider]
}

var _ llm.Provider = (*Chat)(nil)

// NewChat returns a Chat whose first choice is primary.
func NewChat(primaryName string, primary llm.Provider, cfg GroupConfig) *Chat {
	return &Chat{group: NewGroup(primaryName, primary, cfg)}
}

// AddFallback appends a backend tried after all earlier ones.
func (c *Chat) AddFallback(name string, p llm.Provider) { c.group.Add(name, p) }

// States reports the breaker state of every backend.
func (c *Chat) States() map[string]State { return c.group.States() }

// Complete sends req to the first healthy backend. A nil response counts as a
// failure so the next backend gets a chance. The returned response names the
// backend that answered unless a nested group already did.
func (c *Chat) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return Do(ctx, c.group, func(name string, p llm.Provider) (*llm.CompletionResponse, error) {
		resp, err := p.Complete(ctx, req)
		if err != nil {
			return nil, err
		}
		if resp == nil {
			return nil, llm.ErrEmptyResponse
		}
		out := *resp
		if out.Provider == "" {
			out.Provider = name
		}
		return &out, nil
	})
}
