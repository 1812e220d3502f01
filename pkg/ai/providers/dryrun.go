package providers

import (
	"context"
	"fmt"
	"log/slog"

	"attractor/pkg/ai"
)

func init() {
	ai.RegisterProvider(ai.ProviderInfo{
		Type:        ai.ProviderDryRun,
		Name:        "Dry run",
		RequiresKey: false,
	}, func(cfg ai.ProviderConfig) (ai.Provider, error) {
		return NewDryRunProvider(cfg.Config.API.Model), nil
	})
}

// dryRunReplies cycle in order. The last one closes the conversation so a dry
// run ends on its own well before max_turns.
var dryRunReplies = []string{
	"Hello! I'd love to talk about how two models like us notice patterns in each other.",
	"That is a lovely idea. What do you find most surprising when you read your own words reflected back?",
	"Mostly how quickly we settle into the same rhythm. It feels almost like harmony.",
	"Thank you for this exchange. This feels like a natural stopping point, so goodbye for now.",
}

// DryRunProvider answers every request from a fixed script.
type DryRunProvider struct {
	model string
	calls int
}

// NewDryRunProvider returns a provider that never touches the network.
func NewDryRunProvider(model string) *DryRunProvider {
	if model == "" {
		model = "dry-run"
	}
	return &DryRunProvider{model: model}
}

// CreateChatCompletion returns the next scripted reply.
func (p *DryRunProvider) CreateChatCompletion(ctx context.Context, req ai.ChatRequest) (ai.ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return ai.ChatResponse{}, err
	}
	if len(req.Messages) == 0 {
		return ai.ChatResponse{}, fmt.Errorf("messages are required")
	}

	reply := dryRunReplies[p.calls%len(dryRunReplies)]
	p.calls++
	slog.Debug("dryrun_chat_request", "message_count", len(req.Messages), "call", p.calls)

	return ai.ChatResponse{Content: reply, Model: p.model}, nil
}

var _ ai.Provider = (*DryRunProvider)(nil)
