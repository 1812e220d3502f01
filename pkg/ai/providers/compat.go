package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"attractor/pkg/ai"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	xaiDefaultAPIURL        = "https://api.x.ai/v1"
	openAIDefaultAPIURL     = "https://api.openai.com/v1"
	openRouterDefaultAPIURL = "https://openrouter.ai/api/v1"
)

func init() {
	for _, info := range []ai.ProviderInfo{
		{Type: ai.ProviderXAI, Name: "xAI", DefaultURL: xaiDefaultAPIURL, RequiresKey: true},
		{Type: ai.ProviderOpenAI, Name: "OpenAI", DefaultURL: openAIDefaultAPIURL, RequiresKey: true},
		{Type: ai.ProviderOpenRouter, Name: "OpenRouter", DefaultURL: openRouterDefaultAPIURL, RequiresKey: true},
	} {
		ai.RegisterProvider(info, newCompatFactory(info))
	}
}

// CompatProvider implements ai.Provider against any OpenAI-compatible
// chat completions endpoint.
type CompatProvider struct {
	client       openai.Client
	name         ai.ProviderType
	defaultModel string
}

func newCompatFactory(info ai.ProviderInfo) ai.ProviderFactory {
	return func(cfg ai.ProviderConfig) (ai.Provider, error) {
		apiCfg := cfg.Config.API
		apiURL := strings.TrimSpace(apiCfg.APIURL)
		if apiURL == "" {
			apiURL = info.DefaultURL
		}
		httpClient := cfg.HTTPClient
		if httpClient == nil {
			httpClient = &http.Client{Timeout: time.Duration(apiCfg.APITimeoutSeconds) * time.Second}
		}
		return NewCompatProvider(info.Type, CompatConfig{
			APIKey:            cfg.APIKey,
			APIURL:            apiURL,
			Model:             apiCfg.Model,
			APITimeoutSeconds: apiCfg.APITimeoutSeconds,
		}, httpClient)
	}
}

// CompatConfig is the resolved connection settings for a CompatProvider.
type CompatConfig struct {
	APIKey            string
	APIURL            string
	Model             string
	APITimeoutSeconds int
}

// NewCompatProvider builds a provider for the given endpoint. A nil httpClient
// gets one with the configured timeout.
func NewCompatProvider(name ai.ProviderType, cfg CompatConfig, httpClient *http.Client) (*CompatProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		slog.Debug("compat_provider_missing_key", "provider", string(name))
		return nil, fmt.Errorf("%s api key is required", name)
	}
	if strings.TrimSpace(cfg.APIURL) == "" {
		return nil, fmt.Errorf("%s api_url is required", name)
	}
	if cfg.APITimeoutSeconds <= 0 {
		return nil, fmt.Errorf("%s api_timeout_seconds must be positive", name)
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: time.Duration(cfg.APITimeoutSeconds) * time.Second}
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.APIURL),
		option.WithHTTPClient(httpClient),
		// Failures abort the conversation; the SDK must not retry on its own.
		option.WithMaxRetries(0),
	)

	slog.Debug("compat_provider_ready",
		"provider", string(name),
		"api_url", cfg.APIURL,
		"model", cfg.Model,
		"timeout_seconds", cfg.APITimeoutSeconds,
	)
	return &CompatProvider{
		client:       client,
		name:         name,
		defaultModel: cfg.Model,
	}, nil
}

// CreateChatCompletion sends a non-streaming chat completion request and
// returns the first choice's content.
func (p *CompatProvider) CreateChatCompletion(ctx context.Context, req ai.ChatRequest) (ai.ChatResponse, error) {
	params, err := p.buildChatParams(req)
	if err != nil {
		return ai.ChatResponse{}, err
	}

	slog.Debug("compat_chat_request",
		"provider", string(p.name),
		"model", string(params.Model),
		"message_count", len(req.Messages),
		"has_temperature", req.Temperature != nil,
	)
	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return ai.ChatResponse{}, err
	}
	if len(resp.Choices) == 0 {
		return ai.ChatResponse{}, fmt.Errorf("%s returned no choices", p.name)
	}

	return ai.ChatResponse{
		Content: resp.Choices[0].Message.Content,
		Model:   resp.Model,
	}, nil
}

func (p *CompatProvider) buildChatParams(req ai.ChatRequest) (openai.ChatCompletionNewParams, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = p.defaultModel
	}
	if model == "" {
		return openai.ChatCompletionNewParams{}, fmt.Errorf("model is required")
	}
	if len(req.Messages) == 0 {
		return openai.ChatCompletionNewParams{}, fmt.Errorf("messages are required")
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, msg := range req.Messages {
		param, err := toChatMessageParam(msg)
		if err != nil {
			return openai.ChatCompletionNewParams{}, err
		}
		messages = append(messages, param)
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}

	return params, nil
}

func toChatMessageParam(msg ai.Message) (openai.ChatCompletionMessageParamUnion, error) {
	switch strings.ToLower(strings.TrimSpace(msg.Role)) {
	case ai.RoleSystem:
		return openai.SystemMessage(msg.Content), nil
	case ai.RoleUser:
		return openai.UserMessage(msg.Content), nil
	case ai.RoleAssistant:
		return openai.AssistantMessage(msg.Content), nil
	default:
		return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("unsupported role: %s", msg.Role)
	}
}

// Ensure interface compliance
var _ ai.Provider = (*CompatProvider)(nil)
