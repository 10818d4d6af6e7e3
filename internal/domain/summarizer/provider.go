package summarizer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/yanqian/meeting-summarizer/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/meeting-summarizer/pkg/errors"
	"github.com/yanqian/meeting-summarizer/pkg/metrics"
)

const (
	rateLimitMessage  = "API rate limit exceeded. Please try again later."
	invalidKeyMessage = "Invalid API key detected. Please make sure you've replaced the placeholder API keys in your configuration with valid API keys."
)

// Completion is the normalized result of one chat completion call.
type Completion struct {
	Content string
	Empty   bool
	Usage   metrics.TokenUsage
}

// Provider is a hosted chat completion backend.
type Provider interface {
	Name() string
	DefaultModel() string
	Complete(ctx context.Context, model string, messages []chatgpt.Message) (Completion, error)
}

// ChatClient is the transport used by OpenAI compatible providers.
type ChatClient interface {
	HasAPIKey() bool
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
}

// ProviderConfig describes one OpenAI compatible provider.
type ProviderConfig struct {
	Name         string
	Label        string
	DefaultModel string
	Temperature  float32
	MaxTokens    int
	TopP         *float32
}

type chatProvider struct {
	cfg    ProviderConfig
	client ChatClient
}

// NewChatProvider adapts an OpenAI compatible client into a Provider.
func NewChatProvider(cfg ProviderConfig, client ChatClient) Provider {
	return &chatProvider{cfg: cfg, client: client}
}

// NewGroqProvider is the primary provider: Groq's OpenAI compatible endpoint.
func NewGroqProvider(client ChatClient, defaultModel string, temperature float32, maxTokens int) Provider {
	topP := float32(1)
	return NewChatProvider(ProviderConfig{
		Name:         "groq",
		Label:        "Groq",
		DefaultModel: defaultModel,
		Temperature:  temperature,
		MaxTokens:    maxTokens,
		TopP:         &topP,
	}, client)
}

// NewOpenAIProvider is the secondary provider.
func NewOpenAIProvider(client ChatClient, defaultModel string, temperature float32, maxTokens int) Provider {
	return NewChatProvider(ProviderConfig{
		Name:         "openai",
		Label:        "OpenAI",
		DefaultModel: defaultModel,
		Temperature:  temperature,
		MaxTokens:    maxTokens,
	}, client)
}

func (p *chatProvider) Name() string         { return p.cfg.Name }
func (p *chatProvider) DefaultModel() string { return p.cfg.DefaultModel }

func (p *chatProvider) Complete(ctx context.Context, model string, messages []chatgpt.Message) (Completion, error) {
	if !p.client.HasAPIKey() {
		upper := strings.ToUpper(p.cfg.Name)
		return Completion{}, apperrors.Wrap(apperrors.CodeConfig,
			fmt.Sprintf("%s API key not found. Please set the %s_API_KEY environment variable.", upper, upper), nil)
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: p.cfg.Temperature,
		MaxTokens:   p.cfg.MaxTokens,
		TopP:        p.cfg.TopP,
	})
	if err != nil {
		var apiErr *chatgpt.APIError
		if errors.As(err, &apiErr) {
			return Completion{}, apperrors.Wrap(apperrors.CodeProvider,
				rewriteProviderMessage(fmt.Sprintf("%s API error: %s", p.cfg.Label, apiErr.Message)), err)
		}
		return Completion{}, apperrors.Wrap(apperrors.CodeProvider, err.Error(), err)
	}

	usage := metrics.TokenUsage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return Completion{Empty: true, Usage: usage}, nil
	}
	return Completion{Content: resp.Choices[0].Message.Content, Usage: usage}, nil
}

// rewriteProviderMessage turns well known upstream failures into actionable guidance.
func rewriteProviderMessage(msg string) string {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "rate limit"):
		return rateLimitMessage
	case strings.Contains(lower, "invalid api key"),
		strings.Contains(lower, "invalid_api_key"),
		strings.Contains(lower, "incorrect api key"):
		return invalidKeyMessage
	default:
		return msg
	}
}

// Registry resolves providers by name.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry indexes providers by Name.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

// Get returns the provider registered under name.
func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// Names lists registered providers in a stable order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.providers))
	for name := range r.providers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
