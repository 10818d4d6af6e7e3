package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/yanqian/meeting-summarizer/internal/domain/catalog"
	"github.com/yanqian/meeting-summarizer/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/meeting-summarizer/pkg/errors"
	"github.com/yanqian/meeting-summarizer/pkg/metrics"
)

// Service exposes summarization capabilities.
type Service interface {
	Summarize(ctx context.Context, req Request) (Response, error)
}

type service struct {
	cfg      Config
	registry *Registry
	catalog  *catalog.Catalog
	tokens   TokenCounter
	recorder metrics.Recorder
	logger   *slog.Logger
}

// NewService is a wire provider for the summarizer domain.
func NewService(cfg Config, registry *Registry, models *catalog.Catalog, tokens TokenCounter, recorder metrics.Recorder, logger *slog.Logger) Service {
	if tokens == nil {
		tokens = HeuristicCounter{}
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &service{
		cfg:      cfg,
		registry: registry,
		catalog:  models,
		tokens:   tokens,
		recorder: recorder,
		logger:   logger.With("component", "summarizer.service"),
	}
}

func (s *service) Summarize(ctx context.Context, req Request) (Response, error) {
	transcript := normalize(req.Transcript)
	if transcript == "" {
		return Response{}, apperrors.Wrap(apperrors.CodeInvalidInput, "Transcript is required", nil)
	}

	name := strings.ToLower(strings.TrimSpace(req.Provider))
	if name == "" {
		name = s.cfg.DefaultProvider
	}
	provider, ok := s.registry.Get(name)
	if !ok {
		return Response{}, apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("Unsupported provider: %s", req.Provider), nil)
	}

	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = provider.DefaultModel()
	}
	s.checkContextWindow(name, model, transcript)

	start := time.Now()
	completion, err := provider.Complete(ctx, model, s.buildMessages(req.Prompt, transcript))
	latency := time.Since(start)
	if err != nil {
		if !apperrors.IsCode(err, apperrors.CodeConfig) {
			s.recorder.RecordLLMRequest(name, metrics.OutcomeFailure, latency)
		}
		s.logger.Error("summarization failed", "provider", name, "model", model, "error", err)
		return Response{}, err
	}
	s.recorder.RecordLLMRequest(name, metrics.OutcomeSuccess, latency)

	resp := Response{
		Summary:    completion.Content,
		Provider:   name,
		Model:      model,
		DurationMs: latency.Milliseconds(),
	}
	if completion.Empty {
		s.logger.Warn("provider returned no completion", "provider", name, "model", model)
		resp.Summary = FallbackSummary
	}
	if !completion.Usage.IsZero() {
		usage := completion.Usage
		resp.TokenUsage = &usage
	}
	return resp, nil
}

func (s *service) buildMessages(prompt, transcript string) []chatgpt.Message {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		prompt = s.cfg.DefaultPrompt
	}
	return []chatgpt.Message{
		{Role: "system", Content: s.cfg.SystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Transcript: %s\n\nInstructions: %s", transcript, prompt)},
	}
}

// checkContextWindow only logs; oversized transcripts are still sent.
func (s *service) checkContextWindow(provider, model, transcript string) {
	if s.catalog == nil {
		return
	}
	descriptor, ok := s.catalog.Lookup(provider, model)
	if !ok || descriptor.ID != model || descriptor.MaxTokens <= 0 {
		return
	}
	estimate := s.tokens.Count(transcript)
	if estimate > descriptor.MaxTokens {
		s.logger.Warn("transcript exceeds model context window",
			"provider", provider,
			"model", model,
			"estimated_tokens", estimate,
			"max_tokens", descriptor.MaxTokens,
		)
	}
}

func normalize(text string) string {
	text = strings.TrimSpace(text)
	text = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, text)
	return strings.TrimSpace(text)
}
