package summarizer

import "github.com/yanqian/meeting-summarizer/pkg/metrics"

// Config configures the summarization dispatcher.
type Config struct {
	DefaultProvider string
	SystemPrompt    string
	DefaultPrompt   string
}

// Request represents the incoming summarization payload.
type Request struct {
	Transcript string `json:"transcript"`
	Prompt     string `json:"prompt,omitempty"`
	Provider   string `json:"provider,omitempty"`
	Model      string `json:"model,omitempty"`
}

// Response is returned by the summarize endpoint.
type Response struct {
	Summary    string              `json:"summary"`
	Provider   string              `json:"provider"`
	Model      string              `json:"model"`
	DurationMs int64               `json:"durationMs,omitempty"`
	TokenUsage *metrics.TokenUsage `json:"tokenUsage,omitempty"`
}

// FallbackSummary is returned when the provider answers without any choice.
const FallbackSummary = "Failed to generate summary."
