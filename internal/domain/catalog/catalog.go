package catalog

import "sort"

// Provider names known to the catalog.
const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
)

// ModelDescriptor describes one selectable model. MaxTokens and Recommended are hints only.
type ModelDescriptor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MaxTokens   int    `json:"maxTokens"`
	Recommended bool   `json:"recommended,omitempty"`
}

// Catalog is the read-only provider to model mapping.
type Catalog struct {
	partitions map[string][]ModelDescriptor
}

// New returns the built-in catalog.
func New() *Catalog {
	return &Catalog{partitions: map[string][]ModelDescriptor{
		ProviderGroq: {
			{ID: "llama3-70b-8192", Name: "Llama-3 70B", Description: "Meta's latest large language model with 70B parameters", MaxTokens: 8192, Recommended: true},
			{ID: "llama3-8b-8192", Name: "Llama-3 8B", Description: "Meta's latest language model with 8B parameters", MaxTokens: 8192},
			{ID: "gemma-7b-it", Name: "Gemma 7B", Description: "Google's lightweight open model with 7B parameters", MaxTokens: 8192},
			{ID: "mixtral-8x7b-32768", Name: "Mixtral 8x7B", Description: "Mistral AI's mixture of experts model with very large context", MaxTokens: 32768},
			{ID: "claude-3-opus-20240229", Name: "Claude 3 Opus", Description: "Anthropic's most powerful model for highly complex tasks", MaxTokens: 4096},
			{ID: "claude-3-sonnet-20240229", Name: "Claude 3 Sonnet", Description: "Anthropic's balanced model for performance and efficiency", MaxTokens: 4096},
			{ID: "claude-3-haiku-20240307", Name: "Claude 3 Haiku", Description: "Anthropic's fastest and most compact model", MaxTokens: 4096},
		},
		ProviderOpenAI: {
			{ID: "gpt-4o", Name: "GPT-4o", Description: "OpenAI's most capable and cost-effective model", MaxTokens: 4096, Recommended: true},
			{ID: "gpt-4-turbo", Name: "GPT-4 Turbo", Description: "OpenAI's most powerful model for complex tasks", MaxTokens: 4096},
			{ID: "gpt-3.5-turbo", Name: "GPT-3.5 Turbo", Description: "OpenAI's fast and efficient model with good quality results", MaxTokens: 4096},
		},
	}}
}

// Providers lists the known provider names in a stable order.
func (c *Catalog) Providers() []string {
	out := make([]string, 0, len(c.partitions))
	for name := range c.partitions {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Models returns a copy of the provider's partition, or nil for an unknown provider.
func (c *Catalog) Models(provider string) []ModelDescriptor {
	models, ok := c.partitions[provider]
	if !ok {
		return nil
	}
	out := make([]ModelDescriptor, len(models))
	copy(out, models)
	return out
}

// All returns every partition keyed by provider.
func (c *Catalog) All() map[string][]ModelDescriptor {
	out := make(map[string][]ModelDescriptor, len(c.partitions))
	for name := range c.partitions {
		out[name] = c.Models(name)
	}
	return out
}

// Default returns the first entry of the provider's partition.
func (c *Catalog) Default(provider string) (ModelDescriptor, bool) {
	models := c.partitions[provider]
	if len(models) == 0 {
		return ModelDescriptor{}, false
	}
	return models[0], true
}

// Lookup finds id inside the provider's partition. An empty or unknown id
// resolves to the partition default.
func (c *Catalog) Lookup(provider, id string) (ModelDescriptor, bool) {
	for _, m := range c.partitions[provider] {
		if m.ID == id {
			return m, true
		}
	}
	return c.Default(provider)
}
