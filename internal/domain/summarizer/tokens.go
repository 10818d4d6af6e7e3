package summarizer

import (
	"log/slog"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter estimates how many tokens a text occupies.
type TokenCounter interface {
	Count(text string) int
}

// HeuristicCounter assumes four bytes per token.
type HeuristicCounter struct{}

func (HeuristicCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}

// TiktokenCounter counts with the cl100k_base encoding. The encoding is loaded on
// first use; when it cannot be loaded every count falls back to the heuristic.
type TiktokenCounter struct {
	logger   *slog.Logger
	once     sync.Once
	encoding *tiktoken.Tiktoken
}

// NewTiktokenCounter returns a lazily initialised counter.
func NewTiktokenCounter(logger *slog.Logger) *TiktokenCounter {
	return &TiktokenCounter{logger: logger.With("component", "summarizer.tokens")}
}

func (c *TiktokenCounter) Count(text string) int {
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			c.logger.Warn("tiktoken encoding unavailable, using heuristic", "error", err)
			return
		}
		c.encoding = enc
	})
	if c.encoding == nil {
		return HeuristicCounter{}.Count(text)
	}
	return len(c.encoding.Encode(text, nil, nil))
}
