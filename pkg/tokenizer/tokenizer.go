// Package tokenizer provides local token counting for LLM cost estimation.
//
// It wraps tiktoken-go and falls back to a character-based heuristic when the
// encoding for a model cannot be loaded (for example in offline environments),
// so token counting never fails a query.
package tokenizer

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// fallbackEncoding is used for models tiktoken does not know about.
const fallbackEncoding = "cl100k_base"

// Counter counts tokens for a fixed model.
type Counter struct {
	model string

	once sync.Once
	enc  *tiktoken.Tiktoken
}

// NewCounter creates a Counter for the given model. The encoding is loaded
// lazily on first use.
func NewCounter(model string) *Counter {
	return &Counter{model: model}
}

// Model returns the model the counter was built for.
func (c *Counter) Model() string {
	return c.model
}

func (c *Counter) encoding() *tiktoken.Tiktoken {
	c.once.Do(func() {
		enc, err := tiktoken.EncodingForModel(c.model)
		if err != nil {
			enc, err = tiktoken.GetEncoding(fallbackEncoding)
			if err != nil {
				enc = nil
			}
		}
		c.enc = enc
	})
	return c.enc
}

// Count returns the number of tokens in text. When no encoding is available
// it estimates roughly four characters per token, which is close enough for
// budget accounting.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}

	if enc := c.encoding(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}

	n := utf8.RuneCountInString(text)
	est := n / 4
	if est == 0 {
		est = 1
	}
	return est
}
