package tokenizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/findex-io/findex/pkg/tokenizer"
)

func TestCountEmptyText(t *testing.T) {
	c := tokenizer.NewCounter("gpt-4")
	assert.Equal(t, 0, c.Count(""))
}

func TestCountNonEmptyText(t *testing.T) {
	c := tokenizer.NewCounter("gpt-4")

	short := c.Count("revenue")
	long := c.Count("Total revenue for the third quarter increased fifteen percent year over year to 94.9 billion dollars.")

	assert.Greater(t, short, 0)
	assert.Greater(t, long, short)
}

func TestCountUnknownModelStillCounts(t *testing.T) {
	// 未知模型回退到 cl100k_base 或字符启发式，都不应返回 0。
	c := tokenizer.NewCounter("meta-llama/llama-3.2-3b-instruct:free")
	assert.Greater(t, c.Count("What were the main revenue drivers in Q3 2024?"), 0)
}
