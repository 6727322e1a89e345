package textutil_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findex-io/findex/internal/pkg/rag/textutil"
)

func TestHashString(t *testing.T) {
	h1 := textutil.HashString("revenue grew 12%")
	h2 := textutil.HashString("revenue grew 12%")
	h3 := textutil.HashString("revenue grew 13%")

	assert.Len(t, h1, 32)
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "hello", textutil.TruncateString("hello", 10))
	assert.Equal(t, "hel", textutil.TruncateString("hello", 3))
	// 多字节字符按 rune 截断
	assert.Equal(t, "营收", textutil.TruncateString("营收增长", 2))
}

func TestSplitIntoChunksShortText(t *testing.T) {
	chunks := textutil.SplitIntoChunks("short text", 100, 10)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short text", chunks[0])
}

func TestSplitIntoChunksOverlap(t *testing.T) {
	text := strings.Repeat("revenue growth margin guidance outlook ", 50)
	chunks := textutil.SplitIntoChunks(text, 200, 40)

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 200)
		assert.NotEmpty(t, c)
		// 边界不应截断单词
		assert.False(t, strings.HasSuffix(c, " "))
	}

	// 每个块都应完整出现在原文中（块之间有重叠）
	for _, c := range chunks {
		assert.Contains(t, text, c)
	}
}

func TestSplitIntoChunksZeroSize(t *testing.T) {
	assert.Nil(t, textutil.SplitIntoChunks("anything", 0, 0))
	assert.Nil(t, textutil.SplitIntoChunks("", 100, 10))
}

func TestSplitWords(t *testing.T) {
	words := textutil.SplitWords("What was Apple's Q4-2023 revenue?")
	assert.Equal(t, []string{"what", "was", "apple", "s", "q4", "2023", "revenue"}, words)
}
