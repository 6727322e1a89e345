package biz_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findex-io/findex/internal/rag/biz"
)

func writeDataFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestIngestDirectory(t *testing.T) {
	dir := t.TempDir()
	writeDataFile(t, dir, "apple-inc_2024_Q3_earnings.txt",
		"Page 1 of 3   Apple reported revenue of $94.9 billion for Q3 2024. "+strings.Repeat("Services revenue grew steadily. ", 30))
	writeDataFile(t, dir, "notes.pdf", "not a supported extension")

	vs := &fakeVectorStore{}
	embedder := biz.NewEmbedder(&fakeEmbedProvider{dimension: 4}, &biz.EmbedderConfig{Dimension: 4})
	ing := biz.NewIngestor(vs, embedder, &biz.IngestorConfig{ChunkSize: 200, ChunkOverlap: 20})

	result, err := ing.IngestDirectory(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Files)
	assert.Greater(t, result.Chunks, 1)
	assert.Empty(t, result.Skipped)
	require.NotEmpty(t, vs.inserted)

	first := vs.inserted[0]
	assert.Equal(t, "Apple Inc", first.Metadata.Company)
	assert.Equal(t, 2024, first.Metadata.Year)
	assert.Equal(t, "Q3", first.Metadata.Quarter)
	assert.Equal(t, "earnings_report", first.Metadata.DocType)
	assert.NotContains(t, first.Content, "Page 1 of 3")
	assert.Len(t, first.Embedding, 4)
	// 记录的是块的实际长度，不是配置的块大小
	assert.Equal(t, len([]rune(first.Content)), first.Metadata.ChunkSize)

	// 同一文档的块共享哈希前缀
	for i, c := range vs.inserted {
		assert.True(t, strings.HasSuffix(c.ID, "-"+strconv.Itoa(i)), "chunk %d id %q", i, c.ID)
	}
}

func TestIngestDirectorySkipsEmptyFiles(t *testing.T) {
	dir := t.TempDir()
	writeDataFile(t, dir, "empty_2024.txt", "   \n\t  ")
	writeDataFile(t, dir, "msft_2024_Q1.txt", "Microsoft cloud revenue increased 22% year over year.")

	vs := &fakeVectorStore{}
	embedder := biz.NewEmbedder(&fakeEmbedProvider{dimension: 4}, &biz.EmbedderConfig{Dimension: 4})
	ing := biz.NewIngestor(vs, embedder, nil)

	result, err := ing.IngestDirectory(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Files)
	require.Len(t, result.Skipped, 1)
	assert.Contains(t, result.Skipped[0], "empty_2024.txt")
}

func TestIngestDirectoryInsertErrorAborts(t *testing.T) {
	dir := t.TempDir()
	writeDataFile(t, dir, "apple-inc_2024_Q3_earnings.txt",
		"Apple reported revenue of $94.9 billion for Q3 2024.")
	writeDataFile(t, dir, "msft_2024_Q1.txt",
		"Microsoft cloud revenue increased 22% year over year.")

	vs := &fakeVectorStore{insertErr: errors.New("milvus unavailable")}
	embedder := biz.NewEmbedder(&fakeEmbedProvider{dimension: 4}, &biz.EmbedderConfig{Dimension: 4})
	ing := biz.NewIngestor(vs, embedder, nil)

	// 写入失败必须立即中止并上抛，不得折叠进 Skipped
	result, err := ing.IngestDirectory(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "milvus unavailable")
	assert.Nil(t, result)
}

func TestIngestDirectoryMissingDir(t *testing.T) {
	vs := &fakeVectorStore{}
	embedder := biz.NewEmbedder(&fakeEmbedProvider{dimension: 4}, &biz.EmbedderConfig{Dimension: 4})
	ing := biz.NewIngestor(vs, embedder, nil)

	_, err := ing.IngestDirectory(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
