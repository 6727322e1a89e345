package biz_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findex-io/findex/internal/rag/biz"
)

func TestEmbedBatchSplitsBatches(t *testing.T) {
	provider := &fakeEmbedProvider{dimension: 4}
	embedder := biz.NewEmbedder(provider, &biz.EmbedderConfig{BatchSize: 2, Dimension: 4})

	texts := []string{"a", "b", "c", "d", "e"}
	out, err := embedder.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)

	assert.Len(t, out, 5)
	assert.Equal(t, 3, provider.calls)
}

func TestEmbedBatchPadsFailedBatchWithZeroVectors(t *testing.T) {
	provider := &fakeEmbedProvider{dimension: 4, failBatch: map[int]bool{2: true}}
	embedder := biz.NewEmbedder(provider, &biz.EmbedderConfig{BatchSize: 2, Dimension: 4})

	texts := []string{"a", "b", "c", "d", "e"}
	out, err := embedder.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)

	// 输出与输入一一对应
	require.Len(t, out, 5)

	// 第二个批次（索引 2、3）被零向量填充
	assert.Equal(t, []float32{0, 0, 0, 0}, out[2])
	assert.Equal(t, []float32{0, 0, 0, 0}, out[3])

	// 其余批次正常
	assert.Equal(t, float32(0.1), out[0][0])
	assert.Equal(t, float32(0.1), out[4][0])
}

func TestEmbedBatchEmptyInput(t *testing.T) {
	embedder := biz.NewEmbedder(&fakeEmbedProvider{dimension: 4}, nil)

	out, err := embedder.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestEmbedQueryError(t *testing.T) {
	provider := &fakeEmbedProvider{dimension: 4, singleErr: errors.New("boom")}
	embedder := biz.NewEmbedder(provider, nil)

	_, err := embedder.EmbedQuery(context.Background(), "question")
	require.Error(t, err)
}
