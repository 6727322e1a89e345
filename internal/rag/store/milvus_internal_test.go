package store

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeChunks(n int) []*Chunk {
	chunks := make([]*Chunk, n)
	for i := range chunks {
		chunks[i] = &Chunk{
			ID:        fmt.Sprintf("hash-%d", i),
			Content:   fmt.Sprintf("chunk %d", i),
			Embedding: []float32{0.1, 0.2},
			Metadata:  ChunkMetadata{Company: "Apple Inc", Year: 2024, Quarter: "Q3", ChunkSize: 7},
		}
	}
	return chunks
}

func TestInsertBatches(t *testing.T) {
	chunks := makeChunks(250)

	batches := insertBatches(chunks, 100)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 100)
	assert.Len(t, batches[1], 100)
	assert.Len(t, batches[2], 50)

	// 切分保持原有顺序
	assert.Equal(t, "hash-0", batches[0][0].ID)
	assert.Equal(t, "hash-100", batches[1][0].ID)
	assert.Equal(t, "hash-249", batches[2][49].ID)
}

func TestInsertBatchesSmallInput(t *testing.T) {
	chunks := makeChunks(3)

	batches := insertBatches(chunks, 100)
	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 3)
}

func TestBuildInsertData(t *testing.T) {
	chunks := makeChunks(2)

	data := buildInsertData(chunks)
	require.Len(t, data.Embeddings, 2)
	require.Len(t, data.Metadata["chunk_id"], 2)
	assert.Equal(t, "hash-1", data.Metadata["chunk_id"][1])
	assert.Equal(t, "Apple Inc", data.Metadata["company"][0])
	assert.Equal(t, int64(2024), data.Metadata["year"][0])
	assert.Equal(t, int64(7), data.Metadata["chunk_size"][1])
}
