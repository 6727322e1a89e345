package biz

import (
	"context"
	"fmt"

	"github.com/findex-io/findex/pkg/llm"
	"github.com/findex-io/findex/pkg/log"
)

// EmbedderConfig 批量嵌入配置。
type EmbedderConfig struct {
	// BatchSize 单次请求的最大文本数。
	BatchSize int
	// Dimension 向量维度，失败批次的占位零向量使用该维度。
	Dimension int
}

// Embedder 将文本批量转换为向量。
// 单个批次失败不会中断整体流程：失败批次填充零向量，
// 保证输出与输入一一对应。
type Embedder struct {
	provider llm.EmbeddingProvider
	config   *EmbedderConfig
}

// NewEmbedder 创建批量嵌入器。
func NewEmbedder(provider llm.EmbeddingProvider, config *EmbedderConfig) *Embedder {
	if config == nil {
		config = &EmbedderConfig{}
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.Dimension <= 0 {
		config.Dimension = 1536
	}
	return &Embedder{
		provider: provider,
		config:   config,
	}
}

// EmbedBatch 为所有文本生成向量，len(out) == len(texts) 恒成立。
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.config.BatchSize {
		end := start + e.config.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		embeddings, err := e.provider.Embed(ctx, batch)
		if err != nil || len(embeddings) != len(batch) {
			if err != nil {
				log.Warnw("embedding batch failed, padding with zero vectors",
					"batch_start", start,
					"batch_size", len(batch),
					"error", err.Error(),
				)
			} else {
				log.Warnw("embedding batch returned wrong count, padding with zero vectors",
					"batch_start", start,
					"expected", len(batch),
					"got", len(embeddings),
				)
			}
			for range batch {
				out = append(out, make([]float32, e.config.Dimension))
			}
			continue
		}

		out = append(out, embeddings...)

		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// EmbedQuery 为单个查询文本生成向量。
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	embedding, err := e.provider.EmbedSingle(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(embedding) == 0 {
		return nil, fmt.Errorf("embed query: provider returned empty embedding")
	}
	return embedding, nil
}
