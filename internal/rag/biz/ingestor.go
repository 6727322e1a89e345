package biz

import (
	"context"
	"fmt"
	"time"

	"github.com/findex-io/findex/internal/model"
	"github.com/findex-io/findex/internal/pkg/rag/docutil"
	"github.com/findex-io/findex/internal/pkg/rag/textutil"
	"github.com/findex-io/findex/internal/rag/metrics"
	"github.com/findex-io/findex/internal/rag/store"
	"github.com/findex-io/findex/pkg/log"
)

// IngestorConfig 文档摄取配置。
type IngestorConfig struct {
	// ChunkSize 文档块大小（Unicode 字符数）。
	ChunkSize int
	// ChunkOverlap 相邻块的重叠大小。
	ChunkOverlap int
	// Extensions 要处理的文件扩展名。
	Extensions []string
}

// Ingestor 把数据目录下的财报文本处理成带向量的文档块并写入存储。
type Ingestor struct {
	vectorStore store.VectorStore
	embedder    *Embedder
	config      *IngestorConfig
	metrics     *metrics.Metrics
}

// NewIngestor 创建文档摄取器。
func NewIngestor(vectorStore store.VectorStore, embedder *Embedder, config *IngestorConfig) *Ingestor {
	if config == nil {
		config = &IngestorConfig{}
	}
	if config.ChunkSize <= 0 {
		config.ChunkSize = 512
	}
	if config.ChunkOverlap < 0 {
		config.ChunkOverlap = 0
	}
	if len(config.Extensions) == 0 {
		config.Extensions = []string{".txt", ".md"}
	}
	return &Ingestor{
		vectorStore: vectorStore,
		embedder:    embedder,
		config:      config,
		metrics:     metrics.Get(),
	}
}

// IngestDirectory 摄取目录下的全部文档。
// 读取、解析或嵌入失败只计入 Skipped；向量库写入失败立即中止并返回错误。
func (ing *Ingestor) IngestDirectory(ctx context.Context, dir string) (*model.IngestResult, error) {
	start := time.Now()

	if !docutil.DirExists(dir) {
		return nil, fmt.Errorf("data directory %q does not exist", dir)
	}

	files, err := docutil.FindFiles(dir, ing.config.Extensions)
	if err != nil {
		return nil, fmt.Errorf("scan data directory: %w", err)
	}
	if len(files) == 0 {
		return &model.IngestResult{DurationSecond: time.Since(start).Seconds()}, nil
	}

	result := &model.IngestResult{}
	for _, file := range files {
		chunks, err := ing.prepareChunks(ctx, file)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warnw("skipping document", "file", file, "error", err.Error())
			result.Skipped = append(result.Skipped, file)
			ing.metrics.RecordIngestion(0, 0, err)
			continue
		}

		if _, err := ing.vectorStore.Insert(ctx, chunks); err != nil {
			ing.metrics.RecordIngestion(0, 0, err)
			return nil, fmt.Errorf("insert chunks for %s: %w", file, err)
		}

		result.Files++
		result.Chunks += len(chunks)
		ing.metrics.RecordIngestion(1, len(chunks), nil)

		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	result.DurationSecond = time.Since(start).Seconds()
	log.Infow("ingestion finished",
		"files", result.Files,
		"chunks", result.Chunks,
		"skipped", len(result.Skipped),
		"duration_seconds", result.DurationSecond,
	)
	return result, nil
}

// prepareChunks 处理单个文档：读取、清洗、分块、嵌入。
// 写入由调用方完成，写入失败不应被吞掉。
func (ing *Ingestor) prepareChunks(ctx context.Context, path string) ([]*store.Chunk, error) {
	content, err := docutil.ReadFileContent(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	text := docutil.CleanText(content)
	if text == "" {
		return nil, fmt.Errorf("document is empty after cleaning")
	}

	meta := docutil.ExtractMetadata(path)
	pieces := textutil.SplitIntoChunks(text, ing.config.ChunkSize, ing.config.ChunkOverlap)
	if len(pieces) == 0 {
		return nil, fmt.Errorf("no chunks produced")
	}

	embeddings, err := ing.embedder.EmbedBatch(ctx, pieces)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}

	docHash := textutil.HashString(text)
	chunks := make([]*store.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = &store.Chunk{
			ID:        fmt.Sprintf("%s-%d", docHash, i),
			Content:   piece,
			Embedding: embeddings[i],
			Metadata: store.ChunkMetadata{
				Company:   meta.Company,
				Year:      meta.Year,
				Quarter:   meta.Quarter,
				Source:    meta.Source,
				DocType:   meta.DocType,
				ChunkSize: len([]rune(piece)),
			},
		}
	}

	log.Infow("document prepared",
		"file", path,
		"company", meta.Company,
		"year", meta.Year,
		"quarter", meta.Quarter,
		"chunks", len(chunks),
	)
	return chunks, nil
}
