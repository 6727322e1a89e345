package biz

import (
	"context"

	"github.com/findex-io/findex/internal/model"
	"github.com/findex-io/findex/internal/pkg/rag/evaluator"
	"github.com/findex-io/findex/internal/rag/metrics"
	"github.com/findex-io/findex/internal/rag/store"
	"github.com/findex-io/findex/pkg/llm"
	"github.com/findex-io/findex/pkg/log"
)

// Service 定义问答服务对外提供的操作。
type Service interface {
	// Query 回答一个问题。
	Query(ctx context.Context, req *model.QueryRequest) (*model.QueryResponse, error)
	// Ingest 摄取数据目录下的全部文档。
	Ingest(ctx context.Context) (*model.IngestResult, error)
	// Stats 返回集合、成本、缓存和业务指标的汇总。
	Stats(ctx context.Context) (map[string]any, error)
	// Companies 返回已摄取文档涉及的公司列表。
	Companies(ctx context.Context) ([]string, error)
	// CollectionCount 返回集合中的文档块数量。
	CollectionCount(ctx context.Context) (int64, error)
	// ResetCollection 清空并重建集合，同时清除查询缓存。
	ResetCollection(ctx context.Context) error
	// Evaluate 运行内置评估用例。
	Evaluate(ctx context.Context) (*model.EvaluationReport, error)
	// CostSummary 返回当日成本汇总。
	CostSummary() model.CostSummary
}

// ServiceConfig 服务配置。
type ServiceConfig struct {
	// Collection 集合名称，出现在 Stats 中。
	Collection string
	// DataDir 文档摄取目录。
	DataDir string
}

// FindexService 组合管道、摄取器和存储实现 Service。
type FindexService struct {
	pipeline      *Pipeline
	ingestor      *Ingestor
	vectorStore   store.VectorStore
	cache         QueryCacher
	costs         *CostTracker
	embedProvider llm.EmbeddingProvider
	chatProvider  llm.ChatProvider
	config        *ServiceConfig
	metrics       *metrics.Metrics
}

// NewFindexService 创建问答服务实例。
func NewFindexService(
	pipeline *Pipeline,
	ingestor *Ingestor,
	vectorStore store.VectorStore,
	cache QueryCacher,
	costs *CostTracker,
	embedProvider llm.EmbeddingProvider,
	chatProvider llm.ChatProvider,
	config *ServiceConfig,
) *FindexService {
	return &FindexService{
		pipeline:      pipeline,
		ingestor:      ingestor,
		vectorStore:   vectorStore,
		cache:         cache,
		costs:         costs,
		embedProvider: embedProvider,
		chatProvider:  chatProvider,
		config:        config,
		metrics:       metrics.Get(),
	}
}

// Query 回答一个问题。
func (s *FindexService) Query(ctx context.Context, req *model.QueryRequest) (*model.QueryResponse, error) {
	return s.pipeline.Query(ctx, req)
}

// Ingest 摄取数据目录下的全部文档。
func (s *FindexService) Ingest(ctx context.Context) (*model.IngestResult, error) {
	return s.ingestor.IngestDirectory(ctx, s.config.DataDir)
}

// Stats 返回集合、成本、缓存和业务指标的汇总。
func (s *FindexService) Stats(ctx context.Context) (map[string]any, error) {
	count, err := s.vectorStore.Stats(ctx)
	if err != nil {
		return nil, err
	}

	stats := map[string]any{
		"collection_stats": map[string]any{
			"collection":     s.config.Collection,
			"chunk_count":    count,
			"embed_provider": s.embedProvider.Name(),
			"chat_provider":  s.chatProvider.Name(),
		},
		"cost_summary": s.costs.Summary(),
		"metrics":      s.metrics.Stats(),
	}

	if s.cache != nil {
		if cacheStats, err := s.cache.Stats(ctx); err == nil {
			stats["cache"] = cacheStats
		}
	}

	return stats, nil
}

// Companies 返回已摄取文档涉及的公司列表。
func (s *FindexService) Companies(ctx context.Context) ([]string, error) {
	return s.vectorStore.Companies(ctx)
}

// CollectionCount 返回集合中的文档块数量。
func (s *FindexService) CollectionCount(ctx context.Context) (int64, error) {
	return s.vectorStore.Stats(ctx)
}

// ResetCollection 清空并重建集合，同时清除查询缓存。
func (s *FindexService) ResetCollection(ctx context.Context) error {
	if err := s.vectorStore.Drop(ctx); err != nil {
		return err
	}
	if err := s.vectorStore.EnsureCollection(ctx); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Clear(ctx); err != nil {
			log.Warnw("failed to clear query cache after reset", "error", err.Error())
		}
	}

	log.Infow("collection reset", "collection", s.config.Collection)
	return nil
}

// Evaluate 运行内置评估用例。
func (s *FindexService) Evaluate(ctx context.Context) (*model.EvaluationReport, error) {
	ev := evaluator.New(s.pipeline.Query)
	return ev.Run(ctx)
}

// CostSummary 返回当日成本汇总。
func (s *FindexService) CostSummary() model.CostSummary {
	return s.costs.Summary()
}

// 确保 FindexService 实现了 Service 接口。
var _ Service = (*FindexService)(nil)
