package biz

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/findex-io/findex/internal/model"
	"github.com/findex-io/findex/internal/rag/metrics"
	"github.com/findex-io/findex/internal/rag/store"
	"github.com/findex-io/findex/pkg/llm"
	"github.com/findex-io/findex/pkg/log"
	"github.com/findex-io/findex/pkg/tokenizer"
)

// emptyAnswer 在没有检索到任何文档时返回。
const emptyAnswer = "I couldn't find relevant information in the available documents to answer your question."

// sourcePreviewLen 来源内容预览的最大字符数。
const sourcePreviewLen = 300

// PipelineConfig 查询管道配置。
type PipelineConfig struct {
	// TopK 默认检索文档数。
	TopK int
	// SimilarityThreshold 相似度阈值，范围 [0, 1]。
	// 距离超过 1-threshold 的结果被过滤，除非会导致零结果。
	SimilarityThreshold float64
	// SystemPrompt 生成答案的系统提示。
	SystemPrompt string
	// ModelName 用于成本估算和指标上报的模型名。
	ModelName string
}

// Pipeline 实现完整的问答流程：
// 缓存 → 嵌入 → 检索 → 阈值过滤 → 生成 → 成本记录。
type Pipeline struct {
	vectorStore store.VectorStore
	embedder    *Embedder
	chat        llm.ChatProvider
	counter     *tokenizer.Counter
	costs       *CostTracker
	cache       QueryCacher
	config      *PipelineConfig
	metrics     *metrics.Metrics
}

// NewPipeline 创建查询管道。cache 可以为 nil。
func NewPipeline(
	vectorStore store.VectorStore,
	embedder *Embedder,
	chat llm.ChatProvider,
	counter *tokenizer.Counter,
	costs *CostTracker,
	cache QueryCacher,
	config *PipelineConfig,
) *Pipeline {
	if config.TopK <= 0 {
		config.TopK = 4
	}
	if config.SimilarityThreshold <= 0 {
		config.SimilarityThreshold = 0.7
	}
	return &Pipeline{
		vectorStore: vectorStore,
		embedder:    embedder,
		chat:        chat,
		counter:     counter,
		costs:       costs,
		cache:       cache,
		config:      config,
		metrics:     metrics.Get(),
	}
}

// Query 回答一个问题。所有失败都折叠进响应体（Success=false），
// 只有 context 取消会返回错误。
func (p *Pipeline) Query(ctx context.Context, req *model.QueryRequest) (*model.QueryResponse, error) {
	start := time.Now()

	topK := req.TopK
	if topK <= 0 {
		topK = p.config.TopK
	}

	// 1. 缓存
	if p.cache != nil {
		if cached, err := p.cache.Get(ctx, req); err == nil && cached != nil {
			cached.Metrics.Cached = true
			p.metrics.RecordQuery(true, nil)
			return cached, nil
		}
	}

	log.Infow("querying", "question", truncate(req.Question, 100), "top_k", topK)

	// 2. 嵌入查询
	embedding, err := p.embedder.EmbedQuery(ctx, req.Question)
	if err != nil {
		return p.errorResponse(ctx, req, start, err)
	}

	// 3. 向量检索
	filter := store.Filter{Company: req.Company, Year: req.Year, Quarter: req.Quarter}
	retrievalStart := time.Now()
	retrieved, err := p.vectorStore.Search(ctx, embedding, topK, filter)
	p.metrics.RecordRetrieval(time.Since(retrievalStart), err)
	if err != nil {
		// 检索失败按零结果处理，保证查询管道可用
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		log.Warnw("vector search failed, treating as zero results",
			"question", truncate(req.Question, 100), "error", err.Error())
		retrieved = nil
	}

	if len(retrieved) == 0 {
		log.Warnw("no documents retrieved", "question", truncate(req.Question, 100))
		p.metrics.RecordQuery(false, nil)
		return &model.QueryResponse{
			Question: req.Question,
			Answer:   emptyAnswer,
			Sources:  []model.Source{},
			Metrics: model.QueryMetrics{
				LatencySeconds: round3(time.Since(start).Seconds()),
				RetrievedDocs:  0,
			},
			Success: true,
		}, nil
	}

	// 4. 阈值过滤；全部被过滤时退回到原始结果
	filtered := retrieved[:0:0]
	maxDistance := 1.0 - p.config.SimilarityThreshold
	for _, r := range retrieved {
		if r.Distance <= maxDistance {
			filtered = append(filtered, r)
		}
	}
	if len(filtered) == 0 {
		filtered = retrieved
	}

	// 5. 组装上下文并生成答案
	contextText := formatContext(filtered)
	fullPrompt := fmt.Sprintf("%s\n\nContext:\n%s\n\nQuestion: %s\n\nProvide a clear, professional answer:",
		p.config.SystemPrompt, contextText, req.Question)
	promptTokens := p.counter.Count(fullPrompt)

	llmStart := time.Now()
	resp, err := p.chat.Generate(ctx,
		fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextText, req.Question),
		p.config.SystemPrompt,
	)

	var completionTokens int
	if err == nil {
		// 用量统一由本地分词器估算，不依赖供应商上报
		completionTokens = p.counter.Count(resp.Content)
	}
	p.metrics.RecordLLMCall(time.Since(llmStart), promptTokens, completionTokens, err)
	if err != nil {
		return p.errorResponse(ctx, req, start, err)
	}

	// 6. 记录成本
	cost := EstimateCost(promptTokens, completionTokens, p.config.ModelName)
	p.costs.AddCost(cost, req.Question)

	latency := time.Since(start).Seconds()
	response := &model.QueryResponse{
		Question: req.Question,
		Answer:   resp.Content,
		Sources:  formatSources(filtered),
		Metrics: model.QueryMetrics{
			LatencySeconds:   round3(latency),
			RetrievedDocs:    len(filtered),
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
			TotalCost:        round6(cost),
			Model:            p.config.ModelName,
			IsFree:           IsFreeModel(p.config.ModelName),
		},
		Success: true,
	}

	// 7. 写入缓存，失败不影响返回
	if p.cache != nil {
		_ = p.cache.Set(ctx, req, response)
	}

	p.metrics.RecordQuery(false, nil)
	log.Infow("query completed",
		"latency_seconds", response.Metrics.LatencySeconds,
		"retrieved_docs", response.Metrics.RetrievedDocs,
		"total_cost", response.Metrics.TotalCost,
	)
	return response, nil
}

// errorResponse 把失败折叠进响应体，context 取消时返回错误。
func (p *Pipeline) errorResponse(ctx context.Context, req *model.QueryRequest, start time.Time, err error) (*model.QueryResponse, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	log.Errorw("query failed", "question", truncate(req.Question, 100), "error", err.Error())
	p.metrics.RecordQuery(false, err)

	return &model.QueryResponse{
		Question: req.Question,
		Answer:   fmt.Sprintf("An error occurred while processing your question: %s", err),
		Sources:  []model.Source{},
		Metrics: model.QueryMetrics{
			LatencySeconds: round3(time.Since(start).Seconds()),
			Error:          err.Error(),
		},
	}, nil
}

// formatContext 把检索结果拼装成带来源标注的上下文。
func formatContext(results []*store.SearchResult) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf("[Document %d]\nSource: %s - %s %s\nContent: %s\n",
			i+1,
			orDefault(r.Metadata.Company, "Unknown"),
			orDefault(r.Metadata.Quarter, "N/A"),
			yearString(r.Metadata.Year),
			r.Content,
		)
	}
	return strings.Join(parts, "\n\n")
}

// formatSources 把检索结果转换成响应中的来源列表。
func formatSources(results []*store.SearchResult) []model.Source {
	sources := make([]model.Source, len(results))
	for i, r := range results {
		sources[i] = model.Source{
			Content:    truncate(r.Content, sourcePreviewLen) + "...",
			Company:    orDefault(r.Metadata.Company, "Unknown"),
			Year:       yearString(r.Metadata.Year),
			Quarter:    orDefault(r.Metadata.Quarter, "N/A"),
			Page:       pageString(r.Metadata.Page),
			Similarity: round3(1.0 - r.Distance),
		}
	}
	return sources
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func yearString(year int) string {
	if year == 0 {
		return "N/A"
	}
	return strconv.Itoa(year)
}

func pageString(page int) string {
	if page == 0 {
		return "N/A"
	}
	return strconv.Itoa(page)
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
