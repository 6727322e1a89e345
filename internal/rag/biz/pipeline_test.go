package biz_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findex-io/findex/internal/model"
	"github.com/findex-io/findex/internal/rag/biz"
	"github.com/findex-io/findex/internal/rag/store"
	"github.com/findex-io/findex/pkg/tokenizer"
)

func newTestPipeline(vs *fakeVectorStore, chat *fakeChatProvider) *biz.Pipeline {
	return newTestPipelineWithCache(vs, chat, nil)
}

func newTestPipelineWithCache(vs *fakeVectorStore, chat *fakeChatProvider, cache biz.QueryCacher) *biz.Pipeline {
	embedder := biz.NewEmbedder(&fakeEmbedProvider{dimension: 4}, &biz.EmbedderConfig{Dimension: 4})
	return biz.NewPipeline(
		vs,
		embedder,
		chat,
		tokenizer.NewCounter("gpt-4"),
		biz.NewCostTracker(0),
		cache,
		&biz.PipelineConfig{
			TopK:                4,
			SimilarityThreshold: 0.7,
			SystemPrompt:        "You are a financial analyst assistant.",
			ModelName:           "meta-llama/llama-3.2-3b-instruct:free",
		},
	)
}

func searchResult(content, company, quarter string, year int, distance float64) *store.SearchResult {
	return &store.SearchResult{
		Content:  content,
		Distance: distance,
		Metadata: store.ChunkMetadata{Company: company, Year: year, Quarter: quarter},
	}
}

func TestQuerySuccess(t *testing.T) {
	vs := &fakeVectorStore{results: []*store.SearchResult{
		searchResult("Revenue was $94.9 billion, up 6% from prior year.", "Apple Inc", "Q3", 2024, 0.1),
		searchResult("Operating expenses increased 5%.", "Apple Inc", "Q3", 2024, 0.2),
	}}
	chat := &fakeChatProvider{answer: "Revenue was $94.9 billion in Q3 2024."}

	p := newTestPipeline(vs, chat)
	resp, err := p.Query(context.Background(), &model.QueryRequest{
		Question: "What was the revenue in Q3 2024?",
		Company:  "Apple Inc",
		Year:     2024,
	})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, "Revenue was $94.9 billion in Q3 2024.", resp.Answer)
	assert.Equal(t, 2, resp.Metrics.RetrievedDocs)
	assert.Greater(t, resp.Metrics.PromptTokens, 0)
	assert.Greater(t, resp.Metrics.CompletionTokens, 0)
	assert.Equal(t, resp.Metrics.PromptTokens+resp.Metrics.CompletionTokens, resp.Metrics.TotalTokens)
	assert.Zero(t, resp.Metrics.TotalCost)
	assert.True(t, resp.Metrics.IsFree)

	// 过滤条件传递到存储层
	assert.Equal(t, store.Filter{Company: "Apple Inc", Year: 2024}, vs.lastFilter)
	assert.Equal(t, 4, vs.lastTopK)

	// 上下文包含来源标注
	assert.Contains(t, chat.lastPrompt, "[Document 1]")
	assert.Contains(t, chat.lastPrompt, "Source: Apple Inc - Q3 2024")
	assert.Contains(t, chat.lastPrompt, "Question: What was the revenue in Q3 2024?")
	assert.Contains(t, chat.lastSystem, "financial analyst")

	// 来源信息
	require.Len(t, resp.Sources, 2)
	assert.Equal(t, "Apple Inc", resp.Sources[0].Company)
	assert.Equal(t, "2024", resp.Sources[0].Year)
	assert.InDelta(t, 0.9, resp.Sources[0].Similarity, 1e-9)
	assert.Equal(t, "Revenue was $94.9 billion, up 6% from prior year....", resp.Sources[0].Content)
}

func TestQueryTruncatesLongSourceContent(t *testing.T) {
	vs := &fakeVectorStore{results: []*store.SearchResult{
		searchResult(strings.Repeat("long financial text ", 40), "Apple Inc", "Q3", 2024, 0.1),
	}}
	chat := &fakeChatProvider{answer: "answer"}

	p := newTestPipeline(vs, chat)
	resp, err := p.Query(context.Background(), &model.QueryRequest{Question: "what happened?"})
	require.NoError(t, err)

	require.Len(t, resp.Sources, 1)
	assert.True(t, strings.HasSuffix(resp.Sources[0].Content, "..."))
	assert.Len(t, []rune(resp.Sources[0].Content), 303)
}

func TestQueryNoDocuments(t *testing.T) {
	vs := &fakeVectorStore{}
	chat := &fakeChatProvider{answer: "unused"}

	p := newTestPipeline(vs, chat)
	resp, err := p.Query(context.Background(), &model.QueryRequest{Question: "anything relevant?"})
	require.NoError(t, err)

	assert.Contains(t, resp.Answer, "couldn't find relevant information")
	assert.Empty(t, resp.Sources)
	assert.Zero(t, resp.Metrics.RetrievedDocs)
	assert.True(t, resp.Success)
}

func TestQueryThresholdFiltering(t *testing.T) {
	vs := &fakeVectorStore{results: []*store.SearchResult{
		searchResult("close match", "Apple Inc", "Q3", 2024, 0.1),
		searchResult("weak match", "Apple Inc", "Q3", 2024, 0.8),
	}}
	chat := &fakeChatProvider{answer: "answer"}

	p := newTestPipeline(vs, chat)
	resp, err := p.Query(context.Background(), &model.QueryRequest{Question: "what happened?"})
	require.NoError(t, err)

	// 距离 0.8 > 1-0.7 的结果被过滤
	assert.Equal(t, 1, resp.Metrics.RetrievedDocs)
	require.Len(t, resp.Sources, 1)
	assert.Contains(t, resp.Sources[0].Content, "close match")
}

func TestQueryThresholdFallback(t *testing.T) {
	// 所有结果都低于阈值时退回到全部结果
	vs := &fakeVectorStore{results: []*store.SearchResult{
		searchResult("weak one", "", "", 0, 0.9),
		searchResult("weak two", "", "", 0, 0.95),
	}}
	chat := &fakeChatProvider{answer: "answer"}

	p := newTestPipeline(vs, chat)
	resp, err := p.Query(context.Background(), &model.QueryRequest{Question: "what happened?"})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Metrics.RetrievedDocs)
	// 缺失元数据使用占位值
	assert.Equal(t, "Unknown", resp.Sources[0].Company)
	assert.Equal(t, "N/A", resp.Sources[0].Year)
	assert.Equal(t, "N/A", resp.Sources[0].Quarter)
	assert.Equal(t, "N/A", resp.Sources[0].Page)
}

func TestQuerySearchErrorFailsSoft(t *testing.T) {
	// 检索失败按零结果处理，管道保持可用
	vs := &fakeVectorStore{searchErr: errors.New("milvus unavailable")}
	chat := &fakeChatProvider{answer: "unused"}

	p := newTestPipeline(vs, chat)
	resp, err := p.Query(context.Background(), &model.QueryRequest{Question: "what happened?"})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Contains(t, resp.Answer, "couldn't find relevant information")
	assert.Zero(t, resp.Metrics.RetrievedDocs)
}

func TestQueryGenerateError(t *testing.T) {
	vs := &fakeVectorStore{results: []*store.SearchResult{
		searchResult("something", "Apple Inc", "Q3", 2024, 0.1),
	}}
	chat := &fakeChatProvider{err: errors.New("model overloaded")}

	p := newTestPipeline(vs, chat)
	resp, err := p.Query(context.Background(), &model.QueryRequest{Question: "what happened?"})
	require.NoError(t, err)

	assert.False(t, resp.Success)
	assert.Contains(t, resp.Metrics.Error, "model overloaded")
}

func TestQueryCountsTokensLocally(t *testing.T) {
	vs := &fakeVectorStore{results: []*store.SearchResult{
		searchResult("revenue details here", "Apple Inc", "Q3", 2024, 0.1),
	}}
	chat := &fakeChatProvider{answer: "Revenue grew six percent year over year."}

	p := newTestPipeline(vs, chat)
	resp, err := p.Query(context.Background(), &model.QueryRequest{Question: "what was revenue?"})
	require.NoError(t, err)

	assert.Greater(t, resp.Metrics.PromptTokens, 0)
	assert.Greater(t, resp.Metrics.CompletionTokens, 0)
	assert.Equal(t, resp.Metrics.PromptTokens+resp.Metrics.CompletionTokens, resp.Metrics.TotalTokens)
}

func TestQueryRespectsRequestTopK(t *testing.T) {
	vs := &fakeVectorStore{results: []*store.SearchResult{
		searchResult("something", "Apple Inc", "Q3", 2024, 0.1),
	}}
	chat := &fakeChatProvider{answer: "answer"}

	p := newTestPipeline(vs, chat)
	_, err := p.Query(context.Background(), &model.QueryRequest{Question: "what happened?", TopK: 8})
	require.NoError(t, err)

	assert.Equal(t, 8, vs.lastTopK)
}

func TestQueryCacheHit(t *testing.T) {
	vs := &fakeVectorStore{}
	chat := &fakeChatProvider{answer: "fresh answer"}
	cache := &fakeQueryCache{hit: &model.QueryResponse{
		Question: "What was the revenue in Q3 2024?",
		Answer:   "Revenue was $94.9 billion.",
		Sources:  []model.Source{},
		Success:  true,
	}}

	p := newTestPipelineWithCache(vs, chat, cache)
	resp, err := p.Query(context.Background(), &model.QueryRequest{Question: "What was the revenue in Q3 2024?"})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, "Revenue was $94.9 billion.", resp.Answer)
	assert.True(t, resp.Metrics.Cached)

	// 命中缓存时既不检索也不生成
	assert.Zero(t, vs.lastTopK)
	assert.Empty(t, chat.lastPrompt)
}

func TestQueryCacheMissStoresResponse(t *testing.T) {
	vs := &fakeVectorStore{results: []*store.SearchResult{
		searchResult("Revenue was $94.9 billion.", "Apple Inc", "Q3", 2024, 0.1),
	}}
	chat := &fakeChatProvider{answer: "Revenue was $94.9 billion."}
	cache := &fakeQueryCache{}

	p := newTestPipelineWithCache(vs, chat, cache)
	resp, err := p.Query(context.Background(), &model.QueryRequest{Question: "What was the revenue in Q3 2024?"})
	require.NoError(t, err)

	assert.False(t, resp.Metrics.Cached)
	require.NotNil(t, cache.lastSet)
	assert.Equal(t, resp.Answer, cache.lastSet.Answer)
	// 写入缓存的响应不带命中标记，命中时才补上
	assert.False(t, cache.lastSet.Metrics.Cached)
}
