package biz_test

import (
	"context"
	"errors"

	"github.com/findex-io/findex/internal/model"
	"github.com/findex-io/findex/internal/rag/biz"
	"github.com/findex-io/findex/internal/rag/store"
	"github.com/findex-io/findex/pkg/llm"
)

// fakeEmbedProvider 返回固定向量，可按批次注入失败。
type fakeEmbedProvider struct {
	dimension int
	failBatch map[int]bool // 第 n 次 Embed 调用失败
	calls     int
	singleErr error
}

func (f *fakeEmbedProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.failBatch[f.calls] {
		return nil, errors.New("embedding backend unavailable")
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		vec := make([]float32, f.dimension)
		for j := range vec {
			vec[j] = 0.1
		}
		out[i] = vec
	}
	return out, nil
}

func (f *fakeEmbedProvider) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	if f.singleErr != nil {
		return nil, f.singleErr
	}
	vec := make([]float32, f.dimension)
	for i := range vec {
		vec[i] = 0.1
	}
	return vec, nil
}

func (f *fakeEmbedProvider) Name() string { return "fake-embed" }

// fakeChatProvider 返回固定答案。
type fakeChatProvider struct {
	answer     string
	usage      *llm.TokenUsage
	err        error
	lastPrompt string
	lastSystem string
}

func (f *fakeChatProvider) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func (f *fakeChatProvider) Generate(ctx context.Context, prompt, systemPrompt string) (*llm.GenerateResponse, error) {
	f.lastPrompt = prompt
	f.lastSystem = systemPrompt
	if f.err != nil {
		return nil, f.err
	}
	return &llm.GenerateResponse{Content: f.answer, TokenUsage: f.usage}, nil
}

func (f *fakeChatProvider) Name() string { return "fake-chat" }

// fakeVectorStore 返回预置检索结果。
type fakeVectorStore struct {
	results    []*store.SearchResult
	searchErr  error
	insertErr  error
	lastFilter store.Filter
	lastTopK   int
	inserted   []*store.Chunk
	companies  []string
	count      int64
	dropped    bool
	ensured    bool
}

func (f *fakeVectorStore) EnsureCollection(ctx context.Context) error {
	f.ensured = true
	return nil
}

func (f *fakeVectorStore) Insert(ctx context.Context, chunks []*store.Chunk) ([]int64, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.inserted = append(f.inserted, chunks...)
	ids := make([]int64, len(chunks))
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	return ids, nil
}

func (f *fakeVectorStore) Search(ctx context.Context, embedding []float32, topK int, filter store.Filter) ([]*store.SearchResult, error) {
	f.lastFilter = filter
	f.lastTopK = topK
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.results, nil
}

func (f *fakeVectorStore) Stats(ctx context.Context) (int64, error) { return f.count, nil }

func (f *fakeVectorStore) Companies(ctx context.Context) ([]string, error) {
	return f.companies, nil
}

func (f *fakeVectorStore) Drop(ctx context.Context) error {
	f.dropped = true
	return nil
}

func (f *fakeVectorStore) Close(ctx context.Context) error { return nil }

// fakeQueryCache 预置命中结果并记录写入。
type fakeQueryCache struct {
	hit     *model.QueryResponse
	lastSet *model.QueryResponse
}

func (f *fakeQueryCache) Get(ctx context.Context, req *model.QueryRequest) (*model.QueryResponse, error) {
	return f.hit, nil
}

func (f *fakeQueryCache) Set(ctx context.Context, req *model.QueryRequest, resp *model.QueryResponse) error {
	f.lastSet = resp
	return nil
}

func (f *fakeQueryCache) Clear(ctx context.Context) error { return nil }

func (f *fakeQueryCache) Stats(ctx context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{"enabled": true}, nil
}

var _ store.VectorStore = (*fakeVectorStore)(nil)
var _ biz.QueryCacher = (*fakeQueryCache)(nil)
var _ llm.EmbeddingProvider = (*fakeEmbedProvider)(nil)
var _ llm.ChatProvider = (*fakeChatProvider)(nil)
