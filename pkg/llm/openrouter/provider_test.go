package openrouter_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findex-io/findex/pkg/llm"
	"github.com/findex-io/findex/pkg/llm/openrouter"
)

// TestNewProviderRequiresAPIKey 验证缺少 api_key 时拒绝创建供应商。
func TestNewProviderRequiresAPIKey(t *testing.T) {
	_, err := openrouter.NewProvider(map[string]any{})
	require.Error(t, err)

	p, err := openrouter.NewProvider(map[string]any{"api_key": "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, "openrouter", p.Name())
}

// TestEmbedReordersByIndex 验证乱序返回的 embedding 按 index 重排。
func TestEmbedReordersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embeddings", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"index": 1, "embedding": []float32{0.2, 0.2}},
				{"index": 0, "embedding": []float32{0.1, 0.1}},
			},
		})
	}))
	defer srv.Close()

	p := openrouter.NewProviderWithConfig(&openrouter.Config{
		BaseURL:    srv.URL,
		APIKey:     "sk-test",
		EmbedModel: "openai/text-embedding-3-small",
		Timeout:    5 * time.Second,
	})

	embeddings, err := p.Embed(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, embeddings, 2)
	assert.Equal(t, []float32{0.1, 0.1}, embeddings[0])
	assert.Equal(t, []float32{0.2, 0.2}, embeddings[1])
}

// TestGenerateReturnsTokenUsage 验证 Generate 携带系统提示并返回 token 用量。
func TestGenerateReturnsTokenUsage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"index": 0, "message": map[string]any{"role": "assistant", "content": "Revenue grew 12%."}},
			},
			"usage": map[string]any{
				"prompt_tokens":     120,
				"completion_tokens": 8,
				"total_tokens":      128,
			},
		})
	}))
	defer srv.Close()

	p := openrouter.NewProviderWithConfig(&openrouter.Config{
		BaseURL:   srv.URL,
		APIKey:    "sk-test",
		ChatModel: "meta-llama/llama-3.2-3b-instruct:free",
		Timeout:   5 * time.Second,
	})

	resp, err := p.Generate(context.Background(), "What was revenue growth?", "You are a financial analyst.")
	require.NoError(t, err)
	assert.Equal(t, "Revenue grew 12%.", resp.Content)
	require.NotNil(t, resp.TokenUsage)
	assert.Equal(t, 120, resp.TokenUsage.PromptTokens)
	assert.Equal(t, 8, resp.TokenUsage.CompletionTokens)
	assert.Equal(t, 128, resp.TokenUsage.TotalTokens)
}

// TestGenerateEmptyChoices 验证空 choices 返回错误。
func TestGenerateEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	p := openrouter.NewProviderWithConfig(&openrouter.Config{
		BaseURL: srv.URL,
		APIKey:  "sk-test",
		Timeout: 5 * time.Second,
	})

	_, err := p.Generate(context.Background(), "question", "")
	require.Error(t, err)
}

var _ llm.Provider = (*openrouter.Provider)(nil)
