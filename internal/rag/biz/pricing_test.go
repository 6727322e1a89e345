package biz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/findex-io/findex/internal/rag/biz"
)

func TestIsFreeModel(t *testing.T) {
	assert.True(t, biz.IsFreeModel("meta-llama/llama-3.2-3b-instruct:free"))
	assert.True(t, biz.IsFreeModel("some-FREE-model"))
	assert.False(t, biz.IsFreeModel("gpt-4"))
	assert.False(t, biz.IsFreeModel("gpt-3.5-turbo"))
}

func TestEstimateCost(t *testing.T) {
	// gpt-4: $0.03/1K prompt + $0.06/1K completion
	cost := biz.EstimateCost(1000, 500, "gpt-4")
	assert.InDelta(t, 0.03+0.03, cost, 1e-9)

	cost = biz.EstimateCost(2000, 1000, "gpt-3.5-turbo")
	assert.InDelta(t, 0.001+0.0015, cost, 1e-9)

	// 免费模型零成本
	assert.Zero(t, biz.EstimateCost(100000, 100000, "meta-llama/llama-3.2-3b-instruct:free"))

	// 未知模型按零成本处理
	assert.Zero(t, biz.EstimateCost(1000, 1000, "some-unknown-model"))
}
