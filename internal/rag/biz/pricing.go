package biz

import (
	"strings"

	"github.com/findex-io/findex/pkg/log"
)

// modelPricing 每 1000 token 的美元价格。
type modelPricing struct {
	Prompt     float64
	Completion float64
}

// pricingTable 已知付费模型的价格表，未知模型按零成本处理。
var pricingTable = map[string]modelPricing{
	"gpt-4-turbo-preview": {Prompt: 0.01, Completion: 0.03},
	"gpt-4":               {Prompt: 0.03, Completion: 0.06},
	"gpt-3.5-turbo":       {Prompt: 0.0005, Completion: 0.0015},
}

// IsFreeModel 判断模型是否免费（OpenRouter 的 ":free" 后缀或名称含 "free"）。
func IsFreeModel(model string) bool {
	return strings.Contains(model, ":free") || strings.Contains(strings.ToLower(model), "free")
}

// EstimateCost 根据 token 用量估算一次调用的美元成本。
func EstimateCost(promptTokens, completionTokens int, model string) float64 {
	if IsFreeModel(model) {
		return 0
	}

	pricing, ok := pricingTable[model]
	if !ok {
		log.Warnw("no pricing for model, assuming zero cost", "model", model)
		return 0
	}

	return float64(promptTokens)/1000*pricing.Prompt + float64(completionTokens)/1000*pricing.Completion
}
