// Package cost provides cost tracking configuration options.
package cost

import (
	"fmt"

	"github.com/spf13/pflag"
)

// Options 成本追踪配置。
type Options struct {
	// DailyBudget 每日成本上限（美元）。0 表示不限制（免费模型）。
	DailyBudget float64 `json:"daily-budget" mapstructure:"daily-budget"`

	// TokenizerModel 本地 token 统计使用的模型编码。
	TokenizerModel string `json:"tokenizer-model" mapstructure:"tokenizer-model"`
}

// NewOptions 创建默认成本配置。默认免费模型，预算为 0（不限制）。
func NewOptions() *Options {
	return &Options{
		DailyBudget:    0,
		TokenizerModel: "gpt-4",
	}
}

// AddFlags adds flags for cost options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.Float64Var(&o.DailyBudget, "cost.daily-budget", o.DailyBudget, "Daily cost budget in USD (0 = unlimited)")
	fs.StringVar(&o.TokenizerModel, "cost.tokenizer-model", o.TokenizerModel, "Model used for local token counting")
}

// Validate validates the cost options.
func (o *Options) Validate() error {
	if o.DailyBudget < 0 {
		return fmt.Errorf("cost.daily-budget must be non-negative")
	}
	return nil
}

// Complete completes the cost options with defaults.
func (o *Options) Complete() error {
	if o.TokenizerModel == "" {
		o.TokenizerModel = "gpt-4"
	}
	return nil
}
