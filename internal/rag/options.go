// Package rag provides the FinDex question answering service.
package rag

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	cacheopts "github.com/findex-io/findex/pkg/options/cache"
	costopts "github.com/findex-io/findex/pkg/options/cost"
	httpopts "github.com/findex-io/findex/pkg/options/http"
	llmopts "github.com/findex-io/findex/pkg/options/llm"
	logopts "github.com/findex-io/findex/pkg/options/logger"
	milvusopts "github.com/findex-io/findex/pkg/options/milvus"
	ragopts "github.com/findex-io/findex/pkg/options/rag"
)

// Options 聚合服务的全部配置。
type Options struct {
	// HTTP HTTP 服务器配置。
	HTTP *httpopts.Options `json:"http" mapstructure:"http"`

	// Log 日志配置。
	Log *logopts.Options `json:"log" mapstructure:"log"`

	// Milvus 向量数据库配置。
	Milvus *milvusopts.Options `json:"milvus" mapstructure:"milvus"`

	// Embedding 嵌入供应商配置。
	Embedding *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`

	// Chat 生成供应商配置。
	Chat *llmopts.ProviderOptions `json:"chat" mapstructure:"chat"`

	// RAG 检索管道配置。
	RAG *ragopts.Options `json:"rag" mapstructure:"rag"`

	// Cache 查询缓存配置。
	Cache *cacheopts.Options `json:"cache" mapstructure:"cache"`

	// Cost 成本追踪配置。
	Cost *costopts.Options `json:"cost" mapstructure:"cost"`

	// ShutdownTimeout 优雅关闭的最长等待时间。
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

// NewOptions 创建带默认值的 Options。
func NewOptions() *Options {
	return &Options{
		HTTP:            httpopts.NewOptions(),
		Log:             logopts.NewOptions(),
		Milvus:          milvusopts.NewOptions(),
		Embedding:       llmopts.NewEmbeddingOptions(),
		Chat:            llmopts.NewChatOptions(),
		RAG:             ragopts.NewOptions(),
		Cache:           cacheopts.NewOptions(),
		Cost:            costopts.NewOptions(),
		ShutdownTimeout: 10 * time.Second,
	}
}

// AddFlags adds flags to the flagset.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	o.HTTP.AddFlags(fs)
	o.Log.AddFlags(fs)
	o.Milvus.AddFlags(fs)
	o.Embedding.AddFlags(fs, "embedding")
	o.Chat.AddFlags(fs, "chat")
	o.RAG.AddFlags(fs)
	o.Cache.AddFlags(fs)
	o.Cost.AddFlags(fs)
	fs.DurationVar(&o.ShutdownTimeout, "shutdown-timeout", o.ShutdownTimeout, "Graceful shutdown timeout")
}

// Validate validates the options.
func (o *Options) Validate() error {
	if err := o.Log.Validate(); err != nil {
		return err
	}
	for _, errs := range [][]error{
		o.HTTP.Validate(),
		o.Milvus.Validate(),
		o.RAG.Validate(),
	} {
		if len(errs) > 0 {
			return errs[0]
		}
	}
	if errs := o.Embedding.Validate(); len(errs) > 0 {
		return fmt.Errorf("embedding: %w", errs[0])
	}
	if errs := o.Chat.Validate(); len(errs) > 0 {
		return fmt.Errorf("chat: %w", errs[0])
	}
	if err := o.Cache.Validate(); err != nil {
		return err
	}
	if err := o.Cost.Validate(); err != nil {
		return err
	}
	return nil
}

// Complete completes the options with defaults.
func (o *Options) Complete() error {
	if err := o.HTTP.Complete(); err != nil {
		return err
	}
	if err := o.Embedding.Complete(); err != nil {
		return err
	}
	if err := o.Chat.Complete(); err != nil {
		return err
	}
	if err := o.RAG.Complete(); err != nil {
		return err
	}
	if err := o.Cache.Complete(); err != nil {
		return err
	}
	return o.Cost.Complete()
}
