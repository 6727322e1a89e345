// Package cache provides query cache configuration options.
package cache

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	redisopts "github.com/findex-io/findex/pkg/options/redis"
)

// Options 查询缓存配置。
type Options struct {
	// Enabled 是否启用缓存。
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// TTL 缓存过期时间。
	TTL time.Duration `json:"ttl" mapstructure:"ttl"`

	// KeyPrefix 缓存键前缀。
	KeyPrefix string `json:"key-prefix" mapstructure:"key-prefix"`

	// Redis Redis 连接配置。
	Redis *redisopts.Options `json:"redis" mapstructure:"redis"`
}

// NewOptions 创建默认缓存配置。缓存默认关闭，按需开启。
func NewOptions() *Options {
	return &Options{
		Enabled:   false,
		TTL:       5 * time.Minute,
		KeyPrefix: "findex:query:",
		Redis:     redisopts.NewOptions(),
	}
}

// AddFlags adds flags for cache options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&o.Enabled, "cache.enabled", o.Enabled, "Enable query result cache")
	fs.DurationVar(&o.TTL, "cache.ttl", o.TTL, "Cache TTL duration")
	fs.StringVar(&o.KeyPrefix, "cache.key-prefix", o.KeyPrefix, "Cache key prefix")
	o.Redis.AddFlags(fs)
}

// Validate validates the cache options.
func (o *Options) Validate() error {
	if !o.Enabled {
		return nil
	}
	if o.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive when cache is enabled")
	}
	if o.Redis == nil {
		return fmt.Errorf("cache.redis configuration is required when cache is enabled")
	}
	return o.Redis.Validate()
}

// Complete completes the cache options with defaults.
func (o *Options) Complete() error {
	if o.Redis == nil {
		o.Redis = redisopts.NewOptions()
	}
	return nil
}
