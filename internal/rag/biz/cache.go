package biz

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/findex-io/findex/internal/model"
	"github.com/findex-io/findex/pkg/log"
	"github.com/findex-io/findex/pkg/utils/json"
)

// QueryCacheConfig 查询缓存配置。
type QueryCacheConfig struct {
	// Enabled 是否启用缓存。
	Enabled bool
	// TTL 缓存过期时间。
	TTL time.Duration
	// KeyPrefix 缓存键前缀。
	KeyPrefix string
}

// QueryCacher 定义查询结果缓存接口。
type QueryCacher interface {
	// Get 获取缓存的查询结果，未命中返回 (nil, nil)。
	Get(ctx context.Context, req *model.QueryRequest) (*model.QueryResponse, error)
	// Set 写入查询结果。
	Set(ctx context.Context, req *model.QueryRequest, resp *model.QueryResponse) error
	// Clear 清除全部缓存键。
	Clear(ctx context.Context) error
	// Stats 返回缓存统计信息。
	Stats(ctx context.Context) (map[string]interface{}, error)
}

// QueryCache 基于 Redis 的查询结果缓存。
// 键由问题、过滤条件和 top_k 共同决定，不同过滤条件不会互相污染。
type QueryCache struct {
	redis  *goredis.Client
	config *QueryCacheConfig
}

// NewQueryCache 创建查询缓存实例。
func NewQueryCache(redis *goredis.Client, config *QueryCacheConfig) *QueryCache {
	if config == nil {
		config = &QueryCacheConfig{
			Enabled:   false,
			TTL:       5 * time.Minute,
			KeyPrefix: "findex:query:",
		}
	}
	return &QueryCache{
		redis:  redis,
		config: config,
	}
}

// 确保 QueryCache 实现了 QueryCacher 接口。
var _ QueryCacher = (*QueryCache)(nil)

// cacheKey 基于完整请求生成缓存键。
func (c *QueryCache) cacheKey(req *model.QueryRequest) string {
	raw := fmt.Sprintf("%s|%s|%d|%s|%d", req.Question, req.Company, req.Year, req.Quarter, req.TopK)
	sum := sha256.Sum256([]byte(raw))
	return c.config.KeyPrefix + hex.EncodeToString(sum[:])
}

// Get 从缓存获取查询结果，未命中返回 (nil, nil)。
func (c *QueryCache) Get(ctx context.Context, req *model.QueryRequest) (*model.QueryResponse, error) {
	if !c.config.Enabled || c.redis == nil {
		return nil, nil
	}

	key := c.cacheKey(req)
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		log.Warnw("failed to get from query cache", "error", err.Error(), "key", key)
		return nil, err
	}

	var resp model.QueryResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		log.Warnw("failed to unmarshal cached response, deleting", "error", err.Error(), "key", key)
		_ = c.redis.Del(ctx, key).Err()
		return nil, err
	}

	log.Infow("query cache hit", "question", req.Question, "key", key)
	return &resp, nil
}

// Set 将查询结果写入缓存，失败只记录日志。
func (c *QueryCache) Set(ctx context.Context, req *model.QueryRequest, resp *model.QueryResponse) error {
	if !c.config.Enabled || c.redis == nil {
		return nil
	}

	data, err := json.Marshal(resp)
	if err != nil {
		log.Warnw("failed to marshal response for caching", "error", err.Error())
		return err
	}

	key := c.cacheKey(req)
	if err := c.redis.Set(ctx, key, data, c.config.TTL).Err(); err != nil {
		log.Warnw("failed to set query cache", "error", err.Error(), "key", key)
		return err
	}

	return nil
}

// Clear 清除全部查询缓存键。
func (c *QueryCache) Clear(ctx context.Context) error {
	if !c.config.Enabled || c.redis == nil {
		return nil
	}

	iter := c.redis.Scan(ctx, 0, c.config.KeyPrefix+"*", 0).Iterator()
	deleted := 0
	for iter.Next(ctx) {
		if err := c.redis.Del(ctx, iter.Val()).Err(); err != nil {
			log.Warnw("failed to delete cache key", "error", err.Error(), "key", iter.Val())
			continue
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return err
	}

	log.Infow("cleared query cache", "deleted", deleted)
	return nil
}

// Stats 返回缓存统计信息。
func (c *QueryCache) Stats(ctx context.Context) (map[string]interface{}, error) {
	if !c.config.Enabled || c.redis == nil {
		return map[string]interface{}{"enabled": false}, nil
	}

	iter := c.redis.Scan(ctx, 0, c.config.KeyPrefix+"*", 0).Iterator()
	keys := 0
	for iter.Next(ctx) {
		keys++
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"enabled":    true,
		"key_count":  keys,
		"ttl":        c.config.TTL.String(),
		"key_prefix": c.config.KeyPrefix,
	}, nil
}
