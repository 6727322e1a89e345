package rag

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"

	"github.com/findex-io/findex/internal/rag/biz"
	"github.com/findex-io/findex/internal/rag/handler"
	"github.com/findex-io/findex/internal/rag/router"
	"github.com/findex-io/findex/internal/rag/store"
	"github.com/findex-io/findex/pkg/app"
	"github.com/findex-io/findex/pkg/component/milvus"
	"github.com/findex-io/findex/pkg/llm"
	"github.com/findex-io/findex/pkg/log"
	"github.com/findex-io/findex/pkg/tokenizer"

	// 导入 LLM 供应商以自动注册
	_ "github.com/findex-io/findex/pkg/llm/ollama"
	_ "github.com/findex-io/findex/pkg/llm/openrouter"
)

// Name is the name of the application.
const Name = "findex-rag"

// Server 持有 HTTP 服务器和需要释放的资源。
type Server struct {
	opts       *Options
	httpServer *http.Server
	closers    []func()
}

// NewServer 按依赖顺序组装整个服务。
func NewServer(ctx context.Context, opts *Options) (*Server, error) {
	// 1. 初始化日志
	opts.Log.AddInitialField("service.name", Name)
	opts.Log.AddInitialField("service.version", app.GetVersion())
	if err := opts.Log.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log.Infow("starting service", "name", Name)

	srv := &Server{opts: opts}

	// 2. 初始化 Milvus 客户端和向量存储
	milvusClient, err := milvus.New(opts.Milvus)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize milvus: %w", err)
	}
	srv.closers = append(srv.closers, func() { _ = milvusClient.Close(context.Background()) })

	vectorStore := store.NewMilvusStore(milvusClient, opts.RAG.Collection, opts.RAG.EmbeddingDim)
	if err := vectorStore.EnsureCollection(ctx); err != nil {
		srv.close()
		return nil, fmt.Errorf("failed to ensure collection: %w", err)
	}
	log.Infow("vector store initialized",
		"address", opts.Milvus.Address,
		"collection", opts.RAG.Collection,
		"dimension", opts.RAG.EmbeddingDim,
	)

	// 3. 初始化 Redis 客户端（缓存可选，连接失败只降级不报错）
	var redisClient *goredis.Client
	var queryCache biz.QueryCacher
	if opts.Cache.Enabled {
		client := goredis.NewClient(&goredis.Options{
			Addr:         opts.Cache.Redis.Addr(),
			Password:     opts.Cache.Redis.Password,
			DB:           opts.Cache.Redis.Database,
			MaxRetries:   opts.Cache.Redis.MaxRetries,
			PoolSize:     opts.Cache.Redis.PoolSize,
			MinIdleConns: opts.Cache.Redis.MinIdleConns,
			DialTimeout:  opts.Cache.Redis.DialTimeout,
			ReadTimeout:  opts.Cache.Redis.ReadTimeout,
			WriteTimeout: opts.Cache.Redis.WriteTimeout,
			PoolTimeout:  opts.Cache.Redis.PoolTimeout,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warnw("failed to connect to redis, cache disabled", "error", err.Error())
			_ = client.Close()
		} else {
			redisClient = client
			srv.closers = append(srv.closers, func() { _ = client.Close() })
			queryCache = biz.NewQueryCache(client, &biz.QueryCacheConfig{
				Enabled:   true,
				TTL:       opts.Cache.TTL,
				KeyPrefix: opts.Cache.KeyPrefix,
			})
			log.Infow("query cache initialized", "addr", opts.Cache.Redis.Addr(), "ttl", opts.Cache.TTL)
		}
	}

	// 4. 初始化 LLM 供应商
	embedProvider, err := llm.NewEmbeddingProvider(opts.Embedding.Provider, opts.Embedding.ToConfigMap())
	if err != nil {
		srv.close()
		return nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	if redisClient != nil {
		embedProvider = llm.NewCachedEmbeddingProvider(embedProvider, redisClient, nil)
	}
	log.Infow("embedding provider initialized", "provider", embedProvider.Name(), "model", opts.Embedding.Model)

	chatProvider, err := llm.NewChatProvider(opts.Chat.Provider, opts.Chat.ToConfigMap())
	if err != nil {
		srv.close()
		return nil, fmt.Errorf("failed to initialize chat provider: %w", err)
	}
	log.Infow("chat provider initialized",
		"provider", chatProvider.Name(),
		"model", opts.Chat.Model,
		"is_free", biz.IsFreeModel(opts.Chat.Model),
	)

	// 5. 初始化业务层
	embedder := biz.NewEmbedder(embedProvider, &biz.EmbedderConfig{
		BatchSize: opts.RAG.EmbedBatchSize,
		Dimension: opts.RAG.EmbeddingDim,
	})
	costs := biz.NewCostTracker(opts.Cost.DailyBudget)
	pipeline := biz.NewPipeline(
		vectorStore,
		embedder,
		chatProvider,
		tokenizer.NewCounter(opts.Cost.TokenizerModel),
		costs,
		queryCache,
		&biz.PipelineConfig{
			TopK:                opts.RAG.TopK,
			SimilarityThreshold: opts.RAG.SimilarityThreshold,
			SystemPrompt:        opts.RAG.SystemPrompt,
			ModelName:           opts.Chat.Model,
		},
	)
	ingestor := biz.NewIngestor(vectorStore, embedder, &biz.IngestorConfig{
		ChunkSize:    opts.RAG.ChunkSize,
		ChunkOverlap: opts.RAG.ChunkOverlap,
	})
	service := biz.NewFindexService(
		pipeline,
		ingestor,
		vectorStore,
		queryCache,
		costs,
		embedProvider,
		chatProvider,
		&biz.ServiceConfig{
			Collection: opts.RAG.Collection,
			DataDir:    opts.RAG.DataDir,
		},
	)

	// 6. 初始化 HTTP 服务器
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())
	router.Register(engine, handler.New(service))

	srv.httpServer = &http.Server{
		Addr:         opts.HTTP.Addr,
		Handler:      engine,
		ReadTimeout:  opts.HTTP.ReadTimeout,
		WriteTimeout: opts.HTTP.WriteTimeout,
		IdleTimeout:  opts.HTTP.IdleTimeout,
	}

	log.Infow("service is ready", "addr", opts.HTTP.Addr)
	return srv, nil
}

// Run 启动 HTTP 服务器并等待中断信号后优雅关闭。
func (s *Server) Run(ctx context.Context) error {
	defer s.close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Infow("shutting down", "timeout", s.opts.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

func (s *Server) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// requestLogger 记录每个请求的方法、路径、状态码和耗时。
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Infow("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}
