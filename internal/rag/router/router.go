// Package router wires the question answering HTTP routes.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/findex-io/findex/internal/rag/handler"
	"github.com/findex-io/findex/pkg/log"
)

// Register 注册全部 HTTP 路由。
func Register(engine *gin.Engine, h *handler.Handler) {
	engine.GET("/health", h.Health)

	api := engine.Group("/api")
	{
		api.POST("/query", h.Query)
		api.POST("/ingest", h.Ingest)
		api.GET("/stats", h.Stats)
		api.GET("/companies", h.Companies)
		api.GET("/costs", h.Costs)
		api.GET("/example-queries", h.ExampleQueries)
		api.POST("/evaluate", h.Evaluate)
		api.POST("/collection/reset", h.ResetCollection)
	}

	log.Infow("HTTP routes registered")
}
