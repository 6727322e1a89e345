// Package handler provides HTTP handlers for the question answering service.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/findex-io/findex/internal/model"
	"github.com/findex-io/findex/internal/rag/biz"
	"github.com/findex-io/findex/pkg/app"
)

// queryTimeout 单次查询的最长处理时间。
const queryTimeout = 60 * time.Second

// evaluateTimeout 覆盖全部内置评估用例的最长处理时间。
const evaluateTimeout = 5 * time.Minute

// Handler 把 biz.Service 暴露为 HTTP 接口。
type Handler struct {
	service biz.Service
}

// New 创建 Handler。
func New(service biz.Service) *Handler {
	return &Handler{service: service}
}

// ErrorResponse 标准错误响应。
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Health 健康检查，附带集合文档数。
func (h *Handler) Health(c *gin.Context) {
	count, err := h.service.CollectionCount(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":             "healthy",
		"version":            app.GetVersion(),
		"vector_store_count": count,
	})
}

// Query 回答一个财报问题。
func (h *Handler) Query(c *gin.Context) {
	var req model.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Message: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	resp, err := h.service.Query(ctx, &req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			c.JSON(http.StatusRequestTimeout, ErrorResponse{
				Code:    408,
				Message: "Query timeout: the request took too long to process. Please try again or simplify your question.",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Ingest 摄取数据目录下的全部文档。
func (h *Handler) Ingest(c *gin.Context) {
	result, err := h.service.Ingest(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Stats 返回集合、成本、缓存和业务指标的汇总。
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Companies 返回已摄取文档涉及的公司列表。
func (h *Handler) Companies(c *gin.Context) {
	companies, err := h.service.Companies(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
		return
	}

	if companies == nil {
		companies = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"companies": companies})
}

// Costs 返回当日成本汇总。
func (h *Handler) Costs(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.CostSummary())
}

// ResetCollection 清空并重建集合。
func (h *Handler) ResetCollection(c *gin.Context) {
	if err := h.service.ResetCollection(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "collection reset"})
}

// Evaluate 运行内置评估用例并返回质量报告。
func (h *Handler) Evaluate(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), evaluateTimeout)
	defer cancel()

	report, err := h.service.Evaluate(ctx)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			c.JSON(http.StatusRequestTimeout, ErrorResponse{Code: 408, Message: "Evaluation timeout"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}

// ExampleQueries 返回可直接使用的示例问题。
func (h *Handler) ExampleQueries(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"examples": []string{
			"What were the total revenues in Q3 2024?",
			"How did operating expenses change year-over-year?",
			"What are the main risk factors mentioned?",
			"What is the outlook for the next quarter?",
			"What was the net income compared to the previous quarter?",
		},
	})
}
