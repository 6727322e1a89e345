package biz

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/findex-io/findex/internal/model"
	"github.com/findex-io/findex/pkg/log"
)

// CostEntry 一次查询的成本记录。
type CostEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	Cost       float64   `json:"cost"`
	Query      string    `json:"query"`
	Cumulative float64   `json:"cumulative"`
}

// CostTracker 追踪每日 LLM 开销。dailyLimit 为 0 表示不设上限（免费模型）。
// 跨越本地日期边界时懒惰重置累计值。
type CostTracker struct {
	mu         sync.Mutex
	dailyLimit float64
	totalCost  float64
	queryCount int
	history    []CostEntry
	resetDate  string // 本地日期 YYYY-MM-DD
	now        func() time.Time
}

// CostTrackerOption 定制 CostTracker。
type CostTrackerOption func(*CostTracker)

// WithClock 替换时间源，用于测试跨天重置。
func WithClock(now func() time.Time) CostTrackerOption {
	return func(t *CostTracker) {
		t.now = now
	}
}

// NewCostTracker 创建成本追踪器。
func NewCostTracker(dailyLimit float64, opts ...CostTrackerOption) *CostTracker {
	t := &CostTracker{
		dailyLimit: dailyLimit,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.resetDate = t.now().Format("2006-01-02")
	return t
}

// AddCost 记录一次查询的成本，必要时先做日期轮转。
// 返回累计成本是否超出当日预算。
func (t *CostTracker) AddCost(cost float64, query string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rolloverLocked()

	t.totalCost += cost
	t.queryCount++
	t.history = append(t.history, CostEntry{
		Timestamp:  t.now(),
		Cost:       cost,
		Query:      query,
		Cumulative: t.totalCost,
	})

	if t.dailyLimit > 0 && t.totalCost > t.dailyLimit {
		log.Warnw("daily cost limit exceeded",
			"total_cost", t.totalCost,
			"daily_limit", t.dailyLimit,
		)
		return true
	}
	return false
}

// rolloverLocked 跨天时重置累计值，调用方必须持有锁。
func (t *CostTracker) rolloverLocked() {
	today := t.now().Format("2006-01-02")
	if today == t.resetDate {
		return
	}

	log.Infow("cost tracker daily reset", "previous_date", t.resetDate, "previous_total", t.totalCost)
	t.totalCost = 0
	t.queryCount = 0
	t.history = nil
	t.resetDate = today
}

// Summary 返回当日成本汇总。
func (t *CostTracker) Summary() model.CostSummary {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rolloverLocked()

	summary := model.CostSummary{
		TotalCost:  t.totalCost,
		QueryCount: t.queryCount,
		DailyLimit: t.dailyLimit,
		IsFree:     t.dailyLimit == 0,
	}

	divisor := t.queryCount
	if divisor < 1 {
		divisor = 1
	}
	summary.AverageCostPerQuery = t.totalCost / float64(divisor)

	if t.dailyLimit == 0 {
		summary.RemainingBudget = "Unlimited (FREE!)"
	} else {
		summary.RemainingBudget = fmt.Sprintf("%.6f", math.Max(0, t.dailyLimit-t.totalCost))
		summary.UtilizationPct = t.totalCost / t.dailyLimit * 100
	}

	return summary
}

// History 返回当日成本记录的副本。
func (t *CostTracker) History() []CostEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rolloverLocked()

	out := make([]CostEntry, len(t.history))
	copy(out, t.history)
	return out
}
