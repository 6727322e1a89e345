package biz_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/findex-io/findex/internal/rag/biz"
)

func TestCostTrackerSummary(t *testing.T) {
	tracker := biz.NewCostTracker(10.0)

	exceeded := tracker.AddCost(0.5, "first question")
	assert.False(t, exceeded)
	exceeded = tracker.AddCost(1.5, "second question")
	assert.False(t, exceeded)

	summary := tracker.Summary()
	assert.InDelta(t, 2.0, summary.TotalCost, 1e-9)
	assert.Equal(t, 2, summary.QueryCount)
	assert.InDelta(t, 1.0, summary.AverageCostPerQuery, 1e-9)
	assert.Equal(t, "8.000000", summary.RemainingBudget)
	assert.InDelta(t, 20.0, summary.UtilizationPct, 1e-9)
	assert.False(t, summary.IsFree)
}

func TestCostTrackerUnlimited(t *testing.T) {
	tracker := biz.NewCostTracker(0)

	exceeded := tracker.AddCost(100, "expensive question")
	assert.False(t, exceeded)

	summary := tracker.Summary()
	assert.True(t, summary.IsFree)
	assert.Equal(t, "Unlimited (FREE!)", summary.RemainingBudget)
	assert.Zero(t, summary.UtilizationPct)
}

func TestCostTrackerExceedsBudget(t *testing.T) {
	tracker := biz.NewCostTracker(1.0)

	assert.False(t, tracker.AddCost(0.8, "q1"))
	assert.True(t, tracker.AddCost(0.5, "q2"))

	// 超预算后 remaining 不为负
	summary := tracker.Summary()
	assert.Equal(t, "0.000000", summary.RemainingBudget)
}

func TestCostTrackerEmptySummary(t *testing.T) {
	tracker := biz.NewCostTracker(5.0)

	summary := tracker.Summary()
	assert.Zero(t, summary.TotalCost)
	assert.Zero(t, summary.QueryCount)
	// 无查询时平均成本为 0 而不是 NaN
	assert.Zero(t, summary.AverageCostPerQuery)
}

func TestCostTrackerDailyRollover(t *testing.T) {
	current := time.Date(2026, 8, 30, 23, 50, 0, 0, time.Local)
	tracker := biz.NewCostTracker(10.0, biz.WithClock(func() time.Time { return current }))

	tracker.AddCost(2.0, "yesterday's question")
	assert.Equal(t, 1, tracker.Summary().QueryCount)

	// 跨过本地日期边界后累计值清零
	current = current.Add(20 * time.Minute)
	summary := tracker.Summary()
	assert.Zero(t, summary.TotalCost)
	assert.Zero(t, summary.QueryCount)
	assert.Empty(t, tracker.History())

	tracker.AddCost(0.5, "today's question")
	summary = tracker.Summary()
	assert.InDelta(t, 0.5, summary.TotalCost, 1e-9)
	assert.Equal(t, 1, summary.QueryCount)
	assert.Equal(t, "9.500000", summary.RemainingBudget)
}

func TestCostTrackerHistory(t *testing.T) {
	tracker := biz.NewCostTracker(0)
	tracker.AddCost(0.1, "q1")
	tracker.AddCost(0.2, "q2")

	history := tracker.History()
	assert.Len(t, history, 2)
	assert.Equal(t, "q1", history[0].Query)
	assert.InDelta(t, 0.1, history[0].Cumulative, 1e-9)
	assert.InDelta(t, 0.3, history[1].Cumulative, 1e-9)
}
