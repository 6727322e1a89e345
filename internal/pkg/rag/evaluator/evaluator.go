// Package evaluator 提供基于启发式指标的问答质量评估：
//   - AnswerRelevance（答案相关性）: 期望关键词在答案中出现的比例
//   - ContextPrecision（上下文精确度）: 相似度超过阈值的检索结果比例
//   - Faithfulness（忠实度）: 答案中出现来源三词短语的归一化比例
//
// 所有指标都是纯文本计算，不依赖额外的 LLM 调用，适合作为
// 回归基线快速运行。
package evaluator

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/findex-io/findex/internal/model"
	"github.com/findex-io/findex/pkg/log"
)

// relevanceThreshold 之上的来源被视为相关。
const relevanceThreshold = 0.7

// TestCase 一条评估用例：问题、可选过滤条件和期望出现的关键词。
type TestCase struct {
	Question         string   `json:"question"`
	Company          string   `json:"company,omitempty"`
	Year             int      `json:"year,omitempty"`
	Quarter          string   `json:"quarter,omitempty"`
	ExpectedKeywords []string `json:"expected_keywords"`
}

// DefaultTestCases 返回针对财报问答的内置评估用例。
func DefaultTestCases() []TestCase {
	return []TestCase{
		{
			Question:         "What were the total revenues in Q3 2024?",
			Year:             2024,
			Quarter:          "Q3",
			ExpectedKeywords: []string{"revenue", "billion", "Q3", "2024"},
		},
		{
			Question:         "How did operating expenses change year-over-year?",
			Year:             2024,
			ExpectedKeywords: []string{"operating expenses", "year-over-year", "percent"},
		},
		{
			Question:         "What are the key risk factors mentioned?",
			ExpectedKeywords: []string{"risk", "factor"},
		},
		{
			Question:         "What were the main growth drivers?",
			ExpectedKeywords: []string{"growth", "increase", "revenue"},
		},
		{
			Question:         "How did net income perform compared to previous quarter?",
			ExpectedKeywords: []string{"net income", "quarter", "compared"},
		},
	}
}

// QueryFunc 执行一次问答并返回结果，由查询管道提供。
type QueryFunc func(ctx context.Context, req *model.QueryRequest) (*model.QueryResponse, error)

// Evaluator 运行评估用例并汇总指标。
type Evaluator struct {
	query QueryFunc
	cases []TestCase
}

// Option 配置 Evaluator 的选项。
type Option func(*Evaluator)

// WithTestCases 替换内置评估用例。
func WithTestCases(cases []TestCase) Option {
	return func(e *Evaluator) {
		e.cases = cases
	}
}

// New 创建评估器。
func New(query QueryFunc, opts ...Option) *Evaluator {
	e := &Evaluator{
		query: query,
		cases: DefaultTestCases(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run 顺序执行全部评估用例并汇总结果。
// 单条用例失败不会中断评估，只计入失败条目。
func (e *Evaluator) Run(ctx context.Context) (*model.EvaluationReport, error) {
	report := &model.EvaluationReport{
		TotalQueries: len(e.cases),
		Results:      make([]model.EvaluationResult, 0, len(e.cases)),
	}

	for _, tc := range e.cases {
		result := e.evaluateOne(ctx, tc)
		if result.Success {
			report.SuccessfulQueries++
		}
		report.AvgAnswerRelevance += result.AnswerRelevance
		report.AvgContextPrecision += result.ContextPrecision
		report.AvgFaithfulness += result.Faithfulness
		report.AvgLatencySeconds += result.LatencySeconds
		report.TotalCost += result.Cost
		report.Results = append(report.Results, result)

		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	if n := float64(len(report.Results)); n > 0 {
		report.AvgAnswerRelevance = round3(report.AvgAnswerRelevance / n)
		report.AvgContextPrecision = round3(report.AvgContextPrecision / n)
		report.AvgFaithfulness = round3(report.AvgFaithfulness / n)
		report.AvgLatencySeconds = round3(report.AvgLatencySeconds / n)
	}
	report.TotalCost = math.Round(report.TotalCost*1e4) / 1e4

	return report, nil
}

func (e *Evaluator) evaluateOne(ctx context.Context, tc TestCase) model.EvaluationResult {
	log.Infow("evaluating test case", "question", tc.Question)

	start := time.Now()
	resp, err := e.query(ctx, &model.QueryRequest{
		Question: tc.Question,
		Company:  tc.Company,
		Year:     tc.Year,
		Quarter:  tc.Quarter,
	})
	latency := time.Since(start).Seconds()

	if err != nil {
		log.Warnw("test case query failed", "question", tc.Question, "error", err.Error())
		return model.EvaluationResult{
			Question:       tc.Question,
			LatencySeconds: round3(latency),
		}
	}

	return model.EvaluationResult{
		Question:         tc.Question,
		Answer:           resp.Answer,
		SourcesCount:     len(resp.Sources),
		AnswerRelevance:  AnswerRelevance(resp.Answer, tc.ExpectedKeywords),
		ContextPrecision: ContextPrecision(resp.Sources),
		Faithfulness:     Faithfulness(resp.Answer, resp.Sources),
		LatencySeconds:   round3(latency),
		Cost:             resp.Metrics.TotalCost,
		Tokens:           resp.Metrics.TotalTokens,
		Success:          resp.Success,
	}
}

// AnswerRelevance 计算期望关键词在答案中出现的比例，范围 [0, 1]。
func AnswerRelevance(answer string, expectedKeywords []string) float64 {
	if answer == "" || len(expectedKeywords) == 0 {
		return 0
	}

	answerLower := strings.ToLower(answer)
	found := 0
	for _, kw := range expectedKeywords {
		if strings.Contains(answerLower, strings.ToLower(kw)) {
			found++
		}
	}

	return round3(float64(found) / float64(len(expectedKeywords)))
}

// ContextPrecision 计算相似度超过阈值的来源比例，范围 [0, 1]。
func ContextPrecision(sources []model.Source) float64 {
	if len(sources) == 0 {
		return 0
	}

	relevant := 0
	for _, s := range sources {
		if s.Similarity > relevanceThreshold {
			relevant++
		}
	}

	return round3(float64(relevant) / float64(len(sources)))
}

// Faithfulness 通过统计来源中的三词短语在答案中的出现比例来估计
// 答案是否基于检索内容。无法计算时返回中性分 0.5。
func Faithfulness(answer string, sources []model.Source) float64 {
	if answer == "" || len(sources) == 0 {
		return 0
	}

	answerLower := strings.ToLower(answer)
	matches := 0
	totalChecks := 0

	for _, source := range sources {
		words := strings.Fields(strings.ToLower(source.Content))
		for i := 0; i+2 < len(words); i++ {
			phrase := strings.Join(words[i:i+3], " ")
			totalChecks++
			if strings.Contains(answerLower, phrase) {
				matches++
			}
		}
	}

	if totalChecks == 0 {
		return 0.5
	}

	// 只要约 10% 的短语命中即认为完全忠实
	return round3(math.Min(float64(matches)/(float64(totalChecks)*0.1), 1.0))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
