// Package model provides the data models shared across the Findex service.
package model

// QueryRequest is a natural-language question with optional metadata filters.
type QueryRequest struct {
	Question string `json:"question" binding:"required,min=5"`
	Company  string `json:"company,omitempty" binding:"omitempty,max=100"`
	Year     int    `json:"year,omitempty" binding:"omitempty,gte=2020,lte=2030"`
	Quarter  string `json:"quarter,omitempty" binding:"omitempty,oneof=Q1 Q2 Q3 Q4 Annual"`
	TopK     int    `json:"top_k,omitempty" binding:"omitempty,gte=1,lte=10"`
}

// QueryResponse is the answer to a question with its supporting sources.
type QueryResponse struct {
	Question string       `json:"question"`
	Answer   string       `json:"answer"`
	Sources  []Source     `json:"sources"`
	Metrics  QueryMetrics `json:"metrics"`
	Success  bool         `json:"success"`
}

// Source describes one retrieved chunk that backed the answer. Content is
// truncated to a preview; Similarity is in [0, 1], higher is closer.
type Source struct {
	Content    string  `json:"content"`
	Company    string  `json:"company"`
	Year       string  `json:"year"`
	Quarter    string  `json:"quarter"`
	Page       string  `json:"page"`
	Similarity float64 `json:"similarity"`
}

// QueryMetrics captures per-query latency, token usage, and cost.
type QueryMetrics struct {
	LatencySeconds   float64 `json:"latency_seconds"`
	RetrievedDocs    int     `json:"retrieved_docs"`
	PromptTokens     int     `json:"prompt_tokens,omitempty"`
	CompletionTokens int     `json:"completion_tokens,omitempty"`
	TotalTokens      int     `json:"total_tokens,omitempty"`
	TotalCost        float64 `json:"total_cost"`
	Model            string  `json:"model,omitempty"`
	IsFree           bool    `json:"is_free"`
	Cached           bool    `json:"cached,omitempty"`
	Error            string  `json:"error,omitempty"`
}

// CostSummary is an aggregate view of spend since the last daily reset.
type CostSummary struct {
	TotalCost           float64 `json:"total_cost"`
	QueryCount          int     `json:"query_count"`
	AverageCostPerQuery float64 `json:"average_cost_per_query"`
	DailyLimit          float64 `json:"daily_limit"`
	RemainingBudget     string  `json:"remaining_budget"`
	UtilizationPct      float64 `json:"utilization_pct"`
	IsFree              bool    `json:"is_free"`
}

// IngestResult summarises a document ingestion run.
type IngestResult struct {
	Files          int      `json:"files"`
	Chunks         int      `json:"chunks"`
	Skipped        []string `json:"skipped,omitempty"`
	DurationSecond float64  `json:"duration_seconds"`
}

// EvaluationResult holds heuristic quality scores for one test query.
type EvaluationResult struct {
	Question         string  `json:"question"`
	Answer           string  `json:"answer"`
	SourcesCount     int     `json:"sources_count"`
	AnswerRelevance  float64 `json:"answer_relevance"`
	ContextPrecision float64 `json:"context_precision"`
	Faithfulness     float64 `json:"faithfulness"`
	LatencySeconds   float64 `json:"latency_seconds"`
	Cost             float64 `json:"cost"`
	Tokens           int     `json:"tokens"`
	Success          bool    `json:"success"`
}

// EvaluationReport aggregates the per-query results.
type EvaluationReport struct {
	TotalQueries        int                `json:"total_queries"`
	SuccessfulQueries   int                `json:"successful_queries"`
	AvgAnswerRelevance  float64            `json:"avg_answer_relevance"`
	AvgContextPrecision float64            `json:"avg_context_precision"`
	AvgFaithfulness     float64            `json:"avg_faithfulness"`
	AvgLatencySeconds   float64            `json:"avg_latency_seconds"`
	TotalCost           float64            `json:"total_cost"`
	Results             []EvaluationResult `json:"results"`
}
