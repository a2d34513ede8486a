package domain

// Scores is the scorer output for one SignalSet. Every field lies in [0,100].
type Scores struct {
	CompetitionScore   float64 `json:"competition_score"`
	DifficultyScore    float64 `json:"difficulty_score"`
	ProfitabilityScore float64 `json:"profitability_score"`
	OpportunityScore   float64 `json:"opportunity_score"`
}

// ScoredResult is one row of a research run. Values are copied, never mutated.
type ScoredResult struct {
	Keyword            Keyword  `json:"keyword"`
	Seed               Keyword  `json:"seed,omitempty"`
	SearchVolume       int      `json:"search_volume"`
	TrendScore         float64  `json:"trend_score"`
	AmazonResults      int      `json:"amazon_results"`
	AvgReviews         int      `json:"avg_reviews"`
	AvgPrice           float64  `json:"avg_price"`
	AvgRating          float64  `json:"avg_rating"`
	CompetitionLevel   string   `json:"competition_level,omitempty"`
	CompetitionSource  string   `json:"competition_source,omitempty"`
	CompetitionScore   float64  `json:"competition_score"`
	DifficultyScore    float64  `json:"difficulty_score"`
	ProfitabilityScore float64  `json:"profitability_score"`
	OpportunityScore   float64  `json:"opportunity_score"`
	Recommendation     string   `json:"recommendation,omitempty"`
	Sources            []string `json:"sources,omitempty"`
	Missing            []string `json:"missing_signals,omitempty"`
}

// ResearchRequest is the raw user input of one aggregation run.
type ResearchRequest struct {
	RawInput string `json:"keywords"`
	BulkMode bool   `json:"bulk_mode"`
}

// ResearchResponse mirrors the aggregator entry point contract.
type ResearchResponse struct {
	Success       bool           `json:"success"`
	Results       []ScoredResult `json:"results,omitempty"`
	TotalKeywords int            `json:"total_keywords"`
	Error         string         `json:"error,omitempty"`
}
