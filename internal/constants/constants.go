package constants

import "time"

var CacheTTL = struct {
	Suggestions  time.Duration
	Measurements time.Duration
}{
	Suggestions:  12 * time.Hour, // autocomplete lists change slowly
	Measurements: 6 * time.Hour,  // marketplace counts and trend curves
}

var RedisConfig = struct {
	ReadyTimeout time.Duration
	KeyPrefix    string
}{
	ReadyTimeout: 5 * time.Second,
	KeyPrefix:    "kdp:",
}

var ResearchLimits = struct {
	MaxSeeds       int
	Breadth        int
	MaxCandidates  int
	Concurrency    int
	CallTimeout    time.Duration
	KeywordTimeout time.Duration
	RequestTimeout time.Duration
	Attempts       int
}{
	MaxSeeds:       50,
	Breadth:        10,
	MaxCandidates:  100,
	Concurrency:    8,
	CallTimeout:    10 * time.Second,
	KeywordTimeout: 25 * time.Second,
	RequestTimeout: 3 * time.Minute,
	Attempts:       2,
}

var RetryConfig = struct {
	BaseDelay time.Duration
	Jitter    time.Duration
}{
	BaseDelay: 500 * time.Millisecond,
	Jitter:    250 * time.Millisecond,
}

var CircuitBreakerConfig = struct {
	FailureThreshold int
	ResetTimeout     time.Duration
	RateLimitTimeout time.Duration
}{
	FailureThreshold: 5,                // consecutive failures before a source is skipped
	ResetTimeout:     30 * time.Second, // wait before a probe request
	RateLimitTimeout: 10 * time.Minute, // 429 / 503 responses back off longer
}

var APIConfig = struct {
	GoogleSuggestURL   string
	DuckDuckGoURL      string
	AmazonCompleteURL  string
	TrendsBaseURL      string
	DefaultUserAgent   string
	RequestsPerMinute  int
	YouTubeDailyQuota  int
	YouTubeSearchCost  int
	YouTubeQuotaMargin int
}{
	GoogleSuggestURL:   "https://suggestqueries.google.com/complete/search",
	DuckDuckGoURL:      "https://duckduckgo.com/ac/",
	AmazonCompleteURL:  "https://completion.amazon.com/api/2017/suggestions",
	TrendsBaseURL:      "https://trends.google.com/trends/api",
	DefaultUserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	RequestsPerMinute:  30,
	YouTubeDailyQuota:  10000,
	YouTubeSearchCost:  100,
	YouTubeQuotaMargin: 2000,
}

var StreamConfig = struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BufferSize   int
}{
	ReadTimeout:  10 * time.Second, // the request message must arrive within this
	WriteTimeout: 10 * time.Second,
	BufferSize:   4096,
}
