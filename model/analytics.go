package model

import "time"

// SearchEvent is one executed search, recorded for analytics.
type SearchEvent struct {
	Query          string        `json:"query"`
	ResultCount    int           `json:"result_count"`
	DistrictCount  int           `json:"district_count"`
	ShortCircuited bool          `json:"short_circuited"` // query below the minimum length
	ResponseTime   time.Duration `json:"response_time"`
	Timestamp      time.Time     `json:"timestamp"`
}

// PopularSearch is an aggregated query count.
type PopularSearch struct {
	Query       string `json:"query"`
	SearchCount int    `json:"search_count"`
}

// AnalyticsSummary is the response of the analytics endpoint.
type AnalyticsSummary struct {
	TotalSearches      int                      `json:"total_searches"`
	ZeroResultSearches int                      `json:"zero_result_searches"`
	ShortQuerySearches int                      `json:"short_query_searches"`
	AvgResponseTime    float64                  `json:"avg_response_time_ms"`
	AvgResultCount     float64                  `json:"avg_result_count"`
	SearchesLast24h    int                      `json:"searches_last_24h"`
	PopularSearches    []PopularSearch          `json:"popular_searches"`
	ResponseTimes      ResponseTimeDistribution `json:"response_time_distribution"`
	CorpusSize         int                      `json:"corpus_size"`
	GeneratedAt        time.Time                `json:"generated_at"`
}

// ResponseTimeDistribution buckets searches by response time
type ResponseTimeDistribution struct {
	Bucket0To1ms    int `json:"bucket_0_1ms"`
	Bucket1To10ms   int `json:"bucket_1_10ms"`
	Bucket10To100ms int `json:"bucket_10_100ms"`
	Bucket100msPlus int `json:"bucket_100ms_plus"`
}
