package domain

import "time"

// CrawlRequest is the payload for the crawl API.
type CrawlRequest struct {
	Keywords   []string `json:"keywords"`
	ForceCrawl bool     `json:"force_crawl"` // Bypass the dedup window
}

// CrawlJob is a single keyword or start URL handed to the crawl pool.
type CrawlJob struct {
	Keyword    string
	StartURL   string
	ForceCrawl bool
}

// Label identifies the job in logs and dedup keys.
func (j CrawlJob) Label() string {
	if j.Keyword != "" {
		return j.Keyword
	}
	return j.StartURL
}

// StopReason explains why a crawl loop ended.
type StopReason string

const (
	StopExhausted  StopReason = "no_next_page"
	StopPageLimit  StopReason = "page_limit"
	StopParseError StopReason = "parse_error"
	StopNavigation StopReason = "navigation_error"
	StopCancelled  StopReason = "cancelled"
	StopSkipped    StopReason = "recently_crawled"
)

// CrawlResult holds everything a crawl produced. Err is diagnostic only;
// Records are always safe to hand to a sink.
type CrawlResult struct {
	Job        CrawlJob
	StartURL   string
	Records    []Record
	Pages      int
	Stop       StopReason
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}
