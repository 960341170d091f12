package crawler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/user/listing-scraper/internal/domain"
	"github.com/user/listing-scraper/internal/renderer"
)

// Deduper remembers recently crawled jobs.
type Deduper interface {
	IsRecentlyCrawled(ctx context.Context, key string) (bool, error)
	MarkAsCrawled(ctx context.Context, key string, ttl time.Duration) error
}

// Pool crawls independent jobs in parallel. Each worker owns one browser
// session, opened on first use, reused for the worker's later jobs and
// closed when the worker exits.
type Pool struct {
	crawler  *Crawler
	factory  renderer.Factory
	dedup    Deduper
	dedupTTL time.Duration
	workers  int
	logger   *zap.Logger
}

// NewPool creates a pool. dedup may be nil to disable deduplication.
func NewPool(c *Crawler, f renderer.Factory, d Deduper, dedupTTL time.Duration, workers int, l *zap.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		crawler:  c,
		factory:  f,
		dedup:    d,
		dedupTTL: dedupTTL,
		workers:  workers,
		logger:   l,
	}
}

// Run crawls every job and returns one result per job, in job order.
func (p *Pool) Run(ctx context.Context, jobs []domain.CrawlJob) []*domain.CrawlResult {
	results := make([]*domain.CrawlResult, len(jobs))
	taskQueue := make(chan int)

	workers := min(p.workers, len(jobs))
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, taskQueue, jobs, results)
		}()
	}

	for i := range jobs {
		taskQueue <- i
	}
	close(taskQueue)
	wg.Wait()

	return results
}

func (p *Pool) worker(ctx context.Context, taskQueue <-chan int, jobs []domain.CrawlJob, results []*domain.CrawlResult) {
	var sess renderer.Session
	defer func() {
		if sess != nil {
			sess.Close()
		}
	}()

	for i := range taskQueue {
		job := jobs[i]

		if ctx.Err() != nil {
			results[i] = &domain.CrawlResult{Job: job, Stop: domain.StopCancelled, Err: ctx.Err()}
			continue
		}

		if p.skip(ctx, job) {
			results[i] = &domain.CrawlResult{Job: job, Stop: domain.StopSkipped}
			continue
		}

		if sess == nil {
			s, err := p.factory.NewSession(ctx)
			if err != nil {
				p.logger.Error("failed to open browser session", zap.String("job", job.Label()), zap.Error(err))
				results[i] = &domain.CrawlResult{
					Job:  job,
					Stop: domain.StopNavigation,
					Err:  fmt.Errorf("%w: %w", domain.ErrNavigation, err),
				}
				continue
			}
			sess = s
		}

		res := p.crawler.Crawl(ctx, sess, job)
		results[i] = res

		switch {
		case res.Stop == domain.StopNavigation:
			// The browser may be wedged; the next job gets a fresh one.
			sess.Close()
			sess = nil
		case res.Err == nil:
			p.markCrawled(ctx, job)
		}
	}
}

func (p *Pool) skip(ctx context.Context, job domain.CrawlJob) bool {
	if p.dedup == nil || job.ForceCrawl {
		return false
	}
	isCrawled, err := p.dedup.IsRecentlyCrawled(ctx, job.Label())
	if err != nil {
		p.logger.Error("failed to check crawled status", zap.String("job", job.Label()), zap.Error(err))
		return false
	}
	if isCrawled {
		p.logger.Info("skipping recently crawled job", zap.String("job", job.Label()))
	}
	return isCrawled
}

func (p *Pool) markCrawled(ctx context.Context, job domain.CrawlJob) {
	if p.dedup == nil {
		return
	}
	if err := p.dedup.MarkAsCrawled(ctx, job.Label(), p.dedupTTL); err != nil {
		p.logger.Error("failed to mark job as crawled", zap.String("job", job.Label()), zap.Error(err))
	}
}

// MergeRecords concatenates the records of all results in order.
func MergeRecords(results []*domain.CrawlResult) []domain.Record {
	var n int
	for _, r := range results {
		if r != nil {
			n += len(r.Records)
		}
	}
	merged := make([]domain.Record, 0, n)
	for _, r := range results {
		if r != nil {
			merged = append(merged, r.Records...)
		}
	}
	return merged
}
