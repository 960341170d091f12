package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/user/listing-scraper/internal/config"
	"github.com/user/listing-scraper/internal/domain"
	"github.com/user/listing-scraper/internal/monitoring"
	"github.com/user/listing-scraper/internal/renderer"
	"github.com/user/listing-scraper/internal/wait"
	"github.com/user/listing-scraper/pkg/utils"
)

// Options controls a single crawl.
type Options struct {
	BaseURL         string
	SearchPath      string
	SearchParam     string
	MaxPages        int
	PageLoadTimeout time.Duration
	PageDelayMin    time.Duration
	PageDelayMax    time.Duration
}

// Crawler walks the result pages of one keyword: load, stabilize, parse,
// extract, paginate, until there is no next page or the page cap is hit.
type Crawler struct {
	opts       Options
	stabilizer *Stabilizer
	extractor  *Extractor
	paginator  *Paginator
	metrics    *monitoring.Metrics
	logger     *zap.Logger
	sleep      wait.Func
}

func NewCrawler(cfg *config.Config, m *monitoring.Metrics, l *zap.Logger) *Crawler {
	return &Crawler{
		opts: Options{
			BaseURL:         cfg.BaseURL,
			SearchPath:      cfg.SearchPath,
			SearchParam:     cfg.SearchParam,
			MaxPages:        cfg.MaxPages,
			PageLoadTimeout: cfg.PageLoadTimeout,
			PageDelayMin:    cfg.PageDelayMin,
			PageDelayMax:    cfg.PageDelayMax,
		},
		stabilizer: NewStabilizer(cfg.MaxScrolls, cfg.ScrollPause, cfg.SettleWait, l),
		extractor:  NewExtractor(cfg.ItemSelector, l),
		paginator:  NewPaginator(cfg.NextSelector, l),
		metrics:    m,
		logger:     l,
		sleep:      wait.Sleep,
	}
}

// SearchURL builds the first results page for keyword.
func (c *Crawler) SearchURL(keyword string) string {
	return utils.SearchURL(c.opts.BaseURL, c.opts.SearchPath, c.opts.SearchParam, keyword)
}

// Crawl runs the page loop on sess. It never returns a nil result and never
// panics on page failures:
//   - a navigation or stabilization failure aborts the crawl with no records;
//   - a parse failure stops the loop and keeps the records gathered so far;
//   - a cancelled ctx stops at the next wait and keeps the records gathered so far.
//
// sess is not closed; it belongs to the caller.
func (c *Crawler) Crawl(ctx context.Context, sess renderer.Session, job domain.CrawlJob) *domain.CrawlResult {
	res := &domain.CrawlResult{Job: job, StartedAt: time.Now()}
	defer func() {
		res.FinishedAt = time.Now()
		c.metrics.ObserveCrawlDuration(res.FinishedAt.Sub(res.StartedAt).Seconds())
	}()

	pageURL := job.StartURL
	if pageURL == "" {
		pageURL = c.SearchURL(job.Keyword)
	}
	res.StartURL = pageURL
	logger := c.logger.With(zap.String("job", job.Label()))

	var records []domain.Record
	for page := 0; ; page++ {
		logger.Info("loading page", zap.Int("page", page+1), zap.String("url", pageURL))

		if err := c.loadPage(ctx, sess, pageURL); err != nil {
			if ctx.Err() != nil {
				return c.cancelled(res, records, ctx.Err(), logger)
			}
			logger.Error("failed to load page, abandoning crawl", zap.String("url", pageURL), zap.Error(err))
			c.metrics.IncErrorsTotal("navigation")
			res.Stop, res.Err = domain.StopNavigation, err
			return res
		}
		res.Pages++
		c.metrics.IncPagesCrawled()

		html, err := sess.HTML(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return c.cancelled(res, records, ctx.Err(), logger)
			}
			logger.Error("failed to read page html, abandoning crawl", zap.Error(err))
			c.metrics.IncErrorsTotal("navigation")
			res.Stop, res.Err = domain.StopNavigation, fmt.Errorf("%w: %w", domain.ErrNavigation, err)
			return res
		}

		doc, err := ParseDocument(html)
		if err != nil {
			logger.Warn("no data available for page", zap.Int("page", page+1), zap.Error(err))
			c.metrics.IncErrorsTotal("parse")
			res.Records, res.Stop, res.Err = records, domain.StopParseError, err
			return res
		}

		extracted := c.extractor.Extract(doc, pageURL)
		records = append(records, extracted...)
		c.metrics.AddRecordsExtracted(len(extracted))
		logger.Info("page scraped", zap.Int("page", page+1), zap.Int("records", len(extracted)))

		next, ok := c.paginator.NextPage(doc, pageURL)
		if !ok {
			res.Stop = domain.StopExhausted
			break
		}
		if page+1 >= c.opts.MaxPages {
			res.Stop = domain.StopPageLimit
			break
		}

		if err := c.sleep(ctx, wait.Jitter(c.opts.PageDelayMin, c.opts.PageDelayMax)); err != nil {
			return c.cancelled(res, records, err, logger)
		}
		pageURL = next
	}

	res.Records = records
	logger.Info("crawl finished",
		zap.Int("pages", res.Pages),
		zap.Int("records", len(records)),
		zap.String("stop", string(res.Stop)),
	)
	return res
}

// loadPage navigates and waits for lazy content. Every failure is a navigation error.
func (c *Crawler) loadPage(ctx context.Context, sess renderer.Session, url string) error {
	if err := sess.Navigate(ctx, url, c.opts.PageLoadTimeout); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrNavigation, err)
	}
	if err := c.stabilizer.Stabilize(ctx, sess); err != nil {
		return fmt.Errorf("%w: stabilize: %w", domain.ErrNavigation, err)
	}
	return nil
}

func (c *Crawler) cancelled(res *domain.CrawlResult, records []domain.Record, err error, logger *zap.Logger) *domain.CrawlResult {
	if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("crawl interrupted: %w", err)
	}
	logger.Warn("crawl cancelled", zap.Int("pages", res.Pages), zap.Int("records", len(records)), zap.Error(err))
	res.Records, res.Stop, res.Err = records, domain.StopCancelled, err
	return res
}
