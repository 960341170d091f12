package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/listing-scraper/internal/crawler"
	"github.com/user/listing-scraper/internal/domain"
)

var errNoJobs = errors.New("nothing to crawl: pass keywords, set KEYWORDS, or use --start-url")

func crawlCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "crawl [keyword...]",
		Short: "Crawl listings for one or more keywords and save the records",
		Example: `  listing-scraper crawl "wireless mouse" -o mice.csv
  listing-scraper crawl --start-url "https://www.amazon.com/s?k=lamp" --api-url http://localhost:5000/api/products/
  KEYWORDS=lamp,desk listing-scraper crawl --database-url postgres://localhost/listings`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.close()

			jobs := crawlJobs(args, a.cfg.Keywords, a.cfg.StartURL, force)
			if len(jobs) == 0 {
				return errNoJobs
			}
			if a.target.Kind == domain.SinkNone {
				return errors.New("no output configured: set --output, --api-url or --database-url")
			}

			runCrawl(ctx, a, jobs)
			return nil
		},
	}

	cmd.Flags().String("start-url", "", "crawl this results page instead of a keyword search")
	cmd.Flags().BoolVar(&force, "force", false, "crawl keywords even if they were crawled recently")
	return cmd
}

// crawlJobs builds the job list: command-line keywords replace configured
// ones, and a start URL is crawled first when given.
func crawlJobs(args, configured []string, startURL string, force bool) []domain.CrawlJob {
	keywords := configured
	if len(args) > 0 {
		keywords = args
	}

	var jobs []domain.CrawlJob
	if startURL = strings.TrimSpace(startURL); startURL != "" {
		jobs = append(jobs, domain.CrawlJob{StartURL: startURL, ForceCrawl: force})
	}
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			jobs = append(jobs, domain.CrawlJob{Keyword: k, ForceCrawl: force})
		}
	}
	return jobs
}

// runCrawl never fails the process: crawl and sink problems are logged and
// whatever was gathered is kept.
func runCrawl(ctx context.Context, a *app, jobs []domain.CrawlJob) {
	a.logger.Info("starting crawl", zap.Int("jobs", len(jobs)), zap.Stringer("target", a.target))

	results := a.pool.Run(ctx, jobs)
	for _, res := range results {
		fields := []zap.Field{
			zap.String("job", res.Job.Label()),
			zap.Int("pages", res.Pages),
			zap.Int("records", len(res.Records)),
			zap.String("stop", string(res.Stop)),
		}
		if res.Err != nil {
			a.logger.Warn("crawl ended early", append(fields, zap.Error(res.Err))...)
			continue
		}
		a.logger.Info("crawl result", fields...)
	}

	records := crawler.MergeRecords(results)
	if err := a.dispatcher.Dispatch(context.WithoutCancel(ctx), records, a.target); err != nil {
		a.logger.Error("failed to save records", zap.Stringer("target", a.target), zap.Int("records", len(records)), zap.Error(err))
		return
	}
	a.logger.Info("crawl complete", zap.Int("records", len(records)))
}
