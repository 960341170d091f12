package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/user/listing-scraper/internal/config"
	"github.com/user/listing-scraper/internal/domain"
	"github.com/user/listing-scraper/internal/monitoring"
)

// CrawlRunner crawls a batch of jobs and returns one result per job.
type CrawlRunner interface {
	Run(ctx context.Context, jobs []domain.CrawlJob) []*domain.CrawlResult
}

// RecordDispatcher hands merged records to the configured sink.
type RecordDispatcher interface {
	Dispatch(ctx context.Context, records []domain.Record, target domain.SinkTarget) error
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Option configures a Server.
type Option func(*Server)

// WithHealthCheck adds a dependency to GET /api/health.
func WithHealthCheck(name string, p Pinger) Option {
	return func(s *Server) { s.checks[name] = p }
}

// WithGatherer sets the registry served on /metrics. The default registry is used otherwise.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	config     *config.Config
	router     http.Handler
	httpServer *http.Server
	pool       CrawlRunner
	dispatcher RecordDispatcher
	target     domain.SinkTarget
	checks     map[string]Pinger
	gatherer   prometheus.Gatherer
	metrics    *monitoring.Metrics
	logger     *zap.Logger

	// background crawl started by POST /api/crawl; one at a time so runs
	// do not multiply browsers or overwrite each other's output
	crawlCtx    context.Context
	cancelCrawl context.CancelFunc
	crawls      sync.WaitGroup
	crawling    atomic.Bool
}

// NewServer wires the API. pool and dispatcher may be nil, in which case
// POST /api/crawl answers 503.
func NewServer(cfg *config.Config, pool CrawlRunner, d RecordDispatcher, m *monitoring.Metrics, l *zap.Logger, opts ...Option) *Server {
	target, _ := domain.ResolveTarget(cfg.OutputFile, cfg.APIURL, cfg.DatabaseURL, cfg.TableName)
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config:      cfg,
		pool:        pool,
		dispatcher:  d,
		target:      target,
		checks:      map[string]Pinger{},
		gatherer:    prometheus.DefaultGatherer,
		metrics:     m,
		logger:      l,
		crawlCtx:    ctx,
		cancelCrawl: cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.setupRouter()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%s", s.config.ServerPort),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting requests and waits for background crawls. If ctx
// ends first the crawls are cancelled; they still dispatch what they gathered.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}

	done := make(chan struct{})
	go func() {
		s.crawls.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("cancelling running crawls")
		s.cancelCrawl()
		<-done
	}
	s.cancelCrawl()
	return err
}
