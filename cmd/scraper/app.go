package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/listing-scraper/internal/config"
	"github.com/user/listing-scraper/internal/crawler"
	"github.com/user/listing-scraper/internal/domain"
	"github.com/user/listing-scraper/internal/monitoring"
	"github.com/user/listing-scraper/internal/proxy"
	"github.com/user/listing-scraper/internal/renderer"
	"github.com/user/listing-scraper/internal/sink"
	"github.com/user/listing-scraper/internal/storage"
	"github.com/user/listing-scraper/pkg/logger"
)

// app is the wired pipeline shared by the crawl and serve commands.
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	metrics    *monitoring.Metrics
	pool       *crawler.Pool
	dispatcher *sink.Dispatcher
	target     domain.SinkTarget
	redis      *storage.RedisStore
	postgres   *storage.PostgresStore
}

func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("could not load config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		return nil, fmt.Errorf("could not create logger: %w", err)
	}

	a := &app{cfg: cfg, logger: log}

	target, ignored := domain.ResolveTarget(cfg.OutputFile, cfg.APIURL, cfg.DatabaseURL, cfg.TableName)
	for _, name := range ignored {
		log.Warn("more than one output configured, ignoring one", zap.String("ignored", name), zap.Stringer("target", target))
	}
	if target.Kind == domain.SinkFile {
		// Fail before crawling rather than after.
		if _, err := domain.DetectFormat(target.Path); err != nil {
			return nil, err
		}
	}
	a.target = target

	a.metrics = monitoring.NewMetrics(prometheus.DefaultRegisterer)

	// Initialize Storage Layer
	if cfg.RedisAddr != "" {
		rs := storage.NewRedisStore(cfg.RedisAddr)
		if err := rs.Ping(ctx); err != nil {
			log.Warn("redis unavailable, keyword deduplication disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
			rs.Close()
		} else {
			a.redis = rs
		}
	}

	var store sink.RecordStore
	if target.Kind == domain.SinkPostgres {
		ps, err := storage.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		a.postgres = ps
		store = ps
	}

	// Initialize Browser, Crawler and Sinks
	proxyManager := proxy.NewManager(cfg.Proxies, cfg.UserAgentList())
	factory := renderer.NewChromedpFactory(renderer.Options{
		Headless:       cfg.Headless,
		AcceptLanguage: cfg.AcceptLanguage,
	}, proxyManager, log)

	var dedup crawler.Deduper
	if a.redis != nil {
		dedup = a.redis
	}
	c := crawler.NewCrawler(cfg, a.metrics, log)
	a.pool = crawler.NewPool(c, factory, dedup, cfg.DeduplicationWindow(), cfg.CrawlWorkers, log)

	publisher := sink.NewPublisher(sink.PublisherOptions{
		MaxRetries: cfg.MaxRetries,
		Delay:      cfg.RetryDelay,
		Timeout:    cfg.RequestTimeout,
		Backoff:    cfg.Backoff,
	}, a.metrics, log)
	a.dispatcher = sink.NewDispatcher(publisher, store, a.metrics, log)

	return a, nil
}

func (a *app) close() {
	if a.redis != nil {
		a.redis.Close()
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	_ = a.logger.Sync()
}
