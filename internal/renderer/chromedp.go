package renderer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/user/listing-scraper/internal/proxy"
)

const (
	scrollHeightJS   = `document.body ? document.body.scrollHeight : 0`
	scrollToBottomJS = `window.scrollTo(0, document.body ? document.body.scrollHeight : 0)`
)

// Options configures browser sessions.
type Options struct {
	Headless       bool
	AcceptLanguage string
}

// ChromedpFactory starts one headless Chrome per session.
type ChromedpFactory struct {
	opts         Options
	proxyManager *proxy.Manager
	logger       *zap.Logger
}

func NewChromedpFactory(opts Options, pm *proxy.Manager, l *zap.Logger) *ChromedpFactory {
	return &ChromedpFactory{opts: opts, proxyManager: pm, logger: l}
}

// NewSession starts a browser with a user agent and proxy taken from the
// proxy manager. The browser lives until Close.
func (f *ChromedpFactory) NewSession(ctx context.Context) (Session, error) {
	userAgent := f.proxyManager.GetUserAgent()
	proxyServer := f.proxyManager.GetProxy()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", f.opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(userAgent),
	)
	if proxyServer != "" {
		opts = append(opts, chromedp.ProxyServer(proxyServer))
	}

	// The browser must outlive the caller's request context, so it hangs
	// off a detached context and is torn down explicitly in Close.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Start the browser now so launch failures surface here and not on first navigation.
	actions := []chromedp.Action{network.Enable()}
	if f.opts.AcceptLanguage != "" {
		actions = append(actions, network.SetExtraHTTPHeaders(network.Headers{
			"Accept-Language": f.opts.AcceptLanguage,
		}))
	}
	if err := chromedp.Run(browserCtx, actions...); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	f.logger.Debug("browser session started",
		zap.String("user_agent", userAgent),
		zap.Bool("proxy", proxyServer != ""),
	)

	return &chromedpSession{
		ctx:    browserCtx,
		cancel: func() { browserCancel(); allocCancel() },
		logger: f.logger,
	}, nil
}

type chromedpSession struct {
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	logger    *zap.Logger
}

// run executes actions in the browser tab while honouring the caller's ctx.
func (s *chromedpSession) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	taskCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	if timeout > 0 {
		taskCtx, cancel = context.WithTimeout(taskCtx, timeout)
		defer cancel()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(taskCtx, actions...)
}

func (s *chromedpSession) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if err := s.run(ctx, timeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (s *chromedpSession) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, 0, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read html: %w", err)
	}
	return html, nil
}

func (s *chromedpSession) ScrollHeight(ctx context.Context) (int64, error) {
	var height int64
	if err := s.run(ctx, 0, chromedp.Evaluate(scrollHeightJS, &height)); err != nil {
		return 0, fmt.Errorf("read scroll height: %w", err)
	}
	return height, nil
}

func (s *chromedpSession) ScrollToBottom(ctx context.Context) error {
	if err := s.run(ctx, 0, chromedp.Evaluate(scrollToBottomJS, nil)); err != nil {
		return fmt.Errorf("scroll to bottom: %w", err)
	}
	return nil
}

func (s *chromedpSession) Close() error {
	s.closeOnce.Do(func() {
		s.logger.Debug("closing browser session")
		s.cancel()
	})
	return nil
}
