package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/user/listing-scraper/internal/config"
	"github.com/user/listing-scraper/internal/monitoring"
	"github.com/user/listing-scraper/internal/renderer"
)

const testBaseURL = "https://shop.example.com"

// fakeSession serves canned HTML by URL and a scripted sequence of page heights.
type fakeSession struct {
	pages   map[string]string
	navErrs map[string]error
	heights []int64

	mu          sync.Mutex
	current     string
	navigations []string
	heightCalls int
	scrolls     int
	closed      int
}

func newFakeSession(pages map[string]string) *fakeSession {
	return &fakeSession{pages: pages, navErrs: map[string]error{}}
}

func (s *fakeSession) Navigate(ctx context.Context, url string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.navigations = append(s.navigations, url)
	if err := s.navErrs[url]; err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.current = url
	s.heightCalls = 0
	return nil
}

func (s *fakeSession) HTML(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pages[s.current], nil
}

func (s *fakeSession) ScrollHeight(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.heights) == 0 {
		return 1000, nil
	}
	h := s.heights[min(s.heightCalls, len(s.heights)-1)]
	s.heightCalls++
	return h, nil
}

func (s *fakeSession) ScrollToBottom(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrolls++
	return nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

func (s *fakeSession) Navigations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.navigations...)
}

// fakeFactory hands out sessions that all serve the same pages.
type fakeFactory struct {
	pages   map[string]string
	navErrs map[string]error
	err     error

	mu       sync.Mutex
	sessions []*fakeSession
}

func (f *fakeFactory) NewSession(context.Context) (renderer.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	s := newFakeSession(f.pages)
	for k, v := range f.navErrs {
		s.navErrs[k] = v
	}
	f.mu.Lock()
	f.sessions = append(f.sessions, s)
	f.mu.Unlock()
	return s, nil
}

func (f *fakeFactory) Sessions() []*fakeSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fakeSession(nil), f.sessions...)
}

type sleepLog struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (l *sleepLog) sleep(ctx context.Context, d time.Duration) error {
	l.mu.Lock()
	l.waits = append(l.waits, d)
	l.mu.Unlock()
	return ctx.Err()
}

func testConfig() *config.Config {
	return &config.Config{
		BaseURL:         testBaseURL,
		SearchPath:      "/s",
		SearchParam:     "k",
		ItemSelector:    DefaultItemSelector,
		NextSelector:    DefaultNextSelector,
		MaxPages:        5,
		PageLoadTimeout: time.Second,
		MaxScrolls:      10,
		ScrollPause:     500 * time.Millisecond,
		SettleWait:      2 * time.Second,
		PageDelayMin:    2 * time.Second,
		PageDelayMax:    4 * time.Second,
	}
}

func newTestCrawler(cfg *config.Config) (*Crawler, *sleepLog) {
	c := NewCrawler(cfg, monitoring.NewMetrics(prometheus.NewRegistry()), zap.NewNop())
	log := &sleepLog{}
	c.sleep = log.sleep
	c.stabilizer.sleep = func(context.Context, time.Duration) error { return nil }
	return c, log
}

// listingPage renders n listing items, titled "<prefix> n", and an optional next link.
func listingPage(prefix string, n int, next string) string {
	var b strings.Builder
	b.WriteString("<html><body><div class=\"s-results\">")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, `<div role="listitem"><h2> %s %d </h2><img src="https://img.example.com/%d.jpg"><a href="/dp/%s-%d">view</a></div>`,
			prefix, i, i, strings.ToLower(prefix), i)
	}
	b.WriteString("</div>")
	if next != "" {
		fmt.Fprintf(&b, `<a class="s-pagination-next" href="%s">Next</a>`, next)
	}
	b.WriteString("</body></html>")
	return b.String()
}

var errBrowser = errors.New("net::ERR_CONNECTION_RESET")
