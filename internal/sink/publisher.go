package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/user/listing-scraper/internal/domain"
	"github.com/user/listing-scraper/internal/monitoring"
	"github.com/user/listing-scraper/internal/wait"
)

// PublisherOptions configures retries for Publisher.
type PublisherOptions struct {
	MaxRetries int
	Delay      time.Duration
	Timeout    time.Duration
	Backoff    bool
}

// DefaultPublisherOptions returns 3 attempts, 2s apart, 10s per request, no backoff.
func DefaultPublisherOptions() PublisherOptions {
	return PublisherOptions{MaxRetries: 3, Delay: 2 * time.Second, Timeout: 10 * time.Second}
}

// HTTPError is returned for a response that is neither 200 nor 201.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected response %s: %s", e.Status, e.Body)
}

// Publisher POSTs a batch of records to an HTTP endpoint with retries.
type Publisher struct {
	client  *http.Client
	opts    PublisherOptions
	sleep   wait.Func
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

func NewPublisher(opts PublisherOptions, m *monitoring.Metrics, l *zap.Logger) *Publisher {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	return &Publisher{
		client:  &http.Client{Timeout: opts.Timeout},
		opts:    opts,
		sleep:   wait.Sleep,
		metrics: m,
		logger:  l,
	}
}

// Publish sends records as one JSON array. It reports whether any attempt
// got a 200 or 201 back; failures are logged, never returned.
func (p *Publisher) Publish(ctx context.Context, url string, records []domain.Record) bool {
	body, err := encodeBatch(records)
	if err != nil {
		p.logger.Error("failed to encode records", zap.Error(err))
		return false
	}

	delay := p.opts.Delay
	for attempt := 1; attempt <= p.opts.MaxRetries; attempt++ {
		err := p.post(ctx, url, body)
		if err == nil {
			p.metrics.IncPublishAttempt("success")
			p.logger.Info("records published",
				zap.String("url", url),
				zap.Int("records", len(records)),
				zap.Int("attempt", attempt),
			)
			return true
		}

		p.metrics.IncPublishAttempt(outcome(err))
		p.logger.Warn("publish attempt failed",
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Int("max_retries", p.opts.MaxRetries),
			zap.Error(err),
		)

		if attempt == p.opts.MaxRetries {
			break
		}
		if p.opts.Backoff {
			delay *= 2
		}
		if err := p.sleep(ctx, delay); err != nil {
			p.logger.Warn("publish aborted", zap.Error(err))
			return false
		}
	}

	p.logger.Error("all publish attempts failed", zap.String("url", url), zap.Int("attempts", p.opts.MaxRetries))
	return false
}

func (p *Publisher) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(bytes.TrimSpace(snippet))}
}

func encodeBatch(records []domain.Record) ([]byte, error) {
	if records == nil {
		records = []domain.Record{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func outcome(err error) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return "status"
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return "timeout"
	}
	return "transport"
}
