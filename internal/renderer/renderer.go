// Package renderer drives a real browser session for the crawler.
package renderer

import (
	"context"
	"time"
)

// Session is a controllable browsing session. A Session is owned by one
// crawl at a time and must not be driven concurrently.
type Session interface {
	// Navigate loads url, failing if the page does not load within timeout.
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	// HTML returns the current document's outer HTML.
	HTML(ctx context.Context) (string, error)
	// ScrollHeight returns document.body.scrollHeight.
	ScrollHeight(ctx context.Context) (int64, error)
	// ScrollToBottom scrolls the window to the current scroll height.
	ScrollToBottom(ctx context.Context) error
	// Close releases the browser. It is safe to call more than once.
	Close() error
}

// Factory opens new sessions.
type Factory interface {
	NewSession(ctx context.Context) (Session, error)
}
