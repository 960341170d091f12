package crawler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/user/listing-scraper/internal/renderer"
	"github.com/user/listing-scraper/internal/wait"
)

// Stabilizer scrolls a page until lazily-loaded content stops growing.
type Stabilizer struct {
	MaxScrolls  int
	ScrollPause time.Duration
	SettleWait  time.Duration

	sleep  wait.Func
	logger *zap.Logger
}

func NewStabilizer(maxScrolls int, scrollPause, settleWait time.Duration, l *zap.Logger) *Stabilizer {
	return &Stabilizer{
		MaxScrolls:  maxScrolls,
		ScrollPause: scrollPause,
		SettleWait:  settleWait,
		sleep:       wait.Sleep,
		logger:      l,
	}
}

// Stabilize scrolls to the bottom up to MaxScrolls times, pausing after each
// scroll, and stops the first time the page height does not change. It then
// waits SettleWait. Session errors are returned unchanged.
func (s *Stabilizer) Stabilize(ctx context.Context, sess renderer.Session) error {
	lastHeight, err := sess.ScrollHeight(ctx)
	if err != nil {
		return err
	}

	scrolls := 0
	for scrolls < s.MaxScrolls {
		if err := sess.ScrollToBottom(ctx); err != nil {
			return err
		}
		scrolls++
		if err := s.sleep(ctx, s.ScrollPause); err != nil {
			return err
		}

		newHeight, err := sess.ScrollHeight(ctx)
		if err != nil {
			return err
		}
		s.logger.Debug("scrolled", zap.Int("scroll", scrolls), zap.Int64("height", newHeight))

		if newHeight == lastHeight {
			s.logger.Debug("no new content loaded, stopping scroll")
			break
		}
		lastHeight = newHeight
	}

	s.logger.Info("scrolling completed", zap.Int("scrolls", scrolls), zap.Int64("height", lastHeight))
	return s.sleep(ctx, s.SettleWait)
}
