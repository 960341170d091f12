package crawler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStabilizer(maxScrolls int) (*Stabilizer, *sleepLog) {
	s := NewStabilizer(maxScrolls, 500*time.Millisecond, 2*time.Second, zap.NewNop())
	log := &sleepLog{}
	s.sleep = log.sleep
	return s, log
}

func TestStabilize_StopsWhenHeightUnchanged(t *testing.T) {
	sess := newFakeSession(nil)
	sess.heights = []int64{1000, 1800, 2400, 2400}
	s, sleeps := newTestStabilizer(10)

	require.NoError(t, s.Stabilize(context.Background(), sess))

	assert.Equal(t, 3, sess.scrolls)
	assert.Equal(t, []time.Duration{
		500 * time.Millisecond, 500 * time.Millisecond, 500 * time.Millisecond, 2 * time.Second,
	}, sleeps.waits)
}

func TestStabilize_StaticPageScrollsOnce(t *testing.T) {
	sess := newFakeSession(nil)
	s, _ := newTestStabilizer(10)

	require.NoError(t, s.Stabilize(context.Background(), sess))
	assert.Equal(t, 1, sess.scrolls)
}

func TestStabilize_RespectsScrollBudget(t *testing.T) {
	sess := newFakeSession(nil)
	for h := int64(1); h <= 50; h++ {
		sess.heights = append(sess.heights, h*100)
	}
	s, sleeps := newTestStabilizer(4)

	require.NoError(t, s.Stabilize(context.Background(), sess))

	assert.Equal(t, 4, sess.scrolls)
	assert.Len(t, sleeps.waits, 5)
	assert.Equal(t, 2*time.Second, sleeps.waits[4])
}

func TestStabilize_ZeroBudgetOnlySettles(t *testing.T) {
	sess := newFakeSession(nil)
	s, sleeps := newTestStabilizer(0)

	require.NoError(t, s.Stabilize(context.Background(), sess))

	assert.Zero(t, sess.scrolls)
	assert.Equal(t, []time.Duration{2 * time.Second}, sleeps.waits)
}

type brokenHeightSession struct{ *fakeSession }

func (brokenHeightSession) ScrollHeight(context.Context) (int64, error) {
	return 0, errors.New("execution context was destroyed")
}

func TestStabilize_PropagatesSessionErrors(t *testing.T) {
	s, _ := newTestStabilizer(10)

	err := s.Stabilize(context.Background(), brokenHeightSession{newFakeSession(nil)})

	assert.EqualError(t, err, "execution context was destroyed")
}

func TestStabilize_Cancelled(t *testing.T) {
	sess := newFakeSession(nil)
	sess.heights = []int64{100, 200, 300}
	s := NewStabilizer(10, time.Hour, time.Hour, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Stabilize(ctx, sess)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, sess.scrolls)
}
