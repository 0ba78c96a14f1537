package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/trogers1052/portfolio-valuation/internal/market"
)

type countingEnqueuer struct {
	calls int
	err   error
}

func (c *countingEnqueuer) EnqueuePending(context.Context, time.Time) (int, error) {
	c.calls++
	return 0, c.err
}

type countingPublisher struct {
	calls int
	err   error
}

func (c *countingPublisher) PublishSnapshotDailyBalances(context.Context, []string) (string, error) {
	c.calls++
	return "job", c.err
}

// ny builds a New York wall-clock time
func ny(day, hour, minute int) time.Time {
	return time.Date(2026, 10, day, hour, minute, 0, 0, market.Location())
}

func TestTick_AlertInterval(t *testing.T) {
	enq := &countingEnqueuer{}
	s := New(enq, &countingPublisher{}, Config{AlertInterval: 5 * time.Minute, SnapshotHour: 23, SnapshotMinute: 59}, zap.NewNop())
	ctx := context.Background()

	start := ny(14, 10, 0)
	s.Tick(ctx, start)
	s.Tick(ctx, start.Add(4*time.Minute))
	assert.Equal(t, 1, enq.calls)

	s.Tick(ctx, start.Add(5*time.Minute))
	assert.Equal(t, 2, enq.calls)

	t.Run("failed cycle is retried next tick", func(t *testing.T) {
		enq.err = errors.New("db down")
		s.Tick(ctx, start.Add(10*time.Minute))
		enq.err = nil
		s.Tick(ctx, start.Add(11*time.Minute))
		assert.Equal(t, 4, enq.calls)
	})
}

func TestTick_DailySnapshot(t *testing.T) {
	pub := &countingPublisher{}
	s := New(&countingEnqueuer{}, pub, Config{AlertInterval: time.Minute, SnapshotHour: 16, SnapshotMinute: 30}, zap.NewNop())
	ctx := context.Background()

	s.Tick(ctx, ny(16, 16, 29)) // Friday, before cutoff
	assert.Equal(t, 0, pub.calls)

	s.Tick(ctx, ny(16, 16, 30))
	s.Tick(ctx, ny(16, 18, 0))
	assert.Equal(t, 1, pub.calls, "once per trading date")

	s.Tick(ctx, ny(17, 17, 0)) // Saturday
	s.Tick(ctx, ny(18, 17, 0)) // Sunday
	assert.Equal(t, 1, pub.calls)

	s.Tick(ctx, ny(19, 16, 45)) // Monday
	assert.Equal(t, 2, pub.calls)
}

func TestTick_SnapshotPublishFailureRetries(t *testing.T) {
	pub := &countingPublisher{err: errors.New("broker down")}
	s := New(&countingEnqueuer{}, pub, Config{AlertInterval: time.Minute, SnapshotHour: 16, SnapshotMinute: 30}, zap.NewNop())
	ctx := context.Background()

	s.Tick(ctx, ny(16, 16, 31))
	pub.err = nil
	s.Tick(ctx, ny(16, 16, 32))
	s.Tick(ctx, ny(16, 16, 33))
	assert.Equal(t, 2, pub.calls)
}

func TestRun_StopsOnCancel(t *testing.T) {
	enq := &countingEnqueuer{}
	s := New(enq, &countingPublisher{}, Config{AlertInterval: time.Hour, SnapshotHour: 23, SnapshotMinute: 59}, zap.NewNop())
	s.now = func() time.Time { return ny(14, 10, 0) }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Equal(t, 1, enq.calls, "immediate tick on start")
}
