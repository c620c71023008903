package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalSchedulerRunsImmediatelyAndRepeats(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	s := NewIntervalScheduler(10 * time.Millisecond)
	require.NoError(t, s.Start(context.Background(), func(context.Context, time.Time) {
		calls.Add(1)
	}))

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))

	after := calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, calls.Load())
}

func TestIntervalSchedulerStopCancelsJob(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	cancelled := make(chan struct{})
	s := NewIntervalScheduler(time.Hour)
	require.NoError(t, s.Start(context.Background(), func(ctx context.Context, _ time.Time) {
		close(started)
		<-ctx.Done()
		close(cancelled)
	}))

	<-started
	require.NoError(t, s.Stop(context.Background()))

	select {
	case <-cancelled:
	default:
		t.Fatal("job context was not cancelled before Stop returned")
	}
}

func TestIntervalSchedulerStartTwice(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(time.Hour)
	job := func(context.Context, time.Time) {}
	require.NoError(t, s.Start(context.Background(), job))
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	assert.ErrorIs(t, s.Start(context.Background(), job), ErrAlreadyStarted)
}

func TestIntervalSchedulerRejectsZeroInterval(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(0)
	assert.Error(t, s.Start(context.Background(), func(context.Context, time.Time) {}))
	assert.NoError(t, s.Stop(context.Background()))
}

func TestIntervalSchedulerDropsTicksDuringJob(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		starts []time.Duration
	)
	begin := time.Now()
	s := NewIntervalScheduler(100 * time.Millisecond)
	require.NoError(t, s.Start(context.Background(), func(context.Context, time.Time) {
		mu.Lock()
		starts = append(starts, time.Since(begin))
		first := len(starts) == 1
		mu.Unlock()
		if first {
			time.Sleep(250 * time.Millisecond)
		}
	}))
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(starts) >= 2
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	// ticks at 100ms and 200ms fell inside the first job; the next run waits for 300ms
	assert.GreaterOrEqual(t, starts[1], 280*time.Millisecond)
}
