package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"NewsAnalyzer/internal/ports"
)

// ErrAlreadyStarted is returned when Start is called on a running scheduler.
var ErrAlreadyStarted = errors.New("scheduler already started")

// IntervalScheduler runs a job immediately and then once per interval.
// Jobs run one at a time on the scheduler goroutine; ticks that arrive
// while a job is running are dropped.
type IntervalScheduler struct {
	every time.Duration

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

var _ ports.Scheduler = (*IntervalScheduler)(nil)

// NewIntervalScheduler builds a scheduler firing every d.
func NewIntervalScheduler(d time.Duration) *IntervalScheduler {
	return &IntervalScheduler{every: d}
}

// Start begins ticking. The job context is cancelled by Stop or by ctx.
func (s *IntervalScheduler) Start(ctx context.Context, job func(context.Context, time.Time)) error {
	if job == nil {
		return nil
	}
	if s.every <= 0 {
		return errors.New("scheduler interval must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return ErrAlreadyStarted
	}

	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stop, s.done

	jobCtx, cancel := context.WithCancel(ctx)
	go func() {
		select {
		case <-stop:
		case <-jobCtx.Done():
		}
		cancel()
	}()

	go func() {
		defer close(done)
		defer cancel()

		ticker := time.NewTicker(s.every)
		defer ticker.Stop()

		run := func(t time.Time) {
			job(jobCtx, t)
			select {
			case <-ticker.C:
			default:
			}
		}

		run(time.Now())
		for {
			select {
			case t := <-ticker.C:
				run(t)
			case <-jobCtx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop cancels the running job and waits for it to return or for ctx to end.
func (s *IntervalScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
