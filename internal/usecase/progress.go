package usecase

import (
	"sync"

	"NewsAnalyzer/internal/domain"
	"NewsAnalyzer/internal/ports"
)

// progressTracker holds the counters of the current stage. Workers share it;
// the observer is notified while the lock is held so events stay ordered.
type progressTracker struct {
	mu       sync.Mutex
	observer ports.ProgressObserver
	state    domain.Progress
}

func newProgressTracker(observer ports.ProgressObserver) *progressTracker {
	return &progressTracker{observer: observer, state: domain.Progress{Stage: domain.StageIdle}}
}

// enter switches stage and resets the counters.
func (t *progressTracker) enter(stage domain.Stage, target int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state = domain.Progress{Stage: stage, Target: target}
	if t.observer != nil {
		t.observer.StageChanged(stage)
		if !stage.Terminal() {
			t.observer.ProgressChanged(t.state)
		}
	}
}

// advance increments the processed counter.
func (t *progressTracker) advance() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.Processed++
	if t.observer != nil {
		t.observer.ProgressChanged(t.state)
	}
}

func (t *progressTracker) snapshot() domain.Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}
