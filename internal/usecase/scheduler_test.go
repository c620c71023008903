package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsAnalyzer/internal/domain"
)

// fakeDriver fires the job a fixed number of times inside Start.
type fakeDriver struct {
	fires   int
	stopped bool
}

func (d *fakeDriver) Start(ctx context.Context, job func(context.Context, time.Time)) error {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < d.fires; i++ {
		job(ctx, base.Add(time.Duration(i)*time.Hour))
	}
	return nil
}

func (d *fakeDriver) Stop(context.Context) error {
	d.stopped = true
	return nil
}

func TestSchedulerRunsPipelinePerTrigger(t *testing.T) {
	t.Parallel()

	archive := &fakeArchive{}
	p := NewPipeline(PipelineDeps{
		Pages: &fakePages{pages: twoPages()}, Details: &fakeDetails{}, Embedder: &fakeEmbedder{},
		Clusterer: &fakeClusterer{}, Archive: archive,
	})

	var (
		triggers []time.Time
		results  []Result
	)
	driver := &fakeDriver{fires: 2}
	s := NewScheduler(driver, p, mustQuery(t, 2), RunOptions{ModelPath: "model.db"}, func(trigger time.Time, res Result) {
		triggers = append(triggers, trigger)
		results = append(results, res)
	})

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop(context.Background()))

	require.Len(t, results, 2)
	assert.Equal(t, time.Hour, triggers[1].Sub(triggers[0]))
	for _, res := range results {
		assert.Equal(t, domain.StatusDone, res.Status, "%v", res.Err)
		assert.Len(t, res.Articles, 9)
	}
	assert.NotEqual(t, results[0].ID, results[1].ID)
	assert.Len(t, archive.saved, 2)
	assert.True(t, driver.stopped)
}

func TestSchedulerWithoutDriver(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil, nil, domain.SearchQuery{}, RunOptions{}, nil)
	assert.NoError(t, s.Start(context.Background()))
	assert.NoError(t, s.Stop(context.Background()))
}
