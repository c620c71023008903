package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsAnalyzer/internal/domain"
	"NewsAnalyzer/internal/ports"
)

type fakePages struct {
	pages     map[int][]domain.ResultRef
	err       error
	onFetch   func(index int)
	calls     atomic.Int32
	completed atomic.Int32
}

func (f *fakePages) FetchPage(_ context.Context, _ string, index int) ([]domain.ResultRef, error) {
	f.calls.Add(1)
	if f.onFetch != nil {
		f.onFetch(index)
	}
	defer f.completed.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.pages[index], nil
}

type fakeDetails struct {
	skip      map[string]bool
	err       error
	onExtract func(ref domain.ResultRef)
	completed atomic.Int32
}

func (f *fakeDetails) Extract(_ context.Context, ref domain.ResultRef) (domain.Article, error) {
	if f.onExtract != nil {
		f.onExtract(ref)
	}
	defer f.completed.Add(1)
	if f.err != nil {
		return domain.Article{}, f.err
	}
	if f.skip[ref.DetailURL] {
		return domain.Article{}, fmt.Errorf("%s: %w", ref.DetailURL, domain.ErrExtractionSkipped)
	}
	doc := domain.NewDocument([][]string{{"기사", ref.Title}})
	return domain.NewArticle(ref, "2023.05.01. 14:07", doc), nil
}

type fakeEmbedder struct {
	mu        sync.Mutex
	loaded    bool
	loadErr   error
	loadCalls int
	trained   [][]string
	output    string
}

func (f *fakeEmbedder) Load(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadCalls++
	if f.loadErr != nil {
		return f.loadErr
	}
	f.loaded = true
	return nil
}

func (f *fakeEmbedder) Loaded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loaded
}

func (f *fakeEmbedder) Embed(a domain.Article) ([]float64, error) {
	if !f.Loaded() {
		return nil, domain.ErrModelNotLoaded
	}
	return []float64{1, 0}, nil
}

func (f *fakeEmbedder) Update(_ context.Context, sentences [][]string, output string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trained = sentences
	f.output = output
	return nil
}

type fakeClusterer struct {
	calls int
}

func (f *fakeClusterer) Cluster(articles []domain.Article) ([]domain.Cluster, error) {
	f.calls++
	return []domain.Cluster{{ID: 0, Articles: articles}}, nil
}

type fakeArchive struct {
	saved []ports.RunRecord
}

func (f *fakeArchive) SaveRun(_ context.Context, run ports.RunRecord) error {
	f.saved = append(f.saved, run)
	return nil
}

func (f *fakeArchive) RecentRuns(context.Context, int) ([]ports.RunSummary, error) {
	return nil, errors.New("not implemented")
}

type recordingObserver struct {
	mu     sync.Mutex
	stages []domain.Stage
	last   map[domain.Stage]domain.Progress
}

func (o *recordingObserver) StageChanged(stage domain.Stage) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stages = append(o.stages, stage)
}

func (o *recordingObserver) ProgressChanged(p domain.Progress) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.last == nil {
		o.last = make(map[domain.Stage]domain.Progress)
	}
	o.last[p.Stage] = p
}

func twoPages() map[int][]domain.ResultRef {
	return map[int][]domain.ResultRef{
		0: refs("p0", 1, 2, 3, 4, 5),
		1: refs("p1", 5, 6, 7, 8, 9),
	}
}

func mustQuery(t *testing.T, pages int) domain.SearchQuery {
	t.Helper()
	q, err := domain.NewSearchQuery("반도체, 배터리", "주가", pages, 0)
	require.NoError(t, err)
	return q
}

func TestPipelineRunDone(t *testing.T) {
	t.Parallel()

	pages := &fakePages{pages: twoPages()}
	details := &fakeDetails{skip: map[string]bool{"https://n.news.example/article/3": true}}
	embedder := &fakeEmbedder{}
	clusterer := &fakeClusterer{}
	archive := &fakeArchive{}
	observer := &recordingObserver{}

	p := NewPipeline(PipelineDeps{
		Pages: pages, Details: details, Embedder: embedder, Clusterer: clusterer, Archive: archive,
		PageWorkers: 2, DetailWorkers: 4, EmbedWorkers: 3,
	})

	res := p.Run(context.Background(), mustQuery(t, 2), RunOptions{ModelPath: "model.db", Observer: observer})

	require.Equal(t, domain.StatusDone, res.Status, "%v", res.Err)
	require.Len(t, res.Articles, 8)

	// oldest first, skipped article removed
	assert.Equal(t, "https://n.news.example/article/9", res.Articles[0].DetailURL)
	assert.Equal(t, "https://n.news.example/article/4", res.Articles[5].DetailURL)
	assert.Equal(t, "https://n.news.example/article/1", res.Articles[7].DetailURL)
	for _, a := range res.Articles {
		assert.True(t, a.Embedded(), a.DetailURL)
	}

	assert.Equal(t, []domain.Stage{
		domain.StageFetchingPages,
		domain.StageDeduplicating,
		domain.StageExtractingDetails,
		domain.StageEmbedding,
		domain.StageClustering,
		domain.StageDone,
	}, observer.stages)
	assert.Equal(t, domain.Progress{Stage: domain.StageExtractingDetails, Processed: 9, Target: 9}, observer.last[domain.StageExtractingDetails])
	assert.Equal(t, domain.Progress{Stage: domain.StageEmbedding, Processed: 8, Target: 8}, observer.last[domain.StageEmbedding])

	assert.Equal(t, 1, embedder.loadCalls)
	assert.Equal(t, 1, clusterer.calls)
	require.Len(t, archive.saved, 1)
	assert.Equal(t, res.ID, archive.saved[0].ID)
	assert.Equal(t, domain.StatusDone, archive.saved[0].Status)
}

func TestPipelineAbortBeforeStart(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pages := &fakePages{pages: twoPages()}
	observer := &recordingObserver{}
	p := NewPipeline(PipelineDeps{Pages: pages, Details: &fakeDetails{}, Embedder: &fakeEmbedder{}, Clusterer: &fakeClusterer{}})

	res := p.Run(ctx, mustQuery(t, 2), RunOptions{Observer: observer})

	assert.Equal(t, domain.StatusAborted, res.Status)
	assert.Equal(t, 0, res.Progress.Processed)
	assert.Zero(t, pages.calls.Load())
	assert.Equal(t, []domain.Stage{domain.StageAborted}, observer.stages)
	assert.Nil(t, res.Articles)
}

func TestPipelineConnectivityFails(t *testing.T) {
	t.Parallel()

	pages := &fakePages{err: &domain.ConnectivityError{URL: "https://search.example", Err: errors.New("connection refused")}}
	archive := &fakeArchive{}
	p := NewPipeline(PipelineDeps{Pages: pages, Details: &fakeDetails{}, Embedder: &fakeEmbedder{}, Clusterer: &fakeClusterer{}, Archive: archive})

	res := p.Run(context.Background(), mustQuery(t, 3), RunOptions{})

	assert.Equal(t, domain.StatusFailed, res.Status)
	assert.Equal(t, domain.StageFetchingPages, res.Stage)
	assert.True(t, domain.IsConnectivity(res.Err), "%v", res.Err)
	assert.Empty(t, archive.saved)
}

func TestPipelineDetailConnectivityFails(t *testing.T) {
	t.Parallel()

	details := &fakeDetails{err: &domain.ConnectivityError{URL: "https://n.news.example", Err: errors.New("reset")}}
	p := NewPipeline(PipelineDeps{Pages: &fakePages{pages: twoPages()}, Details: details, Embedder: &fakeEmbedder{}, Clusterer: &fakeClusterer{}})

	res := p.Run(context.Background(), mustQuery(t, 2), RunOptions{})

	assert.Equal(t, domain.StatusFailed, res.Status)
	assert.Equal(t, domain.StageExtractingDetails, res.Stage)
	assert.True(t, domain.IsConnectivity(res.Err))
}

func TestPipelineModelErrorFails(t *testing.T) {
	t.Parallel()

	embedder := &fakeEmbedder{loadErr: &domain.ModelError{Path: "missing.db", Err: errors.New("no such file")}}
	clusterer := &fakeClusterer{}
	p := NewPipeline(PipelineDeps{Pages: &fakePages{pages: twoPages()}, Details: &fakeDetails{}, Embedder: embedder, Clusterer: clusterer})

	res := p.Run(context.Background(), mustQuery(t, 2), RunOptions{ModelPath: "missing.db"})

	assert.Equal(t, domain.StatusFailed, res.Status)
	assert.Equal(t, domain.StageEmbedding, res.Stage)
	assert.True(t, domain.IsModel(res.Err))
	assert.Zero(t, clusterer.calls)
}

func TestPipelineNoArticles(t *testing.T) {
	t.Parallel()

	skip := map[string]bool{}
	for _, page := range twoPages() {
		for _, ref := range page {
			skip[ref.DetailURL] = true
		}
	}
	embedder := &fakeEmbedder{}
	clusterer := &fakeClusterer{}
	p := NewPipeline(PipelineDeps{Pages: &fakePages{pages: twoPages()}, Details: &fakeDetails{skip: skip}, Embedder: embedder, Clusterer: clusterer})

	res := p.Run(context.Background(), mustQuery(t, 2), RunOptions{})

	assert.Equal(t, domain.StatusDone, res.Status)
	assert.Empty(t, res.Articles)
	assert.Empty(t, res.Clusters)
	assert.Zero(t, embedder.loadCalls)
	assert.Zero(t, clusterer.calls)
}

func TestPipelineTraining(t *testing.T) {
	t.Parallel()

	embedder := &fakeEmbedder{}
	observer := &recordingObserver{}
	p := NewPipeline(PipelineDeps{Pages: &fakePages{pages: twoPages()}, Details: &fakeDetails{}, Embedder: embedder, Clusterer: &fakeClusterer{}})

	res := p.Run(context.Background(), mustQuery(t, 2), RunOptions{
		ModelPath:    "model.db",
		Train:        true,
		TrainedModel: "model-trained",
		Observer:     observer,
	})

	require.Equal(t, domain.StatusDone, res.Status, "%v", res.Err)
	assert.Contains(t, observer.stages, domain.StageTraining)
	assert.Len(t, embedder.trained, 9)
	assert.Equal(t, "model-trained", embedder.output)
	assert.Equal(t, 1, embedder.loadCalls)
}

func TestPipelineCancellationBound(t *testing.T) {
	t.Parallel()

	const workers = 2
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pages := map[int][]domain.ResultRef{}
	for i := 0; i < 10; i++ {
		pages[i] = refs(fmt.Sprintf("p%d", i), i)
	}
	src := &fakePages{pages: pages}
	src.onFetch = func(index int) {
		if index == 0 {
			cancel()
		}
		time.Sleep(20 * time.Millisecond)
	}

	p := NewPipeline(PipelineDeps{
		Pages: src, Details: &fakeDetails{}, Embedder: &fakeEmbedder{}, Clusterer: &fakeClusterer{},
		PageWorkers: workers,
	})

	res := p.Run(ctx, mustQuery(t, 10), RunOptions{})

	assert.Equal(t, domain.StatusAborted, res.Status)
	assert.Equal(t, domain.StageFetchingPages, res.Stage)
	assert.LessOrEqual(t, int(src.completed.Load()), workers)
	assert.Nil(t, res.Articles)
}

func TestPipelineCancellationBoundDuringExtraction(t *testing.T) {
	t.Parallel()

	const workers = 2
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var once sync.Once
	details := &fakeDetails{}
	details.onExtract = func(domain.ResultRef) {
		once.Do(cancel)
		time.Sleep(20 * time.Millisecond)
	}

	p := NewPipeline(PipelineDeps{
		Pages:         &fakePages{pages: map[int][]domain.ResultRef{0: refs("p0", 1, 2, 3, 4, 5, 6, 7, 8, 9, 10)}},
		Details:       details,
		Embedder:      &fakeEmbedder{},
		Clusterer:     &fakeClusterer{},
		PageWorkers:   1,
		DetailWorkers: workers,
	})

	res := p.Run(ctx, mustQuery(t, 1), RunOptions{})

	assert.Equal(t, domain.StatusAborted, res.Status)
	assert.Equal(t, domain.StageExtractingDetails, res.Stage)
	assert.LessOrEqual(t, int(details.completed.Load()), workers)
	assert.Nil(t, res.Articles)
}
