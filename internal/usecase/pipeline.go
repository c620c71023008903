package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"NewsAnalyzer/internal/domain"
	"NewsAnalyzer/internal/ports"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Pages     ports.PageSource
	Details   ports.DetailSource
	Embedder  ports.Embedder
	Clusterer ports.Clusterer
	Archive   ports.RunArchive
	Logger    *slog.Logger

	PageWorkers   int
	DetailWorkers int
	EmbedWorkers  int
}

// Pipeline implements the crawl → extract → embed → cluster run.
type Pipeline struct {
	pages     ports.PageSource
	details   ports.DetailSource
	embedder  ports.Embedder
	clusterer ports.Clusterer
	archive   ports.RunArchive
	logger    *slog.Logger

	pageWorkers   int
	detailWorkers int
	embedWorkers  int
}

// RunOptions carries the per-run settings supplied by the caller.
type RunOptions struct {
	ModelPath    string
	Train        bool
	TrainedModel string
	Observer     ports.ProgressObserver
}

// Result is the terminal outcome of a run. Articles and Clusters are only
// populated when Status is domain.StatusDone.
type Result struct {
	ID       string
	Status   domain.RunStatus
	Stage    domain.Stage
	Err      error
	Progress domain.Progress
	Articles []domain.Article
	Clusters []domain.Cluster
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		pages:         deps.Pages,
		details:       deps.Details,
		embedder:      deps.Embedder,
		clusterer:     deps.Clusterer,
		archive:       deps.Archive,
		logger:        logger,
		pageWorkers:   atLeastOne(deps.PageWorkers),
		detailWorkers: atLeastOne(deps.DetailWorkers),
		embedWorkers:  atLeastOne(deps.EmbedWorkers),
	}
}

type run struct {
	*Pipeline
	id       string
	query    domain.SearchQuery
	opts     RunOptions
	progress *progressTracker
	stage    domain.Stage
	started  time.Time
}

// Run executes one complete pipeline pass. Cancelling ctx is the stop
// signal: it is polled between units of work and the run ends Aborted.
func (p *Pipeline) Run(ctx context.Context, query domain.SearchQuery, opts RunOptions) Result {
	r := &run{
		Pipeline: p,
		id:       uuid.NewString(),
		query:    query,
		opts:     opts,
		progress: newProgressTracker(opts.Observer),
		stage:    domain.StageIdle,
		started:  time.Now().UTC(),
	}
	return r.execute(ctx)
}

func (r *run) execute(ctx context.Context) Result {
	if ctx.Err() != nil {
		return r.aborted()
	}

	r.enter(domain.StageFetchingPages, r.query.Pages)
	pages, err := r.fetchPages(ctx)
	if err != nil {
		return r.fail(ctx, err)
	}

	r.enter(domain.StageDeduplicating, 0)
	refs := Deduplicate(pages)
	r.logger.Info("references deduplicated", "run", r.id, "unique", len(refs))
	if ctx.Err() != nil {
		return r.aborted()
	}

	r.enter(domain.StageExtractingDetails, len(refs))
	articles, err := r.extractDetails(ctx, refs)
	if err != nil {
		return r.fail(ctx, err)
	}

	if len(articles) == 0 {
		r.logger.Info("no articles extracted", "run", r.id)
		return r.done(ctx, nil, nil)
	}

	if r.opts.Train {
		r.enter(domain.StageTraining, 1)
		if err := r.train(ctx, articles); err != nil {
			return r.fail(ctx, err)
		}
		if ctx.Err() != nil {
			return r.aborted()
		}
	}

	r.enter(domain.StageEmbedding, len(articles))
	if err := r.ensureModel(); err != nil {
		return r.fail(ctx, err)
	}
	if err := r.embed(ctx, articles); err != nil {
		return r.fail(ctx, err)
	}

	r.enter(domain.StageClustering, len(articles))
	clusters, err := r.clusterer.Cluster(articles)
	if err != nil {
		return r.fail(ctx, fmt.Errorf("cluster articles: %w", err))
	}

	return r.done(ctx, articles, clusters)
}

func (r *run) fetchPages(ctx context.Context) ([][]domain.ResultRef, error) {
	terms := r.query.Terms()
	pages := make([][]domain.ResultRef, r.query.Pages)

	err := fanOut(ctx, r.query.Pages, r.pageWorkers, func(unitCtx context.Context, i int) error {
		refs, err := r.pages.FetchPage(unitCtx, terms, i)
		if err != nil {
			return fmt.Errorf("fetch page %d: %w", i, err)
		}
		pages[i] = refs
		r.progress.advance()
		return nil
	})
	return pages, err
}

func (r *run) extractDetails(ctx context.Context, refs []domain.ResultRef) ([]domain.Article, error) {
	slots := make([]*domain.Article, len(refs))

	err := fanOut(ctx, len(refs), r.detailWorkers, func(unitCtx context.Context, i int) error {
		article, err := r.details.Extract(unitCtx, refs[i])
		switch {
		case errors.Is(err, domain.ErrExtractionSkipped):
			r.logger.Debug("article skipped", "run", r.id, "url", refs[i].DetailURL, "reason", err)
		case err != nil:
			return fmt.Errorf("extract %s: %w", refs[i].DetailURL, err)
		default:
			slots[i] = &article
		}
		r.progress.advance()
		return nil
	})
	if err != nil {
		return nil, err
	}

	articles := make([]domain.Article, 0, len(slots))
	for _, a := range slots {
		if a != nil {
			articles = append(articles, *a)
		}
	}
	return articles, nil
}

func (r *run) train(ctx context.Context, articles []domain.Article) error {
	if err := r.ensureModel(); err != nil {
		return err
	}

	var sentences [][]string
	for _, a := range articles {
		sentences = append(sentences, a.Document.Sentences...)
	}

	if err := r.embedder.Update(ctx, sentences, r.opts.TrainedModel); err != nil {
		return fmt.Errorf("update model: %w", err)
	}
	r.progress.advance()
	return nil
}

func (r *run) ensureModel() error {
	if r.embedder.Loaded() {
		return nil
	}
	if err := r.embedder.Load(r.opts.ModelPath); err != nil {
		return err
	}
	return nil
}

func (r *run) embed(ctx context.Context, articles []domain.Article) error {
	return fanOut(ctx, len(articles), r.embedWorkers, func(_ context.Context, i int) error {
		vec, err := r.embedder.Embed(articles[i])
		if err != nil {
			return fmt.Errorf("embed %s: %w", articles[i].DetailURL, err)
		}
		articles[i].Vector = vec
		r.progress.advance()
		return nil
	})
}

// fanOut runs work(i) for i in [0,n) on at most limit goroutines. ctx is
// checked before dispatching and before starting each unit; a unit that has
// started runs to completion on a context detached from cancellation. The
// first unit error stops further dispatch.
func fanOut(ctx context.Context, n, limit int, work func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	unitCtx := context.WithoutCancel(ctx)

	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			return work(unitCtx, i)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (r *run) enter(stage domain.Stage, target int) {
	r.stage = stage
	r.logger.Info("stage started", "run", r.id, "stage", stage, "target", target)
	r.progress.enter(stage, target)
}

func (r *run) aborted() Result {
	res := Result{
		ID:       r.id,
		Status:   domain.StatusAborted,
		Stage:    r.stage,
		Progress: r.progress.snapshot(),
	}
	r.logger.Info("run stopped", "run", r.id, "stage", r.stage)
	r.progress.enter(domain.StageAborted, 0)
	return res
}

// fail maps an error to the terminal state; a pending cancellation wins.
func (r *run) fail(ctx context.Context, err error) Result {
	if ctx.Err() != nil {
		return r.aborted()
	}
	res := Result{
		ID:       r.id,
		Status:   domain.StatusFailed,
		Stage:    r.stage,
		Err:      err,
		Progress: r.progress.snapshot(),
	}
	r.logger.Error("run failed", "run", r.id, "stage", r.stage, "error", err)
	r.progress.enter(domain.StageFailed, 0)
	return res
}

func (r *run) done(ctx context.Context, articles []domain.Article, clusters []domain.Cluster) Result {
	res := Result{
		ID:       r.id,
		Status:   domain.StatusDone,
		Stage:    r.stage,
		Progress: r.progress.snapshot(),
		Articles: articles,
		Clusters: clusters,
	}

	if r.archive != nil {
		record := ports.RunRecord{
			ID:         r.id,
			StartedAt:  r.started,
			FinishedAt: time.Now().UTC(),
			Query:      r.query,
			Status:     domain.StatusDone,
			Clusters:   clusters,
		}
		if err := r.archive.SaveRun(context.WithoutCancel(ctx), record); err != nil {
			r.logger.Warn("archive run failed", "run", r.id, "error", err)
		}
	}

	r.logger.Info("run finished", "run", r.id, "articles", len(articles), "clusters", len(clusters))
	r.progress.enter(domain.StageDone, 0)
	return res
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
