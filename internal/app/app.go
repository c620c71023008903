package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"

	"NewsAnalyzer/internal/clustering"
	"NewsAnalyzer/internal/config"
	"NewsAnalyzer/internal/domain"
	"NewsAnalyzer/internal/embedding"
	"NewsAnalyzer/internal/infrastructure/parser"
	"NewsAnalyzer/internal/infrastructure/scheduler"
	"NewsAnalyzer/internal/infrastructure/storage"
	"NewsAnalyzer/internal/logging"
	"NewsAnalyzer/internal/ports"
	"NewsAnalyzer/internal/usecase"
)

// ErrArchiveDisabled is returned by History when no archive is configured.
var ErrArchiveDisabled = errors.New("run archive is disabled")

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	embedder *embedding.Service
	archive  *storage.SQLiteArchive
}

// New builds a runnable application instance.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format, nil)
	}

	client := &http.Client{Timeout: cfg.Search.Timeout}
	pages := parser.NewSearchPageFetcher(client, cfg.Search, baseLogger.With("component", "parser.search"))
	details := parser.NewDetailExtractor(client, cfg.Search, baseLogger.With("component", "parser.detail"))
	embedder := embedding.NewService(cfg.Embedding, baseLogger.With("component", "embedding"))
	engine := clustering.NewEngine(cfg.Clustering, baseLogger.With("component", "clustering"))

	var (
		archive    *storage.SQLiteArchive
		runArchive ports.RunArchive
	)
	if !cfg.Archive.Disabled && cfg.Archive.Path != "" {
		var err error
		archive, err = storage.OpenSQLiteArchive(ctx, cfg.Archive.Path)
		if err != nil {
			return nil, fmt.Errorf("open run archive: %w", err)
		}
		runArchive = archive
	}

	logical, physical := processorCounts(baseLogger)
	workers := cfg.Workers
	if workers.Pages <= 0 {
		workers.Pages = logical
	}
	if workers.Details <= 0 {
		workers.Details = physical
	}
	if workers.Embed <= 0 {
		workers.Embed = logical
	}
	baseLogger.Debug("worker pools sized", "pages", workers.Pages, "details", workers.Details, "embed", workers.Embed)

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Pages:         pages,
		Details:       details,
		Embedder:      embedder,
		Clusterer:     engine,
		Archive:       runArchive,
		Logger:        baseLogger.With("component", "pipeline"),
		PageWorkers:   workers.Pages,
		DetailWorkers: workers.Details,
		EmbedWorkers:  workers.Embed,
	})

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		pipeline: pipeline,
		embedder: embedder,
		archive:  archive,
	}, nil
}

// Query builds the search query from the configured keywords and page budget.
func (a *Application) Query() (domain.SearchQuery, error) {
	return domain.NewSearchQuery(a.cfg.Keywords.Include, a.cfg.Keywords.Exclude, a.cfg.Search.Pages, a.cfg.Search.MaxPages)
}

// Run performs a single pipeline execution. Cancelling ctx stops the run.
func (a *Application) Run(ctx context.Context, query domain.SearchQuery, observer ports.ProgressObserver) usecase.Result {
	return a.pipeline.Run(ctx, query, a.runOptions(observer))
}

// Schedule repeats query every interval until the returned scheduler is
// stopped. Each finished run is passed to onResult.
func (a *Application) Schedule(every time.Duration, query domain.SearchQuery, onResult func(time.Time, usecase.Result)) *usecase.Scheduler {
	return usecase.NewScheduler(scheduler.NewIntervalScheduler(every), a.pipeline, query, a.runOptions(nil), onResult)
}

func (a *Application) runOptions(observer ports.ProgressObserver) usecase.RunOptions {
	return usecase.RunOptions{
		ModelPath:    a.cfg.Embedding.ModelPath,
		Train:        a.cfg.Embedding.Train,
		TrainedModel: a.cfg.Embedding.TrainedModel,
		Observer:     observer,
	}
}

// History lists the most recent archived runs.
func (a *Application) History(ctx context.Context, limit int) ([]ports.RunSummary, error) {
	if a.archive == nil {
		return nil, ErrArchiveDisabled
	}
	return a.archive.RecentRuns(ctx, limit)
}

// Close releases the archive handle.
func (a *Application) Close() error {
	if a.archive == nil {
		return nil
	}
	return a.archive.Close()
}

// processorCounts returns logical and physical processor counts; page
// fetches default to the former, detail extraction to the latter.
func processorCounts(logger *slog.Logger) (int, int) {
	logical, err := cpu.Counts(true)
	if err != nil || logical < 1 {
		logger.Debug("logical cpu count unavailable", "error", err)
		logical = runtime.NumCPU()
	}
	physical, err := cpu.Counts(false)
	if err != nil || physical < 1 {
		logger.Debug("physical cpu count unavailable", "error", err)
		physical = logical
	}
	return logical, physical
}
