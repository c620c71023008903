package ports

import (
	"context"
	"time"

	"NewsAnalyzer/internal/domain"
)

// PageSource fetches one search-result page and returns its linkable items.
type PageSource interface {
	FetchPage(ctx context.Context, terms string, index int) ([]domain.ResultRef, error)
}

// DetailSource turns a listing reference into a full article.
// It returns domain.ErrExtractionSkipped when the page lacks the expected structure.
type DetailSource interface {
	Extract(ctx context.Context, ref domain.ResultRef) (domain.Article, error)
}

// Embedder owns the process-wide word-embedding model.
type Embedder interface {
	Load(path string) error
	Loaded() bool
	Embed(article domain.Article) ([]float64, error)
	Update(ctx context.Context, sentences [][]string, outputName string) error
}

// Clusterer partitions embedded articles; the noise group is always last.
type Clusterer interface {
	Cluster(articles []domain.Article) ([]domain.Cluster, error)
}

// ProgressObserver receives stage transitions and progress snapshots.
// Calls happen synchronously on worker goroutines and must not block.
type ProgressObserver interface {
	StageChanged(stage domain.Stage)
	ProgressChanged(p domain.Progress)
}

// RunRecord is the archived summary of a completed run.
type RunRecord struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Query      domain.SearchQuery
	Status     domain.RunStatus
	Clusters   []domain.Cluster
}

// RunSummary is one row of the archive listing.
type RunSummary struct {
	ID           string
	StartedAt    time.Time
	Terms        string
	Pages        int
	Status       domain.RunStatus
	ArticleCount int
	ClusterCount int
}

// RunArchive records finished runs for later review.
type RunArchive interface {
	SaveRun(ctx context.Context, run RunRecord) error
	RecentRuns(ctx context.Context, limit int) ([]RunSummary, error)
}

// Scheduler triggers recurring jobs until stopped.
type Scheduler interface {
	Start(ctx context.Context, job func(ctx context.Context, trigger time.Time)) error
	Stop(ctx context.Context) error
}
