package clustering

import (
	"errors"
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/mat"

	"NewsAnalyzer/internal/config"
	"NewsAnalyzer/internal/domain"
)

// ErrNoArticles is returned for an empty batch.
var ErrNoArticles = errors.New("no articles to cluster")

// Engine groups embedded articles with HDBSCAN over Euclidean distance.
type Engine struct {
	minClusterSize     int
	minSamples         int
	allowSingleCluster bool
	logger             *slog.Logger
}

// NewEngine creates an engine. minClusterSize below 2 is raised to 2 and
// a non-positive minSamples falls back to minClusterSize.
func NewEngine(cfg config.ClusteringConfig, logger *slog.Logger) *Engine {
	mcs := max(cfg.MinClusterSize, 2)
	ms := cfg.MinSamples
	if ms <= 0 {
		ms = mcs
	}
	return &Engine{
		minClusterSize:     mcs,
		minSamples:         ms,
		allowSingleCluster: cfg.SingleClusterAllowed(),
		logger:             logger,
	}
}

// Cluster partitions articles. Group i holds the articles labelled i, in
// input order; the last group always holds the noise articles.
func (e *Engine) Cluster(articles []domain.Article) ([]domain.Cluster, error) {
	if len(articles) == 0 {
		return nil, ErrNoArticles
	}

	data, err := vectorMatrix(articles)
	if err != nil {
		return nil, err
	}

	labels := hdbscan(data, e.minClusterSize, e.minSamples, e.allowSingleCluster)
	groups := group(articles, labels)

	if e.logger != nil {
		e.logger.Info("articles clustered",
			"articles", len(articles),
			"clusters", len(groups)-1,
			"noise", len(groups[len(groups)-1].Articles))
	}
	return groups, nil
}

func vectorMatrix(articles []domain.Article) (*mat.Dense, error) {
	dim := len(articles[0].Vector)
	if dim == 0 {
		return nil, fmt.Errorf("article %s has no vector", articles[0].DetailURL)
	}

	data := mat.NewDense(len(articles), dim, nil)
	for i, a := range articles {
		if len(a.Vector) != dim {
			return nil, fmt.Errorf("article %s: vector dimension %d, want %d", a.DetailURL, len(a.Vector), dim)
		}
		data.SetRow(i, a.Vector)
	}
	return data, nil
}

func group(articles []domain.Article, labels []int) []domain.Cluster {
	k := 0
	for _, l := range labels {
		k = max(k, l+1)
	}

	groups := make([]domain.Cluster, k+1)
	for i := 0; i < k; i++ {
		groups[i].ID = i
	}
	groups[k].ID = domain.NoiseLabel

	for i, a := range articles {
		if l := labels[i]; l >= 0 {
			groups[l].Articles = append(groups[l].Articles, a)
		} else {
			groups[k].Articles = append(groups[k].Articles, a)
		}
	}
	return groups
}
