package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"gonum.org/v1/gonum/floats"

	"NewsAnalyzer/internal/config"
	"NewsAnalyzer/internal/domain"
	"NewsAnalyzer/internal/normalize"
)

// DefaultTitleWeight is the share of the title vector in an article vector.
const DefaultTitleWeight = 0.2

// ModelExt is appended to trained model names given without an extension.
const ModelExt = ".db"

// Service owns the process-wide embedding model. Embed may be called from
// many goroutines; Load and Update swap the model wholesale.
type Service struct {
	mu     sync.RWMutex
	model  *Model
	path   string
	weight float64
	logger *slog.Logger
}

// NewService creates a service with no model loaded.
func NewService(cfg config.EmbeddingConfig, logger *slog.Logger) *Service {
	weight := cfg.TitleWeight
	if weight < 0 || weight > 1 {
		weight = DefaultTitleWeight
	}
	return &Service{weight: weight, logger: logger}
}

// Load reads the model at path, trying the bbolt format first and the
// legacy text format second. Failure of both yields a *domain.ModelError.
func (s *Service) Load(path string) error {
	if path == "" {
		return &domain.ModelError{Path: path, Err: errors.New("no model path configured")}
	}

	m, boltErr := readBolt(path)
	if boltErr != nil {
		var vecErr error
		m, vecErr = readVec(path)
		if vecErr != nil {
			return &domain.ModelError{Path: path, Err: errors.Join(boltErr, vecErr)}
		}
		s.debug("model loaded from legacy text format", "path", path)
	}

	s.mu.Lock()
	s.model = m
	s.path = path
	s.mu.Unlock()

	s.info("model loaded", "path", path, "dim", m.Dim(), "vocab", m.VocabSize())
	return nil
}

// Loaded reports whether a model is available.
func (s *Service) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model != nil
}

// Path returns the file the current model came from or was saved to.
func (s *Service) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

// Embed reduces an article to one unit vector: a weighted mix of the title
// vector and the document vector. Words the model cannot resolve are
// ignored; an article with none yields the zero vector.
func (s *Service) Embed(article domain.Article) ([]float64, error) {
	s.mu.RLock()
	m := s.model
	s.mu.RUnlock()
	if m == nil {
		return nil, domain.ErrModelNotLoaded
	}

	title := m.sumUnit(normalize.TitleWords(article.Title))

	doc := make([]float64, m.Dim())
	for _, sentence := range article.Document.Sentences {
		floats.Add(doc, m.sumUnit(sentence))
	}
	normalizeInPlace(doc)

	out := make([]float64, m.Dim())
	floats.AddScaled(out, s.weight, title)
	floats.AddScaled(out, 1-s.weight, doc)
	normalizeInPlace(out)
	return out, nil
}

// Update extends a copy of the current model with the vocabulary of
// sentences, retrains it and persists it under outputName before swapping
// it in. An empty outputName keeps the result in memory only.
func (s *Service) Update(ctx context.Context, sentences [][]string, outputName string) error {
	s.mu.RLock()
	current, currentPath := s.model, s.path
	s.mu.RUnlock()
	if current == nil {
		return &domain.ModelError{Path: currentPath, Err: domain.ErrModelNotLoaded}
	}

	next := current.clone()
	added := extendVocab(next, sentences)
	if err := train(ctx, next, sentences); err != nil {
		if ctx.Err() != nil {
			return err
		}
		return &domain.ModelError{Path: currentPath, Err: fmt.Errorf("train: %w", err)}
	}

	path := currentPath
	if outputName != "" {
		path = trainedPath(currentPath, outputName)
		if err := writeBolt(path, next); err != nil {
			return &domain.ModelError{Path: path, Err: err}
		}
	}

	s.mu.Lock()
	s.model = next
	s.path = path
	s.mu.Unlock()

	s.info("model updated", "path", path, "new_words", added, "vocab", next.VocabSize(), "corpus", next.CorpusCount())
	return nil
}

// trainedPath places a bare output name next to the source model.
func trainedPath(source, name string) string {
	if filepath.Ext(name) == "" {
		name += ModelExt
	}
	if filepath.IsAbs(name) || filepath.Dir(name) != "." {
		return name
	}
	return filepath.Join(filepath.Dir(source), name)
}

func (s *Service) info(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Service) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
