package embedding

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"NewsAnalyzer/internal/config"
	"NewsAnalyzer/internal/domain"
)

const testVec = `2 3
a 1 0 0
b 0 1 0
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func article(title string, sentences ...[]string) domain.Article {
	return domain.Article{Title: title, Document: domain.NewDocument(sentences)}
}

func TestEmbedCombinesTitleAndDocument(t *testing.T) {
	t.Parallel()

	svc := NewService(config.EmbeddingConfig{TitleWeight: 0.2}, nil)
	require.NoError(t, svc.Load(writeFile(t, "model.vec", testVec)))

	vec, err := svc.Embed(article("a b", []string{"a"}, []string{"b"}))
	require.NoError(t, err)

	want := []float64{1 / math.Sqrt2, 1 / math.Sqrt2, 0}
	assert.InDeltaSlice(t, want, vec, 1e-9)
	assert.InDelta(t, 1, floats.Norm(vec, 2), 1e-9)
}

func TestEmbedWeighting(t *testing.T) {
	t.Parallel()

	svc := NewService(config.EmbeddingConfig{TitleWeight: 0.2}, nil)
	require.NoError(t, svc.Load(writeFile(t, "model.vec", testVec)))

	vec, err := svc.Embed(article("a", []string{"b"}))
	require.NoError(t, err)

	// 0.2*(1,0,0) + 0.8*(0,1,0), normalized
	n := math.Hypot(0.2, 0.8)
	assert.InDeltaSlice(t, []float64{0.2 / n, 0.8 / n, 0}, vec, 1e-9)
}

func TestEmbedUnresolvableIsZero(t *testing.T) {
	t.Parallel()

	svc := NewService(config.EmbeddingConfig{TitleWeight: 0.2}, nil)
	require.NoError(t, svc.Load(writeFile(t, "model.vec", testVec)))

	vec, err := svc.Embed(article("?? !!", []string{"없는", "단어"}))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, vec)

	vec, err = svc.Embed(article("", []string{"x", "a"}))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 0, 0}, vec, 1e-9)
}

func TestEmbedWithoutModel(t *testing.T) {
	t.Parallel()

	svc := NewService(config.EmbeddingConfig{}, nil)
	_, err := svc.Embed(article("a"))
	assert.ErrorIs(t, err, domain.ErrModelNotLoaded)
	assert.False(t, svc.Loaded())
}

func TestLoadPrimaryFormat(t *testing.T) {
	t.Parallel()

	m := NewModel(2)
	m.SetWord("반도체", []float64{3, 4})
	m.SetNgram("<반도", []float64{0, 2})
	m.epochs = 7
	m.corpusCount = 42

	path := filepath.Join(t.TempDir(), "model.db")
	require.NoError(t, writeBolt(path, m))

	svc := NewService(config.EmbeddingConfig{TitleWeight: 0.2}, nil)
	require.NoError(t, svc.Load(path))
	assert.Equal(t, path, svc.Path())

	loaded := svc.model
	assert.Equal(t, 2, loaded.Dim())
	assert.Equal(t, 7, loaded.Epochs())
	assert.Equal(t, 42, loaded.CorpusCount())

	v, ok := loaded.UnitVector("반도체")
	require.True(t, ok)
	assert.InDeltaSlice(t, []float64{0.6, 0.8}, v, 1e-6)

	// out-of-vocabulary word resolved through its n-grams
	v, ok = loaded.UnitVector("반도")
	require.True(t, ok)
	assert.InDeltaSlice(t, []float64{0, 1}, v, 1e-6)
}

func TestLoadInvalidModel(t *testing.T) {
	t.Parallel()

	svc := NewService(config.EmbeddingConfig{}, nil)

	for name, path := range map[string]string{
		"missing": filepath.Join(t.TempDir(), "nope.db"),
		"garbage": writeFile(t, "broken.bin", "this is not a model\n"),
		"ragged":  writeFile(t, "ragged.vec", "a 1 0\nb 1\n"),
		"empty":   "",
	} {
		err := svc.Load(path)
		assert.True(t, domain.IsModel(err), "%s: %v", name, err)
	}
	assert.False(t, svc.Loaded())
}

func TestUpdatePersistsAndSwaps(t *testing.T) {
	t.Parallel()

	src := writeFile(t, "base.vec", testVec)
	svc := NewService(config.EmbeddingConfig{TitleWeight: 0.2}, nil)
	require.NoError(t, svc.Load(src))

	sentences := [][]string{{"a", "새단어", "b"}, {"새단어", "a"}}
	require.NoError(t, svc.Update(context.Background(), sentences, "trained"))

	want := filepath.Join(filepath.Dir(src), "trained"+ModelExt)
	assert.Equal(t, want, svc.Path())
	assert.True(t, svc.model.Has("새단어"))
	assert.Equal(t, 2, svc.model.CorpusCount())

	vec, err := svc.Embed(article("새단어"))
	require.NoError(t, err)
	assert.InDelta(t, 1, floats.Norm(vec, 2), 1e-9)

	reloaded := NewService(config.EmbeddingConfig{}, nil)
	require.NoError(t, reloaded.Load(want))
	assert.Equal(t, 3, reloaded.model.VocabSize())
	assert.Equal(t, 2, reloaded.model.CorpusCount())
}

func TestUpdateCancelled(t *testing.T) {
	t.Parallel()

	svc := NewService(config.EmbeddingConfig{}, nil)
	require.NoError(t, svc.Load(writeFile(t, "base.vec", testVec)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := svc.Update(ctx, [][]string{{"a", "b"}}, "trained")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, svc.model.Has("trained"))
	assert.Equal(t, 0, svc.model.CorpusCount())
}

func TestTrainedPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, filepath.Join("models", "next.db"), trainedPath(filepath.Join("models", "base.bin"), "next"))
	assert.Equal(t, filepath.Join("out", "next.vec"), trainedPath("models/base.bin", filepath.Join("out", "next.vec")))
}
