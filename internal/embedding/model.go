package embedding

import (
	"gonum.org/v1/gonum/floats"
)

const (
	defaultMinN   = 3
	defaultMaxN   = 6
	defaultEpochs = 5
)

// Model maps words to fixed-dimension vectors. Out-of-vocabulary words are
// composed from character n-gram vectors when the model carries them.
// A Model is never mutated after it has been published by a Service.
type Model struct {
	dim         int
	words       map[string][]float64
	ngrams      map[string][]float64
	minN        int
	maxN        int
	epochs      int
	corpusCount int
}

// NewModel returns an empty model of the given dimension.
func NewModel(dim int) *Model {
	return &Model{
		dim:    dim,
		words:  make(map[string][]float64),
		ngrams: make(map[string][]float64),
		minN:   defaultMinN,
		maxN:   defaultMaxN,
		epochs: defaultEpochs,
	}
}

func (m *Model) Dim() int         { return m.dim }
func (m *Model) VocabSize() int   { return len(m.words) }
func (m *Model) Epochs() int      { return m.epochs }
func (m *Model) CorpusCount() int { return m.corpusCount }

// SetWord stores a copy of vec under word. Vectors of the wrong size are ignored.
func (m *Model) SetWord(word string, vec []float64) {
	if len(vec) != m.dim {
		return
	}
	m.words[word] = append([]float64(nil), vec...)
}

// SetNgram stores a copy of vec under a character n-gram.
func (m *Model) SetNgram(gram string, vec []float64) {
	if len(vec) != m.dim {
		return
	}
	m.ngrams[gram] = append([]float64(nil), vec...)
}

// Has reports whether word is in the vocabulary proper.
func (m *Model) Has(word string) bool {
	_, ok := m.words[word]
	return ok
}

// Vector returns the raw vector of word. The result must not be modified.
func (m *Model) Vector(word string) ([]float64, bool) {
	if v, ok := m.words[word]; ok {
		return v, true
	}
	return m.subwordVector(word)
}

// UnitVector returns a fresh unit-length copy of word's vector.
// ok is false for unknown words and for zero vectors.
func (m *Model) UnitVector(word string) ([]float64, bool) {
	v, ok := m.Vector(word)
	if !ok {
		return nil, false
	}
	n := floats.Norm(v, 2)
	if n == 0 {
		return nil, false
	}
	out := make([]float64, len(v))
	floats.ScaleTo(out, 1/n, v)
	return out, true
}

func (m *Model) subwordVector(word string) ([]float64, bool) {
	if len(m.ngrams) == 0 {
		return nil, false
	}
	sum := make([]float64, m.dim)
	found := 0
	for _, g := range charNgrams(word, m.minN, m.maxN) {
		if v, ok := m.ngrams[g]; ok {
			floats.Add(sum, v)
			found++
		}
	}
	if found == 0 {
		return nil, false
	}
	floats.Scale(1/float64(found), sum)
	return sum, true
}

// charNgrams lists the rune n-grams of "<word>" for n in [minN, maxN].
func charNgrams(word string, minN, maxN int) []string {
	runes := []rune("<" + word + ">")
	var out []string
	for n := minN; n <= maxN; n++ {
		for i := 0; i+n <= len(runes); i++ {
			out = append(out, string(runes[i:i+n]))
		}
	}
	return out
}

func (m *Model) clone() *Model {
	c := &Model{
		dim:         m.dim,
		words:       make(map[string][]float64, len(m.words)),
		ngrams:      make(map[string][]float64, len(m.ngrams)),
		minN:        m.minN,
		maxN:        m.maxN,
		epochs:      m.epochs,
		corpusCount: m.corpusCount,
	}
	for w, v := range m.words {
		c.words[w] = append([]float64(nil), v...)
	}
	for g, v := range m.ngrams {
		c.ngrams[g] = append([]float64(nil), v...)
	}
	return c
}

// sumUnit adds the unit vectors of all resolvable words and normalizes the sum.
func (m *Model) sumUnit(words []string) []float64 {
	sum := make([]float64, m.dim)
	for _, w := range words {
		if v, ok := m.UnitVector(w); ok {
			floats.Add(sum, v)
		}
	}
	normalizeInPlace(sum)
	return sum
}

// normalizeInPlace scales v to unit length; the zero vector is left untouched.
func normalizeInPlace(v []float64) {
	n := floats.Norm(v, 2)
	if n == 0 {
		return
	}
	floats.Scale(1/n, v)
}
