package embedding

import (
	"context"
	"hash/fnv"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

const (
	trainWindow = 5
	startAlpha  = 0.025
	minAlpha    = 0.0001
)

// extendVocab adds every unseen word of sentences to m. New words start from
// their subword vector when one exists, otherwise from a small deterministic
// random vector. It returns the number of words added.
func extendVocab(m *Model, sentences [][]string) int {
	added := 0
	for _, sentence := range sentences {
		for _, w := range sentence {
			if w == "" || m.Has(w) {
				continue
			}
			if v, ok := m.subwordVector(w); ok {
				m.words[w] = v
			} else {
				m.words[w] = seedVector(w, m.dim)
			}
			added++
		}
	}
	return added
}

func seedVector(word string, dim int) []float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(word))
	rng := rand.New(rand.NewPCG(h.Sum64(), uint64(dim)))

	v := make([]float64, dim)
	scale := 1 / float64(dim)
	for i := range v {
		v[i] = (rng.Float64() - 0.5) * scale
	}
	return v
}

// train pulls every word toward the mean of its context window for m.epochs
// passes over sentences, with a learning rate decaying linearly from
// startAlpha to minAlpha. Only words of the corpus move.
func train(ctx context.Context, m *Model, sentences [][]string) error {
	epochs := m.epochs
	if epochs < 1 {
		epochs = defaultEpochs
	}

	total := epochs * len(sentences)
	if total == 0 {
		return nil
	}

	mean := make([]float64, m.dim)
	step := 0
	for epoch := 0; epoch < epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, sentence := range sentences {
			alpha := startAlpha - (startAlpha-minAlpha)*float64(step)/float64(total)
			step++

			for i, w := range sentence {
				target, ok := m.words[w]
				if !ok {
					continue
				}
				if !contextMean(m, sentence, i, mean) {
					continue
				}
				floats.Sub(mean, target)
				floats.AddScaled(target, alpha, mean)
			}
		}
	}

	m.corpusCount += len(sentences)
	return nil
}

// contextMean writes the mean vector of the words around position i into dst.
func contextMean(m *Model, sentence []string, i int, dst []float64) bool {
	for k := range dst {
		dst[k] = 0
	}
	lo, hi := max(0, i-trainWindow), min(len(sentence), i+trainWindow+1)

	n := 0
	for j := lo; j < hi; j++ {
		if j == i {
			continue
		}
		if v, ok := m.words[sentence[j]]; ok {
			floats.Add(dst, v)
			n++
		}
	}
	if n == 0 {
		return false
	}
	floats.Scale(1/float64(n), dst)
	return true
}
