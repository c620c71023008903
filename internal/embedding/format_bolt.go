package embedding

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"go.etcd.io/bbolt"
)

var (
	bucketMeta    = []byte("meta")
	bucketVectors = []byte("vectors")
	bucketNgrams  = []byte("ngrams")

	keyDim         = []byte("dim")
	keyEpochs      = []byte("epochs")
	keyCorpusCount = []byte("corpus_count")
	keyMinN        = []byte("min_n")
	keyMaxN        = []byte("max_n")
)

const boltOpenTimeout = 2 * time.Second

// readBolt loads a model stored in the primary bbolt format.
func readBolt(path string) (*Model, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{ReadOnly: true, Timeout: boltOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("open model database: %w", err)
	}
	defer db.Close()

	var m *Model
	err = db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if meta == nil {
			return errors.New("meta bucket missing")
		}
		dim := int(getUint(meta, keyDim))
		if dim <= 0 {
			return fmt.Errorf("invalid dimension %d", dim)
		}

		m = NewModel(dim)
		if v := int(getUint(meta, keyEpochs)); v > 0 {
			m.epochs = v
		}
		m.corpusCount = int(getUint(meta, keyCorpusCount))
		if minN, maxN := int(getUint(meta, keyMinN)), int(getUint(meta, keyMaxN)); minN > 0 && maxN >= minN {
			m.minN, m.maxN = minN, maxN
		}

		vectors := tx.Bucket(bucketVectors)
		if vectors == nil {
			return errors.New("vectors bucket missing")
		}
		if err := vectors.ForEach(func(k, v []byte) error {
			vec, err := decodeVector(v, dim)
			if err != nil {
				return fmt.Errorf("word %q: %w", k, err)
			}
			m.words[string(k)] = vec
			return nil
		}); err != nil {
			return err
		}

		if ngrams := tx.Bucket(bucketNgrams); ngrams != nil {
			return ngrams.ForEach(func(k, v []byte) error {
				vec, err := decodeVector(v, dim)
				if err != nil {
					return fmt.Errorf("ngram %q: %w", k, err)
				}
				m.ngrams[string(k)] = vec
				return nil
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// writeBolt persists m to path, replacing any existing file atomically.
func writeBolt(path string, m *Model) error {
	tmp := path + ".tmp"
	_ = os.Remove(tmp)

	db, err := bbolt.Open(tmp, 0o600, &bbolt.Options{Timeout: boltOpenTimeout})
	if err != nil {
		return fmt.Errorf("create model database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucket(bucketMeta)
		if err != nil {
			return err
		}
		for key, val := range map[string]int{
			string(keyDim):         m.dim,
			string(keyEpochs):      m.epochs,
			string(keyCorpusCount): m.corpusCount,
			string(keyMinN):        m.minN,
			string(keyMaxN):        m.maxN,
		} {
			if err := putUint(meta, []byte(key), uint64(val)); err != nil {
				return err
			}
		}

		if err := putVectors(tx, bucketVectors, m.words); err != nil {
			return err
		}
		if len(m.ngrams) > 0 {
			return putVectors(tx, bucketNgrams, m.ngrams)
		}
		return nil
	})
	if closeErr := db.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write model database: %w", err)
	}

	return os.Rename(tmp, path)
}

func putVectors(tx *bbolt.Tx, name []byte, vectors map[string][]float64) error {
	b, err := tx.CreateBucket(name)
	if err != nil {
		return err
	}
	for word, vec := range vectors {
		if word == "" {
			continue
		}
		if err := b.Put([]byte(word), encodeVector(vec)); err != nil {
			return err
		}
	}
	return nil
}

func getUint(b *bbolt.Bucket, key []byte) uint64 {
	v := b.Get(key)
	if len(v) != 8 {
		return 0
	}
	return binary.LittleEndian.Uint64(v)
}

func putUint(b *bbolt.Bucket, key []byte, v uint64) error {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	return b.Put(key, buf)
}

// encodeVector packs vec as little-endian float32 values.
func encodeVector(vec []float64) []byte {
	buf := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(float32(f)))
	}
	return buf
}

func decodeVector(buf []byte, dim int) ([]float64, error) {
	if len(buf) != 4*dim {
		return nil, fmt.Errorf("vector has %d bytes, want %d", len(buf), 4*dim)
	}
	vec := make([]float64, dim)
	for i := range vec {
		vec[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:])))
	}
	return vec, nil
}
