package embedding

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const maxVecLine = 1 << 20

// readVec loads the legacy word2vec/fastText text format: an optional
// "<count> <dim>" header followed by one "word v1 ... vd" line per word.
func readVec(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vector file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxVecLine)

	var (
		m      *Model
		lineNo int
	)
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}

		if m == nil {
			if dim, ok := parseHeader(fields); ok {
				m = NewModel(dim)
				continue
			}
			if len(fields) < 2 {
				return nil, fmt.Errorf("line %d: no vector components", lineNo)
			}
			m = NewModel(len(fields) - 1)
		}

		if len(fields) != m.dim+1 {
			return nil, fmt.Errorf("line %d: got %d components, want %d", lineNo, len(fields)-1, m.dim)
		}
		vec := make([]float64, m.dim)
		for i, s := range fields[1:] {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			vec[i] = v
		}
		m.words[fields[0]] = vec
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read vector file: %w", err)
	}
	if m == nil || len(m.words) == 0 {
		return nil, errors.New("vector file holds no words")
	}
	return m, nil
}

func parseHeader(fields []string) (int, bool) {
	if len(fields) != 2 {
		return 0, false
	}
	if _, err := strconv.Atoi(fields[0]); err != nil {
		return 0, false
	}
	dim, err := strconv.Atoi(fields[1])
	if err != nil || dim <= 0 {
		return 0, false
	}
	return dim, true
}
