package profiler

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// VectorTable is a static word-vector embedder. Phrase vectors are the mean
// of the known word vectors; text without any known word has no vector.
type VectorTable struct {
	words map[string][]float32
	dim   int
	id    string
}

// NewVectorTable builds a table from an in-memory word map. Keys are
// normalized like vocabulary terms; vectors of the wrong dimension are dropped.
func NewVectorTable(id string, words map[string][]float32) *VectorTable {
	t := &VectorTable{words: make(map[string][]float32, len(words)), id: id}
	for w, vec := range words {
		t.add(w, vec)
	}
	return t
}

// LoadVectorTable reads a fastText/word2vec text file: an optional
// "count dim" header followed by one "word v1 v2 ..." line per word.
func LoadVectorTable(path string) (*VectorTable, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("vectors path is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vectors: %w", err)
	}
	defer f.Close()
	t, err := ReadVectorTable(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	t.id = filepath.Base(path)
	return t, nil
}

// ReadVectorTable parses the .vec text format from r.
func ReadVectorTable(r io.Reader) (*VectorTable, error) {
	t := &VectorTable{words: make(map[string][]float32)}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if lineNo == 1 && len(fields) == 2 {
			if _, err := strconv.Atoi(fields[0]); err == nil {
				continue
			}
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: missing vector values", lineNo)
		}
		vec := make([]float32, len(fields)-1)
		for i, raw := range fields[1:] {
			v, err := strconv.ParseFloat(raw, 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			vec[i] = float32(v)
		}
		if t.dim != 0 && len(vec) != t.dim {
			return nil, fmt.Errorf("line %d: dimension %d, expected %d", lineNo, len(vec), t.dim)
		}
		t.add(fields[0], vec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *VectorTable) add(word string, vec []float32) {
	key := NormalizeTerm(word)
	if key == "" || len(vec) == 0 {
		return
	}
	if t.dim == 0 {
		t.dim = len(vec)
	}
	if len(vec) != t.dim {
		return
	}
	if _, exists := t.words[key]; exists {
		return
	}
	t.words[key] = cloneVector(vec)
}

// Len returns the number of words in the table.
func (t *VectorTable) Len() int {
	return len(t.words)
}

// Dim returns the vector dimension.
func (t *VectorTable) Dim() int {
	return t.dim
}

// EmbedText returns the vector of a word or the mean vector of a phrase.
func (t *VectorTable) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := NormalizeTerm(text)
	if vec, ok := t.words[key]; ok {
		return cloneVector(vec), nil
	}
	var sum []float32
	n := 0
	for _, w := range strings.Fields(key) {
		vec, ok := t.words[w]
		if !ok {
			continue
		}
		if sum == nil {
			sum = make([]float32, t.dim)
		}
		for i, v := range vec {
			sum[i] += v
		}
		n++
	}
	if n == 0 {
		return nil, nil
	}
	for i := range sum {
		sum[i] /= float32(n)
	}
	return sum, nil
}

// EmbedTexts embeds each text in order.
func (t *VectorTable) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := t.EmbedText(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Close is a no-op; the table lives in memory.
func (t *VectorTable) Close() error {
	return nil
}

// ModelID returns the table identifier.
func (t *VectorTable) ModelID() string {
	return t.id
}
