package profiler

import "math"

// TermVector is a vocabulary term with its embedding and precomputed norm.
type TermVector struct {
	Term   string
	Vector []float32
	norm   float64
}

// Hit is a term that cleared a similarity threshold.
type Hit struct {
	Term  string
	Score float64
}

// TermIndex holds the vectorized vocabulary. It is scanned linearly in
// vocabulary order, so the first hit is deterministic. Read-only once built.
type TermIndex struct {
	items []TermVector
}

// NewTermIndex pairs terms with vectors[i]. Terms without a vector, or with a
// zero vector, are left out.
func NewTermIndex(terms []string, vectors [][]float32) *TermIndex {
	idx := &TermIndex{items: make([]TermVector, 0, len(terms))}
	for i, term := range terms {
		if i >= len(vectors) {
			break
		}
		n := vectorNorm(vectors[i])
		if n == 0 {
			continue
		}
		idx.items = append(idx.items, TermVector{Term: term, Vector: cloneVector(vectors[i]), norm: n})
	}
	return idx
}

// Size returns the number of indexed terms.
func (idx *TermIndex) Size() int {
	if idx == nil {
		return 0
	}
	return len(idx.items)
}

// Terms returns the indexed terms in order.
func (idx *TermIndex) Terms() []string {
	if idx == nil {
		return nil
	}
	out := make([]string, 0, len(idx.items))
	for _, it := range idx.items {
		out = append(out, it.Term)
	}
	return out
}

// FirstAbove returns the first term whose cosine similarity with vec is at
// least threshold.
func (idx *TermIndex) FirstAbove(vec []float32, threshold float64) (Hit, bool) {
	var found Hit
	ok := false
	idx.scan(vec, threshold, func(h Hit) bool {
		found, ok = h, true
		return false
	})
	return found, ok
}

// Above returns every term whose cosine similarity with vec is at least threshold.
func (idx *TermIndex) Above(vec []float32, threshold float64) []Hit {
	var hits []Hit
	idx.scan(vec, threshold, func(h Hit) bool {
		hits = append(hits, h)
		return true
	})
	return hits
}

// scan calls yield for each hit in order until yield returns false.
func (idx *TermIndex) scan(vec []float32, threshold float64, yield func(Hit) bool) {
	if idx == nil {
		return
	}
	qn := vectorNorm(vec)
	if qn == 0 {
		return
	}
	for _, it := range idx.items {
		score := dot(vec, it.Vector) / (qn * it.norm)
		if score >= threshold && !yield(Hit{Term: it.Term, Score: score}) {
			return
		}
	}
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range min(len(a), len(b)) {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func vectorNorm(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}

func cloneVector(vec []float32) []float32 {
	return append([]float32(nil), vec...)
}
