package profiler

import (
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"yashubustudio/talentos/emb"
)

// ErrNoEmbedder is returned when a vector backend is used before it is ready.
var ErrNoEmbedder = errors.New("embedder is not initialized")

// Embedder turns text into vectors. A nil vector with a nil error means the
// backend has no vector for that text.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	Close() error
	ModelID() string
}

// NewEmbedder builds the backend selected by cfg.Backend.
func NewEmbedder(cfg EmbedderConfig) (Embedder, error) {
	switch cfg.Backend {
	case BackendONNX, "":
		e, err := NewOrtEmbedder(cfg)
		if err != nil {
			return nil, err
		}
		return e, nil
	case BackendVectors:
		t, err := LoadVectorTable(cfg.VectorsPath)
		if err != nil {
			return nil, err
		}
		return t, nil
	case BackendNone:
		return NopEmbedder{}, nil
	}
	return nil, fmt.Errorf("unknown embedder backend %q", cfg.Backend)
}

// NopEmbedder has no vectors; only exact matching applies.
type NopEmbedder struct{}

func (NopEmbedder) EmbedText(context.Context, string) ([]float32, error) { return nil, nil }

func (NopEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	return make([][]float32, len(texts)), nil
}

func (NopEmbedder) Close() error    { return nil }
func (NopEmbedder) ModelID() string { return BackendNone }

// TermEmbedder is implemented by embedders that persist vocabulary vectors
// separately from the per-request cache. Service prefers it when present.
type TermEmbedder interface {
	EmbedTerms(ctx context.Context, terms []string) ([][]float32, error)
}

// Cache defaults for request phrases.
const (
	DefaultCacheEntries = 20000
	DefaultCacheTTL     = 30 * time.Minute
)

// OrtEmbedder embeds skill phrases with an ONNX sentence model. Vocabulary
// vectors are kept for the process lifetime and written to disk; request
// phrases live in a bounded, expiring cache.
type OrtEmbedder struct {
	mu    sync.RWMutex
	enc   *emb.Encoder
	id    string
	cache *vectorCache
}

// NewOrtEmbedder opens the model described by cfg.
func NewOrtEmbedder(cfg EmbedderConfig) (*OrtEmbedder, error) {
	id := cfg.ModelID
	if id == "" && cfg.ModelPath != "" {
		id = filepath.Base(cfg.ModelPath)
	}
	vc, err := newVectorCache(id, cfg.CacheDir, cfg.CacheEntries, cfg.CacheTTL)
	if err != nil {
		return nil, err
	}
	enc := &emb.Encoder{}
	err = enc.Init(emb.Config{
		OrtDLL:        cfg.OrtDLL,
		ModelPath:     cfg.ModelPath,
		TokenizerPath: cfg.TokenizerPath,
		MaxSeqLen:     cfg.MaxSeqLen,
	})
	if err != nil {
		return nil, err
	}
	return &OrtEmbedder{enc: enc, id: id, cache: vc}, nil
}

// Close releases the ONNX session. It is safe on a nil receiver.
func (o *OrtEmbedder) Close() error {
	if o == nil {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.enc != nil {
		o.enc.Close()
		o.enc = nil
	}
	return nil
}

func (o *OrtEmbedder) ModelID() string { return o.id }

// EmbedText embeds the normalized text, consulting the caches first.
func (o *OrtEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if o == nil {
		return nil, ErrNoEmbedder
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	phrase := NormalizeTerm(text)
	if phrase == "" {
		return nil, nil
	}
	if vec, ok := o.cache.get(phrase); ok {
		return vec, nil
	}
	vec, err := o.encode(phrase)
	if err != nil {
		return nil, err
	}
	o.cache.put(phrase, vec)
	return cloneVector(vec), nil
}

// EmbedTexts embeds each distinct text once and fans the vectors back out.
func (o *OrtEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(texts, func(t string) ([]float32, error) { return o.EmbedText(ctx, t) })
}

// EmbedTerms embeds vocabulary terms. Their vectors are pinned in memory and
// persisted under the cache directory, so restarts skip the model.
func (o *OrtEmbedder) EmbedTerms(ctx context.Context, terms []string) ([][]float32, error) {
	if o == nil {
		return nil, ErrNoEmbedder
	}
	return embedEach(terms, func(t string) ([]float32, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		term := NormalizeTerm(t)
		if term == "" {
			return nil, nil
		}
		if vec, ok := o.cache.term(term); ok {
			return vec, nil
		}
		vec, err := o.encode(term)
		if err != nil {
			return nil, err
		}
		o.cache.putTerm(term, vec)
		return cloneVector(vec), nil
	})
}

func (o *OrtEmbedder) encode(phrase string) ([]float32, error) {
	o.mu.RLock()
	enc := o.enc
	o.mu.RUnlock()
	if enc == nil {
		return nil, ErrNoEmbedder
	}
	vec, err := enc.Encode(phrase)
	if err != nil {
		return nil, fmt.Errorf("encode %q: %w", phrase, err)
	}
	return vec, nil
}

func embedEach(texts []string, embed func(string) ([]float32, error)) ([][]float32, error) {
	out := make([][]float32, len(texts))
	seen := make(map[string][]float32, len(texts))
	for i, t := range texts {
		if vec, ok := seen[t]; ok {
			out[i] = cloneVector(vec)
			continue
		}
		vec, err := embed(t)
		if err != nil {
			return nil, err
		}
		seen[t] = vec
		out[i] = vec
	}
	return out, nil
}

// vectorCache has two layers keyed by sha1(model|phrase). Terms are pinned
// and, with a directory set, stored as <key>.bin files. Request phrases go to
// an expiring cache holding at most maxEntries vectors.
type vectorCache struct {
	model      string
	dir        string
	maxEntries int

	mu     sync.RWMutex
	terms  map[string][]float32
	recent *cache.Cache
}

func newVectorCache(model, dir string, maxEntries int, ttl time.Duration) (*vectorCache, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	if maxEntries <= 0 {
		maxEntries = DefaultCacheEntries
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &vectorCache{
		model:      model,
		dir:        dir,
		maxEntries: maxEntries,
		terms:      make(map[string][]float32),
		recent:     cache.New(ttl, 2*ttl),
	}, nil
}

func (c *vectorCache) key(phrase string) string {
	sum := sha1.Sum([]byte(c.model + "|" + phrase))
	return hex.EncodeToString(sum[:])
}

func (c *vectorCache) path(key string) string {
	return filepath.Join(c.dir, key+".bin")
}

// get looks up pinned terms, then recent phrases. It never reads the disk.
func (c *vectorCache) get(phrase string) ([]float32, bool) {
	key := c.key(phrase)
	c.mu.RLock()
	vec, ok := c.terms[key]
	c.mu.RUnlock()
	if ok {
		return cloneVector(vec), true
	}
	if v, ok := c.recent.Get(key); ok {
		return cloneVector(v.([]float32)), true
	}
	return nil, false
}

// put stores a request phrase unless the recent layer is full of live entries.
func (c *vectorCache) put(phrase string, vec []float32) {
	key := c.key(phrase)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.recent.ItemCount() >= c.maxEntries {
		c.recent.DeleteExpired()
		if c.recent.ItemCount() >= c.maxEntries {
			return
		}
	}
	c.recent.SetDefault(key, cloneVector(vec))
}

func (c *vectorCache) size() int {
	return c.recent.ItemCount()
}

// term looks up a pinned term, loading it from disk when needed.
func (c *vectorCache) term(phrase string) ([]float32, bool) {
	if vec, ok := c.get(phrase); ok {
		return vec, true
	}
	if c.dir == "" {
		return nil, false
	}
	key := c.key(phrase)
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, false
	}
	vec, err := decodeVector(data)
	if err != nil {
		return nil, false
	}
	c.pin(key, vec)
	return cloneVector(vec), true
}

// putTerm pins a vocabulary vector and writes it to disk. Disk errors only
// cost a re-encode on the next start, so they are dropped.
func (c *vectorCache) putTerm(phrase string, vec []float32) {
	key := c.key(phrase)
	c.pin(key, vec)
	if c.dir == "" {
		return
	}
	tmp := c.path(key) + ".tmp"
	if err := os.WriteFile(tmp, encodeVector(vec), 0o644); err != nil {
		return
	}
	_ = os.Rename(tmp, c.path(key))
}

func (c *vectorCache) pin(key string, vec []float32) {
	c.mu.Lock()
	c.terms[key] = cloneVector(vec)
	c.mu.Unlock()
}

// encodeVector writes a little-endian uint32 length followed by float32 bits.
func encodeVector(vec []float32) []byte {
	buf := binary.LittleEndian.AppendUint32(make([]byte, 0, 4+4*len(vec)), uint32(len(vec)))
	for _, v := range vec {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data) < 4 {
		return nil, errors.New("vector cache entry too small")
	}
	n := int(binary.LittleEndian.Uint32(data))
	body := data[4:]
	if len(body) != 4*n {
		return nil, fmt.Errorf("vector cache length mismatch: want %d floats, have %d bytes", n, len(body))
	}
	vec := make([]float32, n)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(body[4*i:]))
	}
	return vec, nil
}
