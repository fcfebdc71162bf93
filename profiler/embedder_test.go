package profiler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorCodecRoundTrip(t *testing.T) {
	vec := []float32{0.25, -1.5, 3}
	got, err := decodeVector(encodeVector(vec))
	require.NoError(t, err)
	assert.Equal(t, vec, got)

	empty, err := decodeVector(encodeVector(nil))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDecodeVectorRejectsCorruptEntries(t *testing.T) {
	_, err := decodeVector([]byte{1, 0})
	require.Error(t, err)

	data := encodeVector([]float32{1, 2})
	_, err = decodeVector(data[:len(data)-1])
	require.Error(t, err)
}

func TestNopEmbedder(t *testing.T) {
	var e Embedder = NopEmbedder{}
	vecs, err := e.EmbedTexts(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{nil, nil}, vecs)
	assert.Equal(t, BackendNone, e.ModelID())
	assert.NoError(t, e.Close())
}

func TestNewEmbedder(t *testing.T) {
	e, err := NewEmbedder(EmbedderConfig{Backend: BackendNone})
	require.NoError(t, err)
	assert.IsType(t, NopEmbedder{}, e)

	path := filepath.Join(t.TempDir(), "w.vec")
	require.NoError(t, os.WriteFile(path, []byte("go 1 0\n"), 0o644))
	e, err = NewEmbedder(EmbedderConfig{Backend: BackendVectors, VectorsPath: path})
	require.NoError(t, err)
	assert.IsType(t, &VectorTable{}, e)

	_, err = NewEmbedder(EmbedderConfig{Backend: BackendVectors})
	require.Error(t, err)

	_, err = NewEmbedder(EmbedderConfig{Backend: "gpu"})
	require.Error(t, err)

	e, err = NewEmbedder(EmbedderConfig{Backend: BackendONNX})
	require.Error(t, err)
	assert.Nil(t, e)
}

func TestOrtEmbedderNil(t *testing.T) {
	var o *OrtEmbedder
	_, err := o.EmbedText(context.Background(), "go")
	require.ErrorIs(t, err, ErrNoEmbedder)
	assert.NoError(t, o.Close())
}

func TestOrtEmbedderTermsUseDiskCache(t *testing.T) {
	dir := t.TempDir()
	vc, err := newVectorCache("m", dir, 0, 0)
	require.NoError(t, err)
	vc.putTerm("python", []float32{1, 2})

	_, err = os.Stat(filepath.Join(dir, vc.key("python")+".bin"))
	require.NoError(t, err)

	// A fresh cache over the same directory only has the disk copy.
	cold, err := newVectorCache("m", dir, 0, 0)
	require.NoError(t, err)
	o := &OrtEmbedder{id: "m", cache: cold}

	vecs, err := o.EmbedTerms(context.Background(), []string{"Python", "", "Python"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 2}, nil, {1, 2}}, vecs)

	// Once loaded, the term also serves request lookups.
	vec, err := o.EmbedText(context.Background(), "  python ")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, vec)

	_, err = o.EmbedTerms(context.Background(), []string{"java"})
	require.ErrorIs(t, err, ErrNoEmbedder)
}

func TestOrtEmbedderRequestPhrasesStayInMemory(t *testing.T) {
	dir := t.TempDir()
	vc, err := newVectorCache("m", dir, 0, 0)
	require.NoError(t, err)
	o := &OrtEmbedder{id: "m", cache: vc}

	// Request phrases are never read from disk.
	require.NoError(t, os.WriteFile(filepath.Join(dir, vc.key("rust")+".bin"), encodeVector([]float32{3}), 0o644))
	_, err = o.EmbedText(context.Background(), "rust")
	require.ErrorIs(t, err, ErrNoEmbedder)

	vc.put("golang", []float32{4})
	vecs, err := o.EmbedTexts(context.Background(), []string{"golang", "", "golang"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{4}, nil, {4}}, vecs)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestVectorCacheBounded(t *testing.T) {
	dir := t.TempDir()
	vc, err := newVectorCache("m", dir, 8, time.Hour)
	require.NoError(t, err)

	for i := range 100 {
		vc.put(fmt.Sprintf("phrase %d", i), []float32{float32(i)})
		assert.LessOrEqual(t, vc.size(), 8)
	}
	assert.Equal(t, 8, vc.size())
	_, ok := vc.get("phrase 0")
	assert.True(t, ok)
	_, ok = vc.get("phrase 99")
	assert.False(t, ok)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestVectorCacheExpiredEntriesMakeRoom(t *testing.T) {
	vc, err := newVectorCache("m", "", 2, 50*time.Millisecond)
	require.NoError(t, err)
	vc.put("a", []float32{1})
	vc.put("b", []float32{2})
	vc.put("c", []float32{3})
	_, ok := vc.get("c")
	assert.False(t, ok)

	time.Sleep(120 * time.Millisecond)
	vc.put("c", []float32{3})
	vec, ok := vc.get("c")
	require.True(t, ok)
	assert.Equal(t, []float32{3}, vec)
	assert.Equal(t, 1, vc.size())
}

func TestVectorCacheKeyedByModel(t *testing.T) {
	a, err := newVectorCache("a", "", 0, 0)
	require.NoError(t, err)
	b, err := newVectorCache("b", "", 0, 0)
	require.NoError(t, err)
	assert.NotEqual(t, a.key("go"), b.key("go"))

	a.put("go", []float32{1})
	_, ok := a.get("go")
	assert.True(t, ok)
	_, ok = a.get("rust")
	assert.False(t, ok)
}
