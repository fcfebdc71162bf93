package profiler

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadVectorTable(t *testing.T) {
	table, err := ReadVectorTable(strings.NewReader("3 2\nPython 1 0\napi 0 1\n\ndocker 0.5 0.5\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
	assert.Equal(t, 2, table.Dim())

	vec, err := table.EmbedText(context.Background(), "python")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, vec)
}

func TestReadVectorTableErrors(t *testing.T) {
	tests := map[string]string{
		"dimension mismatch": "a 1 0\nb 1 0 0\n",
		"bad float":          "a 1 x\n",
		"missing values":     "a 1\nb\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadVectorTable(strings.NewReader(content))
			require.Error(t, err)
		})
	}
}

func TestVectorTablePhraseMean(t *testing.T) {
	table := NewVectorTable("test", map[string][]float32{
		"machine":  {1, 0},
		"learning": {0, 1},
		"big data": {3, 3},
	})
	ctx := context.Background()

	vec, err := table.EmbedText(ctx, "Machine  Learning")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5}, vec)

	vec, err = table.EmbedText(ctx, "machine de viagens")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, vec)

	vec, err = table.EmbedText(ctx, "big data")
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 3}, vec)

	vec, err = table.EmbedText(ctx, "música")
	require.NoError(t, err)
	assert.Nil(t, vec)

	vecs, err := table.EmbedTexts(ctx, []string{"machine", "nada"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Nil(t, vecs[1])
	assert.Equal(t, "test", table.ModelID())
}

func TestVectorTableReturnsCopies(t *testing.T) {
	table := NewVectorTable("t", map[string][]float32{"go": {1, 2}})
	vec, err := table.EmbedText(context.Background(), "go")
	require.NoError(t, err)
	vec[0] = 99

	again, err := table.EmbedText(context.Background(), "go")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, again)
}

func TestVectorTableCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewVectorTable("t", nil).EmbedText(ctx, "go")
	require.ErrorIs(t, err, context.Canceled)
}

func TestLoadVectorTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.vec")
	require.NoError(t, os.WriteFile(path, []byte("go 1 0\nrust 0 1\n"), 0o644))

	table, err := LoadVectorTable(path)
	require.NoError(t, err)
	assert.Equal(t, "words.vec", table.ModelID())
	assert.Equal(t, 2, table.Len())

	_, err = LoadVectorTable("")
	require.Error(t, err)
	_, err = LoadVectorTable(filepath.Join(t.TempDir(), "missing.vec"))
	require.Error(t, err)
}
