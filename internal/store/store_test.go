package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yashubustudio/talentos/profiler"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndGet(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	id, err := s.Save(ctx, Candidate{
		Name:       "Ana Souza",
		Email:      "ana@empresa.com.br",
		Profile:    "Backend",
		Confidence: 0.25,
		ResumeText: "Trabalho com python e sql.",
		CreatedAt:  created,
	})
	require.NoError(t, err)
	assert.Positive(t, id)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Ana Souza", got.Name)
	assert.Equal(t, "Backend", got.Profile)
	assert.InDelta(t, 0.25, got.Confidence, 1e-9)
	assert.True(t, created.Equal(got.CreatedAt))
}

func TestGetMissing(t *testing.T) {
	s := openMemory(t)
	_, err := s.Get(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListNewestFirst(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	for _, name := range []string{"a", "b", "c"} {
		_, err := s.Save(ctx, Candidate{Name: name, Profile: "Undefined", ResumeText: name})
		require.NoError(t, err)
	}

	got, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].Name)
	assert.Equal(t, "b", got[1].Name)
	assert.False(t, got[0].CreatedAt.IsZero())
}

func TestListEmpty(t *testing.T) {
	s := openMemory(t)
	got, err := s.List(context.Background(), 0)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "x")
	require.Error(t, err)
}

func TestOpenPostgresRequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), DriverPostgres, "")
	require.Error(t, err)
}

func TestRebind(t *testing.T) {
	pg := &Store{driver: DriverPostgres}
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", pg.rebind("SELECT * FROM t WHERE a = ? AND b = ?"))

	lite := &Store{driver: DriverSQLite}
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}

func TestNewCandidate(t *testing.T) {
	c := NewCandidate("texto", &profiler.ExtractionResult{
		Names:      []string{"Ana Souza", "Bruno Lima"},
		Emails:     []string{"ana@x.com"},
		Profile:    "Data",
		Confidence: 0.2,
	})
	assert.Equal(t, Candidate{Name: "Ana Souza", Email: "ana@x.com", Profile: "Data", Confidence: 0.2, ResumeText: "texto"}, c)

	empty := NewCandidate("x", nil)
	assert.Equal(t, "Undefined", empty.Profile)
}
