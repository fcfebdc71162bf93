package profiler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// testEmbedder knows "api" and its plural; every other word has no vector.
func testEmbedder() *VectorTable {
	return NewVectorTable("test", map[string][]float32{
		"api":  {1, 0, 0},
		"apis": {1, 0, 0},
	})
}

func newTestService(t *testing.T, embedder Embedder, vocab *Vocabulary, cfg Config) *Service {
	t.Helper()
	svc, err := NewService(context.Background(), nil, embedder, vocab, cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestAnalyzeBackendResume(t *testing.T) {
	svc := newTestService(t, testEmbedder(), nil, Config{})

	res, err := svc.Analyze(context.Background(), "Trabalho com python, docker e sql, desenvolvendo apis backend.")
	require.NoError(t, err)

	assert.Equal(t, []string{"api", "backend", "docker", "python", "sql"}, res.HardSkills)
	assert.Equal(t, "Backend", res.Profile)
	assert.InDelta(t, 0.25, res.Confidence, 1e-9)
	assert.InDelta(t, 0.25, res.Categories["Backend"], 1e-9)
	assert.InDelta(t, 0.091, res.Categories["DevOps"], 1e-9)
	assert.Zero(t, res.Categories["Frontend"])
	assert.Empty(t, res.ActiveCategories)
	assert.Empty(t, res.Names)
	assert.Empty(t, res.Emails)
	assert.Empty(t, res.Phones)
}

func TestAnalyzeWithoutVectorsUsesExactMatchesOnly(t *testing.T) {
	svc := newTestService(t, NopEmbedder{}, nil, Config{})

	res, err := svc.Analyze(context.Background(), "Trabalho com python, docker e sql, desenvolvendo apis backend.")
	require.NoError(t, err)
	assert.Equal(t, []string{"backend", "docker", "python", "sql"}, res.HardSkills)
	assert.InDelta(t, 0.188, res.Confidence, 1e-9)
}

func TestAnalyzeNoSkills(t *testing.T) {
	svc := newTestService(t, testEmbedder(), nil, Config{})

	res, err := svc.Analyze(context.Background(), "Gosto de música e viagens.")
	require.NoError(t, err)
	assert.Equal(t, UndefinedProfile, res.Profile)
	assert.Zero(t, res.Confidence)
	assert.Empty(t, res.HardSkills)
	assert.Len(t, res.Categories, 5)
}

func TestAnalyzeEmptyText(t *testing.T) {
	svc := newTestService(t, testEmbedder(), nil, Config{})

	for _, text := range []string{"", "   \n\t"} {
		res, err := svc.Analyze(context.Background(), text)
		require.NoError(t, err)
		assert.Equal(t, UndefinedProfile, res.Profile)
		assert.NotNil(t, res.Names)
		assert.NotNil(t, res.Emails)
		assert.NotNil(t, res.Phones)
		assert.NotNil(t, res.HardSkills)
		assert.NotNil(t, res.ActiveCategories)
		assert.Len(t, res.Categories, 5)
	}
}

func TestAnalyzeContacts(t *testing.T) {
	svc := newTestService(t, NopEmbedder{}, nil, Config{})

	res, err := svc.Analyze(context.Background(),
		"Ana Beatriz Souza\nE-mail: joao.silva@empresa.com.br | JOAO.SILVA@empresa.com.br\nTel: (11) 98765-4321")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ana Beatriz Souza"}, res.Names)
	assert.Equal(t, []string{"joao.silva@empresa.com.br"}, res.Emails)
	assert.Equal(t, []string{"(11) 98765-4321"}, res.Phones)
}

func TestAnalyzeFullstack(t *testing.T) {
	svc := newTestService(t, NopEmbedder{}, nil, Config{})

	res, err := svc.Analyze(context.Background(),
		"python, java, sql, api, backend, rest e react, html, css, javascript")
	require.NoError(t, err)

	backend := 6.0 / 16.0
	frontend := 4.0 / 12.0
	assert.Equal(t, []string{"Backend", "Frontend", "Fullstack"}, res.ActiveCategories)
	assert.InDelta(t, round3((backend+frontend)/2), res.Categories["Fullstack"], 1e-9)
	assert.Equal(t, "Backend", res.Profile)
	assert.InDelta(t, 0.375, res.Confidence, 1e-9)
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	svc := newTestService(t, testEmbedder(), nil, Config{})
	text := "Maria da Silva. Experiência com kubernetes, terraform e apis REST. maria@x.com"

	first, err := svc.Analyze(context.Background(), text)
	require.NoError(t, err)
	second, err := svc.Analyze(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAnalyzeConcurrent(t *testing.T) {
	svc := newTestService(t, testEmbedder(), nil, Config{})
	want, err := svc.Analyze(context.Background(), "docker, aws e linux")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := svc.Analyze(context.Background(), "docker, aws e linux")
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}

func TestAnalyzeWeightedPolicy(t *testing.T) {
	vocab := NewVocabulary([]Category{
		{Name: "Backend", Terms: []string{"api", "python"}},
		{Name: "DevOps", Terms: []string{"docker"}},
	})
	embedder := NewVectorTable("test", map[string][]float32{
		"api":    {1, 0},
		"apis":   {0.8, 0.6},
		"docker": {0, 1},
	})
	svc := newTestService(t, embedder, vocab, Config{Scoring: ScoringConfig{
		Policy:                PolicyWeighted,
		TokenConceptThreshold: 0.5,
	}})

	res, err := svc.Analyze(context.Background(), "api; apis; docker")
	require.NoError(t, err)

	// api: exact 1 and token 1 on the same span, apis: 0.8 -> (1 + 0.8) / 2.
	assert.InDelta(t, 0.9, res.Categories["Backend"], 1e-9)
	// docker: exact 1, apis vs docker 0.6.
	assert.InDelta(t, 0.8, res.Categories["DevOps"], 1e-9)
	assert.Equal(t, "Backend", res.Profile)
	assert.Equal(t, []string{"api", "docker"}, res.HardSkills)
}

func TestAnalyzeAll(t *testing.T) {
	svc := newTestService(t, NopEmbedder{}, nil, Config{})

	results, err := svc.AnalyzeAll(context.Background(), []string{"figma e ux", "", "pandas"})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "Design/Engenharia", results[0].Profile)
	assert.Equal(t, UndefinedProfile, results[1].Profile)
	assert.Equal(t, "Data", results[2].Profile)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.AnalyzeAll(ctx, []string{"x"})
	require.ErrorIs(t, err, context.Canceled)
}

type failingEmbedder struct{ NopEmbedder }

func (failingEmbedder) EmbedTexts(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("backend down")
}

func TestNewServiceErrors(t *testing.T) {
	_, err := NewService(context.Background(), nil, failingEmbedder{}, nil, Config{}, nil)
	require.Error(t, err)

	_, err = NewService(context.Background(), nil, nil, nil, Config{SimilarityThreshold: 2}, nil)
	require.Error(t, err)
}

// termRecorder serves vocabulary vectors through EmbedTerms and records the
// terms it was asked for.
type termRecorder struct {
	*VectorTable
	terms []string
}

func (r *termRecorder) EmbedTerms(ctx context.Context, terms []string) ([][]float32, error) {
	r.terms = append(r.terms, terms...)
	return r.EmbedTexts(ctx, terms)
}

func TestNewServiceEmbedsVocabularyAsTerms(t *testing.T) {
	rec := &termRecorder{VectorTable: testEmbedder()}
	svc := newTestService(t, rec, nil, Config{})
	assert.Equal(t, svc.Vocabulary().Terms(), rec.terms)

	res, err := svc.Analyze(context.Background(), "Desenvolvendo apis.")
	require.NoError(t, err)
	assert.Equal(t, []string{"api"}, res.HardSkills)
	assert.Len(t, rec.terms, len(svc.Vocabulary().Terms()))
}

type stubAnalyzer struct{ err error }

func (a stubAnalyzer) Analyze(context.Context, string) (*Document, error) {
	return nil, a.err
}

func TestAnalyzeWrapsAnalyzerErrors(t *testing.T) {
	boom := errors.New("nlp unavailable")
	svc, err := NewService(context.Background(), stubAnalyzer{err: boom}, nil, nil, Config{}, nil)
	require.NoError(t, err)

	_, err = svc.Analyze(context.Background(), "python")
	require.ErrorIs(t, err, boom)
}

func TestNewServiceLogsVocabulary(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	svc, err := NewService(context.Background(), nil, testEmbedder(), nil, Config{}, zap.New(core))
	require.NoError(t, err)
	defer svc.Close()

	entries := observed.FilterMessage("vocabulary loaded").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.EqualValues(t, 5, fields["categories"])
	assert.EqualValues(t, 1, fields["vectorized"])
	assert.Equal(t, "test", fields["model"])

	assert.Equal(t, PolicyCoverage, svc.Config().Scoring.Policy)
	assert.Equal(t, 5, svc.Vocabulary().Len())
}

func TestAnalyzeSplitsSlashAndHyphenCompounds(t *testing.T) {
	svc := newTestService(t, NopEmbedder{}, nil, Config{})

	res, err := svc.Analyze(context.Background(), "Stack: HTML/CSS, Python/Django e React/Redux.")
	require.NoError(t, err)
	assert.Equal(t, []string{"css", "html", "python", "react"}, res.HardSkills)
	assert.Equal(t, "Frontend", res.Profile)
	assert.InDelta(t, 0.25, res.Confidence, 1e-9)

	res, err = svc.Analyze(context.Background(), "Experiência com docker-compose e python-flask.")
	require.NoError(t, err)
	assert.Equal(t, []string{"docker", "python"}, res.HardSkills)
	assert.Equal(t, "DevOps", res.Profile)
}
