package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"yashubustudio/talentos/internal/store"
	"yashubustudio/talentos/profiler"
)

func newService(t *testing.T) *profiler.Service {
	t.Helper()
	svc, err := profiler.NewService(context.Background(), nil, profiler.NopEmbedder{}, profiler.DefaultVocabulary(), profiler.Config{}, zap.NewNop())
	require.NoError(t, err)
	return svc
}

func newMemoryStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), store.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h := NewHandler(newService(t), nil, nil, 0).Routes()

	rec := do(t, h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{"status": "online", "service": ServiceName}, body)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestUnknownPath(t *testing.T) {
	h := NewHandler(newService(t), nil, nil, 0).Routes()
	rec := do(t, h, http.MethodGet, "/nada", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnalyze(t *testing.T) {
	h := NewHandler(newService(t), nil, nil, 0).Routes()

	for _, path := range []string{"/analisar", "/analisar/"} {
		t.Run(path, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, path,
				`{"texto": "Meu nome é Ana Souza. Trabalho com Python, SQL e APIs REST. ana@empresa.com.br"}`)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var got map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, "Backend", got["perfil"])
			assert.Equal(t, []any{"ana@empresa.com.br"}, got["emails"])
			assert.Contains(t, got["hard_skills"], "python")
			assert.Contains(t, got["hard_skills"], "sql")
			assert.Equal(t, []any{"Ana Souza"}, got["nomes_detectados"])
			assert.NotContains(t, got, "candidato_id")
		})
	}
}

func TestAnalyzeErrors(t *testing.T) {
	h := NewHandler(newService(t), nil, nil, 0).Routes()

	tests := []struct {
		name   string
		method string
		body   string
		ctype  string
		want   int
	}{
		{name: "wrong method", method: http.MethodGet, want: http.StatusMethodNotAllowed},
		{name: "malformed json", method: http.MethodPost, body: `{"texto":`, want: http.StatusBadRequest},
		{name: "empty texto", method: http.MethodPost, body: `{"texto": "   "}`, want: http.StatusUnprocessableEntity},
		{name: "missing texto", method: http.MethodPost, body: `{}`, want: http.StatusUnprocessableEntity},
		{name: "wrong content type", method: http.MethodPost, body: `texto=x`, ctype: "application/x-www-form-urlencoded", want: http.StatusUnsupportedMediaType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/analisar", strings.NewReader(tt.body))
			ct := tt.ctype
			if ct == "" {
				ct = "application/json"
			}
			req.Header.Set("Content-Type", ct)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestAnalyzeBodyTooLarge(t *testing.T) {
	h := NewHandler(newService(t), nil, nil, 16).Routes()
	rec := do(t, h, http.MethodPost, "/analisar", `{"texto": "`+strings.Repeat("python ", 20)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

type failingAnalyzer struct{}

func (failingAnalyzer) Analyze(context.Context, string) (*profiler.ExtractionResult, error) {
	return nil, errors.New("embedder down")
}

func TestAnalyzeInternalErrorLogsRequestID(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	h := NewHandler(failingAnalyzer{}, nil, zap.New(core), 0).Routes()

	req := httptest.NewRequest(http.MethodPost, "/analisar", strings.NewReader(`{"texto": "python"}`))
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))

	entries := observed.FilterMessage("analyze resume").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "req-123", entries[0].ContextMap()["request_id"])
}

func TestAnalyzeDebugLogsTruncatedText(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	h := NewHandler(newService(t), nil, zap.New(core), 0).Routes()

	text := "python " + strings.Repeat("x", 200)
	rec := do(t, h, http.MethodPost, "/analisar", `{"texto": "`+text+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	entries := observed.FilterMessage("analyze request").All()
	require.Len(t, entries, 1)
	logged := entries[0].ContextMap()["text"].(string)
	assert.Equal(t, []rune(text)[:logTextLimit], []rune(strings.TrimSuffix(logged, "...")))
	assert.True(t, strings.HasSuffix(logged, "..."))
}

func TestAnalyzePersistsCandidate(t *testing.T) {
	candidates := newMemoryStore(t)
	h := NewHandler(newService(t), candidates, nil, 0).Routes()

	rec := do(t, h, http.MethodPost, "/analisar", `{"texto": "Meu nome é Bruno Lima. Experiência com react, html e css. bruno@mail.com"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got struct {
		Profile     string `json:"perfil"`
		CandidateID int64  `json:"candidato_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Frontend", got.Profile)
	require.Positive(t, got.CandidateID)

	rec = do(t, h, http.MethodGet, "/candidatos/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var c store.Candidate
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.Equal(t, "Bruno Lima", c.Name)
	assert.Equal(t, "bruno@mail.com", c.Email)
	assert.Equal(t, "Frontend", c.Profile)

	rec = do(t, h, http.MethodGet, "/candidatos?limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []store.Candidate
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = do(t, h, http.MethodGet, "/candidatos/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/candidatos/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCandidatesDisabled(t *testing.T) {
	h := NewHandler(newService(t), nil, nil, 0).Routes()
	rec := do(t, h, http.MethodGet, "/candidatos", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
