// Package server exposes the résumé analysis pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"yashubustudio/talentos/internal/logger"
	"yashubustudio/talentos/internal/store"
	"yashubustudio/talentos/profiler"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "agente-nlp"

// RequestIDHeader carries the request identifier in both directions.
const RequestIDHeader = "X-Request-ID"

// logTextLimit caps the résumé excerpt written to debug logs.
const logTextLimit = 80

// ResumeAnalyzer runs the pipeline on one résumé.
type ResumeAnalyzer interface {
	Analyze(ctx context.Context, text string) (*profiler.ExtractionResult, error)
}

// CandidateStore persists and reads analysed résumés.
type CandidateStore interface {
	Save(ctx context.Context, c store.Candidate) (int64, error)
	Get(ctx context.Context, id int64) (*store.Candidate, error)
	List(ctx context.Context, limit int) ([]store.Candidate, error)
}

// AnalyzeRequest is the body of POST /analisar.
type AnalyzeRequest struct {
	Text string `json:"texto"`
}

// AnalyzeResponse is the analysis result plus the stored candidate id, if any.
type AnalyzeResponse struct {
	*profiler.ExtractionResult
	CandidateID int64 `json:"candidato_id,omitempty"`
}

// Handler serves the HTTP API.
type Handler struct {
	analyzer ResumeAnalyzer
	store    CandidateStore
	logger   *zap.Logger
	maxBody  int64
}

// NewHandler builds a handler. candidates may be nil to disable persistence.
func NewHandler(analyzer ResumeAnalyzer, candidates CandidateStore, log *zap.Logger, maxBody int64) *Handler {
	return &Handler{
		analyzer: analyzer,
		store:    candidates,
		logger:   logger.WithFields(log),
		maxBody:  maxBody,
	}
}

// Routes registers the endpoints on a new mux wrapped with request logging.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", h.HandleRoot)
	mux.HandleFunc("/analisar", h.HandleAnalyze)
	mux.HandleFunc("/analisar/", h.HandleAnalyze)
	mux.HandleFunc("GET /candidatos", h.HandleListCandidates)
	mux.HandleFunc("GET /candidatos/{id}", h.HandleGetCandidate)
	return h.withRequestID(mux)
}

// HandleRoot is the health check.
func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		JSONError(w, http.StatusNotFound, "Not found")
		return
	}
	if err := validateMethod(r, http.MethodGet, http.MethodHead); err != nil {
		HandleError(w, err)
		return
	}
	JSONResponse(w, http.StatusOK, map[string]string{
		"status":  "online",
		"service": ServiceName,
	})
}

// HandleAnalyze analyses the posted résumé text.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.WithRequestID(h.logger, RequestID(ctx))

	if err := validateMethod(r, http.MethodPost); err != nil {
		HandleError(w, err)
		return
	}
	var req AnalyzeRequest
	if err := decodeJSON(w, r, &req, h.maxBody); err != nil {
		log.Warn("decode request", zap.Error(err))
		HandleError(w, err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		JSONError(w, http.StatusUnprocessableEntity, "texto is required")
		return
	}

	log.Debug("analyze request", zap.String("text", logger.TruncateForLog(req.Text, logTextLimit)))
	start := time.Now()
	res, err := h.analyzer.Analyze(ctx, req.Text)
	if err != nil {
		log.Error("analyze resume", zap.Error(err))
		HandleError(w, err)
		return
	}
	resp := AnalyzeResponse{ExtractionResult: res}
	if h.store != nil {
		id, err := h.store.Save(ctx, store.NewCandidate(req.Text, res))
		if err != nil {
			log.Error("save candidate", zap.Error(err))
			HandleError(w, err)
			return
		}
		resp.CandidateID = id
	}
	log.Info("resume analyzed",
		zap.String("profile", res.Profile),
		zap.Float64("confidence", res.Confidence),
		zap.Int("skills", len(res.HardSkills)),
		zap.Duration("elapsed", time.Since(start)),
	)
	JSONResponse(w, http.StatusOK, resp)
}

// HandleListCandidates lists stored candidates; ?limit=N caps the result.
func (h *Handler) HandleListCandidates(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		JSONError(w, http.StatusNotFound, "candidate store is disabled")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			JSONError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}
	list, err := h.store.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("list candidates", zap.Error(err))
		HandleError(w, err)
		return
	}
	JSONResponse(w, http.StatusOK, list)
}

// HandleGetCandidate returns one stored candidate.
func (h *Handler) HandleGetCandidate(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		JSONError(w, http.StatusNotFound, "candidate store is disabled")
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		JSONError(w, http.StatusBadRequest, "id must be an integer")
		return
	}
	c, err := h.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		JSONError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("get candidate", zap.Int64("id", id), zap.Error(err))
		HandleError(w, err)
		return
	}
	JSONResponse(w, http.StatusOK, c)
}

type ctxKey struct{}

// RequestID returns the identifier stored by the request middleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func (h *Handler) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		h.logger.Debug("request",
			zap.String(logger.FieldRequestID, id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

// Options configures the HTTP server.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Serve runs the server until ctx is cancelled, then shuts it down gracefully.
func Serve(ctx context.Context, handler http.Handler, opts Options, log *zap.Logger) error {
	log = logger.WithFields(log)
	srv := &http.Server{
		Addr:         opts.Addr,
		Handler:      handler,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", opts.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
