package profiler

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
)

// Service runs the extraction and classification pipeline. It is read-only
// after construction and safe for concurrent use.
type Service struct {
	analyzer   Analyzer
	embedder   Embedder
	vocab      *Vocabulary
	cfg        Config
	exact      *ExactMatcher
	similarity *SimilarityMatcher
	scorer     *Scorer
	logger     *zap.Logger
}

// NewService wires the pipeline and vectorizes the vocabulary once. A nil
// embedder disables semantic matching; a nil analyzer selects TextAnalyzer.
func NewService(ctx context.Context, analyzer Analyzer, embedder Embedder, vocab *Vocabulary, cfg Config, logger *zap.Logger) (*Service, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	if embedder == nil {
		embedder = NopEmbedder{}
	}
	if analyzer == nil {
		analyzer = NewTextAnalyzer(embedder, vocab)
	}

	terms := vocab.Terms()
	var (
		vecs [][]float32
		err  error
	)
	if te, ok := embedder.(TermEmbedder); ok {
		vecs, err = te.EmbedTerms(ctx, terms)
	} else {
		vecs, err = embedder.EmbedTexts(ctx, terms)
	}
	if err != nil {
		return nil, fmt.Errorf("embed vocabulary: %w", err)
	}
	index := NewTermIndex(terms, vecs)

	s := &Service{
		analyzer:   analyzer,
		embedder:   embedder,
		vocab:      vocab,
		cfg:        cfg,
		exact:      NewExactMatcher(terms),
		similarity: NewSimilarityMatcher(index, cfg.SimilarityThreshold),
		scorer:     NewScorer(vocab, cfg.Scoring),
		logger:     logger,
	}
	logger.Info("vocabulary loaded",
		zap.Int("categories", vocab.Len()),
		zap.Int("terms", len(terms)),
		zap.Int("vectorized", index.Size()),
		zap.String("model", embedder.ModelID()),
		zap.String("policy", string(cfg.Scoring.Policy)),
	)
	return s, nil
}

// Close releases embedder resources.
func (s *Service) Close() error {
	if s.embedder != nil {
		return s.embedder.Close()
	}
	return nil
}

// Config returns a copy of the configuration in use.
func (s *Service) Config() Config {
	return s.cfg.Clone()
}

// Vocabulary returns the vocabulary in use.
func (s *Service) Vocabulary() *Vocabulary {
	return s.vocab
}

// Analyze extracts contacts and skills from one résumé and classifies it.
// Blank text yields an empty result with the undefined profile.
func (s *Service) Analyze(ctx context.Context, text string) (*ExtractionResult, error) {
	text = NormalizeText(text)
	if strings.TrimSpace(text) == "" {
		return s.emptyResult(), nil
	}
	doc, err := s.analyzer.Analyze(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("analyze text: %w", err)
	}

	exact := s.exact.Match(doc.Tokens)
	semantic := s.similarity.Match(doc.Units())
	skills := AggregateSkills(exact, semantic)

	var evidence []MatchedSkill
	if s.scorer.Policy() == PolicyWeighted {
		evidence = make([]MatchedSkill, 0, len(exact))
		evidence = append(evidence, exact...)
		evidence = append(evidence, s.similarity.Evidence(doc.Chunks, s.cfg.Scoring.ChunkConceptThreshold)...)
		evidence = append(evidence, s.similarity.Evidence(doc.Tokens, s.cfg.Scoring.TokenConceptThreshold)...)
	}
	profile := s.scorer.Score(skills, evidence)

	res := &ExtractionResult{
		Names:            ExtractNames(doc),
		Emails:           ExtractEmails(text),
		Phones:           ExtractPhones(text),
		HardSkills:       skills.Sorted(),
		Profile:          profile.Best,
		Confidence:       round3(profile.Confidence),
		Categories:       make(map[string]float64, len(profile.Confidences)),
		ActiveCategories: profile.Active,
	}
	for name, c := range profile.Confidences {
		res.Categories[name] = round3(c)
	}
	s.logger.Debug("resume analyzed",
		zap.Int("tokens", len(doc.Tokens)),
		zap.Int("chunks", len(doc.Chunks)),
		zap.Int("exact_matches", len(exact)),
		zap.Int("semantic_matches", len(semantic)),
		zap.Strings("skills", res.HardSkills),
		zap.String("profile", res.Profile),
		zap.Float64("confidence", res.Confidence),
	)
	return res, nil
}

// AnalyzeAll analyzes texts sequentially, stopping at the first error.
func (s *Service) AnalyzeAll(ctx context.Context, texts []string) ([]*ExtractionResult, error) {
	out := make([]*ExtractionResult, 0, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := s.Analyze(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		out = append(out, res)
	}
	return out, nil
}

func (s *Service) emptyResult() *ExtractionResult {
	profile := s.scorer.Score(SkillSet{}, nil)
	res := &ExtractionResult{
		Names:            []string{},
		Emails:           []string{},
		Phones:           []string{},
		HardSkills:       []string{},
		Profile:          UndefinedProfile,
		Categories:       make(map[string]float64, len(profile.Confidences)),
		ActiveCategories: []string{},
	}
	for name := range profile.Confidences {
		res.Categories[name] = 0
	}
	return res
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
