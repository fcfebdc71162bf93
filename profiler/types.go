package profiler

import (
	"encoding/json"
	"fmt"
	"time"
)

// UndefinedProfile is reported when no category scored above zero.
const UndefinedProfile = "Undefined"

// Method tells how a skill was detected.
type Method string

const (
	// MethodExact marks a verbatim, case-insensitive phrase match.
	MethodExact Method = "exact"
	// MethodSemantic marks a vector similarity match.
	MethodSemantic Method = "semantic"
)

// MatchedSkill is a vocabulary term confirmed present in the input.
// Start and End delimit the token span (End exclusive) that produced the match.
type MatchedSkill struct {
	Term   string  `json:"term"`
	Method Method  `json:"method"`
	Score  float64 `json:"score"`
	Start  int     `json:"start"`
	End    int     `json:"end"`
}

// CategoryScore holds the scoring outcome for one category.
type CategoryScore struct {
	Name       string  `json:"name"`
	Raw        float64 `json:"raw"`
	Confidence float64 `json:"confidence"`
	Active     bool    `json:"active"`
	Composite  bool    `json:"composite,omitempty"`
}

// ProfileResult is the classification of a single résumé.
type ProfileResult struct {
	Best        string             `json:"best"`
	Confidence  float64            `json:"confidence"`
	Active      []string           `json:"active"`
	Scores      []CategoryScore    `json:"scores"`
	Confidences map[string]float64 `json:"confidences"`
}

// ExtractionResult is the response payload for one analysed résumé.
type ExtractionResult struct {
	Names            []string           `json:"nomes_detectados"`
	Emails           []string           `json:"emails"`
	Phones           []string           `json:"telefones"`
	HardSkills       []string           `json:"hard_skills"`
	Profile          string             `json:"perfil"`
	Confidence       float64            `json:"confianca"`
	Categories       map[string]float64 `json:"confiancas"`
	ActiveCategories []string           `json:"categorias_ativas"`
}

// InputRecord represents a résumé read from a batch file.
type InputRecord struct {
	Index string `json:"index,omitempty"`
	Name  string `json:"name,omitempty"`
	Text  string `json:"text"`
}

// ScoringPolicy selects how category confidences are computed.
type ScoringPolicy string

const (
	// PolicyCoverage scores a category by the fraction of its terms found in the skill set.
	PolicyCoverage ScoringPolicy = "coverage"
	// PolicyWeighted scores a category by the mean similarity of qualifying comparisons.
	PolicyWeighted ScoringPolicy = "weighted"
)

// CompositeRule synthesizes a category when all required categories are active.
type CompositeRule struct {
	Name     string   `json:"name" yaml:"name" mapstructure:"name"`
	Requires []string `json:"requires" yaml:"requires" mapstructure:"requires"`
}

// ScoringConfig controls the profile scorer. A zero threshold means "use the
// default"; see ApplyDefaults.
type ScoringConfig struct {
	Policy                ScoringPolicy   `json:"policy" yaml:"policy" mapstructure:"policy"`
	ActivationThreshold   float64         `json:"activationThreshold" yaml:"activationThreshold" mapstructure:"activationThreshold"`
	TokenConceptThreshold float64         `json:"tokenConceptThreshold" yaml:"tokenConceptThreshold" mapstructure:"tokenConceptThreshold"`
	ChunkConceptThreshold float64         `json:"chunkConceptThreshold" yaml:"chunkConceptThreshold" mapstructure:"chunkConceptThreshold"`
	Composites            []CompositeRule `json:"composites" yaml:"composites" mapstructure:"composites"`
}

// EmbedderConfig selects and configures the vector backend.
type EmbedderConfig struct {
	Backend       string `json:"backend" yaml:"backend" mapstructure:"backend"`
	OrtDLL        string `json:"ortDll" yaml:"ortDll" mapstructure:"ortDll"`
	ModelPath     string `json:"modelPath" yaml:"modelPath" mapstructure:"modelPath"`
	TokenizerPath string `json:"tokenizerPath" yaml:"tokenizerPath" mapstructure:"tokenizerPath"`
	MaxSeqLen     int    `json:"maxSeqLen" yaml:"maxSeqLen" mapstructure:"maxSeqLen"`
	CacheDir      string `json:"cacheDir" yaml:"cacheDir" mapstructure:"cacheDir"`
	ModelID       string `json:"modelId" yaml:"modelId" mapstructure:"modelId"`
	VectorsPath   string `json:"vectorsPath" yaml:"vectorsPath" mapstructure:"vectorsPath"`

	// Request phrase cache. Only vocabulary vectors are written to CacheDir.
	CacheEntries int           `json:"cacheEntries" yaml:"cacheEntries" mapstructure:"cacheEntries"`
	CacheTTL     time.Duration `json:"cacheTTL" yaml:"cacheTTL" mapstructure:"cacheTTL"`
}

// Embedder backends.
const (
	BackendONNX    = "onnx"
	BackendVectors = "vectors"
	BackendNone    = "none"
)

// Config aggregates the pipeline settings. Zero values select the defaults
// in ApplyDefaults, so a threshold of exactly 0 cannot be expressed here;
// the config loader rejects it instead of replacing it.
type Config struct {
	SimilarityThreshold float64        `json:"similarityThreshold" yaml:"similarityThreshold" mapstructure:"similarityThreshold"`
	Scoring             ScoringConfig  `json:"scoring" yaml:"scoring" mapstructure:"scoring"`
	Embedder            EmbedderConfig `json:"embedder" yaml:"embedder" mapstructure:"embedder"`
	VocabularyPath      string         `json:"vocabularyPath" yaml:"vocabularyPath" mapstructure:"vocabularyPath"`
}

// DefaultComposites returns the built-in composite rules.
func DefaultComposites() []CompositeRule {
	return []CompositeRule{{Name: "Fullstack", Requires: []string{"Frontend", "Backend"}}}
}

// Clone creates a deep copy of the configuration so callers can mutate safely.
func (c Config) Clone() Config {
	buf, _ := json.Marshal(c)
	var out Config
	_ = json.Unmarshal(buf, &out)
	return out
}

// ApplyDefaults populates zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.SimilarityThreshold == 0 {
		c.SimilarityThreshold = 0.88
	}
	if c.Scoring.Policy == "" {
		c.Scoring.Policy = PolicyCoverage
	}
	if c.Scoring.ActivationThreshold == 0 {
		c.Scoring.ActivationThreshold = 0.3
	}
	if c.Scoring.TokenConceptThreshold == 0 {
		c.Scoring.TokenConceptThreshold = 0.60
	}
	if c.Scoring.ChunkConceptThreshold == 0 {
		c.Scoring.ChunkConceptThreshold = 0.65
	}
	if c.Scoring.Composites == nil {
		c.Scoring.Composites = DefaultComposites()
	}
	if c.Embedder.Backend == "" {
		c.Embedder.Backend = BackendONNX
	}
	if c.Embedder.MaxSeqLen == 0 {
		c.Embedder.MaxSeqLen = 512
	}
	if c.Embedder.CacheEntries == 0 {
		c.Embedder.CacheEntries = DefaultCacheEntries
	}
	if c.Embedder.CacheTTL == 0 {
		c.Embedder.CacheTTL = DefaultCacheTTL
	}
}

// Validate reports settings that cannot be used.
func (c Config) Validate() error {
	if err := checkUnit("similarityThreshold", c.SimilarityThreshold); err != nil {
		return err
	}
	if err := checkUnit("scoring.activationThreshold", c.Scoring.ActivationThreshold); err != nil {
		return err
	}
	if err := checkUnit("scoring.tokenConceptThreshold", c.Scoring.TokenConceptThreshold); err != nil {
		return err
	}
	if err := checkUnit("scoring.chunkConceptThreshold", c.Scoring.ChunkConceptThreshold); err != nil {
		return err
	}
	switch c.Scoring.Policy {
	case PolicyCoverage, PolicyWeighted:
	default:
		return fmt.Errorf("unknown scoring policy %q", c.Scoring.Policy)
	}
	switch c.Embedder.Backend {
	case BackendONNX, BackendVectors, BackendNone:
	default:
		return fmt.Errorf("unknown embedder backend %q", c.Embedder.Backend)
	}
	for _, rule := range c.Scoring.Composites {
		if rule.Name == "" || len(rule.Requires) == 0 {
			return fmt.Errorf("composite rule %q needs a name and required categories", rule.Name)
		}
	}
	return nil
}

func checkUnit(name string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%s must be within [0,1], got %v", name, v)
	}
	return nil
}
