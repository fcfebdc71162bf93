package profiler

import "context"

// UnitKind distinguishes single tokens from multi-token chunks.
type UnitKind int

const (
	// KindToken is a single word or punctuation mark.
	KindToken UnitKind = iota
	// KindChunk is a contiguous phrase of two or more tokens.
	KindChunk
)

// PersonLabel is the entity label used for person names.
const PersonLabel = "PER"

// TextUnit is an atomic span of input text with its optional vector.
// Start and End are token offsets (End exclusive); Line is the line of the
// first token.
type TextUnit struct {
	Text    string
	Lower   string
	Start   int
	End     int
	Line    int
	Kind    UnitKind
	IsStop  bool
	IsPunct bool
	Vector  []float32
}

// HasVector reports whether the unit carries an embedding.
func (u TextUnit) HasVector() bool {
	return len(u.Vector) > 0
}

// Entity is a recognised named-entity span.
type Entity struct {
	Text  string
	Label string
	Start int
	End   int
}

// Document is the analysed representation of one input text.
type Document struct {
	Text     string
	Tokens   []TextUnit
	Chunks   []TextUnit
	Entities []Entity
}

// Units returns tokens followed by chunks.
func (d *Document) Units() []TextUnit {
	if d == nil {
		return nil
	}
	out := make([]TextUnit, 0, len(d.Tokens)+len(d.Chunks))
	out = append(out, d.Tokens...)
	out = append(out, d.Chunks...)
	return out
}

// Analyzer turns raw text into tokens, chunks, entities and vectors.
// Implementations must be safe for concurrent use.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (*Document, error)
}
