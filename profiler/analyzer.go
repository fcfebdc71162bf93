package profiler

import (
	"context"
	"fmt"
)

// TextAnalyzer is the built-in Analyzer: rule-based tokenizer, Portuguese
// stopwords, phrase chunker, capitalization-based person recognizer and an
// Embedder for vectors.
type TextAnalyzer struct {
	embedder Embedder
	terms    map[string]struct{}
}

// NewTextAnalyzer builds an analyzer. embedder may be nil, in which case no
// unit carries a vector. Terms of vocab are never reported as person names.
func NewTextAnalyzer(embedder Embedder, vocab *Vocabulary) *TextAnalyzer {
	a := &TextAnalyzer{embedder: embedder, terms: make(map[string]struct{})}
	if vocab != nil {
		for _, t := range vocab.terms {
			a.terms[t] = struct{}{}
		}
	}
	return a
}

// Analyze tokenizes text, builds chunks and entities and attaches vectors to
// content tokens and chunks.
func (a *TextAnalyzer) Analyze(ctx context.Context, text string) (*Document, error) {
	doc := &Document{Text: text}
	doc.Tokens = Tokenize(text)
	doc.Chunks = Chunk(doc.Tokens)
	doc.Entities = RecognizePersons(doc.Tokens, a.isTerm)
	if err := a.attachVectors(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (a *TextAnalyzer) isTerm(lower string) bool {
	_, ok := a.terms[lower]
	return ok
}

// attachVectors embeds every distinct content token and chunk in one batch.
func (a *TextAnalyzer) attachVectors(ctx context.Context, doc *Document) error {
	if a.embedder == nil {
		return nil
	}
	pos := make(map[string]int)
	var texts []string
	collect := func(units []TextUnit) {
		for _, u := range units {
			if !isContent(u) {
				continue
			}
			if _, ok := pos[u.Lower]; ok {
				continue
			}
			pos[u.Lower] = len(texts)
			texts = append(texts, u.Lower)
		}
	}
	collect(doc.Tokens)
	collect(doc.Chunks)
	if len(texts) == 0 {
		return nil
	}
	vecs, err := a.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed units: %w", err)
	}
	assign := func(units []TextUnit) {
		for i := range units {
			j, ok := pos[units[i].Lower]
			if !ok || j >= len(vecs) {
				continue
			}
			units[i].Vector = vecs[j]
		}
	}
	assign(doc.Tokens)
	assign(doc.Chunks)
	return nil
}
