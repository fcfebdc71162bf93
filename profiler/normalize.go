package profiler

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText prepares résumé text for tokenization: NFKC composition,
// surrounding whitespace trimmed, and control characters other than line
// breaks and tabs dropped. Line structure is kept for name detection.
func NormalizeText(text string) string {
	return strings.Map(keepPrintable, strings.TrimSpace(norm.NFKC.String(text)))
}

func keepPrintable(r rune) rune {
	if r != '\n' && r != '\t' && unicode.IsControl(r) {
		return -1
	}
	return r
}

// NormalizeTerm returns the canonical form of a vocabulary term or phrase:
// NFKC, lower case, single spaces.
func NormalizeTerm(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(norm.NFKC.String(s)), " "))
}

// uniqueTerms canonicalizes terms, dropping blanks and repeats.
func uniqueTerms(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		key := NormalizeTerm(t)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	return out
}
