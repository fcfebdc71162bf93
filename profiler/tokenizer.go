package profiler

import (
	"strings"
	"unicode"
)

// Characters allowed inside a word so that c++, c#, node.js and e-mail
// addresses stay whole. Slashes and hyphens always split: "HTML/CSS" and
// "docker-compose" are two words each, and terms such as "ci/cd" are matched
// as token sequences.
const wordInner = "+#._@'"

// Characters that may not end a word; they are split off as punctuation.
const wordTrailing = "._@'"

// connectors may join content tokens inside a chunk or a person name.
var connectors = map[string]struct{}{
	"de": {}, "da": {}, "do": {}, "das": {}, "dos": {}, "e": {}, "em": {},
}

// Tokenize splits text into word and punctuation units. Offsets are token
// indexes; Line is the zero-based line of the token.
func Tokenize(text string) []TextUnit {
	runes := []rune(text)
	var out []TextUnit
	line := 0
	for i := 0; i < len(runes); {
		r := runes[i]
		if r == '\n' {
			line++
			i++
			continue
		}
		if unicode.IsSpace(r) {
			i++
			continue
		}
		if isWordStart(runes, i) {
			j := i + 1
			for j < len(runes) && (isWordRune(runes[j]) || strings.ContainsRune(wordInner, runes[j])) {
				j++
			}
			for j > i+1 && strings.ContainsRune(wordTrailing, runes[j-1]) {
				j--
			}
			out = append(out, newToken(string(runes[i:j]), len(out), line, false))
			i = j
			continue
		}
		out = append(out, newToken(string(r), len(out), line, true))
		i++
	}
	return out
}

func newToken(text string, pos, line int, punct bool) TextUnit {
	lower := strings.ToLower(text)
	return TextUnit{
		Text:    text,
		Lower:   lower,
		Start:   pos,
		End:     pos + 1,
		Line:    line,
		Kind:    KindToken,
		IsPunct: punct,
		IsStop:  !punct && IsStopword(lower),
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

// isWordStart accepts letters and digits, and a leading dot directly followed
// by a letter (".net").
func isWordStart(runes []rune, i int) bool {
	r := runes[i]
	if isWordRune(r) {
		return true
	}
	if r != '.' || i+1 >= len(runes) || !unicode.IsLetter(runes[i+1]) {
		return false
	}
	return i == 0 || unicode.IsSpace(runes[i-1])
}

// Chunk groups maximal runs of content tokens into phrase units. A single
// connector word may join two content tokens. Chunks have at least two tokens
// and never cross punctuation or line breaks.
func Chunk(tokens []TextUnit) []TextUnit {
	var out []TextUnit
	for i := 0; i < len(tokens); {
		if !isContent(tokens[i]) {
			i++
			continue
		}
		j := i
		for j+1 < len(tokens) && tokens[j+1].Line == tokens[i].Line {
			next := tokens[j+1]
			if isContent(next) {
				j++
				continue
			}
			if _, ok := connectors[next.Lower]; ok && j+2 < len(tokens) &&
				isContent(tokens[j+2]) && tokens[j+2].Line == tokens[i].Line {
				j += 2
				continue
			}
			break
		}
		if j > i {
			out = append(out, joinTokens(tokens[i:j+1]))
		}
		i = j + 1
	}
	return out
}

func isContent(u TextUnit) bool {
	return !u.IsStop && !u.IsPunct
}

func joinTokens(span []TextUnit) TextUnit {
	texts := make([]string, len(span))
	lowers := make([]string, len(span))
	for i, t := range span {
		texts[i] = t.Text
		lowers[i] = t.Lower
	}
	return TextUnit{
		Text:  strings.Join(texts, " "),
		Lower: strings.Join(lowers, " "),
		Start: span[0].Start,
		End:   span[len(span)-1].End,
		Line:  span[0].Line,
		Kind:  KindChunk,
	}
}
