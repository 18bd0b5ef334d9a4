// Package extract turns raw text into knowledge-base candidates: labelled
// concept mentions, co-occurrence similarity pairs, copular-pattern
// inheritance pairs, and a 4-way intent classification for query-mode
// input. Grounded on the teacher's whitespace-tokenisation MVP constraint
// in internal/domain/knowledge/chunker.go ("no external dependencies") for
// the tokeniser itself, and on search.go's parallel-scoring shape for
// intent classification.
package extract

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// minCandidateWordLen is the shortest word considered on its own as a
// concept-label candidate; shorter words are almost always function words
// that slipped past the stopword list.
const minCandidateWordLen = 5

// Token is one whitespace-delimited word with its position in the source
// text and a normalised form used for matching.
type Token struct {
	Raw      string // as it appeared in the source
	Norm     string // lowercased, diacritic-folded, punctuation-stripped
	Position int    // index among the whitespace-separated fields of the text
}

// Tokenize splits text on whitespace and strips leading/trailing
// punctuation from each word, matching the teacher's strings.Fields MVP
// tokenisation but additionally folding diacritics (via golang.org/x/text)
// so Portuguese words match regardless of accenting — needed because the
// ingestion pipeline's fragment-normalisation pass (spec.md §4.F) can leave
// mixed-accent variants of the same word in adjacent chunks.
func Tokenize(text string) []Token {
	fields := strings.Fields(text)
	tokens := make([]Token, 0, len(fields))
	for i, f := range fields {
		trimmed := strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if trimmed == "" {
			continue
		}
		tokens = append(tokens, Token{
			Raw:      f,
			Norm:     foldDiacritics(strings.ToLower(trimmed)),
			Position: i,
		})
	}
	return tokens
}

// foldDiacritics removes combining marks after NFD decomposition, so
// "açúcar" and "acucar" compare equal — used to de-duplicate label
// candidates across accent variants left over from OCR/PDF extraction.
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicodeMn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

var unicodeMn = unicode.Mn

func isCapitalized(raw string) bool {
	r := []rune(strings.TrimFunc(raw, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}))
	if len(r) == 0 {
		return false
	}
	return unicode.IsUpper(r[0])
}
