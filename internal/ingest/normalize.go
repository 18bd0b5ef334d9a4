package ingest

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/epistemicgarden/cultivator/internal/extract"
)

// hyphenBreak matches a word broken across a line wrap with an explicit
// hyphen: "pala-\nvra" -> "palavra". PDF text extraction routinely leaves
// these behind because the hyphen and newline survive the layout but the
// word boundary they encode does not.
var hyphenBreak = regexp.MustCompile(`(\p{L})-\r?\n(\p{L})`)

// bareLineBreak matches a word broken across a line wrap with no hyphen at
// all, which PDF extractors produce when a justified line simply ends
// mid-word. Portuguese text is reflowed here more than English because
// accented letters are more likely to fall right at the wrap column.
var bareLineBreak = regexp.MustCompile(`(\p{Ll})\r?\n(\p{Ll})`)

// suffixFragments covers the most common Portuguese word endings that
// survive as an orphaned fragment on the next line after a bad wrap — e.g.
// "informa\nção" rejoining to "informação" even though rejoining left no
// hyphen and the next line starts mid-word rather than at a new sentence.
var suffixFragments = regexp.MustCompile(`(?i)\n(ção|mente|dade|ável|ível|ismo|ista)\b`)

// nominalSuffixes is the closed set of Portuguese nominal/adjectival
// suffixes from spec.md §4.F that commonly survive extraction as a separate
// space-delimited token after the word they belong to: "opera cao" rejoins
// to "operacao". Matched case-insensitively against a bare (diacritic-free)
// word, since extraction frequently drops accents on the split suffix too.
var nominalSuffixes = map[string]bool{
	"cao": true, "coes": true, "cia": true, "encia": true, "ancia": true,
	"mente": true, "dade": true, "avel": true, "ivel": true, "nal": true,
	"gem": true, "tico": true, "tica": true, "tura": true, "mento": true,
	"sao": true, "soes": true, "oso": true, "osa": true, "ivo": true,
	"iva": true, "ismo": true, "ista": true,
}

// suffixJoin rejoins "WORD<space>SUFFIX" pairs where SUFFIX is in
// nominalSuffixes, the spec.md §4.F "suffix regex" layer. Word boundaries
// on both sides are required so genuinely separate words never merge.
var suffixJoinPattern = regexp.MustCompile(`(?i)\b(\p{L}{2,})\s+(cao|coes|cia|encia|ancia|mente|dade|avel|ivel|nal|gem|tico|tica|tura|mento|sao|soes|oso|osa|ivo|iva|ismo|ista)\b`)

func suffixJoin(text string) string {
	return suffixJoinPattern.ReplaceAllStringFunc(text, func(m string) string {
		parts := suffixJoinPattern.FindStringSubmatch(m)
		suffix := strings.ToLower(parts[2])
		if !nominalSuffixes[suffix] {
			return m
		}
		return parts[1] + parts[2]
	})
}

// shortWordWhitelist is the curated set of genuine short Portuguese words
// the fragment heuristic must never merge away, even though they are
// shorter than the 6-character accumulation floor and not stopwords.
var shortWordWhitelist = map[string]bool{
	"sol": true, "caso": true, "base": true, "mar": true, "luz": true,
	"voz": true, "paz": true, "pai": true, "mae": true, "rei": true,
	"lei": true, "fe": true, "rua": true, "boa": true, "mao": true,
	"ceu": true, "chao": true, "vida": true, "casa": true,
}

// verbSuffixPattern matches common Portuguese verb-conjugation endings, so
// short inflected verb forms ("foi", "tem", "deu", "vou") are never treated
// as extraction fragments to be merged.
var verbSuffixPattern = regexp.MustCompile(`(?i)(ar|er|ir|ou|ei|ia|am|em|eu|oi)$`)

// isFragmentToken reports whether tok looks like a broken-extraction
// fragment per spec.md §4.F's fragment heuristic: 2-4 pure-alphabetic
// lowercase letters that are not a stopword, not whitelisted, and don't
// look like a verb conjugation.
func isFragmentToken(tok string) bool {
	n := len([]rune(tok))
	if n < 2 || n > 4 {
		return false
	}
	for _, r := range tok {
		if !unicode.IsLower(r) {
			return false
		}
	}
	if extract.IsStopword(tok) || shortWordWhitelist[tok] {
		return false
	}
	if verbSuffixPattern.MatchString(tok) {
		return false
	}
	return true
}

// mergeFragments implements spec.md §4.F's fragment heuristic: a short
// (2-4 letter) token that is not a stopword, not whitelisted, and does not
// look like a verb form is greedily merged with the lowercase tokens that
// follow it until the accumulated span reaches at least 6 characters and
// the next token is itself not a fragment. Merging stops at a stopword or a
// capitalised (proper-noun) token, which are never absorbed.
//
// Example: "arm azenagem eficiente" -> "armazenagem eficiente" — "arm"
// merges with "azenagem" (6+ chars, not itself a fragment) and stops before
// "eficiente", which is a genuine whole word.
func mergeFragments(text string) string {
	fields := strings.Fields(text)
	out := make([]string, 0, len(fields))

	i := 0
	for i < len(fields) {
		word := fields[i]
		lower := strings.ToLower(word)
		if !isFragmentToken(lower) {
			out = append(out, word)
			i++
			continue
		}

		merged := word
		mergedLen := len([]rune(word))
		j := i + 1
		for j < len(fields) {
			next := fields[j]
			if next == "" || isStopwordLike(next) || startsCapitalized(next) {
				break
			}
			if !isAllLower(next) {
				break
			}
			merged += next
			mergedLen += len([]rune(next))
			j++
			if mergedLen >= 6 && !isFragmentToken(strings.ToLower(next)) {
				break
			}
		}
		out = append(out, merged)
		if j == i { // safety: next loop must always advance
			j++
		}
		i = j
	}
	return strings.Join(out, " ")
}

func isStopwordLike(tok string) bool {
	trimmed := strings.TrimFunc(tok, func(r rune) bool { return !unicode.IsLetter(r) })
	return extract.IsStopword(strings.ToLower(trimmed))
}

func startsCapitalized(tok string) bool {
	r := []rune(strings.TrimFunc(tok, func(r rune) bool { return !unicode.IsLetter(r) }))
	if len(r) == 0 {
		return false
	}
	return unicode.IsUpper(r[0])
}

func isAllLower(tok string) bool {
	hasLetter := false
	for _, r := range tok {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsLower(r) {
				return false
			}
		}
	}
	return hasLetter
}

// FixFragments repairs words PDF extraction broke across line boundaries
// and across spaces. It is deliberately conservative: it only rejoins
// patterns that are extremely unlikely to occur as genuine separate words,
// trading a rare missed repair for never corrupting correctly-wrapped text.
// Order matters: line-break repairs run first since they operate on raw
// newlines that word-level merging would otherwise treat as token
// boundaries; suffix-joining runs before the general fragment heuristic so
// a known closed-set suffix is rejoined deterministically rather than
// accumulated by the greedy heuristic.
func FixFragments(text string) string {
	text = hyphenBreak.ReplaceAllString(text, "$1$2")
	text = suffixFragments.ReplaceAllString(text, "$1")
	text = bareLineBreak.ReplaceAllString(text, "$1$2")
	text = suffixJoin(text)
	text = mergeFragments(text)
	return text
}
