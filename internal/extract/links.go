package extract

import (
	"regexp"
	"strings"
)

// CooccurrencePair names two candidate labels observed within windowSize
// tokens of each other — the raw material for a Similarity link between
// their concepts (spec.md §4.C step 4). Count records how many
// co-occurring windows produced this pair, used as a weight when the
// cultivation seed phase turns pairs into truth-value evidence.
type CooccurrencePair struct {
	A, B  string
	Count int
}

// defaultCooccurrenceWindow is the token span within which two candidates
// are considered to co-occur.
const defaultCooccurrenceWindow = 12

// Cooccurrences builds CooccurrencePair values for every pair of distinct
// candidates whose nearest occurrences fall within windowSize tokens of
// each other. windowSize <= 0 uses defaultCooccurrenceWindow.
func Cooccurrences(candidates []Candidate, windowSize int) []CooccurrencePair {
	if windowSize <= 0 {
		windowSize = defaultCooccurrenceWindow
	}

	counts := make(map[[2]string]int)
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			if n := windowHits(candidates[i].Positions, candidates[j].Positions, windowSize); n > 0 {
				key := pairKey(candidates[i].Label, candidates[j].Label)
				counts[key] += n
			}
		}
	}

	pairs := make([]CooccurrencePair, 0, len(counts))
	for key, count := range counts {
		pairs = append(pairs, CooccurrencePair{A: key[0], B: key[1], Count: count})
	}
	return pairs
}

func pairKey(a, b string) [2]string {
	if a <= b {
		return [2]string{a, b}
	}
	return [2]string{b, a}
}

// windowHits counts the (occurrence of A, occurrence of B) pairs that lie
// within window tokens of each other.
func windowHits(posA, posB []int, window int) int {
	hits := 0
	for _, a := range posA {
		for _, b := range posB {
			d := a - b
			if d < 0 {
				d = -d
			}
			if d <= window {
				hits++
			}
		}
	}
	return hits
}

// CopulaPair is a (subject, object) pair detected by a copular sentence
// pattern ("X is a/an Y", "X são Y", "X é um Y") — the raw material for an
// Inheritance link (spec.md §4.C step 5).
type CopulaPair struct {
	Subject, Object string
}

// copulaPatterns covers English "is/are (a/an)" and Portuguese "é/são (um/
// uma)" constructions, the two languages the ingestion pipeline targets.
var copulaPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b([\p{L}][\p{L}\s]{1,40}?)\s+(?:is|are)\s+(?:a|an)?\s*([\p{L}][\p{L}\s]{1,40}?)[\.\n,;]`),
	regexp.MustCompile(`(?i)\b([\p{L}][\p{L}\s]{1,40}?)\s+(?:é|são)\s+(?:um|uma)?\s*([\p{L}][\p{L}\s]{1,40}?)[\.\n,;]`),
}

// DetectCopulas scans text for copular sentence patterns and returns one
// CopulaPair per match, with both sides normalised the same way candidate
// labels are (lowercased, diacritic-folded).
func DetectCopulas(text string) []CopulaPair {
	var pairs []CopulaPair
	for _, re := range copulaPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			subj := normalisePhrase(m[1])
			obj := normalisePhrase(m[2])
			if subj == "" || obj == "" || subj == obj {
				continue
			}
			pairs = append(pairs, CopulaPair{Subject: subj, Object: obj})
		}
	}
	return pairs
}

func normalisePhrase(s string) string {
	tokens := Tokenize(s)
	if len(tokens) == 0 {
		return ""
	}
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.Norm
	}
	return strings.Join(parts, " ")
}
