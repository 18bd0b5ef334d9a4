package extract

import "strings"

// Candidate is a textual span worth upserting as a concept label: a single
// long-enough word, a short noun-phrase-like run of words, or a run of
// capitalised tokens (a likely proper noun). Positions record every token
// index the candidate's first word occurred at, used downstream to build
// co-occurrence pairs within a window.
type Candidate struct {
	Label     string // normalised, used as the concept label
	Display   string // original casing of the first occurrence
	Positions []int
}

// maxNGram is the longest noun-phrase-like word run considered as a single
// candidate label.
const maxNGram = 4

// ExtractCandidates implements spec.md §4.C's candidate-label extraction
// step: every sufficiently long single word, every 2-4 word run where each
// word clears the same length bar, and every run of capitalised tokens
// (regardless of length, since proper nouns are often short) becomes a
// candidate. Candidates are deduplicated by normalised label, merging their
// position lists.
func ExtractCandidates(text string) []Candidate {
	tokens := Tokenize(text)
	byLabel := make(map[string]*Candidate)
	order := make([]string, 0)

	add := func(label, display string, pos int) {
		if c, ok := byLabel[label]; ok {
			c.Positions = append(c.Positions, pos)
			return
		}
		byLabel[label] = &Candidate{Label: label, Display: display, Positions: []int{pos}}
		order = append(order, label)
	}

	for _, tok := range tokens {
		if len(tok.Norm) >= minCandidateWordLen && !isStopword(tok.Norm) {
			add(tok.Norm, tok.Raw, tok.Position)
		}
	}

	for n := 2; n <= maxNGram; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			window := tokens[i : i+n]
			if !allQualify(window) {
				continue
			}
			label := joinNorm(window)
			display := joinRaw(window)
			add(label, display, window[0].Position)
		}
	}

	for _, run := range capitalizedRuns(tokens) {
		if len(run) == 0 {
			continue
		}
		label := joinNorm(run)
		display := joinRaw(run)
		add(label, display, run[0].Position)
	}

	out := make([]Candidate, 0, len(order))
	for _, label := range order {
		out = append(out, *byLabel[label])
	}
	return out
}

func allQualify(tokens []Token) bool {
	for _, t := range tokens {
		if len(t.Norm) < minCandidateWordLen || isStopword(t.Norm) {
			return false
		}
	}
	return true
}

func joinNorm(tokens []Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.Norm
	}
	return strings.Join(parts, " ")
}

func joinRaw(tokens []Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.Raw
	}
	return strings.Join(parts, " ")
}

// capitalizedRuns returns every maximal run of consecutive tokens that
// start with an uppercase letter — candidate proper nouns like "Rio de
// Janeiro" or "São Paulo", which would otherwise be excluded by the
// minimum word length or stopword rules applied to common short
// connectors ("de", "da") inside the name.
func capitalizedRuns(tokens []Token) [][]Token {
	var runs [][]Token
	var current []Token
	for _, t := range tokens {
		if isCapitalized(t.Raw) {
			current = append(current, t)
			continue
		}
		// allow a single lowercase connector word inside a run (e.g. "de", "da")
		if len(current) > 0 && len(t.Norm) <= 2 {
			current = append(current, t)
			continue
		}
		if len(current) > 1 {
			runs = append(runs, trimTrailingLowercase(current))
		}
		current = nil
	}
	if len(current) > 1 {
		runs = append(runs, trimTrailingLowercase(current))
	}
	return runs
}

func trimTrailingLowercase(run []Token) []Token {
	end := len(run)
	for end > 0 && !isCapitalized(run[end-1].Raw) {
		end--
	}
	return run[:end]
}
