package extract

import (
	"context"
	"testing"

	"github.com/epistemicgarden/cultivator/internal/embed"
)

func TestTokenize_FoldsDiacriticsAndStripsPunctuation(t *testing.T) {
	tokens := Tokenize("O gato, o felino e o ratão.")
	if len(tokens) != 7 {
		t.Fatalf("expected 7 tokens, got %d", len(tokens))
	}
	if tokens[1].Norm != "gato" {
		t.Errorf("expected punctuation stripped, got %q", tokens[1].Norm)
	}
	if tokens[6].Norm != "ratao" {
		t.Errorf("expected diacritics folded and punctuation stripped, got %q", tokens[6].Norm)
	}
}

func TestExtractCandidates_SingleWordMinLength(t *testing.T) {
	cands := ExtractCandidates("a cat is a small animal")
	labels := labelSet(cands)
	if _, ok := labels["animal"]; !ok {
		t.Errorf("expected 'animal' (len 6) to be a candidate, got %v", labels)
	}
	if _, ok := labels["cat"]; ok {
		t.Errorf("did not expect 'cat' (len 3) to be a candidate on its own")
	}
}

func TestExtractCandidates_CapitalizedRun(t *testing.T) {
	cands := ExtractCandidates("We visited Rio de Janeiro last summer")
	labels := labelSet(cands)
	if _, ok := labels["rio de janeiro"]; !ok {
		t.Errorf("expected capitalized run 'rio de janeiro', got %v", labels)
	}
}

func TestCooccurrences_PairsNearbyLabels(t *testing.T) {
	cands := []Candidate{
		{Label: "felino", Positions: []int{2}},
		{Label: "animal", Positions: []int{4}},
		{Label: "distante", Positions: []int{100}},
	}
	pairs := Cooccurrences(cands, 12)
	if len(pairs) != 1 {
		t.Fatalf("expected 1 nearby pair, got %d: %+v", len(pairs), pairs)
	}
}

func TestDetectCopulas_EnglishAndPortuguese(t *testing.T) {
	pairs := DetectCopulas("A cat is an animal. O gato é um felino.")
	if len(pairs) != 2 {
		t.Fatalf("expected 2 copula pairs, got %d: %+v", len(pairs), pairs)
	}
}

func TestClassifier_PicksClosestPrototype(t *testing.T) {
	c := NewClassifier(embed.NewLocalEmbedder(128))
	intent, score, err := c.Classify(context.Background(), "snapshot the store and restore it later")
	if err != nil {
		t.Fatal(err)
	}
	if intent != IntentCommand {
		t.Errorf("expected IntentCommand, got %v (score %v)", intent, score)
	}
}

func labelSet(cands []Candidate) map[string]bool {
	set := make(map[string]bool, len(cands))
	for _, c := range cands {
		set[c.Label] = true
	}
	return set
}
