package infer

import (
	"testing"

	"github.com/epistemicgarden/cultivator/internal/kb"
	"github.com/epistemicgarden/cultivator/internal/truth"
)

func newTestStore(t *testing.T) *kb.Store {
	t.Helper()
	return kb.NewStore(kb.Config{EmbeddingDim: 4})
}

func mustConcept(t *testing.T, s *kb.Store, label string) *kb.Concept {
	t.Helper()
	c, _, err := s.UpsertConcept(label, nil)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func link(t *testing.T, s *kb.Store, from, to *kb.Concept, f, c float64) {
	t.Helper()
	delta, err := truth.FromFrequencyConfidence(f, c, truth.EvidentialHorizon)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.UpsertLink(kb.KindInheritance, []kb.Participant{
		{ConceptID: from.ID, Role: kb.RoleSubject},
		{ConceptID: to.ID, Role: kb.RoleObject},
	}, delta); err != nil {
		t.Fatal(err)
	}
}

func TestEngine_Run_DeducesTransitiveChain(t *testing.T) {
	s := newTestStore(t)
	gato := mustConcept(t, s, "gato")
	felino := mustConcept(t, s, "felino")
	animal := mustConcept(t, s, "animal")

	link(t, s, gato, felino, 0.9, 0.8)
	link(t, s, felino, animal, 0.95, 0.85)

	eng := New(Config{})
	derivations, err := eng.Run(s)
	if err != nil {
		t.Fatal(err)
	}

	var found bool
	for _, d := range derivations {
		if d.Rule == RuleDeduction && d.Subject == gato.ID && d.Object == animal.ID {
			found = true
			wantF := 0.9 * 0.95
			if diff := d.Truth.Frequency() - wantF; diff > 1e-6 || diff < -1e-6 {
				t.Errorf("deduced frequency = %v, want %v", d.Truth.Frequency(), wantF)
			}
		}
	}
	if !found {
		t.Fatal("expected a deduced gato -> animal link")
	}
}

func TestEngine_Run_SkipsSelfDeduction(t *testing.T) {
	s := newTestStore(t)
	a := mustConcept(t, s, "a")
	b := mustConcept(t, s, "b")
	link(t, s, a, b, 0.9, 0.8)
	link(t, s, b, a, 0.9, 0.8)

	eng := New(Config{})
	derivations, err := eng.Run(s)
	if err != nil {
		t.Fatal(err)
	}
	for _, d := range derivations {
		if d.Rule == RuleDeduction && d.Subject == a.ID && d.Object == a.ID {
			t.Fatal("expected self-deduction a -> b -> a to be skipped")
		}
	}
}

func TestEngine_Run_RespectsDerivationCap(t *testing.T) {
	s := newTestStore(t)
	root := mustConcept(t, s, "root")
	for i := 0; i < 5; i++ {
		mid := mustConcept(t, s, string(rune('a'+i)))
		leaf := mustConcept(t, s, string(rune('A'+i)))
		link(t, s, root, mid, 0.9, 0.8)
		link(t, s, mid, leaf, 0.9, 0.8)
	}

	eng := New(Config{MaxDerivationsPerCycle: 2})
	derivations, err := eng.Run(s)
	if err != nil {
		t.Fatal(err)
	}
	if len(derivations) > 2 {
		t.Fatalf("expected at most 2 derivations, got %d", len(derivations))
	}
}
