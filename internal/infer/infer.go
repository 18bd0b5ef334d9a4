// Package infer applies the NARS deduction/induction/abduction rules
// (internal/truth) across pairs of existing links that share a concept,
// producing new or reinforced links in the knowledge base. The chaining
// strategy — walk link pairs through a shared middle concept, skip
// self-referential chains, cap and prioritise output — is grounded on the
// transitive-inference method of the nornicdb inference engine
// (other_examples/..._nornicdb-pkg-inference-inference.go.go's
// SuggestTransitive, "if A→B and B→C, then A→C with confidence"),
// generalised from a single transitive rule to all three NARS syllogisms.
package infer

import (
	"log"
	"sort"

	"github.com/epistemicgarden/cultivator/internal/kb"
	"github.com/epistemicgarden/cultivator/internal/truth"
)

// Rule names the NARS syllogism a Derivation was produced by.
type Rule string

const (
	RuleDeduction Rule = "deduction"
	RuleInduction Rule = "induction"
	RuleAbduction Rule = "abduction"
)

// Derivation is a candidate link inferred from two premise links sharing a
// concept, before it has been committed back into the store.
type Derivation struct {
	Kind         kb.Kind
	Subject      string // concept ID
	Object       string // concept ID
	Truth        truth.Value
	Rule         Rule
	PremiseLinks [2]string
}

// priority is the premise-confidence product used to rank derivations
// against each other when the per-cycle cap forces a cutoff — stronger
// premises produce more trustworthy derivations and survive first.
// confByLink maps each premise link ID to its confidence.
func (d Derivation) priority(confByLink map[string]float64) float64 {
	return confByLink[d.PremiseLinks[0]] * confByLink[d.PremiseLinks[1]]
}

// Config tunes one inference cycle.
type Config struct {
	// MaxDerivationsPerCycle caps how many derived links are committed to
	// the store in a single Run call; 0 means unbounded.
	MaxDerivationsPerCycle int
}

// Engine runs inference cycles over a kb.Store.
type Engine struct {
	cfg Config
}

// New constructs an Engine with cfg.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// binary is a link reduced to its two-concept (from, to) shape: the first
// participant is from and the second is to, whatever their roles. Only
// non-archived 2-participant links participate in chaining; richer N-ary
// links are left untouched by inference, matching spec.md §4.D's scope.
type binary struct {
	link *kb.Link
	from string
	to   string
}

func asBinary(l *kb.Link) (binary, bool) {
	if l.Archived || len(l.Participants) != 2 {
		return binary{}, false
	}
	return binary{link: l, from: l.Participants[0].ConceptID, to: l.Participants[1].ConceptID}, true
}

// Run executes one inference cycle: every pair of binary links chained
// through a shared middle concept produces at most one deduction, one
// induction and one abduction candidate, deduplicated per unordered
// premise pair within the cycle. Self-deduction (subject == derived
// object) is skipped. Surviving candidates are ranked by premise-confidence
// product and the top MaxDerivationsPerCycle are committed back into store
// via UpsertLink; the rest are dropped (one log line with the counts,
// not an error — spec.md §7 treats an over-full cycle as expected, not
// exceptional).
func (e *Engine) Run(store *kb.Store) ([]Derivation, error) {
	links := store.AllLinks()
	binaries := make([]binary, 0, len(links))
	for _, l := range links {
		if b, ok := asBinary(l); ok {
			binaries = append(binaries, b)
		}
	}

	byFrom := make(map[string][]binary)
	for _, b := range binaries {
		byFrom[b.from] = append(byFrom[b.from], b)
	}

	seen := make(map[[2]string]bool)
	var derivations []Derivation

	for _, b1 := range binaries {
		// b1: S -> M. Find every b2: M -> P (deduction), or other chainings
		// through the shared middle concept M = b1.to.
		for _, b2 := range byFrom[b1.to] {
			if b1.link.ID == b2.link.ID {
				continue
			}
			key := premiseKey(b1.link.ID, b2.link.ID)
			if seen[key] {
				continue
			}
			seen[key] = true

			if b1.from == b2.to {
				continue // self-deduction: S -> M -> S, not informative
			}

			d := Derivation{
				Kind:         b1.link.Kind,
				Subject:      b1.from,
				Object:       b2.to,
				Truth:        truth.Deduce(b1.link.Truth, b2.link.Truth),
				Rule:         RuleDeduction,
				PremiseLinks: [2]string{b1.link.ID, b2.link.ID},
			}
			derivations = append(derivations, d)
		}
	}

	// Induction: M -> P (b1) and M -> S (b2), both premises share the same
	// origin concept M, derive S -> P with confidence driven by how
	// reliably M implies both its targets.
	for _, b1 := range binaries {
		for _, b2 := range byFrom[b1.from] {
			if b1.link.ID == b2.link.ID {
				continue
			}
			if b1.to == b2.to {
				continue // same target on both sides, nothing to relate
			}
			key := premiseKey(b1.link.ID, b2.link.ID)
			if seen[key] {
				continue
			}
			seen[key] = true

			d := Derivation{
				Kind:         b1.link.Kind,
				Subject:      b2.to,
				Object:       b1.to,
				Truth:        truth.Induce(b1.link.Truth, b2.link.Truth),
				Rule:         RuleInduction,
				PremiseLinks: [2]string{b1.link.ID, b2.link.ID},
			}
			derivations = append(derivations, d)
		}
	}

	byTo := make(map[string][]binary)
	for _, b := range binaries {
		byTo[b.to] = append(byTo[b.to], b)
	}

	// Abduction: P -> M (b1) and S -> M (b2), both premises share the same
	// destination concept M, derive S -> P.
	for _, b1 := range binaries {
		for _, b2 := range byTo[b1.to] {
			if b1.link.ID == b2.link.ID {
				continue
			}
			if b1.from == b2.from {
				continue
			}
			key := premiseKey(b1.link.ID, b2.link.ID)
			if seen[key] {
				continue
			}
			seen[key] = true

			d := Derivation{
				Kind:         b1.link.Kind,
				Subject:      b2.from,
				Object:       b1.from,
				Truth:        truth.Abduce(b1.link.Truth, b2.link.Truth),
				Rule:         RuleAbduction,
				PremiseLinks: [2]string{b1.link.ID, b2.link.ID},
			}
			derivations = append(derivations, d)
		}
	}

	confByLink := make(map[string]float64, len(binaries))
	for _, b := range binaries {
		confByLink[b.link.ID] = b.link.Truth.Confidence()
	}
	sort.Slice(derivations, func(i, j int) bool {
		return derivations[i].priority(confByLink) > derivations[j].priority(confByLink)
	})
	if e.cfg.MaxDerivationsPerCycle > 0 && len(derivations) > e.cfg.MaxDerivationsPerCycle {
		dropped := len(derivations) - e.cfg.MaxDerivationsPerCycle
		log.Printf("infer: cycle produced %d derivations, keeping top %d (dropped %d)", len(derivations), e.cfg.MaxDerivationsPerCycle, dropped)
		derivations = derivations[:e.cfg.MaxDerivationsPerCycle]
	}

	committed := make([]Derivation, 0, len(derivations))
	for _, d := range derivations {
		participants := []kb.Participant{
			{ConceptID: d.Subject, Role: kb.RoleSubject, Position: 0},
			{ConceptID: d.Object, Role: kb.RoleObject, Position: 1},
		}
		if _, _, err := store.UpsertLink(d.Kind, participants, d.Truth); err != nil {
			// A dangling participant here means a concept was archived or
			// removed between Run's read of the store and this commit; skip
			// it rather than aborting the whole cycle.
			log.Printf("infer: dropping derivation %s->%s (%s): %v", d.Subject, d.Object, d.Rule, err)
			continue
		}
		committed = append(committed, d)
	}

	return committed, nil
}

func premiseKey(a, b string) [2]string {
	if a <= b {
		return [2]string{a, b}
	}
	return [2]string{b, a}
}
