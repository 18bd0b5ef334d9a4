package cultivate

import (
	"context"
	"fmt"

	"github.com/epistemicgarden/cultivator/internal/embed"
	"github.com/epistemicgarden/cultivator/internal/event"
	"github.com/epistemicgarden/cultivator/internal/extract"
	"github.com/epistemicgarden/cultivator/internal/kb"
	"github.com/epistemicgarden/cultivator/internal/truth"
)

// copulaTruth is the initial truth value assigned to a link inferred from
// a copular sentence pattern ("X is a Y"): moderately confident since it
// comes from a shallow regex match rather than a parsed predicate, but
// strongly positive since the pattern, when it matches, is rarely wrong.
var copulaTruth = mustTruth(0.9, 0.5)

// cooccurrenceBaseConfidence scales a Similarity link's initial truth by
// how many times its two concepts co-occurred within a window in the same
// seed call — more co-occurrences, more confidence, capped by the NARS
// evidential horizon's own saturation.
const cooccurrenceBaseConfidence = 0.3

func mustTruth(f, c float64) truth.Value {
	v, err := truth.FromFrequencyConfidence(f, c, truth.EvidentialHorizon)
	if err != nil {
		panic(err) // constant inputs; a failure here is a programming error
	}
	return v
}

// candidatePrep pairs an extracted candidate with the embedding computed
// for it ahead of the commit lock.
type candidatePrep struct {
	cand extract.Candidate
	vec  []float32
}

// copulaPrep carries a copula pair's subject/object labels plus an
// embedding for whichever side wasn't already a known concept when
// prepareSeed ran a read-only label lookup. That embedding goes to waste
// if commitSeed later finds the concept was created meanwhile by another
// cycle — the cost optimistic concurrency accepts in exchange for never
// holding the write lock during embedder I/O.
type copulaPrep struct {
	pair    extract.CopulaPair
	subjVec []float32
	objVec  []float32
}

// seedPlan is everything seed needs to commit, prepared entirely against a
// read-only view of the store: nothing is written to the graph until
// commitSeed runs under the orchestrator's lock.
type seedPlan struct {
	candidates []candidatePrep
	copulas    []copulaPrep
}

// prepareSeed implements the read/embed half of spec.md §4.E's Seed phase
// and spec.md §5's optimistic-concurrency requirement: "concept embedding
// and similarity candidate search are performed against a read-only
// snapshot of the index" — every embedder call and label lookup here runs
// without the orchestrator's write lock held, so a slow embedder backend
// never blocks another cycle's commit, and chunks processed concurrently
// by the ingestion pipeline's worker pool can embed in parallel. Nothing
// is written to the store.
func (o *Orchestrator) prepareSeed(ctx context.Context, text string) (*seedPlan, error) {
	candidates := extract.ExtractCandidates(text)
	plan := &seedPlan{}

	var failures int
	for _, cand := range candidates {
		vec, err := o.embedder.Embed(ctx, cand.Display, embed.ModeDocument)
		if err != nil {
			failures++
			continue
		}
		plan.candidates = append(plan.candidates, candidatePrep{cand: cand, vec: vec})
	}
	if len(candidates) > 0 && failures == len(candidates) {
		return nil, fmt.Errorf("seed: all %d candidates failed to embed", failures)
	}

	for _, pair := range extract.DetectCopulas(text) {
		cp := copulaPrep{pair: pair}
		if _, err := o.store.QueryByLabel(pair.Subject); err != nil {
			if vec, embedErr := o.embedder.Embed(ctx, pair.Subject, embed.ModeDocument); embedErr == nil {
				cp.subjVec = vec
			}
		}
		if _, err := o.store.QueryByLabel(pair.Object); err != nil {
			if vec, embedErr := o.embedder.Embed(ctx, pair.Object, embed.ModeDocument); embedErr == nil {
				cp.objVec = vec
			}
		}
		plan.copulas = append(plan.copulas, cp)
	}

	return plan, nil
}

// commitSeed implements the write half of spec.md §4.E's Seed phase: every
// upsert is a single atomic call into the store (UpsertConcept/UpsertLink
// already re-validate internally against whatever state exists at commit
// time), so no separate re-validation step is needed beyond calling them.
// The caller must hold the orchestrator's lock — this is the "commit of a
// prepared batch" spec.md §5 describes.
func (o *Orchestrator) commitSeed(jobID string, plan *seedPlan) (created, reinforced, links []string) {
	if plan == nil {
		return nil, nil, nil
	}

	labelToID := make(map[string]string, len(plan.candidates))
	candidatesOnly := make([]extract.Candidate, 0, len(plan.candidates))
	for _, p := range plan.candidates {
		candidatesOnly = append(candidatesOnly, p.cand)

		c, isNew, upsertErr := o.store.UpsertConcept(p.cand.Display, p.vec)
		if upsertErr != nil {
			continue
		}
		labelToID[p.cand.Label] = c.ID

		if isNew {
			created = append(created, c.ID)
			o.publish(event.KindConceptCreated, event.ConceptCreated{
				JobID: jobID, ConceptID: c.ID, Label: c.Label,
				Frequency: c.Truth.Frequency(), Confidence: c.Truth.Confidence(),
			})
		} else {
			reinforced = append(reinforced, c.ID)
			o.publish(event.KindConceptReinforced, event.ConceptReinforced{
				JobID: jobID, ConceptID: c.ID, Label: c.Label, MentionCount: c.MentionCount,
				Frequency: c.Truth.Frequency(), Confidence: c.Truth.Confidence(),
			})
		}
	}

	window := o.cfg.CooccurrenceWindow
	for _, pair := range extract.Cooccurrences(candidatesOnly, window) {
		aID, aOK := labelToID[pair.A]
		bID, bOK := labelToID[pair.B]
		if !aOK || !bOK {
			continue
		}
		conf := cooccurrenceBaseConfidence * (1 - 1/(1+float64(pair.Count)))
		delta := mustTruth(0.8, conf)
		l, _, linkErr := o.store.UpsertLink(kb.KindSimilarity, []kb.Participant{
			{ConceptID: aID, Role: kb.RoleSubject},
			{ConceptID: bID, Role: kb.RoleObject},
		}, delta)
		if linkErr != nil {
			continue
		}
		links = append(links, l.ID)
		o.publish(event.KindLinkCreated, event.LinkCreated{
			JobID: jobID, LinkID: l.ID, Kind: string(l.Kind),
			Subject: aID, Object: bID,
			Frequency: l.Truth.Frequency(), Confidence: l.Truth.Confidence(),
		})
	}

	for _, cp := range plan.copulas {
		subjID, subjErr := o.resolveOrCommit(cp.pair.Subject, cp.subjVec)
		if subjErr != nil {
			continue
		}
		objID, objErr := o.resolveOrCommit(cp.pair.Object, cp.objVec)
		if objErr != nil {
			continue
		}
		l, _, linkErr := o.store.UpsertLink(kb.KindInheritance, []kb.Participant{
			{ConceptID: subjID, Role: kb.RoleSubject},
			{ConceptID: objID, Role: kb.RoleObject},
		}, copulaTruth)
		if linkErr != nil {
			continue
		}
		links = append(links, l.ID)
		o.publish(event.KindLinkCreated, event.LinkCreated{
			JobID: jobID, LinkID: l.ID, Kind: string(l.Kind),
			Subject: subjID, Object: objID,
			Frequency: l.Truth.Frequency(), Confidence: l.Truth.Confidence(),
		})
	}

	return created, reinforced, links
}

// resolveOrCommit looks up label against the store's current state, which
// may have changed since prepareSeed ran its own lookup, falling back to
// the embedding prepared ahead of the lock (possibly nil, if the label was
// already resolved at prepare time) to create the concept.
func (o *Orchestrator) resolveOrCommit(label string, vec []float32) (string, error) {
	if c, err := o.store.QueryByLabel(label); err == nil {
		return c.ID, nil
	}
	c, _, err := o.store.UpsertConcept(label, vec)
	if err != nil {
		return "", err
	}
	return c.ID, nil
}
