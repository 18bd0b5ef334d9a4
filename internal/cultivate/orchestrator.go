// Package cultivate drives the seed -> photosynthesise -> germinate ->
// prune cycle spec.md §4.E describes. Seed's embedding and label-lookup
// work runs against a read-only view of the store with no lock held, so
// concurrent cycles embed in parallel (spec.md §5's optimistic
// concurrency); committing the prepared batch and the
// infer -> germinate -> prune sequence that follows are strictly
// serialised per store under one lock, so two cycles' writes never
// interleave. Grounded on the teacher's orchestrator shape in
// internal/domain/agent/orchestrator.go (a phase-by-phase service that
// publishes one event per state transition) and on the ingest/embed
// services' "best-effort: log and keep going" error posture.
package cultivate

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/epistemicgarden/cultivator/internal/embed"
	"github.com/epistemicgarden/cultivator/internal/event"
	"github.com/epistemicgarden/cultivator/internal/infer"
	"github.com/epistemicgarden/cultivator/internal/kb"
)

// Config tunes an Orchestrator's cycle behaviour.
type Config struct {
	InferConfig            infer.Config
	GerminateTopN          int     // cap on how many concepts the germinate phase reflects on per cycle
	GerminateEnergyHigh    float64 // e_high: minimum energy for a concept to be germination-eligible
	GerminateConfidenceLow float64 // c_low: maximum truth confidence for a concept to be germination-eligible
	CooccurrenceWindow     int     // token window passed to extract.Cooccurrences; 0 = package default
}

// Orchestrator owns a kb.Store and runs cultivation cycles against it. It
// is the single writer spec.md §5 requires: Cycle's commit-and-beyond
// phases run under an exclusive lock, so concurrent callers' writes never
// interleave, but each cycle's embedding work happens beforehand with no
// lock held at all, so concurrent cycles can embed in parallel and only
// briefly queue to commit.
type Orchestrator struct {
	store    *kb.Store
	embedder embed.Embedder
	infer    *infer.Engine
	bus      event.Bus
	cfg      Config

	mu   sync.Mutex
	tick int
}

// New constructs an Orchestrator over store, using embedder for every
// concept/candidate vector and bus to publish phase events.
func New(store *kb.Store, embedder embed.Embedder, bus event.Bus, cfg Config) *Orchestrator {
	if cfg.GerminateTopN <= 0 {
		cfg.GerminateTopN = 5
	}
	if cfg.GerminateEnergyHigh <= 0 {
		cfg.GerminateEnergyHigh = 0.6
	}
	if cfg.GerminateConfidenceLow <= 0 {
		cfg.GerminateConfidenceLow = 0.3
	}
	return &Orchestrator{
		store:    store,
		embedder: embedder,
		infer:    infer.New(cfg.InferConfig),
		bus:      bus,
		cfg:      cfg,
	}
}

// Result summarises one full cultivation cycle for the caller and for the
// Completed event.
type Result struct {
	JobID             string
	ConceptsCreated   []string
	ConceptsReinforced []string
	LinksCreated      []string
	Derivations       []infer.Derivation
	Questions         []Question
	Archived          []string
	Duration          time.Duration
}

// Cycle runs Seed(text) -> Photosynthesise() -> Germinate() -> Prune().
// Seed's embedding and label-lookup work runs against a read-only view of
// the store before any lock is taken (spec.md §5's "read-only snapshot...
// optimistic concurrency"), so a slow embedder backend never serialises
// concurrent cycles against each other; only the prepared batch's commit
// and the infer -> germinate -> prune sequence run under the
// orchestrator's single lock, strictly serialised per store as spec.md §5
// requires. text may be empty, in which case Seed contributes nothing and
// the cycle still runs inference, germination and decay over the existing
// graph — this is how a scheduled tick without new input still lets the
// graph evolve.
func (o *Orchestrator) Cycle(ctx context.Context, jobID, text string) (Result, error) {
	start := time.Now()
	o.publish(event.KindStarted, event.Started{JobID: jobID, Source: "cultivation", Timestamp: start})

	var result Result
	result.JobID = jobID

	var plan *seedPlan
	if text != "" {
		var err error
		plan, err = o.prepareSeed(ctx, text)
		if err != nil {
			o.publish(event.KindError, event.Error{JobID: jobID, Stage: "seed", Message: err.Error()})
			return result, fmt.Errorf("cultivate: seed: %w", err)
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.tick++

	if plan != nil {
		created, reinforced, links := o.commitSeed(jobID, plan)
		result.ConceptsCreated = created
		result.ConceptsReinforced = reinforced
		result.LinksCreated = links
	}

	derivations, err := o.infer.Run(o.store)
	if err != nil {
		o.publish(event.KindError, event.Error{JobID: jobID, Stage: "photosynthesise", Message: err.Error()})
		return result, fmt.Errorf("cultivate: photosynthesise: %w", err)
	}
	result.Derivations = derivations
	for _, d := range derivations {
		o.publish(event.KindLinkCreated, event.LinkCreated{
			JobID:      jobID,
			Kind:       string(d.Kind),
			Subject:    d.Subject,
			Object:     d.Object,
			Rule:       string(d.Rule),
			Frequency:  d.Truth.Frequency(),
			Confidence: d.Truth.Confidence(),
		})
	}

	questions := o.germinate(o.cfg.GerminateTopN, o.cfg.GerminateEnergyHigh, o.cfg.GerminateConfidenceLow)
	result.Questions = questions
	for _, q := range questions {
		o.publish(event.KindQuestionGenerated, event.QuestionGenerated{
			ConceptID: q.ConceptID,
			Label:     q.Label,
			Question:  q.Text,
		})
	}

	result.Archived = o.store.DecayTick()
	for _, id := range result.Archived {
		log.Printf("cultivate: concept %s archived on tick %d", id, o.tick)
	}

	result.Duration = time.Since(start)
	concepts, links := o.store.Len()
	o.publish(event.KindCompleted, event.Completed{
		JobID:         jobID,
		ConceptsTotal: concepts,
		LinksTotal:    links,
		Duration:      result.Duration,
	})

	return result, nil
}

// RunTicker drives the scheduled half of spec.md §4.E: germinate and prune
// are "triggered by a periodic timer" independent of new input, so a
// process that never receives another ingest call still decays stale
// concepts and keeps reflecting on salient ones. It runs an empty-text
// Cycle (skipping seed, still running inference/germinate/prune) every
// interval until ctx is cancelled. Meant to be started once in its own
// goroutine at wiring time, the way the teacher starts its background
// consumers.
func (o *Orchestrator) RunTicker(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			jobID := fmt.Sprintf("tick-%d", now.UnixNano())
			if _, err := o.Cycle(ctx, jobID, ""); err != nil {
				log.Printf("cultivate: scheduled tick %s failed: %v", jobID, err)
			}
		}
	}
}

func (o *Orchestrator) publish(kind event.Kind, payload any) {
	if o.bus == nil {
		return
	}
	o.bus.Publish(kind, payload)
}
