package ingest

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/epistemicgarden/cultivator/internal/cultivate"
	"github.com/epistemicgarden/cultivator/internal/event"
)

// maxChunkAttempts bounds retries of a single chunk before the pipeline
// gives up on it and moves on — spec.md §7's "three consecutive failures
// on the same chunk abort the chunk but not the job".
const maxChunkAttempts = 3

// Pipeline extracts, repairs, chunks, and cultivates a document. It is the
// entry point ingest_pdf and ingest_text both drive: text ingestion skips
// Extract (the caller already has text) while PDF ingestion runs the full
// sequence.
type Pipeline struct {
	extractor   Extractor
	orchestrator *cultivate.Orchestrator
	bus         event.Bus
	chunkSize   int
}

// NewPipeline builds a Pipeline over orchestrator, using extractor to turn
// raw document bytes into text and bus to publish job-level progress
// events. chunkSize <= 0 uses DefaultChunkSize.
func NewPipeline(extractor Extractor, orchestrator *cultivate.Orchestrator, bus event.Bus, chunkSize int) *Pipeline {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Pipeline{extractor: extractor, orchestrator: orchestrator, bus: bus, chunkSize: chunkSize}
}

// Summary aggregates a whole job's chunk results for the caller.
type Summary struct {
	JobID          string
	ChunkCount     int
	ChunksFailed   int
	ConceptsTotal  int
	LinksTotal     int
	Duration       time.Duration
}

// IngestText runs the cultivation cycle over already-extracted text,
// skipping the Extract stage. Source is recorded in the Started event
// ("text" vs "pdf") so a subscriber can tell the two ingestion paths
// apart.
func (p *Pipeline) IngestText(ctx context.Context, jobID, text string) (Summary, error) {
	return p.run(ctx, jobID, "text", text)
}

// IngestPDF reads r through the configured Extractor, repairs line-wrap
// word fragments, then cultivates the result exactly like IngestText.
func (p *Pipeline) IngestPDF(ctx context.Context, jobID string, r io.Reader) (Summary, error) {
	raw, err := p.extractor.Extract(ctx, r)
	if err != nil {
		return Summary{JobID: jobID}, fmt.Errorf("ingest: extract: %w", err)
	}
	return p.run(ctx, jobID, "pdf", FixFragments(raw))
}

func (p *Pipeline) run(ctx context.Context, jobID, source, text string) (Summary, error) {
	start := time.Now()
	p.publish(event.KindStarted, event.Started{JobID: jobID, Source: source, Timestamp: start})

	chunks := Chunk(text, p.chunkSize)
	summary := Summary{JobID: jobID, ChunkCount: len(chunks)}

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(runtime.NumCPU())

	type chunkOutcome struct {
		concepts, links int
		failed          bool
	}
	outcomes := make([]chunkOutcome, len(chunks))

	for i, chunk := range chunks {
		i, chunk := i, chunk
		group.Go(func() error {
			p.publish(event.KindChunkStarted, event.ChunkStarted{JobID: jobID, ChunkIndex: i, ChunkCount: len(chunks)})

			var result cultivate.Result
			var attempts int
			var lastErr error
			for attempts = 1; attempts <= maxChunkAttempts; attempts++ {
				chunkJobID := fmt.Sprintf("%s-chunk-%d", jobID, i)
				var err error
				result, err = p.orchestrator.Cycle(gctx, chunkJobID, chunk)
				if err == nil {
					lastErr = nil
					break
				}
				lastErr = err
			}

			outcome := chunkOutcome{
				concepts: len(result.ConceptsCreated),
				links:    len(result.LinksCreated),
				failed:   lastErr != nil,
			}
			outcomes[i] = outcome

			if lastErr != nil {
				p.publish(event.KindError, event.Error{
					JobID: jobID, Stage: "ingest_chunk",
					Message: fmt.Sprintf("chunk %d failed after %d attempts: %v", i, attempts-1, lastErr),
				})
			}
			p.publish(event.KindChunkCompleted, event.ChunkCompleted{
				JobID: jobID, ChunkIndex: i,
				ConceptsFound:  outcome.concepts,
				LinksFound:     outcome.links,
				FailedAttempts: attempts - 1,
			})
			return nil // a failed chunk never aborts the job
		})
	}
	_ = group.Wait() // errors are surfaced per-chunk via events, not propagated

	for _, o := range outcomes {
		summary.ConceptsTotal += o.concepts
		summary.LinksTotal += o.links
		if o.failed {
			summary.ChunksFailed++
		}
	}
	summary.Duration = time.Since(start)

	p.publish(event.KindCompleted, event.Completed{
		JobID:         jobID,
		ConceptsTotal: summary.ConceptsTotal,
		LinksTotal:    summary.LinksTotal,
		Duration:      summary.Duration,
	})
	return summary, nil
}

func (p *Pipeline) publish(kind event.Kind, payload any) {
	if p.bus == nil {
		return
	}
	p.bus.Publish(kind, payload)
}
