package ingest

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/epistemicgarden/cultivator/internal/cultivate"
	"github.com/epistemicgarden/cultivator/internal/embed"
	"github.com/epistemicgarden/cultivator/internal/event"
	"github.com/epistemicgarden/cultivator/internal/infer"
	"github.com/epistemicgarden/cultivator/internal/kb"
)

func TestFixFragments_RejoinsHyphenatedAndBareBreaks(t *testing.T) {
	in := "A pala-\nvra quebrada.\nA informa\nção continua."
	out := FixFragments(in)
	if strings.Contains(out, "pala-\nvra") {
		t.Errorf("expected hyphenated break rejoined, got %q", out)
	}
	if !strings.Contains(out, "palavra") {
		t.Errorf("expected %q to contain 'palavra', got %q", in, out)
	}
	if !strings.Contains(out, "informação") {
		t.Errorf("expected %q to contain 'informação', got %q", in, out)
	}
}

func TestFixFragments_JoinsSpaceSeparatedSuffix(t *testing.T) {
	out := FixFragments("a opera cao de hoje")
	if !strings.Contains(out, "operacao") {
		t.Errorf("expected 'opera cao' joined to 'operacao', got %q", out)
	}
}

func TestFixFragments_MergesShortFragmentUntilSixChars(t *testing.T) {
	out := FixFragments("arm azenagem eficiente")
	if strings.Contains(out, " arm ") || strings.HasPrefix(out, "arm ") {
		t.Errorf("expected 'arm' absorbed into the following token, got %q", out)
	}
	if !strings.Contains(out, "armazenagem") {
		t.Errorf("expected 'armazenagem' in output, got %q", out)
	}
	if !strings.Contains(out, "eficiente") {
		t.Errorf("expected 'eficiente' to survive untouched, got %q", out)
	}
}

func TestChunk_SplitsAtSentenceBoundaryNearTargetSize(t *testing.T) {
	sentence := "The cat sleeps on the warm windowsill every single afternoon. "
	text := strings.Repeat(sentence, 40)

	chunks := Chunk(text, 200)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks for %d-rune text with size 200, got %d", len([]rune(text)), len(chunks))
	}
	for _, c := range chunks {
		if len([]rune(c)) > 400 {
			t.Errorf("chunk exceeded hard cap: %d runes", len([]rune(c)))
		}
	}
}

func TestChunk_ShortTextReturnsSingleChunk(t *testing.T) {
	chunks := Chunk("A short sentence.", 2000)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
}

func TestChunk_EmptyTextReturnsNoChunks(t *testing.T) {
	if chunks := Chunk("", 2000); chunks != nil {
		t.Errorf("expected nil for empty text, got %v", chunks)
	}
}

func newTestPipeline() *Pipeline {
	store := kb.NewStore(kb.Config{EmbeddingDim: 64})
	bus := event.New()
	o := cultivate.New(store, embed.NewLocalEmbedder(64), bus, cultivate.Config{
		InferConfig:   infer.Config{MaxDerivationsPerCycle: 10},
		GerminateTopN: 5,
	})
	return NewPipeline(PlainTextExtractor{}, o, bus, 100)
}

func TestPipeline_IngestText_ProcessesAllChunksAndAggregates(t *testing.T) {
	p := newTestPipeline()
	text := strings.Repeat("A cat is an animal. Cats hunt small rodents outdoors. ", 10)

	summary, err := p.IngestText(context.Background(), "job-1", text)
	if err != nil {
		t.Fatal(err)
	}
	if summary.ChunkCount == 0 {
		t.Fatal("expected at least one chunk")
	}
	if summary.ConceptsTotal == 0 {
		t.Error("expected concepts to be found across chunks")
	}
	if summary.ChunksFailed != 0 {
		t.Errorf("expected no chunk failures, got %d", summary.ChunksFailed)
	}
}

func TestPipeline_IngestPDF_ExtractsThenCultivates(t *testing.T) {
	p := newTestPipeline()
	r := bytes.NewBufferString("A dog is an animal.")

	summary, err := p.IngestPDF(context.Background(), "job-2", r)
	if err != nil {
		t.Fatal(err)
	}
	if summary.ConceptsTotal == 0 {
		t.Error("expected concepts to be found from extracted text")
	}
}
