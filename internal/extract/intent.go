package extract

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/epistemicgarden/cultivator/internal/embed"
)

// Intent is the caller's apparent purpose for a piece of query-mode input,
// one of four closed categories spec.md §4.C names.
type Intent string

const (
	IntentTeach   Intent = "teach"   // asserting new information
	IntentAsk     Intent = "ask"     // asking a question
	IntentRecall  Intent = "recall"  // requesting previously stored knowledge
	IntentCommand Intent = "command" // asking the system to perform an action
)

// prototypes are short canonical sentences for each intent, embedded once
// and compared against by cosine similarity. They are deliberately plain —
// this is a coarse classifier, not a fine-tuned one.
var prototypes = map[Intent]string{
	IntentTeach:   "let me tell you that cats are felines and felines are animals",
	IntentAsk:     "what is a cat, why are cats animals, how does this work",
	IntentRecall:  "what did I tell you before, remind me what we discussed, recall the earlier fact",
	IntentCommand: "prune the graph now, run the cultivation cycle, snapshot the store, restore from backup",
}

// Classifier classifies free text into one of the four intents by
// embedding it and comparing cosine similarity against four precomputed
// prototype vectors. Scoring runs concurrently across all four prototypes —
// adapted from the teacher's HybridSearch
// (internal/domain/knowledge/search.go), which runs BM25 and vector search
// concurrently. Unlike HybridSearch it does not degrade: an embedder
// failure on any prototype or on the query fails the classification.
type Classifier struct {
	embedder embed.Embedder

	mu   sync.Mutex
	vecs map[Intent][]float32
}

// NewClassifier constructs a Classifier backed by embedder. Prototype
// vectors are computed lazily on first Classify call and cached.
func NewClassifier(embedder embed.Embedder) *Classifier {
	return &Classifier{embedder: embedder}
}

func (c *Classifier) ensurePrototypes(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vecs != nil {
		return nil
	}

	vecs := make(map[Intent][]float32, len(prototypes))
	for intent, text := range prototypes {
		vec, err := c.embedder.Embed(ctx, text, embed.ModeDocument)
		if err != nil {
			return fmt.Errorf("extract: classifier: embed prototype %s: %w", intent, err)
		}
		vecs[intent] = vec
	}
	c.vecs = vecs
	return nil
}

// Classify returns the best-matching Intent for text and its cosine score.
// If embedding any prototype or the query fails, Classify returns an error
// (prototype vectors are cached only once all four embed, so a later call
// tries them again); otherwise the highest-scoring prototype wins.
func (c *Classifier) Classify(ctx context.Context, text string) (Intent, float64, error) {
	if err := c.ensurePrototypes(ctx); err != nil {
		return "", 0, err
	}

	vec, err := c.embedder.Embed(ctx, text, embed.ModeQuery)
	if err != nil {
		return "", 0, fmt.Errorf("extract: classifier: embed query: %w", err)
	}

	type result struct {
		intent Intent
		score  float64
		ok     bool
	}

	results := make([]result, len(c.vecs))
	var wg sync.WaitGroup
	i := 0
	for intent, proto := range c.vecs {
		wg.Add(1)
		idx := i
		i++
		go func(intent Intent, proto []float32, idx int) {
			defer wg.Done()
			results[idx] = result{intent: intent, score: cosine(vec, proto), ok: true}
		}(intent, proto, idx)
	}
	wg.Wait()

	var best result
	found := false
	for _, r := range results {
		if !r.ok {
			continue
		}
		if !found || r.score > best.score {
			best = r
			found = true
		}
	}
	if !found {
		return "", 0, fmt.Errorf("extract: classifier: all prototype comparisons failed")
	}
	return best.intent, best.score, nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		av, bv := float64(a[i]), float64(b[i])
		dot += av * bv
		magA += av * av
		magB += bv * bv
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
