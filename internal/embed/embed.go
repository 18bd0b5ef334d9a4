// Package embed computes fixed-dimension unit embedding vectors for text,
// behind one interface with two backends: a dependency-free local embedder
// (document-similarity stand-in, no network call) and an HTTP adapter for
// an OpenAI/Ollama-compatible embedding server. Adapted from the teacher's
// internal/infra/llm.LLMProvider shape (internal/infra/llm/provider.go,
// ollama.go) and its retry/backoff pattern in
// internal/domain/knowledge/embedder.go.
package embed

import (
	"context"
	"errors"
)

// Mode distinguishes the two embedding roles spec.md §4.C names: documents
// (concepts, extracted candidates) and queries (recall requests). Some
// backends apply an asymmetric instruction prefix per mode; the local
// backend ignores it.
type Mode int

const (
	ModeDocument Mode = iota
	ModeQuery
)

// Embedder computes embeddings for text. Implementations must be safe for
// concurrent use by multiple goroutines, since extraction fans out one
// embedding call per candidate.
type Embedder interface {
	// Embed returns a unit vector of the embedder's configured dimension
	// for text, in the given mode.
	Embed(ctx context.Context, text string, mode Mode) ([]float32, error)
	// Dim returns the fixed dimensionality every vector this embedder
	// produces will have.
	Dim() int
}

// ErrEmptyText is returned when Embed is called with an empty or
// whitespace-only string — there is nothing to embed.
var ErrEmptyText = errors.New("embed: text must not be empty")
