package embed

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// LocalEmbedder is a dependency-free, deterministic stand-in for a real
// embedding model: it hashes each token of the input into one of Dim()
// buckets (the "hashing trick"), signs the contribution with a second hash
// bit, and L2-normalises the result. Two texts that share vocabulary land
// closer together in cosine space than two that don't, which is enough for
// merge/recall thresholds to behave sensibly without a network dependency
// or model weights — selected as the default backend (EMBEDDER_BACKEND=local)
// so the binary runs with zero setup, matching the teacher's "works out of
// the box" posture for internal/infra/config.
type LocalEmbedder struct {
	dim int
}

// NewLocalEmbedder constructs a LocalEmbedder producing vectors of the
// given dimensionality.
func NewLocalEmbedder(dim int) *LocalEmbedder {
	if dim <= 0 {
		dim = 256
	}
	return &LocalEmbedder{dim: dim}
}

func (e *LocalEmbedder) Dim() int { return e.dim }

// Embed ignores mode: the hashing-trick projection has no asymmetric
// document/query instruction to apply.
func (e *LocalEmbedder) Embed(_ context.Context, text string, _ Mode) ([]float32, error) {
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		return nil, ErrEmptyText
	}

	vec := make([]float64, e.dim)
	for _, tok := range tokens {
		bucket, sign := hashToken(tok, e.dim)
		vec[bucket] += sign
	}

	return normalise(vec), nil
}

// hashToken maps a token to a bucket index and a +1/-1 sign using two
// independent FNV-1a hashes, the standard feature-hashing construction
// that keeps the expected dot product of unrelated tokens near zero.
func hashToken(tok string, dim int) (int, float64) {
	h1 := fnv.New32a()
	h1.Write([]byte(tok))
	bucket := int(h1.Sum32()) % dim
	if bucket < 0 {
		bucket += dim
	}

	h2 := fnv.New32a()
	h2.Write([]byte(tok + "#sign"))
	sign := 1.0
	if h2.Sum32()%2 == 0 {
		sign = -1.0
	}
	return bucket, sign
}

func normalise(vec []float64) []float32 {
	var mag float64
	for _, v := range vec {
		mag += v * v
	}
	mag = math.Sqrt(mag)

	out := make([]float32, len(vec))
	if mag == 0 {
		return out
	}
	for i, v := range vec {
		out[i] = float32(v / mag)
	}
	return out
}
