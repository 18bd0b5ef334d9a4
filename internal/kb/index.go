package kb

import (
	"math"
	"sort"
)

// labelIndex maps a normalised label to the concept IDs that currently hold
// it. Exact, case-insensitive lookup only — fuzzy recall goes through the
// vector index instead, matching spec.md §4.B's split between
// `query_by_label` (exact) and embedding-based recall.
type labelIndex map[string][]string

func (idx labelIndex) add(label, conceptID string) {
	ids := idx[label]
	for _, id := range ids {
		if id == conceptID {
			return
		}
	}
	idx[label] = append(ids, conceptID)
}

// activeByLabelLocked returns the most recently registered non-Archived
// concept under norm, if any. A label is never removed from the index once
// an id is added to it, but Archived is terminal (I6): once the concept
// holding a label archives, that entry is skipped forever and a later
// upsert of the same label creates a fresh concept instead of resurrecting
// it (spec.md §8 scenario 5).
func (s *Store) activeByLabelLocked(norm string) *Concept {
	ids := s.labels[norm]
	for i := len(ids) - 1; i >= 0; i-- {
		if c := s.concepts[ids[i]]; c != nil && c.State != StateArchived {
			return c
		}
	}
	return nil
}

// scored is a concept ID paired with a similarity or match score, used by
// recall and neighbour-ranking queries.
type scored struct {
	id    string
	score float64
}

// topK sorts candidates by descending score and truncates to k; it gives
// QueryByEmbedding and LinkNeighbours their ranked-result shape.
func topK(candidates []scored, k int) []scored {
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if k > 0 && len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates
}

// cosineSimilarity is grounded on internal/domain/knowledge/search.go's
// cosineSimilarity helper in the teacher, generalised from float32 document
// vectors to the knowledge base's concept embeddings.
func cosineSimilarity(a, b []float32) float64 {
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
