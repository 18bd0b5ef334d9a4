package kb

import (
	"fmt"
	"strings"

	"github.com/epistemicgarden/cultivator/internal/truth"
)

// maxEnergy is the ceiling a concept or link's activation energy saturates
// at after repeated reinforcement (spec.md §3 Lifecycle).
const maxEnergy = 1.0

// UpsertConcept implements spec.md §4.B `upsert_concept`: an exact label
// match reinforces in place; failing that, a near-duplicate embedding
// (cosine >= merge_threshold) reinforces the existing concept and adopts
// the new label as an additional index entry; otherwise a new concept is
// created with initial truth and full energy. Returns the resulting
// concept and whether it was newly created.
func (s *Store) UpsertConcept(label string, embedding []float32) (*Concept, bool, error) {
	norm := normaliseLabel(label)
	if norm == "" {
		return nil, false, precondition("UpsertConcept", ErrEmptyLabel)
	}
	if embedding != nil && len(embedding) != s.cfg.EmbeddingDim {
		return nil, false, precondition("UpsertConcept",
			fmt.Errorf("%w: got %d want %d", ErrEmbeddingDimMismatch, len(embedding), s.cfg.EmbeddingDim))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c := s.activeByLabelLocked(norm); c != nil {
		s.reinforceLocked(c)
		return c, false, nil
	}

	if embedding != nil {
		if match := s.bestMatchLocked(embedding); match != nil && match.score >= s.cfg.MergeThreshold {
			c := s.concepts[match.id]
			s.labels.add(norm, c.ID)
			s.reinforceLocked(c)
			return c, false, nil
		}
	}

	c := &Concept{
		ID:           newConceptID(),
		Label:        norm,
		DisplayLabel: strings.TrimSpace(label),
		Embedding:    embedding,
		Truth:        truth.Initial(s.cfg.EvidentialHorizon),
		Energy:       maxEnergy,
		State:        StateActive,
		MentionCount: 1,
		CreatedAt:    now(),
		LastSeen:     now(),
	}
	s.concepts[c.ID] = c
	s.labels.add(norm, c.ID)
	return c, true, nil
}

// bestMatchLocked linear-scans every non-archived concept's embedding for
// the closest cosine match to target. Grounded on the teacher's brute-force fallback in
// internal/domain/knowledge/search.go's vectorSearchWithFallback; swapping
// in an HNSW index later only needs to replace this one method.
//
// Ties break by highest similarity, then lowest id (spec.md §4.B), so the
// result is deterministic regardless of map iteration order.
func (s *Store) bestMatchLocked(target []float32) *scored {
	var best *scored
	for id, c := range s.concepts {
		if c.Embedding == nil || c.State == StateArchived {
			continue
		}
		score := cosineSimilarity(target, c.Embedding)
		if best == nil || score > best.score || (score == best.score && id < best.id) {
			best = &scored{id: id, score: score}
		}
	}
	return best
}

// ReinforceConcept implements spec.md §4.B `reinforce_concept` directly: it
// re-observes an already-known concept, reviving it from Dormant/Fading
// back to Active (but never resurrecting an Archived concept, which is
// terminal per invariant I6).
func (s *Store) ReinforceConcept(id string) (*Concept, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.concepts[id]
	if !ok {
		return nil, fmt.Errorf("kb: ReinforceConcept: %w", ErrConceptNotFound)
	}
	s.reinforceLocked(c)
	return c, nil
}

func (s *Store) reinforceLocked(c *Concept) {
	c.Truth = truth.Revise(c.Truth, truth.Initial(s.cfg.EvidentialHorizon))
	c.Energy = maxEnergy
	c.MentionCount++
	c.LastSeen = now()
	c.fadingSince = 0
	if c.State != StateArchived {
		c.State = StateActive
	}
}

// UpsertLink implements spec.md §4.B `upsert_link`: participants must
// number at least two (I4) and every one of them must already exist in the
// store (no dangling references). The canonical link ID is a deterministic
// hash of kind and the sorted (concept ID, role, position) participant
// tuples, so re-observing the same relation with its participants listed in
// a different order revises the existing link's truth instead of creating a
// duplicate; the same concepts under a different role assignment form a
// distinct link.
func (s *Store) UpsertLink(kind Kind, participants []Participant, delta truth.Value) (*Link, bool, error) {
	if len(participants) < 2 {
		return nil, false, precondition("UpsertLink", ErrTooFewParticipants)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range participants {
		if _, ok := s.concepts[p.ConceptID]; !ok {
			return nil, false, precondition("UpsertLink",
				fmt.Errorf("%w: %s", ErrDanglingParticipant, p.ConceptID))
		}
	}

	id := canonicalLinkID(kind, participants)
	if l, ok := s.links[id]; ok {
		l.Truth = truth.Revise(l.Truth, delta)
		l.Energy = maxEnergy
		l.LastSeen = now()
		return l, false, nil
	}

	l := &Link{
		ID:           id,
		Kind:         kind,
		Participants: participants,
		Truth:        delta,
		Energy:       maxEnergy,
		CreatedAt:    now(),
		LastSeen:     now(),
	}
	s.links[id] = l
	for _, cid := range l.ConceptIDs() {
		s.linksByConcept[cid] = append(s.linksByConcept[cid], id)
	}
	return l, true, nil
}

// QueryByLabel implements the exact-match half of spec.md §4.B
// `query_by_label`: a case-insensitive, whitespace-trimmed lookup against
// the label index. Callers wanting fuzzy recall use QueryByEmbedding.
func (s *Store) QueryByLabel(label string) (*Concept, error) {
	norm := normaliseLabel(label)

	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.activeByLabelLocked(norm)
	if c == nil {
		return nil, fmt.Errorf("kb: QueryByLabel(%q): %w", label, ErrConceptNotFound)
	}
	return c, nil
}

// QueryByEmbedding implements the fuzzy-recall half of spec.md §4.B: every
// concept whose embedding's cosine similarity to query meets or exceeds
// query_threshold is returned, ranked by similarity and capped at k.
func (s *Store) QueryByEmbedding(query []float32, k int) []*Concept {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates []scored
	for id, c := range s.concepts {
		if c.Embedding == nil || c.State == StateArchived {
			continue
		}
		if score := cosineSimilarity(query, c.Embedding); score >= s.cfg.QueryThreshold {
			candidates = append(candidates, scored{id: id, score: score})
		}
	}
	ranked := topK(candidates, k)
	out := make([]*Concept, len(ranked))
	for i, r := range ranked {
		out[i] = s.concepts[r.id]
	}
	return out
}

// Neighbours implements spec.md §4.B `neighbours(id, depth)`: a
// breadth-first traversal of the link graph starting at conceptID,
// returning every concept reachable within depth link-hops (conceptID
// itself excluded). depth<=0 is treated as 1.
func (s *Store) Neighbours(conceptID string, depth int) ([]*Concept, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.concepts[conceptID]; !ok {
		return nil, fmt.Errorf("kb: Neighbours(%s): %w", conceptID, ErrConceptNotFound)
	}
	if depth <= 0 {
		depth = 1
	}

	visited := map[string]bool{conceptID: true}
	frontier := []string{conceptID}
	var out []*Concept

	for d := 0; d < depth && len(frontier) > 0; d++ {
		var next []string
		for _, id := range frontier {
			for _, linkID := range s.linksByConcept[id] {
				l := s.links[linkID]
				if l.Archived {
					continue
				}
				for _, cid := range l.ConceptIDs() {
					if visited[cid] {
						continue
					}
					visited[cid] = true
					next = append(next, cid)
					out = append(out, s.concepts[cid])
				}
			}
		}
		frontier = next
	}
	return out, nil
}

// LinkNeighbours returns every link touching conceptID, ranked by truth
// expectation (strongest relation first) and capped at k (k<=0 means
// unbounded). Used by the germinate phase to pick the strongest neighbour
// link to build a reflective question template over.
func (s *Store) LinkNeighbours(conceptID string, k int) ([]*Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.concepts[conceptID]; !ok {
		return nil, fmt.Errorf("kb: LinkNeighbours(%s): %w", conceptID, ErrConceptNotFound)
	}

	ids := s.linksByConcept[conceptID]
	candidates := make([]scored, 0, len(ids))
	for _, id := range ids {
		l := s.links[id]
		if l.Archived {
			continue
		}
		candidates = append(candidates, scored{id: id, score: l.Truth.Expectation()})
	}
	ranked := topK(candidates, k)
	out := make([]*Link, len(ranked))
	for i, r := range ranked {
		out[i] = s.links[r.id]
	}
	return out, nil
}

// Concept returns the concept for id, or ErrConceptNotFound.
func (s *Store) Concept(id string) (*Concept, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.concepts[id]
	if !ok {
		return nil, fmt.Errorf("kb: Concept(%s): %w", id, ErrConceptNotFound)
	}
	return c, nil
}

// Link returns the link for id, or ErrLinkNotFound.
func (s *Store) Link(id string) (*Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.links[id]
	if !ok {
		return nil, fmt.Errorf("kb: Link(%s): %w", id, ErrLinkNotFound)
	}
	return l, nil
}

// AllConcepts returns every concept currently held, in no particular
// order. Used by the cultivation orchestrator's prune phase and by the
// snapshot codec.
func (s *Store) AllConcepts() []*Concept {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Concept, 0, len(s.concepts))
	for _, c := range s.concepts {
		out = append(out, c)
	}
	return out
}

// AllLinks returns every link currently held, in no particular order.
func (s *Store) AllLinks() []*Link {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Link, 0, len(s.links))
	for _, l := range s.links {
		out = append(out, l)
	}
	return out
}
