package kb

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/epistemicgarden/cultivator/internal/truth"
)

// snapshotVersion is bumped whenever the on-disk shape changes; Restore
// rejects a snapshot from a newer version it doesn't understand.
const snapshotVersion = 1

// snapshotConcept and snapshotLink are the wire shapes written by Snapshot
// and read by Restore: plain structs with exported fields and JSON tags,
// matching the teacher's encodeEmbedding/decodeEmbedding convention in
// internal/domain/knowledge/embedder.go of JSON-serialising float32
// vectors rather than a binary format.
type snapshotConcept struct {
	ID           string    `json:"id"`
	Label        string    `json:"label"`
	DisplayLabel string    `json:"display_label"`
	Embedding    []float32 `json:"embedding,omitempty"`
	WPos         float64   `json:"w_pos"`
	WNeg         float64   `json:"w_neg"`
	Energy       float64   `json:"energy"`
	State        State     `json:"state"`
	MentionCount int64     `json:"mention_count"`
	CreatedAt    time.Time `json:"created_at"`
	LastSeen     time.Time `json:"last_seen"`
	FadingSince  int       `json:"fading_since"`
}

type snapshotParticipant struct {
	ConceptID string `json:"concept_id"`
	Role      Role   `json:"role"`
	Position  int    `json:"position"`
}

type snapshotLink struct {
	ID           string                `json:"id"`
	Kind         Kind                  `json:"kind"`
	Participants []snapshotParticipant `json:"participants"`
	WPos         float64               `json:"w_pos"`
	WNeg         float64               `json:"w_neg"`
	Energy       float64               `json:"energy"`
	CreatedAt    time.Time             `json:"created_at"`
	LastSeen     time.Time             `json:"last_seen"`
	Archived     bool                  `json:"archived"`
}

type snapshotFile struct {
	Version  int               `json:"version"`
	Config   Config            `json:"config"`
	Concepts []snapshotConcept `json:"concepts"`
	Links    []snapshotLink    `json:"links"`
}

// Snapshot implements spec.md §4.B `snapshot()`: a full, self-describing
// serialisation of every concept and link, from which Restore rebuilds the
// Store. The label index is not written: Restore registers each concept
// under its own label only, so extra labels a concept adopted through an
// embedding merge in UpsertConcept no longer resolve to it afterwards. Held
// under a read lock for the duration of encoding so the snapshot is a
// consistent point-in-time view.
func (s *Store) Snapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file := snapshotFile{
		Version:  snapshotVersion,
		Config:   s.cfg,
		Concepts: make([]snapshotConcept, 0, len(s.concepts)),
		Links:    make([]snapshotLink, 0, len(s.links)),
	}

	for _, c := range s.concepts {
		file.Concepts = append(file.Concepts, snapshotConcept{
			ID:           c.ID,
			Label:        c.Label,
			DisplayLabel: c.DisplayLabel,
			Embedding:    c.Embedding,
			WPos:         c.Truth.WPos,
			WNeg:         c.Truth.WNeg,
			Energy:       c.Energy,
			State:        c.State,
			MentionCount: c.MentionCount,
			CreatedAt:    c.CreatedAt,
			LastSeen:     c.LastSeen,
			FadingSince:  c.fadingSince,
		})
	}

	for _, l := range s.links {
		parts := make([]snapshotParticipant, len(l.Participants))
		for i, p := range l.Participants {
			parts[i] = snapshotParticipant{ConceptID: p.ConceptID, Role: p.Role, Position: p.Position}
		}
		file.Links = append(file.Links, snapshotLink{
			ID:           l.ID,
			Kind:         l.Kind,
			Participants: parts,
			WPos:         l.Truth.WPos,
			WNeg:         l.Truth.WNeg,
			Energy:       l.Energy,
			CreatedAt:    l.CreatedAt,
			LastSeen:     l.LastSeen,
			Archived:     l.Archived,
		})
	}

	return json.Marshal(file)
}

// Restore implements spec.md §4.B `restore(bytes)`: replaces the store's
// entire in-memory state with the contents of a snapshot produced by
// Snapshot. The caller is responsible for not calling Restore concurrently
// with in-flight cultivation work — it takes the same exclusive lock every
// other write holds, but a long-running cultivation tick started just
// before Restore will still finish against the pre-restore state.
func (s *Store) Restore(data []byte) error {
	var file snapshotFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("kb: Restore: decode: %w", err)
	}
	if file.Version > snapshotVersion {
		return fmt.Errorf("kb: Restore: snapshot version %d is newer than supported version %d", file.Version, snapshotVersion)
	}

	concepts := make(map[string]*Concept, len(file.Concepts))
	labels := make(labelIndex, len(file.Concepts))
	for _, sc := range file.Concepts {
		horizon := file.Config.withDefaults().EvidentialHorizon
		tv, err := truth.NewWithHorizon(sc.WPos, sc.WNeg, horizon)
		if err != nil {
			return fmt.Errorf("kb: Restore: concept %s: %w", sc.ID, err)
		}
		c := &Concept{
			ID:           sc.ID,
			Label:        sc.Label,
			DisplayLabel: sc.DisplayLabel,
			Embedding:    sc.Embedding,
			Truth:        tv,
			Energy:       sc.Energy,
			State:        sc.State,
			MentionCount: sc.MentionCount,
			CreatedAt:    sc.CreatedAt,
			LastSeen:     sc.LastSeen,
			fadingSince:  sc.FadingSince,
		}
		concepts[c.ID] = c
		labels.add(c.Label, c.ID)
	}

	links := make(map[string]*Link, len(file.Links))
	linksByConcept := make(map[string][]string)
	for _, sl := range file.Links {
		horizon := file.Config.withDefaults().EvidentialHorizon
		tv, err := truth.NewWithHorizon(sl.WPos, sl.WNeg, horizon)
		if err != nil {
			return fmt.Errorf("kb: Restore: link %s: %w", sl.ID, err)
		}
		parts := make([]Participant, len(sl.Participants))
		for i, p := range sl.Participants {
			parts[i] = Participant{ConceptID: p.ConceptID, Role: p.Role, Position: p.Position}
		}
		l := &Link{
			ID:           sl.ID,
			Kind:         sl.Kind,
			Participants: parts,
			Truth:        tv,
			Energy:       sl.Energy,
			CreatedAt:    sl.CreatedAt,
			LastSeen:     sl.LastSeen,
			Archived:     sl.Archived,
		}
		links[l.ID] = l
		for _, cid := range l.ConceptIDs() {
			linksByConcept[cid] = append(linksByConcept[cid], l.ID)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = file.Config.withDefaults()
	s.concepts = concepts
	s.links = links
	s.labels = labels
	s.linksByConcept = linksByConcept
	return nil
}
