package kb

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/epistemicgarden/cultivator/internal/truth"
)

// Config carries the tunables spec.md §6 names for the knowledge base and
// its lifecycle decay. Zero-value fields are coalesced to sane defaults in
// NewStore, matching the teacher's EvidenceConfig constructor pattern in
// internal/domain/knowledge/evidence.go.
type Config struct {
	MergeThreshold    float64 // cosine similarity at or above which concepts are merged
	QueryThreshold    float64 // cosine similarity at or above which a query recalls a concept
	DecayRate         float64 // energy lost per prune tick
	DormantThreshold  float64 // energy below which a concept turns Dormant
	FadingThreshold   float64 // energy below which a concept turns Fading
	ArchiveAfterTicks int     // consecutive Fading ticks before Archived
	EmbeddingDim      int     // fixed embedding width enforced on every concept
	EvidentialHorizon float64 // NARS evidential horizon k
}

// DefaultConfig returns the hard defaults the binary runs with when no
// environment override is present, mirroring internal/infra/config.Load's
// "works with zero setup" posture.
func DefaultConfig() Config {
	return Config{
		MergeThreshold:    0.90,
		QueryThreshold:    0.35,
		DecayRate:         0.05,
		DormantThreshold:  0.4,
		FadingThreshold:   0.15,
		ArchiveAfterTicks: 5,
		EmbeddingDim:      256,
		EvidentialHorizon: truth.EvidentialHorizon,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MergeThreshold == 0 {
		c.MergeThreshold = d.MergeThreshold
	}
	if c.QueryThreshold == 0 {
		c.QueryThreshold = d.QueryThreshold
	}
	if c.DecayRate == 0 {
		c.DecayRate = d.DecayRate
	}
	if c.DormantThreshold == 0 {
		c.DormantThreshold = d.DormantThreshold
	}
	if c.FadingThreshold == 0 {
		c.FadingThreshold = d.FadingThreshold
	}
	if c.ArchiveAfterTicks == 0 {
		c.ArchiveAfterTicks = d.ArchiveAfterTicks
	}
	if c.EmbeddingDim == 0 {
		c.EmbeddingDim = d.EmbeddingDim
	}
	if c.EvidentialHorizon == 0 {
		c.EvidentialHorizon = d.EvidentialHorizon
	}
	return c
}

// Store is the single-writer, multi-reader knowledge base described in
// spec.md §4.B / §5: an exclusive lock is held only while a batch of
// mutations commits, and reads take a consistent snapshot of the indices
// under a read lock. Grounded on the teacher's transactional upsert shape
// in internal/domain/knowledge/ingest.go, generalised from SQL transactions
// to an in-process mutex since the store lives entirely in memory.
type Store struct {
	mu sync.RWMutex

	cfg Config

	concepts map[string]*Concept
	links    map[string]*Link
	labels   labelIndex

	// linksByConcept indexes link IDs touching a given concept, used by
	// Neighbours and LinkNeighbours.
	linksByConcept map[string][]string
}

// NewStore constructs an empty Store with cfg's tunables, coalescing
// zero-valued fields to DefaultConfig().
func NewStore(cfg Config) *Store {
	return &Store{
		cfg:            cfg.withDefaults(),
		concepts:       make(map[string]*Concept),
		links:          make(map[string]*Link),
		labels:         make(labelIndex),
		linksByConcept: make(map[string][]string),
	}
}

// Config returns the store's effective configuration.
func (s *Store) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Len returns the current concept and link counts, used by the `status()`
// endpoint's kb_concepts/kb_links fields (SPEC_FULL.md §10).
func (s *Store) Len() (concepts, links int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.concepts), len(s.links)
}

func newConceptID() string {
	return uuid.New().String()
}

// canonicalLinkID derives the deterministic link identity spec.md §3
// requires: a hash of (kind, sorted participant (id, role, position)
// tuples). Participants are sorted by the full tuple before hashing, so
// supplying the same participants in a different order always collides to
// the same link — but a different role assignment over the same concepts
// (e.g. swapping which one is Subject and which is Object) is a distinct
// relation and gets a distinct ID, since role carries the link's meaning.
func canonicalLinkID(kind Kind, participants []Participant) string {
	type tuple struct {
		id  string
		rol Role
		pos int
	}
	tuples := make([]tuple, len(participants))
	for i, p := range participants {
		tuples[i] = tuple{id: p.ConceptID, rol: p.Role, pos: p.Position}
	}
	sort.Slice(tuples, func(i, j int) bool {
		if tuples[i].id != tuples[j].id {
			return tuples[i].id < tuples[j].id
		}
		if tuples[i].rol != tuples[j].rol {
			return tuples[i].rol < tuples[j].rol
		}
		return tuples[i].pos < tuples[j].pos
	})

	h := sha256.New()
	h.Write([]byte(kind))
	for _, t := range tuples {
		h.Write([]byte{0})
		h.Write([]byte(t.id))
		h.Write([]byte{0})
		h.Write([]byte(t.rol))
		h.Write([]byte{0, byte(t.pos), byte(t.pos >> 8)})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func normaliseLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

func now() time.Time { return time.Now().UTC() }
