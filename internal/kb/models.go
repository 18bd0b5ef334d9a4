// Package kb is the in-memory knowledge base: concepts and N-ary links with
// label/embedding indices, truth values, activation energy, and a
// self-describing snapshot codec. It is the single-writer, multi-reader
// store described in spec.md §4.B / §5 — grounded on the shape of
// internal/domain/knowledge (KnowledgeItem/EmbeddingDocument/Evidence) from
// the teacher, generalised from SQL rows to an in-memory graph.
package kb

import (
	"time"

	"github.com/epistemicgarden/cultivator/internal/truth"
)

// State is the lifecycle stage of a Concept.
type State string

const (
	StateActive   State = "active"
	StateDormant  State = "dormant"
	StateFading   State = "fading"
	StateArchived State = "archived"
)

// Role identifies how a participant takes part in a Link.
type Role string

const (
	RoleSubject    Role = "subject"
	RoleObject     Role = "object"
	RolePredicate  Role = "predicate"
	RoleSource     Role = "source"
	RoleTarget     Role = "target"
	RoleInstrument Role = "instrument"
	RoleContext    Role = "context"
	RoleValue      Role = "value"
	RoleQualifier  Role = "qualifier"
)

// CustomRole returns a Role value for a caller-named role outside the closed
// set above (the `Custom(name)` variant in spec.md §3).
func CustomRole(name string) Role { return Role("custom:" + name) }

// Kind identifies the semantic relation a Link represents.
type Kind string

const (
	KindInheritance Kind = "inheritance"
	KindSimilarity  Kind = "similarity"
	KindImplication Kind = "implication"
	KindEquivalence Kind = "equivalence"
	KindPartOf      Kind = "part_of"
	KindHasProperty Kind = "has_property"
	KindInstanceOf  Kind = "instance_of"
	KindCatalyzes   Kind = "catalyzes"
	KindInhibits    Kind = "inhibits"
	KindMapsTo      Kind = "maps_to"
)

// CustomKind returns a Kind value for a caller-named relation outside the
// closed set above.
func CustomKind(name string) Kind { return Kind("custom:" + name) }

// Concept is the atomic unit of knowledge (spec.md §3).
type Concept struct {
	ID           string
	Label        string // normalised: trimmed, lowercased for matching
	DisplayLabel string // original casing, kept for presentation
	Embedding    []float32
	Truth        truth.Value
	Energy       float64
	State        State
	MentionCount int64
	CreatedAt    time.Time
	LastSeen     time.Time

	// fadingSince tracks how many consecutive prune ticks this concept has
	// spent in StateFading, used to trigger the Fading -> Archived
	// transition after `archive_after_ticks` (spec.md §4.E Prune phase).
	fadingSince int
}

// Participant is one role-tagged member of a Link.
type Participant struct {
	ConceptID string
	Role      Role
	Position  int
}

// Link is an N-ary relation between concepts (spec.md §3).
type Link struct {
	ID           string
	Kind         Kind
	Participants []Participant
	Truth        truth.Value
	Energy       float64
	CreatedAt    time.Time
	LastSeen     time.Time

	// Archived is set once any participant concept is archived. A link never
	// decays on its own schedule (spec.md §3: "Links do not decay
	// independently of their endpoints"); DecayTick derives both Energy and
	// Archived from the current state of the link's participants.
	Archived bool
}

// ConceptIDs returns the participant concept IDs in participant order,
// convenient for traversal and for building derived links.
func (l *Link) ConceptIDs() []string {
	ids := make([]string, len(l.Participants))
	for i, p := range l.Participants {
		ids[i] = p.ConceptID
	}
	return ids
}

// HasParticipant reports whether conceptID takes part in l.
func (l *Link) HasParticipant(conceptID string) bool {
	for _, p := range l.Participants {
		if p.ConceptID == conceptID {
			return true
		}
	}
	return false
}
