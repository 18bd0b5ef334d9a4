package event

import "time"

// Kind enumerates the outbound event schema spec.md §6 names.
type Kind string

const (
	KindStarted           Kind = "started"
	KindChunkStarted      Kind = "chunk_started"
	KindConceptCreated    Kind = "concept_created"
	KindConceptReinforced Kind = "concept_reinforced"
	KindLinkCreated       Kind = "link_created"
	KindChunkCompleted    Kind = "chunk_completed"
	KindCompleted         Kind = "completed"
	KindError             Kind = "error"
	KindQuestionGenerated Kind = "question_generated"
)

// Started is published when an ingestion job or cultivation cycle begins.
type Started struct {
	JobID     string    `json:"job_id"`
	Source    string    `json:"source"` // "text", "pdf", or "cultivation"
	Timestamp time.Time `json:"timestamp"`
}

// ChunkStarted is published when a single ingestion chunk begins
// processing.
type ChunkStarted struct {
	JobID      string `json:"job_id"`
	ChunkIndex int    `json:"chunk_index"`
	ChunkCount int    `json:"chunk_count"`
}

// ConceptCreated is published the first time a label resolves to a brand
// new concept.
type ConceptCreated struct {
	JobID       string  `json:"job_id"`
	ConceptID   string  `json:"concept_id"`
	Label       string  `json:"label"`
	Frequency   float64 `json:"frequency"`
	Confidence  float64 `json:"confidence"`
}

// ConceptReinforced is published when an existing concept is re-observed.
type ConceptReinforced struct {
	JobID        string  `json:"job_id"`
	ConceptID    string  `json:"concept_id"`
	Label        string  `json:"label"`
	MentionCount int64   `json:"mention_count"`
	Frequency    float64 `json:"frequency"`
	Confidence   float64 `json:"confidence"`
}

// LinkCreated is published when a new or revised link is committed,
// whether from extraction's co-occurrence/copula detection or from an
// inference cycle's derivation.
type LinkCreated struct {
	JobID      string  `json:"job_id"`
	LinkID     string  `json:"link_id"`
	Kind       string  `json:"kind"`
	Subject    string  `json:"subject_concept_id"`
	Object     string  `json:"object_concept_id"`
	Rule       string  `json:"rule,omitempty"` // "", "deduction", "induction", "abduction"
	Frequency  float64 `json:"frequency"`
	Confidence float64 `json:"confidence"`
}

// ChunkCompleted is published when a single ingestion chunk finishes,
// successfully or not.
type ChunkCompleted struct {
	JobID          string `json:"job_id"`
	ChunkIndex     int    `json:"chunk_index"`
	ConceptsFound  int    `json:"concepts_found"`
	LinksFound     int    `json:"links_found"`
	FailedAttempts int    `json:"failed_attempts"`
}

// Completed is published when an entire ingestion job or cultivation cycle
// finishes, carrying aggregate counts and timing.
type Completed struct {
	JobID         string        `json:"job_id"`
	ConceptsTotal int           `json:"concepts_total"`
	LinksTotal    int           `json:"links_total"`
	Duration      time.Duration `json:"duration_ns"`
}

// Error is published when a job or cycle step fails in a way the caller
// should be told about without the whole stream closing.
type Error struct {
	JobID   string `json:"job_id,omitempty"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// QuestionGenerated is published by the germinate phase for each
// reflective question it forms over a concept's strongest neighbours.
type QuestionGenerated struct {
	ConceptID string `json:"concept_id"`
	Label     string `json:"label"`
	Question  string `json:"question"`
}
