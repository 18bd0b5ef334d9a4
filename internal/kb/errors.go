package kb

import "errors"

// ErrConceptNotFound is returned when a concept ID does not resolve to any
// concept currently held by the store.
var ErrConceptNotFound = errors.New("kb: concept not found")

// ErrLinkNotFound is returned when a link ID does not resolve to any link
// currently held by the store.
var ErrLinkNotFound = errors.New("kb: link not found")

// ErrEmptyLabel is a precondition violation: a concept must have a
// non-empty label after normalisation.
var ErrEmptyLabel = errors.New("kb: concept label must not be empty")

// ErrTooFewParticipants is a precondition violation: a link must name at
// least two participants (invariant I4).
var ErrTooFewParticipants = errors.New("kb: link requires at least two participants")

// ErrDanglingParticipant is a precondition violation: every participant of
// a link must reference a concept already present in the store.
var ErrDanglingParticipant = errors.New("kb: link participant references unknown concept")

// ErrEmbeddingDimMismatch is a precondition violation: a concept's
// embedding must match the store's configured dimensionality.
var ErrEmbeddingDimMismatch = errors.New("kb: embedding dimension mismatch")

// PreconditionError wraps a caller-supplied precondition violation (I1/I2
// construction failures, malformed upsert requests) distinctly from
// operational errors, so callers can tell "your request was invalid" apart
// from "the store failed." It is never logged as a warning and never
// reaches the event stream, per spec.md §7.
type PreconditionError struct {
	Op  string
	Err error
}

func (e *PreconditionError) Error() string {
	return "kb: " + e.Op + ": " + e.Err.Error()
}

func (e *PreconditionError) Unwrap() error { return e.Err }

func precondition(op string, err error) error {
	return &PreconditionError{Op: op, Err: err}
}
