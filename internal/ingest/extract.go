// Package ingest implements the PDF ingestion pipeline spec.md §4.F
// describes: extract raw text, repair words broken across line/page
// boundaries, chunk into sentence-bounded pieces, and feed each chunk
// through a cultivation cycle via a data-parallel worker pool sized to the
// machine's cores. Grounded on the teacher's chunker
// (internal/domain/knowledge/chunker.go) for the chunking shape and on
// golang.org/x/sync/errgroup, used elsewhere in the examples pack for
// bounded concurrent fan-out, for the worker pool.
package ingest

import (
	"context"
	"errors"
	"io"
)

// ErrUnsupportedFormat is returned by an Extractor that cannot make sense
// of the given reader's content.
var ErrUnsupportedFormat = errors.New("ingest: unsupported document format")

// Extractor pulls raw text out of a document. Production deployments wire
// in a real PDF-text extraction library behind this interface; the
// pipeline itself only depends on the interface, matching spec.md's
// "extraction" stage being a pluggable external collaborator rather than a
// hard dependency of the cultivation core.
type Extractor interface {
	Extract(ctx context.Context, r io.Reader) (string, error)
}

// PlainTextExtractor is the zero-dependency Extractor used when input is
// already plain text (e.g. chat transcripts, or a PDF pre-converted to
// text upstream). It is also the stand-in used in tests, so the pipeline
// can be exercised without a real PDF library present.
type PlainTextExtractor struct{}

func (PlainTextExtractor) Extract(_ context.Context, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
