package ingest

import "strings"

// DefaultChunkSize is the target chunk length in runes. Grounded on the
// teacher's chunker (internal/domain/knowledge/chunker.go), which windows
// over whitespace-separated tokens rather than sentences; this pipeline
// instead prefers sentence boundaries so a chunk never splits mid-thought,
// which matters more for extraction quality than for the teacher's
// retrieval use case.
const DefaultChunkSize = 2000

// sentenceEnd is checked per-rune rather than compiled as a regexp since
// Chunk scans once and only needs membership, not a match.
func sentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '\n'
}

// Chunk splits text into pieces of roughly size runes, cutting just after
// the first sentence boundary (., !, ?, or newline) found at or after the
// target size, the way the teacher's Chunk breaks at or after its target
// size but on whitespace instead. The search for a boundary stops before
// 2*size runes; when none appears in that stretch (e.g. a table or
// reference list), the cut falls at exactly size runes, even mid-word. A
// piece can therefore be up to 2*size runes long. A text of size runes or
// fewer returns as a single chunk. Pieces are trimmed of surrounding
// whitespace and empty pieces are dropped.
func Chunk(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		if len(runes)-start <= size {
			chunks = append(chunks, strings.TrimSpace(string(runes[start:])))
			break
		}

		end := -1
		hardCap := start + 2*size
		if hardCap > len(runes) {
			hardCap = len(runes)
		}
		for i := start + size; i < hardCap; i++ {
			if sentenceEnd(runes[i]) {
				end = i + 1
				break
			}
		}
		if end == -1 {
			end = start + size
		}

		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			chunks = append(chunks, piece)
		}
		start = end
	}
	return chunks
}
