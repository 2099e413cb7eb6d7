// Package chunker splits extracted document text into retrievable units.
package chunker

import (
	"regexp"
	"strings"
)

// Paragraph boundaries are runs of two or more newlines, with any horizontal
// whitespace on the blank lines between them.
var paragraphBoundary = regexp.MustCompile(`\n[ \t\r]*\n[\s]*`)

// Split breaks text into paragraph-granularity chunks: split at blank-line
// boundaries, trim each unit, drop empties. Chunk order matches paragraph
// order in the source, and the split is deterministic. Empty or
// whitespace-only input yields no chunks, which callers treat as a valid
// outcome rather than an error.
//
// Sentence-level splitting, overlap windows, and merging of short paragraphs
// are intentionally not done here.
func Split(text string) []string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")

	parts := paragraphBoundary.Split(normalized, -1)
	chunks := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		chunks = append(chunks, trimmed)
	}
	return chunks
}
