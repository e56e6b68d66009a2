// Package ragsvc implements the retrieval service: corpus chunking,
// batch embedding, nearest-neighbor search, and a keyword-scoring
// fallback used when the vector store is unavailable.
package ragsvc

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
)

// breakPreference is the ordered list of separators the chunker prefers
// to split on, tried in order before falling back to a hard cut.
var breakPreference = []string{". ", "? ", "! ", "\n\n"}

// Chunk is one piece of a Section, sized to fit the embedding model and
// overlapping its neighbor by a fixed number of characters.
type Chunk struct {
	ID       string
	Text     string
	Metadata ChunkMetadata
}

// ChunkMetadata carries the provenance spec.md requires callers be able
// to cite back to.
type ChunkMetadata struct {
	SourceURL      string
	Title          string
	SectionOrdinal int
	ChunkOrdinal   int
}

// Section is one corpus section: a scraped page's worth of prose plus
// the source URL and title recovered from its header.
type Section struct {
	SourceURL string
	Title     string
	Body      string
	Ordinal   int
}

// chunkSection splits one section's body into Chunks of at most
// chunkSize characters, where adjacent chunks overlap by exactly
// overlap characters (drawn from the end of the previous chunk's core
// text) except at the section's start and end.
func chunkSection(sec Section, chunkSize, overlap int) []Chunk {
	body := strings.TrimSpace(sec.Body)
	if body == "" {
		return nil
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 5
	}
	coreSize := chunkSize - overlap
	if coreSize <= 0 {
		coreSize = chunkSize
	}

	cores := splitIntoCores(body, coreSize)

	chunks := make([]Chunk, 0, len(cores))
	for i, core := range cores {
		text := core
		if i > 0 {
			prev := cores[i-1]
			n := overlap
			if n > len(prev) {
				n = len(prev)
			}
			text = prev[len(prev)-n:] + core
		}
		chunks = append(chunks, Chunk{
			ID:   chunkID(sec.SourceURL, sec.Ordinal, i),
			Text: text,
			Metadata: ChunkMetadata{
				SourceURL:      sec.SourceURL,
				Title:          sec.Title,
				SectionOrdinal: sec.Ordinal,
				ChunkOrdinal:   i,
			},
		})
	}
	return chunks
}

// splitIntoCores walks body emitting non-overlapping pieces of at most
// coreSize characters each, preferring to break at the rightmost match
// of breakPreference within the current window and falling back to a
// hard cut at coreSize when no preferred separator is present.
func splitIntoCores(body string, coreSize int) []string {
	var cores []string
	for len(body) > 0 {
		if len(body) <= coreSize {
			cores = append(cores, body)
			break
		}

		window := body[:coreSize]
		cut := bestBreak(window)
		if cut <= 0 {
			cut = coreSize
		}
		cores = append(cores, body[:cut])
		body = body[cut:]
	}
	return cores
}

// bestBreak returns the end offset (exclusive, including the separator
// itself) of the rightmost occurrence of the highest-priority separator
// found in window, or 0 if none of the preferred separators occur.
func bestBreak(window string) int {
	for _, sep := range breakPreference {
		if idx := strings.LastIndex(window, sep); idx >= 0 {
			return idx + len(sep)
		}
	}
	return 0
}

// chunkID derives a stable, deterministic chunk id so that re-indexing
// the same corpus with force_reindex yields identical ids.
func chunkID(sourceURL string, sectionOrdinal, chunkOrdinal int) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s#%d#%d", sourceURL, sectionOrdinal, chunkOrdinal)))
	return hex.EncodeToString(sum[:8])
}
