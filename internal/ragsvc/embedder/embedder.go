// Package embedder turns chunk text into dense vectors via the
// embedding service configured for the gateway.
package embedder

import "context"

// Embedder embeds one batch of texts in a single round trip. Callers
// are responsible for keeping batches at or below the service's limit;
// Client.EmbedBatches below does this for the ≤50-per-batch indexing
// constraint.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
