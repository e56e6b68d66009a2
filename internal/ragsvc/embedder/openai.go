package embedder

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// maxBatchSize is the spec's ≤50-chunks-per-embedding-call indexing
// constraint.
const maxBatchSize = 50

// Config configures the OpenAI-embeddings-shaped HTTP client.
type Config struct {
	Endpoint string
	APIKey   string
	Model    string
}

// Client embeds text against an OpenAI-embeddings-compatible endpoint,
// throttling batch calls with a token bucket so indexing a large corpus
// doesn't burst past the embedding service's rate limit.
type Client struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
}

var _ Embedder = (*Client)(nil)

// New constructs a Client. ratePerSecond bounds how many batch calls per
// second are issued; a value of 0 disables throttling.
func New(cfg Config, ratePerSecond float64) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embedding: api key is required")
	}
	model := cfg.Model
	if model == "" {
		model = "text-embedding-3-small"
	}

	conf := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		conf.BaseURL = cfg.Endpoint
	}

	var limiter *rate.Limiter
	if ratePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(ratePerSecond), 1)
	}

	return &Client{
		client:  openai.NewClientWithConfig(conf),
		model:   model,
		limiter: limiter,
	}, nil
}

// Embed embeds texts in batches of at most maxBatchSize, preserving
// input order in the result.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := c.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}

func (c *Client) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("embedding: rate limiter: %w", err)
		}
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		return nil, fmt.Errorf("embedding: create embeddings: %w", err)
	}

	out := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		out[d.Index] = d.Embedding
	}
	return out, nil
}
