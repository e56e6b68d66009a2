package ragsvc

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenwick-labs/voicegate/internal/config"
	"github.com/fenwick-labs/voicegate/internal/ragsvc/store"
)

// fakeEmbedder is a deterministic bag-of-words embedder for tests: every
// text maps to a fixed-dimension vector counting occurrences of a small
// known vocabulary, so cosine similarity actually discriminates between
// test fixtures without a real embedding-service round trip.
type fakeEmbedder struct {
	vocab   []string
	failing bool
	calls   int
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.failing {
		return nil, assertErr
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		lower := strings.ToLower(text)
		vec := make([]float32, len(f.vocab))
		for j, word := range f.vocab {
			vec[j] = float32(strings.Count(lower, word))
		}
		out[i] = vec
	}
	return out, nil
}

var assertErr = &fakeEmbedderError{}

type fakeEmbedderError struct{}

func (e *fakeEmbedderError) Error() string { return "fake embedding failure" }

func writeCorpus(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "corpus.txt")
	content := "SOURCE: https://bank.example/faq/freeze\nTITLE: How to freeze your card\n\n" +
		"To freeze your card open the app and tap freeze card on the card details screen." +
		sectionDelimiter +
		"SOURCE: https://bank.example/faq/balance\nTITLE: Checking your balance\n\n" +
		"Open the app and tap balance to see your current account balance."
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func baseRAGConfig(corpusPath, storeDir string) config.RAGConfig {
	return config.RAGConfig{
		CorpusPath:     corpusPath,
		StoreDir:       storeDir,
		UseVectorStore: true,
		ChunkSize:      500,
		ChunkOverlap:   100,
		DefaultTopK:    3,
		EmbeddingBatch: 50,
	}
}

func TestServiceQueryFallbackWhenVectorStoreDisabled(t *testing.T) {
	dir := t.TempDir()
	corpusPath := writeCorpus(t, dir)
	cfg := baseRAGConfig(corpusPath, filepath.Join(dir, "index"))
	cfg.UseVectorStore = false

	svc := New(cfg, nil, nil, nil, nil)
	require.NoError(t, svc.Index(context.Background(), false))

	result, err := svc.Query(context.Background(), "how do I freeze my card", 2)
	require.NoError(t, err)
	assert.Contains(t, result, "How to freeze your card")
	assert.Contains(t, result, "freeze card")
}

func TestServiceIndexAndVectorQuery(t *testing.T) {
	dir := t.TempDir()
	corpusPath := writeCorpus(t, dir)
	storeDir := filepath.Join(dir, "index")
	cfg := baseRAGConfig(corpusPath, storeDir)

	emb := &fakeEmbedder{vocab: []string{"freeze", "card", "balance", "account"}}
	st := store.New(storeDir)
	svc := New(cfg, emb, st, nil, nil)

	require.NoError(t, svc.Index(context.Background(), false))

	result, err := svc.Query(context.Background(), "freeze card", 1)
	require.NoError(t, err)
	assert.Contains(t, result, "How to freeze your card")
	assert.NotContains(t, result, "Checking your balance")
}

func TestServiceReindexIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	corpusPath := writeCorpus(t, dir)
	storeDir := filepath.Join(dir, "index")
	cfg := baseRAGConfig(corpusPath, storeDir)

	emb := &fakeEmbedder{vocab: []string{"freeze", "card", "balance", "account"}}
	st := store.New(storeDir)
	svc := New(cfg, emb, st, nil, nil)

	require.NoError(t, svc.Index(context.Background(), false))
	first, err := svc.Query(context.Background(), "freeze card", 1)
	require.NoError(t, err)

	require.NoError(t, svc.Index(context.Background(), true))
	second, err := svc.Query(context.Background(), "freeze card", 1)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	records, err := st.Load(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, records)
}

func TestServiceQueryFallsBackOnEmbeddingFailure(t *testing.T) {
	dir := t.TempDir()
	corpusPath := writeCorpus(t, dir)
	storeDir := filepath.Join(dir, "index")
	cfg := baseRAGConfig(corpusPath, storeDir)

	emb := &fakeEmbedder{vocab: []string{"freeze", "card"}}
	st := store.New(storeDir)
	svc := New(cfg, emb, st, nil, nil)
	require.NoError(t, svc.Index(context.Background(), false))

	emb.failing = true
	result, err := svc.Query(context.Background(), "freeze card", 1)
	require.NoError(t, err)
	assert.Contains(t, result, "How to freeze your card")
}

func TestServiceIndexFatalOnMissingCorpus(t *testing.T) {
	cfg := baseRAGConfig("/nonexistent/corpus.txt", t.TempDir())
	svc := New(cfg, &fakeEmbedder{}, store.New(t.TempDir()), nil, nil)
	err := svc.Index(context.Background(), false)
	require.Error(t, err)
	var cfgErr *config.Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, config.ErrConfigInvalid, cfgErr.Kind)
}

func TestTokenizeKeywordsDropsStopWordsAndShortTokens(t *testing.T) {
	words := tokenizeKeywords("How do I freeze my card, and can you help?")
	assert.Contains(t, words, "freeze")
	assert.Contains(t, words, "card")
	assert.Contains(t, words, "help")
	assert.NotContains(t, words, "how")
	assert.NotContains(t, words, "you")
	assert.NotContains(t, words, "my")
	assert.NotContains(t, words, "do")
}

func TestFormatResultsJoinsWithSeparator(t *testing.T) {
	out := formatResults([]scored{
		{title: "A", text: "first"},
		{title: "B", text: "second"},
	})
	assert.Equal(t, "[A]\nfirst\n---\n[B]\nsecond", out)
}
