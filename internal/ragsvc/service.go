package ragsvc

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fenwick-labs/voicegate/internal/config"
	"github.com/fenwick-labs/voicegate/internal/observability"
	"github.com/fenwick-labs/voicegate/internal/ragsvc/embedder"
	"github.com/fenwick-labs/voicegate/internal/ragsvc/store"
)

// Service is the retrieval service (C2): chunks the corpus, embeds and
// persists chunks, and answers queries by nearest-neighbor search with a
// keyword-scoring fallback when the vector store is unavailable.
type Service struct {
	cfg      config.RAGConfig
	embedder embedder.Embedder
	store    store.Store
	logger   *observability.Logger
	metrics  *observability.Metrics

	mu       sync.RWMutex
	records  []store.Record
	sections []Section
	loaded   bool
}

// New constructs a Service. embedder and store may be nil when
// cfg.UseVectorStore is false — the service then serves every query via
// the keyword fallback and never touches either.
func New(cfg config.RAGConfig, emb embedder.Embedder, st store.Store, logger *observability.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		cfg:      cfg,
		embedder: emb,
		store:    st,
		logger:   logger,
		metrics:  metrics,
	}
}

// Index builds the retrieval index: split the corpus into sections, chunk
// each section, batch-embed the chunks, and persist the result. With
// force=false, an already-persisted index is reused untouched. Corpus file
// errors and embedding-service errors during indexing are fatal, per
// spec.md §4.2.
func (s *Service) Index(ctx context.Context, force bool) error {
	sections, err := loadCorpus(s.cfg.CorpusPath)
	if err != nil {
		return &config.Error{Kind: config.ErrConfigInvalid, Msg: err.Error()}
	}

	s.mu.Lock()
	s.sections = sections
	s.mu.Unlock()

	if !s.cfg.UseVectorStore {
		return nil
	}

	if !force && s.store != nil {
		existing, err := s.store.Load(ctx)
		if err == nil && len(existing) > 0 {
			s.mu.Lock()
			s.records = existing
			s.loaded = true
			s.mu.Unlock()
			return nil
		}
	}

	if s.embedder == nil {
		return &config.Error{Kind: config.ErrEmbeddingFailure, Msg: "no embedder configured for indexing"}
	}

	var allChunks []Chunk
	for _, sec := range sections {
		allChunks = append(allChunks, chunkSection(sec, s.cfg.ChunkSize, s.cfg.ChunkOverlap)...)
	}

	records := make([]store.Record, 0, len(allChunks))
	batch := s.cfg.EmbeddingBatch
	if batch <= 0 {
		batch = 50
	}
	for start := 0; start < len(allChunks); start += batch {
		end := start + batch
		if end > len(allChunks) {
			end = len(allChunks)
		}
		group := allChunks[start:end]

		texts := make([]string, len(group))
		for i, c := range group {
			texts[i] = c.Text
		}

		embedStart := time.Now()
		vectors, err := s.embedder.Embed(ctx, texts)
		if s.metrics != nil {
			s.metrics.EmbeddingRequestDuration.Observe(time.Since(embedStart).Seconds())
			s.metrics.EmbeddingBatchSize.Observe(float64(len(texts)))
		}
		if err != nil {
			return &config.Error{Kind: config.ErrEmbeddingFailure, Msg: fmt.Sprintf("indexing: %v", err)}
		}
		if len(vectors) != len(group) {
			return &config.Error{Kind: config.ErrEmbeddingFailure, Msg: "indexing: embedding count mismatch"}
		}

		for i, c := range group {
			records = append(records, store.Record{
				ID:             c.ID,
				Text:           c.Text,
				Embedding:      vectors[i],
				SourceURL:      c.Metadata.SourceURL,
				Title:          c.Metadata.Title,
				SectionOrdinal: c.Metadata.SectionOrdinal,
				ChunkOrdinal:   c.Metadata.ChunkOrdinal,
			})
		}
	}

	if s.store != nil {
		if err := s.store.Save(ctx, records); err != nil {
			return &config.Error{Kind: config.ErrEmbeddingFailure, Msg: fmt.Sprintf("indexing: persist: %v", err)}
		}
	}

	s.mu.Lock()
	s.records = records
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// Query answers a retrieval request, returning up to k results formatted
// as "[title]\ntext" blocks joined by a line containing "---". k<=0 uses
// the configured default. Embedding-service failure at query time (or
// UseVectorStore=false) falls back to keyword scoring rather than
// erroring, per spec.md §4.2.
func (s *Service) Query(ctx context.Context, query string, k int) (string, error) {
	if k <= 0 {
		k = s.cfg.DefaultTopK
	}
	if k <= 0 {
		k = 3
	}

	start := time.Now()
	results, usedFallback := s.search(ctx, query, k)
	if s.metrics != nil {
		s.metrics.RAGSearchDuration.Observe(time.Since(start).Seconds())
		s.metrics.RAGSearchResults.Observe(float64(len(results)))
	}
	if s.logger != nil {
		s.logger.Debug(ctx, "rag query completed", "query", query, "results", len(results), "fallback", usedFallback)
	}

	return formatResults(results), nil
}

type scored struct {
	title string
	text  string
	score float64
}

func (s *Service) search(ctx context.Context, query string, k int) ([]scored, bool) {
	if s.cfg.UseVectorStore && s.embedder != nil {
		if results, err := s.vectorSearch(ctx, query, k); err == nil {
			return results, false
		} else if s.logger != nil {
			s.logger.Warn(ctx, "rag vector search failed, falling back to keyword scoring", "error", err)
		}
	}
	return s.keywordFallback(query, k), true
}

func (s *Service) vectorSearch(ctx context.Context, query string, k int) ([]scored, error) {
	s.mu.RLock()
	records := s.records
	s.mu.RUnlock()
	if len(records) == 0 && s.store != nil {
		loaded, err := s.store.Load(ctx)
		if err != nil {
			return nil, err
		}
		records = loaded
		s.mu.Lock()
		s.records = loaded
		s.mu.Unlock()
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("ragsvc: vector store empty")
	}

	embedStart := time.Now()
	vectors, err := s.embedder.Embed(ctx, []string{query})
	if s.metrics != nil {
		s.metrics.EmbeddingRequestDuration.Observe(time.Since(embedStart).Seconds())
	}
	if err != nil || len(vectors) == 0 {
		return nil, &config.Error{Kind: config.ErrEmbeddingFailure, Msg: "query embedding failed"}
	}
	qv := vectors[0]

	type ranked struct {
		rec   store.Record
		score float64
	}
	pool := make([]ranked, 0, len(records))
	for _, r := range records {
		pool = append(pool, ranked{rec: r, score: cosineSimilarity(qv, r.Embedding)})
	}
	sort.Slice(pool, func(i, j int) bool { return pool[i].score > pool[j].score })

	topN := k * 2
	if topN > len(pool) {
		topN = len(pool)
	}

	seenText := make(map[string]struct{}, topN)
	out := make([]scored, 0, k)
	for _, r := range pool[:topN] {
		if _, dup := seenText[r.rec.Text]; dup {
			continue
		}
		seenText[r.rec.Text] = struct{}{}
		out = append(out, scored{title: r.rec.Title, text: r.rec.Text, score: r.score})
		if len(out) == k {
			break
		}
	}
	return out, nil
}

// keywordFallback scores each section by keyword count, per spec.md §4.2:
// tokenize to lowercase alphabetic words >= 3 chars, discard stop words,
// score = count*100, +200 if every keyword is present, divided by
// section_len/100 to favor concise sections.
func (s *Service) keywordFallback(query string, k int) []scored {
	s.mu.RLock()
	sections := s.sections
	s.mu.RUnlock()

	keywords := tokenizeKeywords(query)
	if len(keywords) == 0 || len(sections) == 0 {
		return nil
	}

	type ranked struct {
		sec   Section
		score float64
	}
	pool := make([]ranked, 0, len(sections))
	for _, sec := range sections {
		lower := strings.ToLower(sec.Body)
		count := 0
		allPresent := true
		for _, kw := range keywords {
			n := strings.Count(lower, kw)
			count += n
			if n == 0 {
				allPresent = false
			}
		}
		if count == 0 {
			continue
		}
		score := float64(count) * 100
		if allPresent {
			score += 200
		}
		denom := float64(len(sec.Body)) / 100
		if denom <= 0 {
			denom = 1
		}
		score /= denom
		pool = append(pool, ranked{sec: sec, score: score})
	}
	sort.Slice(pool, func(i, j int) bool { return pool[i].score > pool[j].score })

	if k > len(pool) {
		k = len(pool)
	}
	out := make([]scored, 0, k)
	for _, r := range pool[:k] {
		out = append(out, scored{title: r.sec.Title, text: r.sec.Body, score: r.score})
	}
	return out
}

func tokenizeKeywords(query string) []string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() == 0 {
			return
		}
		w := cur.String()
		cur.Reset()
		if len(w) >= 3 && !isStopWord(w) {
			words = append(words, w)
		}
	}
	for _, r := range strings.ToLower(query) {
		if r >= 'a' && r <= 'z' {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return words
}

func formatResults(results []scored) string {
	if len(results) == 0 {
		return ""
	}
	blocks := make([]string, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, fmt.Sprintf("[%s]\n%s", r.title, r.text))
	}
	return strings.Join(blocks, "\n---\n")
}
