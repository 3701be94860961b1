package retrieval

import (
	"context"
	"sort"
	"time"

	"scholaria/backend/internal/text"
)

const (
	DefaultTopK      = 5
	DefaultThreshold = 0.7
)

// Result is one ranked retrieval hit. Transient, produced per query.
type Result struct {
	Ref        text.ChunkRef `json:"ref"`
	Text       string        `json:"text"`
	Section    string        `json:"section,omitempty"`
	Page       int           `json:"page,omitempty"`
	Similarity float32       `json:"similarity"`
}

// SourceID is the chunk's "docID#index" identifier for traceability.
func (r Result) SourceID() string {
	return r.Ref.SourceID()
}

// QueryEmbedder is the single-item embedding path used at query time.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

// VectorIndex performs tenant-scoped similarity search. Implementations must
// only ever compare vectors belonging to the given tenant; cross-tenant
// isolation lives at this layer, not in post-filtering.
type VectorIndex interface {
	SimilaritySearch(ctx context.Context, tenant string, vector []float32, topK int, threshold float32) ([]Result, error)
}

type SearchOptions struct {
	TopK      *int
	Threshold *float32
}

type Service struct {
	embedder QueryEmbedder
	index    VectorIndex
	logger   *QueryLogger
}

func NewService(e QueryEmbedder, idx VectorIndex, l *QueryLogger) *Service {
	return &Service{embedder: e, index: idx, logger: l}
}

// Search embeds the query and returns the stored chunks most similar to it
// within the tenant scope, sorted by descending similarity, duplicates
// removed, truncated to top-k. No result clearing the threshold is an empty
// list, not an error.
func (s *Service) Search(ctx context.Context, tenant, query string, opts *SearchOptions) ([]Result, error) {
	start := time.Now()

	topK := DefaultTopK
	threshold := float32(DefaultThreshold)
	if opts != nil {
		if opts.TopK != nil && *opts.TopK > 0 {
			topK = *opts.TopK
		}
		if opts.Threshold != nil {
			threshold = *opts.Threshold
		}
	}

	vec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err := s.index.SimilaritySearch(ctx, tenant, vec, topK, threshold)
	if err != nil {
		return nil, err
	}
	results = Rank(results, topK, threshold)

	if s.logger != nil {
		s.logger.Log(QueryLogEntry{
			Tenant:     tenant,
			Query:      query,
			NumResults: len(results),
			Duration:   time.Since(start),
		})
	}
	return results, nil
}

// Rank enforces the result-list invariants regardless of what the index
// returned: threshold applied, descending similarity with ties broken by
// insertion order, no duplicate refs, at most topK entries.
func Rank(results []Result, topK int, threshold float32) []Result {
	filtered := make([]Result, 0, len(results))
	seen := make(map[text.ChunkRef]bool, len(results))
	for _, r := range results {
		if r.Similarity < threshold || seen[r.Ref] {
			continue
		}
		seen[r.Ref] = true
		filtered = append(filtered, r)
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Similarity > filtered[j].Similarity
	})
	if len(filtered) > topK {
		filtered = filtered[:topK]
	}
	return filtered
}
