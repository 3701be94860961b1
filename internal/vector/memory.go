package vector

import (
	"context"
	"math"
	"sync"

	"scholaria/backend/internal/retrieval"
	"scholaria/backend/internal/text"
)

type entry struct {
	chunk  text.Chunk
	vector []float32
}

// MemoryIndex is a brute-force cosine-similarity index partitioned by
// tenant. Vectors from one tenant are never compared against another
// tenant's query; the partition map is the isolation boundary. Used in
// tests and as the index when no Weaviate instance is configured.
type MemoryIndex struct {
	mu      sync.RWMutex
	tenants map[string][]entry
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{tenants: make(map[string][]entry)}
}

func (m *MemoryIndex) Upsert(ctx context.Context, tenant string, chunk text.Chunk, vec []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := m.tenants[tenant]
	for i := range entries {
		if entries[i].chunk.Ref() == chunk.Ref() {
			entries[i] = entry{chunk: chunk, vector: vec}
			return nil
		}
	}
	m.tenants[tenant] = append(entries, entry{chunk: chunk, vector: vec})
	return nil
}

func (m *MemoryIndex) SimilaritySearch(ctx context.Context, tenant string, vec []float32, topK int, threshold float32) ([]retrieval.Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []retrieval.Result
	for _, e := range m.tenants[tenant] {
		results = append(results, retrieval.Result{
			Ref:        e.chunk.Ref(),
			Text:       e.chunk.Text,
			Section:    e.chunk.Section,
			Page:       e.chunk.Page,
			Similarity: Cosine(vec, e.vector),
		})
	}
	return retrieval.Rank(results, topK, threshold), nil
}

func (m *MemoryIndex) DeleteByDoc(ctx context.Context, tenant, docID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := m.tenants[tenant]
	kept := entries[:0]
	for _, e := range entries {
		if e.chunk.DocID != docID {
			kept = append(kept, e)
		}
	}
	m.tenants[tenant] = kept
	return nil
}

func (m *MemoryIndex) CountChunks(ctx context.Context, tenant string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tenants[tenant]), nil
}

// Cosine computes cosine similarity; zero-magnitude vectors score 0.
func Cosine(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
