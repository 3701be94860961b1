package vector_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"scholaria/backend/internal/text"
	"scholaria/backend/internal/vector"
)

func chunk(doc string, idx int, body string) text.Chunk {
	return text.Chunk{DocID: doc, Index: idx, Text: body}
}

func TestMemoryIndex_SimilaritySearch(t *testing.T) {
	ctx := context.Background()

	t.Run("Tenant Isolation", func(t *testing.T) {
		idx := vector.NewMemoryIndex()
		require.NoError(t, idx.Upsert(ctx, "tenantA", chunk("dA", 0, "alpha"), []float32{1, 0}))
		require.NoError(t, idx.Upsert(ctx, "tenantB", chunk("dB", 0, "beta"), []float32{1, 0}))

		results, err := idx.SimilaritySearch(ctx, "tenantB", []float32{1, 0}, 5, 0.0)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "dB", results[0].Ref.DocID)
	})

	t.Run("Ranked Descending With Threshold", func(t *testing.T) {
		idx := vector.NewMemoryIndex()
		// cosine against query {1,0}: 1.0, ~0.707, 0.0
		require.NoError(t, idx.Upsert(ctx, "t", chunk("d", 0, "far"), []float32{0, 1}))
		require.NoError(t, idx.Upsert(ctx, "t", chunk("d", 1, "mid"), []float32{1, 1}))
		require.NoError(t, idx.Upsert(ctx, "t", chunk("d", 2, "near"), []float32{1, 0}))

		results, err := idx.SimilaritySearch(ctx, "t", []float32{1, 0}, 5, 0.5)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "near", results[0].Text)
		assert.Equal(t, "mid", results[1].Text)
	})

	t.Run("Upsert Replaces By Ref", func(t *testing.T) {
		idx := vector.NewMemoryIndex()
		require.NoError(t, idx.Upsert(ctx, "t", chunk("d", 0, "old"), []float32{1, 0}))
		require.NoError(t, idx.Upsert(ctx, "t", chunk("d", 0, "new"), []float32{1, 0}))

		results, err := idx.SimilaritySearch(ctx, "t", []float32{1, 0}, 5, 0.0)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "new", results[0].Text)
	})

	t.Run("Unknown Tenant Is Empty", func(t *testing.T) {
		idx := vector.NewMemoryIndex()
		results, err := idx.SimilaritySearch(ctx, "nobody", []float32{1}, 5, 0.0)
		assert.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestMemoryIndex_DeleteByDoc(t *testing.T) {
	ctx := context.Background()
	idx := vector.NewMemoryIndex()
	require.NoError(t, idx.Upsert(ctx, "t", chunk("d1", 0, "a"), []float32{1}))
	require.NoError(t, idx.Upsert(ctx, "t", chunk("d1", 1, "b"), []float32{1}))
	require.NoError(t, idx.Upsert(ctx, "t", chunk("d2", 0, "c"), []float32{1}))

	require.NoError(t, idx.DeleteByDoc(ctx, "t", "d1"))

	count, err := idx.CountChunks(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, vector.Cosine([]float32{1, 2}, []float32{1, 2}), 1e-6)
	assert.InDelta(t, 0.0, vector.Cosine([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, -1.0, vector.Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-6)
	assert.Equal(t, float32(0), vector.Cosine([]float32{0, 0}, []float32{1, 1}))
}
