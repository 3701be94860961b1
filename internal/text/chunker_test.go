package text

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSegmentText(t *testing.T) {
	t.Run("Fixed Windows With Overlap", func(t *testing.T) {
		chunks := SegmentText("doc1", "A B C D E F G H I J", 4, 1)

		assert.Len(t, chunks, 3)
		assert.Equal(t, "A B C D", chunks[0].Text)
		assert.Equal(t, "D E F G", chunks[1].Text)
		assert.Equal(t, "G H I J", chunks[2].Text)
	})

	t.Run("Short Input Is One Chunk", func(t *testing.T) {
		chunks := SegmentText("doc1", "A B C", 4, 1)
		assert.Len(t, chunks, 1)
		assert.Equal(t, "A B C", chunks[0].Text)
		assert.Equal(t, 3, chunks[0].TokenCount)
	})

	t.Run("Empty Input Yields Zero Chunks", func(t *testing.T) {
		assert.Empty(t, SegmentText("doc1", "", 4, 1))
		assert.Empty(t, SegmentText("doc1", "   \n\t  ", 4, 1))
	})

	t.Run("Trailing Window Kept When Short", func(t *testing.T) {
		// 5 tokens, size 4, no overlap: second window has a single token
		chunks := SegmentText("doc1", "A B C D E", 4, 0)
		assert.Len(t, chunks, 2)
		assert.Equal(t, "E", chunks[1].Text)
	})

	t.Run("No Fully Contained Trailing Window", func(t *testing.T) {
		// size 4 / overlap 1 over 7 tokens: [0:4] then [3:7], never [6:7]
		chunks := SegmentText("doc1", "A B C D E F G", 4, 1)
		assert.Len(t, chunks, 2)
		assert.Equal(t, "D E F G", chunks[1].Text)
	})

	t.Run("Deterministic", func(t *testing.T) {
		a := SegmentText("doc1", "one two three four five six seven", 3, 1)
		b := SegmentText("doc1", "one two three four five six seven", 3, 1)
		assert.Equal(t, a, b)
	})
}

func TestSegment(t *testing.T) {
	t.Run("Sections Become Separate Chunks", func(t *testing.T) {
		elements := []Element{
			{Text: "intro text here", Section: "Introduction", Page: 1},
			{Text: "methods text here", Section: "Methods", Page: 2},
		}
		chunks := Segment("paper1", elements, 10, 2)

		assert.Len(t, chunks, 2)
		assert.Equal(t, "Introduction", chunks[0].Section)
		assert.Equal(t, "Methods", chunks[1].Section)
		assert.Equal(t, 1, chunks[0].Page)
		assert.Equal(t, 2, chunks[1].Page)
	})

	t.Run("Oversized Section Is Re-Split", func(t *testing.T) {
		long := strings.Repeat("word ", 10)
		elements := []Element{
			{Text: "short intro", Section: "Introduction"},
			{Text: long, Section: "Methods"},
		}
		chunks := Segment("paper1", elements, 4, 1)

		assert.True(t, len(chunks) > 2)
		for _, c := range chunks[1:] {
			assert.Equal(t, "Methods", c.Section)
			assert.LessOrEqual(t, c.TokenCount, 4)
		}
	})

	t.Run("Index Monotonic Across Elements", func(t *testing.T) {
		elements := []Element{
			{Text: strings.Repeat("a ", 9), Section: "S1"},
			{Text: "tail", Section: "S2"},
		}
		chunks := Segment("paper1", elements, 4, 1)
		for i, c := range chunks {
			assert.Equal(t, i, c.Index)
			assert.Equal(t, "paper1", c.DocID)
		}
	})

	t.Run("Empty Elements Skipped", func(t *testing.T) {
		elements := []Element{
			{Text: "  ", Section: "Blank"},
			{Text: "content", Section: "Body"},
		}
		chunks := Segment("paper1", elements, 4, 0)
		assert.Len(t, chunks, 1)
		assert.Equal(t, 0, chunks[0].Index)
	})
}

func TestWindowProperties(t *testing.T) {
	t.Run("Chunk Size Bound", func(t *testing.T) {
		chunks := SegmentText("d", strings.Repeat("tok ", 57), 8, 3)
		for i, c := range chunks {
			if i < len(chunks)-1 {
				assert.Equal(t, 8, c.TokenCount)
			} else {
				assert.LessOrEqual(t, c.TokenCount, 8)
				assert.Greater(t, c.TokenCount, 0)
			}
		}
	})

	t.Run("Adjacent Overlap Shared", func(t *testing.T) {
		overlap := 3
		text := "t0 t1 t2 t3 t4 t5 t6 t7 t8 t9 t10 t11 t12 t13 t14"
		chunks := SegmentText("d", text, 8, overlap)
		for i := 0; i < len(chunks)-1; i++ {
			prev := Tokens(chunks[i].Text)
			next := Tokens(chunks[i+1].Text)
			tail := prev[len(prev)-overlap:]
			head := next[:overlap]
			assert.Equal(t, tail, head)
		}
	})
}

func TestChunkRef(t *testing.T) {
	c := Chunk{DocID: "paper1", Index: 4}
	assert.Equal(t, ChunkRef{DocID: "paper1", Index: 4}, c.Ref())
	assert.Equal(t, "paper1#4", c.Ref().SourceID())
}
