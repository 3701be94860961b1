package text

import (
	"fmt"
	"strings"
)

// Element is one ordered unit of extracted document text, optionally tagged
// with the section and page it came from. Produced by the extraction service.
type Element struct {
	Text    string `json:"text"`
	Section string `json:"section,omitempty"`
	Page    int    `json:"page,omitempty"`
}

// Chunk is the atomic retrievable unit derived from a document. Immutable
// once created; Index is 0-based and strictly increasing per document.
type Chunk struct {
	DocID      string `json:"doc_id"`
	Index      int    `json:"chunk_index"`
	Text       string `json:"text"`
	Section    string `json:"section,omitempty"`
	Page       int    `json:"page,omitempty"`
	TokenCount int    `json:"token_count"`
}

// ChunkRef identifies a chunk independently of its position in a slice, so
// embeddings and chunks stay correlated even after partial failures.
type ChunkRef struct {
	DocID string `json:"doc_id"`
	Index int    `json:"chunk_index"`
}

func (c Chunk) Ref() ChunkRef {
	return ChunkRef{DocID: c.DocID, Index: c.Index}
}

// SourceID renders a ref as "docID#index" for result traceability.
func (r ChunkRef) SourceID() string {
	return fmt.Sprintf("%s#%d", r.DocID, r.Index)
}

// Tokens splits text into word-level tokens. All chunking and budget
// accounting in the pipeline counts tokens through this one function so the
// overlap and budget invariants hold regardless of input whitespace.
func Tokens(s string) []string {
	return strings.Fields(s)
}

func CountTokens(s string) int {
	return len(Tokens(s))
}

// Segment splits extracted elements into ordered, size-bounded chunks.
// Elements that fit within chunkSize tokens become one chunk each; longer
// elements are re-split into fixed windows of chunkSize tokens sharing
// overlap tokens with the previous window. Deterministic for identical
// input and settings. Empty or whitespace-only input yields zero chunks;
// reporting that as an extraction failure is the caller's job.
func Segment(docID string, elements []Element, chunkSize, overlap int) []Chunk {
	if chunkSize <= 0 {
		return nil
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize - 1
	}

	var chunks []Chunk
	index := 0
	for _, el := range elements {
		tokens := Tokens(el.Text)
		if len(tokens) == 0 {
			continue
		}
		for _, window := range windows(tokens, chunkSize, overlap) {
			chunks = append(chunks, Chunk{
				DocID:      docID,
				Index:      index,
				Text:       strings.Join(window, " "),
				Section:    el.Section,
				Page:       el.Page,
				TokenCount: len(window),
			})
			index++
		}
	}
	return chunks
}

// SegmentText chunks unstructured text with no section boundaries.
func SegmentText(docID, text string, chunkSize, overlap int) []Chunk {
	return Segment(docID, []Element{{Text: text}}, chunkSize, overlap)
}

// windows yields fixed-size token windows with the given overlap. The loop
// stops as soon as a window reaches the end of the run, so the trailing
// window may be short but a window fully contained in its predecessor is
// never emitted.
func windows(tokens []string, size, overlap int) [][]string {
	if len(tokens) <= size {
		return [][]string{tokens}
	}
	step := size - overlap
	var out [][]string
	for start := 0; ; start += step {
		end := start + size
		if end >= len(tokens) {
			out = append(out, tokens[start:])
			return out
		}
		out = append(out, tokens[start:end])
	}
}
