package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/nsqio/go-nsq"

	"scholaria/backend/internal/adapter/extractor"
	"scholaria/backend/internal/middleware"
	"scholaria/backend/internal/text"
)

// Document statuses as persisted in the documents table.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Remediation details stored alongside a failed status so the document API
// can tell the caller how to recover.
const (
	DetailNoExtractableText = "No text could be extracted; the file is likely a scanned PDF. Run it through an OCR tool and upload the result."
	DetailNoChunksProduced  = "Extraction returned no usable text segments; the document appears to be empty."
	DetailEmbeddingFailed   = "The embedding provider rejected every batch; retry the document once the provider recovers."
)

// IngestConsumer drives a document through extraction, chunking, embedding
// and indexing. It runs entirely off the request path; the upload handler
// only publishes the task.
type IngestConsumer struct {
	extractor Extractor
	batcher   Batcher
	index     VectorIndex
	documents DocumentUpdater
	jobs      JobRecorder

	chunkSize int
	overlap   int
}

func NewIngestConsumer(e Extractor, b Batcher, idx VectorIndex, docs DocumentUpdater, jobs JobRecorder, chunkSize, overlap int) *IngestConsumer {
	return &IngestConsumer{
		extractor: e,
		batcher:   b,
		index:     idx,
		documents: docs,
		jobs:      jobs,
		chunkSize: chunkSize,
		overlap:   overlap,
	}
}

func (h *IngestConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var payload IngestTaskPayload
	if err := json.Unmarshal(m.Body, &payload); err != nil {
		// Poison pill: invalid JSON, don't retry
		slog.Error("poison pill: invalid json", "error", err)
		return nil
	}
	if payload.DocID == "" || payload.Tenant == "" {
		slog.Error("poison pill: missing doc_id or tenant", "doc_id", payload.DocID)
		return nil
	}

	ctx := context.Background()
	if payload.CorrelationID != "" {
		ctx = middleware.WithCorrelationID(ctx, payload.CorrelationID)
	}

	if err := h.documents.UpdateStatus(ctx, payload.DocID, StatusProcessing); err != nil {
		slog.ErrorContext(ctx, "mark processing failed", "error", err, "doc_id", payload.DocID)
		return err // Retry
	}

	extractCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	elements, err := h.extractor.Extract(extractCtx, payload.Path)
	if err != nil {
		if errors.Is(err, extractor.ErrNoExtractableText) {
			// Permanent: retrying the same file can't help.
			h.failDocument(ctx, payload, "no extractable text", DetailNoExtractableText)
			return nil
		}
		slog.ErrorContext(ctx, "extraction failed", "error", err, "doc_id", payload.DocID)
		return err // Retry
	}

	chunks := text.Segment(payload.DocID, elements, h.chunkSize, h.overlap)
	if len(chunks) == 0 {
		h.failDocument(ctx, payload, "no chunks produced", DetailNoChunksProduced)
		return nil
	}

	// Re-ingest is a full replace, so an earlier partial run leaves no
	// stale chunks behind.
	if err := h.index.DeleteByDoc(extractCtx, payload.Tenant, payload.DocID); err != nil {
		slog.ErrorContext(ctx, "stale chunk cleanup failed", "error", err, "doc_id", payload.DocID)
		return err // Retry
	}

	result, err := h.batcher.Embed(extractCtx, chunks)
	if err != nil {
		slog.ErrorContext(ctx, "embedding failed", "error", err, "doc_id", payload.DocID)
		return err // Retry
	}

	stored := 0
	for _, emb := range result.Embeddings {
		chunk, ok := findChunk(chunks, emb.Ref.Index)
		if !ok {
			continue
		}
		if err := h.index.Upsert(extractCtx, payload.Tenant, chunk, emb.Vector); err != nil {
			slog.ErrorContext(ctx, "store chunk failed", "error", err, "doc_id", payload.DocID, "chunk_index", chunk.Index)
			return err // Retry
		}
		stored++
	}

	if err := h.documents.UpdateCounts(ctx, payload.DocID, len(chunks), stored); err != nil {
		slog.ErrorContext(ctx, "update counts failed", "error", err, "doc_id", payload.DocID)
		return err // Retry
	}

	if stored == 0 {
		h.failDocument(ctx, payload, "all embedding batches failed", DetailEmbeddingFailed)
		return nil
	}

	if err := h.documents.UpdateStatus(ctx, payload.DocID, StatusCompleted); err != nil {
		slog.ErrorContext(ctx, "mark completed failed", "error", err, "doc_id", payload.DocID)
		return err // Retry
	}

	if len(result.Failed) > 0 {
		slog.WarnContext(ctx, "document indexed with gaps",
			"doc_id", payload.DocID, "chunks", len(chunks), "embedded", stored, "failed", len(result.Failed))
	} else {
		slog.InfoContext(ctx, "document indexed",
			"doc_id", payload.DocID, "chunks", len(chunks), "embedded", stored)
	}
	return nil
}

func (h *IngestConsumer) failDocument(ctx context.Context, payload IngestTaskPayload, reason, detail string) {
	slog.ErrorContext(ctx, "ingestion failed permanently", "doc_id", payload.DocID, "reason", reason)
	if err := h.documents.MarkFailed(ctx, payload.DocID, detail); err != nil {
		slog.ErrorContext(ctx, "mark failed errored", "error", err, "doc_id", payload.DocID)
	}
	if err := h.jobs.Record(ctx, payload, reason); err != nil {
		slog.ErrorContext(ctx, "record failed job errored", "error", err, "doc_id", payload.DocID)
	}
}

func findChunk(chunks []text.Chunk, index int) (text.Chunk, bool) {
	for _, c := range chunks {
		if c.Index == index {
			return c, true
		}
	}
	return text.Chunk{}, false
}
