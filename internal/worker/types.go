package worker

import (
	"context"

	"scholaria/backend/internal/embed"
	"scholaria/backend/internal/text"
)

type Extractor interface {
	Extract(ctx context.Context, path string) ([]text.Element, error)
}

type VectorIndex interface {
	Upsert(ctx context.Context, tenant string, chunk text.Chunk, vector []float32) error
	DeleteByDoc(ctx context.Context, tenant, docID string) error
}

type Batcher interface {
	Embed(ctx context.Context, chunks []text.Chunk) (*embed.Result, error)
}

type DocumentUpdater interface {
	UpdateStatus(ctx context.Context, id, status string) error
	UpdateCounts(ctx context.Context, id string, chunkCount, embeddedCount int) error
	MarkFailed(ctx context.Context, id, detail string) error
}

type JobRecorder interface {
	Record(ctx context.Context, payload IngestTaskPayload, reason string) error
}
