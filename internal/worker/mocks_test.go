package worker_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"scholaria/backend/internal/embed"
	"scholaria/backend/internal/text"
	"scholaria/backend/internal/worker"
)

type mockExtractor struct{ mock.Mock }

func (m *mockExtractor) Extract(ctx context.Context, path string) ([]text.Element, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]text.Element), args.Error(1)
}

type mockBatcher struct{ mock.Mock }

func (m *mockBatcher) Embed(ctx context.Context, chunks []text.Chunk) (*embed.Result, error) {
	args := m.Called(ctx, chunks)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*embed.Result), args.Error(1)
}

type mockVectorIndex struct{ mock.Mock }

func (m *mockVectorIndex) Upsert(ctx context.Context, tenant string, chunk text.Chunk, vector []float32) error {
	args := m.Called(ctx, tenant, chunk, vector)
	return args.Error(0)
}

func (m *mockVectorIndex) DeleteByDoc(ctx context.Context, tenant, docID string) error {
	args := m.Called(ctx, tenant, docID)
	return args.Error(0)
}

type mockDocumentUpdater struct{ mock.Mock }

func (m *mockDocumentUpdater) UpdateStatus(ctx context.Context, id, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockDocumentUpdater) UpdateCounts(ctx context.Context, id string, chunkCount, embeddedCount int) error {
	args := m.Called(ctx, id, chunkCount, embeddedCount)
	return args.Error(0)
}

func (m *mockDocumentUpdater) MarkFailed(ctx context.Context, id, detail string) error {
	args := m.Called(ctx, id, detail)
	return args.Error(0)
}

type mockJobRecorder struct{ mock.Mock }

func (m *mockJobRecorder) Record(ctx context.Context, payload worker.IngestTaskPayload, reason string) error {
	args := m.Called(ctx, payload, reason)
	return args.Error(0)
}
