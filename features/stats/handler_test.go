package stats_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"scholaria/backend/features/stats"
)

type mockCounter struct{ mock.Mock }

func (m *mockCounter) Count(ctx context.Context, tenant string) (int, error) {
	args := m.Called(ctx, tenant)
	return args.Int(0), args.Error(1)
}

type mockChunkCounter struct{ mock.Mock }

func (m *mockChunkCounter) CountChunks(ctx context.Context, tenant string) (int, error) {
	args := m.Called(ctx, tenant)
	return args.Int(0), args.Error(1)
}

func TestGetStats(t *testing.T) {
	t.Run("Returns Tenant Counts", func(t *testing.T) {
		docs := &mockCounter{}
		jobs := &mockCounter{}
		chunks := &mockChunkCounter{}
		h := stats.NewHandler(docs, jobs, chunks)

		docs.On("Count", mock.Anything, "default").Return(4, nil)
		jobs.On("Count", mock.Anything, "default").Return(1, nil)
		chunks.On("CountChunks", mock.Anything, "default").Return(120, nil)

		rec := httptest.NewRecorder()
		h.GetStats(rec, httptest.NewRequest("GET", "/api/stats", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"data":{"documents":4,"chunks":120,"failed_jobs":1}}`, rec.Body.String())
	})

	t.Run("Count Failure Is 500", func(t *testing.T) {
		docs := &mockCounter{}
		h := stats.NewHandler(docs, &mockCounter{}, &mockChunkCounter{})

		docs.On("Count", mock.Anything, "default").Return(0, errors.New("db down"))

		rec := httptest.NewRecorder()
		h.GetStats(rec, httptest.NewRequest("GET", "/api/stats", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
