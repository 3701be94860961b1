package job_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"scholaria/backend/features/job"
	"scholaria/backend/internal/config"
	"scholaria/backend/internal/worker"
)

type mockRepo struct{ mock.Mock }

func (m *mockRepo) Save(ctx context.Context, j *job.Job) error {
	args := m.Called(ctx, j)
	return args.Error(0)
}

func (m *mockRepo) List(ctx context.Context, tenant string) ([]job.Job, error) {
	args := m.Called(ctx, tenant)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]job.Job), args.Error(1)
}

func (m *mockRepo) Get(ctx context.Context, id string) (*job.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*job.Job), args.Error(1)
}

func (m *mockRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockRepo) Count(ctx context.Context, tenant string) (int, error) {
	args := m.Called(ctx, tenant)
	return args.Int(0), args.Error(1)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(topic string, body []byte) error {
	args := m.Called(topic, body)
	return args.Error(0)
}

func TestServiceRecord(t *testing.T) {
	repo := &mockRepo{}
	svc := job.NewService(repo, &mockPublisher{})

	repo.On("Save", mock.Anything, mock.MatchedBy(func(j *job.Job) bool {
		var p worker.IngestTaskPayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return false
		}
		return j.DocID == "doc-1" && j.Tenant == "tenant-a" &&
			j.Error == "no extractable text" && p.Path == "/uploads/x.pdf"
	})).Return(nil)

	err := svc.Record(context.Background(), worker.IngestTaskPayload{
		DocID:  "doc-1",
		Tenant: "tenant-a",
		Path:   "/uploads/x.pdf",
	}, "no extractable text")
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestServiceRetry(t *testing.T) {
	payload := json.RawMessage(`{"doc_id":"doc-1","tenant":"tenant-a","path":"/uploads/x.pdf"}`)

	t.Run("Republishes And Deletes", func(t *testing.T) {
		repo := &mockRepo{}
		pub := &mockPublisher{}
		svc := job.NewService(repo, pub)

		repo.On("Get", mock.Anything, "job-1").Return(&job.Job{ID: "job-1", Payload: payload}, nil)
		pub.On("Publish", config.TopicIngestTask, []byte(payload)).Return(nil)
		repo.On("Delete", mock.Anything, "job-1").Return(nil)

		require.NoError(t, svc.Retry(context.Background(), "job-1"))
		repo.AssertExpectations(t)
		pub.AssertExpectations(t)
	})

	t.Run("Missing Job", func(t *testing.T) {
		repo := &mockRepo{}
		svc := job.NewService(repo, &mockPublisher{})

		repo.On("Get", mock.Anything, "missing").Return(nil, sql.ErrNoRows)
		assert.ErrorIs(t, svc.Retry(context.Background(), "missing"), sql.ErrNoRows)
	})

	t.Run("Publish Failure Keeps Job", func(t *testing.T) {
		repo := &mockRepo{}
		pub := &mockPublisher{}
		svc := job.NewService(repo, pub)

		repo.On("Get", mock.Anything, "job-1").Return(&job.Job{ID: "job-1", Payload: payload}, nil)
		pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("nsq down"))

		assert.Error(t, svc.Retry(context.Background(), "job-1"))
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}
