package job

import (
	"context"
	"encoding/json"

	"scholaria/backend/internal/config"
	"scholaria/backend/internal/middleware"
	"scholaria/backend/internal/worker"
)

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

type Service struct {
	repo Repository
	pub  EventPublisher
}

func NewService(repo Repository, pub EventPublisher) *Service {
	return &Service{repo: repo, pub: pub}
}

func (s *Service) List(ctx context.Context, tenant string) ([]Job, error) {
	return s.repo.List(ctx, tenant)
}

// Record captures a permanently failed ingestion. The stored payload is the
// original ingest.task body so Retry can republish without reconstructing it.
func (s *Service) Record(ctx context.Context, payload worker.IngestTaskPayload, reason string) error {
	if payload.CorrelationID == "" {
		payload.CorrelationID = middleware.GetCorrelationID(ctx)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.repo.Save(ctx, &Job{
		DocID:   payload.DocID,
		Tenant:  payload.Tenant,
		Payload: raw,
		Error:   reason,
	})
}

func (s *Service) Retry(ctx context.Context, id string) error {
	job, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.pub.Publish(config.TopicIngestTask, job.Payload); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) Count(ctx context.Context, tenant string) (int, error) {
	return s.repo.Count(ctx, tenant)
}
