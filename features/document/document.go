package document

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"scholaria/backend/internal/config"
	"scholaria/backend/internal/middleware"
	"scholaria/backend/internal/worker"
)

var ErrDuplicate = errors.New("duplicate document")

type Document struct {
	ID            string    `json:"id"`
	Tenant        string    `json:"-"`
	Title         string    `json:"title"`
	Filename      string    `json:"filename"`
	Path          string    `json:"-"`
	ContentHash   string    `json:"-"`
	Status        string    `json:"status"` // pending, processing, completed, failed
	ErrorDetail   string    `json:"error_detail,omitempty"`
	ChunkCount    int       `json:"chunk_count"`
	EmbeddedCount int       `json:"embedded_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Repository interface {
	Save(ctx context.Context, doc *Document) error
	ExistsByHash(ctx context.Context, tenant, hash string) (bool, error)
	Get(ctx context.Context, tenant, id string) (*Document, error)
	List(ctx context.Context, tenant string) ([]Document, error)
	UpdateStatus(ctx context.Context, id, status string) error
	SoftDelete(ctx context.Context, tenant, id string) error
	Count(ctx context.Context, tenant string) (int, error)
}

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

type VectorCleaner interface {
	DeleteByDoc(ctx context.Context, tenant, docID string) error
}

// FailureRecorder captures an ingestion task that could not be delivered so
// the failed-jobs endpoint can republish it later.
type FailureRecorder interface {
	Record(ctx context.Context, payload worker.IngestTaskPayload, reason string) error
}

type Service struct {
	repo    Repository
	pub     EventPublisher
	cleaner VectorCleaner
	jobs    FailureRecorder
}

func NewService(repo Repository, pub EventPublisher, cleaner VectorCleaner) *Service {
	return &Service{repo: repo, pub: pub, cleaner: cleaner}
}

// WithFailureRecorder enables retry bookkeeping for publish failures.
func (s *Service) WithFailureRecorder(jobs FailureRecorder) *Service {
	s.jobs = jobs
	return s
}

// Upload registers the document as pending and hands the heavy lifting to the
// ingest worker. The caller gets a document ID immediately and polls status.
func (s *Service) Upload(ctx context.Context, doc *Document) (*Document, error) {
	exists, err := s.repo.ExistsByHash(ctx, doc.Tenant, doc.ContentHash)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicate
	}

	doc.Status = worker.StatusPending
	if err := s.repo.Save(ctx, doc); err != nil {
		return nil, err
	}

	task := worker.IngestTaskPayload{
		DocID:         doc.ID,
		Tenant:        doc.Tenant,
		Path:          doc.Path,
		CorrelationID: middleware.GetCorrelationID(ctx),
	}
	payload, _ := json.Marshal(task)
	if err := s.pub.Publish(config.TopicIngestTask, payload); err != nil {
		// The row stays pending; the recorded job gives the retry endpoint
		// a payload to republish once the broker is back.
		slog.ErrorContext(ctx, "failed to publish ingest.task event", "error", err, "doc_id", doc.ID)
		if s.jobs != nil {
			if recErr := s.jobs.Record(ctx, task, "failed to publish ingest task"); recErr != nil {
				slog.ErrorContext(ctx, "failed to record undelivered ingest task", "error", recErr, "doc_id", doc.ID)
			}
		}
	} else {
		slog.InfoContext(ctx, "published ingest.task event", "doc_id", doc.ID, "filename", doc.Filename)
	}

	return doc, nil
}

func (s *Service) Get(ctx context.Context, tenant, id string) (*Document, error) {
	return s.repo.Get(ctx, tenant, id)
}

func (s *Service) List(ctx context.Context, tenant string) ([]Document, error) {
	return s.repo.List(ctx, tenant)
}

// Delete removes the document's chunks from the index first, so a failure
// there leaves the row visible rather than orphaning vectors.
func (s *Service) Delete(ctx context.Context, tenant, id string) error {
	if err := s.cleaner.DeleteByDoc(ctx, tenant, id); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, tenant, id)
}
