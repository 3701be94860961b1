package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"scholaria/backend/features/chat"
	"scholaria/backend/features/document"
	"scholaria/backend/features/job"
	"scholaria/backend/features/stats"
	"scholaria/backend/internal/adapter/extractor"
	"scholaria/backend/internal/config"
	"scholaria/backend/internal/embed"
	"scholaria/backend/internal/middleware"
	"scholaria/backend/internal/retrieval"
	"scholaria/backend/internal/text"
	"scholaria/backend/internal/thread"
	"scholaria/backend/internal/worker"
)

// VectorStore is the full vector-index surface the application needs:
// ingestion writes, retrieval reads, cleanup, and stats.
type VectorStore interface {
	Upsert(ctx context.Context, tenant string, chunk text.Chunk, vector []float32) error
	DeleteByDoc(ctx context.Context, tenant, docID string) error
	SimilaritySearch(ctx context.Context, tenant string, vector []float32, topK int, threshold float32) ([]retrieval.Result, error)
	CountChunks(ctx context.Context, tenant string) (int, error)
}

type TaskPublisher interface {
	Publish(topic string, body []byte) error
}

type App struct {
	Handler         http.Handler
	DocumentService *document.Service
	ChatService     *chat.Service
	IngestConsumer  *worker.IngestConsumer

	port int
}

func New(
	cfg *config.Config,
	db *sql.DB,
	vecStore VectorStore,
	taskPub TaskPublisher,
	provider embed.Embedder,
	generator chat.Generator,
) (*App, error) {
	batcher := embed.NewBatcher(provider, embed.Options{
		BatchSize:   cfg.EmbedBatchSize,
		MaxAttempts: cfg.EmbedMaxAttempts,
		RetryDelay:  time.Duration(cfg.EmbedRetryDelayMS) * time.Millisecond,
		BatchDelay:  time.Duration(cfg.EmbedBatchDelayMS) * time.Millisecond,
	})

	queryLogger, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		slog.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLogger = retrieval.NewQueryLogger(os.Stdout)
	}
	retrievalService := retrieval.NewService(batcher, vecStore, queryLogger)

	// Feature: Job
	jobRepo := job.NewPostgresRepo(db)
	jobService := job.NewService(jobRepo, taskPub)
	jobHandler := job.NewHandler(jobService)

	// Feature: Document
	documentRepo := document.NewPostgresRepo(db)
	documentService := document.NewService(documentRepo, taskPub, vecStore).
		WithFailureRecorder(jobService)
	documentHandler := document.NewHandler(documentService, cfg.UploadDir, int(cfg.MaxUploadSizeMB))

	// Feature: Stats
	statsHandler := stats.NewHandler(documentRepo, jobRepo, vecStore)

	// Feature: Chat
	hub := thread.NewHub(func(tenant string) thread.Store {
		return thread.NewTenantStore(db, tenant)
	}, cfg.MaxMessages, cfg.MaxContextMessages)

	chatService := chat.NewService(retrievalService, generator, hub, cfg.TokenBudget).
		WithSearchOptions(&retrieval.SearchOptions{
			TopK:      &cfg.SearchTopK,
			Threshold: &cfg.SearchThreshold,
		})
	chatHandler := chat.NewHandler(chatService)

	// Worker: ingestion pipeline behind the ingest.task topic.
	extractorClient := extractor.NewClient(cfg.ExtractorURL)
	ingestConsumer := worker.NewIngestConsumer(
		extractorClient, batcher, vecStore, documentRepo, jobService,
		cfg.ChunkSize, cfg.ChunkOverlap)

	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Tenant-ID, X-Correlation-ID")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}
	wrap := func(next http.HandlerFunc) http.Handler {
		return middleware.CorrelationID(middleware.TenantID(enableCORS(next)))
	}

	mux := http.NewServeMux()

	mux.Handle("POST /api/documents/upload", wrap(documentHandler.Upload))
	mux.Handle("GET /api/documents", wrap(documentHandler.List))
	mux.Handle("GET /api/documents/{id}", wrap(documentHandler.Get))
	mux.Handle("DELETE /api/documents/{id}", wrap(documentHandler.Delete))

	mux.Handle("POST /api/chat", wrap(chatHandler.Ask))
	mux.Handle("GET /api/chat/history", wrap(chatHandler.History))
	mux.Handle("DELETE /api/chat/thread", wrap(chatHandler.Clear))
	mux.Handle("POST /api/search", wrap(chatHandler.Search))

	mux.Handle("GET /api/jobs/failed", wrap(jobHandler.List))
	mux.Handle("POST /api/jobs/{id}/retry", wrap(jobHandler.Retry))

	mux.Handle("GET /api/stats", wrap(statsHandler.GetStats))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return &App{
		Handler:         mux,
		DocumentService: documentService,
		ChatService:     chatService,
		IngestConsumer:  ingestConsumer,
		port:            cfg.ServerPort,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.port),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
