package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var ErrInvalid = errors.New("invalid configuration")

// Config collects every tunable of the pipeline in one validated structure.
// Defaults match the documented pipeline behavior; override via environment.
type Config struct {
	DBHost string `envconfig:"DB_HOST" default:"postgres"`
	DBPort int    `envconfig:"DB_PORT" default:"5432"`
	DBUser string `envconfig:"DB_USER" default:"scholaria"`
	DBPass string `envconfig:"DB_PASS" default:"password"`
	DBName string `envconfig:"DB_NAME" default:"scholaria"`

	WeaviateHost   string `envconfig:"WEAVIATE_HOST" default:"localhost:8080"`
	WeaviateScheme string `envconfig:"WEAVIATE_SCHEME" default:"http"`

	ExtractorURL string `envconfig:"EXTRACTOR_URL" default:"http://extractor:8000"`
	NSQLookupd   string `envconfig:"NSQ_LOOKUPD" default:"nsqlookupd:4161"`
	NSQDHost     string `envconfig:"NSQD_HOST" default:"nsqd:4150"`
	NSQDHTTP     string `envconfig:"NSQD_HTTP" default:"nsqd:4151"`

	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`

	// Chunking
	ChunkSize    int `envconfig:"CHUNK_SIZE" default:"300"`
	ChunkOverlap int `envconfig:"CHUNK_OVERLAP" default:"50"`

	// Embedding
	EmbedBatchSize    int `envconfig:"EMBED_BATCH_SIZE" default:"10"`
	EmbedMaxAttempts  int `envconfig:"EMBED_MAX_ATTEMPTS" default:"3"`
	EmbedRetryDelayMS int `envconfig:"EMBED_RETRY_DELAY_MS" default:"500"`
	EmbedBatchDelayMS int `envconfig:"EMBED_BATCH_DELAY_MS" default:"200"`

	// Retrieval
	SearchTopK      int     `envconfig:"SEARCH_TOP_K" default:"5"`
	SearchThreshold float32 `envconfig:"SEARCH_THRESHOLD" default:"0.7"`

	// Conversation
	MaxMessages        int `envconfig:"MAX_MESSAGES" default:"50"`
	MaxContextMessages int `envconfig:"MAX_CONTEXT_MESSAGES" default:"20"`
	TokenBudget        int `envconfig:"TOKEN_BUDGET" default:"3000"`

	EnableAPI          bool   `envconfig:"ENABLE_API" default:"true"`
	EnableIngestWorker bool   `envconfig:"ENABLE_INGEST_WORKER" default:"false"`
	MigrationPath      string `envconfig:"MIGRATION_PATH" default:"file://migrations"`

	// Server
	ServerPort      int    `envconfig:"SERVER_PORT" default:"8081"`
	QueryLogPath    string `envconfig:"QUERY_LOG_PATH" default:"data/logs/query.log"`
	MaxUploadSizeMB int64  `envconfig:"MAX_UPLOAD_SIZE_MB" default:"50"`
	UploadDir       string `envconfig:"SCHOLARIA_UPLOAD_DIR" default:"./uploads"`

	// Resilience
	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// Env vars may be set in the shell; .env files are optional.
	_ = godotenv.Load(".env")

	cwd, _ := os.Getwd()
	rootEnv := filepath.Join(cwd, "../../.env")
	_ = godotenv.Load(rootEnv)

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DBHost == "" {
		return fmt.Errorf("%w: DB_HOST is required", ErrInvalid)
	}
	if c.DBUser == "" {
		return fmt.Errorf("%w: DB_USER is required", ErrInvalid)
	}
	if c.DBName == "" {
		return fmt.Errorf("%w: DB_NAME is required", ErrInvalid)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: CHUNK_SIZE must be positive", ErrInvalid)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: CHUNK_OVERLAP must be in [0, CHUNK_SIZE)", ErrInvalid)
	}
	if c.EmbedBatchSize <= 0 {
		return fmt.Errorf("%w: EMBED_BATCH_SIZE must be positive", ErrInvalid)
	}
	if c.EmbedMaxAttempts <= 0 {
		return fmt.Errorf("%w: EMBED_MAX_ATTEMPTS must be positive", ErrInvalid)
	}
	if c.SearchTopK <= 0 {
		return fmt.Errorf("%w: SEARCH_TOP_K must be positive", ErrInvalid)
	}
	if c.SearchThreshold < 0 || c.SearchThreshold > 1 {
		return fmt.Errorf("%w: SEARCH_THRESHOLD must be in [0, 1]", ErrInvalid)
	}
	if c.MaxMessages <= 0 {
		return fmt.Errorf("%w: MAX_MESSAGES must be positive", ErrInvalid)
	}
	if c.MaxContextMessages <= 0 || c.MaxContextMessages > c.MaxMessages {
		return fmt.Errorf("%w: MAX_CONTEXT_MESSAGES must be in (0, MAX_MESSAGES]", ErrInvalid)
	}
	if c.TokenBudget <= 0 {
		return fmt.Errorf("%w: TOKEN_BUDGET must be positive", ErrInvalid)
	}
	return nil
}
